// Package log provides the logging abstraction used by slprescale.
//
// Components depend on the Logger interface only. A zerolog-backed
// implementation is provided for the CLI and a no-op logger for library
// callers that do not want output.
//
//	logger := log.NewZerolog(log.Options{Level: "debug", Format: "json"})
//	logger.Info("rescaled", log.Int("points", 1200))
package log
