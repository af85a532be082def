package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (SLPRESCALE_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	type intVar struct {
		flag, env string
		dst       *int
	}
	dims := []intVar{
		{"old-width", "SLPRESCALE_OLD_WIDTH", &cfg.OldWidth},
		{"old-height", "SLPRESCALE_OLD_HEIGHT", &cfg.OldHeight},
		{"new-width", "SLPRESCALE_NEW_WIDTH", &cfg.NewWidth},
		{"new-height", "SLPRESCALE_NEW_HEIGHT", &cfg.NewHeight},
		{"width", "SLPRESCALE_WIDTH", &cfg.Width},
		{"height", "SLPRESCALE_HEIGHT", &cfg.Height},
	}
	for _, v := range dims {
		if err := s.setDimFromString(v.flag, os.Getenv(v.env), v.dst); err != nil {
			return err
		}
	}

	ints := []intVar{
		{"jpeg-quality", "SLPRESCALE_JPEG_QUALITY", &cfg.JPEGQuality},
		{"qscale", "SLPRESCALE_QSCALE", &cfg.QScale},
	}
	for _, v := range ints {
		if err := s.setIntFromString(v.flag, os.Getenv(v.env), v.dst); err != nil {
			return err
		}
	}

	s.setString("ledger", os.Getenv("SLPRESCALE_LEDGER"), &cfg.LedgerPath)
	s.setString("log-level", os.Getenv("SLPRESCALE_LOG_LEVEL"), &cfg.LogLevel)
	s.setString("log-format", os.Getenv("SLPRESCALE_LOG_FORMAT"), &cfg.LogFormat)
	s.setString("ffmpeg", os.Getenv("SLPRESCALE_FFMPEG"), &cfg.FFmpegPath)
	s.setString("ffprobe", os.Getenv("SLPRESCALE_FFPROBE"), &cfg.FFprobePath)
	s.setStringsFromString("include", os.Getenv("SLPRESCALE_VIDEO_INCLUDE"), &cfg.VideoInclude)

	if err := s.setDuration("settle", os.Getenv("SLPRESCALE_SETTLE_DELAY"), &cfg.SettleDelay); err != nil {
		return err
	}

	s.setBoolFromString("images", os.Getenv("SLPRESCALE_IMAGES"), &cfg.ResizeImages)
	s.setBoolFromString("refuse-rescaled", os.Getenv("SLPRESCALE_REFUSE_RESCALED"), &cfg.RefuseRescaled)
	s.setBoolFromString("no-progress", os.Getenv("SLPRESCALE_NO_PROGRESS"), &cfg.NoProgress)
	s.setBoolFromString("watch", os.Getenv("SLPRESCALE_WATCH"), &cfg.Watch)

	return nil
}
