package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Defaults for values that have no natural zero.
const (
	DefaultJPEGQuality = 95
	DefaultQScale      = 3
	DefaultSettleDelay = 2 * time.Second
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "auto"
)

// Config holds CLI configuration for slprescale.
type Config struct {
	// Source and target resolution of a rescale run.
	OldWidth  int
	OldHeight int
	NewWidth  int
	NewHeight int

	// Target size for set-shape and resize-videos.
	Width  int
	Height int

	ResizeImages   bool
	JPEGQuality    int
	LedgerPath     string
	RefuseRescaled bool

	LogLevel   string
	LogFormat  string
	NoProgress bool

	VideoInclude []string
	FFmpegPath   string
	FFprobePath  string
	QScale       int
	Watch        bool
	SettleDelay  time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		OldWidth:     2252,
		OldHeight:    2252,
		NewWidth:     3240,
		NewHeight:    2890,
		Width:        3240,
		Height:       2890,
		ResizeImages: true,
		JPEGQuality:  DefaultJPEGQuality,
		LedgerPath:   DefaultLedgerPath(),
		LogLevel:     DefaultLogLevel,
		LogFormat:    DefaultLogFormat,
		VideoInclude: []string{"**/*.mp4"},
		FFmpegPath:   "ffmpeg",
		FFprobePath:  "ffprobe",
		QScale:       DefaultQScale,
		SettleDelay:  DefaultSettleDelay,
	}
}

// DefaultLedgerPath returns ~/.slprescale/history.db, or "" when the home
// directory is unknown.
func DefaultLedgerPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".slprescale", "history.db")
	}
	return ""
}

// Validate checks the configuration for errors and normalizes values.
// Dimensions are checked by the commands that use them.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LedgerPath) {
	case "off", "none":
		c.LedgerPath = ""
	}

	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("jpeg-quality must be between 1 and 100")
	}
	if c.QScale < 1 || c.QScale > 31 {
		return fmt.Errorf("qscale must be between 1 and 31")
	}
	if c.SettleDelay <= 0 {
		return fmt.Errorf("settle delay must be positive")
	}

	c.LogLevel = strings.ToLower(c.LogLevel)
	switch c.LogLevel {
	case "":
		c.LogLevel = DefaultLogLevel
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}

	c.LogFormat = strings.ToLower(c.LogFormat)
	switch c.LogFormat {
	case "":
		c.LogFormat = DefaultLogFormat
	case "auto", "console", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}

	if len(c.VideoInclude) == 0 {
		c.VideoInclude = []string{"**/*.mp4"}
	}
	if c.FFmpegPath == "" {
		c.FFmpegPath = "ffmpeg"
	}
	if c.FFprobePath == "" {
		c.FFprobePath = "ffprobe"
	}

	return nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setIntPtr sets an int value whenever the file names it, zero and negative
// included. Dimensions are validated downstream.
func (s *configSetter) setIntPtr(flag string, value *int, dst *int) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setDimFromString parses a dimension from the environment. Unlike
// setIntFromString, any integer is applied so that a zero reaches validation.
func (s *configSetter) setDimFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}

// setStrings sets a list if not empty and flag not changed.
func (s *configSetter) setStrings(flag string, value []string, dst *[]string) {
	if len(value) == 0 || s.changed[flag] {
		return
	}
	*dst = append([]string(nil), value...)
}

// setStringsFromString splits a comma-separated list and sets the destination.
// Used for environment variables that come as strings.
func (s *configSetter) setStringsFromString(flag, value string, dst *[]string) {
	if value == "" || s.changed[flag] {
		return
	}
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) > 0 {
		*dst = out
	}
}
