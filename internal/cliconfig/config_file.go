package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
// Dimensions are pointers so an explicit zero is told apart from an absent key.
type FileConfig struct {
	OldWidth       *int     `toml:"old_width"`
	OldHeight      *int     `toml:"old_height"`
	NewWidth       *int     `toml:"new_width"`
	NewHeight      *int     `toml:"new_height"`
	Width          *int     `toml:"width"`
	Height         *int     `toml:"height"`
	ResizeImages   *bool    `toml:"resize_images"`
	JPEGQuality    int      `toml:"jpeg_quality"`
	Ledger         string   `toml:"ledger"`
	RefuseRescaled *bool    `toml:"refuse_rescaled"`
	LogLevel       string   `toml:"log_level"`
	LogFormat      string   `toml:"log_format"`
	NoProgress     *bool    `toml:"no_progress"`
	VideoInclude   []string `toml:"video_include"`
	FFmpegPath     string   `toml:"ffmpeg"`
	FFprobePath    string   `toml:"ffprobe"`
	QScale         int      `toml:"qscale"`
	Watch          *bool    `toml:"watch"`
	SettleDelay    string   `toml:"settle_delay"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.slprescale/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".slprescale", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setIntPtr("old-width", fc.OldWidth, &cfg.OldWidth)
	s.setIntPtr("old-height", fc.OldHeight, &cfg.OldHeight)
	s.setIntPtr("new-width", fc.NewWidth, &cfg.NewWidth)
	s.setIntPtr("new-height", fc.NewHeight, &cfg.NewHeight)
	s.setIntPtr("width", fc.Width, &cfg.Width)
	s.setIntPtr("height", fc.Height, &cfg.Height)
	s.setInt("jpeg-quality", fc.JPEGQuality, &cfg.JPEGQuality)
	s.setInt("qscale", fc.QScale, &cfg.QScale)

	s.setString("ledger", fc.Ledger, &cfg.LedgerPath)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("log-format", fc.LogFormat, &cfg.LogFormat)
	s.setString("ffmpeg", fc.FFmpegPath, &cfg.FFmpegPath)
	s.setString("ffprobe", fc.FFprobePath, &cfg.FFprobePath)
	s.setStrings("include", fc.VideoInclude, &cfg.VideoInclude)

	if err := s.setDuration("settle", fc.SettleDelay, &cfg.SettleDelay); err != nil {
		return err
	}

	s.setBool("images", fc.ResizeImages, &cfg.ResizeImages)
	s.setBool("refuse-rescaled", fc.RefuseRescaled, &cfg.RefuseRescaled)
	s.setBool("no-progress", fc.NoProgress, &cfg.NoProgress)
	s.setBool("watch", fc.Watch, &cfg.Watch)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
