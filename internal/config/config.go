// Package config loads the spindle configuration file.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/cockroachdb/errors"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ErrNoTracks is returned when the configuration declares no tracks.
var ErrNoTracks = errors.New("config: no tracks configured")

type Config struct {
	DefaultVolume float64      `koanf:"default_volume"` // 0.0-1.0, clamped
	Log           LogConfig    `koanf:"log"`
	Tracks        []TrackEntry `koanf:"tracks"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `koanf:"level"`  // "debug", "info", "warn", "error"
	Output string `koanf:"output"` // "stdout", "stderr", or a file path
}

// TrackEntry is one playlist entry. Audio is required; the other fields are
// optional and filled from embedded tags where possible.
type TrackEntry struct {
	Title    string `koanf:"title"`
	Subtitle string `koanf:"subtitle"`
	Audio    string `koanf:"audio"`
	Cover    string `koanf:"cover"`
}

// Load reads the configuration from the default locations
// ($XDG_CONFIG_HOME/spindle/config.toml, then ./config.toml, last wins).
func Load() (*Config, error) {
	return LoadFrom(defaultPaths()...)
}

// LoadFrom reads the configuration from the given paths, later paths taking
// priority. Missing files are skipped.
func LoadFrom(paths ...string) (*Config, error) {
	k := koanf.New(".")

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, errors.Wrapf(err, "load %s", path)
			}
		}
	}

	cfg := &Config{
		DefaultVolume: 1.0,
		Log:           LogConfig{Level: "info", Output: "stderr"},
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}

	if len(cfg.Tracks) == 0 {
		return nil, ErrNoTracks
	}

	cfg.DefaultVolume = min(max(cfg.DefaultVolume, 0), 1)

	for i := range cfg.Tracks {
		cfg.Tracks[i].Audio = expandPath(cfg.Tracks[i].Audio)
		cfg.Tracks[i].Cover = expandPath(cfg.Tracks[i].Cover)
	}

	return cfg, nil
}

func defaultPaths() []string {
	return []string{
		filepath.Join(xdg.ConfigHome, "spindle", "config.toml"),
		"config.toml",
	}
}

// expandPath expands a leading ~ to the user's home directory.
// Remote URLs are returned unchanged.
func expandPath(path string) string {
	if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
