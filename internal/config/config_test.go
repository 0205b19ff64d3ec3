package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFrom_FullConfig(t *testing.T) {
	path := writeConfig(t, `
default_volume = 0.6

[log]
level = "debug"
output = "stdout"

[[tracks]]
title = "First"
subtitle = "Someone"
audio = "/music/first.mp3"
cover = "/music/first.jpg"

[[tracks]]
audio = "https://example.org/stream.mp3"
`)

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.DefaultVolume != 0.6 {
		t.Errorf("DefaultVolume = %v, want 0.6", cfg.DefaultVolume)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Output != "stdout" {
		t.Errorf("Log = %+v, want debug/stdout", cfg.Log)
	}
	if len(cfg.Tracks) != 2 {
		t.Fatalf("len(Tracks) = %d, want 2", len(cfg.Tracks))
	}
	if cfg.Tracks[0].Title != "First" || cfg.Tracks[0].Audio != "/music/first.mp3" {
		t.Errorf("Tracks[0] = %+v", cfg.Tracks[0])
	}
	if cfg.Tracks[1].Audio != "https://example.org/stream.mp3" {
		t.Errorf("Tracks[1].Audio = %q, want URL unchanged", cfg.Tracks[1].Audio)
	}
}

func TestLoadFrom_Defaults(t *testing.T) {
	path := writeConfig(t, `
[[tracks]]
audio = "/music/only.mp3"
`)

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.DefaultVolume != 1.0 {
		t.Errorf("DefaultVolume = %v, want 1.0", cfg.DefaultVolume)
	}
	if cfg.Log.Level != "info" || cfg.Log.Output != "stderr" {
		t.Errorf("Log = %+v, want info/stderr defaults", cfg.Log)
	}
}

func TestLoadFrom_ClampsVolume(t *testing.T) {
	path := writeConfig(t, `
default_volume = 1.8

[[tracks]]
audio = "/music/only.mp3"
`)

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.DefaultVolume != 1.0 {
		t.Errorf("DefaultVolume = %v, want clamped to 1.0", cfg.DefaultVolume)
	}
}

func TestLoadFrom_NoTracks_ReturnsError(t *testing.T) {
	path := writeConfig(t, `default_volume = 0.5`)

	_, err := LoadFrom(path)
	if !errors.Is(err, ErrNoTracks) {
		t.Fatalf("LoadFrom() error = %v, want ErrNoTracks", err)
	}
}

func TestLoadFrom_MissingFilesSkipped(t *testing.T) {
	path := writeConfig(t, `
[[tracks]]
audio = "/music/only.mp3"
`)

	cfg, err := LoadFrom("/nonexistent/config.toml", path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if len(cfg.Tracks) != 1 {
		t.Errorf("len(Tracks) = %d, want 1", len(cfg.Tracks))
	}
}

func TestLoadFrom_LaterPathWins(t *testing.T) {
	base := writeConfig(t, `
default_volume = 0.2

[[tracks]]
audio = "/music/base.mp3"
`)
	override := writeConfig(t, `default_volume = 0.9`)

	cfg, err := LoadFrom(base, override)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.DefaultVolume != 0.9 {
		t.Errorf("DefaultVolume = %v, want 0.9 from override", cfg.DefaultVolume)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("Could not get home dir: %v", err)
	}

	tests := []struct {
		input string
		want  string
	}{
		{"~/music/a.mp3", filepath.Join(home, "music", "a.mp3")},
		{"~", home},
		{"/usr/local/a.mp3", "/usr/local/a.mp3"},
		{"https://example.org/a.mp3", "https://example.org/a.mp3"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := expandPath(tt.input); got != tt.want {
			t.Errorf("expandPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
