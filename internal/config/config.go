package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the demo encoder.
type Config struct {
	// FFmpeg configuration
	FFmpegPath string `envconfig:"FFMPEG_PATH"`

	// Frame configuration
	Width     int `envconfig:"FRAME_WIDTH" default:"640"`
	Height    int `envconfig:"FRAME_HEIGHT" default:"480"`
	Framerate int `envconfig:"FRAMERATE" default:"60"`

	// Clip configuration
	Duration time.Duration `envconfig:"DURATION" default:"5s"`

	// Pipe configuration
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"10s"`
	CloseTimeout time.Duration `envconfig:"CLOSE_TIMEOUT" default:"30s"`
}

// Load returns the default configuration overridden by FFMPIPE_* environment
// variables.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("ffmpipe", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
