package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Empty(t, cfg.FFmpegPath)
	assert.Equal(t, 640, cfg.Width)
	assert.Equal(t, 480, cfg.Height)
	assert.Equal(t, 60, cfg.Framerate)
	assert.Equal(t, 5*time.Second, cfg.Duration)
	assert.Equal(t, 10*time.Second, cfg.WriteTimeout)
	assert.Equal(t, 30*time.Second, cfg.CloseTimeout)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("FFMPIPE_FRAME_WIDTH", "320")
	t.Setenv("FFMPIPE_DURATION", "2s")
	t.Setenv("FFMPIPE_FFMPEG_PATH", "/usr/local/bin/ffmpeg")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 320, cfg.Width)
	assert.Equal(t, 2*time.Second, cfg.Duration)
	assert.Equal(t, "/usr/local/bin/ffmpeg", cfg.FFmpegPath)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("FFMPIPE_FRAMERATE", "not-a-number")

	_, err := Load()
	require.Error(t, err)
}
