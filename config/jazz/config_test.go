package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMustLoadDefaults(t *testing.T) {
	t.Setenv("SDK_KEY", "blob")

	cfg := MustLoad()

	assert.Equal(t, "blob", cfg.SDKKey)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "https://api.salutejazz.ru", cfg.JazzBaseURL)
	assert.Equal(t, "jazz_rooms.json", cfg.RoomsPath)
	assert.Equal(t, "transcriptions_log.txt", cfg.TranscriptLogPath)
	assert.Equal(t, 3, cfg.WindowOffsetHours)
}

func TestMustLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("JAZZ_BASE_URL", "https://jazz.test")
	t.Setenv("WINDOW_OFFSET_HOURS", "5")

	cfg := MustLoad()

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "https://jazz.test", cfg.JazzBaseURL)
	assert.Equal(t, 5, cfg.WindowOffsetHours)
}
