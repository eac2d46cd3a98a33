package config

import "github.com/ilyakaznacheev/cleanenv"

type Config struct {
	Port              int    `env:"PORT" env-default:"8080"`
	SDKKey            string `env:"SDK_KEY"`
	JazzBaseURL       string `env:"JAZZ_BASE_URL" env-default:"https://api.salutejazz.ru"`
	RoomsPath         string `env:"ROOMS_PATH" env-default:"jazz_rooms.json"`
	TranscriptLogPath string `env:"TRANSCRIPT_LOG_PATH" env-default:"transcriptions_log.txt"`
	// Fallback UTC offset applied to transcript window bounds that carry
	// no offset of their own.
	WindowOffsetHours int    `env:"WINDOW_OFFSET_HOURS" env-default:"3"`
	DatabaseURL       string `env:"DATABASE_URL"`
}

func MustLoad() *Config {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		panic("failed to read environment variables: " + err.Error())
	}
	return &cfg
}
