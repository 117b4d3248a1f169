package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Settings configure the command line tools rather than a model run.
type Settings struct {
	DataDir  string `env:"GOCLASS_DATA_DIR" envDefault:".goclass"`
	LogLevel string `env:"GOCLASS_LOG_LEVEL" envDefault:"info"`
	Workers  int    `env:"GOCLASS_WORKERS" envDefault:"0"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func LoadSettings() (Settings, error) {
	var s Settings
	err := ParseEnv(&s)
	return s, err
}
