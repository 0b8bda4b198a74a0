// Package config defines environment configuration structs and loaders.
package config

import (
	"strings"

	"github.com/caarlos0/env/v11"
)

type AppConfig struct {
	LogEnvConfig
	ServerEnvConfig
	EvaluationEnvConfig
}

func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LogEnvConfig selects the runtime environment and log verbosity.
type LogEnvConfig struct {
	Environment string `env:"ENVIRONMENT" envDefault:"prod"`
	LogLevel    string `env:"LOG_LEVEL"`
}

// ServerEnvConfig configures the evaluation HTTP server.
type ServerEnvConfig struct {
	Host          string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port          int    `env:"SERVER_PORT" envDefault:"8888"`
	BodySizeLimit int    `env:"SERVER_BODY_LIMIT" envDefault:"4194304"`
}

// EvaluationEnvConfig configures metric evaluation defaults.
type EvaluationEnvConfig struct {
	DefaultK    int    `env:"METRICS_DEFAULT_K" envDefault:"5"`
	Concurrency int    `env:"EVAL_CONCURRENCY" envDefault:"4"`
	SuiteFile   string `env:"EVAL_SUITE_FILE"`
}

func (c LogEnvConfig) IsDev() bool {
	switch strings.ToLower(c.Environment) {
	case "dev", "test":
		return true
	}
	return false
}
