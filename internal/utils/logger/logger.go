// Package logger provides a global logger for the application
package logger

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"go.uber.org/zap"
)

var Logger = zap.NewNop()

func initLogger(level string) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).With().Caller().Logger()

	environment := strings.ToLower(os.Getenv("ENVIRONMENT"))
	if environment == "" {
		environment = "prod"
	}

	var logLevel zerolog.Level
	switch environment {
	case "dev", "test":
		logLevel = zerolog.TraceLevel
		log.Info().Str("environment", environment).Msg("Development/Test environment detected - enabling all log levels")
	case "prod":
		logLevel = zerolog.InfoLevel
		log.Info().Str("environment", environment).Msg("Production environment detected - enabling info level and above")
	default:
		logLevel = zerolog.InfoLevel
		log.Warn().Str("environment", environment).Msg("Unknown environment - defaulting to production log level (info and above)")
	}

	if level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(level))
		if err != nil {
			log.Warn().Str("level", level).Err(err).Msg("Invalid log level - keeping environment log level")
		} else {
			logLevel = parsed
			log.Info().Str("level", parsed.String()).Msg("Log level override detected - overriding environment log level")
		}
	}

	zerolog.SetGlobalLevel(logLevel)

	zapLogger, err := newZapLogger(environment, logLevel)
	if err != nil {
		log.Error().Err(err).Msg("failed to build zap logger, falling back to no-op")
		zapLogger = zap.NewNop()
	}
	Logger = zapLogger
}

func newZapLogger(environment string, level zerolog.Level) (*zap.Logger, error) {
	var cfg zap.Config
	if environment == "prod" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	switch {
	case level <= zerolog.DebugLevel:
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case level == zerolog.InfoLevel:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case level == zerolog.WarnLevel:
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return cfg.Build()
}

// Init initializes the logger with the configuration from the environment
// and an optional level override ("trace", "debug", "info", ...).
// It sets up the global logger to use zerolog with console output.
// Example usage:
//
//	logger.Init(cfg.LogLevel) <- inside whichever main() function in your entrypoint
//
// Then, `LOG_LEVEL=debug go run ./cmd/objrank evaluate ...`
func Init(level string) {
	initLogger(level)
}

// Sugar returns a sugared logger for easier use
func Sugar() *zap.SugaredLogger {
	return Logger.Sugar()
}
