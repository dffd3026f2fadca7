// Package logging builds the zap loggers used by aisingest.
package logging

import (
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/askiada/go-aisingest/internal/config"
)

const (
	// EnvironmentProduction logs JSON.
	EnvironmentProduction = "production"
	// EnvironmentDevelopment logs coloured console lines.
	EnvironmentDevelopment = "development"
)

// NewLogger creates a zap logger writing to stderr so that stdout stays free for command output.
func NewLogger(cfg config.Log) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid log level %q", cfg.Level)
	}

	var (
		encoderConfig zapcore.EncoderConfig
		encoding      string
	)
	switch cfg.Environment {
	case EnvironmentProduction:
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoding = "json"
	case EnvironmentDevelopment, "":
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoding = "console"
	default:
		return nil, errors.Errorf("invalid log environment %q", cfg.Environment)
	}

	zapConfig := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       cfg.Environment != EnvironmentProduction,
		DisableStacktrace: true,
		Encoding:          encoding,
		EncoderConfig:     encoderConfig,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build logger")
	}

	return logger, nil
}
