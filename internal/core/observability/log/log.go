// Package log is a thin structured-logging facade over zap. Components
// receive a Log explicitly; there is no package-level logger.
package log

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field is a structured log field.
type Field = zap.Field

// Field constructors, re-exported so callers don't import zap directly.
var (
	String   = zap.String
	Int      = zap.Int
	Int64    = zap.Int64
	Float64  = zap.Float64
	Bool     = zap.Bool
	Duration = zap.Duration
	Err      = zap.Error
	Any      = zap.Any
)

// Log is the logging interface handed to components.
type Log interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	With(fields ...Field) Log
}

// Config selects level and output encoding.
type Config struct {
	Level    string `json:"level" yaml:"level"`       // debug, info, warn, error
	Encoding string `json:"encoding" yaml:"encoding"` // console or json
}

// New builds a zap-backed logger writing to stderr.
func New(cfg Config) (Log, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.Set(cfg.Level); err != nil {
			return nil, fmt.Errorf("log: invalid level %q: %w", cfg.Level, err)
		}
	}

	encoding := cfg.Encoding
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	switch encoding {
	case "", "console":
		encoding = "console"
	case "json":
		encoderConfig = zap.NewProductionEncoderConfig()
	default:
		return nil, fmt.Errorf("log: invalid encoding %q", cfg.Encoding)
	}

	zcfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		DisableCaller:    true,
	}

	zl, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("log: %w", err)
	}
	return &logger{z: zl}, nil
}

// NewNop returns a logger that discards everything.
func NewNop() Log { return &logger{z: zap.NewNop()} }

type logger struct {
	z *zap.Logger
}

func (l *logger) Debug(msg string, fields ...Field) { l.z.Debug(msg, fields...) }
func (l *logger) Info(msg string, fields ...Field)  { l.z.Info(msg, fields...) }
func (l *logger) Warn(msg string, fields ...Field)  { l.z.Warn(msg, fields...) }
func (l *logger) Error(msg string, fields ...Field) { l.z.Error(msg, fields...) }

func (l *logger) With(fields ...Field) Log {
	return &logger{z: l.z.With(fields...)}
}
