// Package logger builds the zap loggers used by the API server, the task
// runner and the migration tool, and carries request and job ids through
// context.
package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const defaultTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Config mirrors the [log] section of the configuration file.
type Config struct {
	Level      string // debug, info, warn or error
	Format     string // json or console
	Output     string // stdout, stderr or a file path
	TimeFormat string
}

// New builds a logger at a fixed level.
func New(cfg *Config, extra ...zapcore.Core) (*zap.Logger, error) {
	l, _, err := NewWithLevel(cfg, extra...)
	return l, err
}

// NewWithLevel builds a logger whose level follows the returned AtomicLevel,
// so a config reload can change verbosity. Extra cores, such as the
// OpenTelemetry log bridge, receive every entry alongside the main output.
func NewWithLevel(cfg *Config, extra ...zapcore.Core) (*zap.Logger, zap.AtomicLevel, error) {
	level := zap.NewAtomicLevelAt(ParseLevel(cfg.Level))
	out, err := openOutput(cfg.Output)
	if err != nil {
		return nil, level, err
	}

	cores := append([]zapcore.Core{zapcore.NewCore(encoderFor(cfg), out, level)}, extra...)
	l := zap.New(zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	return l, level, nil
}

// ParseLevel maps a level name to zap, defaulting to info.
func ParseLevel(level string) zapcore.Level {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		if strings.EqualFold(level, "warning") {
			return zapcore.WarnLevel
		}
		return zapcore.InfoLevel
	}
	return l
}

func encoderFor(cfg *Config) zapcore.Encoder {
	layout := cfg.TimeFormat
	if layout == "" {
		layout = defaultTimeFormat
	}
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "time"
	ec.EncodeTime = zapcore.TimeEncoderOfLayout(layout)
	ec.EncodeDuration = zapcore.MillisDurationEncoder

	if cfg.Format == "console" {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(ec)
	}
	return zapcore.NewJSONEncoder(ec)
}

func openOutput(output string) (zapcore.WriteSyncer, error) {
	switch strings.ToLower(output) {
	case "", "stdout":
		return zapcore.Lock(os.Stdout), nil
	case "stderr":
		return zapcore.Lock(os.Stderr), nil
	}
	f, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return zapcore.AddSync(f), nil
}

// Named returns a child logger for one component, e.g. "scheduler".
func Named(l *zap.Logger, name string) *zap.Logger {
	return l.Named(name)
}

// Sync flushes buffered entries.
func Sync(l *zap.Logger) error {
	return l.Sync()
}
