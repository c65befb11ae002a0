package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log = zap.NewNop()

// Options configures the global logger.
type Options struct {
	// Level is a zap level name ("debug", "info", ...). LOG_LEVEL in the
	// environment takes precedence.
	Level string

	// File receives the log output. The terminal belongs to the UI, so
	// logs never go to stdout; an empty File discards output.
	File string

	// Development switches to the human-readable console encoder.
	Development bool
}

// InitializeLogger builds the global zap logger from opts.
func InitializeLogger(opts Options) error {
	var config zap.Config
	if opts.Development {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
		config.Encoding = "json"
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		config.EncoderConfig.MessageKey = "message"
	}

	config.Level.SetLevel(parseLevel(opts.Level))

	if opts.File == "" {
		log = zap.NewNop()
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	config.OutputPaths = []string{opts.File}
	config.ErrorOutputPaths = []string{opts.File}

	l, err := config.Build()
	if err != nil {
		log = zap.NewNop()
		return fmt.Errorf("building logger: %w", err)
	}
	log = l

	// Keep stray log.Printf calls out of the terminal too.
	zap.RedirectStdLog(log)

	return nil
}

// parseLevel resolves the effective level, preferring LOG_LEVEL.
func parseLevel(configured string) zapcore.Level {
	name := os.Getenv("LOG_LEVEL")
	if name == "" {
		name = configured
	}
	var level zapcore.Level
	if err := level.Set(strings.ToLower(name)); err != nil {
		return zapcore.InfoLevel
	}
	return level
}

// L returns the global logger instance.
func L() *zap.Logger {
	return log
}

// Sync flushes any buffered log entries.
func Sync() error {
	return log.Sync()
}
