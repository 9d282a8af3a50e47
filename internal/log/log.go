// Package log configures the process-wide logrus logger. The terminal belongs
// to the UI, so output goes to a rotating file or nowhere.
package log

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"wirecrab/internal/config"
)

// Init applies cfg to the standard logrus logger.
func Init(cfg config.LogConfig) error {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	formatter, err := newFormatter(cfg.Format)
	if err != nil {
		return err
	}

	logrus.SetLevel(level)
	logrus.SetFormatter(formatter)
	logrus.SetOutput(createWriter(cfg.File))
	return nil
}

// For returns an entry tagged with the component name.
func For(component string) *logrus.Entry {
	return logrus.WithField("component", component)
}

func parseLevel(levelStr string) (logrus.Level, error) {
	switch strings.ToLower(levelStr) {
	case "debug":
		return logrus.DebugLevel, nil
	case "info", "":
		return logrus.InfoLevel, nil
	case "warn", "warning":
		return logrus.WarnLevel, nil
	case "error":
		return logrus.ErrorLevel, nil
	default:
		return logrus.InfoLevel, fmt.Errorf("unknown level: %s", levelStr)
	}
}

func newFormatter(format string) (logrus.Formatter, error) {
	switch strings.ToLower(format) {
	case "json":
		return &logrus.JSONFormatter{}, nil
	case "text", "":
		return &logrus.TextFormatter{DisableColors: true, FullTimestamp: true}, nil
	default:
		return nil, fmt.Errorf("unsupported log format: %s (must be json or text)", format)
	}
}

// createWriter returns a lumberjack writer for rotation, or io.Discard when no
// path is configured.
func createWriter(fc config.FileLogConfig) io.Writer {
	if fc.Path == "" {
		return io.Discard
	}
	return &lumberjack.Logger{
		Filename:   fc.Path,
		MaxSize:    fc.MaxSizeMB,
		MaxBackups: fc.MaxBackups,
		MaxAge:     fc.MaxAgeDays,
		Compress:   fc.Compress,
	}
}
