package log

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wirecrab/internal/config"
)

func TestParseLevelValid(t *testing.T) {
	tests := []struct {
		input    string
		expected logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"DEBUG", logrus.DebugLevel},
		{"info", logrus.InfoLevel},
		{"", logrus.InfoLevel},
		{"warn", logrus.WarnLevel},
		{"warning", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := parseLevel(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestParseLevelInvalid(t *testing.T) {
	for _, input := range []string{"invalid", "trace", "fatal"} {
		t.Run(input, func(t *testing.T) {
			_, err := parseLevel(input)
			assert.Error(t, err)
		})
	}
}

func TestInitRejectsFormat(t *testing.T) {
	err := Init(config.LogConfig{Level: "info", Format: "xml"})
	assert.Error(t, err)
}

func TestInitWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wirecrab.log")
	cfg := config.LogConfig{
		Level:  "debug",
		Format: "json",
		File:   config.FileLogConfig{Path: path, MaxSizeMB: 1},
	}
	require.NoError(t, Init(cfg))
	t.Cleanup(func() { logrus.SetOutput(os.Stderr) })

	For("capture").WithField("loop", "dns").Debug("packet dropped")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := string(data)
	assert.True(t, strings.Contains(line, `"component":"capture"`), line)
	assert.True(t, strings.Contains(line, `"msg":"packet dropped"`), line)
}
