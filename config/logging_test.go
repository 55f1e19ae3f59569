package config

import (
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/natefinch/lumberjack.v2"
)

func restoreStandardLogger(t *testing.T) {
	std := log.StandardLogger()
	out, level, formatter := std.Out, std.GetLevel(), std.Formatter
	t.Cleanup(func() {
		std.SetOutput(out)
		std.SetLevel(level)
		std.SetFormatter(formatter)
	})
}

func TestNewLoggerSharesFileWriter(t *testing.T) {
	restoreStandardLogger(t)
	file := filepath.Join(t.TempDir(), "servora.log")

	l := NewLogger(LogConfig{Level: "debug", File: file})
	t.Cleanup(func() { _ = l.Out.(*lumberjack.Logger).Close() })

	require.IsType(t, &lumberjack.Logger{}, l.Out)
	assert.Same(t, l.Out, log.StandardLogger().Out)
	assert.Equal(t, log.DebugLevel, log.StandardLogger().GetLevel())

	l.Info("from service logger")
	log.Info("from package logger")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "from service logger")
	assert.Contains(t, string(data), "from package logger")
}

func TestNewLoggerDefaultsToStdout(t *testing.T) {
	restoreStandardLogger(t)

	l := NewLogger(LogConfig{Format: "json"})
	assert.Equal(t, os.Stdout, l.Out)
	assert.IsType(t, &log.JSONFormatter{}, l.Formatter)
	assert.Equal(t, log.InfoLevel, l.GetLevel())
}
