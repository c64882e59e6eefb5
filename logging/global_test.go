package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/giygas/anesdose/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for input, want := range tests {
		assert.Equal(t, want, parseLogLevel(input), input)
	}
}

func TestGetConsoleLogLevel(t *testing.T) {
	tests := []struct {
		name    string
		env     config.Environment
		level   string
		verbose bool
		want    slog.Level
	}{
		{"dev default", config.EnvDevelopment, "", false, slog.LevelInfo},
		{"prod default", config.EnvProduction, "", false, slog.LevelWarn},
		{"test default", config.EnvTest, "", false, slog.LevelError},
		{"explicit level wins", config.EnvProduction, "debug", false, slog.LevelDebug},
		{"verbose wins", config.EnvTest, "error", true, slog.LevelDebug},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetConsoleLogLevel(tt.env, tt.level, tt.verbose))
		})
	}
}

func TestGetFileLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, GetFileLogLevel())
}

func TestInitLoggerConsoleAndFile(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer

	require.NoError(t, InitLogger(Options{
		Dir:     dir,
		Env:     config.EnvDevelopment,
		Level:   "info",
		Console: &console,
	}))
	t.Cleanup(func() { _ = Close() })

	Debug("debug only in file", "drug", "Propofol")
	Info("calculated", "category", "induction")

	assert.NotContains(t, console.String(), "debug only in file")
	assert.Contains(t, console.String(), "calculated")

	require.NoError(t, Close())

	files, err := filepath.Glob(filepath.Join(dir, "anesdose-*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"msg":"debug only in file"`)
	assert.Contains(t, lines[0], `"drug":"Propofol"`)
	assert.Contains(t, lines[1], `"category":"induction"`)
}

func TestInitLoggerConsoleOnly(t *testing.T) {
	var console bytes.Buffer
	require.NoError(t, InitLogger(Options{Env: config.EnvTest, Level: "warn", Console: &console}))
	t.Cleanup(func() { _ = Close() })

	Info("hidden")
	Warn("shown")
	Error("also shown")

	assert.NotContains(t, console.String(), "hidden")
	assert.Contains(t, console.String(), "shown")
	assert.Contains(t, console.String(), "also shown")

	deleted, err := CleanupOldLogs()
	assert.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestLoggerFallsBackWhenUninitialised(t *testing.T) {
	require.NoError(t, Close())
	assert.NotNil(t, Logger())
	assert.NotPanics(t, func() { Info("fallback") })
}

func TestMultiHandlerRespectsLevels(t *testing.T) {
	var quiet, loud bytes.Buffer
	logger := slog.New(&multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&quiet, &slog.HandlerOptions{Level: slog.LevelError}),
		slog.NewTextHandler(&loud, &slog.HandlerOptions{Level: slog.LevelDebug}),
	}}).With("component", "test").WithGroup("calc")

	logger.Info("info line", "n", 1)

	assert.Empty(t, quiet.String())
	assert.Contains(t, loud.String(), "component=test")
	assert.Contains(t, loud.String(), "calc.n=1")
}
