// Package logging wires slog to the console and a weekly rotating JSON file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/giygas/anesdose/config"
)

// Options configures InitLogger. Dir empty means console only.
type Options struct {
	Dir            string
	Env            config.Environment
	Level          string
	Verbose        bool
	Console        io.Writer
	RetentionWeeks int
	MaxFileSize    int64
}

type LoggingService struct {
	Logger *slog.Logger
	file   *RotatingLogger
}

var (
	mu                    sync.RWMutex
	DefaultLoggingService *LoggingService
)

// New builds a logger from opts. The returned RotatingLogger is nil when
// opts.Dir is empty.
func New(opts Options) (*slog.Logger, *RotatingLogger, error) {
	console := opts.Console
	if console == nil {
		console = os.Stdout
	}
	consoleHandler := slog.NewTextHandler(console, &slog.HandlerOptions{
		Level: GetConsoleLogLevel(opts.Env, opts.Level, opts.Verbose),
	})

	if opts.Dir == "" {
		return slog.New(consoleHandler), nil, nil
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return slog.New(consoleHandler), nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	weeks := opts.RetentionWeeks
	if weeks <= 0 {
		weeks = 4
	}
	file := NewRotatingLogger(opts.Dir, weeks, opts.MaxFileSize)
	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: GetFileLogLevel()})

	return slog.New(&multiHandler{handlers: []slog.Handler{consoleHandler, fileHandler}}), file, nil
}

// InitLogger replaces the package logger and the slog default. If the log
// directory cannot be created the console logger is still installed and the
// error is returned.
func InitLogger(opts Options) error {
	logger, file, err := New(opts)

	mu.Lock()
	previous := DefaultLoggingService
	DefaultLoggingService = &LoggingService{Logger: logger, file: file}
	mu.Unlock()

	if previous != nil && previous.file != nil {
		_ = previous.file.Close()
	}
	slog.SetDefault(logger)
	return err
}

// Logger returns the configured logger or a stderr fallback.
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		return fallback
	}
	return DefaultLoggingService.Logger
}

var fallback = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

// CleanupOldLogs prunes expired log files. No-op without a file logger.
func CleanupOldLogs() (int, error) {
	mu.RLock()
	svc := DefaultLoggingService
	mu.RUnlock()
	if svc == nil || svc.file == nil {
		return 0, nil
	}
	return svc.file.Cleanup()
}

// Close flushes and closes the log file, then falls back to stderr.
func Close() error {
	mu.Lock()
	svc := DefaultLoggingService
	DefaultLoggingService = nil
	mu.Unlock()

	if svc == nil || svc.file == nil {
		return nil
	}
	return svc.file.Close()
}

func Info(msg string, args ...any) {
	Logger().Info(msg, args...)
}

func Error(msg string, args ...any) {
	Logger().Error(msg, args...)
}

func Warn(msg string, args ...any) {
	Logger().Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	Logger().Debug(msg, args...)
}
