package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	persistentLogFile *os.File
	loggingMu         sync.Mutex
)

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// setupLogger initializes the structured logger. Output goes to stdout and,
// when cfg.File is set, is appended to that file too.
func setupLogger(cfg LoggingConfig) {
	loggingMu.Lock()
	defer loggingMu.Unlock()

	closeLoggerLocked()

	level, levelErr := parseLogLevel(cfg.Level)

	var out io.Writer = os.Stdout
	var fileErr error
	if cfg.File != "" {
		logFile, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			fileErr = err
		} else {
			persistentLogFile = logFile
			out = io.MultiWriter(os.Stdout, logFile)
		}
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	logger := slog.New(handler).With("app", "presencebot")
	slog.SetDefault(logger)

	if levelErr != nil {
		slog.Warn("Falling back to info level", "err", levelErr)
	}
	switch {
	case fileErr != nil:
		slog.Error("Persistent logging disabled: failed to open log file", "file", cfg.File, "err", fileErr)
	case persistentLogFile != nil:
		slog.Info("Persistent logging enabled", "file", cfg.File)
	}
}

func closeLogger() {
	loggingMu.Lock()
	defer loggingMu.Unlock()
	closeLoggerLocked()
}

func closeLoggerLocked() {
	if persistentLogFile == nil {
		return
	}
	_ = persistentLogFile.Sync()
	_ = persistentLogFile.Close()
	persistentLogFile = nil
}
