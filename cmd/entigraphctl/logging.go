package main

import (
	"log/slog"
	"os"
	"strings"
)

var logLevelMap = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// initLogging builds the process-wide slog.Logger used by both the CLI
// commands and the registry event sink, writing human-readable text to
// stderr so stdout stays reserved for command output (demo summaries,
// mermaid diagrams).
func initLogging(levelName string) *slog.Logger {
	level, ok := logLevelMap[strings.ToLower(levelName)]
	if !ok {
		level = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
