package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var Logger *slog.Logger

// Init builds the process logger and installs it as the slog default.
// DEBUG=true lowers the level, LOG_FORMAT=json switches to the JSON handler.
func Init() *slog.Logger {
	return Setup(os.Getenv("DEBUG") == "true", os.Getenv("LOG_FORMAT"))
}

// Setup replaces the process logger, e.g. once the config file has been read.
func Setup(debug bool, format string) *slog.Logger {
	Logger = New(os.Stdout, debug, format)
	slog.SetDefault(Logger)
	return Logger
}

func New(w io.Writer, debug bool, format string) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}

func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}
