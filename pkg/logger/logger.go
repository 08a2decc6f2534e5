// Package logger wraps log/slog with structured output, request/trace ID
// injection from context and file rotation via lumberjack.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/wyfcoding/optionpricing/pkg/contextx"
)

var globalLogger *slog.Logger

// Config controls the global logger.
type Config struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level"`
	// Format is json or text.
	Format string `toml:"format"`
	// Output is stdout, file or both.
	Output string `toml:"output"`
	// FilePath is the log file location when output is file or both.
	FilePath string `toml:"file_path"`
	// MaxSize is the maximum file size in MB before rotation.
	MaxSize int `toml:"max_size"`
	// MaxBackups is the number of rotated files to keep.
	MaxBackups int `toml:"max_backups"`
	// MaxAge is the retention in days for rotated files.
	MaxAge int `toml:"max_age"`
	// Compress gzips rotated files.
	Compress bool `toml:"compress"`
	// WithCaller adds source file and line to each record.
	WithCaller bool `toml:"with_caller"`
}

// Init builds the global logger from cfg and installs it as slog's default.
func Init(cfg Config) error {
	var handler slog.Handler
	var output io.Writer

	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	fileWriter := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	switch cfg.Output {
	case "file":
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
			return err
		}
		output = fileWriter
	case "both":
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
			return err
		}
		output = io.MultiWriter(os.Stdout, fileWriter)
	default:
		output = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.WithCaller,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Value = slog.StringValue(a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)

	return nil
}

// Get returns the global logger, falling back to slog's default before Init.
func Get() *slog.Logger {
	if globalLogger == nil {
		return slog.Default()
	}
	return globalLogger
}

// WithContext returns the global logger annotated with the request, trace and
// span IDs carried by ctx, when present.
func WithContext(ctx context.Context) *slog.Logger {
	logger := Get()

	attrs := []any{}
	if requestID := contextx.GetRequestID(ctx); requestID != "" {
		attrs = append(attrs, slog.String("request_id", requestID))
	}
	if traceID := contextx.GetTraceID(ctx); traceID != "" {
		attrs = append(attrs, slog.String("trace_id", traceID))
	}
	if spanID := contextx.GetSpanID(ctx); spanID != "" {
		attrs = append(attrs, slog.String("span_id", spanID))
	}

	if len(attrs) > 0 {
		return logger.With(attrs...)
	}

	return logger
}

// Debug logs at debug level with context IDs attached.
func Debug(ctx context.Context, msg string, args ...any) {
	WithContext(ctx).Debug(msg, args...)
}

// Info logs at info level with context IDs attached.
func Info(ctx context.Context, msg string, args ...any) {
	WithContext(ctx).Info(msg, args...)
}

// Warn logs at warn level with context IDs attached.
func Warn(ctx context.Context, msg string, args ...any) {
	WithContext(ctx).Warn(msg, args...)
}

// Error logs at error level with context IDs attached.
func Error(ctx context.Context, msg string, args ...any) {
	WithContext(ctx).Error(msg, args...)
}

// Fatal logs at error level and exits the process.
func Fatal(ctx context.Context, msg string, args ...any) {
	WithContext(ctx).Error(msg, args...)
	os.Exit(1)
}

// LogDuration records the elapsed time of an operation. Call the returned
// function in a defer.
func LogDuration(ctx context.Context, msg string, args ...any) func() {
	start := time.Now()
	return func() {
		duration := time.Since(start)
		args = append(args, slog.Duration("duration", duration))
		Info(ctx, msg, args...)
	}
}
