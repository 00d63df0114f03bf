package logger

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"strings"
)

var (
	level = new(slog.LevelVar)
	base  = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
)

// SetLevel changes the minimum level. Accepts debug, info, warn and error;
// anything else falls back to info.
func SetLevel(name string) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		level.Set(slog.LevelDebug)
	case "warn", "warning":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	default:
		level.Set(slog.LevelInfo)
	}
}

// SetOutput replaces the handler. Used by tests and the CLI.
func SetOutput(h slog.Handler) {
	base = slog.New(h)
}

// Enabled reports whether messages at the given level would be written.
func Enabled(l slog.Level) bool {
	return base.Enabled(context.Background(), l)
}

func Debug(msg string) { log(slog.LevelDebug, "", msg, nil) }
func Info(msg string)  { log(slog.LevelInfo, "", msg, nil) }
func Warn(msg string)  { log(slog.LevelWarn, "", msg, nil) }
func Error(msg string) { log(slog.LevelError, "", msg, nil) }

func DebugC(component, msg string) { log(slog.LevelDebug, component, msg, nil) }
func InfoC(component, msg string)  { log(slog.LevelInfo, component, msg, nil) }
func WarnC(component, msg string)  { log(slog.LevelWarn, component, msg, nil) }
func ErrorC(component, msg string) { log(slog.LevelError, component, msg, nil) }

// DebugCF logs msg tagged with component and the given fields.
func DebugCF(component, msg string, fields map[string]interface{}) {
	log(slog.LevelDebug, component, msg, fields)
}

func InfoCF(component, msg string, fields map[string]interface{}) {
	log(slog.LevelInfo, component, msg, fields)
}

func WarnCF(component, msg string, fields map[string]interface{}) {
	log(slog.LevelWarn, component, msg, fields)
}

func ErrorCF(component, msg string, fields map[string]interface{}) {
	log(slog.LevelError, component, msg, fields)
}

func log(l slog.Level, component, msg string, fields map[string]interface{}) {
	ctx := context.Background()
	if !base.Enabled(ctx, l) {
		return
	}

	attrs := make([]slog.Attr, 0, len(fields)+1)
	if component != "" {
		attrs = append(attrs, slog.String("component", component))
	}

	// Stable field order keeps log lines diffable.
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, fields[k]))
	}

	base.LogAttrs(ctx, l, msg, attrs...)
}
