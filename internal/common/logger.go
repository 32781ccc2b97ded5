package common

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogLevel represents logging verbosity levels
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LogLevelError:
		return "error"
	case LogLevelWarn:
		return "warn"
	case LogLevelInfo:
		return "info"
	case LogLevelDebug:
		return "debug"
	default:
		return "info"
	}
}

// ToSlogLevel converts LogLevel to slog.Level
func (l LogLevel) ToSlogLevel() slog.Level {
	switch l {
	case LogLevelError:
		return slog.LevelError
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelDebug:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// ParseLogLevel maps a config string to a LogLevel. Empty means info.
func ParseLogLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return LogLevelError, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "info", "":
		return LogLevelInfo, nil
	case "debug":
		return LogLevelDebug, nil
	default:
		return LogLevelInfo, fmt.Errorf("invalid logging level: %s (valid: error, warn, info, debug)", s)
	}
}

// LogFormat selects the handler used by a Logger.
type LogFormat string

const (
	FormatText  LogFormat = "text"
	FormatJSON  LogFormat = "json"
	FormatColor LogFormat = "color"
)

// ParseLogFormat maps a config string to a LogFormat. Empty means text.
func ParseLogFormat(s string) (LogFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "color", "colour":
		return FormatColor, nil
	default:
		return FormatText, fmt.Errorf("invalid logging format: %s (valid: text, json, color)", s)
	}
}

// Logger is the structured logger shared by the proxy, the store and the server.
// Commands logged through it are masked by its Masker.
type Logger struct {
	*slog.Logger
	level  LogLevel
	masker *Masker
}

// Output is where loggers built without an explicit writer write to.
// Stdout is left to command output (the exec subcommand prints JSON there).
var Output io.Writer = os.Stderr

// NewLogger creates a new structured logger with the specified level
func NewLogger(level LogLevel) *Logger {
	return NewLoggerTo(Output, level, FormatText)
}

// NewJSONLogger creates a structured logger with JSON output
func NewJSONLogger(level LogLevel) *Logger {
	return NewLoggerTo(Output, level, FormatJSON)
}

// NewColorLogger creates a logger with the colorized handler
func NewColorLogger(level LogLevel) *Logger {
	return NewLoggerTo(Output, level, FormatColor)
}

// NewLoggerTo creates a logger writing to w with the given format.
func NewLoggerTo(w io.Writer, level LogLevel, format LogFormat) *Logger {
	masker := NewMasker()
	opts := &slog.HandlerOptions{
		Level: level.ToSlogLevel(),
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			return maskAttr(masker, a)
		},
	}

	var handler slog.Handler
	switch format {
	case FormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	case FormatColor:
		ch := NewColorHandler(w, &slog.HandlerOptions{Level: level.ToSlogLevel()})
		ch.SetMasker(masker)
		ch.SetColorEnabled(true)
		handler = ch
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
		level:  level,
		masker: masker,
	}
}

// NewDiscardLogger returns a logger that drops every record.
func NewDiscardLogger() *Logger {
	return &Logger{
		Logger: slog.New(discardHandler{}),
		level:  LogLevelError,
		masker: NewMasker(),
	}
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

func maskAttr(m *Masker, a slog.Attr) slog.Attr {
	if m == nil || !m.IsEnabled() {
		return a
	}
	switch a.Value.Kind() {
	case slog.KindString:
		masked := m.MaskValue(a.Key, a.Value.String())
		if s, ok := masked.(string); ok {
			return slog.String(a.Key, s)
		}
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			return slog.String(a.Key, m.MaskString(err.Error()))
		}
	}
	return a
}

// Level returns the current log level
func (l *Logger) Level() LogLevel {
	return l.level
}

// Masker returns the masker applied to this logger's attributes.
func (l *Logger) Masker() *Masker {
	return l.masker
}

// EnableMasking toggles masking of sensitive attribute values.
func (l *Logger) EnableMasking(enabled bool) {
	if l.masker != nil {
		l.masker.SetEnabled(enabled)
	}
}

func (l *Logger) with(args ...any) *Logger {
	return &Logger{
		Logger: l.Logger.With(args...),
		level:  l.level,
		masker: l.masker,
	}
}

// WithComponent returns a logger with component context
func (l *Logger) WithComponent(component string) *Logger {
	return l.with("component", component)
}

// WithRun returns a logger scoped to one proxy invocation.
func (l *Logger) WithRun(runID, targetURL string) *Logger {
	return l.with("run_id", runID, "url", targetURL)
}

// WithStore returns a logger with store context
func (l *Logger) WithStore(driver string) *Logger {
	return l.with("store", driver)
}

// WithRequest returns a logger with HTTP request context
func (l *Logger) WithRequest(method, path string) *Logger {
	return l.with("method", method, "path", path)
}

// Global default logger instance, used by ambient layers (CLI, store, server).
var defaultLogger = NewLogger(LogLevelInfo)

// SetDefaultLogger sets the global default logger
func SetDefaultLogger(logger *Logger) {
	if logger == nil {
		return
	}
	defaultLogger = logger
}

// GetLogger returns the default logger
func GetLogger() *Logger {
	return defaultLogger
}
