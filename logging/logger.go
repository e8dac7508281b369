// Package logging provides a tiny abstraction over slog so downstream code can
// depend on a minimal interface (Logger) while allowing users to plug any
// structured logger. It also offers a richer RouterLogger with contextual
// helpers (component, organization, request digest) and domain specific
// logging helpers for cache lookups, classification fallbacks and experiment
// exposures.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// LogLevel represents different logging levels.
// LogLevel is a thin enum for user friendly level configuration decoupled from slog.
type LogLevel int

const (
	// LogLevelDebug is the debug logging level.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is the informational logging level.
	LogLevelInfo
	// LogLevelWarn is the warning logging level.
	LogLevelWarn
	// LogLevelError is the error logging level.
	LogLevelError
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger defines the minimal logging interface for the routing core.
// This allows users to provide their own logger implementation or use the built-in adapters.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	*slog.Logger
}

// Debug logs a debug message.
func (s *SlogAdapter) Debug(msg string, args ...any) { s.Logger.Debug(msg, args...) }

// Info logs an informational message.
func (s *SlogAdapter) Info(msg string, args ...any) { s.Logger.Info(msg, args...) }

// Warn logs a warning message.
func (s *SlogAdapter) Warn(msg string, args ...any) { s.Logger.Warn(msg, args...) }

// Error logs an error message.
func (s *SlogAdapter) Error(msg string, args ...any) { s.Logger.Error(msg, args...) }

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// NewDefaultSlogLogger creates a Logger using slog.Default().
func NewDefaultSlogLogger() Logger {
	return NewSlogAdapter(slog.Default())
}

// RouterLogger wraps slog.Logger adding contextual cloning helpers and
// domain convenience methods. It should be cheap to copy via With* methods.
type RouterLogger struct {
	logger         *slog.Logger
	level          LogLevel
	context        map[string]interface{}
	component      string
	organizationID string
	requestDigest  string
}

// LoggerConfig configures construction of a RouterLogger.
type LoggerConfig struct {
	Level          LogLevel
	Format         string // json or text
	Output         io.Writer
	AddSource      bool
	Component      string
	OrganizationID string
	CustomAttrs    map[string]interface{}
}

// DefaultLoggerConfig returns a baseline JSON info level configuration.
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{Level: LogLevelInfo, Format: "json", Output: os.Stdout, AddSource: true, CustomAttrs: map[string]interface{}{}}
}

// NewLogger builds a RouterLogger from a config (or defaults if nil).
func NewLogger(cfg *LoggerConfig) *RouterLogger {
	if cfg == nil {
		cfg = DefaultLoggerConfig()
	}
	opts := &slog.HandlerOptions{Level: slogLevel(cfg.Level), AddSource: cfg.AddSource}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(cfg.Output, opts)
	} else {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	}
	return &RouterLogger{logger: slog.New(handler), level: cfg.Level, context: map[string]interface{}{}, component: cfg.Component, organizationID: cfg.OrganizationID}
}

func slogLevel(l LogLevel) slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *RouterLogger) clone() *RouterLogger {
	nl := *l
	nl.context = map[string]interface{}{}
	for k, v := range l.context {
		nl.context[k] = v
	}
	return &nl
}

// WithContext adds a key/value attribute that will be attached to every log entry.
func (l *RouterLogger) WithContext(key string, value interface{}) *RouterLogger {
	nl := l.clone()
	nl.context[key] = value
	return nl
}

// WithComponent sets the logical component (intent, ambiguity, cache, abtest, merge).
func (l *RouterLogger) WithComponent(c string) *RouterLogger {
	nl := l.clone()
	nl.component = c
	return nl
}

// WithRequest attaches organization and request-digest identifiers.
func (l *RouterLogger) WithRequest(orgID, digest string) *RouterLogger {
	nl := l.clone()
	nl.organizationID = orgID
	nl.requestDigest = digest
	return nl
}

// contextArgs renders the contextual fields as alternating key/value args in
// slog convention, so caller-supplied args can be appended directly.
func (l *RouterLogger) contextArgs() []interface{} {
	args := make([]interface{}, 0, 2*len(l.context)+6)
	if l.component != "" {
		args = append(args, "component", l.component)
	}
	if l.organizationID != "" {
		args = append(args, "organization_id", l.organizationID)
	}
	if l.requestDigest != "" {
		args = append(args, "request_digest", l.requestDigest)
	}
	for k, v := range l.context {
		args = append(args, k, v)
	}
	return args
}

func (l *RouterLogger) log(level slog.Level, allowed bool, msg string, args ...interface{}) {
	if !allowed {
		return
	}
	l.logger.Log(context.Background(), level, msg, append(l.contextArgs(), args...)...)
}

// Debug logs at debug level.
func (l *RouterLogger) Debug(msg string, args ...interface{}) {
	l.log(slog.LevelDebug, l.level <= LogLevelDebug, msg, args...)
}

// Info logs at info level.
func (l *RouterLogger) Info(msg string, args ...interface{}) {
	l.log(slog.LevelInfo, l.level <= LogLevelInfo, msg, args...)
}

// Warn logs at warn level.
func (l *RouterLogger) Warn(msg string, args ...interface{}) {
	l.log(slog.LevelWarn, l.level <= LogLevelWarn, msg, args...)
}

// Error logs at error level.
func (l *RouterLogger) Error(msg string, args ...interface{}) {
	l.log(slog.LevelError, l.level <= LogLevelError, msg, args...)
}

// LogCacheLookup records the outcome of a route cache lookup.
func (l *RouterLogger) LogCacheLookup(tier, keyKind string, hit bool, dur time.Duration) {
	l.log(slog.LevelDebug, l.level <= LogLevelDebug, "Route cache lookup",
		"tier", tier, "key_kind", keyKind, "hit", hit, "duration", dur)
}

// LogClassification records an intent classification, including whether the
// hosted completion fallback was used.
func (l *RouterLogger) LogClassification(action string, confidence float64, fellBack bool, dur time.Duration, err error) {
	args := []interface{}{"action", action, "confidence", confidence, "llm_fallback", fellBack, "duration", dur}
	if err != nil {
		args = append(args, "error", err)
		l.log(slog.LevelWarn, l.level <= LogLevelWarn, "Intent classification degraded", args...)
		return
	}
	l.log(slog.LevelInfo, l.level <= LogLevelInfo, "Intent classified", args...)
}

// LogExposure records an experiment exposure outcome.
func (l *RouterLogger) LogExposure(experimentID, variantID string, success bool, latency time.Duration) {
	l.log(slog.LevelInfo, l.level <= LogLevelInfo, "Experiment exposure recorded",
		"experiment_id", experimentID, "variant_id", variantID, "success", success, "latency", latency)
}

// StartTimer returns a closure that logs the elapsed duration when invoked.
func (l *RouterLogger) StartTimer(op string) func() {
	start := time.Now()
	return func() { l.Info("Operation completed", "operation", op, "duration", time.Since(start)) }
}

// NoOpLogger discards all log messages. Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// Debug logs a debug message.
func (NoOpLogger) Debug(string, ...any) {}

// Info logs an informational message.
func (NoOpLogger) Info(string, ...any) {}

// Warn logs a warning message.
func (NoOpLogger) Warn(string, ...any) {}

// Error logs an error message.
func (NoOpLogger) Error(string, ...any) {}

// NewSlogLogger creates a new RouterLogger with the specified configuration.
func NewSlogLogger(level LogLevel, format string, addSource bool) *RouterLogger {
	cfg := DefaultLoggerConfig()
	cfg.Level = level
	if format != "" {
		cfg.Format = format
	}
	cfg.AddSource = addSource
	return NewLogger(cfg)
}
