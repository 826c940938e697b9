// Package logging provides the logging interface and default implementations.
//
// Design: four-level interface (Error, Warn, Info, Debug). Users can wrap
// their own structured loggers (slog, zap) if needed.
//
// Log format: YYYY/MM/DD HH:MM:SS LEVEL [component] message
//
// Example: 2026/10/16 18:45:13 WARN [table] unknown filter policy "acme.Cuckoo"; filtering disabled
//
// Component namespace prefixes are used for filtering:
//   - [table]:  filter file reads and writes
//   - [cli]:    command line tools
//
// Reference: RocksDB v10.7.5 include/rocksdb/env.h (Logger class)
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"reflect"
	"strings"
)

// Level represents the logging level.
type Level int

const (
	// LevelError logs only errors.
	LevelError Level = iota
	// LevelWarn logs warnings and errors.
	LevelWarn
	// LevelInfo logs info, warnings, and errors.
	LevelInfo
	// LevelDebug logs everything including debug messages.
	LevelDebug
)

// String returns the string representation of the level.
func (l Level) String() string {
	switch l {
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a level name such as "warn" or "DEBUG".
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(s) {
	case "ERROR":
		return LevelError, nil
	case "WARN", "WARNING":
		return LevelWarn, nil
	case "INFO":
		return LevelInfo, nil
	case "DEBUG":
		return LevelDebug, nil
	default:
		return 0, fmt.Errorf("logging: unknown level %q", s)
	}
}

// Logger defines the logging interface.
//
// Implementations MUST be safe for concurrent use: a filter file reader may
// be shared by many goroutines.
type Logger interface {
	// Errorf logs a formatted error message.
	Errorf(format string, args ...any)

	// Warnf logs a formatted warning message.
	Warnf(format string, args ...any)

	// Infof logs a formatted informational message.
	Infof(format string, args ...any)

	// Debugf logs a formatted debug message.
	Debugf(format string, args ...any)
}

// DefaultLogger writes to an io.Writer through log.Logger, which is safe for
// concurrent use. Level is read-only after construction.
type DefaultLogger struct {
	logger *log.Logger
	level  Level
}

// NewDefaultLogger creates a new default logger with the specified level.
// It writes to stderr.
func NewDefaultLogger(level Level) *DefaultLogger {
	return NewLogger(os.Stderr, level)
}

// NewLogger creates a new logger with the specified output and level.
func NewLogger(w io.Writer, level Level) *DefaultLogger {
	return &DefaultLogger{
		logger: log.New(w, "", log.LstdFlags),
		level:  level,
	}
}

// Level returns the logging level.
func (l *DefaultLogger) Level() Level {
	return l.level
}

// Errorf logs a formatted error message.
func (l *DefaultLogger) Errorf(format string, args ...any) {
	l.output(LevelError, format, args)
}

// Warnf logs a formatted warning message.
func (l *DefaultLogger) Warnf(format string, args ...any) {
	l.output(LevelWarn, format, args)
}

// Infof logs a formatted informational message.
func (l *DefaultLogger) Infof(format string, args ...any) {
	l.output(LevelInfo, format, args)
}

// Debugf logs a formatted debug message.
func (l *DefaultLogger) Debugf(format string, args ...any) {
	l.output(LevelDebug, format, args)
}

func (l *DefaultLogger) output(level Level, format string, args []any) {
	if l.level < level {
		return
	}
	_ = l.logger.Output(3, level.String()+" "+fmt.Sprintf(format, args...))
}

// Namespace prefixes for log messages.
const (
	// NSTable is the namespace for filter file operations.
	NSTable = "[table] "
	// NSCLI is the namespace for command line tools.
	NSCLI = "[cli] "
)

// IsNil returns true if the logger is nil or a typed-nil.
// A typed-nil occurs when a nil pointer is assigned to an interface:
//
//	var l *MyLogger = nil
//	opts.Logger = l  // Interface is not nil, but underlying pointer is
func IsNil(l Logger) bool {
	if l == nil {
		return true
	}
	v := reflect.ValueOf(l)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

// OrDefault returns l if it is usable, otherwise a WARN-level logger on stderr.
func OrDefault(l Logger) Logger {
	if IsNil(l) {
		return NewDefaultLogger(LevelWarn)
	}
	return l
}
