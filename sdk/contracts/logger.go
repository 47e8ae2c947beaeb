package contracts

import (
	"fmt"
	"time"
)

// LogLevel represents the severity level for logging.
// Levels are ordered: a logger set to a level emits that level and everything above it.
type LogLevel int

const (
	// DebugLevel indicates per-period detail such as dispatched events and render timings.
	DebugLevel LogLevel = iota - 1
	// InfoLevel indicates lifecycle messages (pipeline started, sink configured).
	InfoLevel
	// WarnLevel indicates recoverable conditions such as an output underrun.
	WarnLevel
	// ErrorLevel indicates failures that stop a component, such as a synchronization stall.
	ErrorLevel
	// FatalLevel indicates very severe error events that will presumably lead the application to abort.
	FatalLevel
)

// String returns the lower-case name of the level.
func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "info"
	case WarnLevel:
		return "warn"
	case ErrorLevel:
		return "error"
	case FatalLevel:
		return "fatal"
	}
	return "unknown"
}

// ParseLogLevel returns the level named by s, as printed by String.
func ParseLogLevel(s string) (LogLevel, error) {
	for l := DebugLevel; l <= FatalLevel; l++ {
		if l.String() == s {
			return l, nil
		}
	}
	return InfoLevel, fmt.Errorf("unknown log level %q", s)
}

// LogDestination specifies where the log messages should be directed.
type LogDestination string

const (
	// ConsoleLog directs log messages to the console output.
	ConsoleLog LogDestination = "console"
	// FileLog directs log messages to a file.
	FileLog LogDestination = "file"
)

// Field builds a structured log field. Each call returns a new Field; the receiver is only a factory.
type Field interface {
	Bool(key string, val bool) Field
	Int(key string, val int) Field
	Int32(key string, val int32) Field
	Float64(key string, val float64) Field
	String(key string, val string) Field
	Time(key string, val time.Time) Field
	Duration(key string, val time.Duration) Field
	Int64(key string, val int64) Field
	Error(key string, val error) Field
	Uint64(key string, val uint64) Field
	Uint8(key string, val uint8) Field
}

// Logger provides leveled, structured logging for every component of the pipeline.
type Logger interface {
	Info(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Debug(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)

	Field() Field

	SetLevel(level LogLevel)
	SetDestination(dest LogDestination, filePath ...string)
}
