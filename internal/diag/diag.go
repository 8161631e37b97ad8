// Package diag backs the status-callback dispatch described in spec.md
// §7: every call in the runtime reports through a registered callback
// with a severity and a message. The teacher logs unconditionally with
// the standard library (driver/driver.go calls log.Printf on every
// driver registration, with no way for callers to opt out); this module
// keeps that "always log, callback or not" posture but upgrades the
// sink to a leveled logger so severities map onto real log levels
// instead of being flattened into printf strings.
package diag

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
)

// Severity mirrors spec.md §7's five status levels.
type Severity int

const (
	Info Severity = iota
	Warning
	PerformanceWarning
	Error
	FatalError
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "INFO"
	case Warning:
		return "WARNING"
	case PerformanceWarning:
		return "PERFORMANCE_WARNING"
	case Error:
		return "ERROR"
	case FatalError:
		return "FATAL_ERROR"
	default:
		return "UNKNOWN"
	}
}

// Code identifies the class of condition being reported (spec.md §7
// "Kinds"). It travels alongside Severity on every status line.
type Code int

const (
	CodeNone Code = iota
	CodeLoadError
	CodeNullHandle
	CodeNullString
	CodeKindMismatch
	CodeTypeMismatch
	CodeDeadHandle
	CodeBusyResource
	CodeStateViolation
	CodeBackendFailure
	CodeOutOfMemory
)

func (c Code) String() string {
	names := [...]string{
		"NONE", "LOAD_ERROR", "NULL_HANDLE", "NULL_STRING", "KIND_MISMATCH",
		"TYPE_MISMATCH", "DEAD_HANDLE", "BUSY_RESOURCE", "STATE_VIOLATION",
		"BACKEND_FAILURE", "OUT_OF_MEMORY",
	}
	if int(c) < 0 || int(c) >= len(names) {
		return "UNKNOWN"
	}
	return names[c]
}

// Sink receives every status line the runtime emits. It is the Go
// shape of spec.md §6.2's ANARIStatusCallback: message, severity, code,
// and the handle/object the line is about (0 for library-level lines).
type Sink func(source uint64, severity Severity, code Code, message string)

var fallback = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: false,
	Prefix:          "anari",
})

// Logger dispatches status lines to a client-supplied Sink and, always,
// to a process-wide structured logger — the teacher never silences its
// registration log just because no caller is listening, and neither
// does this runtime.
type Logger struct {
	sink   Sink
	prefix string
}

// New creates a Logger. sink may be nil, in which case only the
// fallback structured logger receives lines.
func New(sink Sink) *Logger { return &Logger{sink: sink} }

// WithPrefix returns a Logger that tags every fallback line with prefix
// (the debug layer uses this for its "[VALIDATION]" lines, spec.md §4.8).
func (l *Logger) WithPrefix(prefix string) *Logger {
	return &Logger{sink: l.sink, prefix: prefix}
}

// Report emits a status line.
func (l *Logger) Report(source uint64, sev Severity, code Code, format string, args ...any) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	line := msg
	if l.prefix != "" {
		line = l.prefix + " " + msg
	}
	switch sev {
	case Info:
		fallback.Info(line, "code", code.String(), "source", source)
	case Warning, PerformanceWarning:
		fallback.Warn(line, "code", code.String(), "source", source)
	case Error, FatalError:
		// A FatalError is fatal to the rendering operation that reported
		// it, never to the host process: log.Logger.Fatal would call
		// os.Exit, which a status callback must never trigger on the
		// caller's behalf (spec.md §7, "the front-end swallows backend
		// exceptions and converts them to status callback invocations").
		fallback.Error(line, "code", code.String(), "source", source)
	}
	if l.sink != nil {
		l.sink(source, sev, code, msg)
	}
}
