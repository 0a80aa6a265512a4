package rsyncdelta

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// TraceLevel is the minimum message severity that will reach the trace sink.
// The hierarchy follows librsync's rs_loglevel (syslog-style), from most to
// least severe.
type TraceLevel int

const (
	// TraceEmerg indicates the system is unusable.
	TraceEmerg TraceLevel = iota
	// TraceAlert indicates action must be taken immediately.
	TraceAlert
	// TraceCrit indicates a critical condition.
	TraceCrit
	// TraceErr indicates an error condition.
	TraceErr
	// TraceWarning indicates a warning condition.
	TraceWarning
	// TraceNotice indicates a normal but significant condition.
	TraceNotice
	// TraceInfo indicates an informational message. This is the default
	// minimum level.
	TraceInfo
	// TraceDebug indicates a debug-level message.
	TraceDebug
	// TraceTrace indicates a low-level, per-byte trace message.
	TraceTrace
)

// String returns a human-readable name for the trace level.
func (l TraceLevel) String() string {
	switch l {
	case TraceEmerg:
		return "emerg"
	case TraceAlert:
		return "alert"
	case TraceCrit:
		return "crit"
	case TraceErr:
		return "err"
	case TraceWarning:
		return "warning"
	case TraceNotice:
		return "notice"
	case TraceInfo:
		return "info"
	case TraceDebug:
		return "debug"
	case TraceTrace:
		return "trace"
	default:
		return "unknown"
	}
}

// TraceFunc receives trace messages at or above the configured TraceLevel.
// Implementations must be safe for concurrent use if jobs from multiple
// goroutines share a process-wide Config (see Config.TraceSink).
type TraceFunc func(level TraceLevel, message string)

// TraceStderr is the default trace sink. It writes one line per message to
// stderr, coloring errors red and warnings yellow, mirroring the severity
// coloring convention used for Logger.Warn / Logger.Error in mutagen's
// pkg/logging.
func TraceStderr(level TraceLevel, message string) {
	line := fmt.Sprintf("[%s] %s", level, message)
	switch {
	case level <= TraceErr:
		fmt.Fprintln(os.Stderr, color.RedString(line))
	case level == TraceWarning:
		fmt.Fprintln(os.Stderr, color.YellowString(line))
	default:
		fmt.Fprintln(os.Stderr, line)
	}
}

// trace emits a message to the process-wide trace sink if level is at or
// above the configured minimum. It is nil-safe with respect to the sink: a
// nil TraceSink silently discards all messages.
func trace(level TraceLevel, format string, args ...interface{}) {
	cfg := GetConfig()
	if cfg.TraceSink == nil || level > cfg.TraceLevel {
		return
	}
	cfg.TraceSink(level, fmt.Sprintf(format, args...))
}
