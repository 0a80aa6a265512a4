package rsyncdelta

import "sync/atomic"

// Config holds the process-wide knobs described in spec §6. librsync exposes
// these as bare global setters (rs_set_inbuflen, rs_set_outbuflen,
// rs_set_roll_paranoia, rs_trace_set_level, rs_trace_to); this module follows
// the "preferred" design note and collects them into a single struct, with
// package-level Get/Set functions providing the same "set before first job"
// contract.
type Config struct {
	// InputBufferSize is the pump size JobDrive uses when filling a job's
	// input from a Filler.
	InputBufferSize int
	// OutputBufferSize is the pump size JobDrive uses when draining a job's
	// output to a Drainer.
	OutputBufferSize int
	// DefaultBlockLen is used for signature generation when the caller
	// specifies a block length of 0.
	DefaultBlockLen uint32
	// RollParanoia is the number of bytes between full from-scratch
	// recomputations of the rolling weak sum during delta scanning. 0
	// disables periodic recomputation entirely.
	RollParanoia uint64
	// TraceLevel is the minimum severity that reaches TraceSink.
	TraceLevel TraceLevel
	// TraceSink receives trace messages. A nil sink disables tracing.
	TraceSink TraceFunc
}

const (
	// DefaultInputBufferSize is the default pump size for JobDrive's input.
	DefaultInputBufferSize = 64 * 1024
	// DefaultOutputBufferSize is the default pump size for JobDrive's output.
	DefaultOutputBufferSize = 64 * 1024
	// DefaultBlockLen is used for signature generation when the caller
	// specifies no block length.
	DefaultBlockLen = 2048
	// DefaultRollParanoia is the default number of bytes between full
	// recomputations of the rolling weak sum.
	DefaultRollParanoia = 4096
)

// DefaultConfig returns a Config populated with the §6 default values.
func DefaultConfig() Config {
	return Config{
		InputBufferSize:  DefaultInputBufferSize,
		OutputBufferSize: DefaultOutputBufferSize,
		DefaultBlockLen:  DefaultBlockLen,
		RollParanoia:     DefaultRollParanoia,
		TraceLevel:       TraceInfo,
		TraceSink:        TraceStderr,
	}
}

// globalConfig holds the process-wide configuration behind an atomic pointer
// so that GetConfig is cheap and safe to call from multiple goroutines, per
// spec §5's note that Config is "process-wide... set before jobs start and
// left alone".
var globalConfig atomic.Pointer[Config]

func init() {
	cfg := DefaultConfig()
	globalConfig.Store(&cfg)
}

// SetConfig replaces the process-wide configuration. It should be called
// before any Job is created; changing it while jobs are in flight produces
// undefined buffer-sizing behavior for those jobs (though it remains memory
// safe).
func SetConfig(cfg Config) {
	c := cfg
	globalConfig.Store(&c)
}

// GetConfig returns the current process-wide configuration.
func GetConfig() Config {
	return *globalConfig.Load()
}
