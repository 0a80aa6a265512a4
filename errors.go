package rsyncdelta

import (
	"fmt"

	"github.com/pkg/errors"
)

// Result is the outcome of a single Job.Iter call, or of a convenience
// function built on top of one. It mirrors librsync's rs_result enumeration.
type Result int

const (
	// ResultDone indicates the job has completed successfully. It is terminal.
	ResultDone Result = iota
	// ResultBlocked indicates the job needs more input or output room before
	// it can make further progress. It is not an error.
	ResultBlocked
	// ResultRunning indicates the job made progress and should be iterated
	// again immediately. Library-internal; callers should never observe it
	// returned from Job.Iter.
	ResultRunning
	// ResultIOError indicates a pump callback (filler/drainer/copy callback)
	// failed.
	ResultIOError
	// ResultInputEnded indicates eof_in was set while the current state still
	// needed more input.
	ResultInputEnded
	// ResultBadMagic indicates the leading 4 bytes of a stream did not match
	// any recognized magic number.
	ResultBadMagic
	// ResultUnimplemented indicates a requested feature or code path isn't
	// implemented.
	ResultUnimplemented
	// ResultCorrupt indicates an impossible opcode, operand, or truncated
	// record was encountered.
	ResultCorrupt
	// ResultInternalError indicates an assertion trip or other library bug.
	ResultInternalError
	// ResultParamError indicates a caller-supplied parameter violated a
	// documented precondition.
	ResultParamError
	// ResultMemError indicates an allocation failed. Rarely produced under
	// normal Go allocation failure semantics (which panic), but retained for
	// parity with the external result-code table and for bounds checks that
	// choose to fail gracefully instead of allocating unbounded buffers.
	ResultMemError
	// ResultSyntaxError indicates malformed input at a layer that parses
	// caller-supplied syntax rather than wire bytes (reserved for parity with
	// the external result-code table; the core codec reports ResultCorrupt
	// for malformed wire bytes).
	ResultSyntaxError
)

// String returns a human-readable name for the result code.
func (r Result) String() string {
	switch r {
	case ResultDone:
		return "done"
	case ResultBlocked:
		return "blocked"
	case ResultRunning:
		return "running"
	case ResultIOError:
		return "io error"
	case ResultInputEnded:
		return "input ended"
	case ResultBadMagic:
		return "bad magic"
	case ResultUnimplemented:
		return "unimplemented"
	case ResultCorrupt:
		return "corrupt"
	case ResultInternalError:
		return "internal error"
	case ResultParamError:
		return "param error"
	case ResultMemError:
		return "memory error"
	case ResultSyntaxError:
		return "syntax error"
	default:
		return fmt.Sprintf("unknown result (%d)", int(r))
	}
}

// IsError reports whether the result represents a terminal error condition,
// as opposed to ResultDone, ResultBlocked, or the internal-only
// ResultRunning.
func (r Result) IsError() bool {
	return r != ResultDone && r != ResultBlocked && r != ResultRunning
}

// Error wraps a Result with contextual information about the operation that
// produced it. It implements Unwrap so that callers can use errors.Is /
// errors.As against both the underlying cause and, via errors.Cause from
// github.com/pkg/errors, the original wrapped error chain.
type Error struct {
	// Result is the terminal result code associated with this error.
	Result Result
	// Op names the job state or codec operation that failed, e.g.
	// "loadsig: read header" or "codec: decode command".
	Op string
	// Err is the underlying cause, if any. It may be nil when Result alone is
	// sufficiently descriptive (e.g. ResultBadMagic).
	Err error
}

// newError constructs an *Error, wrapping err (if non-nil) with op context via
// github.com/pkg/errors so that callers retain a full cause chain.
func newError(result Result, op string, err error) *Error {
	if err != nil {
		err = errors.Wrap(err, op)
	}
	return &Error{Result: result, Op: op, Err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Result, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Result, e.Op)
}

// Unwrap returns the underlying cause, allowing errors.Is/errors.As to see
// through to it.
func (e *Error) Unwrap() error {
	return e.Err
}
