package rsyncdelta

import "encoding/binary"

// Buffers is the caller-visible I/O contract for Job.Iter (spec §3). Unlike
// librsync's rs_buffers_s, which tracks next_in/avail_in and next_out/
// avail_out as separate pointer+length pairs, Go lets a slice carry both: NextIn
// is re-sliced to drop consumed bytes from its front, and NextOut is re-sliced
// to drop the room the job just filled from its front. The caller supplies
// fresh buffers (or the remainder of previous ones) on every call.
type Buffers struct {
	// NextIn holds the unconsumed input bytes. The job advances it (reslices
	// its front off) by exactly the bytes it consumes.
	NextIn []byte
	// EOFIn is true if the caller will never supply any more input bytes
	// after NextIn is exhausted.
	EOFIn bool
	// NextOut holds the remaining output room. The job advances it (reslices
	// its front off) by exactly the bytes it produces.
	NextOut []byte
}

// jobState is one state in a Job's DAG (spec §4.3's "read_header ->
// read_body* -> write_trailer? -> done" skeleton). Each state is a method
// value bound to the job-kind-specific payload struct (sigJob, loadSigJob,
// deltaJob, or patchJob), and Job.Iter is the single place that calls it, so
// Job.state is "which function runs next". States are function values, not
// an enumerated tag.
type jobState func(j *Job, b *Buffers) (Result, error)

// Job is a reentrant, single-operation state machine (spec §3/§4.3). It is
// created by one of the NewXJob constructors, iterated via Iter (or pumped
// via JobDrive), and then discarded; there is no separate free step in this
// Go port since the garbage collector reclaims a Job's scratch once it is no
// longer referenced, and dropping a Job at any suspension point is always
// safe per spec §5.
type Job struct {
	// Stats accumulates counters for this job (spec §7: "stats are
	// preserved on error so diagnostics are available").
	Stats Stats

	state jobState
	err   *Error

	sig   *sigJob
	load  *loadSigJob
	delta *deltaJob
	patch *patchJob
}

// Iter executes the job's current state against buffers, advancing NextIn/
// NextOut as bytes are consumed/produced, and returns the job's status.
// ResultDone is terminal; any ResultXError is terminal. ResultBlocked means
// the current state needs more input (and !EOFIn) or more output room;
// Iter may be called again later with replenished buffers. Internally the
// engine may pass through ResultRunning any number of times as it walks
// state transitions that required no new bytes (e.g. header fully drained,
// advance to the next block) — that value never escapes to the caller.
// Stats.InBytes/OutBytes are updated here, once per state invocation, from
// how far each call reslices NextIn/NextOut, so every job kind accounts for
// them uniformly without each state function tracking it separately.
func (j *Job) Iter(b *Buffers) (Result, error) {
	if j.err != nil {
		return j.err.Result, j.err
	}
	if j.state == nil {
		return ResultDone, nil
	}
	for {
		inBefore, outBefore := len(b.NextIn), len(b.NextOut)
		res, err := j.state(j, b)
		j.Stats.InBytes += uint64(inBefore - len(b.NextIn))
		j.Stats.OutBytes += uint64(outBefore - len(b.NextOut))
		if err != nil {
			var jerr *Error
			if e, ok := err.(*Error); ok {
				jerr = e
			} else {
				jerr = newError(ResultInternalError, "job", err)
			}
			j.err = jerr
			j.state = nil
			return jerr.Result, jerr
		}
		switch res {
		case ResultRunning:
			continue
		case ResultDone:
			j.state = nil
			return ResultDone, nil
		default:
			return res, nil
		}
	}
}

// drainPending copies as much of *pending as fits into b.NextOut, advancing
// both. It returns true once *pending is fully drained. This is the shared
// "write_trailer?"/command-emission primitive every job kind uses to cope
// with an output buffer that may be smaller than one logical record.
func drainPending(pending *[]byte, b *Buffers) bool {
	if len(*pending) == 0 {
		return true
	}
	n := copy(b.NextOut, *pending)
	b.NextOut = b.NextOut[n:]
	*pending = (*pending)[n:]
	return len(*pending) == 0
}

// fillBuffer copies bytes from b.NextIn into buf[filled:], advancing
// b.NextIn, and returns the new filled count. This is the scan-buffer
// coalescing primitive (spec §4.3) that lets states declare a minimum input
// width (len(buf)) without ever observing a truncated read: callers keep
// invoking fillBuffer across successive Iter calls until it reports
// filled == len(buf), or until EOFIn makes that impossible.
func fillBuffer(b *Buffers, buf []byte, filled int) int {
	if filled >= len(buf) || len(b.NextIn) == 0 {
		return filled
	}
	n := copy(buf[filled:], b.NextIn)
	b.NextIn = b.NextIn[n:]
	return filled + n
}

// appendBE32 appends a big-endian uint32 to dst.
func appendBE32(dst []byte, v uint32) []byte {
	return binary.BigEndian.AppendUint32(dst, v)
}

// appendBE appends a big-endian unsigned integer of the given width (1, 2,
// 4, or 8 bytes) to dst.
func appendBE(dst []byte, v uint64, width int) []byte {
	switch width {
	case 1:
		return append(dst, byte(v))
	case 2:
		return binary.BigEndian.AppendUint16(dst, uint16(v))
	case 4:
		return binary.BigEndian.AppendUint32(dst, uint32(v))
	case 8:
		return binary.BigEndian.AppendUint64(dst, v)
	default:
		panic("rsyncdelta: invalid operand width")
	}
}

// Filler supplies more input bytes to JobDrive. It should copy up to
// len(p) bytes into p, returning the number copied and whether the source
// is now exhausted (no further bytes will ever be available).
type Filler func(p []byte) (n int, eof bool, err error)

// Drainer consumes output bytes produced by JobDrive.
type Drainer func(p []byte) error

// JobDrive loops Job.Iter against a filler and a drainer until the job is
// done or an unrecoverable condition arises (spec §4.3). It returns nil on
// success. If the filler reports EOF while the job still needs input, it
// returns a *Error wrapping ResultInputEnded.
func JobDrive(j *Job, fill Filler, drain Drainer) error {
	cfg := GetConfig()
	in := make([]byte, cfg.InputBufferSize)
	out := make([]byte, cfg.OutputBufferSize)

	b := &Buffers{}
	for {
		if len(b.NextIn) == 0 && !b.EOFIn {
			n, eof, err := fill(in)
			if err != nil {
				return newError(ResultIOError, "job drive: fill", err)
			}
			b.NextIn = in[:n]
			b.EOFIn = eof
		}

		b.NextOut = out
		res, err := j.Iter(b)
		produced := len(out) - len(b.NextOut)
		if produced > 0 {
			if derr := drain(out[:produced]); derr != nil {
				return newError(ResultIOError, "job drive: drain", derr)
			}
		}
		if err != nil {
			return err
		}

		switch res {
		case ResultDone:
			return nil
		case ResultBlocked:
			// Blocked with output room left means the job wants input; with
			// no room left it only needs the output drained and is resumed.
			if len(b.NextIn) == 0 && b.EOFIn && len(b.NextOut) > 0 {
				return newError(ResultInputEnded, "job drive", nil)
			}
			continue
		default:
			continue
		}
	}
}
