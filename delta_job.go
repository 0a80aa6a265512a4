package rsyncdelta

// deltaTrimThreshold bounds how large the delta job's scan buffer is allowed
// to grow behind the current scan position before its consumed prefix is
// dropped.
const deltaTrimThreshold = 1 << 20

// deltaJob is the payload for a delta-making Job (spec §4.6): it scans a new
// stream against a Signature, emitting LITERAL runs for unmatched bytes and
// COPY commands for runs that match a basis block.
type deltaJob struct {
	sig    *Signature
	hasher strongHasher

	buf      []byte
	pos      int // start of the current candidate window
	litStart int // start of the not-yet-emitted literal run

	haveRoll        bool
	s1, s2          uint32
	sinceRecompute  uint64
	paranoia        uint64
	reachedLastTail bool
	endBuilt        bool

	// haveCopy, copyOffset, and copyLen hold an in-flight COPY command that
	// hasn't been written to pendingOut yet, so that a run of consecutive
	// matched blocks collapses into one COPY instead of one per block
	// (spec §4.6).
	haveCopy   bool
	copyOffset uint64
	copyLen    uint64

	pendingOut []byte
}

// NewDeltaJob creates a Job that reads a new stream and writes a delta
// stream describing how to reconstruct it from sig's basis (spec §4.6). sig
// must satisfy EnsureValid; if its hash table hasn't been built yet,
// NewDeltaJob builds it (BuildHashTable is idempotent, so this is safe even
// if the caller already built it, including concurrently with other delta
// jobs sharing the same read-only Signature, per spec §5).
func NewDeltaJob(sig *Signature) (*Job, error) {
	if err := sig.EnsureValid(); err != nil {
		return nil, err
	}
	if err := sig.BuildHashTable(); err != nil {
		return nil, err
	}
	if sig.BlockLen == 0 {
		return nil, newError(ResultParamError, "delta job: signature has zero block length", nil)
	}

	d := &deltaJob{
		sig:      sig,
		hasher:   newStrongHasher(sig.kind),
		paranoia: uint64(GetConfig().RollParanoia),
	}
	j := &Job{delta: d}
	j.Stats.Op = "delta"
	j.Stats.BlockLen = sig.BlockLen
	j.Stats.SigBlocks = len(sig.Blocks)
	j.state = d.stateHeader
	return j, nil
}

func (d *deltaJob) stateHeader(j *Job, b *Buffers) (Result, error) {
	if d.pendingOut == nil {
		d.pendingOut = appendBE32(make([]byte, 0, 4), uint32(DeltaMagic))
	}
	if !drainPending(&d.pendingOut, b) {
		return ResultBlocked, nil
	}
	j.state = d.stateScan
	return ResultRunning, nil
}

func (d *deltaJob) stateScan(j *Job, b *Buffers) (Result, error) {
	if len(b.NextIn) > 0 {
		d.buf = append(d.buf, b.NextIn...)
		b.NextIn = b.NextIn[len(b.NextIn):]
	}

	blockLen := int(d.sig.BlockLen)
	for d.pos+blockLen <= len(d.buf) {
		matched, blockIdx, matchLen := d.tryMatch(j, blockLen)
		if matched {
			d.emitMatch(j, blockIdx, matchLen)
			return ResultRunning, nil
		}
		if d.pos+blockLen >= len(d.buf) {
			break // need one more byte to roll forward
		}
		d.rollForward(blockLen)
	}

	if len(d.buf) == d.pos && b.EOFIn {
		j.state = d.stateEnd
		return ResultRunning, nil
	}
	if !b.EOFIn {
		return ResultBlocked, nil
	}

	// EOF with a final partial (or un-advanceable) window: try one last
	// match over whatever remains, then flush the rest as literal.
	if !d.reachedLastTail {
		d.reachedLastTail = true
		tail := d.buf[d.pos:]
		if len(tail) > 0 {
			weak, _, _ := weakHash(tail)
			blockIdx, ok, triedStrong := d.sig.Match(weak, d.strongOf(tail))
			if triedStrong && !ok {
				j.Stats.FalseMatches++
			}
			if ok && int(d.sig.Blocks[blockIdx].Index) == len(d.sig.Blocks)-1 {
				d.emitMatch(j, blockIdx, len(tail))
				return ResultRunning, nil
			}
		}
	}
	if d.litStart < len(d.buf) {
		d.flushLiteral(j, len(d.buf))
		return ResultRunning, nil
	}
	j.state = d.stateEnd
	return ResultRunning, nil
}

// tryMatch attempts to match the blockLen-byte window at d.pos.
func (d *deltaJob) tryMatch(j *Job, blockLen int) (matched bool, blockIdx uint32, matchLen int) {
	window := d.buf[d.pos : d.pos+blockLen]
	var weak uint32
	if !d.haveRoll {
		weak, d.s1, d.s2 = weakHash(window)
		d.haveRoll = true
		d.sinceRecompute = 0
	} else {
		weak = d.s1 | (d.s2 << 16)
	}

	idx, ok, triedStrong := d.sig.Match(weak, d.strongOf(window))
	if triedStrong && !ok {
		j.Stats.FalseMatches++
	}
	if !ok {
		return false, 0, 0
	}
	return true, idx, blockLen
}

// strongOf returns a memoized strongSupplier computing the strong digest of
// window, per spec §4.2's "at most one strong computation per candidate
// window" invariant.
func (d *deltaJob) strongOf(window []byte) strongSupplier {
	var cached []byte
	return func() []byte {
		if cached == nil {
			d.hasher.reset()
			d.hasher.write(window)
			cached = d.hasher.sum(nil, int(d.sig.StrongLen))
		}
		return cached
	}
}

// rollForward advances the candidate window by one byte, using the
// incremental rolling update unless the paranoia threshold has been
// reached, in which case it recomputes the weak sum from scratch to bound
// any drift (spec §6).
func (d *deltaJob) rollForward(blockLen int) {
	out := d.buf[d.pos]
	in := d.buf[d.pos+blockLen]
	d.pos++
	d.sinceRecompute++
	if d.paranoia > 0 && d.sinceRecompute >= d.paranoia {
		_, d.s1, d.s2 = weakHash(d.buf[d.pos : d.pos+blockLen])
		d.sinceRecompute = 0
		return
	}
	_, d.s1, d.s2 = rollWeakHash(d.s1, d.s2, out, in, uint32(blockLen))
}

// emitMatch flushes any pending literal run, then either extends the
// in-flight COPY command (when this match's basis offset directly continues
// it) or flushes it and starts a new one, per spec §4.6's "merge adjacent
// COPYs sharing continuity" rule.
func (d *deltaJob) emitMatch(j *Job, blockIdx uint32, matchLen int) {
	if d.pos > d.litStart {
		d.flushLiteral(j, d.pos)
	}
	offset := uint64(d.sig.Blocks[blockIdx].Index) * uint64(d.sig.BlockLen)
	if d.haveCopy && d.copyOffset+d.copyLen == offset {
		d.copyLen += uint64(matchLen)
	} else {
		d.flushCopy(j)
		d.haveCopy = true
		d.copyOffset = offset
		d.copyLen = uint64(matchLen)
	}
	j.Stats.CopyBytes += uint64(matchLen)

	d.pos += matchLen
	d.litStart = d.pos
	d.haveRoll = false
	d.trim()
	j.state = d.stateEmit
}

// flushCopy writes the in-flight COPY command (if any) to pendingOut and
// clears it, so that a subsequent literal run or the END command always
// follows it in the right order.
func (d *deltaJob) flushCopy(j *Job) {
	if !d.haveCopy {
		return
	}
	d.pendingOut = encodeCopy(d.pendingOut, d.copyOffset, d.copyLen)
	j.Stats.CopyCmds++
	d.haveCopy = false
}

// flushLiteral flushes any in-flight COPY command, then appends a LITERAL
// command covering buf[litStart:upto].
func (d *deltaJob) flushLiteral(j *Job, upto int) {
	d.flushCopy(j)
	n := upto - d.litStart
	d.pendingOut = encodeLiteral(d.pendingOut, uint64(n))
	d.pendingOut = append(d.pendingOut, d.buf[d.litStart:upto]...)
	d.litStart = upto
	j.Stats.LitCmds++
	j.Stats.LitBytes += uint64(n)
}

// trim drops the consumed prefix of buf once it grows past the threshold,
// bounding memory use for long inputs (spec §6: bounded buffers).
func (d *deltaJob) trim() {
	if d.litStart < deltaTrimThreshold {
		return
	}
	d.buf = append(d.buf[:0], d.buf[d.litStart:]...)
	d.pos -= d.litStart
	d.litStart = 0
}

func (d *deltaJob) stateEmit(j *Job, b *Buffers) (Result, error) {
	if !drainPending(&d.pendingOut, b) {
		return ResultBlocked, nil
	}
	j.state = d.stateScan
	return ResultRunning, nil
}

func (d *deltaJob) stateEnd(j *Job, b *Buffers) (Result, error) {
	if !d.endBuilt {
		if d.litStart < len(d.buf) {
			d.flushLiteral(j, len(d.buf))
		} else {
			d.flushCopy(j)
		}
		d.pendingOut = encodeEnd(d.pendingOut)
		d.endBuilt = true
	}
	if !drainPending(&d.pendingOut, b) {
		return ResultBlocked, nil
	}
	return ResultDone, nil
}
