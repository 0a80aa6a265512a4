package rsyncdelta

// CopyCallback supplies basis bytes to a patch job (spec §4.8). It should
// read up to len(buf) bytes starting at pos into buf and return the number
// actually read. A short read (0 < n < len(buf)) is not an error by itself:
// the patch job retries the callback for the remainder. A call that returns
// n == 0 with a nil error is not retried; the patch job fails with
// ResultIOError. It should return an error only when no further bytes can
// ever be supplied for this request.
type CopyCallback func(opaque interface{}, pos uint64, buf []byte) (n int, err error)

// patchJob is the payload for a patch Job (spec §4.8): it reads a delta
// stream and reconstructs the new stream by copying basis bytes (via cb) for
// COPY commands and passing LITERAL bytes straight through.
type patchJob struct {
	cb     CopyCallback
	opaque interface{}

	headerBuf    [4]byte
	headerFilled int

	decoder commandDecoder

	remainingLit  uint64
	copyPos       uint64
	remainingCopy uint64
}

// NewPatchJob creates a Job that reads a delta stream and writes the
// reconstructed new stream, fetching basis bytes for COPY commands from cb.
func NewPatchJob(cb CopyCallback, opaque interface{}) (*Job, error) {
	if cb == nil {
		return nil, newError(ResultParamError, "patch job: nil copy callback", nil)
	}
	p := &patchJob{cb: cb, opaque: opaque}
	j := &Job{patch: p}
	j.Stats.Op = "patch"
	j.state = p.stateHeader
	return j, nil
}

func (p *patchJob) stateHeader(j *Job, b *Buffers) (Result, error) {
	p.headerFilled = fillBuffer(b, p.headerBuf[:], p.headerFilled)
	if p.headerFilled < len(p.headerBuf) {
		if b.EOFIn {
			return ResultBadMagic, newError(ResultBadMagic, "patch: truncated header", nil)
		}
		return ResultBlocked, nil
	}
	magic := MagicNumber(be32(p.headerBuf[:]))
	if magic != DeltaMagic {
		return ResultBadMagic, newError(ResultBadMagic, "patch: header", nil)
	}
	j.state = p.stateCommand
	return ResultRunning, nil
}

func (p *patchJob) stateCommand(j *Job, b *Buffers) (Result, error) {
	cmd, ok, err := p.decoder.step(b)
	if err != nil {
		return ResultCorrupt, err
	}
	if !ok {
		return ResultBlocked, nil
	}
	switch cmd.Kind {
	case CmdEnd:
		return ResultDone, nil
	case CmdLiteral:
		p.remainingLit = cmd.Length
		j.state = p.stateLiteral
	case CmdCopy:
		p.copyPos = cmd.Offset
		p.remainingCopy = cmd.Length
		j.Stats.CopyCmds++
		j.state = p.stateCopy
	default:
		return ResultCorrupt, newError(ResultCorrupt, "patch: unrecognized command", nil)
	}
	return ResultRunning, nil
}

func (p *patchJob) stateLiteral(j *Job, b *Buffers) (Result, error) {
	if p.remainingLit == 0 {
		j.state = p.stateCommand
		return ResultRunning, nil
	}
	n := len(b.NextIn)
	if uint64(n) > p.remainingLit {
		n = int(p.remainingLit)
	}
	if n > len(b.NextOut) {
		n = len(b.NextOut)
	}
	if n == 0 {
		if len(b.NextIn) == 0 && b.EOFIn {
			return ResultInputEnded, newError(ResultInputEnded, "patch: truncated literal", nil)
		}
		return ResultBlocked, nil
	}
	copy(b.NextOut[:n], b.NextIn[:n])
	b.NextIn = b.NextIn[n:]
	b.NextOut = b.NextOut[n:]
	p.remainingLit -= uint64(n)
	j.Stats.LitBytes += uint64(n)
	if p.remainingLit == 0 {
		j.Stats.LitCmds++
		j.state = p.stateCommand
	}
	return ResultRunning, nil
}

func (p *patchJob) stateCopy(j *Job, b *Buffers) (Result, error) {
	if p.remainingCopy == 0 {
		j.state = p.stateCommand
		return ResultRunning, nil
	}
	want := len(b.NextOut)
	if uint64(want) > p.remainingCopy {
		want = int(p.remainingCopy)
	}
	if want == 0 {
		return ResultBlocked, nil
	}
	n, err := p.cb(p.opaque, p.copyPos, b.NextOut[:want])
	if err != nil {
		return ResultIOError, newError(ResultIOError, "patch: copy callback", err)
	}
	if n == 0 {
		return ResultIOError, newError(ResultIOError, "patch: copy callback made no progress", nil)
	}
	b.NextOut = b.NextOut[n:]
	p.copyPos += uint64(n)
	p.remainingCopy -= uint64(n)
	j.Stats.CopyBytes += uint64(n)
	if p.remainingCopy == 0 {
		j.state = p.stateCommand
	}
	return ResultRunning, nil
}
