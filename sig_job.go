package rsyncdelta

// MaxStrongLen is the largest strong-digest truncation this module accepts,
// matching the external result-code table's documented ceiling. BLAKE2b can
// natively produce digests longer than this; callers asking for more than
// MaxStrongLen get ResultParamError rather than a silently widened digest.
const MaxStrongLen = 32

// sigJob is the payload for a signature-making Job (spec §4.4).
type sigJob struct {
	blockLen  uint32
	strongLen uint32
	kind      hashKind
	hasher    strongHasher

	pendingOut []byte

	blockBuf    []byte
	blockFilled int
	blockIndex  uint32
}

// NewSignatureJob creates a Job that reads a basis stream and writes a
// signature stream (spec §4.4). blockLen of 0 uses the process-wide default
// block length; strongLen of 0 requests the digest's full native width,
// capped at MaxStrongLen (16 bytes for MD4, 32 for BLAKE2b). A strongLen
// above the hash's native width is rejected with ResultParamError.
// magic selects the strong-hash family: MD4SigMagic, BLAKE2SigMagic, or 0 to
// default to BLAKE2SigMagic.
func NewSignatureJob(blockLen, strongLen uint32, magic MagicNumber) (*Job, error) {
	if magic == 0 {
		magic = BLAKE2SigMagic
	}
	kind, ok := isSignatureMagic(magic)
	if !ok {
		return nil, newError(ResultParamError, "signature job: unrecognized magic", nil)
	}
	if blockLen == 0 {
		blockLen = GetConfig().DefaultBlockLen
	}
	if strongLen > MaxStrongLen || int(strongLen) > kind.nativeStrongLen() {
		return nil, newError(ResultParamError, "signature job: strong length exceeds maximum", nil)
	}
	if strongLen == 0 {
		strongLen = uint32(kind.nativeStrongLen())
		if strongLen > MaxStrongLen {
			strongLen = MaxStrongLen
		}
	}

	s := &sigJob{
		blockLen:  blockLen,
		strongLen: strongLen,
		kind:      kind,
		hasher:    newStrongHasher(kind),
		blockBuf:  make([]byte, blockLen),
	}
	j := &Job{sig: s}
	j.Stats.Op = "signature"
	j.Stats.BlockLen = blockLen
	j.state = s.stateHeader
	return j, nil
}

func (s *sigJob) stateHeader(j *Job, b *Buffers) (Result, error) {
	if s.pendingOut == nil {
		hdr := make([]byte, 0, 12)
		hdr = appendBE32(hdr, uint32(s.kind.magic()))
		hdr = appendBE32(hdr, s.blockLen)
		hdr = appendBE32(hdr, s.strongLen)
		s.pendingOut = hdr
	}
	if !drainPending(&s.pendingOut, b) {
		return ResultBlocked, nil
	}
	j.state = s.stateReadBlock
	return ResultRunning, nil
}

func (s *sigJob) stateReadBlock(j *Job, b *Buffers) (Result, error) {
	s.blockFilled = fillBuffer(b, s.blockBuf, s.blockFilled)
	if s.blockFilled < len(s.blockBuf) && !b.EOFIn {
		return ResultBlocked, nil
	}
	if s.blockFilled == 0 {
		return ResultDone, nil
	}

	data := s.blockBuf[:s.blockFilled]
	weak, _, _ := weakHash(data)
	s.hasher.reset()
	s.hasher.write(data)
	strong := s.hasher.sum(nil, int(s.strongLen))

	rec := make([]byte, 0, 4+len(strong))
	rec = appendBE32(rec, weak)
	rec = append(rec, strong...)
	s.pendingOut = rec

	j.Stats.SigBlocks++
	s.blockIndex++
	s.blockFilled = 0
	j.state = s.stateEmitBlock
	return ResultRunning, nil
}

func (s *sigJob) stateEmitBlock(j *Job, b *Buffers) (Result, error) {
	if !drainPending(&s.pendingOut, b) {
		return ResultBlocked, nil
	}
	j.state = s.stateReadBlock
	return ResultRunning, nil
}
