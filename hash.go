package rsyncdelta

import (
	"hash"

	"github.com/gtank/blake2/blake2b"
	"golang.org/x/crypto/md4"
)

// rollOffset is the additive constant folded into every byte of the weak
// checksum (spec §4.1). It has no particular significance beyond avoiding a
// zero checksum for an all-zero window.
const rollOffset = 31

// weakHash computes the rolling checksum described in spec §4.1 from
// scratch over a window of bytes. It returns the combined 32-bit checksum
// along with its two 16-bit components (s1, s2) so that the caller can roll
// it forward without recomputing from scratch.
func weakHash(window []byte) (sum uint32, s1 uint32, s2 uint32) {
	k := uint32(len(window))
	for i, b := range window {
		s1 += uint32(b)
		s2 += (k - uint32(i)) * (uint32(b) + rollOffset)
	}
	s1 = (s1 + k*rollOffset) & 0xffff
	s2 &= 0xffff
	return s1 | (s2 << 16), s1, s2
}

// rollWeakHash advances a rolling checksum by one byte: out leaves the
// window (at its front), in enters it (at its back). k is the (fixed)
// window length.
func rollWeakHash(s1, s2 uint32, out, in byte, k uint32) (sum uint32, newS1 uint32, newS2 uint32) {
	s1 = (s1 - uint32(out) + uint32(in)) & 0xffff
	s2 = (s2 - k*(uint32(out)+rollOffset) + s1) & 0xffff
	return s1 | (s2 << 16), s1, s2
}

// hashKind identifies which strong-hash family a signature uses. It is
// chosen once, at signature-build or signature-load time, and every job
// operating on that signature dispatches to the corresponding hasher exactly
// once rather than per block (spec §9, "Multiple hash families").
type hashKind int

const (
	hashMD4 hashKind = iota
	hashBLAKE2
)

// nativeStrongLen returns the full, untruncated digest width for the hash
// family, in bytes.
func (k hashKind) nativeStrongLen() int {
	switch k {
	case hashMD4:
		return md4.Size
	case hashBLAKE2:
		return blake2b.MaxOutput
	default:
		return 0
	}
}

// magic returns the signature magic number associated with the hash family.
func (k hashKind) magic() MagicNumber {
	switch k {
	case hashMD4:
		return MD4SigMagic
	case hashBLAKE2:
		return BLAKE2SigMagic
	default:
		return 0
	}
}

// strongHasher is the small capability spec §9 calls for: init, update,
// finalize-with-truncation. MD4 and BLAKE2b are treated as externally
// supplied pure functions; this interface is purely an adapter over whichever
// hash.Hash implementation the signature's magic selects.
type strongHasher interface {
	// reset clears any accumulated state, readying the hasher for a new
	// block. It must be called before first use as well.
	reset()
	// write appends data to the digest being computed. It never returns an
	// error: the underlying hash.Hash implementations guarantee that writes
	// succeed.
	write(data []byte)
	// sum appends the digest, truncated to truncate bytes (or the hash's
	// native width if truncate is 0 or exceeds that width), to dst and
	// returns the extended slice. It does not reset the hasher.
	sum(dst []byte, truncate int) []byte
}

// newStrongHasher constructs the strongHasher adapter for kind.
func newStrongHasher(kind hashKind) strongHasher {
	if kind == hashBLAKE2 {
		return &blake2Adapter{}
	}
	return &hashAdapter{h: md4.New()}
}

// hashAdapter wraps a standard hash.Hash to implement strongHasher, matching
// the adapter pattern used by mutagen's rsync engine, which keeps a single
// reusable hash.Hash and Reset()/Write()/Sum()s it per block rather than
// allocating a new hasher for each one.
type hashAdapter struct {
	h hash.Hash
}

func (a *hashAdapter) reset() {
	a.h.Reset()
}

func (a *hashAdapter) write(data []byte) {
	a.h.Write(data)
}

func (a *hashAdapter) sum(dst []byte, truncate int) []byte {
	full := a.h.Sum(nil)
	if truncate <= 0 || truncate > len(full) {
		truncate = len(full)
	}
	return append(dst, full[:truncate]...)
}

// blake2Adapter wraps github.com/gtank/blake2/blake2b, whose Digest cannot be
// reset in place (BLAKE2's keyed mode makes that unsafe to do generically),
// so reset constructs a fresh Digest instead.
type blake2Adapter struct {
	d *blake2b.Digest
}

func (a *blake2Adapter) reset() {
	d, err := blake2b.NewDigest(nil, nil, nil, blake2b.MaxOutput)
	if err != nil {
		// Only possible if MaxOutput itself were invalid, which it isn't.
		panic(newError(ResultInternalError, "strong hasher init", err))
	}
	a.d = d
}

func (a *blake2Adapter) write(data []byte) {
	if a.d == nil {
		a.reset()
	}
	a.d.Write(data)
}

func (a *blake2Adapter) sum(dst []byte, truncate int) []byte {
	if a.d == nil {
		a.reset()
	}
	full := a.d.Sum(nil)
	if truncate <= 0 || truncate > len(full) {
		truncate = len(full)
	}
	return append(dst, full[:truncate]...)
}
