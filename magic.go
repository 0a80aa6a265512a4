package rsyncdelta

// MagicNumber is the big-endian 32-bit value found in the first 4 bytes of
// every produced stream (signature or delta). Values match librsync's
// rs_magic_number enumeration so that streams interoperate at the wire
// level.
type MagicNumber uint32

const (
	// DeltaMagic marks a delta stream.
	DeltaMagic MagicNumber = 0x72730236
	// MD4SigMagic marks a signature stream whose strong hash is MD4. Kept
	// for interoperability; deprecated in favor of BLAKE2SigMagic.
	MD4SigMagic MagicNumber = 0x72730136
	// BLAKE2SigMagic marks a signature stream whose strong hash is BLAKE2b.
	// This is the preferred default.
	BLAKE2SigMagic MagicNumber = 0x72730137
)

// String returns a human-readable name for the magic number.
func (m MagicNumber) String() string {
	switch m {
	case DeltaMagic:
		return "delta"
	case MD4SigMagic:
		return "signature (MD4)"
	case BLAKE2SigMagic:
		return "signature (BLAKE2)"
	default:
		return "unknown magic"
	}
}

// isSignatureMagic reports whether m identifies a signature stream, and if
// so which strong hash family it implies.
func isSignatureMagic(m MagicNumber) (hashKind, bool) {
	switch m {
	case MD4SigMagic:
		return hashMD4, true
	case BLAKE2SigMagic:
		return hashBLAKE2, true
	default:
		return 0, false
	}
}
