package rsyncdelta

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Stats accumulates the performance counters spec §8 requires jobs to track
// and, per the error-handling design (spec §7), retains them even after a
// job terminates in error. It mirrors librsync's rs_stats_t, trimmed to the
// counters this module's jobs actually produce.
type Stats struct {
	// Op names the operation that produced these stats, e.g. "signature",
	// "delta", "patch".
	Op string
	// LitCmds is the number of LITERAL commands emitted or applied.
	LitCmds int
	// LitBytes is the number of literal bytes emitted or applied.
	LitBytes uint64
	// CopyCmds is the number of COPY commands emitted or applied.
	CopyCmds int
	// CopyBytes is the number of bytes reconstructed via COPY commands.
	CopyBytes uint64
	// FalseMatches is the number of weak-match, strong-mismatch events
	// encountered while scanning for block matches (spec §4.6).
	FalseMatches int
	// SigBlocks is the number of blocks described by the signature involved
	// in the operation, when applicable.
	SigBlocks int
	// BlockLen is the block length used, when applicable.
	BlockLen uint32
	// InBytes is the total number of bytes read from input.
	InBytes uint64
	// OutBytes is the total number of bytes written to output.
	OutBytes uint64
}

// Format renders the stats as a single human-readable line, in the spirit of
// librsync's rs_format_stats, using humanize.Bytes so sizes read naturally
// (e.g. "12 kB") rather than as raw byte counts.
func (s *Stats) Format() string {
	return fmt.Sprintf(
		"%s: %d literal cmds (%s), %d copy cmds (%s), %d false matches, %s in, %s out",
		s.Op,
		s.LitCmds, humanize.Bytes(s.LitBytes),
		s.CopyCmds, humanize.Bytes(s.CopyBytes),
		s.FalseMatches,
		humanize.Bytes(s.InBytes), humanize.Bytes(s.OutBytes),
	)
}
