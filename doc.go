// Copyright 2024 Silviu Tanasă. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

/*
Package rsyncdelta implements the rsync rolling-checksum delta algorithm: a
basis stream is summarized into a signature, a new stream is compared
against that signature to produce a delta, and the delta can later be
replayed against the basis to reconstruct the new stream without having both
streams present at once.

The package is built around Job, a reentrant state machine that consumes
input and produces output through caller-owned, bounded Buffers rather than
blocking on an io.Reader/io.Writer directly — useful for network protocols
and other settings where neither stream is fully available at once. JobDrive
is a convenience pump for the common case of driving a Job against a Filler
and a Drainer until it finishes.

App wraps the three operations in a file-based convenience layer for
callers who just want to point at paths on disk:

	// Build a signature of target_file_path, split into 4096-byte blocks.
	a := rsyncdelta.New(4096)
	err := a.Signature("target_file_path", "signature_file_path")
	if err != nil {
		return err
	}
	// Compare source_file_path against that signature.
	err = a.Delta("signature_file_path", "source_file_path", "delta_file_path")
	if err != nil {
		return err
	}
	// Reconstruct source_file_path's content from target_file_path + the delta.
	err = a.Patch("target_file_path", "delta_file_path", "reconstructed_file_path")
	if err != nil {
		return err
	}

Lower-level callers needing streaming control use NewSignatureJob,
NewLoadSignatureJob, NewDeltaJob, and NewPatchJob directly along with Job.Iter
or JobDrive.
*/
package rsyncdelta
