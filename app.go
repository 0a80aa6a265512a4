// Copyright 2024 Silviu Tanasă. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rsyncdelta

import (
	"errors"
	"io"
	"os"
)

// App is the file-based convenience layer over the job engine. It exposes
// the three operations most callers need (Signature, Delta, Patch) without
// requiring them to drive a Job's Buffers contract by hand.
type App struct {
	// BlockLen is the block length passed to signature generation. 0 uses
	// the process-wide default (see Config.DefaultBlockLen).
	BlockLen uint32
	// StrongLen is the strong-digest truncation passed to signature
	// generation. 0 requests the hash family's full native width, capped at
	// MaxStrongLen (16 bytes for MD4, 32 for BLAKE2b).
	StrongLen uint32
	// Magic selects the strong-hash family for signature generation. 0
	// defaults to BLAKE2SigMagic.
	Magic MagicNumber
}

// New constructs an App with the given block length and BLAKE2-family
// default settings.
func New(blockLen uint32) *App {
	return &App{BlockLen: blockLen, Magic: BLAKE2SigMagic}
}

// Signature computes the signature of a target file and writes it to
// signatureFilePath. targetFilePath must exist; signatureFilePath must not.
func (a *App) Signature(targetFilePath, signatureFilePath string) error {
	target, err := os.Open(targetFilePath)
	if err != nil {
		return err
	}
	sigFile, err := os.OpenFile(signatureFilePath, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0666)
	if err != nil {
		_ = target.Close()
		return err
	}

	job, jerr := NewSignatureJob(a.BlockLen, a.StrongLen, a.Magic)
	if jerr != nil {
		err = jerr
	} else {
		trace(TraceInfo, "signature: %s -> %s", targetFilePath, signatureFilePath)
		err = JobDrive(job, fileFiller(target), fileDrainer(sigFile))
		trace(TraceDebug, "%s", job.Stats.Format())
	}

	err1 := target.Close()
	err2 := sigFile.Close()
	return errors.Join(err, err1, err2)
}

// Delta computes a delta stream describing how to transform the basis
// described by the signature at signatureFilePath into sourceFilePath's
// content, writing it to deltaFilePath. signatureFilePath and
// sourceFilePath must exist; deltaFilePath must not.
func (a *App) Delta(signatureFilePath, sourceFilePath, deltaFilePath string) error {
	sigFile, err := os.Open(signatureFilePath)
	if err != nil {
		return err
	}
	defer sigFile.Close()
	source, err := os.Open(sourceFilePath)
	if err != nil {
		return err
	}
	defer source.Close()
	deltaFile, err := os.OpenFile(deltaFilePath, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0666)
	if err != nil {
		return err
	}
	defer deltaFile.Close()

	loadJob, sig := NewLoadSignatureJob()
	if err := JobDrive(loadJob, fileFiller(sigFile), discardDrainer); err != nil {
		return err
	}
	if info, err := source.Stat(); err == nil {
		sig.SetFileLength(uint64(info.Size()))
	}

	deltaJob, err := NewDeltaJob(sig)
	if err != nil {
		return err
	}
	trace(TraceInfo, "delta: %s + %s -> %s", signatureFilePath, sourceFilePath, deltaFilePath)
	err = JobDrive(deltaJob, fileFiller(source), fileDrainer(deltaFile))
	trace(TraceDebug, "%s", deltaJob.Stats.Format())
	return err
}

// Patch reconstructs a new stream at outputFilePath from the delta stream at
// deltaFilePath, fetching basis bytes by random access into basisFilePath.
func (a *App) Patch(basisFilePath, deltaFilePath, outputFilePath string) error {
	basis, err := os.Open(basisFilePath)
	if err != nil {
		return err
	}
	defer basis.Close()
	deltaFile, err := os.Open(deltaFilePath)
	if err != nil {
		return err
	}
	defer deltaFile.Close()
	out, err := os.OpenFile(outputFilePath, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0666)
	if err != nil {
		return err
	}
	defer out.Close()

	job, jerr := NewPatchJob(readerAtCopyCallback(basis), nil)
	if jerr != nil {
		return jerr
	}
	trace(TraceInfo, "patch: %s + %s -> %s", basisFilePath, deltaFilePath, outputFilePath)
	err = JobDrive(job, fileFiller(deltaFile), fileDrainer(out))
	trace(TraceDebug, "%s", job.Stats.Format())
	return err
}

// readerAtCopyCallback adapts an io.ReaderAt into a CopyCallback, treating
// an io.EOF that still delivered bytes as a short read rather than failure
// (the patch job retries automatically).
func readerAtCopyCallback(r io.ReaderAt) CopyCallback {
	return func(_ interface{}, pos uint64, buf []byte) (int, error) {
		n, err := r.ReadAt(buf, int64(pos))
		if err == io.EOF && n > 0 {
			err = nil
		}
		return n, err
	}
}

// fileFiller adapts an *os.File into a Filler.
func fileFiller(f *os.File) Filler {
	return func(p []byte) (int, bool, error) {
		n, err := f.Read(p)
		if err != nil {
			if err == io.EOF {
				return n, true, nil
			}
			return n, false, err
		}
		return n, false, nil
	}
}

// fileDrainer adapts an *os.File into a Drainer.
func fileDrainer(f *os.File) Drainer {
	return func(p []byte) error {
		_, err := f.Write(p)
		return err
	}
}

// discardDrainer is used for jobs (like signature loading) that produce no
// output.
func discardDrainer(p []byte) error {
	return nil
}
