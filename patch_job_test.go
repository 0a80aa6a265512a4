package rsyncdelta

import (
	"bytes"
	"errors"
	"testing"
)

// shortReadCallback returns at most maxChunk bytes per call, forcing the
// patch job's COPY handling to retry (spec §4.8).
func shortReadCallback(data []byte, maxChunk int) CopyCallback {
	return func(_ interface{}, pos uint64, buf []byte) (int, error) {
		n := len(buf)
		if n > maxChunk {
			n = maxChunk
		}
		if pos >= uint64(len(data)) {
			return 0, errors.New("read past end of basis")
		}
		if uint64(n) > uint64(len(data))-pos {
			n = len(data) - int(pos)
		}
		copy(buf[:n], data[pos:pos+uint64(n)])
		return n, nil
	}
}

func TestPatchJob_RetriesShortCopyReads(t *testing.T) {
	basis := bytes.Repeat([]byte("abcdefghij"), 50)
	var delta []byte
	delta = appendBE32(delta, uint32(DeltaMagic))
	delta = encodeCopy(delta, 10, uint64(len(basis)-10))
	delta = encodeEnd(delta)

	job, err := NewPatchJob(shortReadCallback(basis, 3), nil)
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if err := JobDrive(job, sliceFiller(delta), bufDrainer(&out)); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out.Bytes(), basis[10:]) {
		t.Errorf("reconstructed mismatch with a short-read callback")
	}
}

func TestPatchJob_CopyCallbackError(t *testing.T) {
	var delta []byte
	delta = appendBE32(delta, uint32(DeltaMagic))
	delta = encodeCopy(delta, 0, 10)
	delta = encodeEnd(delta)

	boom := errors.New("basis unavailable")
	cb := func(_ interface{}, pos uint64, buf []byte) (int, error) { return 0, boom }
	job, err := NewPatchJob(cb, nil)
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	err = JobDrive(job, sliceFiller(delta), bufDrainer(&out))
	if err == nil {
		t.Fatal("expected the copy callback's error to surface")
	}
	rerr, ok := err.(*Error)
	if !ok || rerr.Result != ResultIOError {
		t.Errorf("got error %v, want ResultIOError", err)
	}
}

func TestPatchJob_LiteralPassthrough(t *testing.T) {
	payload := []byte("hello, literal world")
	var delta []byte
	delta = appendBE32(delta, uint32(DeltaMagic))
	delta = encodeLiteral(delta, uint64(len(payload)))
	delta = append(delta, payload...)
	delta = encodeEnd(delta)

	job, err := NewPatchJob(func(_ interface{}, pos uint64, buf []byte) (int, error) {
		t.Fatal("copy callback should never be invoked for a pure-literal delta")
		return 0, nil
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if err := JobDrive(job, sliceFiller(delta), bufDrainer(&out)); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out.Bytes(), payload) {
		t.Errorf("got %q, want %q", out.Bytes(), payload)
	}
}

func TestNewPatchJob_NilCallback(t *testing.T) {
	if _, err := NewPatchJob(nil, nil); err == nil {
		t.Fatal("expected an error for a nil copy callback")
	}
}
