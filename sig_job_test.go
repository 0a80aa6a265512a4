package rsyncdelta

import "testing"

func TestNewSignatureJob_ParamValidation(t *testing.T) {
	if _, err := NewSignatureJob(16, 0, MagicNumber(0xdeadbeef)); err == nil {
		t.Error("expected an error for an unrecognized magic number")
	}
	if _, err := NewSignatureJob(16, MaxStrongLen+1, BLAKE2SigMagic); err == nil {
		t.Error("expected an error for a strong length above MaxStrongLen")
	}
}

func TestNewSignatureJob_DefaultMagic(t *testing.T) {
	job, err := NewSignatureJob(16, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if job.sig.kind != hashBLAKE2 {
		t.Errorf("default magic selected kind %v, want hashBLAKE2", job.sig.kind)
	}
}

func TestNewSignatureJob_MD4Magic(t *testing.T) {
	data := []byte("some basis content for MD4 hashing")
	job, err := NewSignatureJob(8, 0, MD4SigMagic)
	if err != nil {
		t.Fatal(err)
	}
	sigBytes := makeSignatureWithJob(t, job, data)
	if MagicNumber(be32(sigBytes[:4])) != MD4SigMagic {
		t.Errorf("signature header magic = %#x, want MD4SigMagic", be32(sigBytes[:4]))
	}
}

func makeSignatureWithJob(t *testing.T, job *Job, data []byte) []byte {
	t.Helper()
	var out []byte
	drain := func(p []byte) error {
		out = append(out, p...)
		return nil
	}
	if err := JobDrive(job, sliceFiller(data), drain); err != nil {
		t.Fatal(err)
	}
	return out
}
