package rsyncdelta

import "testing"

func buildTestSignature(t *testing.T, blockLen uint32, blocks [][]byte) *Signature {
	t.Helper()
	sig := &Signature{BlockLen: blockLen, StrongLen: 16, Magic: BLAKE2SigMagic, kind: hashBLAKE2}
	hasher := newStrongHasher(hashBLAKE2)
	var total uint64
	for i, data := range blocks {
		weak, _, _ := weakHash(data)
		hasher.reset()
		hasher.write(data)
		sig.Blocks = append(sig.Blocks, BlockHash{
			Index:  uint32(i),
			Weak:   weak,
			Strong: hasher.sum(nil, 16),
		})
		total += uint64(len(data))
	}
	sig.FileLength = total
	return sig
}

func TestSignature_BuildHashTableIdempotent(t *testing.T) {
	sig := buildTestSignature(t, 4, [][]byte{[]byte("abcd"), []byte("efgh"), []byte("ijkl")})
	if err := sig.BuildHashTable(); err != nil {
		t.Fatalf("BuildHashTable: %v", err)
	}
	weak := sig.Blocks[1].Weak
	idx1, ok1, _ := sig.Match(weak, func() []byte { return sig.Blocks[1].Strong })
	if err := sig.BuildHashTable(); err != nil {
		t.Fatalf("BuildHashTable (second call): %v", err)
	}
	idx2, ok2, _ := sig.Match(weak, func() []byte { return sig.Blocks[1].Strong })
	if ok1 != ok2 || idx1 != idx2 {
		t.Errorf("rebuilding the hash table changed matching results: (%v,%v) vs (%v,%v)", idx1, ok1, idx2, ok2)
	}
}

func TestSignature_MatchTieBreaksOnLowestIndex(t *testing.T) {
	block := []byte("aaaa")
	sig := buildTestSignature(t, 4, [][]byte{block, block, block})
	if err := sig.BuildHashTable(); err != nil {
		t.Fatal(err)
	}
	weak, _, _ := weakHash(block)
	idx, ok, _ := sig.Match(weak, func() []byte { return sig.Blocks[0].Strong })
	if !ok || idx != 0 {
		t.Errorf("Match() = (%d, %v), want (0, true)", idx, ok)
	}
}

func TestSignature_MatchReportsFalseMatchOnWeakHit(t *testing.T) {
	sig := buildTestSignature(t, 4, [][]byte{[]byte("abcd")})
	if err := sig.BuildHashTable(); err != nil {
		t.Fatal(err)
	}
	weak := sig.Blocks[0].Weak
	calls := 0
	_, ok, triedStrong := sig.Match(weak, func() []byte {
		calls++
		return []byte("not a real digest!")
	})
	if ok {
		t.Fatal("expected no match against a forged digest")
	}
	if !triedStrong {
		t.Error("expected triedStrong to be true: the weak hash did hit")
	}
	if calls != 1 {
		t.Errorf("strongSupplier invoked %d times, want exactly 1 (memoization)", calls)
	}
}

func TestSignature_MatchNoWeakHit(t *testing.T) {
	sig := buildTestSignature(t, 4, [][]byte{[]byte("abcd")})
	if err := sig.BuildHashTable(); err != nil {
		t.Fatal(err)
	}
	calls := 0
	_, ok, triedStrong := sig.Match(0xdeadbeef, func() []byte {
		calls++
		return nil
	})
	if ok || triedStrong || calls != 0 {
		t.Errorf("Match() = (ok=%v, triedStrong=%v), calls=%d; want all false/zero for a tag miss", ok, triedStrong, calls)
	}
}

func TestSignature_EnsureValid(t *testing.T) {
	sig := buildTestSignature(t, 4, [][]byte{[]byte("abcd"), []byte("efgh")})
	if err := sig.EnsureValid(); err != nil {
		t.Errorf("EnsureValid() on a well-formed signature: %v", err)
	}

	corrupt := buildTestSignature(t, 4, [][]byte{[]byte("abcd")})
	corrupt.Blocks[0].Strong = nil
	if err := corrupt.EnsureValid(); err == nil {
		t.Error("expected an error for a block with an empty strong digest")
	}
}

func TestSignature_LastBlockLen(t *testing.T) {
	sig := buildTestSignature(t, 4, [][]byte{[]byte("abcd"), []byte("ef")})
	if got := sig.lastBlockLen(); got != 2 {
		t.Errorf("lastBlockLen() = %d, want 2", got)
	}
}
