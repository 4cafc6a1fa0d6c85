package duplex

import (
	"bytes"
	"strings"
	"testing"
)

func TestSealUnsealRoundTrip(t *testing.T) {
	kd := New("test").Rekey("key", []byte("a key"))
	sealed := kd.Seal("msg", []byte("hello world"))

	kd2 := New("test").Rekey("key", []byte("a key"))
	pt, ok := kd2.Unseal("msg", sealed)
	if !ok {
		t.Fatal("Unseal failed on an untampered ciphertext")
	}
	if !bytes.Equal(pt, []byte("hello world")) {
		t.Fatalf("got %q, want %q", pt, "hello world")
	}
}

func TestUnsealRejectsTampering(t *testing.T) {
	kd := New("test").Rekey("key", []byte("a key"))
	sealed := kd.Seal("msg", []byte("hello world"))

	for i := range sealed {
		tampered := append([]byte(nil), sealed...)
		tampered[i] ^= 0x01

		kd2 := New("test").Rekey("key", []byte("a key"))
		if _, ok := kd2.Unseal("msg", tampered); ok {
			t.Fatalf("Unseal accepted a ciphertext tampered at byte %d", i)
		}
	}
}

func TestUnsealRejectsShortInput(t *testing.T) {
	kd := New("test").Rekey("key", []byte("a key"))
	if _, ok := kd.Unseal("msg", []byte("short")); ok {
		t.Fatal("Unseal accepted an input shorter than the tag")
	}
}

func TestRatchetChangesOutput(t *testing.T) {
	kd := New("test").Rekey("key", []byte("a key"))
	before := kd.Squeeze("out", 32)
	kd.Ratchet("step")
	after := kd.Squeeze("out", 32)
	if bytes.Equal(before, after) {
		t.Fatal("Ratchet did not change subsequent squeeze output")
	}
}

func TestRekeyChangesOutput(t *testing.T) {
	kd := New("test").Rekey("key", []byte("first"))
	a := kd.Squeeze("out", 32)

	kd2 := New("test").Rekey("key", []byte("second"))
	b := kd2.Squeeze("out", 32)

	if bytes.Equal(a, b) {
		t.Fatal("different rekey material produced identical output")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	u := New("test")
	u.Absorb("a", []byte("shared"))

	clone := u.Clone()
	clone.Absorb("b", []byte("only in clone"))

	original := u.Squeeze("out", 32)
	cloned := clone.Squeeze("out", 32)
	if bytes.Equal(original, cloned) {
		t.Fatal("mutating a clone affected the original duplex")
	}
}

func TestHedgeDoesNotMutateOriginal(t *testing.T) {
	u := New("test")
	before := u.Clone().Squeeze("probe", 32)

	_, err := Hedge(u, strings.NewReader(strings.Repeat("x", 64)), []byte("secret"), func(c *UnkeyedDuplex) struct{} {
		c.Absorb("more", []byte("stuff"))
		return struct{}{}
	})
	if err != nil {
		t.Fatalf("Hedge: %v", err)
	}

	after := u.Squeeze("probe", 32)
	if !bytes.Equal(before, after) {
		t.Fatal("Hedge mutated the original duplex")
	}
}

func TestHedgeIsDeterministicGivenSameInputs(t *testing.T) {
	run := func() []byte {
		u := New("test")
		out, err := Hedge(u, strings.NewReader(strings.Repeat("x", 64)), []byte("secret"), func(c *UnkeyedDuplex) []byte {
			return c.Squeeze("out", 32)
		})
		if err != nil {
			t.Fatalf("Hedge: %v", err)
		}
		return out
	}
	a, b := run(), run()
	if !bytes.Equal(a, b) {
		t.Fatal("Hedge produced different output for identical secret and rng bytes")
	}
}

func TestHedgeKeyedDoesNotMutateOriginal(t *testing.T) {
	kd := New("test").Rekey("key", []byte("a key"))
	before := kd.Clone().Squeeze("probe", 32)

	_, err := HedgeKeyed(kd, strings.NewReader(strings.Repeat("y", 64)), []byte("secret"), func(c *KeyedDuplex) struct{} {
		c.Ratchet("step")
		return struct{}{}
	})
	if err != nil {
		t.Fatalf("HedgeKeyed: %v", err)
	}

	after := kd.Squeeze("probe", 32)
	if !bytes.Equal(before, after) {
		t.Fatal("HedgeKeyed mutated the original duplex")
	}
}

func TestStreamWriterAbsorbsEquivalentlyToAbsorbReader(t *testing.T) {
	payload := []byte("a streamed header region, absorbed as it is written")

	direct := New("test")
	if err := direct.AbsorbReader("region", bytes.NewReader(payload)); err != nil {
		t.Fatalf("AbsorbReader: %v", err)
	}
	wantOut := direct.Squeeze("out", 32)

	u := New("test")
	var sink bytes.Buffer
	sw := NewStreamWriter(u, "region", &sink)
	if _, err := sw.Write(payload[:10]); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := sw.Write(payload[10:]); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := sw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if !bytes.Equal(sink.Bytes(), payload) {
		t.Fatal("StreamWriter did not forward all bytes to the inner writer")
	}
	if sw.N() != int64(len(payload)) {
		t.Fatalf("N() = %d, want %d", sw.N(), len(payload))
	}

	gotOut := u.Squeeze("out", 32)
	if !bytes.Equal(gotOut, wantOut) {
		t.Fatal("streaming the payload in chunks absorbed differently than a single AbsorbReader call")
	}
}

func TestIntoKeyedTransitionsDeterministically(t *testing.T) {
	a := New("test").IntoKeyed()
	b := New("test").IntoKeyed()
	if !bytes.Equal(a.Squeeze("out", 32), b.Squeeze("out", 32)) {
		t.Fatal("IntoKeyed from identical unkeyed state produced different keyed output")
	}
}
