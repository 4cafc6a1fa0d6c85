package sres

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/veilcrypt/veil/duplex"
	"github.com/veilcrypt/veil/group"
)

func randKeyPair(t *testing.T) *KeyPair {
	t.Helper()
	d, err := group.RandomScalar(rand.Reader)
	if err != nil {
		t.Fatalf("RandomScalar: %v", err)
	}
	return &KeyPair{D: d, Q: d.ScalarBaseMult()}
}

func setup(t *testing.T) (sender, receiver, ephemeral *KeyPair, nonce, plaintext, ciphertext []byte) {
	t.Helper()
	sender = randKeyPair(t)
	receiver = randKeyPair(t)
	ephemeral = randKeyPair(t)
	nonce = make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	plaintext = make([]byte, 64)
	if _, err := rand.Read(plaintext); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	ct, err := Encrypt(rand.Reader, sender, ephemeral, receiver.Q, nonce, plaintext)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	return sender, receiver, ephemeral, nonce, plaintext, ct
}

func TestRoundTrip(t *testing.T) {
	sender, receiver, ephemeral, nonce, plaintext, ciphertext := setup(t)

	qE, pt, err := Decrypt(receiver, sender.Q, nonce, ciphertext)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !qE.Equal(ephemeral.Q) {
		t.Fatal("recovered ephemeral public key does not match")
	}
	if !bytes.Equal(pt, plaintext) {
		t.Fatal("recovered plaintext does not match")
	}
}

func TestWrongReceiver(t *testing.T) {
	sender, _, _, nonce, _, ciphertext := setup(t)

	wrong := randKeyPair(t)
	if _, _, err := Decrypt(wrong, sender.Q, nonce, ciphertext); err == nil {
		t.Fatal("expected error decrypting with the wrong receiver key")
	}
}

func TestWrongSender(t *testing.T) {
	_, receiver, _, nonce, _, ciphertext := setup(t)

	wrong := randKeyPair(t)
	if _, _, err := Decrypt(receiver, wrong.Q, nonce, ciphertext); err == nil {
		t.Fatal("expected error decrypting with the wrong sender key")
	}
}

func TestWrongNonce(t *testing.T) {
	sender, receiver, _, _, _, ciphertext := setup(t)

	wrongNonce := make([]byte, 16)
	if _, err := rand.Read(wrongNonce); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	if _, _, err := Decrypt(receiver, sender.Q, wrongNonce, ciphertext); err == nil {
		t.Fatal("expected error decrypting with the wrong nonce")
	}
}

func TestFlipEveryBit(t *testing.T) {
	sender, receiver, _, nonce, _, ciphertext := setup(t)

	for i := range ciphertext {
		for j := 0; j < 8; j++ {
			corrupt := append([]byte(nil), ciphertext...)
			corrupt[i] ^= 1 << uint(j)
			if _, _, err := Decrypt(receiver, sender.Q, nonce, corrupt); err == nil {
				t.Fatalf("bit flip at byte %d, bit %d produced a valid message", i, j)
			}
		}
	}
}

// TestForgedCommitmentRejected builds a ciphertext the long way, substituting
// a forged commitment point for the real hedge-derived one. The forger picks
// a claimed proof scalar and guesses the challenge scalar the transcript will
// produce, then solves for a commitment point that would cancel the r*Q_S
// term for that guess. The guess can never match the challenge scalar
// actually derived from the transcript, because that scalar is squeezed only
// after the forged commitment point's ciphertext bytes are fixed in it, so
// Decrypt must reject the result.
func TestForgedCommitmentRejected(t *testing.T) {
	sender := randKeyPair(t)
	receiver := randKeyPair(t)
	ephemeral := randKeyPair(t)
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	plaintext := make([]byte, 32)
	if _, err := rand.Read(plaintext); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}

	d := duplex.New("veil.sres")
	d.Absorb("sender", sender.Q.Bytes())
	d.Absorb("receiver", receiver.Q.Bytes())
	d.Absorb("nonce", nonce)
	d.Absorb("static-ecdh", receiver.Q.ScalarMult(sender.D).Bytes())

	kd := d.IntoKeyed()

	qEEnc := kd.Encrypt("ephemeral-key", append([]byte(nil), ephemeral.Q.Bytes()...))
	kd.Absorb("ephemeral-ecdh", receiver.Q.ScalarMult(ephemeral.D).Bytes())
	msgCt := kd.Encrypt("message", append([]byte(nil), plaintext...))

	xFake, err := group.RandomScalar(rand.Reader)
	if err != nil {
		t.Fatalf("RandomScalar: %v", err)
	}
	rGuess, err := group.RandomScalar(rand.Reader)
	if err != nil {
		t.Fatalf("RandomScalar: %v", err)
	}
	forgedI := xFake.ScalarBaseMult().Add(sender.Q.ScalarMult(rGuess.Negate()))
	iEnc := kd.Encrypt("commitment-point", append([]byte(nil), forgedI.Bytes()...))

	rActual := group.ScalarFromUniformBytes(kd.SqueezeScalar("challenge-scalar"))
	if rActual.Equal(rGuess) {
		t.Fatal("guessed challenge scalar coincidentally matched the real one; rerun")
	}

	forgedX := receiver.Q.ScalarMult(xFake)
	xEnc := kd.Encrypt("proof-point", append([]byte(nil), forgedX.Bytes()...))

	ciphertext := make([]byte, 0, group.PointLen+len(plaintext)+2*group.PointLen)
	ciphertext = append(ciphertext, qEEnc...)
	ciphertext = append(ciphertext, msgCt...)
	ciphertext = append(ciphertext, iEnc...)
	ciphertext = append(ciphertext, xEnc...)

	if _, _, err := Decrypt(receiver, sender.Q, nonce, ciphertext); err == nil {
		t.Fatal("Decrypt accepted a commitment point forged against a guessed challenge scalar")
	}
}

func TestShortCiphertextRejected(t *testing.T) {
	sender, receiver, _, nonce, _, _ := setup(t)
	if _, _, err := Decrypt(receiver, sender.Q, nonce, make([]byte, Overhead-1)); err == nil {
		t.Fatal("expected error decrypting a too-short ciphertext")
	}
}
