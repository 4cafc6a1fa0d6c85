package veil

import (
	"bytes"
	"crypto/rand"
	"strings"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	alice, err := NewPrivateKey(rand.Reader)
	if err != nil {
		t.Fatalf("NewPrivateKey: %v", err)
	}
	bea, err := NewPrivateKey(rand.Reader)
	if err != nil {
		t.Fatalf("NewPrivateKey: %v", err)
	}

	plaintext := []byte("this is a secret message")
	var ciphertext bytes.Buffer
	if _, err := alice.Encrypt(rand.Reader, bytes.NewReader(plaintext), &ciphertext, []*PublicKey{bea.PublicKey()}, WithFakes(5), WithPadding(20)); err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	var recovered bytes.Buffer
	if _, err := bea.Decrypt(bytes.NewReader(ciphertext.Bytes()), &recovered, alice.PublicKey()); err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(recovered.Bytes(), plaintext) {
		t.Fatal("recovered plaintext does not match")
	}
}

func TestDecryptWrongSenderFails(t *testing.T) {
	alice, _ := NewPrivateKey(rand.Reader)
	bea, _ := NewPrivateKey(rand.Reader)
	impostor, _ := NewPrivateKey(rand.Reader)

	var ciphertext bytes.Buffer
	if _, err := alice.Encrypt(rand.Reader, strings.NewReader("hello"), &ciphertext, []*PublicKey{bea.PublicKey()}); err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	var recovered bytes.Buffer
	if _, err := bea.Decrypt(bytes.NewReader(ciphertext.Bytes()), &recovered, impostor.PublicKey()); err == nil {
		t.Fatal("expected error decrypting with the wrong sender key")
	}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	sk, err := NewPrivateKey(rand.Reader)
	if err != nil {
		t.Fatalf("NewPrivateKey: %v", err)
	}

	sig, err := sk.Sign(rand.Reader, strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if err := sk.PublicKey().Verify(strings.NewReader("hello"), sig); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if err := sk.PublicKey().Verify(strings.NewReader("Hello"), sig); err == nil {
		t.Fatal("expected verification failure on modified message")
	}
}

func TestStoreLoadRoundTrip(t *testing.T) {
	sk, err := NewPrivateKey(rand.Reader)
	if err != nil {
		t.Fatalf("NewPrivateKey: %v", err)
	}

	var blob bytes.Buffer
	if err := sk.Store(&blob, rand.Reader, "correct horse battery staple", 2, 2); err != nil {
		t.Fatalf("Store: %v", err)
	}

	loaded, err := LoadPrivateKey(bytes.NewReader(blob.Bytes()), "correct horse battery staple")
	if err != nil {
		t.Fatalf("LoadPrivateKey: %v", err)
	}
	if !sk.Equal(loaded) {
		t.Fatal("loaded private key does not match the original")
	}
}

func TestLoadWrongPassphraseFails(t *testing.T) {
	sk, err := NewPrivateKey(rand.Reader)
	if err != nil {
		t.Fatalf("NewPrivateKey: %v", err)
	}

	var blob bytes.Buffer
	if err := sk.Store(&blob, rand.Reader, "right passphrase", 2, 2); err != nil {
		t.Fatalf("Store: %v", err)
	}

	if _, err := LoadPrivateKey(bytes.NewReader(blob.Bytes()), "wrong passphrase"); err == nil {
		t.Fatal("expected error loading with the wrong passphrase")
	}
}

func TestPublicKeyStringRoundTrip(t *testing.T) {
	sk, err := NewPrivateKey(rand.Reader)
	if err != nil {
		t.Fatalf("NewPrivateKey: %v", err)
	}
	pk := sk.PublicKey()

	s := pk.String()
	if strings.ContainsAny(s, "0OIl") {
		t.Fatalf("base58 encoding contains excluded characters: %q", s)
	}

	decoded, err := ParsePublicKey(s)
	if err != nil {
		t.Fatalf("ParsePublicKey: %v", err)
	}
	if !pk.Equal(decoded) {
		t.Fatal("decoded public key does not match original")
	}
}

func TestParsePublicKeyInvalidLength(t *testing.T) {
	if _, err := ParsePublicKey("abc"); err == nil {
		t.Fatal("expected error parsing a too-short public key")
	}
}

func TestParsePublicKeyInvalidEncoding(t *testing.T) {
	if _, err := ParsePublicKey("woot woot"); err == nil {
		t.Fatal("expected error parsing an invalid base58 public key")
	}
}

func TestKeyDerivationMatchesAcrossSecretAndPrivateKey(t *testing.T) {
	sk, err := NewSecretKey(rand.Reader)
	if err != nil {
		t.Fatalf("NewSecretKey: %v", err)
	}

	alice := sk.PrivateKey("/friends/bea")
	same := sk.PrivateKey("friends/bea")
	if !alice.Equal(same) {
		t.Fatal("leading slash should not change the derived key")
	}

	other := sk.PrivateKey("/friends/carl")
	if alice.Equal(other) {
		t.Fatal("different key IDs should derive different keys")
	}
}

func TestDerivedPublicKeyMatchesDerivedPrivateKey(t *testing.T) {
	sk, err := NewPrivateKey(rand.Reader)
	if err != nil {
		t.Fatalf("NewPrivateKey: %v", err)
	}

	derivedPriv := sk.Derive("/a/b/c")
	derivedPub := sk.PublicKey().Derive("/a/b/c")
	if !derivedPriv.PublicKey().Equal(derivedPub) {
		t.Fatal("public-only derivation does not match private derivation")
	}
}

func TestEmptyKeyIDIsIdentity(t *testing.T) {
	sk, err := NewPrivateKey(rand.Reader)
	if err != nil {
		t.Fatalf("NewPrivateKey: %v", err)
	}
	if !sk.Equal(sk.Derive("")) {
		t.Fatal("deriving with an empty key ID should return the same key")
	}
}

func TestDigestRoundTrip(t *testing.T) {
	d, err := NewDigest([]string{"a", "b"}, strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("NewDigest: %v", err)
	}
	same, err := NewDigest([]string{"a", "b"}, strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("NewDigest: %v", err)
	}
	if !d.Equal(same) {
		t.Fatal("identical metadata and message should produce identical digests")
	}

	different, err := NewDigest([]string{"a", "c"}, strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("NewDigest: %v", err)
	}
	if d.Equal(different) {
		t.Fatal("different metadata should produce different digests")
	}

	decoded, err := ParseDigest(d.String())
	if err != nil {
		t.Fatalf("ParseDigest: %v", err)
	}
	if !d.Equal(decoded) {
		t.Fatal("decoded digest does not match original")
	}
}

func TestParseDigestInvalidLength(t *testing.T) {
	if _, err := ParseDigest("abc"); err == nil {
		t.Fatal("expected error parsing a too-short digest")
	}
}
