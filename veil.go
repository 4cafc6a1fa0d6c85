package veil

import (
	"encoding/binary"
	"io"

	"github.com/veilcrypt/veil/group"
	"github.com/veilcrypt/veil/internal/zero"
	"github.com/veilcrypt/veil/mres"
	"github.com/veilcrypt/veil/pbenc"
	"github.com/veilcrypt/veil/schnorr"
	"github.com/veilcrypt/veil/sres"
)

// Signature is a detached Schnorr signature. It is schnorr.Signature under
// an alias, so the base58 codec and its error type live in one place.
type Signature = schnorr.Signature

// ParseSignatureError is returned by ParseSignature.
type ParseSignatureError = schnorr.ParseError

// ParseSignature decodes the base58 encoding of a Signature.
func ParseSignature(s string) (Signature, error) {
	return schnorr.ParseSignature(s)
}

// EncryptOption configures an Encrypt call.
type EncryptOption func(*encryptOptions)

type encryptOptions struct {
	fakes   int
	padding uint64
}

// WithFakes adds n indistinguishable fake receivers, placed at random
// positions among the real receivers, to obscure the true receiver count
// from the receivers themselves.
func WithFakes(n int) EncryptOption {
	return func(o *encryptOptions) {
		o.fakes = n
	}
}

// WithPadding adds p bytes of random padding after the header region, to
// obscure the true receiver count (alongside WithFakes) from a passive
// observer who can count header-sized chunks but not decrypt them.
func WithPadding(p uint64) EncryptOption {
	return func(o *encryptOptions) {
		o.padding = p
	}
}

// Encrypt encrypts plaintext for receivers (plus any WithFakes fake
// receivers), writing the resulting ciphertext to ciphertext. It returns the
// number of bytes written.
func (sk *PrivateKey) Encrypt(rng io.Reader, plaintext io.Reader, ciphertext io.Writer, receivers []*PublicKey, opts ...EncryptOption) (int64, error) {
	var o encryptOptions
	for _, fn := range opts {
		fn(&o)
	}

	pts := make([]*group.Point, 0, len(receivers)+o.fakes)
	for _, r := range receivers {
		pts = append(pts, r.q)
	}
	for i := 0; i < o.fakes; i++ {
		fake, err := randomFakePoint(rng)
		if err != nil {
			return 0, err
		}
		pts = append(pts, fake)
	}
	if err := shufflePoints(rng, pts); err != nil {
		return 0, err
	}

	sender := &sres.KeyPair{D: sk.d, Q: sk.q}
	return mres.Encrypt(rng, sender, pts, o.padding, plaintext, ciphertext)
}

// Decrypt decrypts ciphertext, verifying it was sent by sender, and writes
// the plaintext to plaintext. It returns the number of plaintext bytes
// written. On any failure it returns ErrInvalidCiphertext.
func (sk *PrivateKey) Decrypt(ciphertext io.Reader, plaintext io.Writer, sender *PublicKey) (int64, error) {
	receiver := &sres.KeyPair{D: sk.d, Q: sk.q}
	n, err := mres.Decrypt(receiver, sender.q, ciphertext, plaintext)
	if err != nil {
		return n, ErrInvalidCiphertext
	}
	return n, nil
}

// Sign signs message with sk, opening a fresh transcript.
func (sk *PrivateKey) Sign(rng io.Reader, message io.Reader) (Signature, error) {
	return schnorr.Sign(rng, sk.d, sk.q, message)
}

// Verify checks sig against message under pk. It returns ErrInvalidSignature
// on any mismatch.
func (pk *PublicKey) Verify(message io.Reader, sig Signature) error {
	if err := schnorr.Verify(pk.q, message, sig); err != nil {
		return ErrInvalidSignature
	}
	return nil
}

// Store encrypts sk's private scalar under passphrase (via pbenc, with the
// given balloon-hashing cost parameters) and writes the resulting blob to w.
// The salt is drawn from crypto/rand.Reader; rng is not used.
func (sk *PrivateKey) Store(w io.Writer, rng io.Reader, passphrase string, time, space uint32) error {
	d := sk.d.Bytes()
	defer zero.Bytes(d)

	ct, err := pbenc.Encrypt(passphrase, time, space, d)
	if err != nil {
		return err
	}
	_, err = w.Write(ct)
	return err
}

// LoadPrivateKey decrypts a private-key blob produced by Store, using
// passphrase. It returns ErrInvalidCiphertext if the passphrase is wrong or
// the blob is corrupt.
func LoadPrivateKey(r io.Reader, passphrase string) (*PrivateKey, error) {
	ct, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	pt, err := pbenc.Decrypt(passphrase, ct)
	if err != nil {
		return nil, ErrInvalidCiphertext
	}
	defer zero.Bytes(pt)

	d, err := group.DecodeScalar(pt)
	if err != nil {
		return nil, ErrInvalidCiphertext
	}
	return privateKeyFromScalar(d), nil
}

// randomFakePoint fabricates a public key for which no private key is
// known, by hashing 64 bytes of rng output onto the curve.
func randomFakePoint(rng io.Reader) (*group.Point, error) {
	var uniform [64]byte
	if _, err := io.ReadFull(rng, uniform[:]); err != nil {
		return nil, err
	}
	return group.HashToPoint(uniform[:]), nil
}

// shufflePoints performs an in-place Fisher-Yates shuffle of pts using rng,
// so fake receivers (appended after the real ones) land at indistinguishable
// positions in the header region.
func shufflePoints(rng io.Reader, pts []*group.Point) error {
	for i := len(pts) - 1; i > 0; i-- {
		j, err := randIntn(rng, i+1)
		if err != nil {
			return err
		}
		pts[i], pts[j] = pts[j], pts[i]
	}
	return nil
}

func randIntn(rng io.Reader, n int) (int, error) {
	var buf [8]byte
	if _, err := io.ReadFull(rng, buf[:]); err != nil {
		return 0, err
	}
	return int(binary.LittleEndian.Uint64(buf[:]) % uint64(n)), nil
}
