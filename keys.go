package veil

import (
	"io"
	"strings"

	"github.com/mr-tron/base58"

	"github.com/veilcrypt/veil/duplex"
	"github.com/veilcrypt/veil/group"
	"github.com/veilcrypt/veil/internal/zero"
)

// SecretKeyLen is the length, in bytes, of a SecretKey's raw entropy.
const SecretKeyLen = 64

// SecretKey is a root source of Veil identities: 64 bytes of uniform
// entropy from which any number of PrivateKeys can be derived via
// hierarchical key-ID paths.
type SecretKey struct {
	seed [SecretKeyLen]byte
}

// NewSecretKey generates a random SecretKey using rng.
func NewSecretKey(rng io.Reader) (*SecretKey, error) {
	sk := &SecretKey{}
	if _, err := io.ReadFull(rng, sk.seed[:]); err != nil {
		return nil, err
	}
	return sk, nil
}

// PrivateKey derives the PrivateKey for the given hierarchical key ID (e.g.
// "/friends/bea"). An empty keyID returns the root private key.
func (sk *SecretKey) PrivateKey(keyID string) *PrivateKey {
	d := deriveRootScalar(sk.seed[:])
	out := deriveScalar(d, keyID)
	if out != d {
		defer d.Zero()
	}
	return privateKeyFromScalar(out)
}

// Zero overwrites sk's entropy in place. After Zero, sk must not be used.
func (sk *SecretKey) Zero() {
	zero.Bytes(sk.seed[:])
}

// PrivateKey is a non-zero scalar and its corresponding PublicKey, used to
// decrypt, encrypt, and sign Veil messages.
type PrivateKey struct {
	d *group.Scalar
	q *group.Point
}

// NewPrivateKey generates a random PrivateKey, independent of any SecretKey.
func NewPrivateKey(rng io.Reader) (*PrivateKey, error) {
	d, err := group.RandomScalar(rng)
	if err != nil {
		return nil, err
	}
	return privateKeyFromScalar(d), nil
}

func privateKeyFromScalar(d *group.Scalar) *PrivateKey {
	return &PrivateKey{d: d, q: d.ScalarBaseMult()}
}

// PublicKey returns the public key corresponding to sk.
func (sk *PrivateKey) PublicKey() *PublicKey {
	return &PublicKey{q: sk.q}
}

// Derive returns the PrivateKey for the given hierarchical key ID, relative
// to sk. An empty keyID returns sk itself.
func (sk *PrivateKey) Derive(keyID string) *PrivateKey {
	return privateKeyFromScalar(deriveScalar(sk.d, keyID))
}

// Zero overwrites sk's private scalar in place. After Zero, sk must not be
// used.
func (sk *PrivateKey) Zero() {
	sk.d.Zero()
}

// Equal reports whether sk and other have the same public key.
func (sk *PrivateKey) Equal(other *PrivateKey) bool {
	return sk.q.Equal(other.q)
}

// PublicKeyLen is the length, in bytes, of a PublicKey's canonical encoding.
const PublicKeyLen = group.PointLen

// PublicKey is a non-identity point, used to encrypt messages to and verify
// signatures from the corresponding PrivateKey.
type PublicKey struct {
	q *group.Point
}

// DecodePublicKey decodes the canonical 32-byte encoding of a PublicKey.
func DecodePublicKey(b []byte) (*PublicKey, error) {
	q, err := group.DecodePoint(b)
	if err != nil {
		return nil, err
	}
	return &PublicKey{q: q}, nil
}

// ParsePublicKey decodes the base58 encoding of a PublicKey, distinguishing
// a wrong-length decode from invalid base58 characters or an invalid point.
func ParsePublicKey(s string) (*PublicKey, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return nil, &ParseKeyError{Kind: InvalidEncoding, err: err}
	}
	if len(b) != PublicKeyLen {
		return nil, &ParseKeyError{Kind: InvalidLength}
	}
	pk, err := DecodePublicKey(b)
	if err != nil {
		return nil, &ParseKeyError{Kind: InvalidEncoding, err: err}
	}
	return pk, nil
}

// Bytes returns the canonical 32-byte encoding of pk.
func (pk *PublicKey) Bytes() []byte {
	return pk.q.Bytes()
}

// String returns the base58 encoding of pk.
func (pk *PublicKey) String() string {
	return base58.Encode(pk.Bytes())
}

// Derive returns the PublicKey for the given hierarchical key ID, relative
// to pk, without knowledge of any private scalar. An empty keyID returns pk
// itself.
func (pk *PublicKey) Derive(keyID string) *PublicKey {
	return &PublicKey{q: derivePoint(pk.q, keyID)}
}

// Equal reports, in constant time, whether pk and other encode the same
// point.
func (pk *PublicKey) Equal(other *PublicKey) bool {
	return pk.q.Equal(other.q)
}

// deriveRootScalar derives a root scalar from a SecretKey's seed, mirroring
// the original implementation's "veil.scaldf.root" protocol.
func deriveRootScalar(seed []byte) *group.Scalar {
	u := duplex.New("veil.scaldf.root")
	kd := u.Rekey("seed", seed)
	return group.ScalarFromUniformBytes(kd.Squeeze("scalar", 64))
}

// deriveScalar perturbs d by a delta scalar derived from each "/"-separated
// label in keyID, in order. An empty keyID returns d unchanged — the CLI's
// "root key" case (SPEC_FULL.md §9).
func deriveScalar(d *group.Scalar, keyID string) *group.Scalar {
	out := d
	for _, label := range keyIDParts(keyID) {
		out = out.Add(deriveLabelScalar(label))
	}
	return out
}

// derivePoint is deriveScalar's public-key counterpart: it perturbs q by the
// same delta scalars, multiplied onto the generator, without ever needing a
// private scalar.
func derivePoint(q *group.Point, keyID string) *group.Point {
	out := q
	for _, label := range keyIDParts(keyID) {
		out = out.Add(deriveLabelScalar(label).ScalarBaseMult())
	}
	return out
}

func deriveLabelScalar(label string) *group.Scalar {
	u := duplex.New("veil.scaldf.label")
	kd := u.Rekey("label", []byte(label))
	return group.ScalarFromUniformBytes(kd.Squeeze("scalar", 64))
}

// keyIDParts splits a key ID into its "/"-separated labels, trimming any
// leading or trailing slashes. An empty key ID has no labels.
func keyIDParts(keyID string) []string {
	trimmed := strings.Trim(keyID, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}
