// Package group wraps github.com/gtank/ristretto255, Veil's concrete
// instantiation of the abstract prime-order group every protocol in this
// repository is built over. Scalar and Point enforce Veil's invariants
// (non-zero scalars, non-identity points, canonical encodings only) at the
// type boundary, so the rest of the tree never has to re-check them.
package group

import (
	"crypto/subtle"
	"errors"
	"io"

	"github.com/gtank/ristretto255"

	"github.com/veilcrypt/veil/internal/zero"
)

// ScalarLen and PointLen are the canonical encoded lengths, in bytes, of a
// Scalar and a Point respectively.
const (
	ScalarLen = 32
	PointLen  = 32
)

// ErrInvalidEncoding is returned when a byte string is not a canonical,
// non-degenerate encoding of a Scalar or Point.
var ErrInvalidEncoding = errors.New("group: invalid encoding")

// Scalar is a non-zero element of the scalar field.
type Scalar struct {
	s *ristretto255.Scalar
}

// RandomScalar derives a non-zero Scalar by reducing 64 bytes read from rng.
// Uniform 64-byte input reduces to a statistically-indistinguishable-from-
// uniform scalar (ristretto255's wide reduction); the near-zero chance of a
// zero result is rejection-sampled away.
func RandomScalar(rng io.Reader) (*Scalar, error) {
	var buf [64]byte
	for {
		if _, err := io.ReadFull(rng, buf[:]); err != nil {
			return nil, err
		}
		s := ristretto255.NewScalar().SetUniformBytes(buf[:])
		zero.Bytes(buf[:])
		if s.Equal(ristretto255.NewScalar()) != 1 {
			return &Scalar{s: s}, nil
		}
	}
}

// ScalarFromUniformBytes reduces 64 bytes of uniform randomness (e.g. output
// of duplex.SqueezeScalar) into a Scalar. It does not reject zero; callers
// deriving a scalar this way accept the negligible-probability degenerate
// case as spec'd.
func ScalarFromUniformBytes(b []byte) *Scalar {
	return &Scalar{s: ristretto255.NewScalar().SetUniformBytes(b)}
}

// DecodeScalar parses the canonical 32-byte encoding of a non-zero scalar.
func DecodeScalar(b []byte) (*Scalar, error) {
	if len(b) != ScalarLen {
		return nil, ErrInvalidEncoding
	}
	s := ristretto255.NewScalar()
	if _, err := s.SetCanonicalBytes(b); err != nil {
		return nil, ErrInvalidEncoding
	}
	if s.Equal(ristretto255.NewScalar()) == 1 {
		return nil, ErrInvalidEncoding
	}
	return &Scalar{s: s}, nil
}

// Bytes returns the canonical 32-byte encoding of s.
func (s *Scalar) Bytes() []byte {
	return s.s.Bytes()
}

// Add returns s + other.
func (s *Scalar) Add(other *Scalar) *Scalar {
	return &Scalar{s: ristretto255.NewScalar().Add(s.s, other.s)}
}

// Multiply returns s * other.
func (s *Scalar) Multiply(other *Scalar) *Scalar {
	return &Scalar{s: ristretto255.NewScalar().Multiply(s.s, other.s)}
}

// Negate returns -s.
func (s *Scalar) Negate() *Scalar {
	return &Scalar{s: ristretto255.NewScalar().Negate(s.s)}
}

// Invert returns s^-1. The caller must ensure s is non-zero (all Scalar
// values produced by this package are).
func (s *Scalar) Invert() *Scalar {
	return &Scalar{s: ristretto255.NewScalar().Invert(s.s)}
}

// Equal reports, in constant time, whether s and other encode the same
// value.
func (s *Scalar) Equal(other *Scalar) bool {
	return s.s.Equal(other.s) == 1
}

// ScalarBaseMult returns s*G, the public point corresponding to scalar s.
func (s *Scalar) ScalarBaseMult() *Point {
	return &Point{p: ristretto255.NewIdentityElement().ScalarBaseMult(s.s)}
}

// Zero overwrites s's encoding in place. After Zero, s must not be used.
func (s *Scalar) Zero() {
	s.s.Subtract(s.s, s.s)
}

// Point is a non-identity element of the prime-order group.
type Point struct {
	p *ristretto255.Element
}

// DecodePoint parses the canonical 32-byte encoding of a non-identity point.
func DecodePoint(b []byte) (*Point, error) {
	if len(b) != PointLen {
		return nil, ErrInvalidEncoding
	}
	p := ristretto255.NewIdentityElement()
	if _, err := p.SetCanonicalBytes(b); err != nil {
		return nil, ErrInvalidEncoding
	}
	if p.Equal(ristretto255.NewIdentityElement()) == 1 {
		return nil, ErrInvalidEncoding
	}
	return &Point{p: p}, nil
}

// HashToPoint derives a point with no known discrete log relationship to any
// other point, given 64 bytes of uniform input. Used to fabricate public
// keys for fake receivers: the result is indistinguishable from a genuine
// public key, but no corresponding private scalar exists.
func HashToPoint(uniformBytes []byte) *Point {
	return &Point{p: ristretto255.NewIdentityElement().SetUniformBytes(uniformBytes)}
}

// Bytes returns the canonical 32-byte encoding of p.
func (p *Point) Bytes() []byte {
	return p.p.Bytes()
}

// Add returns p + other.
func (p *Point) Add(other *Point) *Point {
	return &Point{p: ristretto255.NewIdentityElement().Add(p.p, other.p)}
}

// ScalarMult returns s*p.
func (p *Point) ScalarMult(s *Scalar) *Point {
	return &Point{p: ristretto255.NewIdentityElement().ScalarMult(s.s, p.p)}
}

// Equal reports, in constant time, whether p and other encode the same
// point.
func (p *Point) Equal(other *Point) bool {
	return p.p.Equal(other.p) == 1
}

// MaskedBytes returns p's canonical encoding with its two structurally-fixed
// bits randomized: the top bit of the last byte (always zero, since the
// encoded field element is below 2^255) is set from bit 7 of mask, and the
// low bit of the first byte (always zero, since the encoding is
// non-negative) is set from bit 0 of mask. UnmaskPoint reverses this exactly.
//
// This is best-effort traffic obfuscation, not a cryptographic guarantee: it
// only hides the structural fact that these two bits of a valid encoding are
// always zero.
func (p *Point) MaskedBytes(mask byte) []byte {
	b := p.p.Bytes()
	b[PointLen-1] |= mask & 0x80
	b[0] |= mask & 0x01
	return b
}

// UnmaskPoint reverses MaskedBytes. The two structurally-fixed bits of a
// canonical encoding are always zero before masking, so clearing them
// unconditionally recovers the original encoding regardless of which mask
// byte was used to set them — the caller need not know it.
func UnmaskPoint(masked []byte) (*Point, error) {
	if len(masked) != PointLen {
		return nil, ErrInvalidEncoding
	}
	b := make([]byte, PointLen)
	copy(b, masked)
	b[PointLen-1] &^= 0x80
	b[0] &^= 0x01
	return DecodePoint(b)
}

// ConstantTimeEqualBytes compares two byte slices of equal length in
// constant time.
func ConstantTimeEqualBytes(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}
