// Package schnorr implements Veil's Schnorr-variant digital signatures,
// either standalone (Sign/Verify, each opening its own transcript) or bound
// to a caller-supplied transcript (SignDuplex/VerifyDuplex, used by mres to
// sign the tail of a streamed message using the same duplex that encrypted
// its body).
//
// A signature optionally binds to a designated verifier: when signed with a
// verifier's public key, only the holder of that verifier's private key can
// confirm the signature is valid, and no one else — not even other
// possessors of the signer's public key — can.
package schnorr

import (
	"bytes"
	"errors"
	"io"

	"github.com/mr-tron/base58"

	"github.com/veilcrypt/veil/duplex"
	"github.com/veilcrypt/veil/group"
)

// Len is the length, in bytes, of an encoded Signature.
const Len = group.PointLen + group.ScalarLen

// ErrInvalidSignature is returned by Verify/VerifyDuplex when a signature
// fails to check, for any reason.
var ErrInvalidSignature = errors.New("schnorr: invalid signature")

// A Signature is a fixed-size, opaque proof of authorship.
type Signature [Len]byte

// String returns the base58 encoding of sig.
func (sig Signature) String() string {
	return base58.Encode(sig[:])
}

// ParseSignature decodes the base58 encoding of a Signature, distinguishing
// a wrong-length decode from invalid base58 characters.
func ParseSignature(s string) (Signature, error) {
	var sig Signature
	b, err := base58.Decode(s)
	if err != nil {
		return sig, &ParseError{Kind: InvalidEncoding, err: err}
	}
	if len(b) != Len {
		return sig, &ParseError{Kind: InvalidLength}
	}
	copy(sig[:], b)
	return sig, nil
}

// ErrorKind distinguishes why a Signature failed to parse.
type ErrorKind int

const (
	// InvalidLength means the decoded bytes were not exactly Len long.
	InvalidLength ErrorKind = iota
	// InvalidEncoding means the string was not valid base58.
	InvalidEncoding
)

// ParseError is returned by ParseSignature.
type ParseError struct {
	Kind ErrorKind
	err  error
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case InvalidLength:
		return "schnorr: invalid signature length"
	default:
		return "schnorr: invalid base58 encoding: " + e.err.Error()
	}
}

func (e *ParseError) Unwrap() error {
	return e.err
}

// Sign signs message using key pair (d, q), opening a fresh transcript.
func Sign(rng io.Reader, d *group.Scalar, q *group.Point, message io.Reader) (Signature, error) {
	u := duplex.New("veil.schnorr")
	u.Absorb("signer", q.Bytes())
	if err := u.AbsorbReader("message", message); err != nil {
		return Signature{}, err
	}
	kd := u.IntoKeyed()
	return SignDuplex(kd, rng, d, nil)
}

// Verify checks a signature of message under public key q, opening a fresh
// transcript identical to the one Sign used.
func Verify(q *group.Point, message io.Reader, sig Signature) error {
	u := duplex.New("veil.schnorr")
	u.Absorb("signer", q.Bytes())
	if err := u.AbsorbReader("message", message); err != nil {
		return err
	}
	kd := u.IntoKeyed()
	return VerifyDuplex(kd, q, nil, sig)
}

// SignDuplex signs the current state of duplex using private key d. If qV is
// non-nil, the resulting signature is a designated-verifier proof that only
// the holder of qV's corresponding private key can verify. duplex's state is
// advanced to reflect the successful signing attempt (prior failed retries,
// which occur only in the astronomically rare case of a zero proof scalar,
// leave no trace).
func SignDuplex(d *duplex.KeyedDuplex, rng io.Reader, signer *group.Scalar, qV *group.Point) (Signature, error) {
	for {
		clone := d.Clone()

		k, err := duplex.HedgeKeyed(clone, rng, signer.Bytes(), func(c *duplex.KeyedDuplex) *group.Scalar {
			return group.ScalarFromUniformBytes(c.SqueezeScalar("commitment-scalar"))
		})
		if err != nil {
			return Signature{}, err
		}

		i := k.ScalarBaseMult()
		var sig Signature
		iCt := clone.Encrypt("commitment-point", append([]byte(nil), i.Bytes()...))
		copy(sig[:group.PointLen], iCt)

		r := group.ScalarFromUniformBytes(clone.SqueezeScalar("challenge-scalar"))

		s := signer.Multiply(r).Add(k)
		if zeroScalar.Equal(s) {
			continue
		}

		var proof []byte
		if qV != nil {
			proof = qV.ScalarMult(s).Bytes()
		} else {
			proof = s.Bytes()
		}
		proofCt := clone.Encrypt("proof-scalar", proof)
		copy(sig[group.PointLen:], proofCt)

		*d = *clone
		return sig, nil
	}
}

// VerifyDuplex checks a signature of the current state of duplex under
// public key q. If dV is non-nil, the signature is checked as a
// designated-verifier proof using dV's private scalar; otherwise it is
// checked as a publicly-verifiable proof.
func VerifyDuplex(d *duplex.KeyedDuplex, q *group.Point, dV *group.Scalar, sig Signature) error {
	iBytes := d.Decrypt("commitment-point", append([]byte(nil), sig[:group.PointLen]...))
	i, err := group.DecodePoint(iBytes)
	if err != nil {
		return ErrInvalidSignature
	}

	r := group.ScalarFromUniformBytes(d.SqueezeScalar("challenge-scalar"))

	proofBytes := d.Decrypt("proof-scalar", append([]byte(nil), sig[group.PointLen:]...))

	if dV != nil {
		xPrime := i.Add(q.ScalarMult(r)).ScalarMult(dV)
		if !group.ConstantTimeEqualBytes(proofBytes, xPrime.Bytes()) {
			return ErrInvalidSignature
		}
		return nil
	}

	s, err := group.DecodeScalar(proofBytes)
	if err != nil {
		return ErrInvalidSignature
	}
	// I == [s]G - [r]Q, i.e. [s]G == I + [r]Q.
	lhs := s.ScalarBaseMult()
	rhs := i.Add(q.ScalarMult(r))
	if !bytes.Equal(lhs.Bytes(), rhs.Bytes()) {
		return ErrInvalidSignature
	}
	return nil
}

var zeroScalar = group.ScalarFromUniformBytes(make([]byte, 64))
