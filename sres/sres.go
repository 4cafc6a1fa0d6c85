// Package sres implements Veil's single-receiver signcryption: given a
// sender key pair, an ephemeral key pair, and a receiver's public key, it
// produces a ciphertext that only the receiver can decrypt, and only the
// receiver can verify as having come from the sender (a designated-verifier
// proof). It is the building block mres uses once per receiver to construct
// a multi-receiver header.
package sres

import (
	"errors"
	"io"

	"github.com/veilcrypt/veil/duplex"
	"github.com/veilcrypt/veil/group"
)

// Overhead is the number of bytes sres.Encrypt adds to a plaintext.
const Overhead = 3 * group.PointLen

// ErrInvalidCiphertext is returned by Decrypt when the ciphertext is too
// short, contains an invalid point encoding, or fails the designated-verifier
// proof check. The cause is never distinguished.
var ErrInvalidCiphertext = errors.New("sres: invalid ciphertext")

// KeyPair is a sender or receiver's private scalar and public point.
type KeyPair struct {
	D *group.Scalar
	Q *group.Point
}

// Encrypt encrypts plaintext for receiverPub, signed (in the
// designated-verifier sense) by sender, using the ephemeral key pair
// supplied by the caller (mres derives it via hedge once per message, not
// once per receiver). The returned ciphertext is len(plaintext)+Overhead
// bytes.
func Encrypt(rng io.Reader, sender, ephemeral *KeyPair, receiverPub *group.Point, nonce, plaintext []byte) ([]byte, error) {
	d := duplex.New("veil.sres")
	d.Absorb("sender", sender.Q.Bytes())
	d.Absorb("receiver", receiverPub.Bytes())
	d.Absorb("nonce", nonce)
	d.Absorb("static-ecdh", receiverPub.ScalarMult(sender.D).Bytes())

	kd := d.IntoKeyed()

	qE := kd.Encrypt("ephemeral-key", append([]byte(nil), ephemeral.Q.Bytes()...))
	kd.Absorb("ephemeral-ecdh", receiverPub.ScalarMult(ephemeral.D).Bytes())
	ct := kd.Encrypt("message", append([]byte(nil), plaintext...))

	k, err := duplex.HedgeKeyed(kd, rng, sender.D.Bytes(), func(clone *duplex.KeyedDuplex) *group.Scalar {
		return group.ScalarFromUniformBytes(clone.SqueezeScalar("commitment-scalar"))
	})
	if err != nil {
		return nil, err
	}

	i := kd.Encrypt("commitment-point", k.ScalarBaseMult().Bytes())

	r := group.ScalarFromUniformBytes(kd.SqueezeScalar("challenge-scalar"))

	x := sender.D.Multiply(r).Add(k)
	xPoint := receiverPub.ScalarMult(x)
	xCt := kd.Encrypt("proof-point", xPoint.Bytes())

	out := make([]byte, 0, group.PointLen+len(plaintext)+2*group.PointLen)
	out = append(out, qE...)
	out = append(out, ct...)
	out = append(out, i...)
	out = append(out, xCt...)
	return out, nil
}

// Decrypt decrypts and authenticates a ciphertext produced by Encrypt,
// returning the ephemeral public key and the plaintext. It returns
// ErrInvalidCiphertext on any failure.
func Decrypt(receiver *KeyPair, senderPub *group.Point, nonce, ciphertext []byte) (*group.Point, []byte, error) {
	if len(ciphertext) < Overhead {
		return nil, nil, ErrInvalidCiphertext
	}

	qEEnc := append([]byte(nil), ciphertext[:group.PointLen]...)
	rest := ciphertext[group.PointLen:]
	msgLen := len(rest) - 2*group.PointLen
	msgCt := append([]byte(nil), rest[:msgLen]...)
	iEnc := append([]byte(nil), rest[msgLen:msgLen+group.PointLen]...)
	xEnc := append([]byte(nil), rest[msgLen+group.PointLen:]...)

	d := duplex.New("veil.sres")
	d.Absorb("sender", senderPub.Bytes())
	d.Absorb("receiver", receiver.Q.Bytes())
	d.Absorb("nonce", nonce)
	d.Absorb("static-ecdh", senderPub.ScalarMult(receiver.D).Bytes())

	kd := d.IntoKeyed()

	qEBytes := kd.Decrypt("ephemeral-key", qEEnc)
	qE, err := group.DecodePoint(qEBytes)
	if err != nil {
		return nil, nil, ErrInvalidCiphertext
	}

	kd.Absorb("ephemeral-ecdh", qE.ScalarMult(receiver.D).Bytes())
	plaintext := kd.Decrypt("message", msgCt)

	iBytes := kd.Decrypt("commitment-point", iEnc)
	i, err := group.DecodePoint(iBytes)
	if err != nil {
		return nil, nil, ErrInvalidCiphertext
	}

	r := group.ScalarFromUniformBytes(kd.SqueezeScalar("challenge-scalar"))

	xBytes := kd.Decrypt("proof-point", xEnc)

	xPrime := i.Add(senderPub.ScalarMult(r)).ScalarMult(receiver.D)

	if !group.ConstantTimeEqualBytes(xBytes, xPrime.Bytes()) {
		return nil, nil, ErrInvalidCiphertext
	}

	return qE, plaintext, nil
}
