// Package duplex implements the stateful, sponge-backed transcript that
// every Veil protocol (sres, schnorr, mres, pbenc) is built on.
//
// A duplex exists in one of two states. An UnkeyedDuplex only accumulates a
// transcript (absorb) and produces pseudorandom output (squeeze); it cannot
// encrypt anything. Calling IntoKeyed or Rekey consumes an UnkeyedDuplex and
// returns a KeyedDuplex, which additionally supports encrypt, decrypt, seal,
// unseal, and ratchet. The transition is one-way: there is no way to recover
// an UnkeyedDuplex from a KeyedDuplex.
//
// Internally both states wrap a single transcript protocol
// (github.com/codahale/thyrse), which evaluates a wide tree hash over a
// frame-encoded log of operations and derives keys, masks, and tags from it.
// The Unkeyed/Keyed split is enforced entirely at the Go type level; it
// exists to make illegal uses (encrypting before any key material has been
// mixed in) unrepresentable, the same way the original Rust implementation's
// UnkeyedDuplex/KeyedDuplex pair does.
package duplex

import (
	"crypto/rand"
	"io"

	"github.com/codahale/thyrse"

	"github.com/veilcrypt/veil/internal/zero"
)

// TagLen is the length, in bytes, of the authentication tag appended by Seal.
const TagLen = thyrse.TagSize

// hedgeRandLen is the number of random bytes mixed into a hedge clone
// alongside the caller's secret.
const hedgeRandLen = 64

// keyLen is the size of the key squeezed by IntoKeyed.
const keyLen = 64

// UnkeyedDuplex is a hash-only transcript. It cannot encrypt or seal.
type UnkeyedDuplex struct {
	p *thyrse.Protocol
}

// New creates a fresh UnkeyedDuplex with the given domain-separation label.
// Every Veil protocol starts here (e.g. "veil.sres", "veil.mres",
// "veil.schnorr", "veil.pbenc").
func New(domain string) *UnkeyedDuplex {
	return &UnkeyedDuplex{p: thyrse.New(domain)}
}

// Absorb ingests data as a labelled transcript input.
func (u *UnkeyedDuplex) Absorb(label string, data []byte) {
	u.p.Mix(label, data)
}

// AbsorbReader absorbs the entire contents of r as a single labelled input,
// without holding the whole stream in memory. No output is produced.
func (u *UnkeyedDuplex) AbsorbReader(label string, r io.Reader) error {
	return u.p.MixStream(label, r)
}

// Squeeze extracts n bytes of pseudorandom output under the given label.
func (u *UnkeyedDuplex) Squeeze(label string, n int) []byte {
	return u.p.Derive(label, nil, n)
}

// SqueezeScalar extracts a uniformly-distributed value suitable for
// reduction into a non-zero scalar. Callers reduce it via the group package.
func (u *UnkeyedDuplex) SqueezeScalar(label string) []byte {
	return u.p.Derive(label, nil, 64)
}

// Clone returns an independent copy of the duplex's state.
func (u *UnkeyedDuplex) Clone() *UnkeyedDuplex {
	return &UnkeyedDuplex{p: u.p.Clone()}
}

// IntoKeyed consumes the unkeyed duplex, squeezes a key from its current
// state, and returns a KeyedDuplex seeded with it. This transition is
// one-way.
func (u *UnkeyedDuplex) IntoKeyed() *KeyedDuplex {
	key := u.p.Derive("into-keyed", nil, keyLen)
	u.p.Mix("keyed", key)
	zero.Bytes(key)
	return &KeyedDuplex{p: u.p}
}

// Rekey consumes the unkeyed duplex, absorbs the given key under label, and
// returns a KeyedDuplex. Unlike IntoKeyed, the key is supplied by the caller
// (e.g. a DEK recovered from a decrypted header) rather than derived from the
// transcript.
func (u *UnkeyedDuplex) Rekey(label string, key []byte) *KeyedDuplex {
	u.p.Mix(label, key)
	return &KeyedDuplex{p: u.p}
}

// Hedge clones u, absorbs secret and 64 bytes read from rng into the clone,
// and evaluates f on the clone. u itself is never mutated. If rng fails, the
// secret is never substituted with zeros; the error is returned instead.
func Hedge[T any](u *UnkeyedDuplex, rng io.Reader, secret []byte, f func(*UnkeyedDuplex) T) (T, error) {
	var zeroVal T
	clone := u.Clone()
	var rnd [hedgeRandLen]byte
	if _, err := io.ReadFull(rng, rnd[:]); err != nil {
		return zeroVal, err
	}
	clone.Absorb("hedge-secret", secret)
	clone.Absorb("hedge-rand", rnd[:])
	zero.Bytes(rnd[:])
	return f(clone), nil
}

// KeyedDuplex is a transcript capable of encryption, sealing, and ratcheting.
type KeyedDuplex struct {
	p *thyrse.Protocol
}

// Absorb ingests data as a labelled transcript input.
func (d *KeyedDuplex) Absorb(label string, data []byte) {
	d.p.Mix(label, data)
}

// AbsorbReader absorbs the entire contents of r as a single labelled input.
func (d *KeyedDuplex) AbsorbReader(label string, r io.Reader) error {
	return d.p.MixStream(label, r)
}

// Squeeze extracts n bytes of pseudorandom output under the given label.
func (d *KeyedDuplex) Squeeze(label string, n int) []byte {
	return d.p.Derive(label, nil, n)
}

// SqueezeScalar extracts 64 bytes of pseudorandom output suitable for
// reduction into a non-zero scalar.
func (d *KeyedDuplex) SqueezeScalar(label string) []byte {
	return d.p.Derive(label, nil, 64)
}

// Encrypt encrypts pt in place, appending no tag. Provides no authenticity on
// its own.
func (d *KeyedDuplex) Encrypt(label string, pt []byte) []byte {
	return d.p.Mask(label, pt[:0], pt)
}

// Decrypt decrypts ct in place, the inverse of Encrypt.
func (d *KeyedDuplex) Decrypt(label string, ct []byte) []byte {
	return d.p.Unmask(label, ct[:0], ct)
}

// Seal encrypts and authenticates pt, returning ciphertext with a
// TagLen-byte tag appended.
func (d *KeyedDuplex) Seal(label string, pt []byte) []byte {
	return d.p.Seal(label, nil, pt)
}

// Unseal decrypts and authenticates a sealed ciphertext (as returned by
// Seal). On success it returns the plaintext and true. On failure — a short
// input or a tag mismatch — it returns nil and false in constant time; it
// never distinguishes between the two causes.
func (d *KeyedDuplex) Unseal(label string, sealed []byte) ([]byte, bool) {
	pt, err := d.p.Open(label, nil, sealed)
	if err != nil {
		return nil, false
	}
	return pt, true
}

// Ratchet irreversibly advances the duplex's state so that prior
// absorbed/squeezed/encrypted material cannot be recovered from the current
// state.
func (d *KeyedDuplex) Ratchet(label string) {
	d.p.Ratchet(label)
}

// Rekey absorbs a fresh key under label. The duplex remains keyed.
func (d *KeyedDuplex) Rekey(label string, key []byte) {
	d.p.Mix(label, key)
}

// Clone returns an independent copy of the duplex's state.
func (d *KeyedDuplex) Clone() *KeyedDuplex {
	return &KeyedDuplex{p: d.p.Clone()}
}

// HedgeKeyed clones d, absorbs secret and 64 bytes read from rng into the
// clone, and evaluates f on the clone. d itself is never mutated.
func HedgeKeyed[T any](d *KeyedDuplex, rng io.Reader, secret []byte, f func(*KeyedDuplex) T) (T, error) {
	var zeroVal T
	clone := d.Clone()
	var rnd [hedgeRandLen]byte
	if _, err := io.ReadFull(rng, rnd[:]); err != nil {
		return zeroVal, err
	}
	clone.Absorb("hedge-secret", secret)
	clone.Absorb("hedge-rand", rnd[:])
	zero.Bytes(rnd[:])
	return f(clone), nil
}

// StreamWriter forwards every byte written to it both to an inner io.Writer
// and into a duplex's transcript as a single labelled absorb operation. It
// implements the "streaming with simultaneous transcript absorption" pattern
// used by mres to write and absorb the header region at once.
type StreamWriter struct {
	inner io.Writer
	mw    *thyrse.MixWriter
	n     int64
}

// NewStreamWriter returns a StreamWriter that tees writes to w and
// accumulates them for a single Mix operation under label. Close must be
// called exactly once to complete the absorb.
func NewStreamWriter(u *UnkeyedDuplex, label string, w io.Writer) *StreamWriter {
	return &StreamWriter{inner: w, mw: u.p.MixWriter(label)}
}

// Write implements io.Writer, forwarding p to the inner writer and the
// transcript accumulator.
func (s *StreamWriter) Write(p []byte) (int, error) {
	n, err := s.inner.Write(p)
	if n > 0 {
		if _, werr := s.mw.Write(p[:n]); werr != nil {
			return n, werr
		}
		s.n += int64(n)
	}
	return n, err
}

// N returns the number of bytes written so far.
func (s *StreamWriter) N() int64 {
	return s.n
}

// Unwrap returns the inner writer, for callers that need to drop back to
// plain I/O once the absorbed region ends.
func (s *StreamWriter) Unwrap() io.Writer {
	return s.inner
}

// Close completes the absorb operation on the duplex that produced this
// writer. It does not close the inner writer.
func (s *StreamWriter) Close() error {
	return s.mw.Close()
}

// RandReader is crypto/rand.Reader. Nothing in this package reads from it:
// Hedge and HedgeKeyed take their randomness source as an argument.
var RandReader = rand.Reader
