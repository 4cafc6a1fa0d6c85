package veil

import (
	"io"

	"github.com/mr-tron/base58"

	"github.com/veilcrypt/veil/duplex"
	"github.com/veilcrypt/veil/group"
)

// DigestLen is the length, in bytes, of a Digest.
const DigestLen = 64

// Digest is a keyless hash of a message and any associated metadata
// strings, used to detect accidental corruption (not to authenticate a
// sender — use Sign for that).
type Digest [DigestLen]byte

// NewDigest hashes message, along with each string in metadata (absorbed in
// order given), into a Digest.
func NewDigest(metadata []string, message io.Reader) (Digest, error) {
	var d Digest
	u := duplex.New("veil.digest")
	for _, m := range metadata {
		u.Absorb("metadata", []byte(m))
	}
	if err := u.AbsorbReader("message", message); err != nil {
		return d, err
	}
	copy(d[:], u.Squeeze("digest", DigestLen))
	return d, nil
}

// String returns the base58 encoding of d.
func (d Digest) String() string {
	return base58.Encode(d[:])
}

// Equal reports, in constant time, whether d and other are the same digest.
func (d Digest) Equal(other Digest) bool {
	return group.ConstantTimeEqualBytes(d[:], other[:])
}

// ParseDigest decodes the base58 encoding of a Digest, distinguishing a
// wrong-length decode from invalid base58 characters.
func ParseDigest(s string) (Digest, error) {
	var d Digest
	b, err := base58.Decode(s)
	if err != nil {
		return d, &ParseDigestError{Kind: InvalidEncoding, err: err}
	}
	if len(b) != DigestLen {
		return d, &ParseDigestError{Kind: InvalidLength}
	}
	copy(d[:], b)
	return d, nil
}
