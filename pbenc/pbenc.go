// Package pbenc implements Veil's passphrase-based encryption of
// private-key material: a memory-hard balloon-hashing KDF feeding a
// duplex-based AEAD, so that brute-forcing a passphrase requires both time
// and memory proportional to the cost parameters chosen at encryption time.
package pbenc

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"io"
	"math/big"

	"golang.org/x/text/unicode/norm"

	"github.com/veilcrypt/veil/duplex"
	"github.com/veilcrypt/veil/internal/zero"
)

const (
	// SaltLen is the length, in bytes, of the random salt.
	SaltLen = 16
	// MACLen is the length, in bytes, of the authentication tag.
	MACLen = 16
	// Delta is the number of pseudo-randomly chosen blocks mixed into each
	// block during the mix phase.
	Delta = 3
	// N is the size, in bytes, of each balloon-hashing block.
	N = 64

	// Overhead is the number of bytes Encrypt adds to a plaintext.
	Overhead = 4 + 4 + SaltLen + MACLen
)

// ErrInvalidCiphertext is returned by Decrypt on any failure: a too-short
// input, a wrong passphrase, or a tampered parameter/ciphertext/MAC. The
// cause is never distinguished.
var ErrInvalidCiphertext = errors.New("pbenc: invalid ciphertext")

// Encrypt encrypts plaintext (typically a 32-byte private-key scalar) under
// passphrase, using a fresh random salt and the given time/space cost
// parameters.
func Encrypt(passphrase string, time, space uint32, plaintext []byte) ([]byte, error) {
	var salt [SaltLen]byte
	if _, err := io.ReadFull(rand.Reader, salt[:]); err != nil {
		return nil, err
	}

	kd := initBalloon(passphrase, salt[:], time, space)

	out := make([]byte, 0, 4+4+SaltLen+len(plaintext)+MACLen)
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], time)
	out = append(out, tmp[:]...)
	binary.LittleEndian.PutUint32(tmp[:], space)
	out = append(out, tmp[:]...)
	out = append(out, salt[:]...)

	ct := kd.Encrypt("ciphertext", append([]byte(nil), plaintext...))
	out = append(out, ct...)

	mac := kd.Squeeze("mac", MACLen)
	out = append(out, mac...)

	return out, nil
}

// Decrypt decrypts a ciphertext produced by Encrypt. It returns
// ErrInvalidCiphertext if the passphrase is wrong or the ciphertext has been
// tampered with.
func Decrypt(passphrase string, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < Overhead {
		return nil, ErrInvalidCiphertext
	}

	time := binary.LittleEndian.Uint32(ciphertext[0:4])
	space := binary.LittleEndian.Uint32(ciphertext[4:8])
	salt := ciphertext[8 : 8+SaltLen]
	rest := ciphertext[8+SaltLen:]

	ctLen := len(rest) - MACLen
	ct := rest[:ctLen]
	mac := rest[ctLen:]

	kd := initBalloon(passphrase, salt, time, space)

	plaintext := kd.Decrypt("ciphertext", append([]byte(nil), ct...))
	expectedMAC := kd.Squeeze("mac", MACLen)

	if subtle.ConstantTimeCompare(mac, expectedMAC) != 1 {
		return nil, ErrInvalidCiphertext
	}
	return plaintext, nil
}

func initBalloon(passphrase string, salt []byte, time, space uint32) *duplex.KeyedDuplex {
	normalized := []byte(norm.NFKC.String(passphrase))
	defer zero.Bytes(normalized)

	u := duplex.New("veil.pbenc")
	kd := u.Rekey("passphrase", normalized)

	kd.Absorb("salt", salt)
	var le4 [4]byte
	binary.LittleEndian.PutUint32(le4[:], time)
	kd.Absorb("time", le4[:])
	binary.LittleEndian.PutUint32(le4[:], space)
	kd.Absorb("space", le4[:])
	binary.LittleEndian.PutUint32(le4[:], N)
	kd.Absorb("block-size", le4[:])
	binary.LittleEndian.PutUint32(le4[:], Delta)
	kd.Absorb("delta", le4[:])

	spaceN := int(space)
	timeN := int(time)

	buf := make([][N]byte, spaceN)
	var ctr uint64

	hashCounter := func(left, right []byte, out []byte) {
		var ctrBytes [8]byte
		binary.LittleEndian.PutUint64(ctrBytes[:], ctr)
		kd.Absorb("counter", ctrBytes[:])
		ctr++
		kd.Absorb("left", left)
		kd.Absorb("right", right)
		copy(out, kd.Squeeze("out", N))
	}

	// Expand.
	hashCounter(normalized, salt, buf[0][:])
	for m := 1; m < spaceN; m++ {
		hashCounter(buf[m-1][:], nil, buf[m][:])
	}

	bigSpace := big.NewInt(int64(space))

	// Mix.
	for t := 0; t < timeN; t++ {
		for m := 0; m < spaceN; m++ {
			prev := (m - 1 + spaceN) % spaceN
			hashCounter(buf[prev][:], buf[m][:], buf[m][:])

			for i := 0; i < Delta; i++ {
				var idxSeed [N]byte
				binary.LittleEndian.PutUint64(idxSeed[0:8], uint64(t))
				binary.LittleEndian.PutUint64(idxSeed[8:16], uint64(m))
				binary.LittleEndian.PutUint64(idxSeed[16:24], uint64(i))

				var idxOut [N]byte
				hashCounter(salt, idxSeed[:], idxOut[:])

				idx := leBytesMod(idxOut[:], bigSpace)
				hashCounter(buf[idx][:], nil, buf[m][:])
			}
		}
	}

	// Extract.
	kd.Rekey("extract", buf[spaceN-1][:])

	for i := range buf {
		zero.Bytes(buf[i][:])
	}

	return kd
}

func leBytesMod(b []byte, mod *big.Int) int {
	rev := make([]byte, len(b))
	for i, c := range b {
		rev[len(b)-1-i] = c
	}
	n := new(big.Int).SetBytes(rev)
	n.Mod(n, mod)
	return int(n.Uint64())
}
