// Package mres implements Veil's multi-receiver streaming signcryption: one
// sender encrypts a single stream to any number of receivers (plus, if the
// caller wants, indistinguishable fake receivers) without ever holding the
// full plaintext or ciphertext in memory. Each receiver gets their own
// sres-encrypted copy of a small header carrying the data-encryption key and
// the offset of the message body; the body itself is a chunked, ratcheted
// AEAD stream bound together at the tail by a Schnorr signature under a
// per-message ephemeral key.
package mres

import (
	"encoding/binary"
	"errors"
	"io"
	"runtime"
	"sync"

	"github.com/veilcrypt/veil/duplex"
	"github.com/veilcrypt/veil/group"
	"github.com/veilcrypt/veil/internal/zero"
	"github.com/veilcrypt/veil/schnorr"
	"github.com/veilcrypt/veil/sres"
)

const (
	// DEKLen is the length, in bytes, of the data encryption key carried in
	// a header.
	DEKLen = 32
	// offsetLen is the length, in bytes, of the little-endian message offset
	// carried in a header.
	offsetLen = 8
	// HeaderLen is the length, in bytes, of a plaintext header.
	HeaderLen = DEKLen + offsetLen
	// HeaderEncLen is the length, in bytes, of a header after sres encryption.
	HeaderEncLen = HeaderLen + sres.Overhead
	// BlockSize is the size, in bytes, of a plaintext chunk sealed at a time.
	BlockSize = 32 * 1024
	// SignatureLen is the length, in bytes, of the tail Schnorr signature.
	SignatureLen = schnorr.Len

	nonceLen = 16
)

// ErrInvalidCiphertext is returned by Decrypt on any failure: a short or
// corrupt stream, no header decryptable by the given receiver key, or a
// failed tail signature verification. The cause is never distinguished.
var ErrInvalidCiphertext = errors.New("mres: invalid ciphertext")

// Encrypt reads all of plaintext, encrypts it for every point in receivers
// (which may include fake receivers the caller fabricated via
// group.HashToPoint), adds padding random bytes after the header region, and
// writes the resulting ciphertext to ciphertext. It returns the number of
// bytes written.
func Encrypt(rng io.Reader, sender *sres.KeyPair, receivers []*group.Point, padding uint64, plaintext io.Reader, ciphertext io.Writer) (int64, error) {
	d := duplex.New("veil.mres")
	d.Absorb("sender", sender.Q.Bytes())

	ephemeral, dek, err := deriveEphemeral(d, rng, sender.D.Bytes())
	if err != nil {
		return 0, err
	}
	defer zero.Bytes(dek)

	header := encodeHeader(dek, len(receivers), padding)

	var written int64
	sw := duplex.NewStreamWriter(d, "header", ciphertext)

	var maskByte [1]byte
	if _, err := io.ReadFull(rng, maskByte[:]); err != nil {
		return written, err
	}
	n, err := sw.Write(ephemeral.Q.MaskedBytes(maskByte[0]))
	written += int64(n)
	if err != nil {
		return written, err
	}

	headerCts, err := encryptHeaders(rng, sender, ephemeral, receivers, header)
	if err != nil {
		return written, err
	}
	for _, hc := range headerCts {
		n, err := sw.Write(hc)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}

	if padding > 0 {
		n64, err := io.CopyN(sw, rng, int64(padding))
		written += n64
		if err != nil {
			return written, err
		}
	}

	if err := sw.Close(); err != nil {
		return written, err
	}

	kd := d.Rekey("dek", dek)

	buf := make([]byte, BlockSize)
	for {
		n, rerr := io.ReadFull(plaintext, buf)
		if rerr != nil && rerr != io.EOF && rerr != io.ErrUnexpectedEOF {
			return written, rerr
		}

		// A message whose length is an exact multiple of BlockSize (or zero)
		// needs no terminal empty block: the final read here is the signal
		// that the last block already written was the last one.
		if n > 0 {
			sealed := kd.Seal("block", append([]byte(nil), buf[:n]...))
			wn, werr := ciphertext.Write(sealed)
			written += int64(wn)
			if werr != nil {
				return written, werr
			}
			kd.Ratchet("block")
		}

		if rerr == io.EOF || rerr == io.ErrUnexpectedEOF {
			break
		}
	}

	sig, err := schnorr.SignDuplex(kd, rng, ephemeral.D, nil)
	if err != nil {
		return written, err
	}
	wn, werr := ciphertext.Write(sig[:])
	written += int64(wn)
	if werr != nil {
		return written, werr
	}

	return written, nil
}

// Decrypt reads ciphertext, locates the header slot decryptable by
// receiver's private key, decrypts the body, writes the plaintext to
// plaintext, and verifies the tail signature against senderPub. It returns
// the number of plaintext bytes written and ErrInvalidCiphertext on any
// failure (wrong receiver, wrong sender, corrupted stream, bad signature).
func Decrypt(receiver *sres.KeyPair, senderPub *group.Point, ciphertext io.Reader, plaintext io.Writer) (int64, error) {
	d := duplex.New("veil.mres")
	d.Absorb("sender", senderPub.Bytes())

	sw := duplex.NewStreamWriter(d, "header", io.Discard)

	maskedQE := make([]byte, group.PointLen)
	if _, err := absorbReadFull(sw, ciphertext, maskedQE); err != nil {
		return 0, ErrInvalidCiphertext
	}
	qE, err := group.UnmaskPoint(maskedQE)
	if err != nil {
		return 0, ErrInvalidCiphertext
	}

	dek, msgOffset, err := findHeader(sw, ciphertext, receiver, senderPub, qE)
	if err != nil {
		return 0, ErrInvalidCiphertext
	}
	defer zero.Bytes(dek)

	if err := sw.Close(); err != nil {
		return 0, ErrInvalidCiphertext
	}
	_ = msgOffset

	kd := d.Rekey("dek", dek)

	written, sig, err := decryptBody(kd, ciphertext, plaintext)
	if err != nil {
		return written, ErrInvalidCiphertext
	}

	if err := schnorr.VerifyDuplex(kd, qE, nil, sig); err != nil {
		return written, ErrInvalidCiphertext
	}

	return written, nil
}

func deriveEphemeral(d *duplex.UnkeyedDuplex, rng io.Reader, senderSecret []byte) (*sres.KeyPair, []byte, error) {
	type derived struct {
		kp  *sres.KeyPair
		dek []byte
	}
	out, err := duplex.Hedge(d, rng, senderSecret, func(clone *duplex.UnkeyedDuplex) derived {
		dE := group.ScalarFromUniformBytes(clone.SqueezeScalar("ephemeral-scalar"))
		dek := clone.Squeeze("dek", DEKLen)
		return derived{kp: &sres.KeyPair{D: dE, Q: dE.ScalarBaseMult()}, dek: dek}
	})
	if err != nil {
		return nil, nil, err
	}
	return out.kp, out.dek, nil
}

func encodeHeader(dek []byte, numReceivers int, padding uint64) []byte {
	msgOffset := uint64(numReceivers)*HeaderEncLen + padding
	header := make([]byte, 0, HeaderLen)
	header = append(header, dek...)
	var offBuf [offsetLen]byte
	binary.LittleEndian.PutUint64(offBuf[:], msgOffset)
	header = append(header, offBuf[:]...)
	return header
}

// encryptHeaders computes one sres-encrypted header copy per receiver,
// fanning the independent per-receiver sres.Encrypt calls out across a
// worker pool (the only parallelism spec.md's concurrency model sanctions)
// while preserving receiver order in the returned slice.
func encryptHeaders(rng io.Reader, sender, ephemeral *sres.KeyPair, receivers []*group.Point, header []byte) ([][]byte, error) {
	out := make([][]byte, len(receivers))
	if len(receivers) == 0 {
		return out, nil
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > len(receivers) {
		workers = len(receivers)
	}

	jobs := make(chan int)
	errs := make(chan error, workers)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				nonce := headerNonce(sender.Q, ephemeral.Q, i)
				ct, err := sres.Encrypt(rng, sender, ephemeral, receivers[i], nonce, header)
				if err != nil {
					errs <- err
					return
				}
				out[i] = ct
			}
		}()
	}

	for i := range receivers {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	close(errs)

	if err, ok := <-errs; ok {
		return nil, err
	}
	return out, nil
}

// headerNonce derives the sres nonce for the header at the given index.
// It depends only on public values (the sender's and ephemeral public
// points, and the index), so a decrypting receiver — which recovers the
// ephemeral point from the masked prefix before it has found its header —
// can reconstruct the same nonce for every slot it tries.
func headerNonce(qS, qE *group.Point, index int) []byte {
	n := duplex.New("veil.mres.header-nonce")
	n.Absorb("sender", qS.Bytes())
	n.Absorb("ephemeral", qE.Bytes())
	var idx [8]byte
	binary.LittleEndian.PutUint64(idx[:], uint64(index))
	n.Absorb("index", idx[:])
	return n.Squeeze("nonce", nonceLen)
}

func findHeader(sw *duplex.StreamWriter, r io.Reader, receiver *sres.KeyPair, senderPub, qE *group.Point) ([]byte, uint64, error) {
	buf := make([]byte, HeaderEncLen)
	var hdrOffset uint64
	var index int

	for {
		n, err := absorbReadFull(sw, r, buf)
		if err != nil {
			return nil, 0, ErrInvalidCiphertext
		}
		hdrOffset += uint64(n)

		nonce := headerNonce(senderPub, qE, index)
		if _, header, derr := sres.Decrypt(receiver, senderPub, nonce, buf); derr == nil {
			dek := append([]byte(nil), header[:DEKLen]...)
			msgOffset := binary.LittleEndian.Uint64(header[DEKLen:])
			if msgOffset < hdrOffset {
				return nil, 0, ErrInvalidCiphertext
			}

			remaining := msgOffset - hdrOffset
			if remaining > 0 {
				if _, err := io.CopyN(sw, r, int64(remaining)); err != nil {
					return nil, 0, ErrInvalidCiphertext
				}
			}
			return dek, msgOffset, nil
		}

		index++
	}
}

func absorbReadFull(sw *duplex.StreamWriter, r io.Reader, buf []byte) (int, error) {
	n, err := io.ReadFull(r, buf)
	if n > 0 {
		if _, werr := sw.Write(buf[:n]); werr != nil {
			return n, werr
		}
	}
	return n, err
}

// decryptBody unseals the chunked, ratcheted body and recovers the trailing
// signature. Every block but the last is exactly chunkSize bytes; the last
// block is at most chunkSize bytes (a message whose length is a multiple of
// BlockSize ends with a full block, and an empty message has no block), so a
// short last block plus the fixed-length signature is always strictly
// shorter than chunkSize+SignatureLen bytes. decryptBody accumulates reads
// and commits the front chunkSize bytes of the accumulator as a complete
// block whenever the accumulator holds at least chunkSize+SignatureLen bytes
// — at which point those bytes cannot be a short last block, regardless of
// how the underlying reader happens to chunk its reads.
func decryptBody(kd *duplex.KeyedDuplex, r io.Reader, w io.Writer) (int64, schnorr.Signature, error) {
	var written int64
	var sig schnorr.Signature

	chunkSize := BlockSize + duplex.TagLen
	threshold := chunkSize + SignatureLen

	buf := make([]byte, chunkSize)
	acc := make([]byte, 0, threshold+chunkSize)

	unsealWrite := func(block []byte) error {
		pt, ok := kd.Unseal("block", block)
		if !ok {
			return ErrInvalidCiphertext
		}
		wn, werr := w.Write(pt)
		written += int64(wn)
		if werr != nil {
			return werr
		}
		kd.Ratchet("block")
		return nil
	}

	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			acc = append(acc, buf[:n]...)
			for len(acc) >= threshold {
				if err := unsealWrite(acc[:chunkSize]); err != nil {
					return written, sig, err
				}
				acc = acc[chunkSize:]
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return written, sig, rerr
		}
	}

	if len(acc) < SignatureLen {
		return written, sig, ErrInvalidCiphertext
	}

	// A message whose length was an exact multiple of BlockSize (including
	// zero) has no final block: the signature immediately follows the last
	// confirmed interior block, or, for a zero-length message, nothing.
	finalBlock := acc[:len(acc)-SignatureLen]
	if len(finalBlock) > 0 {
		if err := unsealWrite(finalBlock); err != nil {
			return written, sig, err
		}
	}
	copy(sig[:], acc[len(acc)-SignatureLen:])
	return written, sig, nil
}
