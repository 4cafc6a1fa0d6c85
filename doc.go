// Package veil implements the Veil hybrid cryptosystem: confidential,
// authenticated, multi-receiver messages whose ciphertexts approximate
// uniform random bytes, plus detached signatures and passphrase-based
// encryption of long-term private keys.
//
// Overview
//
// A Veil identity is a SecretKey: 64 bytes of uniform entropy. A SecretKey
// derives any number of PrivateKeys via a hierarchical key-ID path (e.g.
// "/friends/bea"), so one secret key backs many conversational identities
// without a separate passphrase-encrypted blob per identity. Each PrivateKey
// has a corresponding PublicKey, derivable the same way from a peer's root
// PublicKey without that peer's private scalar.
//
//	sk, _ := veil.NewSecretKey(rand.Reader)
//	alice := sk.PrivateKey("/friends/bea")
//	bea := otherSK.PrivateKey("/buddies/alice")
//
//	alice.Encrypt(rand.Reader, plaintext, &ciphertext, []*veil.PublicKey{bea.PublicKey()})
//	bea.Decrypt(&ciphertext, &plaintext, alice.PublicKey())
//
// Encryption is built on mres, a streaming multi-receiver signcryption
// protocol: the sender's private key, an ephemeral key pair, and the set of
// receivers (real and, optionally, indistinguishable fake receivers) are
// combined into a ciphertext that only the intended receivers can decrypt,
// each unable to prove authorship to a third party. Signing is built on
// schnorr, a detached designated-verifier-capable Schnorr signature scheme.
// Private keys persist at rest via pbenc, a memory-hard passphrase-based
// encryption scheme.
//
// This package does not implement forward secrecy across sessions,
// post-compromise recovery, or interoperability with any other message
// format.
package veil
