package main

import (
	"os"

	"github.com/veilcrypt/veil"
)

// loadPrivateKey opens path and decrypts the private key it contains using
// passphrase.
func loadPrivateKey(path, passphrase string) (*veil.PrivateKey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return veil.LoadPrivateKey(f, passphrase)
}
