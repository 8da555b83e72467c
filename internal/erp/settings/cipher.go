package settings

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

// ErrDecrypt indicates a stored secret could not be opened with the current key.
var ErrDecrypt = errors.New("settings: decrypt secret")

// Cipher seals ERP secrets at rest with NaCl secretbox.
type Cipher struct {
	key [32]byte
}

// NewCipher derives the box key from the configured key material.
func NewCipher(material string) (*Cipher, error) {
	if material == "" {
		return nil, errors.New("settings: key material required")
	}
	return &Cipher{key: sha256.Sum256([]byte(material))}, nil
}

// Seal encrypts plaintext; the random nonce is prepended to the output.
func (c *Cipher) Seal(plaintext string) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, err
	}
	return secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &c.key), nil
}

// Open decrypts a value produced by Seal.
func (c *Cipher) Open(sealed []byte) (string, error) {
	if len(sealed) < nonceSize+secretbox.Overhead {
		return "", ErrDecrypt
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	out, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &c.key)
	if !ok {
		return "", ErrDecrypt
	}
	return string(out), nil
}
