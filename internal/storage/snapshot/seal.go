package snapshot

import (
	"bytes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// sealMagic prefixes every encrypted snapshot so a store can tell
// sealed bytes from plain JSON.
var sealMagic = []byte("INKSEAL1")

// sealer encrypts and decrypts snapshot bytes with ChaCha20-Poly1305.
type sealer struct {
	aead cipher.AEAD
}

func newSealer(key []byte) (*sealer, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("snapshot encryption key: %w", err)
	}
	return &sealer{aead: aead}, nil
}

// seal returns magic || nonce || ciphertext.
func (s *sealer) seal(plain []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(sealMagic)+len(nonce)+len(plain)+s.aead.Overhead())
	out = append(out, sealMagic...)
	out = append(out, nonce...)
	return s.aead.Seal(out, nonce, plain, nil), nil
}

func (s *sealer) open(data []byte) ([]byte, error) {
	if !isSealed(data) {
		return nil, errors.New("missing seal header")
	}
	data = data[len(sealMagic):]
	if len(data) < s.aead.NonceSize() {
		return nil, errors.New("sealed snapshot truncated")
	}
	nonce, ciphertext := data[:s.aead.NonceSize()], data[s.aead.NonceSize():]
	return s.aead.Open(nil, nonce, ciphertext, nil)
}

func isSealed(data []byte) bool {
	return bytes.HasPrefix(data, sealMagic)
}
