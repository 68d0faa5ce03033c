package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"strings"
)

// sealedPrefix marks values produced by Seal. Values without it are treated as plaintext
// so rows written before a key was configured stay readable.
const sealedPrefix = "enc:v1:"

// escapedPrefix marks plaintext stored without a key whose own text starts with one of the
// prefixes. Exactly one escapedPrefix is stripped on read.
const escapedPrefix = "enc:plain:"

// Sealer encrypts text fields at rest with AES-256-GCM.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer creates a sealer from a 32-byte key.
func NewSealer(key []byte) (*Sealer, error) {
	if len(key) != 32 {
		return nil, errors.New("encryption key must be 32 bytes")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Sealer{aead: gcm}, nil
}

// ParseKey decodes a base64 (standard encoding) 32-byte key.
func ParseKey(encoded string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, err
	}
	if len(key) != 32 {
		return nil, errors.New("encryption key must decode to 32 bytes")
	}
	return key, nil
}

// Seal returns prefix + base64(nonce || ciphertext). Empty input stays empty; any other
// input is sealed, including text that happens to carry the prefix.
func (s *Sealer) Seal(plaintext string) (string, error) {
	if plaintext == "" {
		return plaintext, nil
	}
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	out := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return sealedPrefix + base64.StdEncoding.EncodeToString(out), nil
}

// Open reverses Seal. Escaped plaintext is unescaped; other unsealed input is returned
// unchanged.
func (s *Sealer) Open(value string) (string, error) {
	if IsEscaped(value) {
		return Unescape(value), nil
	}
	if !IsSealed(value) {
		return value, nil
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, sealedPrefix))
	if err != nil {
		return "", err
	}
	nonceSize := s.aead.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}
	nonce, body := data[:nonceSize], data[nonceSize:]
	plaintext, err := s.aead.Open(nil, nonce, body, nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// IsSealed reports whether value was produced by Seal.
func IsSealed(value string) bool {
	return strings.HasPrefix(value, sealedPrefix)
}

// Escape prepares plaintext for storage without a key, so user text that looks sealed or
// escaped is never mistaken for either on read.
func Escape(plaintext string) string {
	if IsSealed(plaintext) || IsEscaped(plaintext) {
		return escapedPrefix + plaintext
	}
	return plaintext
}

func IsEscaped(value string) bool {
	return strings.HasPrefix(value, escapedPrefix)
}

// Unescape reverses Escape.
func Unescape(value string) string {
	return strings.TrimPrefix(value, escapedPrefix)
}
