// Package auth implements the optional password handshake of the management
// API and the encrypted framing used after it.
package auth

import (
	"crypto/pbkdf2"
	"crypto/rand"
	"crypto/sha256"
	"errors"
)

const (
	AutoGenKeyLength = 16
	Base62Chars      = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	PBKDF2Iterations = 100000
	PBKDF2Salt       = "vrpoll-key-v1"
	sessionContext   = "vrpoll-session-v1"
)

var ErrEmptyPassword = errors.New("password cannot be empty")

// GenerateKey returns a random base62 password of AutoGenKeyLength characters.
func GenerateKey() (string, error) {
	buf := make([]byte, AutoGenKeyLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = Base62Chars[int(b)%len(Base62Chars)]
	}
	return string(buf), nil
}

// DeriveKey stretches password into a 32 byte key.
func DeriveKey(password string) ([]byte, error) {
	if password == "" {
		return nil, ErrEmptyPassword
	}
	return pbkdf2.Key(sha256.New, password, []byte(PBKDF2Salt), PBKDF2Iterations, 32)
}

// DeriveSessionKey mixes the long-term key with both handshake nonces.
func DeriveSessionKey(key, serverNonce, clientNonce []byte) []byte {
	h := sha256.New()
	for _, part := range [][]byte{key, serverNonce, clientNonce, []byte(sessionContext)} {
		h.Write(part)
	}
	return h.Sum(nil)
}
