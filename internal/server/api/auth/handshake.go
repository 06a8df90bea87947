package auth

import (
	"bufio"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/Alia5/vrpoll/apitypes"
	apierror "github.com/Alia5/vrpoll/internal/server/api/error"
)

// Handshake layout:
//
//	client: HandshakeMagic | nonce[32] | HMAC-SHA256(key, authContext|nonce)
//	server: "OK\x00" | nonce[32]          (or a problem JSON line on failure)
const (
	HandshakeMagic = "vrp1\x00"
	NonceSize      = 32
	authContext    = "vrpoll-auth-v1"
	okPrefix       = "OK\x00"
)

func newNonce() ([]byte, error) {
	n := make([]byte, NonceSize)
	if _, err := rand.Read(n); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return n, nil
}

func clientMAC(key, nonce []byte) []byte {
	mac := hmac.New(sha256.New, key)
	_, _ = mac.Write([]byte(authContext))
	_, _ = mac.Write(nonce)
	return mac.Sum(nil)
}

// IsAuthHandshake reports whether the next bytes in r are the handshake magic.
// It peeks one byte at a time and stops at the first mismatch, so a plain
// request shorter than the magic never blocks.
func IsAuthHandshake(r *bufio.Reader) (bool, error) {
	for i := 1; i <= len(HandshakeMagic); i++ {
		b, err := r.Peek(i)
		if err != nil {
			return false, err
		}
		if b[i-1] != HandshakeMagic[i-1] {
			return false, nil
		}
	}
	return true, nil
}

// ClientHandshake authenticates against a server and returns both nonces.
func ClientHandshake(r io.Reader, w io.Writer, key []byte) (clientNonce, serverNonce []byte, err error) {
	if len(key) == 0 {
		return nil, nil, fmt.Errorf("handshake: missing key")
	}
	clientNonce, err = newNonce()
	if err != nil {
		return nil, nil, err
	}
	msg := make([]byte, 0, len(HandshakeMagic)+NonceSize+sha256.Size)
	msg = append(msg, HandshakeMagic...)
	msg = append(msg, clientNonce...)
	msg = append(msg, clientMAC(key, clientNonce)...)
	if _, err := w.Write(msg); err != nil {
		return nil, nil, fmt.Errorf("write handshake: %w", err)
	}

	prefix := make([]byte, len(okPrefix))
	if _, err := io.ReadFull(r, prefix); err != nil {
		return nil, nil, fmt.Errorf("read handshake response: %w", err)
	}
	if string(prefix) != okPrefix {
		rest, _ := io.ReadAll(r)
		line := strings.TrimSuffix(string(append(prefix, rest...)), "\n")
		var apiErr apitypes.ApiError
		if err := json.Unmarshal([]byte(line), &apiErr); err == nil && (apiErr.Status != 0 || apiErr.Title != "") {
			return nil, nil, &apiErr
		}
		return nil, nil, fmt.Errorf("invalid handshake response from server: %q", line)
	}

	serverNonce = make([]byte, NonceSize)
	if _, err := io.ReadFull(r, serverNonce); err != nil {
		return nil, nil, fmt.Errorf("read server nonce: %w", err)
	}
	return clientNonce, serverNonce, nil
}

// ServerHandshake verifies a client handshake (magic included) read from r
// and answers on w. A wrong password yields a 401 ApiError; the caller is
// responsible for reporting it to the client.
func ServerHandshake(r io.Reader, w io.Writer, key []byte) (clientNonce, serverNonce []byte, err error) {
	if len(key) == 0 {
		return nil, nil, fmt.Errorf("handshake: missing key")
	}
	magic := make([]byte, len(HandshakeMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, nil, fmt.Errorf("read handshake magic: %w", err)
	}
	if string(magic) != HandshakeMagic {
		return nil, nil, apierror.ErrUnauthorized("authentication required")
	}

	clientNonce = make([]byte, NonceSize)
	if _, err := io.ReadFull(r, clientNonce); err != nil {
		return nil, nil, fmt.Errorf("read client nonce: %w", err)
	}
	clientAuth := make([]byte, sha256.Size)
	if _, err := io.ReadFull(r, clientAuth); err != nil {
		return nil, nil, fmt.Errorf("read client auth: %w", err)
	}
	if !hmac.Equal(clientAuth, clientMAC(key, clientNonce)) {
		return nil, nil, apierror.ErrUnauthorized("invalid password")
	}

	serverNonce, err = newNonce()
	if err != nil {
		return nil, nil, err
	}
	if _, err := w.Write(append([]byte(okPrefix), serverNonce...)); err != nil {
		return nil, nil, fmt.Errorf("write handshake response: %w", err)
	}
	return clientNonce, serverNonce, nil
}

// Secure runs the client side of the handshake on conn and returns the
// encrypted connection.
func Secure(conn net.Conn, key []byte) (net.Conn, error) {
	r := bufio.NewReader(conn)
	clientNonce, serverNonce, err := ClientHandshake(r, conn, key)
	if err != nil {
		return nil, err
	}
	return WrapConn(conn, DeriveSessionKey(key, serverNonce, clientNonce))
}

// Accept runs the server side of the handshake. r must be the buffered
// reader already wrapping conn so that peeked bytes are not lost.
func Accept(conn net.Conn, r *bufio.Reader, key []byte) (net.Conn, error) {
	clientNonce, serverNonce, err := ServerHandshake(r, conn, key)
	if err != nil {
		return nil, err
	}
	sc, err := WrapConn(conn, DeriveSessionKey(key, serverNonce, clientNonce))
	if err != nil {
		return nil, err
	}
	// Handshake bytes are consumed; anything the client pipelined after
	// them is still buffered in r and is ciphertext for sc.
	if r.Buffered() > 0 {
		pending, _ := r.Peek(r.Buffered())
		sc.(*Conn).pending = append([]byte(nil), pending...)
	}
	return sc, nil
}
