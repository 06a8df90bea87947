package auth

import (
	"bytes"
	"crypto/cipher"
	"encoding/binary"
	"io"
	"net"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
)

const maxPacketSize = 2 * 1024 * 1024

// Conn encrypts every Write as one length-prefixed chacha20poly1305 packet:
//
//	len[4, BE] | nonce[12] | ciphertext
type Conn struct {
	net.Conn
	aead    cipher.AEAD
	wmu     sync.Mutex
	sendCtr uint64
	rmu     sync.Mutex
	recvBuf bytes.Buffer
	// pending holds raw bytes read off the wire before the Conn existed.
	pending []byte
}

// WrapConn returns conn encrypted with sessionKey.
func WrapConn(conn net.Conn, sessionKey []byte) (net.Conn, error) {
	aead, err := chacha20poly1305.New(sessionKey)
	if err != nil {
		return nil, err
	}
	return &Conn{Conn: conn, aead: aead}, nil
}

func (c *Conn) Write(p []byte) (int, error) {
	c.wmu.Lock()
	defer c.wmu.Unlock()

	nonce := make([]byte, c.aead.NonceSize())
	binary.BigEndian.PutUint64(nonce[len(nonce)-8:], c.sendCtr)
	c.sendCtr++

	pkt := make([]byte, 4, 4+len(nonce)+len(p)+c.aead.Overhead())
	pkt = append(pkt, nonce...)
	pkt = c.aead.Seal(pkt, nonce, p, nil)
	binary.BigEndian.PutUint32(pkt[:4], uint32(len(pkt)-4))

	if _, err := c.Conn.Write(pkt); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *Conn) readRaw(p []byte) error {
	n := copy(p, c.pending)
	c.pending = c.pending[n:]
	if n == len(p) {
		return nil
	}
	_, err := io.ReadFull(c.Conn, p[n:])
	return err
}

func (c *Conn) Read(p []byte) (int, error) {
	c.rmu.Lock()
	defer c.rmu.Unlock()

	if c.recvBuf.Len() == 0 {
		var hdr [4]byte
		if err := c.readRaw(hdr[:]); err != nil {
			return 0, err
		}
		length := binary.BigEndian.Uint32(hdr[:])
		ns := c.aead.NonceSize()
		if length > maxPacketSize || int(length) < ns {
			return 0, io.ErrUnexpectedEOF
		}
		pkt := make([]byte, length)
		if err := c.readRaw(pkt); err != nil {
			return 0, err
		}
		pt, err := c.aead.Open(nil, pkt[:ns], pkt[ns:], nil)
		if err != nil {
			return 0, err
		}
		c.recvBuf.Write(pt)
	}
	return c.recvBuf.Read(p)
}
