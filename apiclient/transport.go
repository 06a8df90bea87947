package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Alia5/vrpoll/internal/server/api/auth"
	apierror "github.com/Alia5/vrpoll/internal/server/api/error"
)

// Config controls low-level transport behavior such as timeouts.
type Config struct {
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Password     string
}

func defaultConfig() Config {
	return Config{
		DialTimeout:  3 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
}

// Responder produces canned responses for NewMockTransport.
type Responder func(path string, payload any, pathParams map[string]string) (string, error)

// Transport is the low-level management protocol implementation.
// Request framing: `<path>[ SP <payload>] \x00`. The payload may contain any
// data including newlines because only \x00 ends the request.
// Response framing: the server writes a single JSON (or empty success) line
// terminated by `\n` and closes the connection, so we read until EOF and trim
// one trailing newline.
type Transport struct {
	addr string
	mock Responder
	cfg  Config

	keyOnce sync.Once
	key     []byte
	keyErr  error
}

// NewTransport creates a new low-level transport.
func NewTransport(addr string) *Transport { return NewTransportWithConfig(addr, nil) }

// NewTransportWithPassword creates a transport that authenticates every request.
func NewTransportWithPassword(addr, password string) *Transport {
	cfg := defaultConfig()
	cfg.Password = password
	return NewTransportWithConfig(addr, &cfg)
}

// NewTransportWithConfig creates a new low-level transport with optional timeouts configuration.
func NewTransportWithConfig(addr string, cfg *Config) *Transport {
	c := defaultConfig()
	if cfg != nil {
		c = *cfg
	}
	return &Transport{addr: addr, cfg: c}
}

// NewMockTransport creates a transport that returns canned responses without real networking.
// The responder receives the unfilled path pattern, payload and path params.
func NewMockTransport(responder Responder) *Transport {
	return &Transport{addr: "mock", mock: responder, cfg: defaultConfig()}
}

// Addr returns the server address this transport dials.
func (t *Transport) Addr() string { return t.addr }

// Do sends a request and returns the exact single-line response (without trailing newline).
// Payload handling rules:
//
//	[]byte -> sent as-is
//	string -> UTF-8 bytes
//	struct/other -> JSON marshaled bytes
//	nil -> no payload appended
func (t *Transport) Do(path string, payload any, pathParams map[string]string) (string, error) {
	return t.DoCtx(context.Background(), path, payload, pathParams)
}

// DoCtx is like Do but honors the provided context and configured timeouts.
func (t *Transport) DoCtx(ctx context.Context, path string, payload any, pathParams map[string]string) (string, error) {
	if t.mock != nil {
		return t.mock(path, payload, pathParams)
	}
	line := []byte(fillPath(path, pathParams))
	pb, err := toPayloadBytes(payload)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}
	if len(pb) > 0 {
		line = append(append(line, ' '), pb...)
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("dial: %w", err)
	}

	d := &net.Dialer{Timeout: t.cfg.DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", t.addr)
	if err != nil {
		return "", fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()
	// Closing the socket unblocks any pending read or write once ctx ends.
	raw := conn
	stop := context.AfterFunc(ctx, func() { _ = raw.Close() })
	defer stop()

	if tcpConn, ok := conn.(*net.TCPConn); ok {
		if err := tcpConn.SetNoDelay(true); err != nil {
			slog.Warn("failed to set TCP_NODELAY", "error", err)
		}
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	if t.cfg.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(t.cfg.WriteTimeout))
	}

	if t.cfg.Password != "" {
		conn, err = t.secure(conn)
		if err != nil {
			return "", ctxErr(ctx, err)
		}
	}

	if _, err := conn.Write(append(line, '\x00')); err != nil {
		return "", fmt.Errorf("write: %w", ctxErr(ctx, err))
	}
	if t.cfg.ReadTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(t.cfg.ReadTimeout))
	}
	respBytes, err := io.ReadAll(conn)
	if err != nil && (len(respBytes) == 0 || ctx.Err() != nil) {
		return "", fmt.Errorf("read: %w", ctxErr(ctx, err))
	}
	return strings.TrimSuffix(string(respBytes), "\n"), nil
}

// ctxErr prefers the context's error over the one caused by closing the
// connection on cancellation.
func ctxErr(ctx context.Context, err error) error {
	if cerr := ctx.Err(); cerr != nil {
		return cerr
	}
	return err
}

func (t *Transport) secure(conn net.Conn) (net.Conn, error) {
	t.keyOnce.Do(func() { t.key, t.keyErr = auth.DeriveKey(t.cfg.Password) })
	if t.keyErr != nil {
		return nil, t.keyErr
	}
	sc, err := auth.Secure(conn, t.key)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, apierror.ErrUnauthorized("invalid password")
		}
		return nil, err
	}
	return sc, nil
}

func fillPath(pattern string, params map[string]string) string {
	out := pattern
	for k, v := range params {
		out = strings.ReplaceAll(out, "{"+k+"}", url.PathEscape(v))
	}
	return strings.ToLower(out)
}

func toPayloadBytes(v any) ([]byte, error) {
	switch p := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		return p, nil
	case string:
		return []byte(p), nil
	default:
		return json.Marshal(v)
	}
}
