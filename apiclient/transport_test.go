package apiclient_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/vrpoll/apiclient"
	"github.com/Alia5/vrpoll/apitypes"
	"github.com/Alia5/vrpoll/internal/server/api/auth"
)

// startTestServer accepts one connection, records the request up to and
// including the null terminator and answers with response.
func startTestServer(t *testing.T, response string) (addr string, got chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	got = make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		line, _ := bufio.NewReader(conn).ReadString('\x00')
		got <- line
		_, _ = conn.Write([]byte(response))
	}()
	return ln.Addr().String(), got
}

func TestTransportPayloadEncoding(t *testing.T) {
	type S struct {
		A int    `json:"a"`
		B string `json:"b"`
	}
	tests := []struct {
		name     string
		path     string
		params   map[string]string
		payload  any
		wantLine string
	}{
		{name: "nil payload", path: "ping", wantLine: "ping\x00"},
		{name: "empty string payload", path: "ping", payload: "", wantLine: "ping\x00"},
		{name: "bytes payload", path: "session/init", payload: []byte("overlay"), wantLine: "session/init overlay\x00"},
		{name: "string payload with newline", path: "echo", payload: "multi\nline", wantLine: "echo multi\nline\x00"},
		{name: "struct payload", path: "device/connect", payload: S{A: 7, B: "zzz"}, wantLine: `device/connect {"a":7,"b":"zzz"}` + "\x00"},
		{
			name:     "path params filled and lowered",
			path:     "session/{id}/role/{role}",
			params:   map[string]string{"id": "12", "role": "Left"},
			wantLine: "session/12/role/left\x00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, got := startTestServer(t, "{}\n")
			out, err := apiclient.NewTransport(addr).Do(tt.path, tt.payload, tt.params)
			require.NoError(t, err)
			assert.Equal(t, "{}", out)
			assert.Equal(t, tt.wantLine, <-got)
		})
	}
}

func TestTransportMultiLineResponse(t *testing.T) {
	addr, _ := startTestServer(t, "{\n  \"a\": 1,\n  \"b\": 2\n}\n")
	out, err := apiclient.NewTransport(addr).Do("echo", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1,\n  \"b\": 2\n}", out)
}

func TestTransportUnmarshalablePayload(t *testing.T) {
	_, err := apiclient.NewTransport("127.0.0.1:9").Do("echo", make(chan int), nil)
	assert.ErrorContains(t, err, "encode payload")
}

func TestEncryptedTransport(t *testing.T) {
	echoHandler := func(t *testing.T, conn net.Conn) {
		defer conn.Close()
		key, err := auth.DeriveKey("test123")
		assert.NoError(t, err)

		r := bufio.NewReader(conn)
		secureConn, err := auth.Accept(conn, r, key)
		if err != nil {
			var apiErr apitypes.ApiError
			if errors.As(err, &apiErr) {
				b, _ := json.Marshal(apiErr)
				_, _ = conn.Write(append(b, '\n'))
			}
			return
		}
		line, err := bufio.NewReader(secureConn).ReadString('\x00')
		if err != nil {
			return
		}
		_, err = secureConn.Write([]byte(line))
		assert.NoError(t, err)
	}

	tests := []struct {
		name          string
		password      string
		serverHandler func(t *testing.T, conn net.Conn)
		line          string
		wantErr       string
	}{
		{name: "success", password: "test123", serverHandler: echoHandler, line: "echo hi"},
		{name: "wrong password", password: "wrongpass", serverHandler: echoHandler, wantErr: "401 Unauthorized: invalid password"},
		{
			name:     "bad handshake response",
			password: "test123",
			serverHandler: func(t *testing.T, conn net.Conn) {
				defer conn.Close()
				_, _ = io.ReadFull(conn, make([]byte, len(auth.HandshakeMagic)+2*auth.NonceSize))
				_, _ = conn.Write([]byte("NO\x00" + strings.Repeat("x", 32)))
			},
			wantErr: "invalid handshake response",
		},
		{
			name:          "server closes early",
			password:      "test123",
			serverHandler: func(t *testing.T, conn net.Conn) { _ = conn.Close() },
			wantErr:       "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ln, err := net.Listen("tcp", "127.0.0.1:0")
			require.NoError(t, err)
			defer ln.Close()
			go func() {
				conn, err := ln.Accept()
				if err != nil {
					return
				}
				tt.serverHandler(t, conn)
			}()

			client := apiclient.NewTransportWithPassword(ln.Addr().String(), tt.password)
			path, payload, _ := strings.Cut(tt.line, " ")
			out, err := client.Do(path, payload, nil)

			if tt.line == "" {
				assert.Error(t, err)
				if tt.wantErr != "" {
					assert.ErrorContains(t, err, tt.wantErr)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.line, strings.TrimSuffix(out, "\x00"))
		})
	}
}

func TestTransportCancelledWhileReading(t *testing.T) {
	tr := apiclient.NewTransport(startStallingServer(t))
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	start := time.Now()
	_, err := tr.DoCtx(ctx, "ping", nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 2*time.Second)
}
