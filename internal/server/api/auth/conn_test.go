package auth_test

import (
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/vrpoll/internal/server/api/auth"
)

func tcpPair(t *testing.T) (client, server net.Conn) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	client, err = net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	server, err = ln.Accept()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Close()
		_ = server.Close()
	})
	return client, server
}

func TestConn(t *testing.T) {
	key, err := auth.DeriveKey("test123")
	require.NoError(t, err)
	otherKey, err := auth.DeriveKey("123test")
	require.NoError(t, err)

	tests := []struct {
		name      string
		clientKey []byte
		serverKey []byte
		input     []byte
		wantErr   string
	}{
		{name: "round trip", clientKey: key, serverKey: key, input: []byte("Hello, World!")},
		{name: "differing keys", clientKey: key, serverKey: otherKey, input: []byte("x"), wantErr: "message authentication failed"},
		{name: "bad key length", clientKey: []byte{1, 2, 3}, serverKey: key, input: []byte("x"), wantErr: "bad key length"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clientConn, serverConn := tcpPair(t)

			wc, err := auth.WrapConn(clientConn, tt.clientKey)
			if err != nil {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			ws, err := auth.WrapConn(serverConn, tt.serverKey)
			require.NoError(t, err)

			_, err = wc.Write(tt.input)
			require.NoError(t, err)

			buf := make([]byte, len(tt.input))
			_, err = io.ReadFull(ws, buf)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, buf)
		})
	}
}

func TestConn_MultiplePackets(t *testing.T) {
	key, err := auth.DeriveKey("test123")
	require.NoError(t, err)
	clientConn, serverConn := tcpPair(t)
	wc, err := auth.WrapConn(clientConn, key)
	require.NoError(t, err)
	ws, err := auth.WrapConn(serverConn, key)
	require.NoError(t, err)

	for _, msg := range []string{"session/init scene", "\x00", "ping"} {
		_, err := wc.Write([]byte(msg))
		require.NoError(t, err)
	}
	buf := make([]byte, len("session/init scene\x00ping"))
	_, err = io.ReadFull(ws, buf)
	require.NoError(t, err)
	assert.Equal(t, "session/init scene\x00ping", string(buf))
}
