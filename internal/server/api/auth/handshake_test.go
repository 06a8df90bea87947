package auth_test

import (
	"bufio"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/vrpoll/apitypes"
	"github.com/Alia5/vrpoll/internal/server/api/auth"
)

func TestIsAuthHandshake(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    bool
		wantErr bool
	}{
		{name: "magic", input: auth.HandshakeMagic + "rest", want: true},
		{name: "plain request", input: "ping\x00", want: false},
		{name: "empty request", input: "\x00", want: false},
		{name: "request sharing a prefix", input: "vr\x00", want: false},
		{name: "short input", input: "vr", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := auth.IsAuthHandshake(bufio.NewReader(bytes.NewBufferString(tt.input)))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// pipeHandshake runs both sides over in-memory pipes.
func pipeHandshake(t *testing.T, clientKey, serverKey []byte) (cN, sN []byte, clientErr, serverErr error) {
	t.Helper()
	c2sR, c2sW := io.Pipe()
	s2cR, s2cW := io.Pipe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		var err error
		_, sN, err = auth.ServerHandshake(c2sR, s2cW, serverKey)
		serverErr = err
		if err != nil {
			_, _ = s2cW.Write([]byte(`{"status":401,"title":"Unauthorized","detail":"invalid password"}` + "\n"))
		}
		_ = s2cW.Close()
	}()

	cN, sNc, clientErr := auth.ClientHandshake(s2cR, c2sW, clientKey)
	_ = c2sW.Close()
	<-done
	if clientErr == nil {
		assert.Equal(t, sN, sNc)
	}
	return cN, sN, clientErr, serverErr
}

func TestHandshake(t *testing.T) {
	key, err := auth.DeriveKey("secret")
	require.NoError(t, err)
	wrong, err := auth.DeriveKey("wrong")
	require.NoError(t, err)

	t.Run("matching keys", func(t *testing.T) {
		cN, sN, cErr, sErr := pipeHandshake(t, key, key)
		require.NoError(t, cErr)
		require.NoError(t, sErr)
		assert.Len(t, cN, auth.NonceSize)
		assert.Len(t, sN, auth.NonceSize)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, cErr, sErr := pipeHandshake(t, wrong, key)
		var serverErr apitypes.ApiError
		require.ErrorAs(t, sErr, &serverErr)
		assert.Equal(t, 401, serverErr.Status)
		var clientErr *apitypes.ApiError
		require.ErrorAs(t, cErr, &clientErr)
		assert.Equal(t, "invalid password", clientErr.Detail)
	})

	t.Run("missing key", func(t *testing.T) {
		_, _, err := auth.ClientHandshake(bytes.NewReader(nil), io.Discard, nil)
		assert.ErrorContains(t, err, "missing key")
		_, _, err = auth.ServerHandshake(bytes.NewReader(nil), io.Discard, nil)
		assert.ErrorContains(t, err, "missing key")
	})

	t.Run("no magic", func(t *testing.T) {
		_, _, err := auth.ServerHandshake(bytes.NewBufferString("ping\x00\x00\x00"), io.Discard, key)
		var apiErr apitypes.ApiError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, 401, apiErr.Status)
	})
}
