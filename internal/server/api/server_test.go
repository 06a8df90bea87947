package api_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/vrpoll/apiclient"
	"github.com/Alia5/vrpoll/internal/server/api"
	"github.com/Alia5/vrpoll/internal/server/api/handler"
	handlerTest "github.com/Alia5/vrpoll/internal/testing"
	"github.com/Alia5/vrpoll/tracking"
	"github.com/Alia5/vrpoll/virtualruntime"
)

func TestServerRequestErrors(t *testing.T) {
	addr, _ := handlerTest.StartAPIServer(t, api.ServerConfig{}, virtualruntime.Options{}, handler.RegisterAll)

	tests := []struct {
		name string
		cmd  string
		want string
	}{
		{name: "unknown path", cmd: "bus/list", want: `{"status":404,"title":"Not Found","detail":"unknown path: bus/list"}`},
		{name: "empty request", cmd: "", want: `{"status":400,"title":"Bad Request","detail":"empty request"}`},
		{name: "empty path", cmd: " payload", want: `{"status":400,"title":"Bad Request","detail":"empty path"}`},
		{name: "path is case-insensitive", cmd: "RUNTIME/INFO", want: `{"hmdPresent":true,"runtimeInstalled":true,"runtimePath":"virtual://vrpoll"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.JSONEq(t, tt.want, handlerTest.ExecCmd(t, addr, tt.cmd))
		})
	}
}

func TestServerAuth(t *testing.T) {
	tests := []struct {
		name     string
		cfg      api.ServerConfig
		password string
		wantErr  string
	}{
		{name: "open server, no password", cfg: api.ServerConfig{}},
		{name: "password accepted", cfg: api.ServerConfig{Password: "hunter2"}, password: "hunter2"},
		{name: "password optional", cfg: api.ServerConfig{Password: "hunter2"}},
		{name: "wrong password", cfg: api.ServerConfig{Password: "hunter2"}, password: "hunter3", wantErr: "401 Unauthorized: invalid password"},
		{name: "auth required", cfg: api.ServerConfig{Password: "hunter2", RequireAuth: true}, wantErr: "401 Unauthorized: authentication required"},
		{name: "auth not enabled", cfg: api.ServerConfig{}, password: "hunter2", wantErr: "authentication not enabled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, _ := handlerTest.StartAPIServer(t, tt.cfg, virtualruntime.Options{}, handler.RegisterAll)
			c := apiclient.New(addr)
			if tt.password != "" {
				c = apiclient.NewWithPassword(addr, tt.password)
			}
			resp, err := c.Ping()
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "vrpoll", resp.Server)
		})
	}
}

func TestServerRequireAuthWithoutPassword(t *testing.T) {
	srv := api.New(virtualruntime.New(virtualruntime.Options{}), api.ServerConfig{Addr: "127.0.0.1:0", RequireAuth: true}, slog.Default(), nil)
	assert.ErrorContains(t, srv.Start(), "no password configured")
}

func TestServerSessionIdleTimeout(t *testing.T) {
	_, srv := handlerTest.StartAPIServer(t, api.ServerConfig{SessionIdleTimeout: 50 * time.Millisecond}, virtualruntime.Options{}, nil)

	id, err := srv.OpenSession(context.Background(), tracking.ModeScene)
	require.NoError(t, err)
	assert.Equal(t, 1, srv.SessionCount())

	for range 3 {
		time.Sleep(20 * time.Millisecond)
		_, ok := srv.Session(id)
		require.True(t, ok, "session expired while in use")
	}

	assert.Eventually(t, func() bool { return srv.SessionCount() == 0 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, srv.Runtime().ActiveSessions())
	assert.Error(t, srv.CloseSession(id))
}

func TestServerCloseReleasesSessions(t *testing.T) {
	rt := virtualruntime.New(virtualruntime.Options{})
	srv := api.New(rt, api.ServerConfig{Addr: "127.0.0.1:0"}, slog.Default(), nil)
	require.NoError(t, srv.Start())
	<-srv.Ready()

	for range 2 {
		_, err := srv.OpenSession(context.Background(), tracking.ModeScene)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, rt.ActiveSessions())

	srv.Close()
	assert.Equal(t, 0, srv.SessionCount())
	assert.Equal(t, 0, rt.ActiveSessions())
}
