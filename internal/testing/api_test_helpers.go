// Package testing holds helpers shared by API tests.
package testing

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"testing"

	"github.com/Alia5/vrpoll/internal/log"
	"github.com/Alia5/vrpoll/internal/server/api"
	"github.com/Alia5/vrpoll/virtualruntime"
)

// StartAPIServer starts an API server on a free port in front of a fresh
// virtual runtime and calls register so the test can wire the handlers it
// needs. The server is closed when the test ends.
func StartAPIServer(
	t *testing.T,
	cfg api.ServerConfig,
	opts virtualruntime.Options,
	register func(srv *api.Server),
) (addr string, srv *api.Server) {
	t.Helper()
	cfg.Addr = "127.0.0.1:0"
	srv = api.New(virtualruntime.New(opts), cfg, slog.Default(), log.NewRaw(nil))
	if register != nil {
		register(srv)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("api start failed: %v", err)
	}
	t.Cleanup(srv.Close)
	return srv.Addr(), srv
}

// ExecCmd dials the API server, sends cmd and reads the full response.
// The command should not include the null terminator. Returns the response
// without the trailing newline.
func ExecCmd(t *testing.T, addr string, cmd string) string {
	t.Helper()
	c, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer c.Close()

	_, _ = fmt.Fprintf(c, "%s\x00", cmd)

	line, err := bufio.NewReader(c).ReadString('\n')
	if err != nil && err != io.EOF {
		t.Fatalf("read failed: %v", err)
	}
	return strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
}
