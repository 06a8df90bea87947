package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/Alia5/vrpoll/apiclient"
	"github.com/Alia5/vrpoll/internal/configpaths"
	"github.com/Alia5/vrpoll/tracking"
	"github.com/Alia5/vrpoll/virtualruntime"
)

// RuntimeSource selects the tracking runtime a command talks to: a remote
// vrpoll API server when Addr is set, an in-process virtual runtime otherwise.
type RuntimeSource struct {
	Addr     string                 `help:"vrpoll API server address; empty runs an in-process virtual runtime" env:"VRPOLL_ADDR"`
	Password string                 `help:"API password; '-' prompts, empty falls back to the local key file" env:"VRPOLL_PASSWORD"`
	Sim      virtualruntime.Options `embed:"" prefix:"sim."`
}

// Runtime builds the selected tracking runtime.
func (s *RuntimeSource) Runtime(logger *slog.Logger) (tracking.Runtime, error) {
	if s.Addr == "" {
		logger.Debug("using in-process virtual runtime", "connectAfter", s.Sim.ConnectAfter)
		return virtualruntime.New(s.Sim), nil
	}
	c, err := newClient(s.Addr, s.Password, logger)
	if err != nil {
		return nil, err
	}
	return apiclient.NewRuntime(c, logger), nil
}

// Remote holds the connection flags of commands that always need a server.
type Remote struct {
	Addr     string `help:"vrpoll API server address" default:"localhost:3243" env:"VRPOLL_ADDR"`
	Password string `help:"API password; '-' prompts, empty falls back to the local key file" env:"VRPOLL_PASSWORD"`
}

func (r *Remote) client(logger *slog.Logger) (*apiclient.Client, error) {
	return newClient(r.Addr, r.Password, logger)
}

func newClient(addr, password string, logger *slog.Logger) (*apiclient.Client, error) {
	pwd, err := resolvePassword(addr, password, logger)
	if err != nil {
		return nil, err
	}
	if pwd == "" {
		return apiclient.New(addr), nil
	}
	return apiclient.NewWithPassword(addr, pwd), nil
}

func resolvePassword(addr, password string, logger *slog.Logger) (string, error) {
	switch password {
	case "-":
		fd := int(os.Stdin.Fd())
		if !term.IsTerminal(fd) {
			return "", errors.New("password prompt requires an interactive terminal")
		}
		fmt.Fprint(os.Stderr, "API password: ")
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	case "":
		if !isLoopback(addr) {
			return "", nil
		}
		path, err := configpaths.DefaultKeyFilePath()
		if err != nil {
			return "", nil
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return "", nil
		}
		logger.Debug("using API password from key file", "path", path)
		return strings.TrimSpace(string(b)), nil
	default:
		return password, nil
	}
}

func isLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	if host == "" || strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
