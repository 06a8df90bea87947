package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/Alia5/vrpoll/internal/log"
	"github.com/Alia5/vrpoll/internal/server/api/auth"
	"github.com/Alia5/vrpoll/tracking"
	"github.com/Alia5/vrpoll/virtualruntime"
)

var wsRegex = regexp.MustCompile(`\s`)

// Server implements a small TCP API exposing a virtual tracking runtime.
type Server struct {
	rt        *virtualruntime.Runtime
	addr      string
	ln        net.Listener
	logger    *slog.Logger
	rawLogger log.RawLogger
	router    *Router
	config    ServerConfig
	sessions  *sessionTable
	key       []byte
	ready     chan struct{}
}

// New creates a new API server bound to a virtual runtime.
func New(rt *virtualruntime.Runtime, config ServerConfig, logger *slog.Logger, rawLogger log.RawLogger) *Server {
	if rawLogger == nil {
		rawLogger = log.NewRaw(nil)
	}
	a := &Server{
		rt:        rt,
		addr:      config.Addr,
		logger:    logger,
		rawLogger: rawLogger,
		config:    config,
		ready:     make(chan struct{}),
	}
	a.router = NewRouter()
	a.sessions = newSessionTable(config.SessionIdleTimeout, func(id uint32, _ error) {
		logger.Info("session idle timeout: shut down", "sessionId", id)
	})
	return a
}

// Router returns the router used by the API server so callers can register handlers.
func (a *Server) Router() *Router { return a.router }

// Runtime returns the served virtual runtime.
func (a *Server) Runtime() *virtualruntime.Runtime { return a.rt }

// Config returns the server configuration.
func (a *Server) Config() ServerConfig { return a.config }

// Addr returns the bound listen address once Start succeeded.
func (a *Server) Addr() string {
	if a.ln != nil {
		return a.ln.Addr().String()
	}
	return a.addr
}

// Ready is closed once the server accepts connections.
func (a *Server) Ready() <-chan struct{} { return a.ready }

// OpenSession initializes a runtime session and returns its id.
func (a *Server) OpenSession(ctx context.Context, mode tracking.ApplicationMode) (uint32, error) {
	return a.sessions.open(ctx, a.rt, mode)
}

// Session looks up an open session and keeps it alive.
func (a *Server) Session(id uint32) (tracking.Session, bool) {
	return a.sessions.get(id)
}

// CloseSession shuts a session down and forgets it.
func (a *Server) CloseSession(id uint32) error {
	return a.sessions.close(id)
}

// SessionCount returns the number of open sessions.
func (a *Server) SessionCount() int { return a.sessions.count() }

// Start listens on the configured address and serves incoming API commands.
func (a *Server) Start() error {
	if a.config.Password != "" {
		key, err := auth.DeriveKey(a.config.Password)
		if err != nil {
			return fmt.Errorf("derive API key: %w", err)
		}
		a.key = key
	} else if a.config.RequireAuth {
		return errors.New("auth required but no password configured")
	}

	ln, err := net.Listen("tcp", a.addr)
	if err != nil {
		return err
	}
	a.ln = ln
	a.logger.Info("API listening", "addr", ln.Addr().String(), "auth", a.key != nil)
	close(a.ready)
	go a.serve()
	return nil
}

// Close stops the API server and shuts down every open session.
func (a *Server) Close() {
	if a.ln != nil {
		_ = a.ln.Close()
	}
	a.sessions.closeAll()
}

func (a *Server) serve() {
	for {
		c, err := a.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				a.logger.Info("API server stopped")
				return
			}
			a.logger.Info("API accept error", "error", err)
			return
		}
		go a.handleConn(c)
	}
}

func (a *Server) write(w io.Writer, line string) {
	out := []byte(line + "\n")
	a.rawLogger.Log(false, out)
	_, _ = w.Write(out)
}

func (a *Server) writeError(w io.Writer, err error) {
	problemJSON, _ := json.Marshal(WrapError(err))
	a.write(w, string(problemJSON))
}

// authenticate handles the optional handshake and returns the connection
// and reader to use for the request.
func (a *Server) authenticate(conn net.Conn, r *bufio.Reader) (io.Writer, *bufio.Reader, error) {
	isAuth, _ := auth.IsAuthHandshake(r)
	if !isAuth {
		if a.config.RequireAuth {
			return nil, nil, ErrUnauthorized("authentication required")
		}
		return conn, r, nil
	}
	if a.key == nil {
		return nil, nil, ErrUnauthorized("authentication not enabled on this server")
	}
	sc, err := auth.Accept(conn, r, a.key)
	if err != nil {
		return nil, nil, err
	}
	return sc, bufio.NewReader(sc), nil
}

func (a *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	if a.config.ConnectionTimeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(a.config.ConnectionTimeout))
	}

	connCtx, connCancel := context.WithCancel(context.Background())
	defer connCancel()

	connLogger := a.logger.With("remote", conn.RemoteAddr().String())

	w, r, err := a.authenticate(conn, bufio.NewReader(conn))
	if err != nil {
		connLogger.Warn("api auth failed", "error", err)
		a.writeError(conn, err)
		return
	}

	reqData, err := r.ReadString('\x00')
	if err != nil {
		if errors.Is(err, io.EOF) {
			connLogger.Error("api incomplete request (no null terminator)")
		} else {
			connLogger.Error("read api data", "error", err)
		}
		return
	}
	a.rawLogger.Log(true, []byte(reqData))
	reqData = strings.TrimSuffix(reqData, "\x00")

	if reqData == "" {
		connLogger.Error("api empty command")
		a.writeError(w, ErrBadRequest("empty request"))
		return
	}

	var path, payload string
	if loc := wsRegex.FindStringIndex(reqData); loc != nil {
		path = reqData[:loc[0]]
		payload = reqData[loc[1]:]
	} else {
		path = reqData
	}
	if path == "" {
		connLogger.Error("api empty path")
		a.writeError(w, ErrBadRequest("empty path"))
		return
	}

	path = strings.ToLower(path)
	connLogger.Debug("api cmd", "path", path)

	h, params := a.router.Match(path)
	if h == nil {
		connLogger.Error("api unknown path", "path", path)
		a.writeError(w, ErrNotFound(fmt.Sprintf("unknown path: %s", path)))
		return
	}

	req := &Request{Ctx: connCtx, Params: params, Payload: payload}
	res := &Response{}
	if err := h(req, res, connLogger); err != nil {
		connLogger.Error("api handler error", "path", path, "error", err)
		a.writeError(w, err)
		return
	}
	connLogger.Debug("api handler success", "path", path)
	a.write(w, res.JSON)
}
