package apiclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Alia5/vrpoll/apitypes"
	apierror "github.com/Alia5/vrpoll/internal/server/api/error"
	"github.com/Alia5/vrpoll/tracking"
)

// Runtime is a tracking.Runtime served by a remote vrpoll API server.
type Runtime struct {
	client *Client
	logger *slog.Logger
}

var _ tracking.Runtime = (*Runtime)(nil)

// NewRuntime wraps c. A nil logger falls back to slog.Default().
func NewRuntime(c *Client, logger *slog.Logger) *Runtime {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runtime{client: c, logger: logger}
}

func (r *Runtime) info(ctx context.Context) (*apitypes.RuntimeInfoResponse, error) {
	info, err := r.client.RuntimeInfoCtx(ctx)
	if err != nil {
		r.logger.Warn("runtime info request failed", "error", err)
	}
	return info, err
}

func (r *Runtime) IsHmdPresent(ctx context.Context) bool {
	info, err := r.info(ctx)
	return err == nil && info.HmdPresent
}

func (r *Runtime) IsRuntimeInstalled(ctx context.Context) bool {
	info, err := r.info(ctx)
	return err == nil && info.RuntimeInstalled
}

func (r *Runtime) RuntimePath(ctx context.Context) (string, error) {
	info, err := r.info(ctx)
	if err != nil {
		return "", err
	}
	if !info.RuntimeInstalled {
		return "", fmt.Errorf("%w: runtime not installed", tracking.ErrInit)
	}
	return info.RuntimePath, nil
}

// Init opens a remote session. Any failure, including an unreachable
// server, wraps tracking.ErrInit.
func (r *Runtime) Init(ctx context.Context, mode tracking.ApplicationMode) (tracking.Session, error) {
	resp, err := r.client.SessionInitCtx(ctx, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", tracking.ErrInit, err)
	}
	r.logger.Debug("remote session opened", "sessionId", resp.SessionID, "mode", resp.Mode)
	return &remoteSession{client: r.client, id: resp.SessionID, logger: r.logger.With("sessionId", resp.SessionID)}, nil
}

type remoteSession struct {
	client *Client
	id     uint32
	logger *slog.Logger

	mu   sync.Mutex
	lost error
}

var (
	_ tracking.ContextResolver = (*remoteSession)(nil)
	_ tracking.Monitored       = (*remoteSession)(nil)
)

// Err returns a tracking.ErrSessionClosed error once the server stopped
// knowing this session, e.g. after its idle timeout.
func (s *remoteSession) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lost
}

// markLost records err if it is the server's "session not found" problem
// for this session.
func (s *remoteSession) markLost(err error) bool {
	var apiErr *apitypes.ApiError
	if !errors.As(err, &apiErr) || *apiErr != apierror.ErrSessionNotFound(s.id) {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lost == nil {
		s.lost = fmt.Errorf("%w: %s", tracking.ErrSessionClosed, apiErr.Detail)
		s.logger.Warn("remote session lost", "error", apiErr)
	}
	return true
}

func (s *remoteSession) DeviceIndexForRole(role tracking.ControllerRole) tracking.DeviceIndex {
	return s.DeviceIndexForRoleCtx(context.Background(), role)
}

// DeviceIndexForRoleCtx never fails: transport errors are logged and
// reported as an unbound role so the caller simply polls again.
func (s *remoteSession) DeviceIndexForRoleCtx(ctx context.Context, role tracking.ControllerRole) tracking.DeviceIndex {
	if s.Err() != nil {
		return tracking.InvalidDeviceIndex
	}
	resp, err := s.client.RoleIndexCtx(ctx, s.id, role)
	if err != nil {
		if !s.markLost(err) && ctx.Err() == nil {
			s.logger.Warn("role lookup failed", "role", role, "error", err)
		}
		return tracking.InvalidDeviceIndex
	}
	idx := tracking.DeviceIndex(resp.Index)
	if !idx.Valid() {
		return tracking.InvalidDeviceIndex
	}
	return idx
}

func (s *remoteSession) DeviceClass(idx tracking.DeviceIndex) tracking.DeviceClass {
	if s.Err() != nil {
		return tracking.ClassInvalid
	}
	resp, err := s.client.DeviceClass(s.id, idx)
	if err != nil {
		if !s.markLost(err) {
			s.logger.Warn("device class lookup failed", "index", idx, "error", err)
		}
		return tracking.ClassInvalid
	}
	c, _ := tracking.ParseDeviceClass(resp.Class)
	return c
}

func (s *remoteSession) SkeletalSummary(role tracking.ControllerRole) (tracking.SkeletalSummary, error) {
	var out tracking.SkeletalSummary
	if err := s.Err(); err != nil {
		return out, err
	}
	resp, err := s.client.Skeleton(s.id, role)
	if err != nil {
		if s.markLost(err) {
			return out, s.Err()
		}
		var apiErr *apitypes.ApiError
		if errors.As(err, &apiErr) && apiErr.Status == 404 {
			return out, fmt.Errorf("%w: %s", tracking.ErrNoSkeleton, apiErr.Detail)
		}
		return out, err
	}
	if len(resp.Curl) != tracking.FingerCount || len(resp.Splay) != tracking.FingerSplayCount {
		return out, fmt.Errorf("malformed skeletal summary: %d curl, %d splay values", len(resp.Curl), len(resp.Splay))
	}
	copy(out.FingerCurl[:], resp.Curl)
	copy(out.FingerSplay[:], resp.Splay)
	return out, nil
}

// Shutdown releases the remote session. A session the server already
// dropped reports tracking.ErrSessionClosed.
func (s *remoteSession) Shutdown() error {
	if err := s.Err(); err != nil {
		return err
	}
	_, err := s.client.SessionShutdown(s.id)
	if err != nil && s.markLost(err) {
		return s.Err()
	}
	return err
}
