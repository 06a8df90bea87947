package tracking

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrInit is wrapped by every Runtime.Init failure.
	ErrInit = errors.New("tracking runtime initialization failed")
	// ErrSessionClosed is returned by operations on a session that was shut down.
	ErrSessionClosed = errors.New("tracking session closed")
	// ErrNoSkeleton means the runtime has no skeletal data for the role.
	ErrNoSkeleton = errors.New("no skeletal data for role")
)

// RoleResolver is the single capability the readiness poller needs.
// DeviceIndexForRole never fails: an unbound role yields InvalidDeviceIndex.
type RoleResolver interface {
	DeviceIndexForRole(role ControllerRole) DeviceIndex
}

// ContextResolver is implemented by resolvers whose lookups block on I/O.
// A cancelled ctx ends the lookup early with InvalidDeviceIndex.
type ContextResolver interface {
	DeviceIndexForRoleCtx(ctx context.Context, role ControllerRole) DeviceIndex
}

// Monitored is implemented by sessions the runtime can end on its own.
// Err returns nil while the session is usable and an error wrapping
// ErrSessionClosed once it is gone.
type Monitored interface {
	Err() error
}

// Session is an initialized connection to a tracking runtime.
// Shutdown must be called exactly once per successful Init.
type Session interface {
	RoleResolver
	DeviceClass(index DeviceIndex) DeviceClass
	SkeletalSummary(role ControllerRole) (SkeletalSummary, error)
	Shutdown() error
}

// Runtime is the entry point into a tracking service.
type Runtime interface {
	IsHmdPresent(ctx context.Context) bool
	IsRuntimeInstalled(ctx context.Context) bool
	RuntimePath(ctx context.Context) (string, error)
	// Init establishes a session. Errors wrap ErrInit.
	Init(ctx context.Context, mode ApplicationMode) (Session, error)
}

// Guard wraps a Session so that Shutdown reaches the underlying session at
// most once, no matter how many exit paths call it.
type Guard struct {
	Session
	once sync.Once
	err  error
}

// NewGuard returns a Guard around s.
func NewGuard(s Session) *Guard {
	return &Guard{Session: s}
}

// Shutdown releases the session on first call and returns that result on
// every subsequent call.
func (g *Guard) Shutdown() error {
	g.once.Do(func() {
		g.err = g.Session.Shutdown()
	})
	return g.err
}

// DeviceIndexForRoleCtx forwards to the wrapped session's ContextResolver
// and falls back to DeviceIndexForRole.
func (g *Guard) DeviceIndexForRoleCtx(ctx context.Context, role ControllerRole) DeviceIndex {
	if r, ok := g.Session.(ContextResolver); ok {
		return r.DeviceIndexForRoleCtx(ctx, role)
	}
	return g.Session.DeviceIndexForRole(role)
}

// Err reports whether the runtime ended the wrapped session.
func (g *Guard) Err() error {
	if m, ok := g.Session.(Monitored); ok {
		return m.Err()
	}
	return nil
}
