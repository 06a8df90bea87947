// Package controllers waits for the left and right hand controllers of a
// tracking session to become available.
package controllers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Alia5/vrpoll/tracking"
)

// DefaultDelay is the pause between two unresolved lookups. Controllers are
// switched on by a person, so a fixed human-scale delay is enough.
const DefaultDelay = 2 * time.Second

var (
	// ErrCancelled is returned when the context ends before both controllers resolve.
	ErrCancelled = errors.New("waiting for controllers cancelled")
	// ErrTimeout is returned when MaxAttempts or MaxWait is exceeded.
	ErrTimeout = errors.New("timed out waiting for controllers")
	// ErrSessionLost is returned when the runtime ends the session mid-wait.
	ErrSessionLost = errors.New("tracking session lost while waiting for controllers")
)

// Pair holds the device indices of both hand controllers.
type Pair struct {
	Left  tracking.DeviceIndex
	Right tracking.DeviceIndex
}

// Ready reports whether both sides resolved.
func (p Pair) Ready() bool {
	return p.Left != tracking.InvalidDeviceIndex && p.Right != tracking.InvalidDeviceIndex
}

// Missing lists the roles that are still unresolved.
func (p Pair) Missing() []string {
	var out []string
	if p.Left == tracking.InvalidDeviceIndex {
		out = append(out, tracking.RoleLeftHand.String())
	}
	if p.Right == tracking.InvalidDeviceIndex {
		out = append(out, tracking.RoleRightHand.String())
	}
	return out
}

// Options tune Wait. The zero value waits forever with DefaultDelay.
type Options struct {
	Delay       time.Duration
	MaxAttempts int
	MaxWait     time.Duration
	Logger      *slog.Logger
	// OnWaiting is called after every unresolved attempt, before the delay.
	OnWaiting func(attempt int, p Pair)
	// After defaults to time.After.
	After func(d time.Duration) <-chan time.Time
	// Now defaults to time.Now and is only used for MaxWait.
	Now func() time.Time
}

func (o *Options) withDefaults() Options {
	out := *o
	if out.Delay <= 0 {
		out.Delay = DefaultDelay
	}
	if out.Logger == nil {
		out.Logger = slog.Default()
	}
	if out.After == nil {
		out.After = time.After
	}
	if out.Now == nil {
		out.Now = time.Now
	}
	return out
}

// Lookup queries both hand roles once. Nothing is cached between calls since
// role bindings may change at any time.
func Lookup(r tracking.RoleResolver) Pair {
	return Pair{
		Left:  r.DeviceIndexForRole(tracking.RoleLeftHand),
		Right: r.DeviceIndexForRole(tracking.RoleRightHand),
	}
}

// LookupCtx is Lookup for resolvers that implement
// tracking.ContextResolver; other resolvers ignore ctx.
func LookupCtx(ctx context.Context, r tracking.RoleResolver) Pair {
	cr, ok := r.(tracking.ContextResolver)
	if !ok {
		return Lookup(r)
	}
	return Pair{
		Left:  cr.DeviceIndexForRoleCtx(ctx, tracking.RoleLeftHand),
		Right: cr.DeviceIndexForRoleCtx(ctx, tracking.RoleRightHand),
	}
}

// Wait blocks until both hand roles resolve to valid device indices in the
// same attempt. It returns ErrCancelled when ctx ends and ErrTimeout when a
// configured bound is hit; in both cases the returned Pair holds the last
// lookup. A resolver implementing tracking.Monitored that reports its
// session gone ends the wait with ErrSessionLost.
func Wait(ctx context.Context, r tracking.RoleResolver, opts Options) (Pair, error) {
	o := opts.withDefaults()
	start := o.Now()

	var p Pair
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return p, fmt.Errorf("%w: %w", ErrCancelled, err)
		}
		p = LookupCtx(ctx, r)
		if p.Ready() {
			o.Logger.Debug("controllers resolved", "attempt", attempt, "left", p.Left, "right", p.Right)
			return p, nil
		}
		if err := ctx.Err(); err != nil {
			return p, fmt.Errorf("%w: %w", ErrCancelled, err)
		}
		if m, ok := r.(tracking.Monitored); ok {
			if err := m.Err(); err != nil {
				return p, fmt.Errorf("%w: %w", ErrSessionLost, err)
			}
		}

		o.Logger.Info("Waiting for controllers...", "attempt", attempt, "missing", p.Missing())
		if o.OnWaiting != nil {
			o.OnWaiting(attempt, p)
		}

		if o.MaxAttempts > 0 && attempt >= o.MaxAttempts {
			return p, fmt.Errorf("%w after %d attempts", ErrTimeout, attempt)
		}
		if o.MaxWait > 0 && o.Now().Sub(start)+o.Delay > o.MaxWait {
			return p, fmt.Errorf("%w after %s", ErrTimeout, o.MaxWait)
		}

		select {
		case <-ctx.Done():
			return p, fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
		case <-o.After(o.Delay):
		}
	}
}
