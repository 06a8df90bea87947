package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/Alia5/vrpoll/controllers"
	"github.com/Alia5/vrpoll/tracking"
)

const banner = "==========================="

// Wait opens a tracking session, blocks until both hand controllers are
// available and prints their device indices.
type Wait struct {
	RuntimeSource `embed:""`

	Mode        string        `help:"Application mode passed to the runtime" enum:"scene,overlay,background,utility,other" default:"scene" env:"VRPOLL_MODE"`
	Delay       time.Duration `help:"Pause between controller lookups" default:"2s" env:"VRPOLL_DELAY"`
	MaxAttempts int           `help:"Give up after this many lookups (0 waits forever)" default:"0" env:"VRPOLL_MAX_ATTEMPTS"`
	MaxWait     time.Duration `help:"Give up after this long (0 waits forever)" default:"0s" env:"VRPOLL_MAX_WAIT"`

	Skeleton         bool          `help:"Print the skeletal summary of both hands once the controllers are found" env:"VRPOLL_SKELETON"`
	SkeletonInterval time.Duration `help:"Interval between skeletal readouts" default:"1s" env:"VRPOLL_SKELETON_INTERVAL"`
	SkeletonCount    int           `help:"Number of skeletal readouts (0 streams until interrupted)" default:"1" env:"VRPOLL_SKELETON_COUNT"`
}

// Run is called by Kong when the wait command is executed.
func (w *Wait) Run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := w.Runtime(logger)
	if err != nil {
		return err
	}
	return w.Execute(ctx, rt, os.Stdout, logger)
}

// Execute runs the wait sequence against rt. The session opened here is
// shut down exactly once on every return path. A cancelled wait is a
// graceful exit and returns nil.
func (w *Wait) Execute(ctx context.Context, rt tracking.Runtime, out io.Writer, logger *slog.Logger) error {
	mode, err := tracking.ParseApplicationMode(w.Mode)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, banner)
	fmt.Fprintln(out, "Initializing tracking runtime...")
	if rt.IsHmdPresent(ctx) {
		fmt.Fprintln(out, "VR head set found")
	}
	if rt.IsRuntimeInstalled(ctx) {
		fmt.Fprintln(out, "Runtime is installed")
	}

	s, err := rt.Init(ctx, mode)
	if err != nil {
		if ctx.Err() != nil {
			fmt.Fprintln(out, "Control+C pressed, shutting down...")
			return nil
		}
		fmt.Fprintln(out, "Error when initializing tracking runtime")
		return err
	}
	session := tracking.NewGuard(s)
	defer func() {
		if err := session.Shutdown(); err != nil && !errors.Is(err, tracking.ErrSessionClosed) {
			logger.Warn("tracking session shutdown failed", "error", err)
		}
	}()
	fmt.Fprintln(out, "Tracking runtime initialization successful")
	if p, err := rt.RuntimePath(ctx); err == nil {
		fmt.Fprintln(out, p)
	}

	fmt.Fprintln(out, banner)
	fmt.Fprintln(out, "Waiting for controllers...")
	pair, err := controllers.Wait(ctx, session, controllers.Options{
		Delay:       w.Delay,
		MaxAttempts: w.MaxAttempts,
		MaxWait:     w.MaxWait,
		Logger:      logger,
	})
	if errors.Is(err, controllers.ErrCancelled) {
		fmt.Fprintln(out, "Control+C pressed, shutting down...")
		return nil
	}
	if errors.Is(err, controllers.ErrSessionLost) {
		fmt.Fprintln(out, "Tracking session lost")
		return err
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Controllers Found!")
	fmt.Fprintf(out, "Left controller ID: %s\n", pair.Left)
	fmt.Fprintf(out, "Right controller ID: %s\n", pair.Right)
	fmt.Fprintln(out, banner)

	if !w.Skeleton {
		return nil
	}
	if err := w.streamSkeleton(ctx, session, out); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(out, "Control+C pressed, shutting down...")
			return nil
		}
		return err
	}
	return nil
}

// streamSkeleton prints SkeletonCount readouts of both hands. On an
// interactive terminal each readout replaces the previous one.
func (w *Wait) streamSkeleton(ctx context.Context, s tracking.Session, out io.Writer) error {
	redraw := isTerminal(out)
	interval := w.SkeletonInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lines := 0
	for n := 0; w.SkeletonCount <= 0 || n < w.SkeletonCount; n++ {
		if n > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
		if redraw && lines > 0 {
			fmt.Fprintf(out, "\x1b[%dA\x1b[J", lines)
		}
		lines = 0
		for _, role := range tracking.HandRoles {
			sum, err := s.SkeletalSummary(role)
			if err != nil {
				if errors.Is(err, tracking.ErrSessionClosed) {
					return err
				}
				fmt.Fprintf(out, "%s hand: %v\n", role, err)
				lines++
				continue
			}
			lines += printSkeletalSummary(out, role, sum)
		}
	}
	return nil
}

func printSkeletalSummary(out io.Writer, role tracking.ControllerRole, s tracking.SkeletalSummary) int {
	fmt.Fprintf(out, "%s hand\n", role)
	for i, name := range tracking.FingerNames {
		fmt.Fprintf(out, "Curl of %s = %.4f\n", name, s.FingerCurl[i])
	}
	for i, name := range tracking.FingerSplayNames {
		fmt.Fprintf(out, "Splay between %s = %.4f\n", name, s.FingerSplay[i])
	}
	return 1 + len(tracking.FingerNames) + len(tracking.FingerSplayNames)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
