package cmd

import (
	"context"
	"errors"

	"github.com/Alia5/vrpoll/controllers"
	"github.com/Alia5/vrpoll/tracking"
)

// Process exit codes.
const (
	ExitOK      = 0
	ExitInit    = 1 // tracking runtime initialization failed
	ExitSetup   = 2 // logger or configuration setup failed
	ExitTimeout = 3 // bounded controller wait gave up
	ExitError   = 4
	ExitLost    = 5 // the runtime ended the tracking session
)

// ExitCode maps a command error onto a process exit code.
// A user-cancelled wait counts as success. An init failure never does, even
// when it wraps a context error.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, tracking.ErrInit):
		return ExitInit
	case errors.Is(err, controllers.ErrCancelled), errors.Is(err, context.Canceled):
		return ExitOK
	case errors.Is(err, controllers.ErrSessionLost), errors.Is(err, tracking.ErrSessionClosed):
		return ExitLost
	case errors.Is(err, controllers.ErrTimeout):
		return ExitTimeout
	default:
		return ExitError
	}
}
