package cmd_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Alia5/vrpoll/controllers"
	"github.com/Alia5/vrpoll/internal/cmd"
	"github.com/Alia5/vrpoll/tracking"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "success", err: nil, want: cmd.ExitOK},
		{name: "cancelled wait", err: fmt.Errorf("%w: %w", controllers.ErrCancelled, context.Canceled), want: cmd.ExitOK},
		{name: "init failure", err: fmt.Errorf("%w: runtime not installed", tracking.ErrInit), want: cmd.ExitInit},
		{name: "wrapped init failure", err: fmt.Errorf("open session: %w", fmt.Errorf("%w: dial refused", tracking.ErrInit)), want: cmd.ExitInit},
		{name: "init failure wrapping cancellation", err: fmt.Errorf("%w: %w", tracking.ErrInit, context.Canceled), want: cmd.ExitInit},
		{name: "session lost", err: fmt.Errorf("%w: %w", controllers.ErrSessionLost, tracking.ErrSessionClosed), want: cmd.ExitLost},
		{name: "session closed during readout", err: fmt.Errorf("%w: session 1 not found", tracking.ErrSessionClosed), want: cmd.ExitLost},
		{name: "timeout", err: fmt.Errorf("%w after 3 attempts", controllers.ErrTimeout), want: cmd.ExitTimeout},
		{name: "other", err: errors.New("boom"), want: cmd.ExitError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cmd.ExitCode(tt.err))
		})
	}
}
