package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Info prints what the tracking runtime reports without opening a session.
type Info struct {
	RuntimeSource `embed:""`
}

// Run is called by Kong when the info command is executed.
func (i *Info) Run(logger *slog.Logger) error {
	rt, err := i.Runtime(logger)
	if err != nil {
		return err
	}
	return printRuntimeInfo(context.Background(), rt, os.Stdout)
}

type runtimeInfo interface {
	IsHmdPresent(ctx context.Context) bool
	IsRuntimeInstalled(ctx context.Context) bool
	RuntimePath(ctx context.Context) (string, error)
}

func printRuntimeInfo(ctx context.Context, rt runtimeInfo, out io.Writer) error {
	fmt.Fprintf(out, "HMD present:       %t\n", rt.IsHmdPresent(ctx))
	installed := rt.IsRuntimeInstalled(ctx)
	fmt.Fprintf(out, "Runtime installed: %t\n", installed)
	if !installed {
		return nil
	}
	p, err := rt.RuntimePath(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Runtime path:      %s\n", p)
	return nil
}
