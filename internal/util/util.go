//go:build !windows

// Package util holds platform helpers for console handling.
package util

// IsRunFromGUI reports whether the process was launched by double-clicking
// it rather than from a shell. Only Windows can tell; elsewhere it is false.
func IsRunFromGUI() bool { return false }

// HideConsoleWindow detaches from the console window. No-op outside Windows.
func HideConsoleWindow() {}
