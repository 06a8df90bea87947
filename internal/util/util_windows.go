//go:build windows

// Package util holds platform helpers for console handling.
package util

import (
	"log/slog"
	"os"
	"slices"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	kernel32             = windows.NewLazySystemDLL("kernel32.dll")
	user32               = windows.NewLazySystemDLL("user32.dll")
	procGetConsoleWindow = kernel32.NewProc("GetConsoleWindow")
	procShowWindow       = user32.NewProc("ShowWindow")
	procFreeConsole      = kernel32.NewProc("FreeConsole")
)

var shells = []string{
	"cmd.exe",
	"powershell.exe",
	"pwsh.exe",
	"wt.exe",
	"conhost.exe",
	"windowsterminal.exe",
	"bash.exe",
}

// IsRunFromGUI reports whether vrpoll was started from Explorer (or without
// a console at all) instead of from a shell.
func IsRunFromGUI() bool {
	hwnd, _, _ := procGetConsoleWindow.Call()
	parent := strings.ToLower(parentProcessName())
	slog.Debug("parent process", "name", parent, "hasConsole", hwnd != 0)

	switch {
	case hwnd == 0:
		return true
	case slices.Contains(shells, parent):
		return false
	default:
		return parent == "explorer.exe"
	}
}

// HideConsoleWindow hides and detaches the console window, if any.
func HideConsoleWindow() {
	hwnd, _, _ := procGetConsoleWindow.Call()
	if hwnd == 0 {
		slog.Debug("no console window to hide")
		return
	}
	_, _, _ = procShowWindow.Call(hwnd, windows.SW_HIDE)
	_, _, _ = procFreeConsole.Call()
}

func parentProcessName() string {
	snapshot, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return ""
	}
	defer windows.CloseHandle(snapshot)

	self, ok := findProcess(snapshot, uint32(os.Getpid()))
	if !ok || self.ParentProcessID == 0 {
		return ""
	}
	parent, ok := findProcess(snapshot, self.ParentProcessID)
	if !ok {
		return ""
	}
	return windows.UTF16ToString(parent.ExeFile[:])
}

func findProcess(snapshot windows.Handle, pid uint32) (windows.ProcessEntry32, bool) {
	var pe windows.ProcessEntry32
	pe.Size = uint32(unsafe.Sizeof(pe))
	for err := windows.Process32First(snapshot, &pe); err == nil; err = windows.Process32Next(snapshot, &pe) {
		if pe.ProcessID == pid {
			return pe, true
		}
	}
	return pe, false
}
