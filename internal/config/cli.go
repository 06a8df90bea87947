// Package config holds the root command-line interface definition.
package config

import (
	"github.com/alecthomas/kong"

	"github.com/Alia5/vrpoll/internal/cmd"
	"github.com/Alia5/vrpoll/internal/log"
)

// CLI is the root kong model. Every flag may also come from a JSON, YAML or
// TOML config file or from VRPOLL_* environment variables.
type CLI struct {
	ConfigFile string           `name:"config" help:"Path to a JSON, YAML or TOML config file" env:"VRPOLL_CONFIG"`
	Log        log.Config       `embed:"" prefix:"log."`
	Version    kong.VersionFlag `help:"Print the version and exit"`

	Wait   cmd.Wait          `cmd:"" default:"withargs" help:"Wait for both hand controllers and print their device indices"`
	Serve  cmd.Serve         `cmd:"" help:"Serve a virtual tracking runtime over the management API"`
	Info   cmd.Info          `cmd:"" help:"Print HMD presence and runtime installation state"`
	Device cmd.DeviceCommand `cmd:"" help:"Edit the device table of a served virtual runtime"`
	Config cmd.ConfigCommand `cmd:"" help:"Configuration file helpers"`
}
