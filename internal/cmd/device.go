package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/Alia5/vrpoll/apitypes"
	"github.com/Alia5/vrpoll/tracking"
)

// DeviceCommand groups subcommands that edit the device table of a served
// virtual runtime.
type DeviceCommand struct {
	Connect    DeviceConnect    `cmd:"" help:"Connect a device"`
	Disconnect DeviceDisconnect `cmd:"" help:"Disconnect the device at an index"`
	List       DeviceList       `cmd:"" help:"List connected devices"`
}

// DeviceConnect connects a device, optionally bound to a hand.
type DeviceConnect struct {
	Remote `embed:""`
	Class  string `arg:"" name:"class" help:"Device class" enum:"hmd,controller,tracker,reference"`
	Role   string `help:"Hand role of a controller" enum:"left,right,none" default:"none"`
}

// Run is called by Kong when the device connect command is executed.
func (c *DeviceConnect) Run(logger *slog.Logger) error {
	class, ok := tracking.ParseDeviceClass(c.Class)
	if !ok {
		return fmt.Errorf("unknown device class %q", c.Class)
	}
	role := tracking.RoleInvalid
	if c.Role != "none" {
		r, err := tracking.ParseControllerRole(c.Role)
		if err != nil {
			return err
		}
		role = r
	}
	client, err := c.client(logger)
	if err != nil {
		return err
	}
	d, err := client.DeviceConnect(class, role)
	if err != nil {
		return err
	}
	return printDevices(os.Stdout, []apitypes.Device{*d})
}

// DeviceDisconnect frees a device slot.
type DeviceDisconnect struct {
	Remote `embed:""`
	Index  uint32 `arg:"" name:"index" help:"Device index"`
}

// Run is called by Kong when the device disconnect command is executed.
func (c *DeviceDisconnect) Run(logger *slog.Logger) error {
	client, err := c.client(logger)
	if err != nil {
		return err
	}
	d, err := client.DeviceDisconnect(tracking.DeviceIndex(c.Index))
	if err != nil {
		return err
	}
	return printDevices(os.Stdout, []apitypes.Device{*d})
}

// DeviceList prints the device table.
type DeviceList struct {
	Remote `embed:""`
}

// Run is called by Kong when the device list command is executed.
func (c *DeviceList) Run(logger *slog.Logger) error {
	client, err := c.client(logger)
	if err != nil {
		return err
	}
	resp, err := client.DeviceList()
	if err != nil {
		return err
	}
	return printDevices(os.Stdout, resp.Devices)
}

func printDevices(out io.Writer, devs []apitypes.Device) error {
	w := tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "INDEX\tCLASS\tROLE")
	for _, d := range devs {
		role := d.Role
		if role == "" {
			role = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", d.Index, d.Class, role)
	}
	return w.Flush()
}
