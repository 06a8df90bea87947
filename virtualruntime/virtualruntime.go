// Package virtualruntime is an in-memory tracking runtime: a table of device
// slots plus controller role bindings. It never computes poses.
package virtualruntime

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Alia5/vrpoll/tracking"
)

// DefaultPath is reported by RuntimePath when Options.Path is empty.
const DefaultPath = "virtual://vrpoll"

var (
	ErrNoFreeSlot  = errors.New("no free device slot")
	ErrSlotInUse   = errors.New("device slot already in use")
	ErrRoleBound   = errors.New("controller role already bound")
	ErrNoDevice    = errors.New("no device at index")
	ErrRoleOnClass = errors.New("only controllers can take a hand role")
)

// Options configure a Runtime.
type Options struct {
	// Missing makes Init fail the way an uninstalled runtime would.
	Missing bool `help:"Report the runtime as not installed" env:"VRPOLL_SIM_MISSING"`

	// NoHMD leaves slot 0 empty.
	NoHMD bool `help:"Start without a head-mounted display" env:"VRPOLL_SIM_NO_HMD"`

	Path string `help:"Runtime path reported to clients" default:"virtual://vrpoll" env:"VRPOLL_SIM_PATH"`

	// ConnectAfter, when > 0, makes a left and a right controller appear
	// once their role has been looked up that many times.
	ConnectAfter int `help:"Connect scripted hand controllers after this many role lookups (0 disables)" default:"0" env:"VRPOLL_SIM_CONNECT_AFTER"`
}

// Device describes one occupied slot.
type Device struct {
	Index tracking.DeviceIndex
	Class tracking.DeviceClass
	Role  tracking.ControllerRole
}

// Runtime implements tracking.Runtime.
type Runtime struct {
	mutex     sync.Mutex
	opts      Options
	slots     [tracking.MaxTrackedDeviceCount]*Device
	roles     map[tracking.ControllerRole]tracking.DeviceIndex
	skeletons map[tracking.ControllerRole]tracking.SkeletalSummary
	lookups   map[tracking.ControllerRole]int
	scripted  map[tracking.ControllerRole]bool
	sessions  int
}

var _ tracking.Runtime = (*Runtime)(nil)

// New creates a runtime with the given options.
func New(opts Options) *Runtime {
	if opts.Path == "" {
		opts.Path = DefaultPath
	}
	rt := &Runtime{
		opts:      opts,
		roles:     make(map[tracking.ControllerRole]tracking.DeviceIndex),
		skeletons: make(map[tracking.ControllerRole]tracking.SkeletalSummary),
		lookups:   make(map[tracking.ControllerRole]int),
		scripted:  make(map[tracking.ControllerRole]bool),
	}
	if !opts.NoHMD {
		rt.slots[tracking.HmdDeviceIndex] = &Device{Index: tracking.HmdDeviceIndex, Class: tracking.ClassHMD}
	}
	return rt
}

func (rt *Runtime) IsHmdPresent(context.Context) bool {
	rt.mutex.Lock()
	defer rt.mutex.Unlock()
	d := rt.slots[tracking.HmdDeviceIndex]
	return d != nil && d.Class == tracking.ClassHMD
}

func (rt *Runtime) IsRuntimeInstalled(context.Context) bool {
	return !rt.opts.Missing
}

func (rt *Runtime) RuntimePath(context.Context) (string, error) {
	if rt.opts.Missing {
		return "", fmt.Errorf("%w: runtime not installed", tracking.ErrInit)
	}
	return rt.opts.Path, nil
}

// Init opens a new session.
func (rt *Runtime) Init(ctx context.Context, mode tracking.ApplicationMode) (tracking.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", tracking.ErrInit, err)
	}
	if rt.opts.Missing {
		return nil, fmt.Errorf("%w: runtime not installed", tracking.ErrInit)
	}
	rt.mutex.Lock()
	defer rt.mutex.Unlock()
	rt.sessions++
	return &session{rt: rt, mode: mode}, nil
}

// ActiveSessions returns the number of sessions not yet shut down.
func (rt *Runtime) ActiveSessions() int {
	rt.mutex.Lock()
	defer rt.mutex.Unlock()
	return rt.sessions
}

// Connect occupies the lowest free slot with a device of class c. Slot 0 is
// reserved for the HMD. A role other than RoleInvalid binds the new
// controller to that hand.
func (rt *Runtime) Connect(c tracking.DeviceClass, role tracking.ControllerRole) (Device, error) {
	rt.mutex.Lock()
	defer rt.mutex.Unlock()
	return rt.connectLocked(c, role)
}

func (rt *Runtime) connectLocked(c tracking.DeviceClass, role tracking.ControllerRole) (Device, error) {
	if c == tracking.ClassInvalid {
		return Device{}, fmt.Errorf("cannot connect device of class %s", c)
	}
	if role != tracking.RoleInvalid {
		if c != tracking.ClassController {
			return Device{}, ErrRoleOnClass
		}
		if idx, ok := rt.roles[role]; ok {
			return Device{}, fmt.Errorf("%w: %s is device %s", ErrRoleBound, role, idx)
		}
	}

	var idx tracking.DeviceIndex
	if c == tracking.ClassHMD {
		if rt.slots[tracking.HmdDeviceIndex] != nil {
			return Device{}, fmt.Errorf("%w: %d", ErrSlotInUse, tracking.HmdDeviceIndex)
		}
		idx = tracking.HmdDeviceIndex
	} else {
		idx = tracking.InvalidDeviceIndex
		for i := tracking.DeviceIndex(1); i < tracking.MaxTrackedDeviceCount; i++ {
			if rt.slots[i] == nil {
				idx = i
				break
			}
		}
		if idx == tracking.InvalidDeviceIndex {
			return Device{}, ErrNoFreeSlot
		}
	}

	d := &Device{Index: idx, Class: c, Role: role}
	rt.slots[idx] = d
	if role != tracking.RoleInvalid {
		rt.roles[role] = idx
	}
	return *d, nil
}

// Disconnect frees the slot at idx and drops its role binding.
func (rt *Runtime) Disconnect(idx tracking.DeviceIndex) (Device, error) {
	rt.mutex.Lock()
	defer rt.mutex.Unlock()
	if !idx.Valid() || rt.slots[idx] == nil {
		return Device{}, fmt.Errorf("%w %s", ErrNoDevice, idx)
	}
	d := *rt.slots[idx]
	rt.slots[idx] = nil
	if d.Role != tracking.RoleInvalid {
		delete(rt.roles, d.Role)
	}
	return d, nil
}

// Devices returns all occupied slots in index order.
func (rt *Runtime) Devices() []Device {
	rt.mutex.Lock()
	defer rt.mutex.Unlock()
	out := make([]Device, 0, len(rt.slots))
	for _, d := range rt.slots {
		if d != nil {
			out = append(out, *d)
		}
	}
	return out
}

// SetSkeletalSummary stores the finger readout reported for role.
func (rt *Runtime) SetSkeletalSummary(role tracking.ControllerRole, s tracking.SkeletalSummary) {
	rt.mutex.Lock()
	defer rt.mutex.Unlock()
	rt.skeletons[role] = s
}

func (rt *Runtime) deviceIndexForRole(role tracking.ControllerRole) tracking.DeviceIndex {
	rt.mutex.Lock()
	defer rt.mutex.Unlock()

	if rt.opts.ConnectAfter > 0 && role != tracking.RoleInvalid && !rt.scripted[role] {
		rt.lookups[role]++
		if rt.lookups[role] >= rt.opts.ConnectAfter {
			rt.scripted[role] = true
			if _, bound := rt.roles[role]; !bound {
				// A full table just leaves the role unresolved.
				_, _ = rt.connectLocked(tracking.ClassController, role)
			}
		}
	}

	if idx, ok := rt.roles[role]; ok {
		return idx
	}
	return tracking.InvalidDeviceIndex
}

func (rt *Runtime) deviceClass(idx tracking.DeviceIndex) tracking.DeviceClass {
	rt.mutex.Lock()
	defer rt.mutex.Unlock()
	if !idx.Valid() || rt.slots[idx] == nil {
		return tracking.ClassInvalid
	}
	return rt.slots[idx].Class
}

func (rt *Runtime) skeletalSummary(role tracking.ControllerRole) (tracking.SkeletalSummary, error) {
	rt.mutex.Lock()
	defer rt.mutex.Unlock()
	if _, ok := rt.roles[role]; !ok {
		return tracking.SkeletalSummary{}, fmt.Errorf("%w %s", tracking.ErrNoSkeleton, role)
	}
	return rt.skeletons[role], nil
}

func (rt *Runtime) release() {
	rt.mutex.Lock()
	defer rt.mutex.Unlock()
	if rt.sessions > 0 {
		rt.sessions--
	}
}
