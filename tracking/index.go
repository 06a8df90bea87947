// Package tracking defines the device model and the capability interfaces
// used to talk to a VR tracking runtime.
package tracking

import "strconv"

// DeviceIndex identifies one tracked device within a session.
type DeviceIndex uint32

const (
	// InvalidDeviceIndex is returned when no device is bound to a role.
	InvalidDeviceIndex DeviceIndex = 0xFFFFFFFF
	// HmdDeviceIndex is always the head-mounted display.
	HmdDeviceIndex DeviceIndex = 0
	// MaxTrackedDeviceCount is the number of device slots a runtime exposes.
	MaxTrackedDeviceCount = 64
)

// Valid reports whether i addresses a device slot.
func (i DeviceIndex) Valid() bool {
	return i < MaxTrackedDeviceCount
}

func (i DeviceIndex) String() string {
	if i == InvalidDeviceIndex {
		return "invalid"
	}
	return strconv.FormatUint(uint64(i), 10)
}

// ParseDeviceIndex parses a decimal device index. The literal "invalid" maps
// to InvalidDeviceIndex.
func ParseDeviceIndex(s string) (DeviceIndex, error) {
	if s == "invalid" {
		return InvalidDeviceIndex, nil
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return InvalidDeviceIndex, err
	}
	return DeviceIndex(n), nil
}

// DeviceClass is the kind of a tracked device.
type DeviceClass uint8

const (
	ClassInvalid DeviceClass = iota
	ClassHMD
	ClassController
	ClassGenericTracker
	ClassTrackingReference
)

var classNames = map[DeviceClass]string{
	ClassInvalid:           "invalid",
	ClassHMD:               "hmd",
	ClassController:        "controller",
	ClassGenericTracker:    "tracker",
	ClassTrackingReference: "reference",
}

func (c DeviceClass) String() string {
	if n, ok := classNames[c]; ok {
		return n
	}
	return "invalid"
}

// ParseDeviceClass maps a class name back to its DeviceClass.
// Unknown names yield ClassInvalid and ok=false.
func ParseDeviceClass(s string) (DeviceClass, bool) {
	for c, n := range classNames {
		if n == s {
			return c, c != ClassInvalid
		}
	}
	return ClassInvalid, false
}
