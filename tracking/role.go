package tracking

import (
	"fmt"
	"strings"
)

// ControllerRole is the logical hand a controller is assigned to.
type ControllerRole uint8

const (
	RoleInvalid ControllerRole = iota
	RoleLeftHand
	RoleRightHand
)

// HandRoles lists the roles the readiness poller waits for.
var HandRoles = [...]ControllerRole{RoleLeftHand, RoleRightHand}

func (r ControllerRole) String() string {
	switch r {
	case RoleLeftHand:
		return "left"
	case RoleRightHand:
		return "right"
	default:
		return "invalid"
	}
}

// ParseControllerRole accepts "left", "lefthand", "left_hand", "left-hand"
// and the right-hand equivalents, case-insensitive.
func ParseControllerRole(s string) (ControllerRole, error) {
	n := strings.ToLower(strings.TrimSpace(s))
	n = strings.NewReplacer("_", "", "-", "").Replace(n)
	switch n {
	case "left", "lefthand":
		return RoleLeftHand, nil
	case "right", "righthand":
		return RoleRightHand, nil
	}
	return RoleInvalid, fmt.Errorf("unknown controller role %q", s)
}

// ApplicationMode tells the runtime what kind of client is connecting.
type ApplicationMode uint8

const (
	ModeOther ApplicationMode = iota
	ModeScene
	ModeOverlay
	ModeBackground
	ModeUtility
)

var modeNames = map[ApplicationMode]string{
	ModeOther:      "other",
	ModeScene:      "scene",
	ModeOverlay:    "overlay",
	ModeBackground: "background",
	ModeUtility:    "utility",
}

func (m ApplicationMode) String() string {
	if n, ok := modeNames[m]; ok {
		return n
	}
	return "other"
}

// ParseApplicationMode is case-insensitive; an empty string means ModeScene.
func ParseApplicationMode(s string) (ApplicationMode, error) {
	n := strings.ToLower(strings.TrimSpace(s))
	if n == "" {
		return ModeScene, nil
	}
	for m, name := range modeNames {
		if name == n {
			return m, nil
		}
	}
	return ModeOther, fmt.Errorf("unknown application mode %q", s)
}
