package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Alia5/vrpoll/apitypes"
	"github.com/Alia5/vrpoll/internal/server/api"
	"github.com/Alia5/vrpoll/tracking"
	"github.com/Alia5/vrpoll/virtualruntime"
)

func toAPIDevice(d virtualruntime.Device) apitypes.Device {
	out := apitypes.Device{Index: uint32(d.Index), Class: d.Class.String()}
	if d.Role != tracking.RoleInvalid {
		out.Role = d.Role.String()
	}
	return out
}

// DeviceList lists all connected devices of the served runtime.
func DeviceList(srv *api.Server) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		devs := srv.Runtime().Devices()
		out := apitypes.DeviceListResponse{Devices: make([]apitypes.Device, 0, len(devs))}
		for _, d := range devs {
			out.Devices = append(out.Devices, toAPIDevice(d))
		}
		return writeJSON(res, out)
	}
}

// DeviceConnect connects a device described by a DeviceConnectRequest payload.
func DeviceConnect(srv *api.Server) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		if req.Payload == "" {
			return api.ErrBadRequest("missing payload")
		}
		var dr apitypes.DeviceConnectRequest
		if err := json.Unmarshal([]byte(req.Payload), &dr); err != nil {
			return api.ErrBadRequest(fmt.Sprintf("invalid JSON payload: %v", err))
		}
		class, ok := tracking.ParseDeviceClass(dr.Class)
		if !ok {
			return api.ErrBadRequest(fmt.Sprintf("unknown device class: %q", dr.Class))
		}
		role := tracking.RoleInvalid
		if dr.Role != "" {
			r, err := tracking.ParseControllerRole(dr.Role)
			if err != nil {
				return api.ErrBadRequest(err.Error())
			}
			role = r
		}

		d, err := srv.Runtime().Connect(class, role)
		switch {
		case errors.Is(err, virtualruntime.ErrRoleOnClass):
			return api.ErrBadRequest(err.Error())
		case err != nil:
			return api.ErrConflict(err.Error())
		}
		logger.Info("device connected", "index", d.Index, "class", d.Class, "role", d.Role)
		return writeJSON(res, toAPIDevice(d))
	}
}

// DeviceDisconnect frees the slot given by the {index} path parameter.
func DeviceDisconnect(srv *api.Server) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		idx, err := tracking.ParseDeviceIndex(req.Params["index"])
		if err != nil {
			return api.ErrBadRequest(fmt.Sprintf("invalid index: %v", err))
		}
		d, err := srv.Runtime().Disconnect(idx)
		if err != nil {
			return api.ErrNotFound(err.Error())
		}
		logger.Info("device disconnected", "index", d.Index, "class", d.Class)
		return writeJSON(res, toAPIDevice(d))
	}
}

// SkeletonSet stores the skeletal summary the runtime reports for a role.
func SkeletonSet(srv *api.Server) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		role, err := roleFromParams(req.Params)
		if err != nil {
			return err
		}
		var sr apitypes.SkeletonSetRequest
		if err := json.Unmarshal([]byte(req.Payload), &sr); err != nil {
			return api.ErrBadRequest(fmt.Sprintf("invalid JSON payload: %v", err))
		}
		if len(sr.Curl) != tracking.FingerCount || len(sr.Splay) != tracking.FingerSplayCount {
			return api.ErrBadRequest(fmt.Sprintf("expected %d curl and %d splay values", tracking.FingerCount, tracking.FingerSplayCount))
		}
		var sum tracking.SkeletalSummary
		copy(sum.FingerCurl[:], sr.Curl)
		copy(sum.FingerSplay[:], sr.Splay)
		srv.Runtime().SetSkeletalSummary(role, sum)
		return writeJSON(res, apitypes.SkeletalSummaryResponse{Role: role.String(), Curl: sr.Curl, Splay: sr.Splay})
	}
}
