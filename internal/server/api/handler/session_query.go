package handler

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Alia5/vrpoll/apitypes"
	"github.com/Alia5/vrpoll/internal/server/api"
	"github.com/Alia5/vrpoll/tracking"
)

// SessionRole resolves the device index bound to a controller role.
// Unbound roles are not an error: the response carries the invalid index.
func SessionRole(srv *api.Server) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		_, s, err := sessionFromParams(srv, req.Params)
		if err != nil {
			return err
		}
		role, err := roleFromParams(req.Params)
		if err != nil {
			return err
		}
		idx := s.DeviceIndexForRole(role)
		return writeJSON(res, apitypes.RoleIndexResponse{Role: role.String(), Index: uint32(idx)})
	}
}

// SessionDeviceClass reports the class of the device at an index.
func SessionDeviceClass(srv *api.Server) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		_, s, err := sessionFromParams(srv, req.Params)
		if err != nil {
			return err
		}
		idx, err := tracking.ParseDeviceIndex(req.Params["index"])
		if err != nil {
			return api.ErrBadRequest(fmt.Sprintf("invalid index: %v", err))
		}
		return writeJSON(res, apitypes.DeviceClassResponse{Index: uint32(idx), Class: s.DeviceClass(idx).String()})
	}
}

// SessionSkeleton reads the skeletal summary of one hand.
func SessionSkeleton(srv *api.Server) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		_, s, err := sessionFromParams(srv, req.Params)
		if err != nil {
			return err
		}
		role, err := roleFromParams(req.Params)
		if err != nil {
			return err
		}
		sum, err := s.SkeletalSummary(role)
		if err != nil {
			if errors.Is(err, tracking.ErrNoSkeleton) {
				return api.ErrNotFound(err.Error())
			}
			return err
		}
		return writeJSON(res, apitypes.SkeletalSummaryResponse{
			Role:  role.String(),
			Curl:  sum.FingerCurl[:],
			Splay: sum.FingerSplay[:],
		})
	}
}
