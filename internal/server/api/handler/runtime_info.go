package handler

import (
	"log/slog"

	"github.com/Alia5/vrpoll/apitypes"
	"github.com/Alia5/vrpoll/internal/server/api"
)

// RuntimeInfo reports HMD presence and installation state without opening a session.
func RuntimeInfo(srv *api.Server) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		rt := srv.Runtime()
		info := apitypes.RuntimeInfoResponse{
			HmdPresent:       rt.IsHmdPresent(req.Ctx),
			RuntimeInstalled: rt.IsRuntimeInstalled(req.Ctx),
		}
		if p, err := rt.RuntimePath(req.Ctx); err == nil {
			info.RuntimePath = p
		}
		return writeJSON(res, info)
	}
}
