package handler

import (
	"log/slog"

	"github.com/Alia5/vrpoll/apitypes"
	"github.com/Alia5/vrpoll/internal/server/api"
	"github.com/Alia5/vrpoll/internal/version"
)

// Ping returns a handler reporting server identity and version.
func Ping() api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		v, err := version.Get()
		if err != nil {
			return api.ErrInternal(err.Error())
		}
		return writeJSON(res, apitypes.PingResponse{Server: "vrpoll", Version: v})
	}
}
