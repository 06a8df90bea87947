package handler

import (
	"errors"
	"log/slog"

	"github.com/Alia5/vrpoll/apitypes"
	"github.com/Alia5/vrpoll/internal/server/api"
	"github.com/Alia5/vrpoll/tracking"
)

// SessionInit opens a tracking session. The payload is the application mode
// name; empty means "scene".
func SessionInit(srv *api.Server) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		mode, err := tracking.ParseApplicationMode(req.Payload)
		if err != nil {
			return api.ErrBadRequest(err.Error())
		}
		id, err := srv.OpenSession(req.Ctx, mode)
		if err != nil {
			if errors.Is(err, tracking.ErrInit) {
				return api.ErrUnavailable(err.Error())
			}
			return err
		}
		logger.Info("session opened", "sessionId", id, "mode", mode)
		return writeJSON(res, apitypes.SessionInitResponse{SessionID: id, Mode: mode.String()})
	}
}

// SessionShutdown releases a session.
func SessionShutdown(srv *api.Server) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		id, _, err := sessionFromParams(srv, req.Params)
		if err != nil {
			return err
		}
		if err := srv.CloseSession(id); err != nil {
			return api.ErrConflict(err.Error())
		}
		logger.Info("session closed", "sessionId", id)
		return writeJSON(res, apitypes.SessionShutdownResponse{SessionID: id})
	}
}
