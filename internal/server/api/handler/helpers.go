package handler

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/Alia5/vrpoll/internal/server/api"
	"github.com/Alia5/vrpoll/tracking"
)

func sessionFromParams(srv *api.Server, params map[string]string) (uint32, tracking.Session, error) {
	idStr, ok := params["id"]
	if !ok {
		return 0, nil, api.ErrBadRequest("missing id parameter")
	}
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		return 0, nil, api.ErrBadRequest(fmt.Sprintf("invalid sessionId: %v", err))
	}
	s, ok := srv.Session(uint32(id))
	if !ok {
		return 0, nil, api.ErrSessionNotFound(uint32(id))
	}
	return uint32(id), s, nil
}

func roleFromParams(params map[string]string) (tracking.ControllerRole, error) {
	r, ok := params["role"]
	if !ok {
		return tracking.RoleInvalid, api.ErrBadRequest("missing role parameter")
	}
	role, err := tracking.ParseControllerRole(r)
	if err != nil {
		return tracking.RoleInvalid, api.ErrBadRequest(err.Error())
	}
	return role, nil
}

func writeJSON(res *api.Response, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return api.ErrInternal(fmt.Sprintf("failed to marshal response: %v", err))
	}
	res.JSON = string(b)
	return nil
}
