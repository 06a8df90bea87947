package handler

import "github.com/Alia5/vrpoll/internal/server/api"

// RegisterAll wires every management route onto srv's router.
func RegisterAll(srv *api.Server) {
	r := srv.Router()
	r.Register("ping", Ping())
	r.Register("runtime/info", RuntimeInfo(srv))
	r.Register("session/init", SessionInit(srv))
	r.Register("session/{id}/shutdown", SessionShutdown(srv))
	r.Register("session/{id}/role/{role}", SessionRole(srv))
	r.Register("session/{id}/class/{index}", SessionDeviceClass(srv))
	r.Register("session/{id}/skeleton/{role}", SessionSkeleton(srv))
	r.Register("device/list", DeviceList(srv))
	r.Register("device/connect", DeviceConnect(srv))
	r.Register("device/{index}/disconnect", DeviceDisconnect(srv))
	r.Register("skeleton/{role}/set", SkeletonSet(srv))
}
