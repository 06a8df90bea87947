package apierror

import (
	"fmt"

	"github.com/Alia5/vrpoll/apitypes"
)

func ErrBadRequest(detail string) apitypes.ApiError {
	return apitypes.ApiError{Status: 400, Title: "Bad Request", Detail: detail}
}
func ErrUnauthorized(detail string) apitypes.ApiError {
	return apitypes.ApiError{Status: 401, Title: "Unauthorized", Detail: detail}
}
func ErrNotFound(detail string) apitypes.ApiError {
	return apitypes.ApiError{Status: 404, Title: "Not Found", Detail: detail}
}

// ErrSessionNotFound is the problem returned for an unknown or expired
// session id. Clients compare against it to detect a lost session.
func ErrSessionNotFound(id uint32) apitypes.ApiError {
	return ErrNotFound(fmt.Sprintf("session %d not found", id))
}
func ErrConflict(detail string) apitypes.ApiError {
	return apitypes.ApiError{Status: 409, Title: "Conflict", Detail: detail}
}
func ErrUnavailable(detail string) apitypes.ApiError {
	return apitypes.ApiError{Status: 503, Title: "Service Unavailable", Detail: detail}
}
func ErrInternal(detail string) apitypes.ApiError {
	return apitypes.ApiError{Status: 500, Title: "Internal Server Error", Detail: detail}
}

// WrapError normalizes any error into apitypes.ApiError.
func WrapError(err error) apitypes.ApiError {
	if ae, ok := err.(*apitypes.ApiError); ok {
		return *ae
	}
	if ae, ok := err.(apitypes.ApiError); ok {
		return ae
	}
	return ErrInternal(err.Error())
}
