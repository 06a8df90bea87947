package api

import (
	"github.com/Alia5/vrpoll/apitypes"
	apierror "github.com/Alia5/vrpoll/internal/server/api/error"
)

// Factory helpers returning *apitypes.ApiError (single canonical error type).
func ErrBadRequest(detail string) *apitypes.ApiError { return ptr(apierror.ErrBadRequest(detail)) }
func ErrNotFound(detail string) *apitypes.ApiError   { return ptr(apierror.ErrNotFound(detail)) }
func ErrConflict(detail string) *apitypes.ApiError   { return ptr(apierror.ErrConflict(detail)) }
func ErrSessionNotFound(id uint32) *apitypes.ApiError {
	return ptr(apierror.ErrSessionNotFound(id))
}
func ErrInternal(detail string) *apitypes.ApiError   { return ptr(apierror.ErrInternal(detail)) }
func ErrUnavailable(detail string) *apitypes.ApiError {
	return ptr(apierror.ErrUnavailable(detail))
}

// WrapError normalizes any error into *apitypes.ApiError.
func WrapError(err error) *apitypes.ApiError {
	if err == nil {
		return nil
	}
	return ptr(apierror.WrapError(err))
}

func ptr(e apitypes.ApiError) *apitypes.ApiError { return &e }

func ErrUnauthorized(detail string) *apitypes.ApiError {
	return ptr(apierror.ErrUnauthorized(detail))
}
