// Package apitypes holds the JSON payloads of the vrpoll management API.
package apitypes

import (
	"fmt"
)

// ApiError represents an RFC 7807 (problem+json) error response.
type ApiError struct {
	// Status is the HTTP-style status code (e.g., 400, 404, 500)
	Status int `json:"status"`
	// Title is a short, human-readable summary of the problem type
	Title string `json:"title"`
	// Detail is a human-readable explanation specific to this occurrence
	Detail string `json:"detail"`
}

func (e ApiError) Error() string {
	if e.Status == 0 && e.Title == "" {
		return "unknown error"
	}
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Title, e.Detail)
	}
	return fmt.Sprintf("%d %s: %s", e.Status, e.Title, e.Detail)
}

// --

type PingResponse struct {
	Server  string `json:"server"`
	Version string `json:"version"`
}

type RuntimeInfoResponse struct {
	HmdPresent       bool   `json:"hmdPresent"`
	RuntimeInstalled bool   `json:"runtimeInstalled"`
	RuntimePath      string `json:"runtimePath"`
}

type SessionInitResponse struct {
	SessionID uint32 `json:"sessionId"`
	Mode      string `json:"mode"`
}

type SessionShutdownResponse struct {
	SessionID uint32 `json:"sessionId"`
}

// RoleIndexResponse carries a role lookup. Index is 4294967295 when the role
// is unbound.
type RoleIndexResponse struct {
	Role  string `json:"role"`
	Index uint32 `json:"index"`
}

type DeviceClassResponse struct {
	Index uint32 `json:"index"`
	Class string `json:"class"`
}

type SkeletalSummaryResponse struct {
	Role  string    `json:"role"`
	Curl  []float32 `json:"curl"`
	Splay []float32 `json:"splay"`
}

type Device struct {
	Index uint32 `json:"index"`
	Class string `json:"class"`
	Role  string `json:"role,omitempty"`
}

type DeviceListResponse struct {
	Devices []Device `json:"devices"`
}

type DeviceConnectRequest struct {
	Class string `json:"class"`
	Role  string `json:"role,omitempty"`
}

type SkeletonSetRequest struct {
	Curl  []float32 `json:"curl"`
	Splay []float32 `json:"splay"`
}
