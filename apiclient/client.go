// Package apiclient is a Go client for the vrpoll management API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Alia5/vrpoll/apitypes"
	"github.com/Alia5/vrpoll/tracking"
)

// Client provides a high-level interface to the management API, handling
// request formatting, response parsing, and error handling.
type Client struct{ transport *Transport }

// New constructs a high-level API client using the internal low-level Transport.
// The addr parameter specifies the TCP address (host:port) of the API server.
func New(addr string) *Client { return &Client{transport: NewTransport(addr)} }

// NewWithPassword constructs a client that authenticates with the given password.
func NewWithPassword(addr, password string) *Client {
	return &Client{transport: NewTransportWithPassword(addr, password)}
}

// NewWithConfig constructs a client with custom transport timeouts.
func NewWithConfig(addr string, cfg *Config) *Client {
	return &Client{transport: NewTransportWithConfig(addr, cfg)}
}

// WithTransport constructs a Client using a custom Transport implementation.
func WithTransport(t *Transport) *Client { return &Client{transport: t} }

// Ping returns the version and identity of the server.
func (c *Client) Ping() (*apitypes.PingResponse, error) {
	return c.PingCtx(context.Background())
}

func (c *Client) PingCtx(ctx context.Context) (*apitypes.PingResponse, error) {
	return call[apitypes.PingResponse](ctx, c, "ping", nil, nil)
}

// RuntimeInfo reports HMD presence, installation state and runtime path.
func (c *Client) RuntimeInfo() (*apitypes.RuntimeInfoResponse, error) {
	return c.RuntimeInfoCtx(context.Background())
}

func (c *Client) RuntimeInfoCtx(ctx context.Context) (*apitypes.RuntimeInfoResponse, error) {
	return call[apitypes.RuntimeInfoResponse](ctx, c, "runtime/info", nil, nil)
}

// SessionInit opens a tracking session in the given application mode.
func (c *Client) SessionInit(mode tracking.ApplicationMode) (*apitypes.SessionInitResponse, error) {
	return c.SessionInitCtx(context.Background(), mode)
}

func (c *Client) SessionInitCtx(ctx context.Context, mode tracking.ApplicationMode) (*apitypes.SessionInitResponse, error) {
	return call[apitypes.SessionInitResponse](ctx, c, "session/init", mode.String(), nil)
}

// SessionShutdown releases a session opened by SessionInit.
func (c *Client) SessionShutdown(id uint32) (*apitypes.SessionShutdownResponse, error) {
	return c.SessionShutdownCtx(context.Background(), id)
}

func (c *Client) SessionShutdownCtx(ctx context.Context, id uint32) (*apitypes.SessionShutdownResponse, error) {
	return call[apitypes.SessionShutdownResponse](ctx, c, "session/{id}/shutdown", nil, sessionParams(id))
}

// RoleIndex resolves the device index currently bound to role.
func (c *Client) RoleIndex(id uint32, role tracking.ControllerRole) (*apitypes.RoleIndexResponse, error) {
	return c.RoleIndexCtx(context.Background(), id, role)
}

func (c *Client) RoleIndexCtx(ctx context.Context, id uint32, role tracking.ControllerRole) (*apitypes.RoleIndexResponse, error) {
	p := sessionParams(id)
	p["role"] = role.String()
	return call[apitypes.RoleIndexResponse](ctx, c, "session/{id}/role/{role}", nil, p)
}

// DeviceClass reports the class of the device at idx.
func (c *Client) DeviceClass(id uint32, idx tracking.DeviceIndex) (*apitypes.DeviceClassResponse, error) {
	return c.DeviceClassCtx(context.Background(), id, idx)
}

func (c *Client) DeviceClassCtx(ctx context.Context, id uint32, idx tracking.DeviceIndex) (*apitypes.DeviceClassResponse, error) {
	p := sessionParams(id)
	p["index"] = idx.String()
	return call[apitypes.DeviceClassResponse](ctx, c, "session/{id}/class/{index}", nil, p)
}

// Skeleton reads the skeletal summary of one hand.
func (c *Client) Skeleton(id uint32, role tracking.ControllerRole) (*apitypes.SkeletalSummaryResponse, error) {
	return c.SkeletonCtx(context.Background(), id, role)
}

func (c *Client) SkeletonCtx(ctx context.Context, id uint32, role tracking.ControllerRole) (*apitypes.SkeletalSummaryResponse, error) {
	p := sessionParams(id)
	p["role"] = role.String()
	return call[apitypes.SkeletalSummaryResponse](ctx, c, "session/{id}/skeleton/{role}", nil, p)
}

// SkeletonSet stores the summary the served runtime reports for role.
func (c *Client) SkeletonSet(role tracking.ControllerRole, s tracking.SkeletalSummary) (*apitypes.SkeletalSummaryResponse, error) {
	return c.SkeletonSetCtx(context.Background(), role, s)
}

func (c *Client) SkeletonSetCtx(ctx context.Context, role tracking.ControllerRole, s tracking.SkeletalSummary) (*apitypes.SkeletalSummaryResponse, error) {
	req := apitypes.SkeletonSetRequest{Curl: s.FingerCurl[:], Splay: s.FingerSplay[:]}
	return call[apitypes.SkeletalSummaryResponse](ctx, c, "skeleton/{role}/set", req, map[string]string{"role": role.String()})
}

// DeviceList lists all devices connected to the served runtime.
func (c *Client) DeviceList() (*apitypes.DeviceListResponse, error) {
	return c.DeviceListCtx(context.Background())
}

func (c *Client) DeviceListCtx(ctx context.Context) (*apitypes.DeviceListResponse, error) {
	return call[apitypes.DeviceListResponse](ctx, c, "device/list", nil, nil)
}

// DeviceConnect connects a device of class to the served runtime, optionally
// bound to a hand role.
func (c *Client) DeviceConnect(class tracking.DeviceClass, role tracking.ControllerRole) (*apitypes.Device, error) {
	return c.DeviceConnectCtx(context.Background(), class, role)
}

func (c *Client) DeviceConnectCtx(ctx context.Context, class tracking.DeviceClass, role tracking.ControllerRole) (*apitypes.Device, error) {
	req := apitypes.DeviceConnectRequest{Class: class.String()}
	if role != tracking.RoleInvalid {
		req.Role = role.String()
	}
	return call[apitypes.Device](ctx, c, "device/connect", req, nil)
}

// DeviceDisconnect removes the device at idx from the served runtime.
func (c *Client) DeviceDisconnect(idx tracking.DeviceIndex) (*apitypes.Device, error) {
	return c.DeviceDisconnectCtx(context.Background(), idx)
}

func (c *Client) DeviceDisconnectCtx(ctx context.Context, idx tracking.DeviceIndex) (*apitypes.Device, error) {
	return call[apitypes.Device](ctx, c, "device/{index}/disconnect", nil, map[string]string{"index": idx.String()})
}

func sessionParams(id uint32) map[string]string {
	return map[string]string{"id": fmt.Sprintf("%d", id)}
}

func call[T any](ctx context.Context, c *Client, path string, payload any, params map[string]string) (*T, error) {
	raw, err := c.transport.DoCtx(ctx, path, payload, params)
	if err != nil {
		return nil, err
	}
	return parse[T](raw)
}

func parse[T any](data string) (*T, error) {
	if data == "" {
		return nil, errors.New("empty response")
	}
	var problem apitypes.ApiError
	if err := json.Unmarshal([]byte(data), &problem); err == nil && (problem.Status != 0 || problem.Title != "") {
		return nil, &problem
	}
	var out T
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &out, nil
}
