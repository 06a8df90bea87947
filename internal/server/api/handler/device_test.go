package handler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/vrpoll/apiclient"
	"github.com/Alia5/vrpoll/internal/server/api"
	"github.com/Alia5/vrpoll/internal/server/api/handler"
	handlerTest "github.com/Alia5/vrpoll/internal/testing"
	"github.com/Alia5/vrpoll/tracking"
	"github.com/Alia5/vrpoll/virtualruntime"
)

func TestDeviceList(t *testing.T) {
	tests := []struct {
		name             string
		opts             virtualruntime.Options
		setup            func(t *testing.T, rt *virtualruntime.Runtime)
		expectedResponse string
	}{
		{
			name:             "empty runtime",
			opts:             virtualruntime.Options{NoHMD: true},
			expectedResponse: `{"devices":[]}`,
		},
		{
			name:             "hmd only",
			expectedResponse: `{"devices":[{"index":0,"class":"hmd"}]}`,
		},
		{
			name: "hmd with controllers",
			setup: func(t *testing.T, rt *virtualruntime.Runtime) {
				_, err := rt.Connect(tracking.ClassController, tracking.RoleLeftHand)
				require.NoError(t, err)
				_, err = rt.Connect(tracking.ClassGenericTracker, tracking.RoleInvalid)
				require.NoError(t, err)
			},
			expectedResponse: `{"devices":[{"index":0,"class":"hmd"},{"index":1,"class":"controller","role":"left"},{"index":2,"class":"tracker"}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, srv := handlerTest.StartAPIServer(t, api.ServerConfig{}, tt.opts, func(s *api.Server) {
				s.Router().Register("device/list", handler.DeviceList(s))
			})
			if tt.setup != nil {
				tt.setup(t, srv.Runtime())
			}
			line, err := apiclient.NewTransport(addr).Do("device/list", nil, nil)
			assert.NoError(t, err)
			assert.JSONEq(t, tt.expectedResponse, line)
		})
	}
}

func TestDeviceConnect(t *testing.T) {
	tests := []struct {
		name             string
		setup            func(t *testing.T, rt *virtualruntime.Runtime)
		payload          any
		expectedResponse string
		expectedError    string
	}{
		{
			name:             "left controller",
			payload:          map[string]string{"class": "controller", "role": "left"},
			expectedResponse: `{"index":1,"class":"controller","role":"left"}`,
		},
		{
			name:             "role alias",
			payload:          `{"class":"controller","role":"Right_Hand"}`,
			expectedResponse: `{"index":1,"class":"controller","role":"right"}`,
		},
		{
			name:             "tracker without role",
			payload:          map[string]string{"class": "tracker"},
			expectedResponse: `{"index":1,"class":"tracker"}`,
		},
		{
			name: "role already bound",
			setup: func(t *testing.T, rt *virtualruntime.Runtime) {
				_, err := rt.Connect(tracking.ClassController, tracking.RoleLeftHand)
				require.NoError(t, err)
			},
			payload:       map[string]string{"class": "controller", "role": "left"},
			expectedError: `"status":409`,
		},
		{
			name:          "second hmd",
			payload:       map[string]string{"class": "hmd"},
			expectedError: `"status":409`,
		},
		{
			name:          "role on tracker",
			payload:       map[string]string{"class": "tracker", "role": "left"},
			expectedError: `"status":400`,
		},
		{
			name:          "unknown class",
			payload:       map[string]string{"class": "lighthouse"},
			expectedError: "unknown device class",
		},
		{
			name:          "invalid json",
			payload:       "{nope",
			expectedError: "invalid JSON payload",
		},
		{
			name:          "missing payload",
			expectedError: "missing payload",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, srv := handlerTest.StartAPIServer(t, api.ServerConfig{}, virtualruntime.Options{}, func(s *api.Server) {
				s.Router().Register("device/connect", handler.DeviceConnect(s))
			})
			if tt.setup != nil {
				tt.setup(t, srv.Runtime())
			}
			line, err := apiclient.NewTransport(addr).Do("device/connect", tt.payload, nil)
			require.NoError(t, err)
			if tt.expectedError != "" {
				assert.Contains(t, line, tt.expectedError)
				return
			}
			assert.JSONEq(t, tt.expectedResponse, line)
		})
	}
}

func TestDeviceDisconnect(t *testing.T) {
	tests := []struct {
		name             string
		index            string
		expectedResponse string
		expectedError    string
		wantLeftBound    bool
	}{
		{
			name:             "bound controller",
			index:            "1",
			expectedResponse: `{"index":1,"class":"controller","role":"left"}`,
		},
		{
			name:             "hmd",
			index:            "0",
			expectedResponse: `{"index":0,"class":"hmd"}`,
			wantLeftBound:    true,
		},
		{
			name:          "empty slot",
			index:         "5",
			expectedError: `"status":404`,
			wantLeftBound: true,
		},
		{
			name:          "not a number",
			index:         "left",
			expectedError: "invalid index",
			wantLeftBound: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, srv := handlerTest.StartAPIServer(t, api.ServerConfig{}, virtualruntime.Options{}, func(s *api.Server) {
				s.Router().Register("device/{index}/disconnect", handler.DeviceDisconnect(s))
			})
			_, err := srv.Runtime().Connect(tracking.ClassController, tracking.RoleLeftHand)
			require.NoError(t, err)

			line, err := apiclient.NewTransport(addr).Do("device/{index}/disconnect", nil, map[string]string{"index": tt.index})
			require.NoError(t, err)
			if tt.expectedError != "" {
				assert.Contains(t, line, tt.expectedError)
			} else {
				assert.JSONEq(t, tt.expectedResponse, line)
			}

			s, err := srv.Runtime().Init(t.Context(), tracking.ModeScene)
			require.NoError(t, err)
			defer s.Shutdown()
			assert.Equal(t, tt.wantLeftBound, s.DeviceIndexForRole(tracking.RoleLeftHand) != tracking.InvalidDeviceIndex)
		})
	}
}

func TestSkeletonSet(t *testing.T) {
	tests := []struct {
		name             string
		role             string
		payload          any
		expectedResponse string
		expectedError    string
	}{
		{
			name:             "full summary",
			role:             "left",
			payload:          `{"curl":[0,0.25,0.5,0.75,1],"splay":[0.5,0.5,0.5,0.5]}`,
			expectedResponse: `{"role":"left","curl":[0,0.25,0.5,0.75,1],"splay":[0.5,0.5,0.5,0.5]}`,
		},
		{
			name:          "short curl",
			role:          "right",
			payload:       `{"curl":[0,0],"splay":[0,0,0,0]}`,
			expectedError: "expected 5 curl and 4 splay values",
		},
		{
			name:          "bad role",
			role:          "foot",
			payload:       `{"curl":[0,0,0,0,0],"splay":[0,0,0,0]}`,
			expectedError: `"status":400`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, _ := handlerTest.StartAPIServer(t, api.ServerConfig{}, virtualruntime.Options{}, func(s *api.Server) {
				s.Router().Register("skeleton/{role}/set", handler.SkeletonSet(s))
			})
			line, err := apiclient.NewTransport(addr).Do("skeleton/{role}/set", tt.payload, map[string]string{"role": tt.role})
			require.NoError(t, err)
			if tt.expectedError != "" {
				assert.Contains(t, line, tt.expectedError)
				return
			}
			assert.JSONEq(t, tt.expectedResponse, line)
		})
	}
}
