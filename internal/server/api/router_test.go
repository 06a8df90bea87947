package api_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Alia5/vrpoll/internal/server/api"
)

func TestRouterMatch(t *testing.T) {
	r := api.NewRouter()
	noop := func(*api.Request, *api.Response, *slog.Logger) error { return nil }
	r.Register("ping", noop)
	r.Register("session/{id}/role/{role}", noop)
	r.Register("device/{Index}/disconnect", noop)

	tests := []struct {
		name       string
		path       string
		wantMatch  bool
		wantParams map[string]string
	}{
		{name: "static", path: "ping", wantMatch: true, wantParams: map[string]string{}},
		{name: "static upper case", path: "PING", wantMatch: true, wantParams: map[string]string{}},
		{name: "params", path: "session/3/role/left", wantMatch: true, wantParams: map[string]string{"id": "3", "role": "left"}},
		{name: "param name keeps its case", path: "device/4/disconnect", wantMatch: true, wantParams: map[string]string{"Index": "4"}},
		{name: "too short", path: "session/3/role", wantMatch: false},
		{name: "too long", path: "ping/extra", wantMatch: false},
		{name: "static mismatch", path: "session/3/class/left", wantMatch: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, params := r.Match(tt.path)
			if !tt.wantMatch {
				assert.Nil(t, h)
				return
			}
			assert.NotNil(t, h)
			assert.Equal(t, tt.wantParams, params)
		})
	}
}
