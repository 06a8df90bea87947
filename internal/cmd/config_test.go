package cmd_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	toml "github.com/pelletier/go-toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	yaml "gopkg.in/yaml.v3"

	"github.com/Alia5/vrpoll/internal/cmd"
)

func TestConfigInit(t *testing.T) {
	tests := []struct {
		name    string
		command string
		format  string
		decode  func(data []byte, v any) error
		check   func(t *testing.T, m map[string]any)
	}{
		{
			name:    "wait json",
			command: "wait",
			format:  "json",
			decode:  json.Unmarshal,
			check: func(t *testing.T, m map[string]any) {
				assert.Equal(t, "2s", m["delay"])
				assert.Equal(t, "scene", m["mode"])
				assert.Equal(t, "", m["addr"])
				sim, ok := m["sim"].(map[string]any)
				require.True(t, ok, "sim options nested under their prefix")
				assert.Equal(t, "virtual://vrpoll", sim["path"])
				assert.Equal(t, false, sim["missing"])
			},
		},
		{
			name:    "serve yaml",
			command: "serve",
			format:  "yaml",
			decode:  yaml.Unmarshal,
			check: func(t *testing.T, m map[string]any) {
				assert.Equal(t, "30s", m["connectionTimeout"])
				api, ok := m["api"].(map[string]any)
				require.True(t, ok)
				assert.Equal(t, ":3243", api["addr"])
				assert.Equal(t, "30s", api["sessionIdleTimeout"])
				assert.NotContains(t, api, "password")
			},
		},
		{
			name:    "info toml",
			command: "info",
			format:  "toml",
			decode:  toml.Unmarshal,
			check: func(t *testing.T, m map[string]any) {
				assert.Contains(t, m, "password")
				assert.Contains(t, m, "sim")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dest := filepath.Join(t.TempDir(), "nested", tt.command+"."+tt.format)
			c := cmd.ConfigInit{Command: tt.command, Format: tt.format, Output: dest}
			got, err := c.Write()
			require.NoError(t, err)
			assert.Equal(t, dest, got)

			data, err := os.ReadFile(dest)
			require.NoError(t, err)
			m := map[string]any{}
			require.NoError(t, tt.decode(data, &m))
			tt.check(t, m)

			_, err = c.Write()
			assert.ErrorContains(t, err, "destination exists")
			c.Force = true
			_, err = c.Write()
			assert.NoError(t, err)
		})
	}
}

func TestConfigInitGlobal(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("AppData", dir)

	c := cmd.ConfigInit{Command: "serve", Format: "yml", Global: true}
	got, err := c.Write()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "vrpoll", "serve.yaml"), got)
	assert.FileExists(t, got)
}

func TestConfigInitErrors(t *testing.T) {
	_, err := (&cmd.ConfigInit{Command: "wait", Format: "ini"}).Write()
	assert.ErrorContains(t, err, "unsupported format")
	_, err = (&cmd.ConfigInit{Command: "proxy", Format: "json"}).Write()
	assert.ErrorContains(t, err, "unknown command")
}
