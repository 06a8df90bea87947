// Package configpaths resolves where vrpoll looks for configuration files.
package configpaths

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

// KeyFileName is the file holding the API password, next to the config files.
const KeyFileName = "vrpoll.key.txt"

// configBases are the file base names tried in every search directory.
var configBases = []string{"vrpoll", "wait", "serve"}

// DefaultConfigDir returns the platform-specific configuration directory.
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		if appdata := os.Getenv("AppData"); appdata != "" {
			return filepath.Join(appdata, "vrpoll"), nil
		}
		return "", errors.New("AppData not set")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "vrpoll"), nil
		}
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, ".config", "vrpoll"), nil
		}
		return "", errors.New("HOME not set")
	}
}

// DefaultKeyFilePath returns the location of the API password file.
func DefaultKeyFilePath() (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, KeyFileName), nil
}

// DefaultNamedConfigPath returns the default config file path for the given format and base name (e.g., "serve").
func DefaultNamedConfigPath(baseName, format string) (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, baseName+"."+Ext(format)), nil
}

// Ext maps a format name to its file extension. Unknown formats fall back to json.
func Ext(format string) string {
	switch format {
	case "yaml", "yml":
		return "yaml"
	case "toml":
		return "toml"
	default:
		return "json"
	}
}

// EnsureDir ensures the directory for a given file path exists.
func EnsureDir(filePath string) error {
	return os.MkdirAll(filepath.Dir(filePath), 0o755)
}

// ConfigCandidatePaths builds candidate paths for config files per format.
// If userPath is provided, it is prioritized and routed to the matching loader by extension.
// The remaining order is working directory, user config dir, then /etc/vrpoll on unix.
func ConfigCandidatePaths(userPath string) (jsonPaths, yamlPaths, tomlPaths []string) {
	if userPath != "" {
		switch filepath.Ext(userPath) {
		case ".yaml", ".yml":
			yamlPaths = append(yamlPaths, userPath)
		case ".toml":
			tomlPaths = append(tomlPaths, userPath)
		default:
			jsonPaths = append(jsonPaths, userPath)
		}
	}

	addDir := func(dir string) {
		for _, base := range configBases {
			jsonPaths = append(jsonPaths, filepath.Join(dir, base+".json"))
			yamlPaths = append(yamlPaths, filepath.Join(dir, base+".yaml"), filepath.Join(dir, base+".yml"))
			tomlPaths = append(tomlPaths, filepath.Join(dir, base+".toml"))
		}
	}

	if wd, err := os.Getwd(); err == nil {
		addDir(wd)
	}
	if dir, err := DefaultConfigDir(); err == nil {
		addDir(dir)
	}
	if runtime.GOOS != "windows" {
		addDir("/etc/vrpoll")
	}
	return
}
