package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/Alia5/vrpoll/internal/configpaths"

	toml "github.com/pelletier/go-toml"
	yaml "gopkg.in/yaml.v3"
)

// ConfigCommand groups config-related subcommands.
type ConfigCommand struct {
	Init ConfigInit `cmd:"" help:"Generate a configuration template"`
}

// ConfigInit scaffolds a configuration file for a specific command.
type ConfigInit struct {
	Command string `arg:"" name:"command" help:"Command to generate config for" enum:"wait,serve,info"`
	Format  string `help:"Output format" enum:"json,yaml,toml" default:"json"`
	Output  string `help:"Destination file path (defaults to the current directory)"`
	Global  bool   `help:"Write to the user config directory instead of the current directory"`
	Force   bool   `help:"Overwrite if the file already exists"`
}

// Run generates a configuration template via reflection of the command structs and their tags.
func (c *ConfigInit) Run() error {
	dest, err := c.Write()
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %s config template to %s\n", c.Command, dest)
	return nil
}

// Write renders the template and returns the path it was written to.
func (c *ConfigInit) Write() (string, error) {
	format := normalizeFormat(c.Format)
	if format == "" {
		return "", fmt.Errorf("unsupported format: %s", c.Format)
	}

	root, err := templateFor(c.Command)
	if err != nil {
		return "", err
	}

	dest := c.Output
	switch {
	case dest != "":
	case c.Global:
		dest, err = configpaths.DefaultNamedConfigPath(c.Command, format)
		if err != nil {
			return "", err
		}
	default:
		dest = c.Command + "." + configpaths.Ext(format)
	}

	if !c.Force {
		if _, err := os.Stat(dest); err == nil {
			return "", errors.New("destination exists; use --force to overwrite")
		}
	}
	if err := configpaths.EnsureDir(dest); err != nil {
		return "", err
	}

	var data []byte
	switch format {
	case "json":
		data, err = json.MarshalIndent(root, "", "  ")
	case "yaml":
		data, err = yaml.Marshal(root)
	case "toml":
		data, err = toml.Marshal(root)
	}
	if err != nil {
		return "", err
	}
	return dest, os.WriteFile(dest, data, 0o644)
}

func templateFor(command string) (map[string]any, error) {
	switch command {
	case "wait":
		return buildMapFromStruct(reflect.TypeOf(Wait{})), nil
	case "serve":
		return buildMapFromStruct(reflect.TypeOf(Serve{})), nil
	case "info":
		return buildMapFromStruct(reflect.TypeOf(Info{})), nil
	default:
		return nil, fmt.Errorf("unknown command %q; expected wait, serve or info", command)
	}
}

func normalizeFormat(f string) string {
	switch strings.ToLower(f) {
	case "json":
		return "json"
	case "yaml", "yml":
		return "yaml"
	case "toml":
		return "toml"
	default:
		return ""
	}
}

func lowerCamel(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

func buildMapFromStruct(t reflect.Type) map[string]any {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	out := map[string]any{}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || f.Tag.Get("kong") == "-" {
			continue
		}
		if _, ok := f.Tag.Lookup("arg"); ok {
			continue
		}

		if _, ok := f.Tag.Lookup("embed"); ok {
			name := strings.TrimSuffix(f.Tag.Get("prefix"), ".")
			sub := buildMapFromStruct(f.Type)
			if name != "" {
				out[name] = sub
			} else {
				for k, v := range sub {
					out[k] = v
				}
			}
			continue
		}

		if val := defaultValueForField(f.Type, f.Tag.Get("default")); val != nil {
			out[lowerCamel(f.Name)] = val
		}
	}
	return out
}

func defaultValueForField(t reflect.Type, def string) any {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.PkgPath() == "time" && t.Name() == "Duration" {
		if def != "" {
			return def
		}
		return "0s"
	}
	switch t.Kind() {
	case reflect.String:
		return def
	case reflect.Bool:
		b, _ := strconv.ParseBool(def)
		return b
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, _ := strconv.ParseInt(def, 10, 64)
		return n
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, _ := strconv.ParseUint(def, 10, 64)
		return n
	case reflect.Float32, reflect.Float64:
		f, _ := strconv.ParseFloat(def, 64)
		return f
	case reflect.Struct:
		return buildMapFromStruct(t)
	default:
		return nil
	}
}
