package main

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	kongtoml "github.com/alecthomas/kong-toml"
	kongyaml "github.com/alecthomas/kong-yaml"
	"github.com/joho/godotenv"

	"github.com/Alia5/vrpoll/internal/cmd"
	"github.com/Alia5/vrpoll/internal/config"
	"github.com/Alia5/vrpoll/internal/configpaths"
	"github.com/Alia5/vrpoll/internal/log"
	"github.com/Alia5/vrpoll/internal/util"
	"github.com/Alia5/vrpoll/internal/version"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Variables already set in the environment win over .env entries.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		_, _ = os.Stderr.WriteString("failed to load .env: " + err.Error() + "\n")
		return cmd.ExitSetup
	}

	userCfg := findUserConfig(os.Args[1:])
	jsonPaths, yamlPaths, tomlPaths := configpaths.ConfigCandidatePaths(userCfg)

	v, err := version.Get()
	if err != nil {
		v = "unknown"
	}

	var cli config.CLI
	ctx := kong.Parse(&cli,
		kong.Name("vrpoll"),
		kong.Description("Wait for VR hand controllers and inspect a tracking runtime"),
		kong.UsageOnError(),
		kong.Vars{"version": v},
		kong.Exit(func(code int) {
			if code != 0 {
				code = cmd.ExitSetup
			}
			os.Exit(code)
		}),
		// Load configuration from JSON/YAML/TOML in priority order; flags/env override config values.
		kong.Configuration(kong.JSON, jsonPaths...),
		kong.Configuration(kongyaml.Loader, yamlPaths...),
		kong.Configuration(kongtoml.Loader, tomlPaths...),
	)

	logger, closeFiles, err := log.SetupLogger(cli.Log)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to setup logger: " + err.Error() + "\n")
		return cmd.ExitSetup
	}
	defer func() {
		for _, c := range closeFiles {
			_ = c.Close()
		}
	}()

	var rawLogger log.RawLogger
	if cli.Log.RawFile != "" {
		f, err := os.OpenFile(cli.Log.RawFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			logger.Error("failed to open raw log file", "file", cli.Log.RawFile, "error", err)
			return cmd.ExitSetup
		}
		rawLogger = log.NewRaw(f)
		closeFiles = append(closeFiles, f)
	} else if cli.Log.Level == "trace" {
		rawLogger = log.NewRaw(os.Stdout)
	} else {
		rawLogger = log.NewRaw(nil)
	}

	ctx.Bind(logger)
	ctx.BindTo(rawLogger, (*log.RawLogger)(nil))

	err = ctx.Run()
	code := cmd.ExitCode(err)
	if code != cmd.ExitOK {
		logger.Error("command failed", "command", ctx.Command(), "error", err, "exitCode", code)
	}

	if util.IsRunFromGUI() && !strings.HasPrefix(ctx.Command(), "serve") {
		_, _ = os.Stdout.WriteString("Press Enter to exit...")
		b := make([]byte, 1)
		_, _ = os.Stdin.Read(b)
	}
	return code
}

func findUserConfig(args []string) string {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if strings.HasPrefix(a, "--config=") {
			return a[len("--config="):]
		}
		if a == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return os.Getenv("VRPOLL_CONFIG")
}
