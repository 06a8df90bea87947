package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Alia5/vrpoll/internal/configpaths"
	"github.com/Alia5/vrpoll/internal/log"
	"github.com/Alia5/vrpoll/internal/server/api"
	"github.com/Alia5/vrpoll/internal/server/api/auth"
	"github.com/Alia5/vrpoll/internal/server/api/handler"
	"github.com/Alia5/vrpoll/internal/util"
	"github.com/Alia5/vrpoll/virtualruntime"
)

// Serve hosts a virtual tracking runtime over the management API.
type Serve struct {
	ApiServerConfig   api.ServerConfig       `embed:"" prefix:"api."`
	Sim               virtualruntime.Options `embed:"" prefix:"sim."`
	ConnectionTimeout time.Duration          `help:"Per-connection operation timeout" default:"30s" env:"VRPOLL_CONNECTION_TIMEOUT"`
	KeyFile           string                 `help:"API password file, generated when missing (defaults to the config dir)" env:"VRPOLL_KEY_FILE"`
}

// Run is called by Kong when the serve command is executed.
func (s *Serve) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.StartServer(ctx, logger, rawLogger)
}

// StartServer serves until ctx ends. Open tracking sessions are shut down
// before it returns.
func (s *Serve) StartServer(ctx context.Context, logger *slog.Logger, rawLogger log.RawLogger) error {
	s.ApiServerConfig.ConnectionTimeout = s.ConnectionTimeout

	if s.ApiServerConfig.Addr == "" {
		return errors.New("API server address must be set (default :3243)")
	}

	pwd, err := s.loadOrCreatePassword(logger)
	if err != nil {
		return err
	}
	s.ApiServerConfig.Password = pwd

	rt := virtualruntime.New(s.Sim)
	apiSrv := api.New(rt, s.ApiServerConfig, logger, rawLogger)
	handler.RegisterAll(apiSrv)

	logger.Info("Starting vrpoll virtual runtime", "hmd", !s.Sim.NoHMD, "installed", !s.Sim.Missing, "connectAfter", s.Sim.ConnectAfter)
	if err := apiSrv.Start(); err != nil {
		logger.Error("failed to start API server", "error", err)
		if util.IsRunFromGUI() {
			fmt.Println("Press any key to exit...")
			b := make([]byte, 1)
			_, _ = os.Stdin.Read(b)
		}
		return err
	}

	if util.IsRunFromGUI() {
		go func() {
			time.Sleep(250 * time.Millisecond)
			util.HideConsoleWindow()
		}()
	}

	<-ctx.Done()
	logger.Info("Shutting down", "openSessions", apiSrv.SessionCount())
	apiSrv.Close()
	return nil
}

func (s *Serve) loadOrCreatePassword(logger *slog.Logger) (string, error) {
	keyFilePath := s.KeyFile
	if keyFilePath == "" {
		p, err := configpaths.DefaultKeyFilePath()
		if err != nil {
			return "", fmt.Errorf("failed to resolve key file path: %w", err)
		}
		keyFilePath = p
	}
	if pwd, err := os.ReadFile(keyFilePath); err == nil {
		return strings.TrimSpace(string(pwd)), nil
	}

	newPwd, err := auth.GenerateKey()
	if err != nil {
		return "", fmt.Errorf("failed to generate new API password: %w", err)
	}
	if err := configpaths.EnsureDir(keyFilePath); err != nil {
		return "", fmt.Errorf("failed to create config dir for key file: %w", err)
	}
	if err := os.WriteFile(keyFilePath, []byte(newPwd), 0o600); err != nil {
		return "", fmt.Errorf("failed to write new API password to file: %w", err)
	}
	logger.Info("Generated API server password", "path", keyFilePath)
	logger.Info("-------------------------------------")
	logger.Info("Your vrpoll API server password is:")
	logger.Info("-------------------------------------")
	logger.Info(newPwd)
	logger.Info("-------------------------------------")
	logger.Info("You can change this password at any time by editing the file")
	return newPwd, nil
}
