package api

import "time"

// ServerConfig represents the serve subcommand API configuration.
type ServerConfig struct {
	Addr               string        `help:"API server listen address" default:":3243" env:"VRPOLL_API_ADDR"`
	SessionIdleTimeout time.Duration `help:"Shut down remote tracking sessions after this long without a request (0 disables)" default:"30s" env:"VRPOLL_API_SESSION_IDLE_TIMEOUT"`
	RequireAuth        bool          `help:"Reject requests that do not perform the password handshake" default:"false" env:"VRPOLL_API_REQUIRE_AUTH"`
	Password           string        `kong:"-"`
	ConnectionTimeout  time.Duration `kong:"-"`
}
