package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
)

type serverEnvironment struct {
	ListenAddr string
	LogLevel   string
	NatsURL    string
}

// Environment names the variables that override file settings.
var Environment = &serverEnvironment{
	ListenAddr: "SEVENS_LISTEN_ADDR",
	LogLevel:   "SEVENS_LOG_LEVEL",
	NatsURL:    "SEVENS_NATS_URL",
}

func (e *serverEnvironment) GetListenAddr() string {
	return strings.TrimSpace(os.Getenv(e.ListenAddr))
}

func (e *serverEnvironment) GetLogLevel() string {
	return strings.ToLower(strings.TrimSpace(os.Getenv(e.LogLevel)))
}

func (e *serverEnvironment) GetNatsURL() string {
	return strings.TrimSpace(os.Getenv(e.NatsURL))
}

// Apply copies every set variable into cfg. It runs before logging is set
// up, so it reports problems only through its error.
func (e *serverEnvironment) Apply(cfg *Config) error {
	if v := e.GetListenAddr(); v != "" {
		cfg.ListenAddr = v
	}
	if v := e.GetLogLevel(); v != "" {
		switch v {
		case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
			cfg.Log.Level = v
		default:
			return errors.Errorf("%s: unknown level %q", e.LogLevel, v)
		}
	}
	if v := e.GetNatsURL(); v != "" {
		cfg.Nats.URL = v
	}
	return nil
}
