package client

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Defaults applied when corresponding Config fields are unset.
const (
	DefaultHost        = "127.0.0.1"
	DefaultPort        = 11434
	DefaultServerBin   = "ollama"
	defaultDialTimeout = 5 * time.Second
)

// Transport kinds accepted by Config.Transport.
const (
	TransportHTTP = "http"
	TransportConn = "conn"
)

// Config encapsulates all tunables for Client construction.
type Config struct {
	// Model bound at construction; may be empty.
	Model string
	Host  string
	Port  int
	// Transport selects the built-in transport ("http" or "conn") when RoundTripper is nil.
	Transport    string
	RoundTripper Transport
	// DialTimeout bounds connection setup; RequestTimeout bounds a whole call (0 disables).
	DialTimeout    time.Duration
	RequestTimeout time.Duration
	// Launcher is invoked once by NewWithConfig. Nil means the default `ollama serve` launcher.
	Launcher  Launcher
	Publisher EventPublisher
	// Logger receives per-request logs. Nil means zerolog.Nop().
	Logger *zerolog.Logger
}

// withDefaults returns a copy of cfg with zero values replaced by package defaults.
func (cfg Config) withDefaults() Config {
	if strings.TrimSpace(cfg.Host) == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port <= 0 {
		cfg.Port = DefaultPort
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = defaultDialTimeout
	}
	if cfg.RequestTimeout < 0 {
		cfg.RequestTimeout = 0
	}
	if cfg.Transport == "" {
		cfg.Transport = TransportConn
	}
	if cfg.Publisher == nil {
		cfg.Publisher = noopPublisher{}
	}
	if cfg.Logger == nil {
		nop := zerolog.Nop()
		cfg.Logger = &nop
	}
	return cfg
}

// Addr returns host:port.
func (cfg Config) Addr() string {
	return net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
}
