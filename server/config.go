package server

import (
	"net"
	"strconv"
	"time"

	"github.com/andrei-cloud/asyncnet"
)

const (
	DefaultPort            = 12345           // default listening port.
	DefaultMaxConns        = 0               // default max connections means no limit.
	DefaultShutdownTimeout = 5 * time.Second // default shutdown timeout duration.
)

// Config contains configuration options for an Acceptor.
type Config struct {
	Address         string               // explicit host:port, overrides Host and Port when set.
	Host            string               // interface to bind, empty for all.
	Port            int                  // listening port.
	MaxConns        int                  // maximum concurrent connections allowed.
	ReuseAddr       bool                 // set SO_REUSEADDR on the listening socket.
	ShutdownTimeout time.Duration        // grace period for connection goroutines on Stop.
	Conn            *asyncnet.ConnConfig // configuration applied to every accepted connection.
	Logger          asyncnet.Logger      // optional logger for server events.
}

// DefaultConfig returns the default acceptor configuration.
func DefaultConfig() *Config {
	return &Config{
		Port:            DefaultPort,
		MaxConns:        DefaultMaxConns,
		ReuseAddr:       true,
		ShutdownTimeout: DefaultShutdownTimeout,
		Conn:            asyncnet.DefaultConnConfig(),
	}
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}

	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}

	if c.Logger == nil {
		c.Logger = &asyncnet.NoopLogger{}
	}

	if c.Conn == nil {
		c.Conn = asyncnet.DefaultConnConfig()
	}

	if c.Conn.Logger == nil {
		conn := *c.Conn
		conn.Logger = c.Logger
		c.Conn = &conn
	}
}

// addr returns the address to listen on.
func (c *Config) addr() string {
	if c.Address != "" {
		return c.Address
	}

	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
