package client

import (
	"time"

	"github.com/andrei-cloud/asyncnet"
)

// DefaultConnectTimeout bounds an active connect attempt.
const DefaultConnectTimeout = 1500 * time.Millisecond

// Config contains configuration options for a Connector.
type Config struct {
	ConnectTimeout time.Duration        // upper bound on a single connect attempt.
	Conn           *asyncnet.ConnConfig // configuration applied to the established connection.
	Logger         asyncnet.Logger      // optional logger for connector events.
}

// DefaultConfig returns the default connector configuration.
func DefaultConfig() *Config {
	return &Config{
		ConnectTimeout: DefaultConnectTimeout,
		Conn:           asyncnet.DefaultConnConfig(),
	}
}

func (c *Config) applyDefaults() {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
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
