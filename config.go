package asyncnet

import "time"

const (
	DefaultKeepAliveInterval = 30 * time.Second // default TCP keepalive period.
	DefaultWriteTimeout      = 0 * time.Second  // default write timeout disables write deadlines.
)

// ConnConfig contains configuration options for a connection.
type ConnConfig struct {
	NoDelay           bool          // disable Nagle's algorithm on TCP sockets.
	KeepAliveInterval time.Duration // TCP keepalive period, negative disables keepalive.
	WriteTimeout      time.Duration // deadline applied to every write, zero means none.
	BufferCapacity    int           // initial capacity of buffers created by NewBuffer.
	AutoResize        bool          // whether buffers handed to callers grow on write.
	MaxContentLength  int           // largest frame content accepted or sent.
	Logger            Logger        // optional logger for connection events.
	Metrics           *Metrics      // optional metrics sink.
}

// DefaultConnConfig returns the default connection configuration.
func DefaultConnConfig() *ConnConfig {
	return &ConnConfig{
		NoDelay:           true,
		KeepAliveInterval: DefaultKeepAliveInterval,
		WriteTimeout:      DefaultWriteTimeout,
		BufferCapacity:    DefaultBufferCapacity,
		AutoResize:        true,
		MaxContentLength:  DefaultMaxContentLength,
	}
}

func (c *ConnConfig) applyDefaults() {
	if c.KeepAliveInterval == 0 {
		c.KeepAliveInterval = DefaultKeepAliveInterval
	}

	if c.BufferCapacity <= 0 {
		c.BufferCapacity = DefaultBufferCapacity
	}

	if c.MaxContentLength <= 0 {
		c.MaxContentLength = DefaultMaxContentLength
	}

	if c.Logger == nil {
		c.Logger = &NoopLogger{}
	}
}

// clone returns a copy with defaults applied, leaving the caller's struct untouched.
func (c *ConnConfig) clone() *ConnConfig {
	if c == nil {
		c = DefaultConnConfig()
	}
	out := *c
	out.applyDefaults()

	return &out
}
