package main

import (
	"os"
	"time"

	"github.com/andrei-cloud/asyncnet"
	"github.com/andrei-cloud/asyncnet/client"
	"github.com/andrei-cloud/asyncnet/server"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk configuration of the asyncnet command.
type FileConfig struct {
	LogLevel  string       `yaml:"log_level"`
	LogFormat string       `yaml:"log_format"`
	Server    ServerConfig `yaml:"server"`
	Client    ClientConfig `yaml:"client"`
	Conn      ConnConfig   `yaml:"conn"`
}

// ServerConfig configures the serve command.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	MaxConns        int           `yaml:"max_conns"`
	ReuseAddr       bool          `yaml:"reuse_addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	Mode            string        `yaml:"mode"`
	AdminAddr       string        `yaml:"admin_addr"`
}

// ClientConfig configures the connect command.
type ClientConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// ConnConfig configures every connection opened by either command.
type ConnConfig struct {
	NoDelay          bool          `yaml:"no_delay"`
	KeepAlive        time.Duration `yaml:"keepalive"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	MaxContentLength int           `yaml:"max_content_length"`
}

const (
	modeEcho = "echo"
	modeChat = "chat"
)

// DefaultFileConfig returns the configuration used when no file is given.
func DefaultFileConfig() *FileConfig {
	return &FileConfig{
		LogLevel:  "info",
		LogFormat: "json",
		Server: ServerConfig{
			Port:            server.DefaultPort,
			ReuseAddr:       true,
			ShutdownTimeout: server.DefaultShutdownTimeout,
			Mode:            modeEcho,
		},
		Client: ClientConfig{
			Host:           "127.0.0.1",
			Port:           server.DefaultPort,
			ConnectTimeout: client.DefaultConnectTimeout,
		},
		Conn: ConnConfig{
			NoDelay:          true,
			KeepAlive:        asyncnet.DefaultKeepAliveInterval,
			MaxContentLength: asyncnet.DefaultMaxContentLength,
		},
	}
}

// Load reads the YAML configuration at path over the defaults. An empty path
// or a missing file yields the defaults.
func Load(path string) (*FileConfig, error) {
	cfg := DefaultFileConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrapf(err, "reading config %s", path)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing config %s", path)
	}

	if err := cfg.validate(); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}

	return cfg, nil
}

func (c *FileConfig) validate() error {
	switch c.Server.Mode {
	case modeEcho, modeChat:
	default:
		return errors.Errorf("unknown server mode %q", c.Server.Mode)
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Client.Port < 0 || c.Client.Port > 65535 {
		return errors.Errorf("client port %d out of range", c.Client.Port)
	}

	return nil
}

func (c *FileConfig) connConfig(lg asyncnet.Logger, m *asyncnet.Metrics) *asyncnet.ConnConfig {
	cc := asyncnet.DefaultConnConfig()
	cc.NoDelay = c.Conn.NoDelay
	cc.KeepAliveInterval = c.Conn.KeepAlive
	cc.WriteTimeout = c.Conn.WriteTimeout
	cc.MaxContentLength = c.Conn.MaxContentLength
	cc.Logger = lg
	cc.Metrics = m

	return cc
}

func (c *FileConfig) serverConfig(lg asyncnet.Logger, m *asyncnet.Metrics) *server.Config {
	sc := server.DefaultConfig()
	sc.Host = c.Server.Host
	sc.Port = c.Server.Port
	sc.MaxConns = c.Server.MaxConns
	sc.ReuseAddr = c.Server.ReuseAddr
	sc.ShutdownTimeout = c.Server.ShutdownTimeout
	sc.Conn = c.connConfig(lg, m)
	sc.Logger = lg

	return sc
}

func (c *FileConfig) clientConfig(lg asyncnet.Logger) *client.Config {
	cc := client.DefaultConfig()
	cc.ConnectTimeout = c.Client.ConnectTimeout
	cc.Conn = c.connConfig(lg, nil)
	cc.Logger = lg

	return cc
}
