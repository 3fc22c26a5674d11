package client

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/andrei-cloud/asyncnet"
	"github.com/pkg/errors"
)

// ConnectFailedListener may be implemented by the listener given to a
// Connector to learn about connect attempts that never reached the connected
// state. Such attempts do not emit OnDisconnected.
type ConnectFailedListener interface {
	OnConnectFailed(at time.Time, err error)
}

// Connector actively opens a single Connection to a remote endpoint. After the
// connection drops the Connector may connect again.
type Connector struct {
	config   *Config
	logger   asyncnet.Logger
	attempts sync.WaitGroup

	mu         sync.RWMutex // guards the fields below.
	conn       *asyncnet.Connection
	connecting bool
	listener   asyncnet.Listener
}

// NewConnector returns an unconnected connector. A nil config uses DefaultConfig.
func NewConnector(config *Config) *Connector {
	if config == nil {
		config = DefaultConfig()
	}
	cfg := *config
	cfg.applyDefaults()

	return &Connector{
		config: &cfg,
		logger: cfg.Logger,
	}
}

// SetListener registers the listener for connection events. It applies to the
// current connection, if any, and to later ones.
func (c *Connector) SetListener(l asyncnet.Listener) {
	c.mu.Lock()
	c.listener = l
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		conn.SetListener(l)
	}
}

// Connection returns the live connection, or nil.
func (c *Connector) Connection() *asyncnet.Connection {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn
}

// IsConnected reports whether a live connection exists.
func (c *Connector) IsConnected() bool {
	conn := c.Connection()
	return conn != nil && conn.IsConnected()
}

// Connect starts an asynchronous connect attempt bounded by the configured
// timeout. On success the listener sees OnConnected and the receive loop
// starts; on failure an optional ConnectFailedListener is told why.
func (c *Connector) Connect(host string, port int) error {
	if err := c.begin(); err != nil {
		return err
	}

	c.attempts.Add(1)
	go func() {
		defer c.attempts.Done()
		_, _ = c.dial(context.Background(), host, port)
	}()

	return nil
}

// Dial connects synchronously and returns the started connection.
func (c *Connector) Dial(ctx context.Context, host string, port int) (*asyncnet.Connection, error) {
	if err := c.begin(); err != nil {
		return nil, err
	}

	return c.dial(ctx, host, port)
}

// Wait blocks until pending asynchronous connect attempts have finished.
func (c *Connector) Wait() {
	c.attempts.Wait()
}

// Send transmits data over the live connection.
func (c *Connector) Send(data []byte) error {
	conn := c.Connection()
	if conn == nil {
		return asyncnet.ErrNotConnected
	}

	return conn.Send(data)
}

// SendBuffer transmits the unread region of buf over the live connection.
func (c *Connector) SendBuffer(buf *asyncnet.ByteBuffer) error {
	return c.Send(buf.AvailableData())
}

// Disconnect tears down the live connection, if any.
func (c *Connector) Disconnect() {
	if conn := c.Connection(); conn != nil {
		conn.Disconnect()
	}
}

// begin claims the connector for a connect attempt.
func (c *Connector) begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil || c.connecting {
		c.logger.Warnf("connect requested while already connected")
		return asyncnet.ErrAlreadyConnected
	}
	c.connecting = true

	return nil
}

func (c *Connector) dial(ctx context.Context, host string, port int) (*asyncnet.Connection, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	ctx, cancel := context.WithTimeout(ctx, c.config.ConnectTimeout)
	defer cancel()

	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		c.mu.Lock()
		c.connecting = false
		listener := c.listener
		c.mu.Unlock()

		kind := asyncnet.ErrConnectFailure
		var ne net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
			kind = asyncnet.ErrConnectTimeout
		}
		err = errors.Wrapf(kind, "%s: %v", addr, err)
		c.logger.Errorf("%v", err)

		if l, ok := listener.(ConnectFailedListener); ok {
			l.OnConnectFailed(time.Now(), err)
		}

		return nil, err
	}

	conn := asyncnet.NewConnection(nc, connectorOwner{connector: c}, c.config.Conn)

	c.mu.Lock()
	c.conn = conn
	c.connecting = false
	listener := c.listener
	c.mu.Unlock()

	conn.SetListener(listener)
	c.logger.Infof("connected to %s", addr)
	if listener != nil {
		listener.OnConnected(conn.ConnectedAt())
	}

	if err := conn.Start(); err != nil {
		return nil, err
	}

	return conn, nil
}

// connectorOwner releases the connector once its connection is gone.
type connectorOwner struct {
	connector *Connector
}

func (o connectorOwner) ConnectionSent(_ *asyncnet.Connection, _ *asyncnet.ByteBuffer)     {}
func (o connectorOwner) ConnectionReceived(_ *asyncnet.Connection, _ *asyncnet.ByteBuffer) {}

func (o connectorOwner) ConnectionClosed(conn *asyncnet.Connection) {
	o.connector.mu.Lock()
	defer o.connector.mu.Unlock()
	if o.connector.conn == conn {
		o.connector.conn = nil
	}
}
