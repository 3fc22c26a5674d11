package asyncnet

import (
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// ConnectionType classifies the peer of a connection.
type ConnectionType int

const (
	NotConnected ConnectionType = iota
	Local                       // peer on a loopback address.
	Remote
)

func (t ConnectionType) String() string {
	switch t {
	case Local:
		return "local"
	case Remote:
		return "remote"
	default:
		return "not-connected"
	}
}

// nextConnID is the global counter for assigning connection identifiers.
var nextConnID atomic.Uint64

// Connection owns one socket and drives framed transfers over it. Receiving is
// a loop that reads header then content, delivers the payload and immediately
// waits for the next header. Sends are queued FIFO with at most one in flight.
//
// All methods are safe for concurrent use.
type Connection struct {
	id      uint64
	config  *ConnConfig
	logger  Logger
	metrics *Metrics
	owner   Owner
	queue   *sendQueue
	done    chan struct{}
	loops   sync.WaitGroup

	mu          sync.RWMutex // guards the fields below.
	conn        net.Conn
	connected   bool
	started     bool
	sending     bool
	remote      net.Addr
	local       net.Addr
	connType    ConnectionType
	connectedAt time.Time
	noDelay     bool
	serial      string
	listener    Listener
}

// NewConnection wraps an established socket. The connection is live at once
// but does not read until Start is called. owner may be nil; config may be nil
// for defaults.
func NewConnection(nc net.Conn, owner Owner, config *ConnConfig) *Connection {
	cfg := config.clone()

	c := &Connection{
		id:          nextConnID.Add(1),
		config:      cfg,
		logger:      cfg.Logger,
		metrics:     cfg.Metrics,
		owner:       owner,
		queue:       newSendQueue(),
		done:        make(chan struct{}),
		conn:        nc,
		connected:   true,
		remote:      nc.RemoteAddr(),
		local:       nc.LocalAddr(),
		connType:    classify(nc.RemoteAddr()),
		connectedAt: time.Now(),
		noDelay:     cfg.NoDelay,
	}
	c.init()
	c.metrics.connected()

	return c
}

// init configures TCP options on the socket.
func (c *Connection) init() {
	tcpConn, ok := c.conn.(*net.TCPConn)
	if !ok {
		return
	}

	if err := tcpConn.SetNoDelay(c.noDelay); err != nil {
		c.logger.Warnf("connection %d: set no-delay: %v", c.id, err)
	}

	if c.config.KeepAliveInterval > 0 {
		if err := tcpConn.SetKeepAlive(true); err != nil {
			c.logger.Warnf("connection %d: set keepalive: %v", c.id, err)
		}
		if err := tcpConn.SetKeepAlivePeriod(c.config.KeepAliveInterval); err != nil {
			c.logger.Warnf("connection %d: set keepalive period: %v", c.id, err)
		}
	}
}

// classify reports whether addr is a loopback peer.
func classify(addr net.Addr) ConnectionType {
	tcpAddr, ok := addr.(*net.TCPAddr)
	if !ok || tcpAddr == nil {
		return Remote
	}
	if tcpAddr.IP.IsLoopback() {
		return Local
	}

	return Remote
}

// ID returns the process-unique connection identifier.
func (c *Connection) ID() uint64 { return c.id }

// Config returns the effective configuration. It must not be modified.
func (c *Connection) Config() *ConnConfig { return c.config }

// Done is closed once the connection has been disconnected.
func (c *Connection) Done() <-chan struct{} { return c.done }

// IsConnected reports whether Disconnect has not run yet.
func (c *Connection) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// RemoteAddr returns the peer endpoint, or nil after disconnect.
func (c *Connection) RemoteAddr() net.Addr {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.remote
}

// LocalAddr returns the local endpoint of the socket.
func (c *Connection) LocalAddr() net.Addr {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.local
}

// ConnectionType returns whether the peer is local, remote, or gone.
func (c *Connection) ConnectionType() ConnectionType {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connType
}

// ConnectedAt returns the time the socket became usable.
func (c *Connection) ConnectedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connectedAt
}

// Serial returns the application tag attached to the connection.
func (c *Connection) Serial() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.serial
}

// SetSerial attaches an application tag, typically a user or session id.
func (c *Connection) SetSerial(serial string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.serial = serial
}

// NoDelay reports whether Nagle's algorithm is disabled.
func (c *Connection) NoDelay() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.noDelay
}

// SetNoDelay toggles Nagle's algorithm, applying it to the live socket.
func (c *Connection) SetNoDelay(noDelay bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.noDelay = noDelay
	if !c.connected {
		return nil
	}
	if tcpConn, ok := c.conn.(*net.TCPConn); ok {
		return tcpConn.SetNoDelay(noDelay)
	}

	return nil
}

// Listener returns the registered listener, if any.
func (c *Connection) Listener() Listener {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.listener
}

// SetListener registers the listener notified of this connection's events.
func (c *Connection) SetListener(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listener = l
}

// PendingSends returns the number of sends waiting behind the one in flight.
func (c *Connection) PendingSends() int { return c.queue.Len() }

// NewBuffer returns an empty buffer sized by the connection configuration.
func (c *Connection) NewBuffer() *ByteBuffer {
	return NewByteBuffer(c.config.BufferCapacity, c.config.AutoResize)
}

func (c *Connection) String() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.remote == nil {
		return fmt.Sprintf("conn#%d(disconnected)", c.id)
	}

	return fmt.Sprintf("conn#%d(%s)", c.id, c.remote)
}

// socket returns the socket while connected, nil afterwards.
func (c *Connection) socket() net.Conn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.connected {
		return nil
	}

	return c.conn
}

// Start begins the receive loop. Calling it again is a no-op.
func (c *Connection) Start() error {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return ErrNotConnected
	}
	if c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	c.loops.Add(1)
	c.mu.Unlock()

	go c.receiveLoop()

	return nil
}

// Wait blocks until the receive and send goroutines have exited. It must not
// be called from a listener callback.
func (c *Connection) Wait() {
	c.loops.Wait()
}

// Send frames data and transmits it. If a send is already in flight the frame
// is queued behind it. data is referenced until OnSendComplete and must not
// be modified before then.
func (c *Connection) Send(data []byte) error {
	if len(data) > c.config.MaxContentLength {
		return errors.Wrapf(ErrPayloadTooLarge, "%d bytes, limit %d", len(data), c.config.MaxContentLength)
	}

	op, err := NewSendOperation(data, c)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return ErrNotConnected
	}
	if c.sending {
		c.queue.Enqueue(op)
		c.mu.Unlock()
		c.metrics.sendQueued()

		return nil
	}
	c.sending = true
	c.loops.Add(1)
	c.mu.Unlock()

	go c.sendLoop(op)

	return nil
}

// SendBuffer sends the unread region of buf.
func (c *Connection) SendBuffer(buf *ByteBuffer) error {
	return c.Send(buf.AvailableData())
}

// Disconnect shuts the socket down and notifies the listener and owner. Only
// the first call has an effect. In-flight and queued sends are abandoned.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return
	}
	c.connected = false
	c.sending = false
	c.remote = nil
	c.connType = NotConnected
	nc := c.conn
	listener := c.listener
	dropped := c.queue.Clear()
	c.mu.Unlock()

	shutdown(nc)
	if err := nc.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		c.logger.Warnf("connection %d: close: %v", c.id, err)
	}
	close(c.done)
	c.metrics.disconnected()

	if dropped > 0 {
		c.logger.Warnf("connection %d: dropped %d queued sends", c.id, dropped)
	}
	c.logger.Infof("connection %d: disconnected", c.id)

	if listener != nil {
		listener.OnDisconnected(time.Now())
	}
	if c.owner != nil {
		c.owner.ConnectionClosed(c)
	}
}

// shutdown half-closes both directions of a TCP socket before it is closed.
func shutdown(nc net.Conn) {
	if tcpConn, ok := nc.(*net.TCPConn); ok {
		_ = tcpConn.CloseRead()
		_ = tcpConn.CloseWrite()
	}
}

// fail converts an I/O or protocol failure into a disconnect. Failures
// reported after the connection is gone are ignored.
func (c *Connection) fail(op string, err error) {
	if !c.IsConnected() {
		return
	}

	switch {
	case errors.Is(err, io.EOF):
		c.logger.Debugf("connection %d: peer closed during %s", c.id, op)
	case errors.Is(err, ErrProtocolHeaderInvalid), errors.Is(err, ErrContentTooLarge):
		c.metrics.protocolError()
		c.logger.Errorf("connection %d: rejecting frame: %v", c.id, err)
	default:
		c.logger.Errorf("connection %d: %v", c.id, errors.Wrapf(ErrSocketIO, "%s: %v", op, err))
	}

	c.Disconnect()
}

// receiveLoop reads frames until the connection goes away.
func (c *Connection) receiveLoop() {
	defer c.loops.Done()

	for {
		op := NewReceiveOperation(c.config.MaxContentLength, c)
		if !c.receive(op) {
			op.release()
			return
		}
		c.deliverReceived(op)
	}
}

// receive drives op to ContentDone, re-reading into the remaining region of the
// current packet after every short read. It returns false once the connection
// is gone.
func (c *Connection) receive(op *TransferOperation) bool {
	for op.State() != ContentDone {
		nc := c.socket()
		if nc == nil {
			return false
		}

		n, err := nc.Read(op.Current().Pending())
		if n > 0 {
			c.logger.Debugf("connection %d: received %d bytes, %s", c.id, n, op.State())
			if cerr := op.Complete(n); cerr != nil {
				c.fail("receive", cerr)
				return false
			}
			if op.State() == ContentDone {
				// A read error that came with the final bytes is seen by
				// the next header read.
				return true
			}
		}
		if err != nil {
			c.fail("receive", err)
			return false
		}
		if n <= 0 {
			c.fail("receive", io.EOF)
			return false
		}
	}

	return true
}

// deliverReceived hands a completed receive to the listener and owner.
func (c *Connection) deliverReceived(op *TransferOperation) {
	c.mu.RLock()
	connected, listener := c.connected, c.listener
	c.mu.RUnlock()
	if !connected {
		return
	}

	c.metrics.frameReceived(op.ContentLength())
	c.logger.Debugf("connection %d: frame of %d bytes received", c.id, op.ContentLength())

	if listener != nil {
		listener.OnReceiveComplete(c.wrap(op.Payload()))
	}
	if c.owner != nil {
		c.owner.ConnectionReceived(c, c.wrap(op.Payload()))
	}
}

// sendLoop transmits op, then keeps draining the queue until it is empty, at
// which point the send slot is released.
func (c *Connection) sendLoop(op *TransferOperation) {
	defer c.loops.Done()

	for op != nil {
		if !c.transmit(op) {
			return
		}
		c.deliverSent(op)
		op = c.nextSend()
	}
}

// nextSend dequeues the next operation or frees the send slot.
func (c *Connection) nextSend() *TransferOperation {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		c.sending = false
		return nil
	}

	op, ok := c.queue.Dequeue()
	if !ok {
		c.sending = false
		return nil
	}

	return op
}

// transmit drives op to ContentDone, re-writing the remaining region of the
// current packet after every short write. It returns false once the connection
// is gone.
func (c *Connection) transmit(op *TransferOperation) bool {
	for op.State() != ContentDone {
		nc := c.socket()
		if nc == nil {
			return false
		}

		if c.config.WriteTimeout > 0 {
			if err := nc.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout)); err != nil {
				c.fail("send", err)
				return false
			}
		}

		n, err := nc.Write(op.Current().Pending())
		if n > 0 {
			c.logger.Debugf("connection %d: sent %d bytes, %s", c.id, n, op.State())
			if cerr := op.Complete(n); cerr != nil {
				c.fail("send", cerr)
				return false
			}
		}
		if err != nil {
			c.fail("send", err)
			return false
		}
		if n <= 0 {
			c.fail("send", io.ErrClosedPipe)
			return false
		}
	}

	return true
}

// deliverSent hands a completed send to the listener and owner.
func (c *Connection) deliverSent(op *TransferOperation) {
	c.mu.RLock()
	connected, listener := c.connected, c.listener
	c.mu.RUnlock()
	if !connected {
		return
	}

	c.metrics.frameSent(op.ContentLength())
	c.logger.Debugf("connection %d: frame of %d bytes sent", c.id, op.ContentLength())

	if listener != nil {
		listener.OnSendComplete(c.wrap(op.Payload()))
	}
	if c.owner != nil {
		c.owner.ConnectionSent(c, c.wrap(op.Payload()))
	}
}

// wrap returns a fresh cursor over payload so each consumer reads from the start.
func (c *Connection) wrap(payload []byte) *ByteBuffer {
	buf := FromBytes(payload, false)
	buf.autoResize = c.config.AutoResize

	return buf
}
