package server

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andrei-cloud/asyncnet"
	"github.com/pkg/errors"
)

// acceptRetryDelay is the pause after a failed accept before the loop re-arms.
const acceptRetryDelay = 100 * time.Millisecond

// Acceptor listens on a port and wraps every accepted socket in a running
// Connection. Accepting is continuous until Stop.
type Acceptor struct {
	config      *Config
	logger      asyncnet.Logger
	clients     sync.Map // registry of accepted connections.
	clientCount atomic.Int32
	acceptWG    sync.WaitGroup

	mu       sync.RWMutex // guards the fields below.
	ln       net.Listener
	running  bool
	listener Listener
}

// NewAcceptor returns a stopped acceptor. A nil config uses DefaultConfig.
func NewAcceptor(config *Config) *Acceptor {
	if config == nil {
		config = DefaultConfig()
	}
	cfg := *config
	cfg.applyDefaults()

	return &Acceptor{
		config: &cfg,
		logger: cfg.Logger,
	}
}

// SetListener registers the listener notified of acceptor and client events.
func (a *Acceptor) SetListener(l Listener) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listener = l
}

// Listener returns the registered listener, if any.
func (a *Acceptor) Listener() Listener {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.listener
}

// IsRunning reports whether the acceptor is listening.
func (a *Acceptor) IsRunning() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.running
}

// Addr returns the bound listening address, or nil while stopped.
func (a *Acceptor) Addr() net.Addr {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.ln == nil {
		return nil
	}

	return a.ln.Addr()
}

// Start binds the listening socket and begins accepting. A bind failure is
// returned and OnServerStarted is not emitted.
func (a *Acceptor) Start() error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return asyncnet.ErrAlreadyRunning
	}

	lc := net.ListenConfig{}
	if a.config.ReuseAddr {
		lc.Control = asyncnet.ReuseAddrControl
	}

	addr := a.config.addr()
	ln, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		a.mu.Unlock()
		return errors.Wrapf(err, "listening on %s", addr)
	}

	a.ln = ln
	a.running = true
	a.acceptWG.Add(1)
	listener := a.listener
	a.mu.Unlock()

	go a.acceptLoop(ln)

	a.logger.Infof("acceptor listening on %s", ln.Addr())
	if listener != nil {
		listener.OnServerStarted(time.Now())
	}

	return nil
}

// Stop closes the listening socket, disconnects every client and clears the
// registry before emitting OnServerStopped. It waits for connection goroutines
// and must not be called from a listener callback; start a goroutine instead.
func (a *Acceptor) Stop() error {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return asyncnet.ErrNotRunning
	}
	a.running = false
	ln := a.ln
	a.ln = nil
	listener := a.listener
	a.mu.Unlock()

	err := ln.Close()
	if errors.Is(err, net.ErrClosed) {
		err = nil
	}
	a.acceptWG.Wait()

	conns := a.Clients()
	for _, c := range conns {
		c.Disconnect()
	}

	done := make(chan struct{})
	go func() {
		for _, c := range conns {
			c.Wait()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(a.config.ShutdownTimeout):
		a.logger.Warnf("timeout waiting for connections to close")
	}

	a.clients.Range(func(key, _ any) bool {
		a.clients.Delete(key)
		return true
	})
	a.clientCount.Store(0)

	a.logger.Infof("acceptor stopped")
	if listener != nil {
		listener.OnServerStopped(time.Now())
	}

	return err
}

// Clients returns a snapshot of the accepted connections still registered.
func (a *Acceptor) Clients() []*asyncnet.Connection {
	var out []*asyncnet.Connection
	a.clients.Range(func(key, _ any) bool {
		if c, ok := key.(*asyncnet.Connection); ok {
			out = append(out, c)
		}
		return true
	})

	return out
}

// ClientCount returns the number of registered connections.
func (a *Acceptor) ClientCount() int {
	return int(a.clientCount.Load())
}

// Broadcast sends data to every registered client and returns how many sends
// were issued.
func (a *Acceptor) Broadcast(data []byte) int {
	sent := 0
	for _, c := range a.Clients() {
		if err := c.Send(data); err != nil {
			a.logger.Warnf("broadcast to %s: %v", c, err)
			continue
		}
		sent++
	}

	return sent
}

func (a *Acceptor) acceptLoop(ln net.Listener) {
	defer a.acceptWG.Done()

	for {
		nc, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			a.logger.Errorf("%v", errors.Wrapf(asyncnet.ErrAcceptFailure, "%v", err))
			time.Sleep(acceptRetryDelay)

			continue
		}

		if a.config.MaxConns > 0 && a.ClientCount() >= a.config.MaxConns {
			a.logger.Warnf("rejecting %s: connection limit %d reached", nc.RemoteAddr(), a.config.MaxConns)
			if err := nc.Close(); err != nil {
				a.logger.Warnf("connection close error: %v", err)
			}

			continue
		}

		a.handleNewConnection(nc)
	}
}

func (a *Acceptor) handleNewConnection(nc net.Conn) {
	// Registration is atomic with respect to Stop: a socket accepted while
	// stopping is closed instead of registered.
	a.mu.RLock()
	if !a.running {
		a.mu.RUnlock()
		if err := nc.Close(); err != nil {
			a.logger.Warnf("connection close error: %v", err)
		}

		return
	}
	c := asyncnet.NewConnection(nc, clientOwner{acceptor: a}, a.config.Conn)
	a.clients.Store(c, struct{}{})
	a.clientCount.Add(1)
	listener := a.listener
	a.mu.RUnlock()

	a.logger.Infof("client %s connected", c)
	if listener != nil {
		listener.OnClientConnected(c)
	}

	if err := c.Start(); err != nil {
		a.logger.Warnf("starting %s: %v", c, err)
	}
}

func (a *Acceptor) removeConnection(c *asyncnet.Connection) {
	if _, loaded := a.clients.LoadAndDelete(c); loaded {
		a.clientCount.Add(-1)
	}
}
