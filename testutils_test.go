package asyncnet_test

import (
	"io"
	"net"
	"sync"
	"time"

	"github.com/andrei-cloud/asyncnet"
)

// waitGroupWithTimeout attempts to wait for a WaitGroup with a timeout.
// Returns true if the WaitGroup completed before timeout, false otherwise.
func waitGroupWithTimeout(wg *sync.WaitGroup, timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// waitFor receives from ch or gives up after timeout.
func waitFor[T any](ch <-chan T, timeout time.Duration) (T, bool) {
	select {
	case v := <-ch:
		return v, true
	case <-time.After(timeout):
		var zero T
		return zero, false
	}
}

// frame returns the wire encoding of payload.
func frame(payload []byte) []byte {
	hdr, err := asyncnet.EncodeHeader(len(payload))
	if err != nil {
		panic(err)
	}

	return append(hdr, payload...)
}

// writeChunks writes data to w in pieces of at most size bytes, pausing
// between them so the reader sees separate reads.
func writeChunks(w io.Writer, data []byte, size int) error {
	for len(data) > 0 {
		n := min(size, len(data))
		if _, err := w.Write(data[:n]); err != nil {
			return err
		}
		data = data[n:]
		time.Sleep(time.Millisecond)
	}

	return nil
}

// shortWriteConn caps every Write at limit bytes to force partial sends.
type shortWriteConn struct {
	net.Conn
	limit int
}

func (c *shortWriteConn) Write(p []byte) (int, error) {
	if len(p) > c.limit {
		p = p[:c.limit]
	}

	return c.Conn.Write(p)
}

// events records what a connection reports to its listener.
type events struct {
	mu           sync.Mutex
	received     [][]byte
	sent         [][]byte
	disconnected int

	receivedCh     chan []byte
	sentCh         chan []byte
	disconnectedCh chan struct{}
}

func newEvents() *events {
	return &events{
		receivedCh:     make(chan []byte, 64),
		sentCh:         make(chan []byte, 64),
		disconnectedCh: make(chan struct{}, 4),
	}
}

func (e *events) OnConnected(time.Time) {}

func (e *events) OnDisconnected(time.Time) {
	e.mu.Lock()
	e.disconnected++
	e.mu.Unlock()
	e.disconnectedCh <- struct{}{}
}

func (e *events) OnSendComplete(buf *asyncnet.ByteBuffer) {
	b := buf.CopyData()
	e.mu.Lock()
	e.sent = append(e.sent, b)
	e.mu.Unlock()
	e.sentCh <- b
}

func (e *events) OnReceiveComplete(buf *asyncnet.ByteBuffer) {
	b := buf.CopyData()
	e.mu.Lock()
	e.received = append(e.received, b)
	e.mu.Unlock()
	e.receivedCh <- b
}

func (e *events) disconnects() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.disconnected
}

// scriptedReadConn serves reads from a fixed list of chunks and reports
// io.EOF together with the last one.
type scriptedReadConn struct {
	net.Conn
	mu     sync.Mutex
	chunks [][]byte
}

func (c *scriptedReadConn) Read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.chunks) == 0 {
		return 0, io.EOF
	}

	n := copy(p, c.chunks[0])
	c.chunks[0] = c.chunks[0][n:]
	if len(c.chunks[0]) == 0 {
		c.chunks = c.chunks[1:]
	}
	if len(c.chunks) == 0 {
		return n, io.EOF
	}

	return n, nil
}
