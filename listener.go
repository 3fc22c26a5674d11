package asyncnet

import "time"

// Listener receives lifecycle and data-transfer notifications for one connection.
// Callbacks run on the connection's I/O goroutines; buffers are valid for the
// duration of the callback and must be copied if retained.
type Listener interface {
	OnConnected(at time.Time)
	OnDisconnected(at time.Time)
	OnSendComplete(buf *ByteBuffer)
	OnReceiveComplete(buf *ByteBuffer)
}

// ListenerFuncs is an adapter to allow the use of ordinary functions as a Listener.
// Nil fields are skipped.
type ListenerFuncs struct {
	Connected       func(at time.Time)
	Disconnected    func(at time.Time)
	SendComplete    func(buf *ByteBuffer)
	ReceiveComplete func(buf *ByteBuffer)
}

func (f ListenerFuncs) OnConnected(at time.Time) {
	if f.Connected != nil {
		f.Connected(at)
	}
}

func (f ListenerFuncs) OnDisconnected(at time.Time) {
	if f.Disconnected != nil {
		f.Disconnected(at)
	}
}

func (f ListenerFuncs) OnSendComplete(buf *ByteBuffer) {
	if f.SendComplete != nil {
		f.SendComplete(buf)
	}
}

func (f ListenerFuncs) OnReceiveComplete(buf *ByteBuffer) {
	if f.ReceiveComplete != nil {
		f.ReceiveComplete(buf)
	}
}

// Owner is the acceptor or connector that created a connection. It is told
// about transfers and about the disconnect so it can update its registry.
type Owner interface {
	ConnectionSent(c *Connection, buf *ByteBuffer)
	ConnectionReceived(c *Connection, buf *ByteBuffer)
	ConnectionClosed(c *Connection)
}
