package server

import (
	"time"

	"github.com/andrei-cloud/asyncnet"
)

// Listener receives acceptor lifecycle events and the transfers of every
// accepted connection.
type Listener interface {
	OnServerStarted(at time.Time)
	OnServerStopped(at time.Time)
	OnClientConnected(c *asyncnet.Connection)
	OnClientDisconnected(c *asyncnet.Connection)
	OnSendComplete(buf *asyncnet.ByteBuffer, c *asyncnet.Connection)
	OnReceiveComplete(buf *asyncnet.ByteBuffer, c *asyncnet.Connection)
}

// ListenerFuncs is an adapter to allow the use of ordinary functions as a Listener.
// Nil fields are skipped.
type ListenerFuncs struct {
	ServerStarted      func(at time.Time)
	ServerStopped      func(at time.Time)
	ClientConnected    func(c *asyncnet.Connection)
	ClientDisconnected func(c *asyncnet.Connection)
	SendComplete       func(buf *asyncnet.ByteBuffer, c *asyncnet.Connection)
	ReceiveComplete    func(buf *asyncnet.ByteBuffer, c *asyncnet.Connection)
}

func (f ListenerFuncs) OnServerStarted(at time.Time) {
	if f.ServerStarted != nil {
		f.ServerStarted(at)
	}
}

func (f ListenerFuncs) OnServerStopped(at time.Time) {
	if f.ServerStopped != nil {
		f.ServerStopped(at)
	}
}

func (f ListenerFuncs) OnClientConnected(c *asyncnet.Connection) {
	if f.ClientConnected != nil {
		f.ClientConnected(c)
	}
}

func (f ListenerFuncs) OnClientDisconnected(c *asyncnet.Connection) {
	if f.ClientDisconnected != nil {
		f.ClientDisconnected(c)
	}
}

func (f ListenerFuncs) OnSendComplete(buf *asyncnet.ByteBuffer, c *asyncnet.Connection) {
	if f.SendComplete != nil {
		f.SendComplete(buf, c)
	}
}

func (f ListenerFuncs) OnReceiveComplete(buf *asyncnet.ByteBuffer, c *asyncnet.Connection) {
	if f.ReceiveComplete != nil {
		f.ReceiveComplete(buf, c)
	}
}
