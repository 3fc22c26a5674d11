package server

import "github.com/andrei-cloud/asyncnet"

// clientOwner forwards connection events of accepted clients to the acceptor.
type clientOwner struct {
	acceptor *Acceptor
}

func (o clientOwner) ConnectionSent(c *asyncnet.Connection, buf *asyncnet.ByteBuffer) {
	if l := o.acceptor.Listener(); l != nil {
		l.OnSendComplete(buf, c)
	}
}

func (o clientOwner) ConnectionReceived(c *asyncnet.Connection, buf *asyncnet.ByteBuffer) {
	if l := o.acceptor.Listener(); l != nil {
		l.OnReceiveComplete(buf, c)
	}
}

func (o clientOwner) ConnectionClosed(c *asyncnet.Connection) {
	o.acceptor.removeConnection(c)
	if l := o.acceptor.Listener(); l != nil {
		l.OnClientDisconnected(c)
	}
}
