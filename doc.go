// Package asyncnet provides framed, asynchronous message delivery over TCP.
//
// Every message travels as one frame: a 16-byte little-endian header holding
// the magic value HeaderMagic, a signed 32-bit content length and four bytes
// of zero padding, followed by the content itself.
//
// Features:
//   - ByteBuffer: a growable byte array with independent read and write
//     cursors that encodes primitives, counted arrays and length-prefixed
//     strings.
//   - TransferOperation: a four-state machine that carries one send or
//     receive across any number of partial socket reads or writes.
//   - Connection: owns one socket, receives frames back to back and keeps a
//     FIFO of outbound frames with at most one send in flight. Completed
//     transfers are reported to a Listener as ByteBuffers.
//   - server.Acceptor: listens on a port and turns every accepted socket into
//     a running Connection.
//   - client.Connector: opens a Connection to a remote endpoint under a
//     connect timeout.
//
// Basic Server Example:
//
//	acceptor := server.NewAcceptor(&server.Config{Port: 12345})
//	acceptor.SetListener(server.ListenerFuncs{
//	    ReceiveComplete: func(buf *asyncnet.ByteBuffer, c *asyncnet.Connection) {
//	        _ = c.SendBuffer(buf) // echo
//	    },
//	})
//	if err := acceptor.Start(); err != nil {
//	    // handle error
//	}
//	defer acceptor.Stop()
//
// Basic Client Example:
//
//	connector := client.NewConnector(nil)
//	connector.SetListener(asyncnet.ListenerFuncs{
//	    ReceiveComplete: func(buf *asyncnet.ByteBuffer) {
//	        s, _ := buf.ReadString()
//	        fmt.Println(s)
//	    },
//	})
//	conn, err := connector.Dial(ctx, "127.0.0.1", 12345)
//	if err != nil {
//	    // handle error
//	}
//	_ = conn.Send(asyncnet.FromString("hello").Bytes())
package asyncnet
