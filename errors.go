package asyncnet

import "github.com/pkg/errors"

var (
	// ErrConnectTimeout indicates an active connect did not finish within the configured timeout.
	ErrConnectTimeout = errors.New("connect timed out")

	// ErrConnectFailure indicates an active connect was refused or otherwise failed.
	ErrConnectFailure = errors.New("connect failed")

	// ErrAcceptFailure indicates the listening socket could not accept a connection.
	ErrAcceptFailure = errors.New("accept failed")

	// ErrProtocolHeaderInvalid indicates a frame header failed magic, length or padding validation.
	ErrProtocolHeaderInvalid = errors.New("invalid frame header")

	// ErrContentTooLarge indicates a frame header declared more content than the configured maximum.
	ErrContentTooLarge = errors.New("frame content exceeds maximum length")

	// ErrPayloadTooLarge indicates a payload handed to Send cannot be described by a frame header.
	ErrPayloadTooLarge = errors.New("payload exceeds maximum frame length")

	// ErrBufferUnderflow indicates a read past the data available in a ByteBuffer.
	ErrBufferUnderflow = errors.New("buffer underflow")

	// ErrBufferOverflow indicates a write past the capacity of a fixed-size ByteBuffer.
	ErrBufferOverflow = errors.New("buffer overflow")

	// ErrSocketIO indicates a send or receive system error.
	ErrSocketIO = errors.New("socket i/o failure")

	// ErrAlreadyConnected indicates a connect attempt on an endpoint that is already connected.
	ErrAlreadyConnected = errors.New("already connected")

	// ErrAlreadyRunning indicates a start attempt on an acceptor that is already running.
	ErrAlreadyRunning = errors.New("already running")

	// ErrNotRunning indicates a stop attempt on an acceptor that is not running.
	ErrNotRunning = errors.New("not running")

	// ErrNotConnected indicates an operation on a connection that has been disconnected.
	ErrNotConnected = errors.New("not connected")
)

var (
	// ErrArrayTooLong indicates an array with more elements than its 2-byte count prefix can describe.
	ErrArrayTooLong = errors.New("array exceeds maximum element count")

	// ErrStringTooLong indicates a string longer than the bound passed to a bounded string read or write.
	ErrStringTooLong = errors.New("string exceeds maximum length")
)
