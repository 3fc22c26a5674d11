package asyncnet

import (
	"fmt"

	"github.com/pkg/errors"
)

// TransferState is the stage a TransferOperation has reached.
type TransferState int32

const (
	HeaderPending  TransferState = iota // moving header bytes.
	HeaderDone                          // header fully moved.
	ContentPending                      // moving content bytes.
	ContentDone                         // content fully moved, operation complete.
)

func (s TransferState) String() string {
	switch s {
	case HeaderPending:
		return "header-pending"
	case HeaderDone:
		return "header-done"
	case ContentPending:
		return "content-pending"
	case ContentDone:
		return "content-done"
	default:
		return fmt.Sprintf("TransferState(%d)", int32(s))
	}
}

// Direction tells whether an operation sends or receives.
type Direction uint8

const (
	Receive Direction = iota
	Send
)

func (d Direction) String() string {
	if d == Send {
		return "send"
	}

	return "receive"
}

// TransferOperation tracks one logical send or receive across any number of
// partial transfers. States move strictly forward:
// HeaderPending, HeaderDone, ContentPending, ContentDone.
//
// An operation is driven by a single goroutine at a time and is not safe for
// concurrent use.
type TransferOperation struct {
	direction  Direction
	state      TransferState
	header     Packet
	content    Packet
	length     int
	maxContent int
	tag        any
	pooled     *[]byte // header buffer borrowed from headerPool.
}

// NewReceiveOperation returns an operation waiting for a header. Content
// declared longer than maxContent is rejected when maxContent is positive.
func NewReceiveOperation(maxContent int, tag any) *TransferOperation {
	hdr := getHeaderBuffer()

	return &TransferOperation{
		direction:  Receive,
		state:      HeaderPending,
		header:     newPacket(*hdr),
		maxContent: maxContent,
		tag:        tag,
		pooled:     hdr,
	}
}

// NewSendOperation returns an operation whose header is pre-encoded from
// len(payload). The payload is referenced, not copied.
func NewSendOperation(payload []byte, tag any) (*TransferOperation, error) {
	hdr, err := EncodeHeader(len(payload))
	if err != nil {
		return nil, err
	}

	return &TransferOperation{
		direction: Send,
		state:     HeaderPending,
		header:    newPacket(hdr),
		content:   newPacket(payload),
		length:    len(payload),
		tag:       tag,
	}, nil
}

// Direction returns whether the operation sends or receives.
func (op *TransferOperation) Direction() Direction { return op.direction }

// State returns the current stage.
func (op *TransferOperation) State() TransferState { return op.state }

// Tag returns the opaque owner set at construction.
func (op *TransferOperation) Tag() any { return op.tag }

// ContentLength returns the content size; for receives it is known once the header is done.
func (op *TransferOperation) ContentLength() int { return op.length }

// Header returns the header packet descriptor.
func (op *TransferOperation) Header() *Packet { return &op.header }

// Content returns the content packet descriptor. For receives it is empty
// until the header has been decoded.
func (op *TransferOperation) Content() *Packet { return &op.content }

// Payload returns the content bytes.
func (op *TransferOperation) Payload() []byte { return op.content.Data }

// Current returns the packet the next transfer should move bytes into or out of.
func (op *TransferOperation) Current() *Packet {
	if op.state == HeaderPending {
		return &op.header
	}

	return &op.content
}

// Complete records a transfer of n bytes on the current packet. A short
// transfer only shrinks the packet; the caller repeats the I/O on
// Current().Pending(). A finished header moves the operation through
// HeaderDone into ContentPending, and a finished content into ContentDone.
// Empty content skips straight from ContentPending to ContentDone.
func (op *TransferOperation) Complete(n int) error {
	switch op.state {
	case HeaderPending:
		if err := op.header.Advance(n); err != nil {
			return err
		}
		if !op.header.Done() {
			return nil
		}
		op.state = HeaderDone

		return op.beginContent()
	case ContentPending:
		if err := op.content.Advance(n); err != nil {
			return err
		}
		if op.content.Done() {
			op.state = ContentDone
		}

		return nil
	default:
		return errors.Errorf("%s operation cannot complete in state %s", op.direction, op.state)
	}
}

// beginContent decodes a received header and sizes the content packet from it.
func (op *TransferOperation) beginContent() error {
	if op.direction == Receive {
		n, err := DecodeHeader(op.header.Data)
		op.release()
		if err != nil {
			return err
		}
		if op.maxContent > 0 && n > op.maxContent {
			return errors.Wrapf(ErrContentTooLarge, "%d bytes, limit %d", n, op.maxContent)
		}
		op.length = n
		op.content = newPacket(make([]byte, n))
	}

	op.state = ContentPending
	if op.content.Done() {
		op.state = ContentDone
	}

	return nil
}

// release returns a borrowed header buffer. It is safe to call more than once.
func (op *TransferOperation) release() {
	if op.pooled == nil {
		return
	}
	putHeaderBuffer(op.pooled)
	op.pooled = nil
	op.header.Data = nil
}
