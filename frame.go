package asyncnet

import (
	"encoding/binary"
	"io"
	"math"
	"net"

	"github.com/pkg/errors"
)

const (
	// HeaderSize is the size in bytes of every frame header.
	HeaderSize = 16

	// HeaderMagic opens every frame header so a receiver can detect desynchronized peers.
	HeaderMagic uint64 = 0x0123456789ABCDEF

	// MaxFrameLength is the largest content length a header can declare.
	MaxFrameLength = math.MaxInt32

	// DefaultMaxContentLength bounds the content a receiver allocates for a single frame.
	DefaultMaxContentLength = 16 << 20
)

// Header layout, little-endian:
//
//	[0:8]   magic (HeaderMagic)
//	[8:12]  content length, signed 32-bit
//	[12:16] padding, always zero

// PutHeader writes the header for contentLength into dst, which must hold HeaderSize bytes.
func PutHeader(dst []byte, contentLength int) error {
	if contentLength < 0 || contentLength > MaxFrameLength {
		return errors.Wrapf(ErrPayloadTooLarge, "content length %d", contentLength)
	}
	if len(dst) < HeaderSize {
		return errors.Wrapf(io.ErrShortBuffer, "header needs %d bytes, got %d", HeaderSize, len(dst))
	}

	binary.LittleEndian.PutUint64(dst[0:8], HeaderMagic)
	binary.LittleEndian.PutUint32(dst[8:12], uint32(int32(contentLength)))
	binary.LittleEndian.PutUint32(dst[12:16], 0)

	return nil
}

// EncodeHeader returns the 16-byte header announcing contentLength bytes of content.
func EncodeHeader(contentLength int) ([]byte, error) {
	hdr := make([]byte, HeaderSize)
	if err := PutHeader(hdr, contentLength); err != nil {
		return nil, err
	}

	return hdr, nil
}

// DecodeHeader validates a header and returns its declared content length. A
// wrong magic, a negative length or nonzero padding yields ErrProtocolHeaderInvalid.
func DecodeHeader(hdr []byte) (int, error) {
	if len(hdr) < HeaderSize {
		return 0, errors.Wrapf(ErrProtocolHeaderInvalid, "short header: %d bytes", len(hdr))
	}

	magic := binary.LittleEndian.Uint64(hdr[0:8])
	length := int32(binary.LittleEndian.Uint32(hdr[8:12]))
	padding := binary.LittleEndian.Uint32(hdr[12:16])

	switch {
	case magic != HeaderMagic:
		return 0, errors.Wrapf(ErrProtocolHeaderInvalid, "magic %#016x", magic)
	case length < 0:
		return 0, errors.Wrapf(ErrProtocolHeaderInvalid, "negative length %d", length)
	case padding != 0:
		return 0, errors.Wrapf(ErrProtocolHeaderInvalid, "padding %#08x", padding)
	}

	return int(length), nil
}

// Packet describes one stage of a frame transfer: the bytes still to move are
// Data[Offset : Offset+Size].
type Packet struct {
	Data   []byte
	Offset int
	Size   int
}

// newPacket returns a packet covering all of data.
func newPacket(data []byte) Packet {
	return Packet{Data: data, Size: len(data)}
}

// Pending returns the region still to be transferred.
func (p *Packet) Pending() []byte {
	return p.Data[p.Offset : p.Offset+p.Size]
}

// Done reports whether nothing remains to be transferred.
func (p *Packet) Done() bool {
	return p.Size == 0
}

// Advance records a transfer of n bytes, shrinking the remaining size and
// moving the offset forward.
func (p *Packet) Advance(n int) error {
	if n < 0 || n > p.Size {
		return errors.Errorf("transfer of %d bytes exceeds %d remaining", n, p.Size)
	}
	p.Offset += n
	p.Size -= n

	return nil
}

// WriteFrame writes payload to w as a single frame.
func WriteFrame(w io.Writer, payload []byte) error {
	hdr, err := EncodeHeader(len(payload))
	if err != nil {
		return err
	}

	bufs := net.Buffers{hdr, payload}
	if _, err := bufs.WriteTo(w); err != nil {
		return errors.Wrap(err, "writing frame")
	}

	return nil
}

// ReadFrame reads one frame from r, rejecting content longer than maxContent
// when maxContent is positive.
func ReadFrame(r io.Reader, maxContent int) ([]byte, error) {
	var hdr [HeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}

	n, err := DecodeHeader(hdr[:])
	if err != nil {
		return nil, err
	}
	if maxContent > 0 && n > maxContent {
		return nil, errors.Wrapf(ErrContentTooLarge, "%d bytes, limit %d", n, maxContent)
	}

	content := make([]byte, n)
	if _, err := io.ReadFull(r, content); err != nil {
		return nil, errors.Wrap(err, "reading frame content")
	}

	return content, nil
}
