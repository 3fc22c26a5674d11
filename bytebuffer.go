package asyncnet

import (
	"encoding/binary"
	"math"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// DefaultBufferCapacity is the initial capacity of buffers created without an explicit size.
const DefaultBufferCapacity = 64

// ByteBuffer is a growable byte array with independent write and read cursors.
// All multi-byte values are encoded in little-endian byte order.
//
// The invariant 0 <= ReadPos() <= WritePos() <= Cap() holds after every call.
// A ByteBuffer is not safe for concurrent use.
type ByteBuffer struct {
	data       []byte
	writePos   int
	readPos    int
	autoResize bool
}

// NewByteBuffer returns an empty buffer with the given capacity. When autoResize
// is set the backing array doubles as needed, otherwise writes past capacity fail
// with ErrBufferOverflow.
func NewByteBuffer(capacity int, autoResize bool) *ByteBuffer {
	if capacity < 0 {
		capacity = 0
	}

	return &ByteBuffer{data: make([]byte, capacity), autoResize: autoResize}
}

// FromBytes wraps b as a buffer whose write cursor sits at len(b). When copyData
// is false the buffer aliases b until it has to grow.
func FromBytes(b []byte, copyData bool) *ByteBuffer {
	if !copyData {
		return &ByteBuffer{data: b, writePos: len(b), autoResize: true}
	}

	data := make([]byte, len(b))
	copy(data, b)

	return &ByteBuffer{data: data, writePos: len(data), autoResize: true}
}

// FromString returns an auto-resizing buffer holding s in string encoding.
func FromString(s string) *ByteBuffer {
	b := NewByteBuffer(DefaultBufferCapacity, true)
	_ = b.WriteString(s) // auto-resizing writes cannot fail.

	return b
}

// Bytes returns the written region [0, WritePos). The slice aliases the buffer.
func (b *ByteBuffer) Bytes() []byte { return b.data[:b.writePos] }

// AvailableData returns the unread region [ReadPos, WritePos). The slice aliases the buffer.
func (b *ByteBuffer) AvailableData() []byte { return b.data[b.readPos:b.writePos] }

// Len returns the number of unread bytes.
func (b *ByteBuffer) Len() int { return b.writePos - b.readPos }

// Cap returns the size of the backing array.
func (b *ByteBuffer) Cap() int { return len(b.data) }

// WritePos returns the write cursor.
func (b *ByteBuffer) WritePos() int { return b.writePos }

// ReadPos returns the read cursor.
func (b *ByteBuffer) ReadPos() int { return b.readPos }

// AutoResize reports whether the buffer grows on demand.
func (b *ByteBuffer) AutoResize() bool { return b.autoResize }

// CopyData returns a copy of the written region.
func (b *ByteBuffer) CopyData() []byte {
	out := make([]byte, b.writePos)
	copy(out, b.data[:b.writePos])

	return out
}

// Grow makes sure the backing array holds at least size bytes, regardless of
// the auto-resize setting.
func (b *ByteBuffer) Grow(size int) {
	if size > len(b.data) {
		b.resize(size)
	}
}

// Reset rewinds both cursors, keeping the backing array.
func (b *ByteBuffer) Reset() {
	b.writePos = 0
	b.readPos = 0
}

// ResetRead rewinds the read cursor so written data can be decoded again.
func (b *ByteBuffer) ResetRead() { b.readPos = 0 }

// ResetWrite rewinds the write cursor. The read cursor follows it to keep
// ReadPos <= WritePos.
func (b *ByteBuffer) ResetWrite() {
	b.writePos = 0
	b.readPos = 0
}

// resize doubles the backing array until it holds need bytes.
func (b *ByteBuffer) resize(need int) {
	size := len(b.data)
	if size == 0 {
		size = 1
	}
	for size < need {
		size *= 2
	}

	data := make([]byte, size)
	copy(data, b.data[:b.writePos])
	b.data = data
}

// reserve advances the write cursor by n bytes and returns the previous offset.
func (b *ByteBuffer) reserve(n int) (int, error) {
	need := b.writePos + n
	if need > len(b.data) {
		if !b.autoResize {
			return 0, errors.Wrapf(ErrBufferOverflow, "need %d bytes, capacity %d", need, len(b.data))
		}
		b.resize(need)
	}

	off := b.writePos
	b.writePos = need

	return off, nil
}

// need checks that n unread bytes exist and returns the read offset.
func (b *ByteBuffer) need(n int) (int, error) {
	if n < 0 || b.writePos-b.readPos < n {
		return 0, errors.Wrapf(ErrBufferUnderflow, "need %d bytes, %d available", n, b.writePos-b.readPos)
	}

	return b.readPos, nil
}

// codec describes the fixed-width encoding of T.
type codec[T any] struct {
	size int
	put  func([]byte, T)
	get  func([]byte) T
}

var (
	uint8Codec = codec[uint8]{1,
		func(p []byte, v uint8) { p[0] = v },
		func(p []byte) uint8 { return p[0] }}
	int8Codec = codec[int8]{1,
		func(p []byte, v int8) { p[0] = byte(v) },
		func(p []byte) int8 { return int8(p[0]) }}
	boolCodec = codec[bool]{1,
		func(p []byte, v bool) {
			p[0] = 0
			if v {
				p[0] = 1
			}
		},
		func(p []byte) bool { return p[0] != 0 }}
	uint16Codec = codec[uint16]{2, binary.LittleEndian.PutUint16, binary.LittleEndian.Uint16}
	int16Codec  = codec[int16]{2,
		func(p []byte, v int16) { binary.LittleEndian.PutUint16(p, uint16(v)) },
		func(p []byte) int16 { return int16(binary.LittleEndian.Uint16(p)) }}
	uint32Codec = codec[uint32]{4, binary.LittleEndian.PutUint32, binary.LittleEndian.Uint32}
	int32Codec  = codec[int32]{4,
		func(p []byte, v int32) { binary.LittleEndian.PutUint32(p, uint32(v)) },
		func(p []byte) int32 { return int32(binary.LittleEndian.Uint32(p)) }}
	uint64Codec = codec[uint64]{8, binary.LittleEndian.PutUint64, binary.LittleEndian.Uint64}
	int64Codec  = codec[int64]{8,
		func(p []byte, v int64) { binary.LittleEndian.PutUint64(p, uint64(v)) },
		func(p []byte) int64 { return int64(binary.LittleEndian.Uint64(p)) }}
	float32Codec = codec[float32]{4,
		func(p []byte, v float32) { binary.LittleEndian.PutUint32(p, math.Float32bits(v)) },
		func(p []byte) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(p)) }}
	float64Codec = codec[float64]{8,
		func(p []byte, v float64) { binary.LittleEndian.PutUint64(p, math.Float64bits(v)) },
		func(p []byte) float64 { return math.Float64frombits(binary.LittleEndian.Uint64(p)) }}
)

func writeValue[T any](b *ByteBuffer, c codec[T], v T) error {
	off, err := b.reserve(c.size)
	if err != nil {
		return err
	}
	c.put(b.data[off:], v)

	return nil
}

func readValue[T any](b *ByteBuffer, c codec[T]) (T, error) {
	v, err := peekValue(b, c)
	if err != nil {
		return v, err
	}
	b.readPos += c.size

	return v, nil
}

func peekValue[T any](b *ByteBuffer, c codec[T]) (T, error) {
	var zero T
	off, err := b.need(c.size)
	if err != nil {
		return zero, err
	}

	return c.get(b.data[off:]), nil
}

func tryReadValue[T any](b *ByteBuffer, c codec[T]) (T, bool) {
	var zero T
	if b.writePos-b.readPos < c.size {
		return zero, false
	}
	v := c.get(b.data[b.readPos:])
	b.readPos += c.size

	return v, true
}

func writeArray[T any](b *ByteBuffer, c codec[T], vs []T) error {
	if len(vs) > math.MaxUint16 {
		return errors.Wrapf(ErrArrayTooLong, "%d elements", len(vs))
	}

	off, err := b.reserve(2 + c.size*len(vs))
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(b.data[off:], uint16(len(vs)))
	off += 2
	for _, v := range vs {
		c.put(b.data[off:], v)
		off += c.size
	}

	return nil
}

// readArray decodes a counted array. The read cursor only moves when the whole
// array is available.
func readArray[T any](b *ByteBuffer, c codec[T]) ([]T, error) {
	count, err := peekValue(b, uint16Codec)
	if err != nil {
		return nil, err
	}

	total := 2 + c.size*int(count)
	off, err := b.need(total)
	if err != nil {
		return nil, err
	}

	out := make([]T, count)
	off += 2
	for i := range out {
		out[i] = c.get(b.data[off:])
		off += c.size
	}
	b.readPos += total

	return out, nil
}

// WriteUint8 appends a single byte.
func (b *ByteBuffer) WriteUint8(v uint8) error { return writeValue(b, uint8Codec, v) }

// WriteInt8 appends a signed byte.
func (b *ByteBuffer) WriteInt8(v int8) error { return writeValue(b, int8Codec, v) }

// WriteBool appends a bool as one byte (0 or 1).
func (b *ByteBuffer) WriteBool(v bool) error { return writeValue(b, boolCodec, v) }

// WriteUint16 appends a 16-bit unsigned integer.
func (b *ByteBuffer) WriteUint16(v uint16) error { return writeValue(b, uint16Codec, v) }

// WriteInt16 appends a 16-bit signed integer.
func (b *ByteBuffer) WriteInt16(v int16) error { return writeValue(b, int16Codec, v) }

// WriteUint32 appends a 32-bit unsigned integer.
func (b *ByteBuffer) WriteUint32(v uint32) error { return writeValue(b, uint32Codec, v) }

// WriteInt32 appends a 32-bit signed integer.
func (b *ByteBuffer) WriteInt32(v int32) error { return writeValue(b, int32Codec, v) }

// WriteUint64 appends a 64-bit unsigned integer.
func (b *ByteBuffer) WriteUint64(v uint64) error { return writeValue(b, uint64Codec, v) }

// WriteInt64 appends a 64-bit signed integer.
func (b *ByteBuffer) WriteInt64(v int64) error { return writeValue(b, int64Codec, v) }

// WriteFloat32 appends an IEEE 754 single-precision float.
func (b *ByteBuffer) WriteFloat32(v float32) error { return writeValue(b, float32Codec, v) }

// WriteFloat64 appends an IEEE 754 double-precision float.
func (b *ByteBuffer) WriteFloat64(v float64) error { return writeValue(b, float64Codec, v) }

func (b *ByteBuffer) ReadUint8() (uint8, error)     { return readValue(b, uint8Codec) }
func (b *ByteBuffer) ReadInt8() (int8, error)       { return readValue(b, int8Codec) }
func (b *ByteBuffer) ReadBool() (bool, error)       { return readValue(b, boolCodec) }
func (b *ByteBuffer) ReadUint16() (uint16, error)   { return readValue(b, uint16Codec) }
func (b *ByteBuffer) ReadInt16() (int16, error)     { return readValue(b, int16Codec) }
func (b *ByteBuffer) ReadUint32() (uint32, error)   { return readValue(b, uint32Codec) }
func (b *ByteBuffer) ReadInt32() (int32, error)     { return readValue(b, int32Codec) }
func (b *ByteBuffer) ReadUint64() (uint64, error)   { return readValue(b, uint64Codec) }
func (b *ByteBuffer) ReadInt64() (int64, error)     { return readValue(b, int64Codec) }
func (b *ByteBuffer) ReadFloat32() (float32, error) { return readValue(b, float32Codec) }
func (b *ByteBuffer) ReadFloat64() (float64, error) { return readValue(b, float64Codec) }

func (b *ByteBuffer) PeekUint8() (uint8, error)     { return peekValue(b, uint8Codec) }
func (b *ByteBuffer) PeekInt8() (int8, error)       { return peekValue(b, int8Codec) }
func (b *ByteBuffer) PeekBool() (bool, error)       { return peekValue(b, boolCodec) }
func (b *ByteBuffer) PeekUint16() (uint16, error)   { return peekValue(b, uint16Codec) }
func (b *ByteBuffer) PeekInt16() (int16, error)     { return peekValue(b, int16Codec) }
func (b *ByteBuffer) PeekUint32() (uint32, error)   { return peekValue(b, uint32Codec) }
func (b *ByteBuffer) PeekInt32() (int32, error)     { return peekValue(b, int32Codec) }
func (b *ByteBuffer) PeekUint64() (uint64, error)   { return peekValue(b, uint64Codec) }
func (b *ByteBuffer) PeekInt64() (int64, error)     { return peekValue(b, int64Codec) }
func (b *ByteBuffer) PeekFloat32() (float32, error) { return peekValue(b, float32Codec) }
func (b *ByteBuffer) PeekFloat64() (float64, error) { return peekValue(b, float64Codec) }

// TryRead variants report false and leave the read cursor untouched when not
// enough data is available.

func (b *ByteBuffer) TryReadUint8() (uint8, bool)     { return tryReadValue(b, uint8Codec) }
func (b *ByteBuffer) TryReadInt8() (int8, bool)       { return tryReadValue(b, int8Codec) }
func (b *ByteBuffer) TryReadBool() (bool, bool)       { return tryReadValue(b, boolCodec) }
func (b *ByteBuffer) TryReadUint16() (uint16, bool)   { return tryReadValue(b, uint16Codec) }
func (b *ByteBuffer) TryReadInt16() (int16, bool)     { return tryReadValue(b, int16Codec) }
func (b *ByteBuffer) TryReadUint32() (uint32, bool)   { return tryReadValue(b, uint32Codec) }
func (b *ByteBuffer) TryReadInt32() (int32, bool)     { return tryReadValue(b, int32Codec) }
func (b *ByteBuffer) TryReadUint64() (uint64, bool)   { return tryReadValue(b, uint64Codec) }
func (b *ByteBuffer) TryReadInt64() (int64, bool)     { return tryReadValue(b, int64Codec) }
func (b *ByteBuffer) TryReadFloat32() (float32, bool) { return tryReadValue(b, float32Codec) }
func (b *ByteBuffer) TryReadFloat64() (float64, bool) { return tryReadValue(b, float64Codec) }

// Arrays are encoded as a uint16 element count followed by packed elements.

func (b *ByteBuffer) WriteUint8Array(vs []uint8) error     { return writeArray(b, uint8Codec, vs) }
func (b *ByteBuffer) WriteInt8Array(vs []int8) error       { return writeArray(b, int8Codec, vs) }
func (b *ByteBuffer) WriteBoolArray(vs []bool) error       { return writeArray(b, boolCodec, vs) }
func (b *ByteBuffer) WriteUint16Array(vs []uint16) error   { return writeArray(b, uint16Codec, vs) }
func (b *ByteBuffer) WriteInt16Array(vs []int16) error     { return writeArray(b, int16Codec, vs) }
func (b *ByteBuffer) WriteUint32Array(vs []uint32) error   { return writeArray(b, uint32Codec, vs) }
func (b *ByteBuffer) WriteInt32Array(vs []int32) error     { return writeArray(b, int32Codec, vs) }
func (b *ByteBuffer) WriteUint64Array(vs []uint64) error   { return writeArray(b, uint64Codec, vs) }
func (b *ByteBuffer) WriteInt64Array(vs []int64) error     { return writeArray(b, int64Codec, vs) }
func (b *ByteBuffer) WriteFloat32Array(vs []float32) error { return writeArray(b, float32Codec, vs) }
func (b *ByteBuffer) WriteFloat64Array(vs []float64) error { return writeArray(b, float64Codec, vs) }

func (b *ByteBuffer) ReadUint8Array() ([]uint8, error)     { return readArray(b, uint8Codec) }
func (b *ByteBuffer) ReadInt8Array() ([]int8, error)       { return readArray(b, int8Codec) }
func (b *ByteBuffer) ReadBoolArray() ([]bool, error)       { return readArray(b, boolCodec) }
func (b *ByteBuffer) ReadUint16Array() ([]uint16, error)   { return readArray(b, uint16Codec) }
func (b *ByteBuffer) ReadInt16Array() ([]int16, error)     { return readArray(b, int16Codec) }
func (b *ByteBuffer) ReadUint32Array() ([]uint32, error)   { return readArray(b, uint32Codec) }
func (b *ByteBuffer) ReadInt32Array() ([]int32, error)     { return readArray(b, int32Codec) }
func (b *ByteBuffer) ReadUint64Array() ([]uint64, error)   { return readArray(b, uint64Codec) }
func (b *ByteBuffer) ReadInt64Array() ([]int64, error)     { return readArray(b, int64Codec) }
func (b *ByteBuffer) ReadFloat32Array() ([]float32, error) { return readArray(b, float32Codec) }
func (b *ByteBuffer) ReadFloat64Array() ([]float64, error) { return readArray(b, float64Codec) }

// WriteBytes appends p without a length prefix.
func (b *ByteBuffer) WriteBytes(p []byte) error {
	off, err := b.reserve(len(p))
	if err != nil {
		return err
	}
	copy(b.data[off:], p)

	return nil
}

// WriteBytesWithLength appends p behind an int32 length prefix.
func (b *ByteBuffer) WriteBytesWithLength(p []byte) error {
	if len(p) > math.MaxInt32 {
		return errors.Wrapf(ErrPayloadTooLarge, "%d bytes", len(p))
	}

	off, err := b.reserve(4 + len(p))
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b.data[off:], uint32(len(p)))
	copy(b.data[off+4:], p)

	return nil
}

// ReadBytes returns a copy of the next n bytes.
func (b *ByteBuffer) ReadBytes(n int) ([]byte, error) {
	off, err := b.need(n)
	if err != nil {
		return nil, err
	}

	out := make([]byte, n)
	copy(out, b.data[off:off+n])
	b.readPos += n

	return out, nil
}

// ReadBytesWithLength reads an int32 length prefix and returns a copy of that many bytes.
func (b *ByteBuffer) ReadBytesWithLength() ([]byte, error) {
	n, err := b.PeekInt32()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		n = 0
	}

	off, err := b.need(4 + int(n))
	if err != nil {
		return nil, err
	}

	out := make([]byte, n)
	copy(out, b.data[off+4:off+4+int(n)])
	b.readPos += 4 + int(n)

	return out, nil
}

// ReadRemaining returns a copy of all unread bytes and moves the read cursor to the write cursor.
func (b *ByteBuffer) ReadRemaining() []byte {
	out := make([]byte, b.writePos-b.readPos)
	copy(out, b.data[b.readPos:b.writePos])
	b.readPos = b.writePos

	return out
}

// WriteString appends s as an int32 byte length followed by its bytes. An
// empty string is written as a zero length with no body.
func (b *ByteBuffer) WriteString(s string) error {
	if len(s) > math.MaxInt32 {
		return errors.Wrapf(ErrPayloadTooLarge, "%d bytes", len(s))
	}

	off, err := b.reserve(4 + len(s))
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b.data[off:], uint32(len(s)))
	copy(b.data[off+4:], s)

	return nil
}

// WriteStringMax writes at most maxChars characters of s.
func (b *ByteBuffer) WriteStringMax(s string, maxChars int) error {
	return b.WriteString(truncateRunes(s, maxChars))
}

// ReadString decodes a string written by WriteString. The read cursor only
// moves when the whole string is available.
func (b *ByteBuffer) ReadString() (string, error) {
	s, n, err := b.peekString()
	if err != nil {
		return "", err
	}
	b.readPos += n

	return s, nil
}

// ReadStringMax decodes a string and fails with ErrStringTooLong, leaving the
// cursor untouched, when it holds more than maxChars characters.
func (b *ByteBuffer) ReadStringMax(maxChars int) (string, error) {
	s, n, err := b.peekString()
	if err != nil {
		return "", err
	}
	if utf8.RuneCountInString(s) > maxChars {
		return "", errors.Wrapf(ErrStringTooLong, "limit %d characters", maxChars)
	}
	b.readPos += n

	return s, nil
}

// PeekString decodes the next string without moving the read cursor.
func (b *ByteBuffer) PeekString() (string, error) {
	s, _, err := b.peekString()

	return s, err
}

// TryReadString reports false and leaves the cursor untouched when the next
// string is not fully available.
func (b *ByteBuffer) TryReadString() (string, bool) {
	s, n, err := b.peekString()
	if err != nil {
		return "", false
	}
	b.readPos += n

	return s, true
}

// peekString returns the next string and its encoded size.
func (b *ByteBuffer) peekString() (string, int, error) {
	n, err := b.PeekInt32()
	if err != nil {
		return "", 0, err
	}
	if n <= 0 {
		return "", 4, nil
	}

	off, err := b.need(4 + int(n))
	if err != nil {
		return "", 0, err
	}

	return string(b.data[off+4 : off+4+int(n)]), 4 + int(n), nil
}

// WriteStringArray appends a uint16 count followed by each string in string encoding.
func (b *ByteBuffer) WriteStringArray(vs []string) error {
	return b.writeStrings(vs, -1)
}

// WriteStringArrayMax is WriteStringArray with every element truncated to maxChars characters.
func (b *ByteBuffer) WriteStringArrayMax(vs []string, maxChars int) error {
	return b.writeStrings(vs, maxChars)
}

func (b *ByteBuffer) writeStrings(vs []string, maxChars int) error {
	if len(vs) > math.MaxUint16 {
		return errors.Wrapf(ErrArrayTooLong, "%d elements", len(vs))
	}

	start := b.writePos
	if err := b.WriteUint16(uint16(len(vs))); err != nil {
		return err
	}
	for _, s := range vs {
		if maxChars >= 0 {
			s = truncateRunes(s, maxChars)
		}
		if err := b.WriteString(s); err != nil {
			b.writePos = start
			return err
		}
	}

	return nil
}

// ReadStringArray decodes an array written by WriteStringArray. On failure the
// read cursor is restored.
func (b *ByteBuffer) ReadStringArray() ([]string, error) {
	return b.readStrings(-1)
}

// ReadStringArrayMax is ReadStringArray with a per-element character bound.
func (b *ByteBuffer) ReadStringArrayMax(maxChars int) ([]string, error) {
	return b.readStrings(maxChars)
}

func (b *ByteBuffer) readStrings(maxChars int) ([]string, error) {
	start := b.readPos
	count, err := b.ReadUint16()
	if err != nil {
		return nil, err
	}

	out := make([]string, count)
	for i := range out {
		if maxChars >= 0 {
			out[i], err = b.ReadStringMax(maxChars)
		} else {
			out[i], err = b.ReadString()
		}
		if err != nil {
			b.readPos = start
			return nil, err
		}
	}

	return out, nil
}

// truncateRunes cuts s after maxChars characters without splitting a UTF-8 sequence.
func truncateRunes(s string, maxChars int) string {
	if maxChars <= 0 {
		return ""
	}

	count := 0
	for i := range s {
		if count == maxChars {
			return s[:i]
		}
		count++
	}

	return s
}
