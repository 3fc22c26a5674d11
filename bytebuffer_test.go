package asyncnet_test

import (
	"math"
	"testing"

	"github.com/andrei-cloud/asyncnet"
	"github.com/stretchr/testify/require"
)

func TestByteBufferPrimitives(t *testing.T) {
	b := asyncnet.NewByteBuffer(0, true)

	require.NoError(t, b.WriteUint8(0xAB))
	require.NoError(t, b.WriteInt8(-5))
	require.NoError(t, b.WriteBool(true))
	require.NoError(t, b.WriteUint16(0xBEEF))
	require.NoError(t, b.WriteInt16(math.MinInt16))
	require.NoError(t, b.WriteUint32(0xDEADBEEF))
	require.NoError(t, b.WriteInt32(-123456))
	require.NoError(t, b.WriteUint64(math.MaxUint64))
	require.NoError(t, b.WriteInt64(math.MinInt64))
	require.NoError(t, b.WriteFloat32(3.5))
	require.NoError(t, b.WriteFloat64(-2.25))
	require.Equal(t, 1+1+1+2+2+4+4+8+8+4+8, b.WritePos())

	u8, err := b.ReadUint8()
	require.NoError(t, err)
	require.Equal(t, uint8(0xAB), u8)
	i8, err := b.ReadInt8()
	require.NoError(t, err)
	require.Equal(t, int8(-5), i8)
	bl, err := b.ReadBool()
	require.NoError(t, err)
	require.True(t, bl)
	u16, err := b.ReadUint16()
	require.NoError(t, err)
	require.Equal(t, uint16(0xBEEF), u16)
	i16, err := b.ReadInt16()
	require.NoError(t, err)
	require.Equal(t, int16(math.MinInt16), i16)
	u32, err := b.ReadUint32()
	require.NoError(t, err)
	require.Equal(t, uint32(0xDEADBEEF), u32)
	i32, err := b.ReadInt32()
	require.NoError(t, err)
	require.Equal(t, int32(-123456), i32)
	u64, err := b.ReadUint64()
	require.NoError(t, err)
	require.Equal(t, uint64(math.MaxUint64), u64)
	i64, err := b.ReadInt64()
	require.NoError(t, err)
	require.Equal(t, int64(math.MinInt64), i64)
	f32, err := b.ReadFloat32()
	require.NoError(t, err)
	require.Equal(t, float32(3.5), f32)
	f64, err := b.ReadFloat64()
	require.NoError(t, err)
	require.Equal(t, -2.25, f64)

	require.Zero(t, b.Len())
	require.Equal(t, b.WritePos(), b.ReadPos())
}

func TestByteBufferLittleEndian(t *testing.T) {
	b := asyncnet.NewByteBuffer(8, false)
	require.NoError(t, b.WriteUint32(0x04030201))
	require.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, b.Bytes())
}

func TestByteBufferUnderflowLeavesCursor(t *testing.T) {
	b := asyncnet.NewByteBuffer(8, false)
	require.NoError(t, b.WriteUint16(7))

	_, err := b.ReadUint32()
	require.ErrorIs(t, err, asyncnet.ErrBufferUnderflow)
	require.Zero(t, b.ReadPos())

	_, ok := b.TryReadUint64()
	require.False(t, ok)
	require.Zero(t, b.ReadPos())

	v, ok := b.TryReadUint16()
	require.True(t, ok)
	require.Equal(t, uint16(7), v)
	require.Equal(t, 2, b.ReadPos())
}

func TestByteBufferPeek(t *testing.T) {
	b := asyncnet.NewByteBuffer(0, true)
	require.NoError(t, b.WriteInt64(42))

	v, err := b.PeekInt64()
	require.NoError(t, err)
	require.EqualValues(t, 42, v)
	require.Zero(t, b.ReadPos())

	v, err = b.ReadInt64()
	require.NoError(t, err)
	require.EqualValues(t, 42, v)
}

func TestByteBufferOverflowWithoutResize(t *testing.T) {
	b := asyncnet.NewByteBuffer(4, false)
	require.NoError(t, b.WriteUint32(1))

	require.ErrorIs(t, b.WriteUint8(2), asyncnet.ErrBufferOverflow)
	require.Equal(t, 4, b.WritePos())
	require.Equal(t, 4, b.Cap())

	b.Grow(16)
	require.Equal(t, 16, b.Cap())
	require.NoError(t, b.WriteUint8(2))
	require.Equal(t, []byte{1, 0, 0, 0, 2}, b.Bytes())
}

func TestByteBufferAutoResizeDoubles(t *testing.T) {
	b := asyncnet.NewByteBuffer(4, true)
	require.NoError(t, b.WriteUint64(1))
	require.Equal(t, 8, b.Cap())
	require.NoError(t, b.WriteUint8(1))
	require.Equal(t, 16, b.Cap())
}

func TestByteBufferStrings(t *testing.T) {
	b := asyncnet.NewByteBuffer(0, true)
	require.NoError(t, b.WriteString("héllo"))
	require.NoError(t, b.WriteString(""))
	require.Equal(t, 4+len("héllo")+4, b.WritePos())

	s, err := b.PeekString()
	require.NoError(t, err)
	require.Equal(t, "héllo", s)
	require.Zero(t, b.ReadPos())

	s, err = b.ReadString()
	require.NoError(t, err)
	require.Equal(t, "héllo", s)

	s, err = b.ReadString()
	require.NoError(t, err)
	require.Empty(t, s)
	require.Zero(t, b.Len())
}

func TestByteBufferNegativeStringLengthIsEmpty(t *testing.T) {
	b := asyncnet.NewByteBuffer(0, true)
	require.NoError(t, b.WriteInt32(-3))

	s, err := b.ReadString()
	require.NoError(t, err)
	require.Empty(t, s)
	require.Equal(t, 4, b.ReadPos())
}

func TestByteBufferTruncatedString(t *testing.T) {
	b := asyncnet.NewByteBuffer(0, true)
	require.NoError(t, b.WriteInt32(10))
	require.NoError(t, b.WriteBytes([]byte("abc")))

	_, err := b.ReadString()
	require.ErrorIs(t, err, asyncnet.ErrBufferUnderflow)
	require.Zero(t, b.ReadPos())

	_, ok := b.TryReadString()
	require.False(t, ok)
	require.Zero(t, b.ReadPos())
}

func TestByteBufferStringBounds(t *testing.T) {
	b := asyncnet.NewByteBuffer(0, true)
	require.NoError(t, b.WriteStringMax("日本語テキスト", 3))

	_, err := b.ReadStringMax(2)
	require.ErrorIs(t, err, asyncnet.ErrStringTooLong)
	require.Zero(t, b.ReadPos())

	s, err := b.ReadStringMax(3)
	require.NoError(t, err)
	require.Equal(t, "日本語", s)
}

func TestByteBufferArrays(t *testing.T) {
	b := asyncnet.NewByteBuffer(0, true)
	require.NoError(t, b.WriteInt32Array([]int32{1, -2, 3}))
	require.NoError(t, b.WriteFloat64Array(nil))
	require.NoError(t, b.WriteBoolArray([]bool{true, false}))
	require.NoError(t, b.WriteStringArray([]string{"a", "", "ccc"}))
	require.Equal(t, []byte{3, 0}, b.Bytes()[:2], "uint16 element count")

	ints, err := b.ReadInt32Array()
	require.NoError(t, err)
	require.Equal(t, []int32{1, -2, 3}, ints)

	floats, err := b.ReadFloat64Array()
	require.NoError(t, err)
	require.Empty(t, floats)

	bools, err := b.ReadBoolArray()
	require.NoError(t, err)
	require.Equal(t, []bool{true, false}, bools)

	strs, err := b.ReadStringArray()
	require.NoError(t, err)
	require.Equal(t, []string{"a", "", "ccc"}, strs)

	b.Reset()
	require.NoError(t, b.WriteInt8Array([]int8{-1, 0, 1}))
	require.Equal(t, []byte{3, 0, 0xFF, 0, 1}, b.Bytes())
	i8s, err := b.ReadInt8Array()
	require.NoError(t, err)
	require.Equal(t, []int8{-1, 0, 1}, i8s)
}

func TestByteBufferTruncatedArrayLeavesCursor(t *testing.T) {
	b := asyncnet.NewByteBuffer(0, true)
	require.NoError(t, b.WriteUint16(4))
	require.NoError(t, b.WriteUint32(1))

	_, err := b.ReadUint32Array()
	require.ErrorIs(t, err, asyncnet.ErrBufferUnderflow)
	require.Zero(t, b.ReadPos())

	b.Reset()
	require.NoError(t, b.WriteUint16(2))
	require.NoError(t, b.WriteString("ok"))

	_, err = b.ReadStringArray()
	require.ErrorIs(t, err, asyncnet.ErrBufferUnderflow)
	require.Zero(t, b.ReadPos())
}

func TestByteBufferArrayTooLong(t *testing.T) {
	b := asyncnet.NewByteBuffer(0, true)
	err := b.WriteUint16Array(make([]uint16, math.MaxUint16+1))
	require.ErrorIs(t, err, asyncnet.ErrArrayTooLong)
	require.Zero(t, b.WritePos())
}

func TestByteBufferBytes(t *testing.T) {
	b := asyncnet.NewByteBuffer(0, true)
	require.NoError(t, b.WriteBytesWithLength([]byte{9, 8, 7}))
	require.NoError(t, b.WriteBytes([]byte{1, 2}))

	p, err := b.ReadBytesWithLength()
	require.NoError(t, err)
	require.Equal(t, []byte{9, 8, 7}, p)

	_, err = b.ReadBytes(3)
	require.ErrorIs(t, err, asyncnet.ErrBufferUnderflow)

	require.Equal(t, []byte{1, 2}, b.ReadRemaining())
	require.Zero(t, b.Len())
}

func TestByteBufferFromBytes(t *testing.T) {
	src := []byte{1, 2, 3}

	aliased := asyncnet.FromBytes(src, false)
	copied := asyncnet.FromBytes(src, true)
	src[0] = 9

	require.Equal(t, []byte{9, 2, 3}, aliased.AvailableData())
	require.Equal(t, []byte{1, 2, 3}, copied.AvailableData())
	require.Equal(t, 3, copied.WritePos())
	require.Zero(t, copied.ReadPos())
}

func TestByteBufferFromString(t *testing.T) {
	b := asyncnet.FromString("hi")
	s, err := b.ReadString()
	require.NoError(t, err)
	require.Equal(t, "hi", s)
}

func TestByteBufferResets(t *testing.T) {
	b := asyncnet.NewByteBuffer(0, true)
	require.NoError(t, b.WriteUint32(5))
	_, err := b.ReadUint32()
	require.NoError(t, err)

	b.ResetRead()
	require.Zero(t, b.ReadPos())
	require.Equal(t, 4, b.WritePos())

	out := b.CopyData()
	out[0] = 0xFF
	v, err := b.PeekUint32()
	require.NoError(t, err)
	require.EqualValues(t, 5, v, "CopyData is detached")

	b.ResetWrite()
	require.Zero(t, b.WritePos())
	require.Zero(t, b.ReadPos())
}
