package asyncnet_test

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/andrei-cloud/asyncnet"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 16, 65535, asyncnet.MaxFrameLength} {
		hdr, err := asyncnet.EncodeHeader(n)
		require.NoError(t, err)
		require.Len(t, hdr, asyncnet.HeaderSize)

		got, err := asyncnet.DecodeHeader(hdr)
		require.NoError(t, err)
		require.Equal(t, n, got)
	}
}

func TestHeaderLayout(t *testing.T) {
	hdr, err := asyncnet.EncodeHeader(5)
	require.NoError(t, err)

	require.Equal(t, []byte{0xEF, 0xCD, 0xAB, 0x89, 0x67, 0x45, 0x23, 0x01}, hdr[:8])
	require.Equal(t, []byte{5, 0, 0, 0}, hdr[8:12])
	require.Equal(t, []byte{0, 0, 0, 0}, hdr[12:16])
}

func TestDecodeHeaderRejects(t *testing.T) {
	valid, err := asyncnet.EncodeHeader(3)
	require.NoError(t, err)

	cases := map[string]func([]byte) []byte{
		"flipped magic bit": func(h []byte) []byte {
			h[3] ^= 0x10
			return h
		},
		"nonzero padding": func(h []byte) []byte {
			h[15] = 1
			return h
		},
		"negative length": func(h []byte) []byte {
			binary.LittleEndian.PutUint32(h[8:12], uint32(0xFFFFFFFF))
			return h
		},
		"short": func(h []byte) []byte {
			return h[:asyncnet.HeaderSize-1]
		},
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			hdr := mutate(append([]byte(nil), valid...))
			_, err := asyncnet.DecodeHeader(hdr)
			require.ErrorIs(t, err, asyncnet.ErrProtocolHeaderInvalid)
		})
	}
}

func TestEncodeHeaderRejectsOutOfRange(t *testing.T) {
	_, err := asyncnet.EncodeHeader(-1)
	require.ErrorIs(t, err, asyncnet.ErrPayloadTooLarge)

	require.ErrorIs(t, asyncnet.PutHeader(make([]byte, 8), 1), io.ErrShortBuffer)
}

func TestPacketAdvance(t *testing.T) {
	p := asyncnet.Packet{Data: make([]byte, 10), Size: 10}

	require.NoError(t, p.Advance(4))
	require.Equal(t, 4, p.Offset)
	require.Equal(t, 6, p.Size)
	require.Len(t, p.Pending(), 6)
	require.False(t, p.Done())

	require.Error(t, p.Advance(7))
	require.Error(t, p.Advance(-1))

	require.NoError(t, p.Advance(6))
	require.True(t, p.Done())
	require.Equal(t, p.Offset+p.Size, len(p.Data))
}

func TestWriteReadFrame(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, asyncnet.WriteFrame(&buf, []byte("abc")))
	require.NoError(t, asyncnet.WriteFrame(&buf, nil))
	require.Equal(t, 2*asyncnet.HeaderSize+3, buf.Len())

	got, err := asyncnet.ReadFrame(&buf, 0)
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), got)

	got, err = asyncnet.ReadFrame(&buf, 0)
	require.NoError(t, err)
	require.Empty(t, got)

	_, err = asyncnet.ReadFrame(&buf, 0)
	require.ErrorIs(t, err, io.EOF)
}

func TestReadFrameLimit(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, asyncnet.WriteFrame(&buf, make([]byte, 32)))

	_, err := asyncnet.ReadFrame(&buf, 16)
	require.ErrorIs(t, err, asyncnet.ErrContentTooLarge)
}
