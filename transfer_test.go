package asyncnet_test

import (
	"testing"

	"github.com/andrei-cloud/asyncnet"
	"github.com/stretchr/testify/require"
)

// feed copies wire bytes into op in chunks of at most size, the way a
// socket read would, and records the states seen after each chunk.
func feed(t *testing.T, op *asyncnet.TransferOperation, wire []byte, size int) []asyncnet.TransferState {
	t.Helper()

	var states []asyncnet.TransferState
	for op.State() != asyncnet.ContentDone {
		dst := op.Current().Pending()
		n := copy(dst, wire[:min(size, len(wire), len(dst))])
		wire = wire[n:]
		require.NoError(t, op.Complete(n))
		states = append(states, op.State())
	}
	require.Empty(t, wire, "operation consumed exactly one frame")

	return states
}

func TestReceiveOperationChunks(t *testing.T) {
	payload := []byte("chunked payload")
	wire := frame(payload)

	for _, size := range []int{1, 2, 7, asyncnet.HeaderSize, len(wire)} {
		op := asyncnet.NewReceiveOperation(0, nil)
		require.Equal(t, asyncnet.HeaderPending, op.State())
		require.Equal(t, asyncnet.Receive, op.Direction())

		states := feed(t, op, wire, size)
		require.Equal(t, asyncnet.ContentDone, states[len(states)-1])
		for i := 1; i < len(states); i++ {
			require.GreaterOrEqual(t, int(states[i]), int(states[i-1]), "states never move backwards")
		}

		require.Equal(t, len(payload), op.ContentLength())
		require.Equal(t, payload, op.Payload())
	}
}

func TestReceiveOperationTag(t *testing.T) {
	op := asyncnet.NewReceiveOperation(0, "owner")
	require.Equal(t, "owner", op.Tag())
}

func TestReceiveOperationZeroLength(t *testing.T) {
	op := asyncnet.NewReceiveOperation(0, nil)
	require.NoError(t, op.Complete(copy(op.Current().Pending(), frame(nil))))

	require.Equal(t, asyncnet.ContentDone, op.State())
	require.Zero(t, op.ContentLength())
	require.NotNil(t, op.Payload())
	require.Empty(t, op.Payload())
}

func TestReceiveOperationInvalidHeader(t *testing.T) {
	op := asyncnet.NewReceiveOperation(0, nil)
	wire := frame([]byte("x"))
	wire[0] ^= 0xFF

	err := op.Complete(copy(op.Current().Pending(), wire))
	require.ErrorIs(t, err, asyncnet.ErrProtocolHeaderInvalid)
}

func TestReceiveOperationContentLimit(t *testing.T) {
	op := asyncnet.NewReceiveOperation(4, nil)
	err := op.Complete(copy(op.Current().Pending(), frame(make([]byte, 5))))
	require.ErrorIs(t, err, asyncnet.ErrContentTooLarge)
}

func TestSendOperationPartialWrites(t *testing.T) {
	payload := []byte("send me")
	op, err := asyncnet.NewSendOperation(payload, "tag")
	require.NoError(t, err)
	require.Equal(t, asyncnet.Send, op.Direction())
	require.Equal(t, "tag", op.Tag())
	require.Equal(t, len(payload), op.ContentLength())

	var wire []byte
	for op.State() != asyncnet.ContentDone {
		chunk := op.Current().Pending()
		n := min(3, len(chunk))
		wire = append(wire, chunk[:n]...)
		require.NoError(t, op.Complete(n))
	}

	require.Equal(t, frame(payload), wire)
}

func TestSendOperationZeroLength(t *testing.T) {
	op, err := asyncnet.NewSendOperation(nil, nil)
	require.NoError(t, err)

	require.NoError(t, op.Complete(asyncnet.HeaderSize))
	require.Equal(t, asyncnet.ContentDone, op.State())
}

func TestCompleteAfterDone(t *testing.T) {
	op, err := asyncnet.NewSendOperation([]byte{1}, nil)
	require.NoError(t, err)
	require.NoError(t, op.Complete(asyncnet.HeaderSize))
	require.Equal(t, asyncnet.ContentPending, op.State())
	require.NoError(t, op.Complete(1))

	require.Error(t, op.Complete(1))
	require.Equal(t, asyncnet.ContentDone, op.State())
}

func TestTransferStateString(t *testing.T) {
	require.Equal(t, "header-pending", asyncnet.HeaderPending.String())
	require.Equal(t, "content-done", asyncnet.ContentDone.String())
	require.Equal(t, "send", asyncnet.Send.String())
}
