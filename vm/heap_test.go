package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeapAllocFreeRoundTrip(t *testing.T) {
	h := newHeap()
	addr, err := h.alloc(16)
	require.NoError(t, err)

	buf, err := h.bytes(addr, 8)
	require.NoError(t, err)
	require.Len(t, buf, 8)

	require.NoError(t, h.free(addr))
}

func TestHeapDoubleFreeIsInvalidAddress(t *testing.T) {
	h := newHeap()
	addr, err := h.alloc(8)
	require.NoError(t, err)
	require.NoError(t, h.free(addr))

	err = h.free(addr)
	var ve *Error
	require.ErrorAs(t, err, &ve)
	require.Equal(t, ErrInvalidAddress, ve.Kind)
}

func TestHeapFreeOfNonBaseAddressFails(t *testing.T) {
	h := newHeap()
	addr, err := h.alloc(16)
	require.NoError(t, err)

	mid := makeAddr(regionHeap, blockID(addr), 4)
	err = h.free(mid)
	var ve *Error
	require.ErrorAs(t, err, &ve)
	require.Equal(t, ErrInvalidAddress, ve.Kind)
}

func TestHeapBytesOutOfBoundsFails(t *testing.T) {
	h := newHeap()
	addr, err := h.alloc(4)
	require.NoError(t, err)

	_, err = h.bytes(addr, 8)
	require.Error(t, err)
}

func TestHeapZeroLengthAllocIsDistinctSentinel(t *testing.T) {
	h := newHeap()
	a, err := h.alloc(0)
	require.NoError(t, err)
	b, err := h.alloc(0)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}
