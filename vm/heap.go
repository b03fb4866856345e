package vm

// heapBlock is one live-or-dead allocation. Dead blocks are kept around
// (rather than removed) purely so a stale address reports InvalidAddress
// instead of silently resolving to whatever later reused the slot.
type heapBlock struct {
	data []byte
	live bool
}

// heap is the VM's allocator: Alloc/Free map directly onto it, and every
// Load/Store to a heap-tagged address is validated against it.
type heap struct {
	blocks []heapBlock
	nextID uint32
}

func newHeap() *heap {
	return &heap{}
}

// alloc reserves a fresh block of n bytes (8-byte aligned by construction
// since every block starts at offset 0 of its own id) and returns its
// base address. A zero-length request still returns a distinct id so the
// address is non-null, but the block has no valid offsets to dereference
// (spec.md §4.5: "len == 0 returns a distinct non-null sentinel that is
// not dereferenceable").
func (h *heap) alloc(n uint64) (uint64, error) {
	const maxHeapBlock = 1 << 32 // block offsets are 32 bits (see address.go)
	if n >= maxHeapBlock {
		return 0, &Error{Kind: ErrOutOfMemory}
	}

	id := h.nextID
	h.nextID++
	h.blocks = append(h.blocks, heapBlock{data: make([]byte, n), live: true})
	return makeAddr(regionHeap, id, 0), nil
}

// free marks addr's block dead. addr must be exactly a block's base
// address (offset 0); freeing a non-base address or an already-dead
// block is InvalidAddress, matching spec.md §3's "double-free and free
// of non-base addresses are errors".
func (h *heap) free(addr uint64) error {
	if tagOf(addr) != regionHeap {
		return errInvalidAddress(addr)
	}
	id := blockID(addr)
	if blockOff(addr) != 0 || int(id) >= len(h.blocks) || !h.blocks[id].live {
		return errInvalidAddress(addr)
	}
	h.blocks[id].live = false
	return nil
}

// bytes returns a live n-byte window into addr's block, or
// InvalidAddress if the block is dead, unknown, or the window falls
// outside it.
func (h *heap) bytes(addr uint64, n uint32) ([]byte, error) {
	id := blockID(addr)
	if int(id) >= len(h.blocks) || !h.blocks[id].live {
		return nil, errInvalidAddress(addr)
	}
	off := blockOff(addr)
	blk := h.blocks[id].data
	if uint64(off)+uint64(n) > uint64(len(blk)) {
		return nil, errInvalidAddress(addr)
	}
	return blk[off : off+n], nil
}
