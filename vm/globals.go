package vm

// globalStore holds the backing bytes for every global, addressed the
// same id-in-high-bits way as the heap (address.go), but with a fixed
// id per global assigned once at construction instead of growing over
// time.
type globalStore struct {
	data     [][]byte
	readOnly []bool
}

func newGlobalStore(globals []Global) (*globalStore, []uint64) {
	gs := &globalStore{
		data:     make([][]byte, len(globals)),
		readOnly: make([]bool, len(globals)),
	}
	addrs := make([]uint64, len(globals))
	for i, g := range globals {
		buf := make([]byte, g.Size)
		copy(buf, g.Init)
		gs.data[i] = buf
		gs.readOnly[i] = g.ReadOnly
		addrs[i] = makeAddr(regionGlobals, uint32(i), 0)
	}
	return gs, addrs
}

func (gs *globalStore) bytes(addr uint64, n uint32) ([]byte, error) {
	id := blockID(addr)
	if int(id) >= len(gs.data) {
		return nil, errInvalidAddress(addr)
	}
	off := blockOff(addr)
	buf := gs.data[id]
	if uint64(off)+uint64(n) > uint64(len(buf)) {
		return nil, errInvalidAddress(addr)
	}
	return buf[off : off+n], nil
}

func (gs *globalStore) isReadOnly(addr uint64) bool {
	id := blockID(addr)
	if int(id) >= len(gs.readOnly) {
		return false
	}
	return gs.readOnly[id]
}
