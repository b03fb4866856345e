package vm

import "encoding/binary"

// execLocA pushes the address of the a-th local slot of the current
// frame. bp marks the start of the saved (old_bp, old_ip, old_fn_id)
// triple (spec.md §3's invariant), so the loc_slots locals sit
// immediately below it: loc[k] at bp-loc_slots+k. This mirrors
// r0vm/src/vm/ops.rs's loc_a, ported byte-for-byte from its
// bp+a-total_loc arithmetic.
func (v *VM) execLocA(a uint32) error {
	loc := int(v.fnInfo.LocSlots)
	if int(a) >= loc {
		return errInvalidLocal(a)
	}
	idx := v.bp - loc + int(a)
	return v.stack.push(stackAddr(idx))
}

// execArgA pushes the address of argument/return slot a. Non-negative a
// reaches the param_slots arguments (arg[k] at bp-loc_slots-param_slots+k);
// a in [-ret_slots, 0) reaches the reserved return-value slots the
// caller pushed just below arg0, which is how a callee hands a result
// back to its caller (spec.md §4.6, ops.rs has no separate return-value
// stack movement — the callee writes through ArgA/Store instead).
func (v *VM) execArgA(a int32) error {
	params := int(v.fnInfo.ParamSlots)
	rets := int(v.fnInfo.RetSlots)
	if int(a) < -rets || int(a) >= params {
		return errInvalidLocal(uint32(a))
	}
	idx := v.bp - int(v.fnInfo.LocSlots) - params + int(a)
	return v.stack.push(stackAddr(idx))
}

func (v *VM) execGlobA(i uint32) error {
	if int(i) >= len(v.globalAddr) {
		return errInvalidGlobal(i)
	}
	return v.stack.push(v.globalAddr[i])
}

// regionBytes returns a live, in-bounds byte window for a Load/Store of
// width n at addr, picking the stack/heap/globals region by addr's tag.
func (v *VM) regionBytes(addr uint64, n uint32, forWrite bool) ([]byte, error) {
	if n != 1 && addr%uint64(n) != 0 {
		return nil, errUnaligned(addr)
	}

	switch tagOf(addr) {
	case regionStack:
		idx, sub := stackSlotAndOffset(addr)
		val, err := v.stack.get(idx)
		if err != nil {
			return nil, errInvalidAddress(addr)
		}
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], val)
		if sub+n > 8 {
			return nil, errInvalidAddress(addr)
		}
		if forWrite {
			// Caller writes through this slice; writeBack persists it.
			return buf[sub : sub+n], nil
		}
		return buf[sub : sub+n], nil
	case regionHeap:
		return v.heap.bytes(addr, n)
	case regionGlobals:
		if forWrite && v.globs.isReadOnly(addr) {
			return nil, errInvalidAddress(addr)
		}
		return v.globs.bytes(addr, n)
	default:
		return nil, errInvalidAddress(addr)
	}
}

// writeBackStackSlot re-reads the (possibly partially overwritten) 8
// bytes at addr's slot and stores them back, since regionBytes hands out
// a detached copy for the stack case (slots live as uint64, not []byte).
func (v *VM) writeBackStackSlot(addr uint64, window []byte) error {
	if tagOf(addr) != regionStack {
		return nil
	}
	idx, sub := stackSlotAndOffset(addr)
	val, err := v.stack.get(idx)
	if err != nil {
		return errInvalidAddress(addr)
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], val)
	copy(buf[sub:], window)
	return v.stack.set(idx, binary.LittleEndian.Uint64(buf[:]))
}

func (v *VM) execLoad(n uint32) error {
	addr, err := v.stack.pop()
	if err != nil {
		return err
	}
	window, err := v.regionBytes(addr, n, false)
	if err != nil {
		return err
	}
	var buf [8]byte
	copy(buf[:], window)
	return v.stack.push(binary.LittleEndian.Uint64(buf[:]))
}

func (v *VM) execStore(n uint32) error {
	val, err := v.stack.pop()
	if err != nil {
		return err
	}
	addr, err := v.stack.pop()
	if err != nil {
		return err
	}
	window, err := v.regionBytes(addr, n, true)
	if err != nil {
		return err
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], val)
	copy(window, buf[:n])
	return v.writeBackStackSlot(addr, window)
}

func (v *VM) execAlloc() error {
	n, err := v.stack.pop()
	if err != nil {
		return err
	}
	addr, err := v.heap.alloc(n)
	if err != nil {
		return err
	}
	return v.stack.push(addr)
}

func (v *VM) execFree() error {
	addr, err := v.stack.pop()
	if err != nil {
		return err
	}
	return v.heap.free(addr)
}

func (v *VM) execStackAlloc(n uint32) error {
	for i := uint32(0); i < n; i++ {
		if err := v.stack.push(0); err != nil {
			return err
		}
	}
	return nil
}
