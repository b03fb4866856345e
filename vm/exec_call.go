package vm

// Stack layout for an active frame, bottom to top:
//
//	[ ret (ret_slots, caller-reserved) | args (param_slots) | locals (loc_slots) | old_bp, old_ip, old_fn_id | operand stack... ]
//	                                                                               ^ bp
//
// bp is the index of the first saved slot (old_bp), per spec.md §3's
// literal invariant and ops.rs's call/ret, which compute bp as
// stack.len() *before* pushing the triple. LocA/ArgA (exec_mem.go) both
// subtract from bp to reach their windows using this same convention;
// ArgA also reaches the reserved ret window with a negative index. The
// caller is responsible for pushing ret_slots placeholder values before
// the arguments and before Call.

func (v *VM) execCall(id uint32) error {
	return v.enterCall(id)
}

// execCallName resolves idx through the deterministic name table built
// at construction (VM.nameTable) and otherwise behaves like execCall.
func (v *VM) execCallName(idx uint32) error {
	if int(idx) >= len(v.nameTable) {
		return errInvalidFnID(idx)
	}
	return v.enterCall(v.nameTable[idx])
}

func (v *VM) enterCall(id uint32) error {
	callee, err := v.program.FnByID(id)
	if err != nil {
		return err
	}

	if err := v.execStackAlloc(callee.LocSlots); err != nil {
		return err
	}

	newBP := v.stack.len()
	if err := v.stack.push(uint64(v.bp)); err != nil {
		return err
	}
	if err := v.stack.push(uint64(v.ip)); err != nil {
		return err
	}
	if err := v.stack.push(uint64(v.fnID)); err != nil {
		return err
	}

	v.bp = newBP
	v.fnID = id
	v.fnInfo = callee
	v.ip = 0
	return nil
}

// execRet unwinds the current frame (args+locals+triple) and restores
// the caller. It moves no return values itself: ops.rs's ret only reads
// the saved triple and truncates to bp-param_slots-loc_slots. A result
// reaches the caller because the callee writes it, before Ret, into the
// reserved slots the caller pushed below arg0 (reachable through ArgA
// with a negative index, exec_mem.go) — those slots sit below frameBase
// so truncating down to frameBase leaves them as the new top of stack.
// Returning from the start function (fnID 0 with no caller frame, i.e.
// bp==0) halts the VM cleanly rather than underflowing into a
// nonexistent caller.
func (v *VM) execRet() error {
	if v.bp == 0 && v.fnID == 0 {
		return Halt
	}

	oldBP, err := v.stack.get(v.bp)
	if err != nil {
		return err
	}
	oldIP, err := v.stack.get(v.bp + 1)
	if err != nil {
		return err
	}
	oldFnID, err := v.stack.get(v.bp + 2)
	if err != nil {
		return err
	}

	frameBase := v.bp - int(v.fnInfo.LocSlots) - int(v.fnInfo.ParamSlots)
	if err := v.stack.truncate(frameBase); err != nil {
		return err
	}

	callerID := uint32(oldFnID)
	callerFn, err := v.program.FnByID(callerID)
	if err != nil {
		return err
	}

	v.bp = int(oldBP)
	v.ip = int(oldIP)
	v.fnID = callerID
	v.fnInfo = callerFn
	return nil
}
