package vm

// Branch offsets are relative to the instruction immediately following
// the branch (ip has already been advanced past it in VM.Step), and the
// target must land within [0, len(ins)] inclusive — landing exactly at
// len(ins) is valid and simply falls through to a ControlReachesEnd on
// the next Step, matching ops.rs's branch bound check.

func (v *VM) branchTo(off int32) error {
	target := v.ip + int(off)
	if target < 0 || target > len(v.fnInfo.Ins) {
		return InstructionOffset
	}
	v.ip = target
	return nil
}

func (v *VM) execBr(off int32) error {
	return v.branchTo(off)
}

// execBrFalse pops the condition regardless of which way the branch
// goes: the pop always happens, only the jump is conditional.
func (v *VM) execBrFalse(off int32) error {
	cond, err := v.stack.pop()
	if err != nil {
		return err
	}
	if cond != 0 {
		return nil
	}
	return v.branchTo(off)
}

func (v *VM) execBrTrue(off int32) error {
	cond, err := v.stack.pop()
	if err != nil {
		return err
	}
	if cond == 0 {
		return nil
	}
	return v.branchTo(off)
}
