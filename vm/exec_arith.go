package vm

import "math"

// Every binary op here pops via stack.pop2 (LHS first, RHS second, per
// spec.md §4.2) and pushes exactly one result, mirroring the shape of
// the teacher's arithAddi/arithMuli helpers but operating on Slots
// directly instead of byte slices.

func (v *VM) execAddI() error {
	lhs, rhs, err := v.stack.pop2()
	if err != nil {
		return err
	}
	return v.stack.push(FromI64(AsI64(lhs) + AsI64(rhs)))
}

func (v *VM) execSubI() error {
	lhs, rhs, err := v.stack.pop2()
	if err != nil {
		return err
	}
	return v.stack.push(FromI64(AsI64(lhs) - AsI64(rhs)))
}

func (v *VM) execMulI() error {
	lhs, rhs, err := v.stack.pop2()
	if err != nil {
		return err
	}
	return v.stack.push(FromI64(AsI64(lhs) * AsI64(rhs)))
}

// execDivI implements signed division with the one special case ops.rs
// carves out: INT64_MIN/-1 overflows in two's complement but the
// original VM returns INT64_MIN rather than trapping; only rhs==0 is a
// DivZero fault.
func (v *VM) execDivI() error {
	lhs, rhs, err := v.stack.pop2()
	if err != nil {
		return err
	}
	a, b := AsI64(lhs), AsI64(rhs)
	if b == 0 {
		return DivZero
	}
	if a == math.MinInt64 && b == -1 {
		return v.stack.push(FromI64(math.MinInt64))
	}
	return v.stack.push(FromI64(a / b))
}

func (v *VM) execDivU() error {
	lhs, rhs, err := v.stack.pop2()
	if err != nil {
		return err
	}
	if rhs == 0 {
		return DivZero
	}
	return v.stack.push(lhs / rhs)
}

func (v *VM) execAddF() error {
	lhs, rhs, err := v.stack.pop2()
	if err != nil {
		return err
	}
	return v.stack.push(FromF64(AsF64(lhs) + AsF64(rhs)))
}

func (v *VM) execSubF() error {
	lhs, rhs, err := v.stack.pop2()
	if err != nil {
		return err
	}
	return v.stack.push(FromF64(AsF64(lhs) - AsF64(rhs)))
}

func (v *VM) execMulF() error {
	lhs, rhs, err := v.stack.pop2()
	if err != nil {
		return err
	}
	return v.stack.push(FromF64(AsF64(lhs) * AsF64(rhs)))
}

func (v *VM) execDivF() error {
	lhs, rhs, err := v.stack.pop2()
	if err != nil {
		return err
	}
	return v.stack.push(FromF64(AsF64(lhs) / AsF64(rhs)))
}

func (v *VM) execShl() error {
	lhs, rhs, err := v.stack.pop2()
	if err != nil {
		return err
	}
	return v.stack.push(FromI64(AsI64(lhs) << (uint(rhs) & 63)))
}

// execShr is the arithmetic (sign-preserving) right shift.
func (v *VM) execShr() error {
	lhs, rhs, err := v.stack.pop2()
	if err != nil {
		return err
	}
	return v.stack.push(FromI64(AsI64(lhs) >> (uint(rhs) & 63)))
}

// execShrL is the logical (zero-filling) right shift.
func (v *VM) execShrL() error {
	lhs, rhs, err := v.stack.pop2()
	if err != nil {
		return err
	}
	return v.stack.push(lhs >> (uint(rhs) & 63))
}

func (v *VM) execAnd() error {
	lhs, rhs, err := v.stack.pop2()
	if err != nil {
		return err
	}
	return v.stack.push(lhs & rhs)
}

func (v *VM) execOr() error {
	lhs, rhs, err := v.stack.pop2()
	if err != nil {
		return err
	}
	return v.stack.push(lhs | rhs)
}

func (v *VM) execXor() error {
	lhs, rhs, err := v.stack.pop2()
	if err != nil {
		return err
	}
	return v.stack.push(lhs ^ rhs)
}

// execNot is binary XOR, not a unary bitwise complement: ops.rs::not
// pops two operands just like every other logic op (spec.md's flagged
// open question, resolved against the ground truth).
func (v *VM) execNot() error {
	return v.execXor()
}

func cmpResult(lt, eq bool) Slot {
	switch {
	case lt:
		return FromI64(-1)
	case eq:
		return FromI64(0)
	default:
		return FromI64(1)
	}
}

func (v *VM) execCmpI() error {
	lhs, rhs, err := v.stack.pop2()
	if err != nil {
		return err
	}
	a, b := AsI64(lhs), AsI64(rhs)
	return v.stack.push(cmpResult(a < b, a == b))
}

func (v *VM) execCmpU() error {
	lhs, rhs, err := v.stack.pop2()
	if err != nil {
		return err
	}
	return v.stack.push(cmpResult(lhs < rhs, lhs == rhs))
}

// execCmpF treats any NaN-involving comparison as equal (0), matching
// ops.rs::cmp_t's partial_cmp-or-Equal fallback rather than propagating
// an ordering failure.
func (v *VM) execCmpF() error {
	lhs, rhs, err := v.stack.pop2()
	if err != nil {
		return err
	}
	a, b := AsF64(lhs), AsF64(rhs)
	if math.IsNaN(a) || math.IsNaN(b) {
		return v.stack.push(FromI64(0))
	}
	return v.stack.push(cmpResult(a < b, a == b))
}

func (v *VM) execNegI() error {
	x, err := v.stack.pop()
	if err != nil {
		return err
	}
	return v.stack.push(FromI64(-AsI64(x)))
}

func (v *VM) execNegF() error {
	x, err := v.stack.pop()
	if err != nil {
		return err
	}
	return v.stack.push(FromF64(-AsF64(x)))
}

func (v *VM) execIToF() error {
	x, err := v.stack.pop()
	if err != nil {
		return err
	}
	return v.stack.push(FromF64(float64(AsI64(x))))
}

func (v *VM) execFToI() error {
	x, err := v.stack.pop()
	if err != nil {
		return err
	}
	return v.stack.push(FromI64(int64(AsF64(x))))
}

// execSetLt and execSetGt are unary: they inspect the tri-state result
// of a prior Cmp* left on top of the stack and reduce it to 0/1, per
// ops.rs's bl/bg conditions (negative / positive-nonzero on one slot).
func (v *VM) execSetLt() error {
	x, err := v.stack.pop()
	if err != nil {
		return err
	}
	if AsI64(x) < 0 {
		return v.stack.push(1)
	}
	return v.stack.push(0)
}

func (v *VM) execSetGt() error {
	x, err := v.stack.pop()
	if err != nil {
		return err
	}
	if AsI64(x) > 0 {
		return v.stack.push(1)
	}
	return v.stack.push(0)
}
