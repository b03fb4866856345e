package vm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestCallReturnRoundTrip builds a two-function program: fn0 (the start
// function) reserves a return slot, pushes an argument and calls fn1,
// which loads the argument back through ArgA/Load64, adds one, and
// writes the result into the reserved slot the caller pushed below
// arg0 (ArgA with a negative index) — there is no separate
// return-value movement on Ret itself.
func TestCallReturnRoundTrip(t *testing.T) {
	fn1 := FnDef{
		ParamSlots: 1,
		RetSlots:   1,
		Ins: []Op{
			ArgA(-1), // address of the caller's reserved return slot
			ArgA(0), Load64,
			Push(1), AddI,
			Store64, // ret slot = arg[0] + 1
			Ret,
		},
	}
	fn0 := FnDef{
		Ins: []Op{
			Push(0),  // reserved return slot
			Push(41), // argument
			Call(1),
			Ret,
		},
	}

	p := &Program{Functions: []FnDef{fn0, fn1}}
	v, err := New(p, strings.NewReader(""), &bytes.Buffer{})
	require.NoError(t, err)

	runErr := v.RunToEnd()
	require.True(t, IsHalt(runErr))
	require.Equal(t, int64(42), AsI64(v.Stack()[0]))
}

// TestCallWithLocalsPreservesCallerFrame exercises a callee with its own
// locals window distinct from the caller's operand stack contents: the
// caller's sentinel value sits below the reserved return slot and
// argument, and must still be there, untouched, after the call returns.
func TestCallWithLocalsPreservesCallerFrame(t *testing.T) {
	fn1 := FnDef{
		ParamSlots: 1,
		LocSlots:   1,
		RetSlots:   1,
		Ins: []Op{
			// loc[0] = arg[0] * 2 (Store64 pops value then address, so
			// the address goes on the stack first)
			LocA(0),
			ArgA(0), Load64,
			Push(2), MulI,
			Store64,
			// ret slot = loc[0]
			ArgA(-1),
			LocA(0), Load64,
			Store64,
			Ret,
		},
	}
	fn0 := FnDef{
		Ins: []Op{
			Push(7), // sentinel caller-side value, beneath the call's frame
			Push(0), // reserved return slot
			Push(5), // argument to fn1
			Call(1),
			AddI, // caller's sentinel (7) + fn1's result (10)
			Ret,
		},
	}

	p := &Program{Functions: []FnDef{fn0, fn1}}
	v, err := New(p, strings.NewReader(""), &bytes.Buffer{})
	require.NoError(t, err)

	require.True(t, IsHalt(v.RunToEnd()))
	require.Equal(t, int64(17), AsI64(v.Stack()[0]))
}

func TestCallNameResolvesThroughNameTable(t *testing.T) {
	fn1 := FnDef{
		RetSlots: 1,
		Ins:      []Op{ArgA(-1), Push(99), Store64, Ret},
	}
	fn0 := FnDef{Ins: []Op{Push(0), CallName(0), Ret}}

	p := &Program{
		Functions: []FnDef{fn0, fn1},
		Names:     map[string]uint32{"helper": 1},
	}
	v, err := New(p, strings.NewReader(""), &bytes.Buffer{})
	require.NoError(t, err)

	require.True(t, IsHalt(v.RunToEnd()))
	require.Equal(t, int64(99), AsI64(v.Stack()[0]))
}

func TestCallInvalidFnIDIsRejected(t *testing.T) {
	fn0 := FnDef{Ins: []Op{Call(7), Ret}}
	p := &Program{Functions: []FnDef{fn0}}
	v, err := New(p, strings.NewReader(""), &bytes.Buffer{})
	require.NoError(t, err)

	var ve *Error
	require.ErrorAs(t, v.RunToEnd(), &ve)
	require.Equal(t, ErrInvalidFnID, ve.Kind)
}

// TestArgANegativeIndexOutOfRangeIsRejected checks that an index beyond
// the reserved return window (more negative than -ret_slots) is
// rejected rather than silently reaching into the locals/triple region.
func TestArgANegativeIndexOutOfRangeIsRejected(t *testing.T) {
	fn1 := FnDef{
		ParamSlots: 1,
		RetSlots:   1,
		Ins:        []Op{ArgA(-2), Ret},
	}
	fn0 := FnDef{Ins: []Op{Push(0), Push(1), Call(1), Ret}}
	p := &Program{Functions: []FnDef{fn0, fn1}}
	v, err := New(p, strings.NewReader(""), &bytes.Buffer{})
	require.NoError(t, err)

	var ve *Error
	require.ErrorAs(t, v.RunToEnd(), &ve)
	require.Equal(t, ErrInvalidLocalIndex, ve.Kind)
}
