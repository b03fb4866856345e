package vm

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func singleFnProgram(ins ...Op) *Program {
	return &Program{Functions: []FnDef{{Ins: ins}}}
}

func mustNewVM(t *testing.T, p *Program, stdin string) (*VM, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	v, err := New(p, strings.NewReader(stdin), out)
	require.NoError(t, err)
	return v, out
}

func TestArithmeticWrapping(t *testing.T) {
	p := singleFnProgram(Push(FromI64(math.MaxInt64)), Push(1), AddI, Ret)
	v, _ := mustNewVM(t, p, "")
	err := v.RunToEnd()
	require.True(t, IsHalt(err))
	require.Equal(t, int64(math.MinInt64), AsI64(v.Stack()[0]), "signed add wraps like two's complement")
}

// push order for a binary op: first pop is LHS, second is RHS. Pushing
// 10 then 3 makes 3 the top, so SubI computes 3-10.
func TestSubIPopOrder(t *testing.T) {
	p := singleFnProgram(Push(10), Push(3), SubI, Ret)
	v, _ := mustNewVM(t, p, "")
	require.True(t, IsHalt(v.RunToEnd()))
	require.Equal(t, int64(-7), AsI64(v.Stack()[0]))
}

// INT64_MIN / -1 returns INT64_MIN rather than trapping; lhs must be
// INT64_MIN so it needs to be pushed last (it becomes the first pop).
func TestDivIMinOverflowPassthrough(t *testing.T) {
	p := singleFnProgram(Push(FromI64(-1)), Push(FromI64(math.MinInt64)), DivI, Ret)
	v, _ := mustNewVM(t, p, "")
	require.True(t, IsHalt(v.RunToEnd()))
	require.Equal(t, int64(math.MinInt64), AsI64(v.Stack()[0]))
}

func TestDivIByZero(t *testing.T) {
	p := singleFnProgram(Push(FromI64(0)), Push(FromI64(5)), DivI, Ret)
	v, _ := mustNewVM(t, p, "")
	require.ErrorIs(t, v.RunToEnd(), DivZero)
}

func TestNotIsBinaryXor(t *testing.T) {
	a, b := FromI64(0b1010), FromI64(0b0110)

	notProg := singleFnProgram(Push(a), Push(b), Not, Ret)
	vNot, _ := mustNewVM(t, notProg, "")
	require.True(t, IsHalt(vNot.RunToEnd()))

	xorProg := singleFnProgram(Push(a), Push(b), Xor, Ret)
	vXor, _ := mustNewVM(t, xorProg, "")
	require.True(t, IsHalt(vXor.RunToEnd()))

	require.Equal(t, vXor.Stack()[0], vNot.Stack()[0])
}

func TestFloatTransmutationRoundTrip(t *testing.T) {
	const f = 3.25
	p := singleFnProgram(Push(FromF64(f)), Ret)
	v, _ := mustNewVM(t, p, "")
	require.True(t, IsHalt(v.RunToEnd()))
	require.Equal(t, f, AsF64(v.Stack()[0]))
}

func TestIToFAndFToI(t *testing.T) {
	p := singleFnProgram(Push(FromI64(7)), IToF, Push(FromF64(0.5)), AddF, FToI, Ret)
	v, _ := mustNewVM(t, p, "")
	require.True(t, IsHalt(v.RunToEnd()))
	require.Equal(t, int64(7), AsI64(v.Stack()[0]))
}

// SetLt/SetGt are unary: they reduce the tri-state -1/0/1 a prior Cmp*
// left on top of the stack to 0/1, not a binary comparison of two
// popped operands.
func TestSetLtAndSetGtAreUnary(t *testing.T) {
	cases := []struct {
		name    string
		cmpSign int64
		wantLt  int64
		wantGt  int64
	}{
		{"negative", -1, 1, 0},
		{"zero", 0, 0, 0},
		{"positive", 1, 0, 1},
	}
	for _, c := range cases {
		ltProg := singleFnProgram(Push(FromI64(c.cmpSign)), SetLt, Ret)
		vLt, _ := mustNewVM(t, ltProg, "")
		require.True(t, IsHalt(vLt.RunToEnd()))
		require.Equal(t, c.wantLt, AsI64(vLt.Stack()[0]), "SetLt on %s", c.name)

		gtProg := singleFnProgram(Push(FromI64(c.cmpSign)), SetGt, Ret)
		vGt, _ := mustNewVM(t, gtProg, "")
		require.True(t, IsHalt(vGt.RunToEnd()))
		require.Equal(t, c.wantGt, AsI64(vGt.Stack()[0]), "SetGt on %s", c.name)
	}
}

func TestSetLtAfterCmpI(t *testing.T) {
	// CmpI(3, 5) (pushed 5 then 3, so lhs=3, rhs=5) yields -1 (lhs<rhs);
	// SetLt then reduces that to 1.
	p := singleFnProgram(Push(FromI64(5)), Push(FromI64(3)), CmpI, SetLt, Ret)
	v, _ := mustNewVM(t, p, "")
	require.True(t, IsHalt(v.RunToEnd()))
	require.Equal(t, int64(1), AsI64(v.Stack()[0]))
}

func TestBranchOutOfBoundsIsRejected(t *testing.T) {
	p := singleFnProgram(Br(1000), Ret)
	v, _ := mustNewVM(t, p, "")
	require.ErrorIs(t, v.RunToEnd(), InstructionOffset)
}

func TestBrAIsRejectedAsInvalidInstruction(t *testing.T) {
	p := singleFnProgram(BrA(0), Ret)
	v, _ := mustNewVM(t, p, "")
	err := v.RunToEnd()
	var ve *Error
	require.ErrorAs(t, err, &ve)
	require.Equal(t, ErrInvalidInstruction, ve.Kind)
}

func TestBrFalsePopsConditionEvenWhenNotTaken(t *testing.T) {
	// condition is true (1), so BrFalse does not jump; stack must still
	// be empty afterward since the condition was consumed either way.
	p := singleFnProgram(Push(1), BrFalse(100), Push(42), Ret)
	v, _ := mustNewVM(t, p, "")
	require.True(t, IsHalt(v.RunToEnd()))
	require.Equal(t, int64(42), AsI64(v.Stack()[0]))
}

func TestScanIAndPrintI(t *testing.T) {
	p := singleFnProgram(ScanI, PrintI, Ret)
	v, out := mustNewVM(t, p, "123")
	require.True(t, IsHalt(v.RunToEnd()))
	require.Equal(t, "123", out.String())
}

func TestPrintLnWritesCRLF(t *testing.T) {
	p := singleFnProgram(PrintLn, Ret)
	v, out := mustNewVM(t, p, "")
	require.True(t, IsHalt(v.RunToEnd()))
	require.Equal(t, "\r\n", out.String())
}

func TestStackOverflowIsReported(t *testing.T) {
	ins := make([]Op, 0, 5)
	for i := 0; i < 5; i++ {
		ins = append(ins, Push(1))
	}
	ins = append(ins, Ret)
	p := singleFnProgram(ins...)
	v, err := New(p, strings.NewReader(""), &bytes.Buffer{}, WithMaxStack(3))
	require.NoError(t, err)
	require.ErrorIs(t, v.RunToEnd(), StackOverflow)
}

func TestNoEntryPointOnEmptyProgram(t *testing.T) {
	_, err := New(&Program{}, strings.NewReader(""), &bytes.Buffer{})
	require.ErrorIs(t, err, NoEntryPoint)
}
