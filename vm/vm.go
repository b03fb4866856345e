package vm

import (
	"io"
)

// TraceFunc is invoked by Step just before an instruction executes, if
// installed via WithTrace. It recovers the spirit of the teacher's
// interactive single-step debugger (vm/run.go's RunProgramDebugMode)
// without a REPL of its own, since this module has no source text to
// echo alongside the instruction.
type TraceFunc func(fnID uint32, ip int, op Op)

// Option configures a VM at construction time.
type Option func(*VM)

// WithMaxStack overrides the default operand-stack bound.
func WithMaxStack(n int) Option {
	return func(v *VM) { v.cfg.maxStack = n }
}

// WithTrace installs a per-instruction trace hook.
func WithTrace(fn TraceFunc) Option {
	return func(v *VM) { v.trace = fn }
}

type config struct {
	maxStack int
}

// VM is a single-threaded interpreter over one Program. It owns its
// stack and heap exclusively; stdin/stdout are borrowed for its
// lifetime (spec.md §5).
type VM struct {
	cfg config

	program *Program

	stack *stack
	heap  *heap
	globs *globalStore

	globalAddr []uint64
	nameTable  []uint32 // stable index -> function id, for CallName

	fnID   uint32
	fnInfo *FnDef
	ip     int
	bp     int

	stdin  *scanner
	stdout io.Writer

	trace TraceFunc

	halted bool
}

// New constructs a VM bound to p, ready to execute function 0 (the
// start function). It fails with ErrNoEntryPoint if p has no functions.
func New(p *Program, stdin io.Reader, stdout io.Writer, opts ...Option) (*VM, error) {
	if len(p.Functions) == 0 {
		return nil, NoEntryPoint
	}

	v := &VM{
		program: p,
		heap:    newHeap(),
		stdin:   newScanner(stdin),
		stdout:  stdout,
	}
	for _, o := range opts {
		o(v)
	}
	v.stack = newStack(v.cfg.maxStack)
	v.globs, v.globalAddr = newGlobalStore(p.Globals)

	if len(p.Names) > 0 {
		v.nameTable = make([]uint32, 0, len(p.Names))
		// Deterministic ordering: sort names, mapping each to a stable
		// index so CallName's immediate is reproducible across runs.
		names := make([]string, 0, len(p.Names))
		for name := range p.Names {
			names = append(names, name)
		}
		sortStrings(names)
		for _, name := range names {
			v.nameTable = append(v.nameTable, p.Names[name])
		}
	}

	v.fnID = 0
	v.fnInfo = &p.Functions[0]
	v.ip = 0
	v.bp = 0

	return v, nil
}

func sortStrings(s []string) {
	// insertion sort: name tables are tiny (one entry per exported
	// function), so this avoids pulling in sort for a handful of items.
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

// Stack returns a read-only view (a copy) of the operand stack, for
// tests.
func (v *VM) Stack() []Slot {
	return append([]Slot(nil), v.stack.slots...)
}

// Step decodes and executes exactly one instruction.
func (v *VM) Step() error {
	if v.halted {
		return Halt
	}
	if v.ip >= len(v.fnInfo.Ins) {
		return errControlReachesEnd(v.fnID)
	}

	op := v.fnInfo.Ins[v.ip]
	if v.trace != nil {
		v.trace(v.fnID, v.ip, op)
	}
	v.ip++

	err := v.exec(op)
	if err != nil {
		if IsHalt(err) {
			v.halted = true
		}
	}
	return err
}

// RunToEnd steps until an error (including Halt) is produced.
func (v *VM) RunToEnd() error {
	for {
		if err := v.Step(); err != nil {
			return err
		}
	}
}

// exec dispatches one decoded instruction to its handler. The handlers
// are grouped by concern across exec_arith.go, exec_mem.go,
// exec_control.go, exec_call.go and exec_io.go, the way the teacher
// splits instruction handling across vm.go/exec.go/devices.go.
func (v *VM) exec(op Op) error {
	switch op.Code {
	case OpNop:
		return nil
	case OpPush:
		return v.stack.push(op.U64)
	case OpPop:
		_, err := v.stack.pop()
		return err
	case OpPopN:
		return v.stack.popN(op.U32)
	case OpDup:
		return v.stack.dup()
	case OpLocA:
		return v.execLocA(op.U32)
	case OpArgA:
		return v.execArgA(op.I32)
	case OpGlobA:
		return v.execGlobA(op.U32)

	case OpLoad8:
		return v.execLoad(1)
	case OpLoad16:
		return v.execLoad(2)
	case OpLoad32:
		return v.execLoad(4)
	case OpLoad64:
		return v.execLoad(8)
	case OpStore8:
		return v.execStore(1)
	case OpStore16:
		return v.execStore(2)
	case OpStore32:
		return v.execStore(4)
	case OpStore64:
		return v.execStore(8)

	case OpAlloc:
		return v.execAlloc()
	case OpFree:
		return v.execFree()
	case OpStackAlloc:
		return v.execStackAlloc(op.U32)

	case OpAddI:
		return v.execAddI()
	case OpSubI:
		return v.execSubI()
	case OpMulI:
		return v.execMulI()
	case OpDivI:
		return v.execDivI()
	case OpAddF:
		return v.execAddF()
	case OpSubF:
		return v.execSubF()
	case OpMulF:
		return v.execMulF()
	case OpDivF:
		return v.execDivF()
	case OpDivU:
		return v.execDivU()
	case OpShl:
		return v.execShl()
	case OpShr:
		return v.execShr()
	case OpShrL:
		return v.execShrL()
	case OpAnd:
		return v.execAnd()
	case OpOr:
		return v.execOr()
	case OpXor:
		return v.execXor()
	case OpNot:
		return v.execNot()
	case OpCmpI:
		return v.execCmpI()
	case OpCmpU:
		return v.execCmpU()
	case OpCmpF:
		return v.execCmpF()
	case OpNegI:
		return v.execNegI()
	case OpNegF:
		return v.execNegF()
	case OpIToF:
		return v.execIToF()
	case OpFToI:
		return v.execFToI()
	case OpSetLt:
		return v.execSetLt()
	case OpSetGt:
		return v.execSetGt()

	case OpBrA:
		return errInvalidInstruction(v.fnID, v.ip-1, byte(op.Code))
	case OpBr:
		return v.execBr(op.I32)
	case OpBrFalse:
		return v.execBrFalse(op.I32)
	case OpBrTrue:
		return v.execBrTrue(op.I32)

	case OpCall:
		return v.execCall(op.U32)
	case OpCallName:
		return v.execCallName(op.U32)
	case OpRet:
		return v.execRet()

	case OpScanI:
		return v.execScanI()
	case OpScanC:
		return v.execScanC()
	case OpScanF:
		return v.execScanF()
	case OpPrintI:
		return v.execPrintI()
	case OpPrintC:
		return v.execPrintC()
	case OpPrintF:
		return v.execPrintF()
	case OpPrintS:
		return v.execPrintS()
	case OpPrintLn:
		return v.execPrintLn()

	case OpPanic:
		return Halt

	default:
		return errInvalidInstruction(v.fnID, v.ip-1, byte(op.Code))
	}
}
