package vm

import (
	"encoding/binary"
	"fmt"
)

// OpCode is the 1-byte instruction tag of spec.md §4.1.
type OpCode byte

const (
	OpNop OpCode = 0x00

	OpPush OpCode = 0x01
	OpPop  OpCode = 0x02
	OpPopN OpCode = 0x03
	OpDup  OpCode = 0x04

	OpLocA  OpCode = 0x0a
	OpArgA  OpCode = 0x0b
	OpGlobA OpCode = 0x0c

	OpLoad8  OpCode = 0x10
	OpLoad16 OpCode = 0x11
	OpLoad32 OpCode = 0x12
	OpLoad64 OpCode = 0x13

	OpStore8  OpCode = 0x14
	OpStore16 OpCode = 0x15
	OpStore32 OpCode = 0x16
	OpStore64 OpCode = 0x17

	OpAlloc      OpCode = 0x18
	OpFree       OpCode = 0x19
	OpStackAlloc OpCode = 0x1a

	OpAddI OpCode = 0x20
	OpSubI OpCode = 0x21
	OpMulI OpCode = 0x22
	OpDivI OpCode = 0x23
	OpAddF OpCode = 0x24
	OpSubF OpCode = 0x25
	OpMulF OpCode = 0x26
	OpDivF OpCode = 0x27
	OpDivU OpCode = 0x28

	OpShl  OpCode = 0x29
	OpShr  OpCode = 0x2a
	OpAnd  OpCode = 0x2b
	OpOr   OpCode = 0x2c
	OpXor  OpCode = 0x2d
	OpNot  OpCode = 0x2e

	OpCmpI OpCode = 0x30
	OpCmpU OpCode = 0x31
	OpCmpF OpCode = 0x32

	OpNegI OpCode = 0x34
	OpNegF OpCode = 0x35
	OpIToF OpCode = 0x36
	OpFToI OpCode = 0x37
	OpShrL OpCode = 0x38
	OpSetLt OpCode = 0x39
	OpSetGt OpCode = 0x3a

	OpBrA      OpCode = 0x40
	OpBr       OpCode = 0x41
	OpBrFalse  OpCode = 0x42
	OpBrTrue   OpCode = 0x43

	OpCall     OpCode = 0x48
	OpRet      OpCode = 0x49
	OpCallName OpCode = 0x4a

	OpScanI OpCode = 0x50
	OpScanC OpCode = 0x51
	OpScanF OpCode = 0x52

	OpPrintI  OpCode = 0x54
	OpPrintC  OpCode = 0x55
	OpPrintF  OpCode = 0x56
	OpPrintS  OpCode = 0x57
	OpPrintLn OpCode = 0x58

	OpPanic OpCode = 0xfe
)

var opNames = map[OpCode]string{
	OpNop: "nop", OpPush: "push", OpPop: "pop", OpPopN: "popn", OpDup: "dup",
	OpLocA: "loca", OpArgA: "arga", OpGlobA: "globa",
	OpLoad8: "load8", OpLoad16: "load16", OpLoad32: "load32", OpLoad64: "load64",
	OpStore8: "store8", OpStore16: "store16", OpStore32: "store32", OpStore64: "store64",
	OpAlloc: "alloc", OpFree: "free", OpStackAlloc: "stackalloc",
	OpAddI: "addi", OpSubI: "subi", OpMulI: "muli", OpDivI: "divi",
	OpAddF: "addf", OpSubF: "subf", OpMulF: "mulf", OpDivF: "divf", OpDivU: "divu",
	OpShl: "shl", OpShr: "shr", OpAnd: "and", OpOr: "or", OpXor: "xor", OpNot: "not",
	OpCmpI: "cmpi", OpCmpU: "cmpu", OpCmpF: "cmpf",
	OpNegI: "negi", OpNegF: "negf", OpIToF: "itof", OpFToI: "ftoi", OpShrL: "shrl",
	OpSetLt: "setlt", OpSetGt: "setgt",
	OpBrA: "bra", OpBr: "br", OpBrFalse: "brfalse", OpBrTrue: "brtrue",
	OpCall: "call", OpRet: "ret", OpCallName: "callname",
	OpScanI: "scani", OpScanC: "scanc", OpScanF: "scanf",
	OpPrintI: "printi", OpPrintC: "printc", OpPrintF: "printf", OpPrintS: "prints", OpPrintLn: "println",
	OpPanic: "panic",
}

func (c OpCode) String() string {
	if s, ok := opNames[c]; ok {
		return s
	}
	return fmt.Sprintf("?0x%02x?", byte(c))
}

// ParamSize returns the fixed immediate width in bytes for an opcode: 0,
// 4, or 8, per spec.md §4.1 / §6.
func (c OpCode) ParamSize() int {
	switch c {
	case OpPush, OpBrA:
		return 8
	case OpPopN, OpLocA, OpArgA, OpGlobA, OpStackAlloc, OpBr, OpBrFalse, OpBrTrue, OpCall, OpCallName:
		return 4
	default:
		return 0
	}
}

// knownOpcodes is the exact set of bytes the decoder accepts; anything
// else is InvalidInstruction (spec.md §4.1).
var knownOpcodes = func() map[OpCode]bool {
	m := make(map[OpCode]bool, len(opNames))
	for c := range opNames {
		m[c] = true
	}
	return m
}()

// Op is one decoded instruction: an opcode plus its (already-widened)
// immediate, laid out the way r0vm/src/opcodes.rs's `Op` enum packs a
// payload per-variant. Only the field matching Code's ParamSize is
// meaningful.
type Op struct {
	Code OpCode
	U64  uint64 // Push, BrA
	U32  uint32 // PopN, LocA, GlobA, StackAlloc, Call, CallName
	I32  int32  // Br, BrFalse, BrTrue, ArgA (signed: reaches the reserved return slots below arg0)
}

func (o Op) String() string {
	switch o.Code.ParamSize() {
	case 8:
		return fmt.Sprintf("%s %d", o.Code, o.U64)
	case 4:
		if o.Code == OpBr || o.Code == OpBrFalse || o.Code == OpBrTrue || o.Code == OpArgA {
			return fmt.Sprintf("%s %+d", o.Code, o.I32)
		}
		return fmt.Sprintf("%s %d", o.Code, o.U32)
	default:
		return o.Code.String()
	}
}

// DecodeOp maps an opcode byte plus its encoded immediate (big-endian,
// per spec.md §6) to a typed Op, or rejects the byte as
// InvalidInstruction. fnID/instOff are only used to annotate the error.
func DecodeOp(code byte, raw []byte, fnID uint32, instOff int) (Op, error) {
	oc := OpCode(code)
	if !knownOpcodes[oc] {
		return Op{}, errInvalidInstruction(fnID, instOff, code)
	}

	switch oc.ParamSize() {
	case 8:
		if len(raw) < 8 {
			return Op{}, errInvalidInstruction(fnID, instOff, code)
		}
		u := binary.BigEndian.Uint64(raw)
		return Op{Code: oc, U64: u}, nil
	case 4:
		if len(raw) < 4 {
			return Op{}, errInvalidInstruction(fnID, instOff, code)
		}
		u := binary.BigEndian.Uint32(raw)
		op := Op{Code: oc, U32: u}
		if oc == OpBr || oc == OpBrFalse || oc == OpBrTrue || oc == OpArgA {
			op.I32 = int32(u)
		}
		return op, nil
	default:
		return Op{Code: oc}, nil
	}
}

// Encode serializes o back to its opcode byte plus big-endian immediate,
// the inverse of DecodeOp. Neither the CLI nor its JSON program loader
// calls it, and it is not the out-of-scope S0 on-disk format.
func (o Op) Encode() []byte {
	buf := []byte{byte(o.Code)}
	switch o.Code.ParamSize() {
	case 8:
		var tmp [8]byte
		binary.BigEndian.PutUint64(tmp[:], o.U64)
		buf = append(buf, tmp[:]...)
	case 4:
		var tmp [4]byte
		v := o.U32
		if o.Code == OpBr || o.Code == OpBrFalse || o.Code == OpBrTrue || o.Code == OpArgA {
			v = uint32(o.I32)
		}
		binary.BigEndian.PutUint32(tmp[:], v)
		buf = append(buf, tmp[:]...)
	}
	return buf
}

// Constructors mirroring the compact literal style used when building
// programs in code (the tests) — analogous to the
// original r0vm test suite's s0_bin! macro, expressed as Go funcs
// instead of a macro.
func Push(x uint64) Op       { return Op{Code: OpPush, U64: x} }
func PopN(n uint32) Op       { return Op{Code: OpPopN, U32: n} }
func LocA(a uint32) Op       { return Op{Code: OpLocA, U32: a} }

// ArgA's immediate is signed: non-negative indices reach the param
// slots (arg[0..param_slots)); negative indices reach the reserved
// return-value slots the caller pushed below arg0, per spec.md §4.6.
func ArgA(a int32) Op { return Op{Code: OpArgA, I32: a} }
func GlobA(a uint32) Op      { return Op{Code: OpGlobA, U32: a} }
func StackAlloc(n uint32) Op { return Op{Code: OpStackAlloc, U32: n} }
func Br(off int32) Op        { return Op{Code: OpBr, I32: off} }
func BrFalse(off int32) Op   { return Op{Code: OpBrFalse, I32: off} }
func BrTrue(off int32) Op    { return Op{Code: OpBrTrue, I32: off} }
func Call(id uint32) Op      { return Op{Code: OpCall, U32: id} }
func CallName(idx uint32) Op { return Op{Code: OpCallName, U32: idx} }
func BrA(addr uint64) Op     { return Op{Code: OpBrA, U64: addr} }

var (
	Nop      = Op{Code: OpNop}
	Pop      = Op{Code: OpPop}
	Dup      = Op{Code: OpDup}
	Load8    = Op{Code: OpLoad8}
	Load16   = Op{Code: OpLoad16}
	Load32   = Op{Code: OpLoad32}
	Load64   = Op{Code: OpLoad64}
	Store8   = Op{Code: OpStore8}
	Store16  = Op{Code: OpStore16}
	Store32  = Op{Code: OpStore32}
	Store64  = Op{Code: OpStore64}
	Alloc    = Op{Code: OpAlloc}
	Free     = Op{Code: OpFree}
	AddI     = Op{Code: OpAddI}
	SubI     = Op{Code: OpSubI}
	MulI     = Op{Code: OpMulI}
	DivI     = Op{Code: OpDivI}
	AddF     = Op{Code: OpAddF}
	SubF     = Op{Code: OpSubF}
	MulF     = Op{Code: OpMulF}
	DivF     = Op{Code: OpDivF}
	DivU     = Op{Code: OpDivU}
	Shl      = Op{Code: OpShl}
	Shr      = Op{Code: OpShr}
	And      = Op{Code: OpAnd}
	Or       = Op{Code: OpOr}
	Xor      = Op{Code: OpXor}
	Not      = Op{Code: OpNot}
	CmpI     = Op{Code: OpCmpI}
	CmpU     = Op{Code: OpCmpU}
	CmpF     = Op{Code: OpCmpF}
	NegI     = Op{Code: OpNegI}
	NegF     = Op{Code: OpNegF}
	IToF     = Op{Code: OpIToF}
	FToI     = Op{Code: OpFToI}
	ShrL     = Op{Code: OpShrL}
	SetLt    = Op{Code: OpSetLt}
	SetGt    = Op{Code: OpSetGt}
	Ret      = Op{Code: OpRet}
	ScanI    = Op{Code: OpScanI}
	ScanC    = Op{Code: OpScanC}
	ScanF    = Op{Code: OpScanF}
	PrintI   = Op{Code: OpPrintI}
	PrintC   = Op{Code: OpPrintC}
	PrintF   = Op{Code: OpPrintF}
	PrintS   = Op{Code: OpPrintS}
	PrintLn  = Op{Code: OpPrintLn}
	Panic    = Op{Code: OpPanic}
)
