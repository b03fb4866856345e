package vm

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind enumerates every way a step can fail. Every kind aside from
// ErrHalt is fatal to the current run; ErrHalt is the VM's normal
// termination signal (a Panic opcode, or a Ret from the start function)
// and is not a bug.
type ErrorKind int

const (
	ErrInvalidInstruction ErrorKind = iota
	ErrStackOverflow
	ErrStackUnderflow
	ErrInvalidAddress
	ErrUnalignedAccess
	ErrInvalidFnID
	ErrInvalidLocalIndex
	ErrInvalidGlobalIndex
	ErrInvalidInstructionOffset
	ErrDivZero
	ErrArithmetic
	ErrOutOfMemory
	ErrControlReachesEnd
	ErrNoEntryPoint
	ErrIO
	ErrParse
	ErrHalt
)

func (k ErrorKind) String() string {
	switch k {
	case ErrInvalidInstruction:
		return "invalid instruction"
	case ErrStackOverflow:
		return "stack overflow"
	case ErrStackUnderflow:
		return "stack underflow"
	case ErrInvalidAddress:
		return "invalid address"
	case ErrUnalignedAccess:
		return "unaligned access"
	case ErrInvalidFnID:
		return "invalid function id"
	case ErrInvalidLocalIndex:
		return "invalid local index"
	case ErrInvalidGlobalIndex:
		return "invalid global index"
	case ErrInvalidInstructionOffset:
		return "invalid instruction offset"
	case ErrDivZero:
		return "division by zero"
	case ErrArithmetic:
		return "arithmetic error"
	case ErrOutOfMemory:
		return "out of memory"
	case ErrControlReachesEnd:
		return "control reaches end of function without returning"
	case ErrNoEntryPoint:
		return "unable to find entry point"
	case ErrIO:
		return "io error"
	case ErrParse:
		return "parse error"
	case ErrHalt:
		return "halt"
	default:
		return "?unknown error?"
	}
}

// Error is the VM's single fatal-error type. Fields beyond Kind are
// populated only when they're meaningful for that kind, mirroring the
// per-variant payloads of the original r0vm Error enum (error.rs).
type Error struct {
	Kind ErrorKind

	Addr    uint64 // InvalidAddress, UnalignedAccess
	FnID    uint32 // InvalidFnID, InvalidInstruction, ControlReachesEnd
	InstOff int    // InvalidInstruction
	Inst    byte   // InvalidInstruction
	Index   uint32 // InvalidLocalIndex, InvalidGlobalIndex

	Cause error // wrapped IO/parse cause
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrInvalidInstruction:
		return fmt.Sprintf("invalid instruction: 0x%02x at fn #%d:%d", e.Inst, e.FnID, e.InstOff)
	case ErrInvalidAddress:
		return fmt.Sprintf("invalid address 0x%016x", e.Addr)
	case ErrUnalignedAccess:
		return fmt.Sprintf("unaligned memory access of address 0x%016x", e.Addr)
	case ErrInvalidFnID:
		return fmt.Sprintf("invalid function id %d", e.FnID)
	case ErrInvalidLocalIndex:
		return fmt.Sprintf("invalid local index %d", e.Index)
	case ErrInvalidGlobalIndex:
		return fmt.Sprintf("invalid global index %d", e.Index)
	case ErrControlReachesEnd:
		return fmt.Sprintf("control reaches end of function #%d without returning", e.FnID)
	case ErrIO, ErrParse:
		if e.Cause != nil {
			return fmt.Sprintf("%s: %s", e.Kind, e.Cause)
		}
		return e.Kind.String()
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// Is lets callers use errors.Is(err, vm.Halt) and friends: two *Error
// values match if they carry the same Kind, regardless of payload.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// Sentinel errors for errors.Is comparisons against well-known kinds.
var (
	Halt              = &Error{Kind: ErrHalt}
	StackOverflow     = &Error{Kind: ErrStackOverflow}
	StackUnderflow    = &Error{Kind: ErrStackUnderflow}
	DivZero           = &Error{Kind: ErrDivZero}
	OutOfMemory       = &Error{Kind: ErrOutOfMemory}
	NoEntryPoint      = &Error{Kind: ErrNoEntryPoint}
	InstructionOffset = &Error{Kind: ErrInvalidInstructionOffset}
)

// IsHalt reports whether err is the VM's clean-termination signal as
// opposed to a genuine failure.
func IsHalt(err error) bool {
	ve, ok := err.(*Error)
	return ok && ve.Kind == ErrHalt
}

func errInvalidInstruction(fnID uint32, off int, inst byte) error {
	return &Error{Kind: ErrInvalidInstruction, FnID: fnID, InstOff: off, Inst: inst}
}

func errInvalidAddress(addr uint64) error {
	return &Error{Kind: ErrInvalidAddress, Addr: addr}
}

func errUnaligned(addr uint64) error {
	return &Error{Kind: ErrUnalignedAccess, Addr: addr}
}

func errInvalidFnID(id uint32) error {
	return &Error{Kind: ErrInvalidFnID, FnID: id}
}

func errInvalidLocal(i uint32) error {
	return &Error{Kind: ErrInvalidLocalIndex, Index: i}
}

func errInvalidGlobal(i uint32) error {
	return &Error{Kind: ErrInvalidGlobalIndex, Index: i}
}

func errControlReachesEnd(fnID uint32) error {
	return &Error{Kind: ErrControlReachesEnd, FnID: fnID}
}

// errIO wraps an underlying stream failure with github.com/pkg/errors so
// the original cause survives alongside a stack trace, the way the
// original r0vm's `From<std::io::Error> for Error` preserved the source
// io::Error.
func errIO(cause error) error {
	return &Error{Kind: ErrIO, Cause: errors.Wrap(cause, "io error")}
}

func errParse(cause error) error {
	if cause == nil {
		return &Error{Kind: ErrParse}
	}
	return &Error{Kind: ErrParse, Cause: errors.Wrap(cause, "parse error")}
}
