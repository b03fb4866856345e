package vm

import "math"

// Slot is a 64-bit untyped stack/memory cell. Every opcode decides how
// to interpret it; the bit pattern itself never changes shape as it
// moves between unsigned, signed and IEEE-754 double representations.
type Slot = uint64

// AsI64 reinterprets x's bit pattern as a two's-complement int64. This
// is a bit copy, not a narrowing conversion: no value is lost or
// clamped, only relabeled.
func AsI64(x Slot) int64 { return int64(x) }

// FromI64 is the inverse of AsI64.
func FromI64(x int64) Slot { return Slot(x) }

// AsF64 reinterprets x's bit pattern as an IEEE-754 binary64, preserving
// NaN payloads and signed zero bit-for-bit.
func AsF64(x Slot) float64 { return math.Float64frombits(x) }

// FromF64 is the inverse of AsF64.
func FromF64(f float64) Slot { return math.Float64bits(f) }
