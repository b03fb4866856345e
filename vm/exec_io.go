package vm

import "fmt"

func (v *VM) execScanI() error {
	x, err := v.stdin.scanInt()
	if err != nil {
		return err
	}
	return v.stack.push(FromI64(x))
}

func (v *VM) execScanC() error {
	b, err := v.stdin.scanChar()
	if err != nil {
		return err
	}
	return v.stack.push(uint64(b))
}

func (v *VM) execScanF() error {
	f, err := v.stdin.scanFloat()
	if err != nil {
		return err
	}
	return v.stack.push(FromF64(f))
}

func (v *VM) execPrintI() error {
	x, err := v.stack.pop()
	if err != nil {
		return err
	}
	return v.write("%d", AsI64(x))
}

// execPrintC prints the low byte of the popped slot as a single
// character, per spec.md §4.8 (S0 characters are bytes, not runes).
func (v *VM) execPrintC() error {
	x, err := v.stack.pop()
	if err != nil {
		return err
	}
	return v.write("%c", byte(x))
}

// execPrintF formats with 6 fractional digits, matching ops.rs's
// print_f ("{:.6}").
func (v *VM) execPrintF() error {
	x, err := v.stack.pop()
	if err != nil {
		return err
	}
	return v.write("%.6f", AsF64(x))
}

// execPrintS pops addr then len (ops.rs::print_s's order) and writes
// len raw bytes read from whichever region addr resolves to.
func (v *VM) execPrintS() error {
	addr, err := v.stack.pop()
	if err != nil {
		return err
	}
	length, err := v.stack.pop()
	if err != nil {
		return err
	}

	// byte-at-a-time keeps this correct across slot/block boundaries,
	// since addr need not be aligned to anything wider than 1.
	for i := uint64(0); i < length; i++ {
		b, err := v.regionBytes(addr+i, 1, false)
		if err != nil {
			return err
		}
		if err := v.write("%s", string(b)); err != nil {
			return err
		}
	}
	return nil
}

// execPrintLn writes a CRLF line terminator, matching ops.rs's print_ln
// ("\r\n") rather than a bare "\n".
func (v *VM) execPrintLn() error {
	return v.write("\r\n")
}

func (v *VM) write(format string, args ...any) error {
	if _, err := fmt.Fprintf(v.stdout, format, args...); err != nil {
		return errIO(err)
	}
	return nil
}
