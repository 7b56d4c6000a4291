package radix

import "fmt"

// Registers is the translation state of one hardware thread.
type Registers struct {
	PTCR  PTCR
	LPIDR uint32
	PIDR  uint32
}

// RadixRegisters returns the registers themselves, so that a plain register
// set can be used wherever a thread context is expected.
func (r Registers) RadixRegisters() Registers {
	return r
}

func (r Registers) String() string {
	return fmt.Sprintf("regs{ptcr: %#x, lpid: %d, pid: %d}",
		uint64(r.PTCR), r.LPIDR, r.PIDR)
}

// A ThreadContext exposes the translation registers of a simulated thread.
type ThreadContext interface {
	RadixRegisters() Registers
}
