package radix

// A Resolver reads the partition and process tables to find the process
// table entry of a thread.
//
// The entries read are not checked. A corrupt table yields a wrong root
// rather than a fault.
type Resolver struct {
	Port MemPort
}

// Resolve returns the raw process table entry selected by regs.
func (r Resolver) Resolve(regs Registers) (uint64, error) {
	pate1, err := readWord(r.Port, PartitionEntryAddress(regs.PTCR, regs.LPIDR))
	if err != nil {
		return 0, err
	}

	return readWord(r.Port,
		ProcessEntryAddress(ProcessTableBase(pate1), regs.PIDR))
}

// ResolveAsync is Resolve over non-blocking reads.
func (r Resolver) ResolveAsync(
	regs Registers,
	done func(prte uint64, err error),
) {
	readWordAsync(r.Port, PartitionEntryAddress(regs.PTCR, regs.LPIDR),
		func(pate1 uint64, err error) {
			if err != nil {
				done(0, err)
				return
			}

			readWordAsync(r.Port,
				ProcessEntryAddress(ProcessTableBase(pate1), regs.PIDR),
				done)
		})
}
