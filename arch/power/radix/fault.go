package radix

import (
	"fmt"
)

// ResolveLevel is the level reported by faults raised while the partition and
// process tables are being read, before the tree walk starts.
const ResolveLevel = -1

// FaultKind classifies a translation fault.
type FaultKind int

// The kinds of translation faults.
const (
	FaultInvalidEntry FaultKind = iota

	// FaultMalformedEntry reports a directory of zero index bits. A zero
	// next level size is reported at the level of the entry that holds it,
	// after that entry is read. A zero root size is reported at level 0,
	// before any read.
	FaultMalformedEntry
	FaultDepthExceeded
	FaultBitBound
	FaultMemAccess
)

func (k FaultKind) String() string {
	switch k {
	case FaultInvalidEntry:
		return "invalid entry"
	case FaultMalformedEntry:
		return "malformed entry"
	case FaultDepthExceeded:
		return "walk depth exceeded"
	case FaultBitBound:
		return "index bits exceed remaining bits"
	case FaultMemAccess:
		return "memory access error"
	default:
		return fmt.Sprintf("FaultKind(%d)", int(k))
	}
}

// A TranslationFault reports a walk that could not produce a physical address.
type TranslationFault struct {
	VAddr uint64
	Level int
	Kind  FaultKind
	Entry DirEntry
	Err   error
}

func (f *TranslationFault) Error() string {
	msg := fmt.Sprintf("translation fault at vaddr %#x, level %d: %s",
		f.VAddr, f.Level, f.Kind)

	if f.Kind != FaultMemAccess && f.Level != ResolveLevel {
		msg += fmt.Sprintf(" (entry 0x%016x)", uint64(f.Entry))
	}

	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}

	return msg
}

func (f *TranslationFault) Unwrap() error {
	return f.Err
}
