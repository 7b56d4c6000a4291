// Package vm defines the virtual memory types shared by the components that
// request and perform address translation.
package vm

import "fmt"

// PID stands for Process ID.
type PID uint32

// A Page describes how a virtual page maps onto physical memory.
type Page struct {
	PID      PID
	VAddr    uint64
	PAddr    uint64
	PageSize uint64
	Valid    bool
}

// Translate returns the physical address of vAddr, which must fall in the
// page.
func (p Page) Translate(vAddr uint64) uint64 {
	return p.PAddr + (vAddr - p.VAddr)
}

// Contains tells if vAddr falls in the page.
func (p Page) Contains(vAddr uint64) bool {
	return vAddr >= p.VAddr && vAddr-p.VAddr < p.PageSize
}

// AccessMode is the kind of access that triggers a translation.
type AccessMode int

// The access modes.
const (
	AccessLoad AccessMode = iota
	AccessStore
	AccessFetch
)

func (m AccessMode) String() string {
	switch m {
	case AccessLoad:
		return "load"
	case AccessStore:
		return "store"
	case AccessFetch:
		return "fetch"
	default:
		return fmt.Sprintf("AccessMode(%d)", int(m))
	}
}

// ParseAccessMode converts the name printed by String back to a mode.
func ParseAccessMode(s string) (AccessMode, error) {
	switch s {
	case "load", "":
		return AccessLoad, nil
	case "store":
		return AccessStore, nil
	case "fetch":
		return AccessFetch, nil
	}

	return 0, fmt.Errorf("unknown access mode %q", s)
}
