// Package radix implements the POWER radix-tree address translation: the
// partition and process table lookups that locate a thread's root page
// directory, and the descent of the directory tree down to a leaf.
package radix

import (
	"fmt"
	"log"
)

// Table and entry geometry.
const (
	// WordSize is the size of a directory entry and of one table doubleword.
	WordSize = 8

	// TableEntrySize is the size of a partition or process table entry.
	TableEntrySize = 2 * WordSize
)

// Partition table control register fields.
const (
	ptcrBaseMask uint64 = 0x0FFF_FFFF_FFFF_F000
	ptcrSizeMask uint64 = 0x1F
)

// Partition table entry fields (second doubleword).
const (
	processTableBaseMask uint64 = 0x0FFF_FFFF_FFFF_F000
)

// Process table entry fields. The root base is bits 8..59, read as a field:
// it is shifted down, and the shifted value addresses the root directory.
const (
	rootBaseMask  uint64 = 0x0FFF_FFFF_FFFF_FF00
	rootBaseShift        = 8
	rootSizeMask  uint64 = 0x1F

	// The radix tree size is split in two fields: RTS1 gives the high two
	// bits, RTS2 the low three. The tree maps 2^(RTS+31) bytes.
	rts1Shift    = 58
	rts1Mask     = 0x18
	rts2Shift    = 5
	rts2Mask     = 0x7
	rtsBias      = 31
	maxPageShift = rtsBias + (rts1Mask | rts2Mask)
)

// Directory entry fields. Like the root base, the next level base is a
// shifted field.
const (
	entryValidBit      uint64 = 1 << 63
	entryLeafBit       uint64 = 1 << 62
	nextLevelBaseMask  uint64 = 0x0FFF_FFFF_FFFF_FF00
	nextLevelBaseShift        = 8
	nextLevelSizeMask  uint64 = 0x1F
	realPageNumberMask uint64 = 0x01FF_FFFF_FFFF_F000
)

// PTCR is the partition table control register.
type PTCR uint64

// MakePTCR encodes a partition table base address and size field.
func MakePTCR(base, size uint64) PTCR {
	return PTCR(base&ptcrBaseMask | size&ptcrSizeMask)
}

// Base returns the physical address of the partition table.
func (p PTCR) Base() uint64 {
	return uint64(p) & ptcrBaseMask
}

// Size returns the partition table size encoding.
func (p PTCR) Size() uint64 {
	return uint64(p) & ptcrSizeMask
}

// PartitionEntryAddress returns the address of the second doubleword of the
// partition table entry of lpid. That doubleword holds the process table base.
func PartitionEntryAddress(ptcr PTCR, lpid uint32) uint64 {
	return ptcr.Base() + uint64(lpid)*TableEntrySize + WordSize
}

// ProcessTableBase extracts the process table base from the second doubleword
// of a partition table entry.
func ProcessTableBase(pate1 uint64) uint64 {
	return pate1 & processTableBaseMask
}

// MakePartitionEntry1 encodes the second doubleword of a partition table entry.
func MakePartitionEntry1(processTableBase, size uint64) uint64 {
	return processTableBase&processTableBaseMask | size&ptcrSizeMask
}

// ProcessEntryAddress returns the address of the process table entry of pid.
func ProcessEntryAddress(processTableBase uint64, pid uint32) uint64 {
	return processTableBase + uint64(pid)*TableEntrySize
}

// MaxDirectoryBase is the largest directory base a root descriptor or a
// directory entry can hold.
const MaxDirectoryBase = rootBaseMask >> rootBaseShift

// RootDescriptor locates the root page directory of a process.
type RootDescriptor struct {
	// Base is the physical address of the root directory, as held in bits
	// 8..59 of the process table entry.
	Base uint64

	// Size is the number of virtual address bits that index the root
	// directory.
	Size uint64

	// PageShift is the number of virtual address bits the whole tree maps.
	PageShift uint64
}

// DecodeRoot decodes a process table entry.
func DecodeRoot(e uint64) RootDescriptor {
	rts := (e>>rts1Shift)&rts1Mask | (e>>rts2Shift)&rts2Mask

	return RootDescriptor{
		Base:      (e & rootBaseMask) >> rootBaseShift,
		Size:      e & rootSizeMask,
		PageShift: rts + rtsBias,
	}
}

// Encode returns the process table entry that decodes to the descriptor. It
// panics if the base or the page shift cannot be represented.
func (d RootDescriptor) Encode() uint64 {
	if d.PageShift < rtsBias || d.PageShift > maxPageShift {
		log.Panicf("page shift %d is out of [%d, %d]",
			d.PageShift, rtsBias, maxPageShift)
	}

	if d.Base > MaxDirectoryBase {
		log.Panicf("root base %#x is over %#x", d.Base, MaxDirectoryBase)
	}

	rts := d.PageShift - rtsBias

	return d.Base<<rootBaseShift |
		(rts&rts1Mask)<<rts1Shift |
		(rts&rts2Mask)<<rts2Shift |
		d.Size&rootSizeMask
}

func (d RootDescriptor) String() string {
	return fmt.Sprintf("root{base: %#x, size: %d, page shift: %d}",
		d.Base, d.Size, d.PageShift)
}

// DirEntry is a radix tree directory entry.
type DirEntry uint64

// MakeDirectoryEntry encodes a valid non-leaf entry pointing at the next
// level directory. Base bits over MaxDirectoryBase are dropped.
func MakeDirectoryEntry(nextLevelBase, nextLevelSize uint64) DirEntry {
	return DirEntry(entryValidBit |
		nextLevelBase<<nextLevelBaseShift&nextLevelBaseMask |
		nextLevelSize&nextLevelSizeMask)
}

// MakeLeafEntry encodes a valid leaf entry mapping the real page number.
func MakeLeafEntry(realPageNumber uint64) DirEntry {
	return DirEntry(entryValidBit | entryLeafBit |
		realPageNumber&realPageNumberMask)
}

// Valid tells if the entry may be used.
func (e DirEntry) Valid() bool {
	return uint64(e)&entryValidBit != 0
}

// Leaf tells if the entry maps a page rather than point at a directory.
func (e DirEntry) Leaf() bool {
	return uint64(e)&entryLeafBit != 0
}

// NextLevelBase returns the address of the next level directory, the value
// of bits 8..59.
func (e DirEntry) NextLevelBase() uint64 {
	return (uint64(e) & nextLevelBaseMask) >> nextLevelBaseShift
}

// NextLevelSize returns the number of virtual address bits that index the
// next level directory.
func (e DirEntry) NextLevelSize() uint64 {
	return uint64(e) & nextLevelSizeMask
}

// RealPageNumber returns the page frame field of a leaf entry, in place.
func (e DirEntry) RealPageNumber() uint64 {
	return uint64(e) & realPageNumberMask
}

func (e DirEntry) String() string {
	switch {
	case !e.Valid():
		return fmt.Sprintf("invalid(0x%016x)", uint64(e))
	case e.Leaf():
		return fmt.Sprintf("leaf{rpn: %#x}", e.RealPageNumber())
	default:
		return fmt.Sprintf("dir{base: %#x, size: %d}",
			e.NextLevelBase(), e.NextLevelSize())
	}
}
