package mem

import (
	"fmt"
	"sync"

	"github.com/google/btree"
)

// For capacity
const (
	_       = iota
	KB uint64 = 1 << (10 * iota)
	MB
	GB
	TB
)

// DefaultUnitSize is the granularity at which Storage allocates memory.
const DefaultUnitSize uint64 = 4 * KB

// ErrOutOfRange is returned when an access falls beyond the storage capacity.
type ErrOutOfRange struct {
	Address  uint64
	Capacity uint64
}

func (e *ErrOutOfRange) Error() string {
	return fmt.Sprintf("address 0x%x is beyond the storage capacity 0x%x",
		e.Address, e.Capacity)
}

// A Unit is one allocated block of a Storage.
type Unit struct {
	Base uint64
	Data []byte
}

// A Storage keeps the data of the guest system.
//
// Memory is allocated in units and only for the units that are touched by
// Write. Reading an untouched unit returns zeros without allocating. Units
// are kept ordered by base address so that the content can be dumped in
// address order.
type Storage struct {
	sync.RWMutex

	unitSize uint64
	capacity uint64
	units    *btree.BTreeG[*Unit]
}

// NewStorage creates a storage object with the specified capacity.
func NewStorage(capacity uint64) *Storage {
	return NewStorageWithUnitSize(capacity, DefaultUnitSize)
}

// NewStorageWithUnitSize creates a storage that allocates units of the given
// size.
func NewStorageWithUnitSize(capacity, unitSize uint64) *Storage {
	if unitSize == 0 {
		panic("unit size must be positive")
	}

	s := new(Storage)
	s.unitSize = unitSize
	s.capacity = capacity
	s.units = btree.NewG(16, func(a, b *Unit) bool {
		return a.Base < b.Base
	})

	return s
}

// Capacity returns the number of bytes the storage can hold.
func (s *Storage) Capacity() uint64 {
	return s.capacity
}

// UnitSize returns the allocation granularity.
func (s *Storage) UnitSize() uint64 {
	return s.unitSize
}

func (s *Storage) parseAddress(addr uint64) (baseAddr, inUnitAddr uint64) {
	inUnitAddr = addr % s.unitSize
	baseAddr = addr - inUnitAddr

	return baseAddr, inUnitAddr
}

func (s *Storage) checkRange(address, length uint64) error {
	end := address + length
	if end < address || end > s.capacity {
		return &ErrOutOfRange{Address: address, Capacity: s.capacity}
	}

	return nil
}

func (s *Storage) findUnit(base uint64) (*Unit, bool) {
	return s.units.Get(&Unit{Base: base})
}

func (s *Storage) createOrGetUnit(base uint64) *Unit {
	unit, found := s.findUnit(base)
	if !found {
		unit = &Unit{Base: base, Data: make([]byte, s.unitSize)}
		s.units.ReplaceOrInsert(unit)
	}

	return unit
}

// Read returns length bytes starting at address.
func (s *Storage) Read(address, length uint64) ([]byte, error) {
	s.RLock()
	defer s.RUnlock()

	if err := s.checkRange(address, length); err != nil {
		return nil, err
	}

	res := make([]byte, length)
	offset := uint64(0)

	for offset < length {
		base, inUnit := s.parseAddress(address + offset)
		n := min(length-offset, s.unitSize-inUnit)

		if unit, found := s.findUnit(base); found {
			copy(res[offset:offset+n], unit.Data[inUnit:inUnit+n])
		}

		offset += n
	}

	return res, nil
}

// Write stores data starting at address.
func (s *Storage) Write(address uint64, data []byte) error {
	s.Lock()
	defer s.Unlock()

	length := uint64(len(data))
	if err := s.checkRange(address, length); err != nil {
		return err
	}

	offset := uint64(0)
	for offset < length {
		base, inUnit := s.parseAddress(address + offset)
		n := min(length-offset, s.unitSize-inUnit)

		unit := s.createOrGetUnit(base)
		copy(unit.Data[inUnit:inUnit+n], data[offset:offset+n])

		offset += n
	}

	return nil
}

// NumUnits returns the number of allocated units.
func (s *Storage) NumUnits() int {
	s.RLock()
	defer s.RUnlock()

	return s.units.Len()
}

// Units visits the allocated units in address order until visit returns
// false. The unit data must not be modified.
func (s *Storage) Units(visit func(u *Unit) bool) {
	s.RLock()
	defer s.RUnlock()

	s.units.Ascend(func(u *Unit) bool {
		return visit(u)
	})
}
