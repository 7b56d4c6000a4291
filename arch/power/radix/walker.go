package radix

import (
	"github.com/sirupsen/logrus"
)

// DefaultMaxWalkDepth is the number of directory levels a walk may read
// before it faults.
const DefaultMaxWalkDepth = 4

// WalkResult is what a walk found. On a fault, it holds the entries read
// before the fault.
type WalkResult struct {
	VAddr     uint64
	PAddr     uint64
	PageShift uint64
	Levels    int
	Entries   []DirEntry
}

type walkState struct {
	vAddr         uint64
	base          uint64
	indexBits     uint64
	bitsRemaining uint64
	level         int
	entry         DirEntry
	result        WalkResult
}

func newWalkState(vAddr uint64, root RootDescriptor) *walkState {
	return &walkState{
		vAddr:         vAddr,
		base:          root.Base,
		indexBits:     root.Size,
		bitsRemaining: root.PageShift,
		result:        WalkResult{VAddr: vAddr},
	}
}

func (s *walkState) fault(kind FaultKind, err error) *TranslationFault {
	return &TranslationFault{
		VAddr: s.vAddr,
		Level: s.level,
		Kind:  kind,
		Entry: s.entry,
		Err:   err,
	}
}

// A Walker descends a radix tree from its root to a leaf.
type Walker struct {
	Port     MemPort
	MaxDepth int
	Logger   *logrus.Logger
}

// Walk translates vAddr in the tree described by root.
func (w Walker) Walk(vAddr uint64, root RootDescriptor) (WalkResult, error) {
	s := newWalkState(vAddr, root)

	for {
		addr, fault := w.next(s)
		if fault != nil {
			return s.result, fault
		}

		word, err := readWord(w.Port, addr)
		if err != nil {
			return s.result, s.fault(FaultMemAccess, err)
		}

		done, fault := w.consume(s, DirEntry(word))
		if fault != nil {
			return s.result, fault
		}

		if done {
			return s.result, nil
		}
	}
}

// WalkAsync is Walk over non-blocking reads. done is called exactly once.
func (w Walker) WalkAsync(
	vAddr uint64,
	root RootDescriptor,
	done func(WalkResult, error),
) {
	w.stepAsync(newWalkState(vAddr, root), done)
}

func (w Walker) stepAsync(s *walkState, done func(WalkResult, error)) {
	addr, fault := w.next(s)
	if fault != nil {
		done(s.result, fault)
		return
	}

	readWordAsync(w.Port, addr, func(word uint64, err error) {
		if err != nil {
			done(s.result, s.fault(FaultMemAccess, err))
			return
		}

		finished, fault := w.consume(s, DirEntry(word))
		switch {
		case fault != nil:
			done(s.result, fault)
		case finished:
			done(s.result, nil)
		default:
			w.stepAsync(s, done)
		}
	})
}

// next checks the state of the coming level and returns the address of the
// entry to read.
func (w Walker) next(s *walkState) (uint64, *TranslationFault) {
	if s.level >= w.maxDepth() {
		return 0, s.fault(FaultDepthExceeded, nil)
	}

	if s.indexBits == 0 {
		return 0, s.fault(FaultMalformedEntry, nil)
	}

	if s.indexBits > s.bitsRemaining {
		return 0, s.fault(FaultBitBound, nil)
	}

	shift := s.bitsRemaining - s.indexBits
	index := (s.vAddr >> shift) & (1<<s.indexBits - 1)

	return s.base + index*WordSize, nil
}

// consume applies the entry read for the current level. It returns true when
// the entry is a leaf.
func (w Walker) consume(s *walkState, e DirEntry) (bool, *TranslationFault) {
	s.entry = e
	s.bitsRemaining -= s.indexBits
	s.result.Entries = append(s.result.Entries, e)
	s.result.Levels++
	s.result.PageShift = s.bitsRemaining

	w.logger().WithFields(logrus.Fields{
		"vaddr":          s.vAddr,
		"level":          s.level,
		"entry":          uint64(e),
		"bits_remaining": s.bitsRemaining,
	}).Debug("radix walk step")

	if !e.Valid() {
		return false, s.fault(FaultInvalidEntry, nil)
	}

	if e.Leaf() {
		mask := uint64(1)<<s.bitsRemaining - 1
		s.result.PAddr = e.RealPageNumber()&^mask | s.vAddr&mask

		return true, nil
	}

	if e.NextLevelSize() == 0 {
		return false, s.fault(FaultMalformedEntry, nil)
	}

	s.base = e.NextLevelBase()
	s.indexBits = e.NextLevelSize()
	s.level++

	return false, nil
}

func (w Walker) maxDepth() int {
	if w.MaxDepth <= 0 {
		return DefaultMaxWalkDepth
	}

	return w.MaxDepth
}

func (w Walker) logger() *logrus.Logger {
	if w.Logger == nil {
		return logrus.StandardLogger()
	}

	return w.Logger
}
