package radix

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/radixwalk/mem/mem"
	"github.com/sarchlab/radixwalk/mem/vm"
)

// pageTables lays out the radix tree of one process in a storage.
type pageTables struct {
	storage *mem.Storage
	regs    Registers

	next       uint64
	dirs       map[uint64]uint64
	leafTables map[uint64]uint64
}

func newPageTables() *pageTables {
	t := &pageTables{
		storage: mem.NewStorage(1 * mem.GB),
		regs: Registers{
			PTCR:  MakePTCR(0x1_0000, 0),
			LPIDR: 1,
			PIDR:  2,
		},
		next:       0x100_0000,
		dirs:       make(map[uint64]uint64),
		leafTables: make(map[uint64]uint64),
	}

	t.put(PartitionEntryAddress(t.regs.PTCR, 1), MakePartitionEntry1(0x2_0000, 0))
	t.put(ProcessEntryAddress(0x2_0000, 2), RootDescriptor{
		Base:      0x10_0000,
		Size:      13,
		PageShift: 52,
	}.Encode())

	return t
}

func (t *pageTables) put(addr, word uint64) {
	Expect(PutWord(t.storage, addr, word)).To(Succeed())
}

func (t *pageTables) alloc(indexBits uint64) uint64 {
	base := t.next
	t.next += WordSize << indexBits

	return base
}

// mapPage maps a 4 KiB page through three levels of 13, 9 and 18 index bits.
func (t *pageTables) mapPage(vAddr, pAddr uint64) {
	rootIndex := (vAddr >> 39) & (1<<13 - 1)
	dirBase, found := t.dirs[rootIndex]
	if !found {
		dirBase = t.alloc(9)
		t.dirs[rootIndex] = dirBase
		t.put(0x10_0000+rootIndex*WordSize, uint64(MakeDirectoryEntry(dirBase, 9)))
	}

	dirIndex := (vAddr >> 30) & (1<<9 - 1)
	tableKey := rootIndex<<9 | dirIndex
	tableBase, found := t.leafTables[tableKey]
	if !found {
		tableBase = t.alloc(18)
		t.leafTables[tableKey] = tableBase
		t.put(dirBase+dirIndex*WordSize, uint64(MakeDirectoryEntry(tableBase, 18)))
	}

	tableIndex := (vAddr >> 12) & (1<<18 - 1)
	t.put(tableBase+tableIndex*WordSize, uint64(MakeLeafEntry(pAddr)))
}

var _ = Describe("Translator", func() {
	var (
		tables     *pageTables
		translator *Translator
	)

	BeforeEach(func() {
		tables = newPageTables()
		translator = NewTranslator(
			NewStoragePort(tables.storage, "Translator"), 0, nil)
	})

	It("should translate an address", func() {
		tables.mapPage(0x1234_5678_9000, 0x7_6543_2000)

		req := &Request{
			VAddr:  0x1234_5678_9ABC,
			Mode:   vm.AccessLoad,
			Thread: tables.regs,
		}
		Expect(translator.Translate(req)).To(Succeed())

		Expect(req.PAddr).To(Equal(uint64(0x7_6543_2ABC)))
		Expect(req.PageShift).To(Equal(uint64(12)))
		Expect(req.Levels).To(Equal(3))
		Expect(req.Page(2)).To(Equal(vm.Page{
			PID:      2,
			VAddr:    0x1234_5678_9000,
			PAddr:    0x7_6543_2000,
			PageSize: 4096,
			Valid:    true,
		}))
	})

	It("should give the same answer twice", func() {
		tables.mapPage(0x1000, 0x5000)

		first := &Request{VAddr: 0x1ABC, Thread: tables.regs}
		second := &Request{VAddr: 0x1ABC, Thread: tables.regs}

		Expect(translator.Translate(first)).To(Succeed())
		Expect(translator.Translate(second)).To(Succeed())
		Expect(second.PAddr).To(Equal(first.PAddr))
		Expect(second.PAddr).To(Equal(uint64(0x5ABC)))
	})

	It("should translate with callbacks", func() {
		tables.mapPage(0xF_0000_0000, 0x3000)

		req := &Request{
			VAddr:  0xF_0000_0010,
			Mode:   vm.AccessFetch,
			Thread: tables.regs,
		}

		calls := 0
		translator.TranslateAsync(req, func(err error) {
			Expect(err).NotTo(HaveOccurred())
			calls++
		})

		Expect(calls).To(Equal(1))
		Expect(req.PAddr).To(Equal(uint64(0x3010)))
	})

	It("should fault on an unmapped address", func() {
		req := &Request{VAddr: 0x4000, Thread: tables.regs}

		err := translator.Translate(req)

		var fault *TranslationFault
		Expect(errors.As(err, &fault)).To(BeTrue())
		Expect(fault.Kind).To(Equal(FaultInvalidEntry))
		Expect(fault.Level).To(Equal(0))
		Expect(fault.VAddr).To(Equal(uint64(0x4000)))
		Expect(req.PAddr).To(BeZero())
	})

	It("should fault when the tables cannot be read", func() {
		regs := tables.regs
		regs.PTCR = MakePTCR(2*mem.GB, 0)
		req := &Request{VAddr: 0x4000, Thread: regs}

		err := translator.Translate(req)

		var fault *TranslationFault
		Expect(errors.As(err, &fault)).To(BeTrue())
		Expect(fault.Kind).To(Equal(FaultMemAccess))
		Expect(fault.Level).To(Equal(ResolveLevel))

		var outOfRange *mem.ErrOutOfRange
		Expect(errors.As(err, &outOfRange)).To(BeTrue())
	})

	It("should panic without a thread", func() {
		Expect(func() {
			_ = translator.Translate(&Request{VAddr: 0x1000})
		}).To(Panic())
	})
})
