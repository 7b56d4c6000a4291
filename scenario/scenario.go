// Package scenario loads the description of a guest memory image, the
// translation registers of its threads and the addresses to translate.
package scenario

import (
	"fmt"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/sarchlab/radixwalk/arch/power/radix"
	"github.com/sarchlab/radixwalk/mem/mem"
	"github.com/sarchlab/radixwalk/mem/vm"
)

// Hex is an unsigned 64-bit value written as a string in TOML, so that
// values with the top bit set can be expressed.
type Hex uint64

// UnmarshalText parses a number in any base that strconv accepts.
func (h *Hex) UnmarshalText(text []byte) error {
	v, err := strconv.ParseUint(string(text), 0, 64)
	if err != nil {
		return fmt.Errorf("invalid number %q: %w", text, err)
	}

	*h = Hex(v)

	return nil
}

// MarshalText writes the value in hexadecimal.
func (h Hex) MarshalText() ([]byte, error) {
	return []byte(fmt.Sprintf("%#x", uint64(h))), nil
}

// Thread is the register state of one hardware thread.
type Thread struct {
	ID   int    `toml:"id"`
	PTCR Hex    `toml:"ptcr"`
	LPID uint32 `toml:"lpid"`
	PID  uint32 `toml:"pid"`
}

// Registers returns the translation registers of the thread.
func (t Thread) Registers() radix.Registers {
	return radix.Registers{
		PTCR:  radix.PTCR(t.PTCR),
		LPIDR: t.LPID,
		PIDR:  t.PID,
	}
}

// Partition places a process table in the partition table.
type Partition struct {
	PTCR         Hex    `toml:"ptcr"`
	LPID         uint32 `toml:"lpid"`
	ProcessTable Hex    `toml:"process_table"`
}

// Root is the radix tree root of a process.
type Root struct {
	Base      Hex    `toml:"base"`
	Size      uint64 `toml:"size"`
	PageShift uint64 `toml:"page_shift"`
}

// Process places a radix tree root in a process table.
type Process struct {
	ProcessTable Hex    `toml:"process_table"`
	PID          uint32 `toml:"pid"`
	Root         Root   `toml:"root"`
}

// Directory points at the next level of a radix tree.
type Directory struct {
	Base Hex    `toml:"base"`
	Size uint64 `toml:"size"`
}

// Leaf maps a page.
type Leaf struct {
	RPN Hex `toml:"rpn"`
}

// Entry is a word of the memory image. Exactly one of Raw, Dir and Leaf must
// be set.
type Entry struct {
	Addr Hex        `toml:"addr"`
	Raw  *Hex       `toml:"raw"`
	Dir  *Directory `toml:"dir"`
	Leaf *Leaf      `toml:"leaf"`
}

// Word returns the encoded entry.
func (e Entry) Word() (uint64, error) {
	set := 0
	word := uint64(0)

	if e.Raw != nil {
		set++
		word = uint64(*e.Raw)
	}

	if e.Dir != nil {
		if uint64(e.Dir.Base) > radix.MaxDirectoryBase {
			return 0, fmt.Errorf("entry at %#x: directory base %#x is over %#x",
				uint64(e.Addr), uint64(e.Dir.Base), radix.MaxDirectoryBase)
		}

		set++
		word = uint64(radix.MakeDirectoryEntry(uint64(e.Dir.Base), e.Dir.Size))
	}

	if e.Leaf != nil {
		set++
		word = uint64(radix.MakeLeafEntry(uint64(e.Leaf.RPN)))
	}

	if set != 1 {
		return 0, fmt.Errorf("entry at %#x must set exactly one of raw, dir "+
			"and leaf", uint64(e.Addr))
	}

	return word, nil
}

// Translation is an address to translate.
type Translation struct {
	Thread int    `toml:"thread"`
	VAddr  Hex    `toml:"vaddr"`
	Mode   string `toml:"mode"`
}

// AccessMode returns the parsed access mode.
func (t Translation) AccessMode() (vm.AccessMode, error) {
	return vm.ParseAccessMode(t.Mode)
}

// Scenario is a complete translation setup.
type Scenario struct {
	Capacity     Hex           `toml:"capacity"`
	Threads      []Thread      `toml:"thread"`
	Partitions   []Partition   `toml:"partition"`
	Processes    []Process     `toml:"process"`
	Entries      []Entry       `toml:"entry"`
	Translations []Translation `toml:"translate"`
}

// DefaultCapacity is the memory size of a scenario that does not set one.
const DefaultCapacity = 4 * mem.GB

// Load reads a scenario file.
func Load(path string) (*Scenario, error) {
	s := &Scenario{}

	md, err := toml.DecodeFile(path, s)
	if err != nil {
		return nil, fmt.Errorf("loading scenario %s: %w", path, err)
	}

	if err := s.check(md); err != nil {
		return nil, fmt.Errorf("loading scenario %s: %w", path, err)
	}

	return s, nil
}

// Parse reads a scenario from a string.
func Parse(data string) (*Scenario, error) {
	s := &Scenario{}

	md, err := toml.Decode(data, s)
	if err != nil {
		return nil, err
	}

	if err := s.check(md); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Scenario) check(md toml.MetaData) error {
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown keys %v", undecoded)
	}

	return s.Validate()
}

// Validate checks the references between the parts of the scenario.
func (s *Scenario) Validate() error {
	threads := make(map[int]bool)
	for _, t := range s.Threads {
		if threads[t.ID] {
			return fmt.Errorf("thread %d is defined twice", t.ID)
		}

		threads[t.ID] = true
	}

	for _, p := range s.Processes {
		if p.Root.PageShift < 31 || p.Root.PageShift > 62 {
			return fmt.Errorf("process %d: page shift %d is out of [31, 62]",
				p.PID, p.Root.PageShift)
		}

		if uint64(p.Root.Base) > radix.MaxDirectoryBase {
			return fmt.Errorf("process %d: root base %#x is over %#x",
				p.PID, uint64(p.Root.Base), radix.MaxDirectoryBase)
		}
	}

	for _, e := range s.Entries {
		if _, err := e.Word(); err != nil {
			return err
		}
	}

	for _, t := range s.Translations {
		if !threads[t.Thread] {
			return fmt.Errorf("translation of %#x uses unknown thread %d",
				uint64(t.VAddr), t.Thread)
		}

		if _, err := t.AccessMode(); err != nil {
			return err
		}
	}

	return nil
}

// MemoryCapacity returns the capacity of the memory image.
func (s *Scenario) MemoryCapacity() uint64 {
	if s.Capacity == 0 {
		return DefaultCapacity
	}

	return uint64(s.Capacity)
}

// NewStorage creates a storage holding the memory image.
func (s *Scenario) NewStorage() (*mem.Storage, error) {
	storage := mem.NewStorage(s.MemoryCapacity())

	if err := s.WriteTo(storage); err != nil {
		return nil, err
	}

	return storage, nil
}

// WriteTo writes the partition table entries, the process table entries and
// the radix tree entries into storage.
func (s *Scenario) WriteTo(storage *mem.Storage) error {
	for _, p := range s.Partitions {
		addr := radix.PartitionEntryAddress(radix.PTCR(p.PTCR), p.LPID)
		word := radix.MakePartitionEntry1(uint64(p.ProcessTable), 0)

		if err := radix.PutWord(storage, addr, word); err != nil {
			return fmt.Errorf("partition %d: %w", p.LPID, err)
		}
	}

	for _, p := range s.Processes {
		addr := radix.ProcessEntryAddress(uint64(p.ProcessTable), p.PID)
		root := radix.RootDescriptor{
			Base:      uint64(p.Root.Base),
			Size:      p.Root.Size,
			PageShift: p.Root.PageShift,
		}

		if err := radix.PutWord(storage, addr, root.Encode()); err != nil {
			return fmt.Errorf("process %d: %w", p.PID, err)
		}
	}

	for _, e := range s.Entries {
		word, err := e.Word()
		if err != nil {
			return err
		}

		if err := radix.PutWord(storage, uint64(e.Addr), word); err != nil {
			return fmt.Errorf("entry at %#x: %w", uint64(e.Addr), err)
		}
	}

	return nil
}

// Thread returns the thread with the given ID.
func (s *Scenario) Thread(id int) (Thread, bool) {
	for _, t := range s.Threads {
		if t.ID == id {
			return t, true
		}
	}

	return Thread{}, false
}
