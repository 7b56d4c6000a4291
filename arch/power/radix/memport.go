package radix

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/sarchlab/radixwalk/mem/mem"
)

// ErrShortRead is returned when a port delivers fewer bytes than requested.
var ErrShortRead = errors.New("short read")

// A MemPort reads physical memory on behalf of the walker.
type MemPort interface {
	// ReadSync reads width bytes at addr and returns in the same call.
	ReadSync(addr, width uint64) ([]byte, error)

	// ReadAsync starts a read of width bytes at addr. onComplete is called
	// exactly once, possibly before ReadAsync returns.
	ReadAsync(addr, width uint64, onComplete func(data []byte, err error))
}

func decodeWord(data []byte) (uint64, error) {
	if len(data) < WordSize {
		return 0, fmt.Errorf("%w: got %d bytes, want %d",
			ErrShortRead, len(data), WordSize)
	}

	return binary.BigEndian.Uint64(data), nil
}

func readWord(port MemPort, addr uint64) (uint64, error) {
	data, err := port.ReadSync(addr, WordSize)
	if err != nil {
		return 0, err
	}

	return decodeWord(data)
}

func readWordAsync(
	port MemPort,
	addr uint64,
	onComplete func(word uint64, err error),
) {
	port.ReadAsync(addr, WordSize, func(data []byte, err error) {
		if err != nil {
			onComplete(0, err)
			return
		}

		onComplete(decodeWord(data))
	})
}

// StoragePort reads a storage directly. Both read forms complete immediately.
type StoragePort struct {
	Storage   *mem.Storage
	Requester string
}

// NewStoragePort creates a StoragePort reading from storage.
func NewStoragePort(storage *mem.Storage, requester string) *StoragePort {
	return &StoragePort{
		Storage:   storage,
		Requester: requester,
	}
}

// ReadSync reads from the storage.
func (p *StoragePort) ReadSync(addr, width uint64) ([]byte, error) {
	data, err := p.Storage.Read(addr, width)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.Requester, err)
	}

	return data, nil
}

// ReadAsync reads from the storage and calls onComplete before returning.
func (p *StoragePort) ReadAsync(
	addr, width uint64,
	onComplete func(data []byte, err error),
) {
	onComplete(p.ReadSync(addr, width))
}

// PutWord stores an 8-byte big-endian word. It is a helper for building
// tables.
func PutWord(storage *mem.Storage, addr, word uint64) error {
	buf := make([]byte, WordSize)
	binary.BigEndian.PutUint64(buf, word)

	return storage.Write(addr, buf)
}
