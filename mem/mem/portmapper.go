package mem

import "github.com/sarchlab/radixwalk/sim"

// AddressToPortMapper finds the memory module port that serves an address.
type AddressToPortMapper interface {
	Find(address uint64) sim.RemotePort
}

// SinglePortMapper is used when all the addresses are served by one module.
type SinglePortMapper struct {
	Port sim.RemotePort
}

// Find returns the only port.
func (m *SinglePortMapper) Find(_ uint64) sim.RemotePort {
	return m.Port
}

// InterleavedPortMapper spreads consecutive blocks of InterleavingSize bytes
// over a list of modules. Addresses outside [LowAddress, HighAddress) go to
// Fallback when the range is limited.
type InterleavedPortMapper struct {
	InterleavingSize uint64
	Ports            []sim.RemotePort

	LimitRange  bool
	LowAddress  uint64
	HighAddress uint64
	Fallback    sim.RemotePort
}

// NewInterleavedPortMapper creates a mapper over the given ports.
func NewInterleavedPortMapper(
	interleavingSize uint64,
	ports ...sim.RemotePort,
) *InterleavedPortMapper {
	if interleavingSize == 0 {
		panic("interleaving size must be positive")
	}

	return &InterleavedPortMapper{
		InterleavingSize: interleavingSize,
		Ports:            ports,
	}
}

// Find returns the port of the module that holds the address.
func (m *InterleavedPortMapper) Find(address uint64) sim.RemotePort {
	if m.LimitRange &&
		(address < m.LowAddress || address >= m.HighAddress) {
		return m.Fallback
	}

	i := address / m.InterleavingSize % uint64(len(m.Ports))

	return m.Ports[i]
}
