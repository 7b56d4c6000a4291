package radix

import (
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/radixwalk/mem/mem"
	"github.com/sarchlab/radixwalk/sim"
)

// A Builder can build radix page table walkers.
type Builder struct {
	engine        sim.Engine
	freq          sim.Freq
	maxInFlight   int
	maxWalkDepth  int
	logger        *logrus.Logger
	storage       *mem.Storage
	mapper        mem.AddressToPortMapper
	topBufSize    int
	bottomBufSize int
}

// MakeBuilder creates a new Builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		freq:          1 * sim.GHz,
		maxInFlight:   16,
		maxWalkDepth:  DefaultMaxWalkDepth,
		topBufSize:    16,
		bottomBufSize: 16,
	}
}

// WithEngine sets the engine to use.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency of the walker.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithMaxInFlight sets the number of translations that can be walked at the
// same time.
func (b Builder) WithMaxInFlight(n int) Builder {
	b.maxInFlight = n
	return b
}

// WithMaxWalkDepth sets the number of levels a walk can read before it
// faults.
func (b Builder) WithMaxWalkDepth(depth int) Builder {
	b.maxWalkDepth = depth
	return b
}

// WithLogger sets the logger of the walker.
func (b Builder) WithLogger(logger *logrus.Logger) Builder {
	b.logger = logger
	return b
}

// WithAtomicStorage makes the walker read the page tables directly from the
// storage. Walks then finish in the cycle that they start.
func (b Builder) WithAtomicStorage(storage *mem.Storage) Builder {
	b.storage = storage
	return b
}

// WithMemoryPortMapper sets where the page table reads are sent.
func (b Builder) WithMemoryPortMapper(mapper mem.AddressToPortMapper) Builder {
	b.mapper = mapper
	return b
}

// WithTopBufSize sets the buffer size of the top port.
func (b Builder) WithTopBufSize(n int) Builder {
	b.topBufSize = n
	return b
}

// WithBottomBufSize sets the buffer size of the bottom port.
func (b Builder) WithBottomBufSize(n int) Builder {
	b.bottomBufSize = n
	return b
}

// Build creates a new walker.
func (b Builder) Build(name string) *Comp {
	if b.maxInFlight <= 0 {
		panic("max in flight must be positive")
	}

	c := &Comp{
		threads:     make(map[int]ThreadContext),
		maxInFlight: b.maxInFlight,
		logger:      b.logger,
	}
	if c.logger == nil {
		c.logger = logrus.StandardLogger()
	}

	c.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, c)

	b.createPorts(name, c)
	b.createTranslator(name, c)

	c.AddMiddleware(&walkMiddleware{Comp: c})

	return c
}

func (b Builder) createPorts(name string, c *Comp) {
	c.topPort = sim.NewPort(c, b.topBufSize, b.topBufSize, name+".TopPort")
	c.AddPort("Top", c.topPort)

	c.bottomPort = sim.NewPort(c,
		b.bottomBufSize, b.bottomBufSize, name+".BottomPort")
	c.AddPort("Bottom", c.bottomPort)
}

func (b Builder) createTranslator(name string, c *Comp) {
	var port MemPort

	if b.storage != nil {
		port = NewStoragePort(b.storage, name)
	} else {
		c.timingPort = NewTimingPort(c.bottomPort, b.mapper)
		port = c.timingPort
	}

	c.translator = NewTranslator(port, b.maxWalkDepth, c.logger)
}
