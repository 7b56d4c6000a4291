package radix

import (
	"errors"
	"fmt"
	"log"
	"reflect"

	"github.com/sarchlab/radixwalk/mem/mem"
	"github.com/sarchlab/radixwalk/mem/vm"
	"github.com/sarchlab/radixwalk/sim"
)

var (
	// ErrBlockingReadUnsupported is returned by ReadSync on a port that can
	// only complete reads through the simulation.
	ErrBlockingReadUnsupported = errors.New("blocking read is not supported")

	// ErrUnexpectedRsp is returned when a response does not answer any
	// outstanding read.
	ErrUnexpectedRsp = errors.New("unexpected response")
)

type timingRead struct {
	req        *mem.ReadReq
	onComplete func(data []byte, err error)
}

// TimingPort turns reads into requests sent through a simulation port. A
// request rejected by the port stays queued and is sent again, unchanged, by
// the next SendPending call.
type TimingPort struct {
	Port   sim.Port
	Mapper mem.AddressToPortMapper
	PID    vm.PID

	pending     []*timingRead
	outstanding map[string]*timingRead
}

// NewTimingPort creates a TimingPort that sends requests through port to the
// memory selected by mapper.
func NewTimingPort(port sim.Port, mapper mem.AddressToPortMapper) *TimingPort {
	return &TimingPort{
		Port:        port,
		Mapper:      mapper,
		outstanding: make(map[string]*timingRead),
	}
}

// ReadSync always fails. A timing port cannot return data in the same call.
func (p *TimingPort) ReadSync(_, _ uint64) ([]byte, error) {
	return nil, ErrBlockingReadUnsupported
}

// ReadAsync queues a read request and tries to send it right away.
func (p *TimingPort) ReadAsync(
	addr, width uint64,
	onComplete func(data []byte, err error),
) {
	if p.Mapper == nil {
		log.Panicf("port %s has no memory to read %#x from",
			p.Port.Name(), addr)
	}

	req := mem.ReadReqBuilder{}.
		WithSrc(p.Port.AsRemote()).
		WithDst(p.Mapper.Find(addr)).
		WithPID(p.PID).
		WithAddress(addr).
		WithByteSize(width).
		Build()

	p.pending = append(p.pending, &timingRead{
		req:        req,
		onComplete: onComplete,
	})

	p.SendPending()
}

// SendPending sends the queued requests in order. It stops at the first
// request that the port rejects.
func (p *TimingPort) SendPending() bool {
	madeProgress := false

	for len(p.pending) > 0 {
		read := p.pending[0]

		if err := p.Port.Send(read.req); err != nil {
			break
		}

		p.outstanding[read.req.ID] = read
		p.pending = p.pending[1:]
		madeProgress = true
	}

	return madeProgress
}

// HandleRsp completes the read that msg answers. A message that answers no
// outstanding read is not consumed and an error wrapping ErrUnexpectedRsp is
// returned.
func (p *TimingPort) HandleRsp(msg sim.Msg) error {
	switch rsp := msg.(type) {
	case *mem.DataReadyRsp:
		read, err := p.takeOutstanding(rsp.RespondTo)
		if err != nil {
			return err
		}

		if uint64(len(rsp.Data)) != read.req.AccessByteSize {
			read.onComplete(nil, fmt.Errorf("%w: got %d bytes, want %d",
				ErrShortRead, len(rsp.Data), read.req.AccessByteSize))
			return nil
		}

		read.onComplete(rsp.Data, nil)
	case *mem.ErrorRsp:
		read, err := p.takeOutstanding(rsp.RespondTo)
		if err != nil {
			return err
		}

		read.onComplete(nil, rsp.Err)
	default:
		return fmt.Errorf("%w: message of type %s",
			ErrUnexpectedRsp, reflect.TypeOf(msg))
	}

	return nil
}

func (p *TimingPort) takeOutstanding(id string) (*timingRead, error) {
	read, found := p.outstanding[id]
	if !found {
		return nil, fmt.Errorf("%w: no outstanding request %s",
			ErrUnexpectedRsp, id)
	}

	delete(p.outstanding, id)

	return read, nil
}

// NumPending returns the number of reads waiting to be sent.
func (p *TimingPort) NumPending() int {
	return len(p.pending)
}

// NumOutstanding returns the number of reads sent but not answered.
func (p *TimingPort) NumOutstanding() int {
	return len(p.outstanding)
}
