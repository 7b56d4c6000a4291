package radix

import (
	"errors"
	"fmt"
	"log"
	"reflect"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/radixwalk/mem/mem"
	"github.com/sarchlab/radixwalk/mem/vm"
	"github.com/sarchlab/radixwalk/sim"
	"github.com/sarchlab/radixwalk/tracing"
)

// ErrUnknownThread is the fault of a translation request whose thread was
// never registered.
var ErrUnknownThread = errors.New("unknown thread")

type walk struct {
	req      *vm.TranslationReq
	tReq     *Request
	pid      vm.PID
	finished bool
	err      error
}

// Comp is a page table walker component. It receives translation requests
// from the top port, walks the radix tree of the requesting thread and
// responds with the page found.
type Comp struct {
	*sim.TickingComponent
	sim.MiddlewareHolder

	topPort    sim.Port
	bottomPort sim.Port

	translator  *Translator
	timingPort  *TimingPort
	threads     map[int]ThreadContext
	maxInFlight int
	logger      *logrus.Logger

	walks []*walk
}

// TopPort returns the port that receives translation requests.
func (c *Comp) TopPort() sim.Port {
	return c.topPort
}

// BottomPort returns the port that reads the page tables from memory.
func (c *Comp) BottomPort() sim.Port {
	return c.bottomPort
}

// RegisterThread makes the registers of a thread available to the requests
// that carry its ID.
func (c *Comp) RegisterThread(id int, tc ThreadContext) {
	c.threads[id] = tc
}

// SetMemoryPortMapper sets where the page table reads are sent.
func (c *Comp) SetMemoryPortMapper(mapper mem.AddressToPortMapper) {
	if c.timingPort == nil {
		log.Panicf("%s reads storage directly and sends no requests",
			c.Name())
	}

	c.timingPort.Mapper = mapper
}

// NumInFlight returns the number of translations accepted but not yet
// answered.
func (c *Comp) NumInFlight() int {
	return len(c.walks)
}

// Tick updates the state of the walker.
func (c *Comp) Tick() bool {
	return c.MiddlewareHolder.Tick()
}

type walkMiddleware struct {
	*Comp
}

func (m *walkMiddleware) Tick() bool {
	madeProgress := false

	madeProgress = m.respond() || madeProgress
	madeProgress = m.parseFromBottom() || madeProgress
	madeProgress = m.issue() || madeProgress
	madeProgress = m.parseFromTop() || madeProgress

	return madeProgress
}

func (m *walkMiddleware) respond() bool {
	madeProgress := false
	remaining := m.walks[:0]

	for i, w := range m.walks {
		if !w.finished {
			remaining = append(remaining, w)
			continue
		}

		rsp := m.buildRsp(w)
		if m.topPort.Send(rsp) != nil {
			remaining = append(remaining, m.walks[i:]...)
			break
		}

		tracing.TraceReqComplete(w.req, m.Comp)

		madeProgress = true
	}

	m.walks = remaining

	return madeProgress
}

func (m *walkMiddleware) buildRsp(w *walk) *vm.TranslationRsp {
	builder := vm.TranslationRspBuilder{}.
		WithSrc(m.topPort.AsRemote()).
		WithDst(w.req.Src).
		WithRspTo(w.req.ID)

	if w.err != nil {
		return builder.WithFault(w.err).Build()
	}

	return builder.WithPage(w.tReq.Page(w.pid)).Build()
}

func (m *walkMiddleware) parseFromBottom() bool {
	if m.timingPort == nil {
		return false
	}

	madeProgress := false

	for {
		msg := m.bottomPort.PeekIncoming()
		if msg == nil {
			break
		}

		if err := m.timingPort.HandleRsp(msg); err != nil {
			m.logger.WithFields(logrus.Fields{
				"comp":   m.Name(),
				"msg_id": msg.Meta().ID,
			}).WithError(err).Warn("dropping response")
		}

		m.bottomPort.RetrieveIncoming()

		madeProgress = true
	}

	return madeProgress
}

func (m *walkMiddleware) issue() bool {
	if m.timingPort == nil {
		return false
	}

	return m.timingPort.SendPending()
}

func (m *walkMiddleware) parseFromTop() bool {
	if len(m.walks) >= m.maxInFlight {
		return false
	}

	msg := m.topPort.RetrieveIncoming()
	if msg == nil {
		return false
	}

	tracing.TraceReqReceive(msg, m.Comp)

	switch req := msg.(type) {
	case *vm.TranslationReq:
		m.startWalk(req)
	default:
		log.Panicf("%s cannot handle message of type %s",
			m.Name(), reflect.TypeOf(msg))
	}

	return true
}

func (m *walkMiddleware) startWalk(req *vm.TranslationReq) {
	w := &walk{req: req}
	m.walks = append(m.walks, w)

	tc, found := m.threads[req.ThreadID]
	if !found {
		w.finished = true
		w.err = fmt.Errorf("%w: %d", ErrUnknownThread, req.ThreadID)

		return
	}

	w.pid = vm.PID(tc.RadixRegisters().PIDR)
	w.tReq = &Request{
		VAddr:  req.VAddr,
		Mode:   req.Mode,
		Thread: tc,
	}

	m.translator.TranslateAsync(w.tReq, func(err error) {
		m.finishWalk(w, err)
	})
}

func (m *walkMiddleware) finishWalk(w *walk, err error) {
	w.finished = true
	w.err = err

	taskID := tracing.MsgIDAtReceiver(w.req, m.Comp)
	for level, e := range w.tReq.Entries {
		tracing.AddTaskStep(taskID, m.Comp, fmt.Sprintf("level %d %s", level, e))
	}

	entry := m.logger.WithFields(logrus.Fields{
		"comp":  m.Name(),
		"vaddr": w.req.VAddr,
	})
	if err != nil {
		entry.WithError(err).Debug("translation failed")
	} else {
		entry.WithField("paddr", w.tReq.PAddr).Debug("translation done")
	}
}
