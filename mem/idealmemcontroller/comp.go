// Package idealmemcontroller provides a memory controller that serves every
// request after a fixed latency.
package idealmemcontroller

import (
	"log"
	"reflect"

	"github.com/sarchlab/radixwalk/mem/mem"
	"github.com/sarchlab/radixwalk/sim"
	"github.com/sarchlab/radixwalk/tracing"
)

type readRespondEvent struct {
	*sim.EventBase
	req *mem.ReadReq
}

func newReadRespondEvent(
	time sim.VTimeInSec,
	handler sim.Handler,
	req *mem.ReadReq,
) *readRespondEvent {
	return &readRespondEvent{sim.NewEventBase(time, handler), req}
}

type writeRespondEvent struct {
	*sim.EventBase
	req *mem.WriteReq
}

func newWriteRespondEvent(
	time sim.VTimeInSec,
	handler sim.Handler,
	req *mem.WriteReq,
) *writeRespondEvent {
	return &writeRespondEvent{sim.NewEventBase(time, handler), req}
}

// A Comp is an ideal memory controller. It always responds to a request in a
// fixed number of cycles and has no limit on the number of requests in
// flight. At most Width requests are accepted per cycle.
type Comp struct {
	*sim.TickingComponent
	sim.MiddlewareHolder

	topPort sim.Port
	Storage *mem.Storage
	Latency int
	Width   int

	numInflight int
}

// TopPort returns the port that receives requests.
func (c *Comp) TopPort() sim.Port {
	return c.topPort
}

// NumInflight returns the number of requests accepted but not yet answered.
func (c *Comp) NumInflight() int {
	return c.numInflight
}

// Handle defines how the Comp handles event
func (c *Comp) Handle(e sim.Event) error {
	c.Lock()
	defer c.Unlock()

	switch e := e.(type) {
	case *readRespondEvent:
		return c.handleReadRespondEvent(e)
	case *writeRespondEvent:
		return c.handleWriteRespondEvent(e)
	case sim.TickEvent:
		return c.TickingComponent.Handle(e)
	default:
		log.Panicf("cannot handle event of %s", reflect.TypeOf(e))
	}

	return nil
}

// Tick takes new requests from the top port.
func (c *Comp) Tick() bool {
	return c.MiddlewareHolder.Tick()
}

func (c *Comp) handleReadRespondEvent(e *readRespondEvent) error {
	now := e.Time()
	req := e.req

	var rsp sim.Msg

	data, err := c.Storage.Read(req.Address, req.AccessByteSize)
	if err != nil {
		rsp = mem.ErrorRspBuilder{}.
			WithSrc(c.topPort.AsRemote()).
			WithDst(req.Src).
			WithRspTo(req.ID).
			WithErr(err).
			Build()
	} else {
		rsp = mem.DataReadyRspBuilder{}.
			WithSrc(c.topPort.AsRemote()).
			WithDst(req.Src).
			WithRspTo(req.ID).
			WithData(data).
			Build()
	}

	if c.topPort.Send(rsp) != nil {
		retry := newReadRespondEvent(c.Freq.NextTick(now), c, req)
		c.Engine.Schedule(retry)

		return nil
	}

	c.numInflight--
	tracing.TraceReqComplete(req, c)
	c.TickLater()

	return nil
}

func (c *Comp) handleWriteRespondEvent(e *writeRespondEvent) error {
	now := e.Time()
	req := e.req

	var rsp sim.Msg

	if _, err := c.Storage.Read(req.Address, req.GetByteSize()); err != nil {
		rsp = mem.ErrorRspBuilder{}.
			WithSrc(c.topPort.AsRemote()).
			WithDst(req.Src).
			WithRspTo(req.ID).
			WithErr(err).
			Build()
	} else {
		rsp = mem.WriteDoneRspBuilder{}.
			WithSrc(c.topPort.AsRemote()).
			WithDst(req.Src).
			WithRspTo(req.ID).
			Build()
	}

	if c.topPort.Send(rsp) != nil {
		retry := newWriteRespondEvent(c.Freq.NextTick(now), c, req)
		c.Engine.Schedule(retry)

		return nil
	}

	if _, failed := rsp.(*mem.ErrorRsp); !failed {
		if err := c.Storage.Write(req.Address, req.Data); err != nil {
			log.Panic(err)
		}
	}

	c.numInflight--
	tracing.TraceReqComplete(req, c)
	c.TickLater()

	return nil
}

type memMiddleware struct {
	*Comp
}

func (m *memMiddleware) Tick() bool {
	madeProgress := false

	for i := 0; i < m.Width; i++ {
		msg := m.topPort.RetrieveIncoming()
		if msg == nil {
			break
		}

		tracing.TraceReqReceive(msg, m.Comp)
		m.schedule(msg)

		madeProgress = true
	}

	return madeProgress
}

func (m *memMiddleware) schedule(msg sim.Msg) {
	now := m.CurrentTime()
	respondTime := m.Freq.NCyclesLater(m.Latency, now)

	switch msg := msg.(type) {
	case *mem.ReadReq:
		m.Engine.Schedule(newReadRespondEvent(respondTime, m.Comp, msg))
	case *mem.WriteReq:
		m.Engine.Schedule(newWriteRespondEvent(respondTime, m.Comp, msg))
	default:
		log.Panicf("cannot handle request of type %s", reflect.TypeOf(msg))
	}

	m.numInflight++
}
