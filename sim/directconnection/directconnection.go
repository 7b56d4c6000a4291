// Package directconnection provides a connection that delivers messages
// without latency.
package directconnection

import (
	"log"
	"sort"

	"github.com/sarchlab/radixwalk/sim"
)

// Comp is a connection that moves messages from the outgoing buffer of a
// source port to the incoming buffer of the destination port in the same
// cycle.
type Comp struct {
	*sim.TickingComponent
	sim.MiddlewareHolder

	nextPortID int
	ports      []sim.Port
	byName     map[sim.RemotePort]sim.Port
}

// PlugIn marks the port connects to this DirectConnection.
func (c *Comp) PlugIn(port sim.Port) {
	c.Lock()
	defer c.Unlock()

	if _, found := c.byName[port.AsRemote()]; found {
		log.Panicf("port %s is already connected to %s",
			port.AsRemote(), c.Name())
	}

	c.ports = append(c.ports, port)
	c.byName[port.AsRemote()] = port

	port.SetConnection(c)
}

// Unplug removes the port from the connection. Messages still buffered in the
// port are left untouched.
func (c *Comp) Unplug(port sim.Port) {
	c.Lock()
	defer c.Unlock()

	if _, found := c.byName[port.AsRemote()]; !found {
		log.Panicf("port %s is not connected to %s",
			port.AsRemote(), c.Name())
	}

	delete(c.byName, port.AsRemote())

	for i, p := range c.ports {
		if p == port {
			c.ports = append(c.ports[:i], c.ports[i+1:]...)
			break
		}
	}

	if len(c.ports) > 0 {
		c.nextPortID %= len(c.ports)
	} else {
		c.nextPortID = 0
	}
}

// ConnectedPorts returns the names of the ports plugged into the connection.
func (c *Comp) ConnectedPorts() []sim.RemotePort {
	c.Lock()
	defer c.Unlock()

	names := make([]sim.RemotePort, 0, len(c.ports))
	for _, p := range c.ports {
		names = append(names, p.AsRemote())
	}

	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	return names
}

// NotifyAvailable is called by a port whose incoming buffer has space again.
// Messages blocked on that port can move on in the current cycle.
func (c *Comp) NotifyAvailable(_ sim.Port) {
	c.TickNow()
}

// NotifySend is called by a port that has new outgoing messages.
func (c *Comp) NotifySend() {
	c.TickNow()
}

// Tick moves messages across the connection.
func (c *Comp) Tick() bool {
	return c.MiddlewareHolder.Tick()
}

type middleware struct {
	*Comp
}

// Tick visits the ports round-robin so that no source is always served first.
func (m *middleware) Tick() bool {
	m.Lock()
	ports := append([]sim.Port(nil), m.ports...)
	start := m.nextPortID
	m.Unlock()

	if len(ports) == 0 {
		return false
	}

	madeProgress := false

	for i := 0; i < len(ports); i++ {
		port := ports[(i+start)%len(ports)]
		madeProgress = m.forwardMany(port) || madeProgress
	}

	m.Lock()
	if len(m.ports) > 0 {
		m.nextPortID = (start + 1) % len(m.ports)
	}
	m.Unlock()

	return madeProgress
}

func (m *middleware) forwardMany(port sim.Port) bool {
	madeProgress := false

	for {
		head := port.PeekOutgoing()
		if head == nil {
			break
		}

		dst := m.lookup(head.Meta().Dst)

		err := dst.Deliver(head)
		if err != nil {
			break
		}

		m.InvokeHook(sim.HookCtx{
			Domain: m.Comp,
			Pos:    sim.HookPosConnDeliver,
			Item:   head,
		})

		madeProgress = true

		port.RetrieveOutgoing()
	}

	return madeProgress
}

func (m *middleware) lookup(name sim.RemotePort) sim.Port {
	m.Lock()
	defer m.Unlock()

	port, found := m.byName[name]
	if !found {
		log.Panicf("destination %s is not connected to %s", name, m.Name())
	}

	return port
}
