package sim

// TimeTeller reports the current simulated time.
type TimeTeller interface {
	CurrentTime() VTimeInSec
}

// EventScheduler accepts events to handle in the future.
type EventScheduler interface {
	Schedule(e Event)
}

// A SimulationEndHandler runs once the simulation is over.
type SimulationEndHandler interface {
	Handle(now VTimeInSec)
}

// SimulationEndHandlerFunc lets a plain function serve as a
// SimulationEndHandler.
type SimulationEndHandlerFunc func(now VTimeInSec)

// Handle calls f.
func (f SimulationEndHandlerFunc) Handle(now VTimeInSec) {
	f(now)
}

// An Engine drives a discrete event simulation.
type Engine interface {
	Hookable
	TimeTeller
	EventScheduler

	// Run handles events until none is left.
	Run() error

	// Pause blocks Run before its next event until Continue is called.
	Pause()

	// Continue lets a paused Run go on.
	Continue()

	// RegisterSimulationEndHandler adds a handler for Finished to call.
	RegisterSimulationEndHandler(handler SimulationEndHandler)

	// Finished calls the simulation end handlers with the current time.
	Finished()
}
