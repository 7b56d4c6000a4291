package sim

// VTimeInSec is a point in simulated time, in seconds.
type VTimeInSec float64

// An Event is a state change that a Handler performs at a given time.
type Event interface {
	Time() VTimeInSec
	Handler() Handler

	// IsSecondary tells if the event runs after all the primary events of
	// the same time.
	IsSecondary() bool
}

// EventBase implements the getters of Event.
type EventBase struct {
	ID        string
	time      VTimeInSec
	handler   Handler
	secondary bool
}

// NewEventBase creates an EventBase with a fresh ID.
func NewEventBase(t VTimeInSec, handler Handler) *EventBase {
	return &EventBase{
		ID:      GetIDGenerator().Generate(),
		time:    t,
		handler: handler,
	}
}

// Time returns when the event happens.
func (e EventBase) Time() VTimeInSec {
	return e.time
}

// Handler returns the handler of the event.
func (e EventBase) Handler() Handler {
	return e.handler
}

// IsSecondary tells if the event is secondary.
func (e EventBase) IsSecondary() bool {
	return e.secondary
}

// A Handler owns the state that its events change. An event may only be
// scheduled by its handler.
type Handler interface {
	Handle(e Event) error
}
