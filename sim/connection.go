package sim

// SendError marks a failure send or receive
type SendError struct{}

// NewSendError creates a SendError
func NewSendError() *SendError {
	return new(SendError)
}

// Error makes SendError usable where an error is expected.
func (e *SendError) Error() string {
	return "port busy"
}

// A Connection is responsible for delivering messages to its destination.
type Connection interface {
	Named
	Hookable

	PlugIn(port Port)
	Unplug(port Port)

	// NotifyAvailable is called by a port whose incoming buffer has space
	// again.
	NotifyAvailable(port Port)

	// NotifySend is called by a port that has new outgoing messages.
	NotifySend()
}

// HookPosConnDeliver marks a connection delivered a message.
var HookPosConnDeliver = &HookPos{Name: "Conn Deliver"}
