package sim

import (
	"reflect"

	"github.com/sirupsen/logrus"
)

// EventLogger is a hook that logs every event before the engine handles it.
type EventLogger struct {
	LogHookBase
}

// NewEventLogger creates an EventLogger that writes to logger.
func NewEventLogger(logger logrus.FieldLogger) *EventLogger {
	return &EventLogger{LogHookBase: LogHookBase{Logger: logger}}
}

// Func logs the event.
func (h *EventLogger) Func(ctx HookCtx) {
	if ctx.Pos != HookPosBeforeEvent {
		return
	}

	evt, ok := ctx.Item.(Event)
	if !ok {
		return
	}

	fields := logrus.Fields{
		"sim_time": float64(evt.Time()),
		"event":    reflect.TypeOf(evt).String(),
	}

	if comp, ok := evt.Handler().(Named); ok {
		fields["handler"] = comp.Name()
	}

	h.Logger.WithFields(fields).Trace("event")
}
