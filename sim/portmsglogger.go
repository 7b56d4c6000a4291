package sim

import (
	"reflect"

	"github.com/sirupsen/logrus"
)

// PortMsgLogger is a hook that logs the messages a port sends and receives.
type PortMsgLogger struct {
	LogHookBase

	timeTeller TimeTeller
}

// NewPortMsgLogger creates a PortMsgLogger that writes to logger.
func NewPortMsgLogger(
	logger logrus.FieldLogger,
	timeTeller TimeTeller,
) *PortMsgLogger {
	return &PortMsgLogger{
		LogHookBase: LogHookBase{Logger: logger},
		timeTeller:  timeTeller,
	}
}

// Func logs the message.
func (h *PortMsgLogger) Func(ctx HookCtx) {
	msg, ok := ctx.Item.(Msg)
	if !ok {
		return
	}

	port, ok := ctx.Domain.(Port)
	if !ok {
		return
	}

	meta := msg.Meta()

	h.Logger.WithFields(logrus.Fields{
		"sim_time": float64(h.timeTeller.CurrentTime()),
		"port":     port.Name(),
		"src":      meta.Src,
		"dst":      meta.Dst,
		"type":     reflect.TypeOf(msg).String(),
		"id":       meta.ID,
	}).Trace(ctx.Pos.Name)
}
