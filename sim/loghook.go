package sim

import "github.com/sirupsen/logrus"

// A LogHook is a hook that writes what it sees to a logger.
type LogHook interface {
	Hook
}

// LogHookBase holds the logger of a LogHook. The hooks log at trace level.
type LogHookBase struct {
	Logger logrus.FieldLogger
}
