package registry

import (
	"github.com/charmbracelet/log"
)

// Notifier receives every module instance the registry creates.
type Notifier interface {
	OnCreated(m Module)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(m Module)

// OnCreated calls f(m).
func (f NotifierFunc) OnCreated(m Module) { f(m) }

// MultiNotifier fans a notification out to several notifiers in order.
type MultiNotifier []Notifier

// OnCreated notifies every member.
func (mn MultiNotifier) OnCreated(m Module) {
	for _, n := range mn {
		n.OnCreated(m)
	}
}

// LogNotifier logs each created instance at debug level.
func LogNotifier(logger *log.Logger) Notifier {
	return NotifierFunc(func(m Module) {
		logger.Debug("module created", "name", m.Name(), "type", m.Type(), "id", m.ID())
	})
}

type nopNotifier struct{}

func (nopNotifier) OnCreated(Module) {}

// notify delivers m to the configured notifier. A panicking notifier is
// logged and otherwise ignored; it never fails the caller.
func (r *Registry) notify(m Module) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("event notifier failed", "name", m.Name(), "panic", rec)
		}
	}()
	r.notifier.OnCreated(m)
}
