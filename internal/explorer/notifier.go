package explorer

import (
	"github.com/samsirama/windows-explorer-clone/internal/logging"
)

// Notifier surfaces failure messages to the user. Every failed action
// notifies once.
type Notifier interface {
	Notify(msg string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(msg string)

// Notify calls f(msg).
func (f NotifierFunc) Notify(msg string) {
	f(msg)
}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct{}

// Notify logs msg at warn level.
func (LogNotifier) Notify(msg string) {
	logging.Warn("explorer notice", logging.String("message", msg))
}
