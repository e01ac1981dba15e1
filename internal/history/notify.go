package history

// EventShowNotification asks the surrounding surface to render a system
// notification.
const EventShowNotification = "showNotification"

// CapacityMessage is the user-facing text emitted when the history hits
// its configured ceiling.
const CapacityMessage = "You have reached the maximum number of saved copied items."

// Event is a message for an external notification sink.
type Event struct {
	Type    string
	Message string
}

// Notifier receives events raised by the service. Delivery is
// best-effort; the service never depends on it succeeding.
type Notifier interface {
	Notify(event Event)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(event Event)

// Notify implements Notifier.
func (f NotifierFunc) Notify(event Event) {
	f(event)
}

// discardNotifier drops all events. Used when no sink is configured.
type discardNotifier struct{}

func (discardNotifier) Notify(Event) {}
