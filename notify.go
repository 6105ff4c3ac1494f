package termpane

import (
	ps "github.com/simonfxr/pubsub"

	"pkt.systems/termpane/schema"
)

// sessionTopic is the single topic used for all session events.
const sessionTopic = "sessions"

// Notifier streams session lifecycle events to host subscribers. It
// implements core.SessionSink on the publishing side. Delivery is
// best-effort: each subscriber has a buffered channel and slow consumers
// have events dropped, which is acceptable for lifecycle notifications
// (the authoritative state lives in the session snapshots).
type Notifier struct {
	bus *ps.Bus
}

// NewNotifier creates an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{bus: ps.NewBus()}
}

// OnSpawned publishes a spawned event.
func (n *Notifier) OnSpawned(id schema.SessionID) {
	n.publish(schema.SessionEvent{Type: schema.SessionSpawned, SessionID: id})
}

// OnProcessExit publishes an exited event.
func (n *Notifier) OnProcessExit(id schema.SessionID, exitCode int) {
	n.publish(schema.SessionEvent{Type: schema.SessionExited, SessionID: id, ExitCode: exitCode})
}

// OnCloseRequest publishes a close-requested event.
func (n *Notifier) OnCloseRequest(id schema.SessionID) {
	n.publish(schema.SessionEvent{Type: schema.SessionCloseRequested, SessionID: id})
}

func (n *Notifier) publish(ev schema.SessionEvent) {
	n.bus.Publish(sessionTopic, ev)
}

// Subscribe returns a channel of session events and a cancel function.
// The channel has a buffer of 64 events and is closed on cancel.
func (n *Notifier) Subscribe() (<-chan schema.SessionEvent, func()) {
	ch := make(chan schema.SessionEvent, 64)
	sub := n.bus.SubscribeChan(sessionTopic, ch, ps.CloseOnUnsubscribe)
	cancel := func() {
		n.bus.Unsubscribe(sub)
	}
	return ch, cancel
}
