package services

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Event types published after a state owner finishes a mutation.
const (
	EventCartUpdate      = "cart_update"
	EventFavoritesUpdate = "favorites_update"
	EventMenuUpdate      = "menu_update"
)

// Event carries the post-mutation snapshot of one session's state owner.
type Event struct {
	Type      string      `json:"event"`
	SessionID string      `json:"session_id"`
	Data      interface{} `json:"data"`
}

// Notifier receives events after the mutation that produced them completed.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a plain function to Notifier.
type NotifierFunc func(Event)

func (f NotifierFunc) Notify(e Event) { f(e) }

type noopNotifier struct{}

func (noopNotifier) Notify(Event) {}

// Fanout delivers every event to each registered notifier in order.
type Fanout struct {
	mu        sync.RWMutex
	notifiers []Notifier
}

func NewFanout(notifiers ...Notifier) *Fanout {
	return &Fanout{notifiers: notifiers}
}

func (f *Fanout) Add(n Notifier) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifiers = append(f.notifiers, n)
}

func (f *Fanout) Notify(e Event) {
	f.mu.RLock()
	notifiers := make([]Notifier, len(f.notifiers))
	copy(notifiers, f.notifiers)
	f.mu.RUnlock()

	for _, n := range notifiers {
		n.Notify(e)
	}
}

func orNoop(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}

func orStdLogger(log logrus.FieldLogger) logrus.FieldLogger {
	if log == nil {
		return logrus.StandardLogger()
	}
	return log
}

// deliveryGate keeps one owner's notifications in mutation order. Owners
// number each mutation under their own lock and hand the number to deliver
// after unlocking; an event older than one already delivered is dropped, so
// the last event an observer sees always carries the newest state.
type deliveryGate struct {
	mu        sync.Mutex
	delivered uint64
}

// deliver must not be called with the owner's state lock held. Notifiers may
// read the owner back but must not mutate it.
func (g *deliveryGate) deliver(seq uint64, n Notifier, e Event) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if seq <= g.delivered {
		return
	}
	g.delivered = seq
	n.Notify(e)
}
