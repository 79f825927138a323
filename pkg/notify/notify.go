// Package notify implements the change-notification relation between an
// observable object and its subscribers.
//
// Delivery is synchronous: Notify runs every subscriber on the caller's stack
// before returning. A subscriber that panics is logged and skipped, so the
// mutation that triggered the notification always completes.
package notify

import (
	"sync"

	"github.com/arthur-debert/dynreg/pkg/errors"
	"github.com/arthur-debert/dynreg/pkg/logging"
)

// Event describes a change on Sender. Property is empty when the change is
// not attributed to a single property.
type Event struct {
	Sender   interface{}
	Property string
}

// Handler receives change events
type Handler func(Event)

// Subscription identifies a registered handler for Unsubscribe
type Subscription uint64

// Observable is implemented by every type that embeds a Notifier
type Observable interface {
	Notifications() *Notifier
}

type subscriber struct {
	id      Subscription
	handler Handler
}

// Notifier holds the listening flag and the ordered subscriber list of one
// object. The zero value is ready to use and is not listening.
type Notifier struct {
	mu        sync.Mutex
	listening bool
	next      Subscription
	subs      []subscriber
}

// Notifications returns n. Embedding a Notifier makes the outer type Observable.
func (n *Notifier) Notifications() *Notifier {
	return n
}

// Listen turns event emission on or off
func (n *Notifier) Listen(on bool) {
	n.mu.Lock()
	n.listening = on
	n.mu.Unlock()
}

// Listening reports whether Notify delivers events
func (n *Notifier) Listening() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.listening
}

// Subscribe appends h to the subscriber list
func (n *Notifier) Subscribe(h Handler) Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.next++
	n.subs = append(n.subs, subscriber{id: n.next, handler: h})
	return n.next
}

// Unsubscribe removes the handler registered under s. It returns false when
// s is not (or no longer) subscribed.
func (n *Notifier) Unsubscribe(s Subscription) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, sub := range n.subs {
		if sub.id == s {
			n.subs = append(n.subs[:i:i], n.subs[i+1:]...)
			return true
		}
	}
	return false
}

// Subscribers returns the number of registered handlers
func (n *Notifier) Subscribers() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}

// Notify delivers Event{sender, property} to every subscriber in
// subscription order, if the notifier is listening.
func (n *Notifier) Notify(sender interface{}, property string) {
	n.mu.Lock()
	if !n.listening || len(n.subs) == 0 {
		n.mu.Unlock()
		return
	}
	subs := make([]subscriber, len(n.subs))
	copy(subs, n.subs)
	n.mu.Unlock()

	event := Event{Sender: sender, Property: property}
	for _, sub := range subs {
		deliver(sub, event)
	}
}

func deliver(sub subscriber, event Event) {
	defer func() {
		if r := recover(); r != nil {
			logging.LogFault("notify", "deliver", errors.FromPanic(r, "subscriber"), map[string]interface{}{
				"subscription": uint64(sub.id),
				"property":     event.Property,
			})
		}
	}()
	sub.handler(event)
}
