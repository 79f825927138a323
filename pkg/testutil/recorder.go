package testutil

import (
	"sync"

	"github.com/arthur-debert/dynreg/pkg/notify"
)

// Recorder collects the events delivered to it
type Recorder struct {
	mu     sync.Mutex
	events []notify.Event
}

// Watch subscribes a new Recorder to o. The notifier's listening flag is left
// as it is.
func Watch(o notify.Observable) (*Recorder, notify.Subscription) {
	r := &Recorder{}
	sub := o.Notifications().Subscribe(r.Record)
	return r, sub
}

// Record is a notify.Handler
func (r *Recorder) Record(e notify.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Count returns the number of events recorded
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Properties returns the property names of the recorded events, in order
func (r *Recorder) Properties() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Property
	}
	return out
}

// Events returns a copy of the recorded events
func (r *Recorder) Events() []notify.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notify.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Reset forgets every recorded event
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
