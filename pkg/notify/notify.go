// Package notify provides named property-changed notifications for mutable models.
package notify

import (
	"sync"
)

// Handler receives the name of the property that changed.
type Handler func(property string)

// Token identifies a subscription so it can be removed later.
type Token uint64

// Notifier fans a property-changed event out to its subscribers.
// The zero value is ready to use.
type Notifier struct {
	mu       sync.Mutex
	next     Token
	handlers map[Token]Handler
	order    []Token
}

// Subscribe registers h and returns a token for Unsubscribe.
func (n *Notifier) Subscribe(h Handler) Token {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.handlers == nil {
		n.handlers = map[Token]Handler{}
	}
	n.next++
	n.handlers[n.next] = h
	n.order = append(n.order, n.next)
	return n.next
}

// Unsubscribe removes a subscription. Unknown tokens are ignored.
func (n *Notifier) Unsubscribe(t Token) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.handlers[t]; !ok {
		return
	}
	delete(n.handlers, t)
	for i, o := range n.order {
		if o == t {
			n.order = append(n.order[:i], n.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of active subscriptions.
func (n *Notifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.handlers)
}

// Notify calls every subscriber in registration order.
// Handlers run outside the lock, so they may subscribe or unsubscribe.
func (n *Notifier) Notify(property string) {
	n.mu.Lock()
	hs := make([]Handler, 0, len(n.order))
	for _, t := range n.order {
		hs = append(hs, n.handlers[t])
	}
	n.mu.Unlock()

	for _, h := range hs {
		h(property)
	}
}

// Recorder collects notifications, mostly for tests and logging.
type Recorder struct {
	mu     sync.Mutex
	Events []string
}

// Record is a Handler that appends the property name.
func (r *Recorder) Record(property string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, property)
}

// Count returns how many times property was recorded.
func (r *Recorder) Count(property string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.Events {
		if e == property {
			n++
		}
	}
	return n
}

// Reset forgets recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = nil
}
