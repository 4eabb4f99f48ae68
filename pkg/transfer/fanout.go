package transfer

import (
	"errors"
	"sync"
)

// Registration identifies a listener added to a Fanout.
type Registration uint64

// Fanout delivers every event to each registered listener in registration
// order. It is safe for concurrent use; listeners may be added and removed
// while events flow.
type Fanout struct {
	mu        sync.RWMutex
	next      Registration
	listeners []registered
}

type registered struct {
	id Registration
	l  Listener
}

// Register adds l and returns a handle for Unregister.
func (f *Fanout) Register(l Listener) Registration {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	f.listeners = append(f.listeners, registered{id: f.next, l: l})
	return f.next
}

// Unregister removes a listener. It reports whether the handle was known.
func (f *Fanout) Unregister(id Registration) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.listeners {
		if r.id == id {
			f.listeners = append(f.listeners[:i:i], f.listeners[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of registered listeners.
func (f *Fanout) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.listeners)
}

func (f *Fanout) snapshot() []registered {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.listeners
}

// Transfer forwards e to every listener and joins their errors.
func (f *Fanout) Transfer(e Event) error {
	var errs []error
	for _, r := range f.snapshot() {
		if err := r.l.Transfer(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// TransfersDrained forwards the drain notification to listeners that
// implement Drainer.
func (f *Fanout) TransfersDrained() {
	for _, r := range f.snapshot() {
		if d, ok := r.l.(Drainer); ok {
			d.TransfersDrained()
		}
	}
}
