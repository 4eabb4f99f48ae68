package session

import (
	"sync"
	"time"
)

// EventType identifies a build event.
type EventType int

const (
	CollectStarted EventType = iota
	CollectSucceeded
	CollectFailed
	ResolveStarted
	ResolveSucceeded
	ResolveFailed
)

var eventNames = [...]string{
	CollectStarted:   "collect-started",
	CollectSucceeded: "collect-succeeded",
	CollectFailed:    "collect-failed",
	ResolveStarted:   "resolve-started",
	ResolveSucceeded: "resolve-succeeded",
	ResolveFailed:    "resolve-failed",
}

func (t EventType) String() string {
	if int(t) < len(eventNames) {
		return eventNames[t]
	}
	return "unknown"
}

// Event reports the progress of a collection or resolution.
type Event struct {
	Type     EventType
	Root     string        // Coordinate of the request root
	Scope    string        // Path scope, resolution events only
	Nodes    int           // Graph size, set on success
	Files    int           // Resolved files, set on ResolveSucceeded
	Duration time.Duration // Set on terminal events
	Err      error         // Set on failure events
	Time     time.Time
}

// Listener receives build events. Events are delivered synchronously on
// the goroutine running the request, so listeners must not block.
type Listener interface {
	Notify(e Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(e Event)

// Notify calls f(e).
func (f ListenerFunc) Notify(e Event) { f(e) }

// Registration identifies a listener added with RegisterListener.
type Registration uint64

type listeners struct {
	mu   sync.RWMutex
	next Registration
	byID map[Registration]Listener
	ids  []Registration // registration order
}

func (l *listeners) register(fn Listener) Registration {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.byID == nil {
		l.byID = make(map[Registration]Listener)
	}
	l.next++
	l.byID[l.next] = fn
	l.ids = append(l.ids, l.next)
	return l.next
}

func (l *listeners) unregister(id Registration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.byID[id]; !ok {
		return false
	}
	delete(l.byID, id)
	for i, x := range l.ids {
		if x == id {
			l.ids = append(l.ids[:i:i], l.ids[i+1:]...)
			break
		}
	}
	return true
}

func (l *listeners) notify(e Event) {
	l.mu.RLock()
	targets := make([]Listener, 0, len(l.ids))
	for _, id := range l.ids {
		targets = append(targets, l.byID[id])
	}
	l.mu.RUnlock()

	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	for _, t := range targets {
		t.Notify(e)
	}
}
