package transfer

import (
	"errors"
	"fmt"
	"time"
)

// EventType is the kind of a transfer event.
type EventType int

// Transfer event types, in the order a successful transfer emits them.
const (
	Initiated EventType = iota
	Started
	Progressed
	Corrupted
	Succeeded
	Failed
)

var eventTypeNames = [...]string{"initiated", "started", "progressed", "corrupted", "succeeded", "failed"}

func (t EventType) String() string {
	if int(t) < len(eventTypeNames) {
		return eventTypeNames[t]
	}
	return fmt.Sprintf("EventType(%d)", int(t))
}

// Terminal reports whether the event ends a file's transfer.
func (t EventType) Terminal() bool {
	return t == Succeeded || t == Failed
}

// Resource describes the file being transferred.
type Resource struct {
	RepositoryID  string // Remote repository ID
	RepositoryURL string // Remote repository base URL
	Name          string // Path relative to the repository root
	File          string // Local destination; identifies the transfer
	ContentLength int64  // Expected size in bytes, -1 if unknown
}

// Event is one transfer notification.
type Event struct {
	Type        EventType
	Resource    Resource
	Transferred int64 // Bytes transferred so far
	DataLength  int   // Bytes in this progress chunk
	Err         error // Cause for Corrupted and Failed
	Time        time.Time
}

// ErrCancelled may be returned by a listener to signal that it wants the
// transfer cancelled. The multiplexer treats the signal as advisory and
// drops it.
var ErrCancelled = errors.New("transfer cancelled")

// Listener receives transfer events.
type Listener interface {
	Transfer(e Event) error
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(e Event) error

// Transfer calls f(e).
func (f ListenerFunc) Transfer(e Event) error { return f(e) }

// Drainer is implemented by listeners that want to know when the last
// in-flight transfer has ended.
type Drainer interface {
	TransfersDrained()
}
