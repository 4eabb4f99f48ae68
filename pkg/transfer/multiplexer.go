package transfer

import (
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

const (
	DefaultQueueSize = 1024 // Default event queue capacity
	DefaultBatchSize = 500  // Default maximum events dispatched per drain cycle
)

// Options configures a Multiplexer.
type Options struct {
	QueueSize int                // Event queue capacity (default: 1024)
	BatchSize int                // Maximum events per drain cycle (default: 500)
	OnError   func(Event, error) // Called for delegate errors other than ErrCancelled
	Logger    *log.Logger        // Used by the default OnError
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.OnError == nil {
		logger := opts.Logger
		opts.OnError = func(e Event, err error) {
			logger.Warn("transfer listener failed", "event", e.Type, "resource", e.Resource.Name, "err", err)
		}
	}
	return opts
}

type exchange struct {
	event     Event
	processed chan struct{} // nil for fire-and-forget events
}

// Multiplexer serializes events from any number of concurrent producers
// onto one delegate listener. Events are queued on a bounded channel and
// dispatched in arrival order by a single consumer goroutine. Producers
// block while the queue is full. Succeeded and Failed events additionally
// block their producer until the delegate has handled them.
//
// The multiplexer tracks in-flight files in dispatch order. When a
// terminal event empties that set, a delegate implementing Drainer is
// notified right after that event and before its producer is released.
type Multiplexer struct {
	delegate Listener
	opts     Options
	queue    chan exchange
	done     chan struct{}

	mu     sync.RWMutex // guards closed against sends on a closed queue
	closed bool

	ongoingMu sync.Mutex // InFlight reads while the consumer writes
	ongoing   map[string]struct{}
}

// NewMultiplexer starts a multiplexer feeding delegate.
func NewMultiplexer(delegate Listener, opts Options) *Multiplexer {
	opts = opts.WithDefaults()
	m := &Multiplexer{
		delegate: delegate,
		opts:     opts,
		queue:    make(chan exchange, opts.QueueSize),
		done:     make(chan struct{}),
		ongoing:  make(map[string]struct{}),
	}
	go m.consume()
	return m
}

// Delegate returns the wrapped listener.
func (m *Multiplexer) Delegate() Listener { return m.delegate }

// Transfer enqueues e. It never returns an error; delegate failures are
// reported through Options.OnError.
func (m *Multiplexer) Transfer(e Event) error {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	m.put(e)
	return nil
}

func (m *Multiplexer) put(e Event) {
	x := exchange{event: e}
	if e.Type.Terminal() {
		x.processed = make(chan struct{})
	}

	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return
	}
	m.queue <- x
	m.mu.RUnlock()

	if x.processed != nil {
		<-x.processed
	}
}

// InFlight returns the number of files with an open transfer.
func (m *Multiplexer) InFlight() int {
	m.ongoingMu.Lock()
	defer m.ongoingMu.Unlock()
	return len(m.ongoing)
}

// Close stops accepting events, dispatches everything already queued and
// waits for the consumer to exit. Events submitted after Close are dropped.
func (m *Multiplexer) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		<-m.done
		return
	}
	m.closed = true
	close(m.queue)
	m.mu.Unlock()
	<-m.done
}

func (m *Multiplexer) consume() {
	defer close(m.done)
	batch := make([]exchange, 0, m.opts.BatchSize)
	for {
		batch = batch[:0]
		x, ok := <-m.queue
		if !ok {
			return
		}
		batch = append(batch, x)
	drain:
		for len(batch) < m.opts.BatchSize {
			select {
			case x, ok := <-m.queue:
				if !ok {
					break drain
				}
				batch = append(batch, x)
			default:
				break drain
			}
		}
		m.dispatch(batch)
	}
}

func (m *Multiplexer) dispatch(batch []exchange) {
	for _, x := range batch {
		if err := m.delegate.Transfer(x.event); err != nil && !errors.Is(err, ErrCancelled) {
			m.opts.OnError(x.event, err)
		}
		if m.track(x.event) {
			if d, ok := m.delegate.(Drainer); ok {
				d.TransfersDrained()
			}
		}
		if x.processed != nil {
			close(x.processed)
		}
	}
}

// track updates the in-flight set for a dispatched event and reports
// whether it ended the last open transfer.
func (m *Multiplexer) track(e Event) bool {
	m.ongoingMu.Lock()
	defer m.ongoingMu.Unlock()
	switch e.Type {
	case Initiated:
		m.ongoing[e.Resource.File] = struct{}{}
	case Succeeded, Failed:
		delete(m.ongoing, e.Resource.File)
		return len(m.ongoing) == 0
	}
	return false
}
