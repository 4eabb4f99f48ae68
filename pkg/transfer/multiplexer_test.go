package transfer

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu        sync.Mutex
	events    []Event
	drained   int
	drainedAt []int // len(events) at each drain
}

func (r *recorder) Transfer(e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) TransfersDrained() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drained++
	r.drainedAt = append(r.drainedAt, len(r.events))
}

func (r *recorder) snapshot() ([]Event, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...), r.drained
}

func event(t EventType, file string, n int64) Event {
	return Event{Type: t, Resource: Resource{File: file, Name: file}, Transferred: n}
}

func TestMultiplexerPreservesOrder(t *testing.T) {
	rec := &recorder{}
	m := NewMultiplexer(rec, Options{})

	m.Transfer(event(Initiated, "a", 0))
	m.Transfer(event(Started, "a", 0))
	for i := int64(1); i <= 100; i++ {
		m.Transfer(event(Progressed, "a", i))
	}
	m.Transfer(event(Succeeded, "a", 100))

	events, drained := rec.snapshot()
	if len(events) != 103 {
		t.Fatalf("delivered %d events, want 103", len(events))
	}
	for i := 2; i < 102; i++ {
		if events[i].Transferred != int64(i-1) {
			t.Fatalf("event %d Transferred = %d, want %d", i, events[i].Transferred, i-1)
		}
	}
	if events[102].Type != Succeeded {
		t.Errorf("last event = %v, want succeeded", events[102].Type)
	}
	if events[0].Time.IsZero() || events[102].Time.Before(events[0].Time) {
		t.Errorf("event times not stamped in order: %v .. %v", events[0].Time, events[102].Time)
	}
	if drained != 1 {
		t.Errorf("drained = %d, want 1", drained)
	}
	m.Close()
}

func TestMultiplexerConcurrentProducers(t *testing.T) {
	rec := &recorder{}
	m := NewMultiplexer(rec, Options{QueueSize: 8, BatchSize: 3})

	const producers, progress = 16, 50
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(file string) {
			defer wg.Done()
			m.Transfer(event(Initiated, file, 0))
			for i := int64(1); i <= progress; i++ {
				m.Transfer(event(Progressed, file, i))
			}
			m.Transfer(event(Succeeded, file, progress))
		}(fmt.Sprintf("file-%d", p))
	}
	wg.Wait()
	m.Close()

	events, _ := rec.snapshot()
	if len(events) != producers*(progress+2) {
		t.Fatalf("delivered %d events, want %d", len(events), producers*(progress+2))
	}

	last := map[string]int64{}
	done := map[string]bool{}
	for _, e := range events {
		f := e.Resource.File
		if done[f] {
			t.Fatalf("event for %s after its terminal event", f)
		}
		switch e.Type {
		case Progressed:
			if e.Transferred != last[f]+1 {
				t.Fatalf("%s progressed %d after %d", f, e.Transferred, last[f])
			}
			last[f] = e.Transferred
		case Succeeded:
			done[f] = true
		}
	}
	if len(done) != producers {
		t.Errorf("%d files finished, want %d", len(done), producers)
	}
	if m.InFlight() != 0 {
		t.Errorf("InFlight() = %d, want 0", m.InFlight())
	}
}

type blockingListener struct {
	block   EventType
	entered chan struct{}
	release chan struct{}
}

func (b *blockingListener) Transfer(e Event) error {
	if e.Type == b.block {
		b.entered <- struct{}{}
		<-b.release
	}
	return nil
}

func TestMultiplexerTerminalEventBlocksProducer(t *testing.T) {
	bl := &blockingListener{block: Succeeded, entered: make(chan struct{}, 1), release: make(chan struct{})}
	m := NewMultiplexer(bl, Options{})
	defer m.Close()

	m.Transfer(event(Initiated, "a", 0))
	returned := make(chan struct{})
	go func() {
		m.Transfer(event(Succeeded, "a", 10))
		close(returned)
	}()

	<-bl.entered
	select {
	case <-returned:
		t.Fatal("producer returned before delegate handled the terminal event")
	default:
	}

	close(bl.release)
	select {
	case <-returned:
	case <-time.After(5 * time.Second):
		t.Fatal("producer not released after delegate finished")
	}
}

func TestMultiplexerBackpressure(t *testing.T) {
	bl := &blockingListener{block: Started, entered: make(chan struct{}, 1), release: make(chan struct{})}
	m := NewMultiplexer(bl, Options{QueueSize: 1, BatchSize: 1})
	defer m.Close()

	m.Transfer(event(Started, "a", 0)) // held by the delegate
	<-bl.entered
	m.Transfer(event(Progressed, "a", 1)) // fills the queue

	sent := make(chan struct{})
	go func() {
		m.Transfer(event(Progressed, "a", 2))
		close(sent)
	}()

	select {
	case <-sent:
		t.Fatal("producer did not block on a full queue")
	case <-time.After(100 * time.Millisecond):
	}

	close(bl.release)
	select {
	case <-sent:
	case <-time.After(5 * time.Second):
		t.Fatal("producer still blocked after the consumer drained")
	}
}

func TestMultiplexerDrainedOnlyWhenLastFileEnds(t *testing.T) {
	rec := &recorder{}
	m := NewMultiplexer(rec, Options{})
	defer m.Close()

	m.Transfer(event(Initiated, "a", 0))
	m.Transfer(event(Initiated, "b", 0))

	m.Transfer(event(Succeeded, "a", 1))
	if _, drained := rec.snapshot(); drained != 0 {
		t.Fatalf("drained = %d after first of two files", drained)
	}

	m.Transfer(event(Failed, "b", 0))
	if _, drained := rec.snapshot(); drained != 1 {
		t.Fatalf("drained = %d after last file, want 1", drained)
	}
}

func TestMultiplexerConcurrentTerminalEventsDrainOnce(t *testing.T) {
	for round := 0; round < 50; round++ {
		rec := &recorder{}
		m := NewMultiplexer(rec, Options{QueueSize: 4, BatchSize: 2})

		const files = 8
		var initiated, done sync.WaitGroup
		start := make(chan struct{})
		for f := 0; f < files; f++ {
			initiated.Add(1)
			done.Add(1)
			go func(file string) {
				defer done.Done()
				m.Transfer(event(Initiated, file, 0))
				initiated.Done()
				<-start
				m.Transfer(event(Progressed, file, 1))
				if file == "f0" {
					m.Transfer(event(Failed, file, 1))
					return
				}
				m.Transfer(event(Succeeded, file, 1))
			}(fmt.Sprintf("f%d", f))
		}
		initiated.Wait()
		close(start)
		done.Wait()

		events, drained := rec.snapshot()
		rec.mu.Lock()
		at := append([]int(nil), rec.drainedAt...)
		rec.mu.Unlock()
		if drained != 1 {
			t.Fatalf("round %d: drained = %d, want 1", round, drained)
		}
		if at[0] != len(events) {
			t.Fatalf("round %d: drained after event %d of %d", round, at[0], len(events))
		}
		if last := events[len(events)-1]; !last.Type.Terminal() {
			t.Fatalf("round %d: last event before drain = %v, want a terminal event", round, last.Type)
		}
		m.Close()
	}
}

func TestMultiplexerDelegateErrors(t *testing.T) {
	var mu sync.Mutex
	var reported []error
	other := errors.New("boom")

	delegate := ListenerFunc(func(e Event) error {
		switch e.Type {
		case Progressed:
			return ErrCancelled
		case Corrupted:
			return other
		}
		return nil
	})
	m := NewMultiplexer(delegate, Options{OnError: func(_ Event, err error) {
		mu.Lock()
		reported = append(reported, err)
		mu.Unlock()
	}})

	if err := m.Transfer(event(Progressed, "a", 1)); err != nil {
		t.Errorf("Transfer() = %v, want nil", err)
	}
	if err := m.Transfer(event(Corrupted, "a", 1)); err != nil {
		t.Errorf("Transfer() = %v, want nil", err)
	}
	m.Close()

	mu.Lock()
	defer mu.Unlock()
	if len(reported) != 1 || !errors.Is(reported[0], other) {
		t.Errorf("reported = %v, want [boom]", reported)
	}
}

func TestMultiplexerCloseDropsLateEvents(t *testing.T) {
	rec := &recorder{}
	m := NewMultiplexer(rec, Options{})
	m.Transfer(event(Progressed, "a", 1))
	m.Close()
	m.Close()

	m.Transfer(event(Succeeded, "a", 1))
	events, _ := rec.snapshot()
	if len(events) != 1 {
		t.Errorf("delivered %d events, want 1", len(events))
	}
}

func TestOptionsWithDefaults(t *testing.T) {
	opts := Options{}.WithDefaults()
	if opts.QueueSize != DefaultQueueSize || opts.BatchSize != DefaultBatchSize {
		t.Errorf("WithDefaults() = %d/%d", opts.QueueSize, opts.BatchSize)
	}
	if opts.OnError == nil || opts.Logger == nil {
		t.Error("WithDefaults() left OnError or Logger nil")
	}
}
