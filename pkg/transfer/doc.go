// Package transfer defines transfer-progress events and the [Multiplexer]
// that serializes them.
//
// Download workers run concurrently and each reports Initiated, Started,
// Progressed, Corrupted, Succeeded and Failed events. Listeners such as
// progress bars are not safe for concurrent use, so workers report to a
// Multiplexer, which feeds exactly one delegate from a single goroutine:
//
//	fan := &transfer.Fanout{}
//	fan.Register(transfer.LogListener{Logger: logger})
//	mux := transfer.NewMultiplexer(fan, transfer.Options{})
//	defer mux.Close()
//
// Events reach the delegate in queue order. A producer blocks while the
// queue is full, and the producer of a Succeeded or Failed event blocks
// until the delegate has handled it. When the last in-flight file
// finishes, a delegate implementing [Drainer] is told before that
// producer returns.
//
// A [Fanout] registered as the delegate lets any number of listeners
// observe every event.
package transfer
