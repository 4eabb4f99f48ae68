package transfer

import (
	"errors"
	"testing"
)

func TestFanoutDeliversToAll(t *testing.T) {
	var f Fanout
	a, b := &recorder{}, &recorder{}
	f.Register(a)
	id := f.Register(b)

	f.Transfer(event(Started, "x", 0))
	if !f.Unregister(id) {
		t.Fatal("Unregister() = false")
	}
	if f.Unregister(id) {
		t.Error("second Unregister() = true")
	}
	f.Transfer(event(Succeeded, "x", 1))
	f.TransfersDrained()

	ea, da := a.snapshot()
	eb, db := b.snapshot()
	if len(ea) != 2 || da != 1 {
		t.Errorf("a got %d events, %d drains", len(ea), da)
	}
	if len(eb) != 1 || db != 0 {
		t.Errorf("b got %d events, %d drains", len(eb), db)
	}
	if f.Len() != 1 {
		t.Errorf("Len() = %d", f.Len())
	}
}

func TestFanoutJoinsErrors(t *testing.T) {
	var f Fanout
	f.Register(ListenerFunc(func(Event) error { return ErrCancelled }))
	f.Register(ListenerFunc(func(Event) error { return nil }))

	err := f.Transfer(event(Progressed, "x", 1))
	if !errors.Is(err, ErrCancelled) {
		t.Errorf("Transfer() = %v, want ErrCancelled", err)
	}
}

func TestEventTypeString(t *testing.T) {
	if Succeeded.String() != "succeeded" || EventType(42).String() != "EventType(42)" {
		t.Error("unexpected EventType names")
	}
	if !Failed.Terminal() || Progressed.Terminal() {
		t.Error("unexpected Terminal() results")
	}
}
