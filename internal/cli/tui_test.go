package cli

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/stackresolve/pkg/transfer"
)

func event(typ transfer.EventType, name string, transferred int64) transferMsg {
	return transferMsg(transfer.Event{
		Type:        typ,
		Transferred: transferred,
		Resource: transfer.Resource{
			RepositoryID:  "central",
			Name:          name,
			File:          "/repo/" + name,
			ContentLength: 100,
		},
	})
}

func update(t *testing.T, m TransferModel, msgs ...tea.Msg) TransferModel {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(TransferModel)
	}
	return m
}

func TestTransferModel(t *testing.T) {
	m := update(t, NewTransferModel("Resolving"),
		event(transfer.Initiated, "g/a/1/a-1.jar", 0),
		event(transfer.Started, "g/a/1/a-1.jar", 0),
		event(transfer.Progressed, "g/a/1/a-1.jar", 50),
		event(transfer.Initiated, "g/b/1/b-1.jar", 0),
	)
	if m.Active() != 2 {
		t.Fatalf("Active() = %d, want 2", m.Active())
	}
	view := m.View()
	for _, want := range []string{"Resolving", "a-1.jar", "b-1.jar", "central", "0 downloaded"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}

	m = update(t, m,
		event(transfer.Progressed, "g/a/1/a-1.jar", 100),
		event(transfer.Succeeded, "g/a/1/a-1.jar", 2048),
		event(transfer.Corrupted, "g/b/1/b-1.jar", 0),
		event(transfer.Failed, "g/b/1/b-1.jar", 0),
		drainedMsg{},
	)
	if m.Active() != 0 || m.Succeeded != 1 || m.Failed != 1 || m.Corrupted != 1 || !m.Idle {
		t.Errorf("model = %+v", m)
	}
	view = m.View()
	for _, want := range []string{"1 downloaded", "2.0 KiB", "1 failed", "1 checksum mismatches"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestTransferModelQuit(t *testing.T) {
	m := NewTransferModel("Resolving")
	next, cmd := m.Update(resolvedMsg{err: errors.New("boom")})
	if cmd == nil || next.(TransferModel).Err == nil {
		t.Error("resolvedMsg should quit and keep the error")
	}

	next, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil || !next.(TransferModel).Cancelled {
		t.Error("ctrl+c should cancel")
	}
}

func TestProgressListener(t *testing.T) {
	var got []tea.Msg
	l := progressListener{send: func(msg tea.Msg) { got = append(got, msg) }}
	l.Transfer(transfer.Event{Type: transfer.Started})
	l.TransfersDrained()
	if len(got) != 2 {
		t.Fatalf("sent %d messages", len(got))
	}
	if _, ok := got[0].(transferMsg); !ok {
		t.Errorf("first message is %T", got[0])
	}
	if _, ok := got[1].(drainedMsg); !ok {
		t.Errorf("second message is %T", got[1])
	}
}

func TestFormatBytes(t *testing.T) {
	tests := map[int64]string{
		0:       "0 B",
		1023:    "1023 B",
		1024:    "1.0 KiB",
		1536:    "1.5 KiB",
		1 << 20: "1.0 MiB",
	}
	for n, want := range tests {
		if got := formatBytes(n); got != want {
			t.Errorf("formatBytes(%d) = %q, want %q", n, got, want)
		}
	}
}
