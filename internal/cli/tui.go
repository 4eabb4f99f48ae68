package cli

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/stackresolve/pkg/resolve"
	"github.com/matzehuels/stackresolve/pkg/session"
	"github.com/matzehuels/stackresolve/pkg/transfer"
)

// Progress styles
var (
	progressBarStyle  = lipgloss.NewStyle().Foreground(colorCyan)
	progressRestStyle = lipgloss.NewStyle().Foreground(colorDim)
	progressNameStyle = lipgloss.NewStyle().Foreground(colorWhite)
)

const (
	progressBarWidth = 24
	progressMaxRows  = 8
)

// =============================================================================
// Messages
// =============================================================================

type transferMsg transfer.Event

type drainedMsg struct{}

type resolvedMsg struct{ err error }

// progressListener forwards transfer events to a bubbletea program.
type progressListener struct {
	send func(tea.Msg)
}

func (l progressListener) Transfer(e transfer.Event) error {
	l.send(transferMsg(e))
	return nil
}

func (l progressListener) TransfersDrained() {
	l.send(drainedMsg{})
}

// =============================================================================
// TransferModel - Live download progress
// =============================================================================

type activeTransfer struct {
	name  string
	repo  string
	total int64
	done  int64
}

// TransferModel is the bubbletea model showing in-flight downloads.
type TransferModel struct {
	Title     string
	Succeeded int
	Failed    int
	Corrupted int
	Bytes     int64
	Idle      bool
	Cancelled bool
	Err       error

	active map[string]*activeTransfer
	order  []string
}

// NewTransferModel creates an empty progress model.
func NewTransferModel(title string) TransferModel {
	return TransferModel{Title: title, active: make(map[string]*activeTransfer)}
}

func (m TransferModel) Init() tea.Cmd {
	return nil
}

func (m TransferModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.Cancelled = true
			return m, tea.Quit
		}
	case transferMsg:
		m.Idle = false
		m.apply(transfer.Event(msg))
	case drainedMsg:
		m.Idle = true
	case resolvedMsg:
		m.Err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m *TransferModel) apply(e transfer.Event) {
	key := e.Resource.File
	t, ok := m.active[key]
	if !ok && !e.Type.Terminal() {
		t = &activeTransfer{name: path.Base(e.Resource.Name), repo: e.Resource.RepositoryID, total: -1}
		m.active[key] = t
		m.order = append(m.order, key)
	}
	switch e.Type {
	case transfer.Started:
		t.total = e.Resource.ContentLength
	case transfer.Progressed:
		t.done = e.Transferred
	case transfer.Corrupted:
		m.Corrupted++
	case transfer.Succeeded:
		m.Succeeded++
		m.Bytes += e.Transferred
		m.remove(key)
	case transfer.Failed:
		m.Failed++
		m.remove(key)
	}
}

func (m *TransferModel) remove(key string) {
	if _, ok := m.active[key]; !ok {
		return
	}
	delete(m.active, key)
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// Active returns the number of transfers in flight.
func (m TransferModel) Active() int { return len(m.order) }

func (m TransferModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("\n")

	for i, key := range m.order {
		if i == progressMaxRows {
			b.WriteString(listDimStyle.Render(fmt.Sprintf("  … %d more", len(m.order)-progressMaxRows)))
			b.WriteString("\n")
			break
		}
		t := m.active[key]
		b.WriteString("  " + renderBar(t.done, t.total) + " " + progressNameStyle.Render(t.name))
		b.WriteString(" " + listDimStyle.Render(t.repo))
		b.WriteString("\n")
	}

	parts := []string{fmt.Sprintf("%d downloaded", m.Succeeded), formatBytes(m.Bytes)}
	if m.Failed > 0 {
		parts = append(parts, StyleWarning.Render(fmt.Sprintf("%d failed", m.Failed)))
	}
	if m.Corrupted > 0 {
		parts = append(parts, StyleWarning.Render(fmt.Sprintf("%d checksum mismatches", m.Corrupted)))
	}
	b.WriteString("  " + strings.Join(parts, StyleDim.Render(" · ")))
	b.WriteString("\n")
	return b.String()
}

var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

func renderBar(done, total int64) string {
	if total <= 0 {
		return progressRestStyle.Render(strings.Repeat("·", progressBarWidth))
	}
	filled := int(min(done, total) * progressBarWidth / total)
	return progressBarStyle.Render(strings.Repeat("█", filled)) +
		progressRestStyle.Render(strings.Repeat("░", progressBarWidth-filled))
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// resolveWithProgress resolves t while rendering transfer progress on
// stderr. Quitting the view cancels the resolution.
func resolveWithProgress(ctx context.Context, sess *session.Session, t session.Target, scope resolve.PathScope, types []resolve.PathType) (*resolve.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewTransferModel("Resolving"), tea.WithOutput(os.Stderr))
	reg := sess.RegisterTransferListener(progressListener{send: p.Send})
	defer sess.UnregisterTransferListener(reg)

	var (
		res  *resolve.Result
		rerr error
		done = make(chan struct{})
	)
	go func() {
		defer close(done)
		res, rerr = sess.Resolve(ctx, t, scope, types...)
		p.Send(resolvedMsg{err: rerr})
	}()

	final, err := p.Run()
	if err != nil {
		cancel()
		<-done
		return nil, err
	}
	if m, ok := final.(TransferModel); ok && m.Cancelled {
		cancel()
		<-done
		return nil, context.Canceled
	}
	<-done
	return res, rerr
}
