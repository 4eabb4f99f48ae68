// Package cli implements the stackresolve command-line interface.
//
// Commands load the layered configuration from pkg/config, apply the global
// flags on top and open a session over the configured repositories. The CLI
// is built using cobra and logs through charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - resolve: Collect, mediate and download dependencies, print paths
//   - tree: Print the dependency graph as text, DOT, SVG or PNG
//   - versions: List versions of an artifact matching a range
//   - search: Query Maven Central
//   - serve: Run the HTTP resolution service
//   - cache, config: Manage the metadata cache and configuration files
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// shows per-file transfer events. Loggers travel in the command context.
package cli

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackresolve/pkg/collect"
)

// newLogger creates a logger writing to w at the given level with
// "HH:MM:SS.ms" timestamps.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start of a command step and logs its completion.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// elapsed is the time since the step started, rounded to milliseconds.
func (p *progress) elapsed() time.Duration {
	return time.Since(p.start).Round(time.Millisecond)
}

// done logs msg with the elapsed time and any extra key/value pairs, e.g.
// "Resolved g:app:1 nodes=12 elapsed=1.234s".
func (p *progress) done(msg string, keyvals ...any) {
	p.logger.Info(msg, append(keyvals, "elapsed", p.elapsed())...)
}

// logCollection warns about every subtree that could not be collected and
// about a graph cut short by depth or node limits.
func logCollection(l *log.Logger, res *collect.Result) {
	for _, e := range res.Errors {
		l.Warn("dependency not collected",
			"artifact", e.Artifact,
			"via", strings.Join(e.Path, " -> "),
			"err", e.Cause)
	}
	if res.Truncated {
		l.Warn("graph truncated by collection limits", "nodes", res.Graph.Len())
	}
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx, or log.Default() if
// none is attached.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
