// Package tree renders collected dependency graphs as indented text trees,
// in the manner of "mvn dependency:tree -Dverbose".
package tree

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	ltree "github.com/charmbracelet/lipgloss/tree"

	"github.com/matzehuels/stackresolve/pkg/artifact"
	"github.com/matzehuels/stackresolve/pkg/collect"
	errs "github.com/matzehuels/stackresolve/pkg/errors"
)

// Options configures tree rendering.
type Options struct {
	// Winners are the flattened nodes of a resolution. When set, losing
	// occurrences are annotated with the winning version and not expanded,
	// and winners show their effective scope.
	Winners []*collect.Node

	// Styles for node labels and annotations. Zero styles render plain text.
	Label lipgloss.Style
	Note  lipgloss.Style
	Error lipgloss.Style
}

// Render returns g as a text tree.
func Render(g *collect.Graph, opts Options) string {
	if g == nil || g.Len() == 0 {
		return ""
	}
	r := renderer{g: g, opts: opts}
	if opts.Winners != nil {
		r.byID = make(map[int]*collect.Node, len(opts.Winners))
		r.byKey = make(map[artifact.Key]*collect.Node, len(opts.Winners))
		for _, w := range opts.Winners {
			r.byID[w.ID] = w
			r.byKey[w.Key()] = w
		}
	}
	root := g.Root()
	t := ltree.Root(opts.Label.Render(root.Artifact.String())).Enumerator(ltree.DefaultEnumerator)
	r.children(t, root)
	return t.String()
}

type renderer struct {
	g     *collect.Graph
	opts  Options
	byID  map[int]*collect.Node
	byKey map[artifact.Key]*collect.Node
}

func (r *renderer) children(t *ltree.Tree, parent *collect.Node) {
	for _, c := range r.g.Children(parent.ID) {
		label, expand := r.label(c)
		kids := r.g.Children(c.ID)
		if !expand || len(kids) == 0 {
			t.Child(label)
			continue
		}
		sub := ltree.Root(label)
		r.children(sub, c)
		t.Child(sub)
	}
}

// label describes n and reports whether its children should be shown.
func (r *renderer) label(n *collect.Node) (string, bool) {
	scope := n.Scope
	var notes []string
	expand := true

	if r.byID != nil && !n.Cycle {
		if w, ok := r.byID[n.ID]; ok {
			if w.Scope != n.Scope.Normalize() {
				notes = append(notes, "scope updated from "+string(n.Scope))
			}
			scope = w.Scope
		} else if w, ok := r.byKey[n.Key()]; ok && w.Artifact.Version != n.Artifact.Version {
			notes = append(notes, "omitted for conflict with "+w.Artifact.Version)
			expand = false
		} else if ok {
			notes = append(notes, "omitted for duplicate")
			expand = false
		} else {
			notes = append(notes, "not in scope")
			expand = false
		}
	}
	if n.PremanagedVersion != "" {
		notes = append(notes, "version managed from "+n.PremanagedVersion)
	}
	if n.PremanagedScope != "" {
		notes = append(notes, "scope managed from "+string(n.PremanagedScope))
	}
	if n.Cycle {
		notes = append(notes, "omitted for cycle")
	}

	var b strings.Builder
	b.WriteString(r.opts.Label.Render(n.Artifact.String()))
	if scope != "" {
		b.WriteString(":" + string(scope))
	}
	if n.Optional() {
		b.WriteString(" (optional)")
	}
	if len(notes) > 0 {
		b.WriteString(" " + r.opts.Note.Render("("+strings.Join(notes, "; ")+")"))
	}
	if n.Err != nil {
		b.WriteString(" " + r.opts.Error.Render(errs.UserMessage(n.Err)))
	}
	return b.String(), expand
}
