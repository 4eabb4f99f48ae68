package dot

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/stackresolve/pkg/collect"
	errs "github.com/matzehuels/stackresolve/pkg/errors"
)

// Options configures DOT generation.
type Options struct {
	// Detailed adds scope, optionality and management details to labels.
	Detailed bool

	// Winners are the flattened nodes of a resolution. When set, nodes
	// that lost a version conflict are drawn faded.
	Winners []*collect.Node
}

// ToDOT converts a collected graph to Graphviz DOT source.
//
// Failed nodes are filled red, cycle back-edges are dashed and a project
// root is dotted.
func ToDOT(g *collect.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")
	if g == nil || g.Len() == 0 {
		buf.WriteString("}\n")
		return buf.String()
	}

	var winners map[int]bool
	if opts.Winners != nil {
		winners = make(map[int]bool, len(opts.Winners)+1)
		winners[g.Root().ID] = true
		for _, n := range opts.Winners {
			winners[n.ID] = true
		}
	}

	var edges []string
	g.Walk(func(n *collect.Node) bool {
		attrs := fmtAttrs(n, fmtLabel(n, opts.Detailed), winners)
		fmt.Fprintf(&buf, "  %s [%s];\n", nodeID(n), strings.Join(attrs, ", "))
		for _, c := range g.Children(n.ID) {
			edge := fmt.Sprintf("  %s -> %s", nodeID(n), nodeID(c))
			if c.Cycle {
				edge += " [style=dashed]"
			}
			edges = append(edges, edge+";\n")
		}
		return true
	})

	buf.WriteString("\n")
	for _, e := range edges {
		buf.WriteString(e)
	}
	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(n *collect.Node) string { return "n" + strconv.Itoa(n.ID) }

func fmtLabel(n *collect.Node, detailed bool) string {
	a := n.Artifact
	label := a.GroupID + ":" + a.ArtifactID + ":" + a.Version
	if !detailed {
		return label
	}

	var parts []string
	if n.Scope != "" {
		parts = append(parts, "scope: "+string(n.Scope))
	}
	if n.Optional() {
		parts = append(parts, "optional")
	}
	if n.PremanagedVersion != "" {
		parts = append(parts, "managed from "+n.PremanagedVersion)
	}
	if n.PremanagedScope != "" {
		parts = append(parts, "scope managed from "+string(n.PremanagedScope))
	}
	if n.Cycle {
		parts = append(parts, "cycle")
	}
	if n.Err != nil {
		parts = append(parts, "error: "+errs.UserMessage(n.Err))
	}
	if len(parts) == 0 {
		return label
	}
	return label + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(n *collect.Node, label string, winners map[int]bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch {
	case n.Err != nil:
		attrs = append(attrs, "fillcolor=\"#ffd6d6\"", "color=\"#c0392b\"")
	case n.Virtual:
		attrs = append(attrs, "style=\"rounded,filled,dotted\"")
	case n.Cycle:
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
	case winners != nil && !winners[n.ID]:
		attrs = append(attrs, "fontcolor=grey50", "color=grey70")
	}
	return attrs
}

// RenderSVG renders DOT source to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	svg, err := render(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(svg), nil
}

// RenderPNG renders DOT source to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.PNG)
}

func render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized svg element with one
// that scales to its container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
