// Package dot renders collected dependency graphs as node-link diagrams.
//
// [ToDOT] produces Graphviz DOT source for a [collect.Graph]. The source
// can be saved for external tools or rendered in process:
//
//	src := dot.ToDOT(g, dot.Options{Detailed: true, Winners: res.Winners})
//	svg, err := dot.RenderSVG(ctx, src)
//
// Rendering uses [github.com/goccy/go-graphviz], which embeds Graphviz as
// WebAssembly, so no system installation is needed.
//
// [collect.Graph]: github.com/matzehuels/stackresolve/pkg/collect.Graph
package dot
