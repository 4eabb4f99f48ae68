// Package render groups the output formats for collected dependency graphs.
//
// # Text Trees
//
// The [tree] subpackage prints a graph the way "mvn dependency:tree
// -Dverbose" does: every collected occurrence is listed, and occurrences
// that lost a version conflict, duplicates and cycles are annotated instead
// of expanded.
//
//	winners, _ := resolve.Flatten(g, resolve.MainRuntime, resolve.FlattenOptions{})
//	fmt.Println(tree.Render(g, tree.Options{Winners: winners}))
//
// # Node-Link Diagrams
//
// The [dot] subpackage renders graphs as Graphviz diagrams. Nodes appear as
// boxes connected by arrows; failed nodes are filled red and conflict
// losers are faded.
//
//	src := dot.ToDOT(g, dot.Options{Winners: winners})
//	svg, err := dot.RenderSVG(ctx, src)
//	png, err := dot.RenderPNG(ctx, src)
//
// [tree]: github.com/matzehuels/stackresolve/pkg/render/tree
// [dot]: github.com/matzehuels/stackresolve/pkg/render/dot
package render
