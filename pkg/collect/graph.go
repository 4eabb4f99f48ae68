package collect

import (
	"github.com/matzehuels/stackresolve/pkg/artifact"
	"github.com/matzehuels/stackresolve/pkg/repository"
)

// NoParent is the Parent index of the root node.
const NoParent = -1

// Node is one vertex of a collected dependency graph. Nodes live in the
// Graph's arena and refer to each other by index.
type Node struct {
	ID       int   // Index in the graph arena
	Parent   int   // Parent index, NoParent for the root
	Children []int // Child indices in declaration order
	Depth    int   // Distance from the root

	Artifact   artifact.Artifact   // Resolved artifact (exact version)
	Dependency artifact.Dependency // Declaration after management; Version is the constraint
	Scope      artifact.Scope      // Scope derived from the parent's scope

	Repositories []repository.Remote // Repositories in effect for this node

	PremanagedVersion string         // Declared version before management, if changed
	PremanagedScope   artifact.Scope // Declared scope before management, if changed

	Cycle   bool  // Back-edge to an ancestor; children are not collected
	Err     error // Collection failure for this node; children are not collected
	Virtual bool  // Project root without a repository file
}

// Key returns the node artifact's identity.
func (n *Node) Key() artifact.Key { return n.Artifact.Key() }

// Optional reports whether the node was declared optional.
func (n *Node) Optional() bool { return n.Dependency.Optional }

// Managed reports whether dependency management changed the node.
func (n *Node) Managed() bool {
	return n.PremanagedVersion != "" || n.PremanagedScope != ""
}

// Graph is an index arena of nodes. Node 0 is the root. A graph is not
// modified after Collect returns.
type Graph struct {
	nodes []Node
}

func (g *Graph) add(n Node) *Node {
	n.ID = len(g.nodes)
	g.nodes = append(g.nodes, n)
	if n.Parent != NoParent {
		p := &g.nodes[n.Parent]
		p.Children = append(p.Children, n.ID)
	}
	return &g.nodes[n.ID]
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Root returns the root node.
func (g *Graph) Root() *Node { return &g.nodes[0] }

// Node returns the node with the given index.
func (g *Graph) Node(id int) *Node { return &g.nodes[id] }

// Children returns a node's children in declaration order.
func (g *Graph) Children(id int) []*Node {
	kids := g.nodes[id].Children
	out := make([]*Node, len(kids))
	for i, k := range kids {
		out[i] = &g.nodes[k]
	}
	return out
}

// Path returns the nodes from the root down to id.
func (g *Graph) Path(id int) []*Node {
	var rev []*Node
	for i := id; i != NoParent; i = g.nodes[i].Parent {
		rev = append(rev, &g.nodes[i])
	}
	out := make([]*Node, len(rev))
	for i, n := range rev {
		out[len(rev)-1-i] = n
	}
	return out
}

// HasAncestor reports whether key identifies id or one of its ancestors.
func (g *Graph) HasAncestor(id int, key artifact.Key) bool {
	for i := id; i != NoParent; i = g.nodes[i].Parent {
		if g.nodes[i].Key() == key {
			return true
		}
	}
	return false
}

// Walk visits nodes depth-first in declaration order. Returning false from
// fn skips the node's children.
func (g *Graph) Walk(fn func(n *Node) bool) {
	if len(g.nodes) == 0 {
		return
	}
	var visit func(id int)
	visit = func(id int) {
		n := &g.nodes[id]
		if !fn(n) {
			return
		}
		for _, c := range n.Children {
			visit(c)
		}
	}
	visit(0)
}

// Failed returns the nodes carrying a collection error.
func (g *Graph) Failed() []*Node {
	var out []*Node
	for i := range g.nodes {
		if g.nodes[i].Err != nil {
			out = append(out, &g.nodes[i])
		}
	}
	return out
}
