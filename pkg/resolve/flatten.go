package resolve

import (
	"slices"

	"github.com/matzehuels/stackresolve/pkg/artifact"
	"github.com/matzehuels/stackresolve/pkg/collect"
	errs "github.com/matzehuels/stackresolve/pkg/errors"
)

// FlattenOptions configures Flatten.
type FlattenOptions struct {
	IncludeRoot bool // List the root first unless it is a project root
}

// Flatten resolves version conflicts in g and returns the winning nodes
// that belong to scope, in breadth-first order.
//
// The nearest occurrence of an artifact key wins; ties go to the earlier
// declaration. Losers and their subtrees are dropped. A transitive winner
// takes the widest scope of all competing occurrences, and is optional
// only if every occurrence is. The returned nodes are copies carrying the
// effective scope; g is not modified.
func Flatten(g *collect.Graph, scope PathScope, opts FlattenOptions) ([]*collect.Node, error) {
	nodes, _, err := flatten(g, scope, opts)
	return nodes, err
}

// flatten also returns the number of winners before scope filtering.
func flatten(g *collect.Graph, scope PathScope, opts FlattenOptions) ([]*collect.Node, int, error) {
	if _, ok := pathScopeIncludes[scope]; !ok {
		return nil, 0, errs.New(errs.ErrCodeInvalidInput, "unknown path scope %q", scope)
	}
	if g == nil || g.Len() == 0 {
		return nil, 0, nil
	}

	winners, occurrences := pickWinners(g)

	eff := make(map[int]artifact.Scope, len(winners))
	optional := make(map[int]bool, len(winners))
	root := g.Root()
	eff[root.ID] = root.Scope.Normalize()
	for _, id := range winners[1:] {
		n := g.Node(id)
		if n.Depth <= 1 {
			eff[id] = n.Scope.Normalize()
			optional[id] = n.Optional()
			continue
		}
		var scopes []artifact.Scope
		allOptional := true
		for _, o := range occurrences[n.Key()] {
			scopes = append(scopes, occurrenceScope(g, o, eff))
			allOptional = allOptional && o.Optional()
		}
		eff[id] = selectScope(scopes, occurrenceScope(g, n, eff))
		optional[id] = allOptional
	}

	var out []*collect.Node
	if opts.IncludeRoot && !root.Virtual {
		if root.Err != nil {
			return nil, len(winners), errs.Wrap(errs.ErrCodeDependencyResolution, root.Err, "resolve %s", root.Artifact)
		}
		out = append(out, copyNode(root, eff[root.ID], root.Optional()))
	}
	for _, id := range winners[1:] {
		n := g.Node(id)
		s := eff[id]
		if !scope.Includes(s) {
			continue
		}
		if optional[id] && n.Depth > 1 {
			continue
		}
		if n.Err != nil {
			return nil, len(winners), errs.Wrap(errs.ErrCodeDependencyResolution, n.Err, "resolve %s", n.Artifact)
		}
		out = append(out, copyNode(n, s, optional[id]))
	}
	return out, len(winners), nil
}

// pickWinners walks g breadth first through winning nodes only. It returns
// winner IDs in visiting order (root first) and, per key, every occurrence
// met on the way, including the winner.
func pickWinners(g *collect.Graph) ([]int, map[artifact.Key][]*collect.Node) {
	root := g.Root()
	winner := map[artifact.Key]int{root.Key(): root.ID}
	occurrences := make(map[artifact.Key][]*collect.Node)
	order := []int{root.ID}

	queue := []int{root.ID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, c := range g.Children(id) {
			key := c.Key()
			occurrences[key] = append(occurrences[key], c)
			if _, seen := winner[key]; seen {
				continue
			}
			winner[key] = c.ID
			order = append(order, c.ID)
			if c.Cycle || c.Err != nil || c.Artifact.Properties.CheckFlag(artifact.IncludesDependencies) {
				continue
			}
			queue = append(queue, c.ID)
		}
	}
	return order, occurrences
}

// occurrenceScope re-derives an occurrence's scope from its parent's
// effective scope when that is already known.
func occurrenceScope(g *collect.Graph, n *collect.Node, eff map[int]artifact.Scope) artifact.Scope {
	if n.Depth <= 1 {
		return n.Scope.Normalize()
	}
	if ps, ok := eff[n.Parent]; ok {
		return collect.DeriveScope(ps, n.Dependency.Scope)
	}
	return n.Scope.Normalize()
}

var scopeWidth = []artifact.Scope{artifact.ScopeCompile, artifact.ScopeRuntime, artifact.ScopeProvided, artifact.ScopeTest}

// selectScope picks the effective scope of a transitive winner from the
// scopes of all competing occurrences.
func selectScope(scopes []artifact.Scope, own artifact.Scope) artifact.Scope {
	distinct := make([]artifact.Scope, 0, len(scopes))
	for _, s := range scopes {
		if !slices.Contains(distinct, s) {
			distinct = append(distinct, s)
		}
	}
	if len(distinct) > 1 {
		distinct = slices.DeleteFunc(distinct, func(s artifact.Scope) bool { return s == artifact.ScopeSystem })
	}
	if len(distinct) == 1 {
		return distinct[0]
	}
	for _, s := range scopeWidth {
		if slices.Contains(distinct, s) {
			return s
		}
	}
	return own
}

func copyNode(n *collect.Node, scope artifact.Scope, optional bool) *collect.Node {
	cp := *n
	cp.Children = slices.Clone(n.Children)
	cp.Repositories = slices.Clone(n.Repositories)
	cp.Scope = scope
	cp.Dependency.Optional = optional
	return &cp
}
