package collect

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/stackresolve/pkg/artifact"
	errs "github.com/matzehuels/stackresolve/pkg/errors"
	"github.com/matzehuels/stackresolve/pkg/observability"
	"github.com/matzehuels/stackresolve/pkg/repository"
	"github.com/matzehuels/stackresolve/pkg/version"
)

const (
	DefaultMaxDepth    = 50    // Default maximum graph depth
	DefaultMaxNodes    = 50000 // Default maximum graph size
	DefaultConcurrency = 8     // Default parallel descriptor and version lookups
)

// Descriptor is what a module declares about itself.
type Descriptor struct {
	Dependencies []artifact.Dependency // Declared dependencies in order
	Managed      []artifact.Dependency // dependencyManagement entries
	Repositories []repository.Remote   // Additional repositories for its subtree
}

// DescriptorSource reads module descriptors. Implementations must be safe
// for concurrent use.
type DescriptorSource interface {
	ReadDescriptor(ctx context.Context, a artifact.Artifact, repos []repository.Remote) (*Descriptor, error)
}

// VersionResolver resolves symbolic versions against repository metadata.
// Implementations must be safe for concurrent use.
type VersionResolver interface {
	// ResolveVersion resolves LATEST, RELEASE and snapshot versions to the
	// concrete version to download.
	ResolveVersion(ctx context.Context, a artifact.Artifact, repos []repository.Remote) (string, error)
	// ResolveVersionRange lists the available versions of a, in ascending
	// order. a.Version holds the requested range.
	ResolveVersionRange(ctx context.Context, a artifact.Artifact, repos []repository.Remote) ([]version.Version, error)
}

// Options configures graph collection.
type Options struct {
	MaxDepth    int         // Maximum depth to expand (default: 50)
	MaxNodes    int         // Maximum nodes in the graph (default: 50000)
	Concurrency int         // Parallel lookups per graph level (default: 8)
	FailFast    bool        // Abort on the first node failure
	Logger      *log.Logger // Warnings for cycles and truncation
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.MaxNodes <= 0 {
		opts.MaxNodes = DefaultMaxNodes
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return opts
}

// Project is a root module given in memory rather than read from a
// repository, such as a pom.xml on disk.
type Project struct {
	Artifact     artifact.Artifact
	Dependencies []artifact.Dependency
	Managed      []artifact.Dependency
	Repositories []repository.Remote
}

// Request selects the root of a collection. Exactly one of Root,
// RootDependency and Project must be set.
type Request struct {
	Root           *artifact.Artifact
	RootDependency *artifact.Dependency
	Project        *Project

	Repositories []repository.Remote   // Repositories for the whole graph
	Managed      []artifact.Dependency // Management applied at the root, overriding the root's own
	Exclusions   []artifact.Exclusion  // Excluded everywhere below the root
	Options      *Options              // Per-request override of the collector's options
}

// Result is a collected graph plus the failures of individual nodes.
type Result struct {
	Graph     *Graph
	Errors    []*CollectionError
	Truncated bool // MaxDepth or MaxNodes stopped expansion
}

// Collector builds dependency graphs breadth first.
type Collector struct {
	descriptors DescriptorSource
	versions    VersionResolver
	types       *artifact.TypeRegistry
	opts        Options
}

// New creates a Collector. A nil types uses the built-in type registry.
func New(descriptors DescriptorSource, versions VersionResolver, types *artifact.TypeRegistry, opts Options) *Collector {
	if types == nil {
		types = artifact.NewTypeRegistry()
	}
	return &Collector{descriptors: descriptors, versions: versions, types: types, opts: opts.WithDefaults()}
}

// Types returns the collector's type registry.
func (c *Collector) Types() *artifact.TypeRegistry { return c.types }

// Collect builds the dependency graph for req. A failure of the root
// aborts with DEPENDENCY_COLLECTION; failures below the root are recorded
// on their nodes and in Result.Errors unless FailFast is set.
func (c *Collector) Collect(ctx context.Context, req Request) (*Result, error) {
	opts := c.opts
	if req.Options != nil {
		opts = req.Options.WithDefaults()
	}
	w := &walk{
		c:           c,
		ctx:         ctx,
		opts:        opts,
		req:         req,
		g:           &Graph{},
		descriptors: make(map[string]*descriptorResult),
		state:       make(map[int]*nodeState),
	}

	rootName := req.RootName()
	start := time.Now()
	observability.Resolution().OnCollectStart(ctx, rootName)

	res, err := w.run()

	nodes, failures := 0, 0
	if res != nil {
		nodes, failures = res.Graph.Len(), len(res.Errors)
	}
	observability.Resolution().OnCollectComplete(ctx, rootName, nodes, failures, time.Since(start), err)
	return res, err
}

// RootName describes the request root for logs and metrics.
func (r Request) RootName() string {
	switch {
	case r.Project != nil:
		return r.Project.Artifact.String()
	case r.RootDependency != nil:
		return r.RootDependency.Artifact.String()
	case r.Root != nil:
		return r.Root.String()
	}
	return ""
}

// nodeState is per-node bookkeeping that does not belong in the graph.
type nodeState struct {
	exclusions []artifact.Exclusion // Accumulated from this node up to the root
	inherited  *managementScope     // Management of strict ancestors, nearest first
	descriptor *Descriptor
}

type descriptorResult struct {
	d   *Descriptor
	err error
}

type walk struct {
	c    *Collector
	ctx  context.Context
	opts Options
	req  Request
	g    *Graph

	mu          sync.Mutex
	descriptors map[string]*descriptorResult
	state       map[int]*nodeState
	errors      []*CollectionError
	truncated   bool
	warnedDepth bool
}

func (w *walk) run() (*Result, error) {
	if err := w.addRoot(); err != nil {
		return nil, errs.Wrap(errs.ErrCodeDependencyCollection, err, "collect %s", w.req.RootName())
	}

	frontier := []int{0}
	for len(frontier) > 0 {
		if err := w.ctx.Err(); err != nil {
			return nil, errs.Wrap(errs.ErrCodeDependencyCollection, err, "collect %s", w.req.RootName())
		}

		w.readDescriptors(frontier)
		if root := w.g.Node(0); root.Err != nil {
			return nil, errs.Wrap(errs.ErrCodeDependencyCollection, root.Err, "collect %s", w.req.RootName())
		}

		var next []int
		for _, id := range frontier {
			next = append(next, w.expand(id)...)
		}
		w.resolveVersions(next)

		frontier = frontier[:0]
		for _, id := range next {
			n := w.g.Node(id)
			if n.Err != nil {
				w.fail(id, n.Err)
				continue
			}
			if n.Cycle {
				continue
			}
			if n.Depth >= w.opts.MaxDepth {
				if !w.warnedDepth {
					w.opts.Logger.Warn("maximum depth reached, not expanding further", "depth", n.Depth, "artifact", n.Artifact)
					w.warnedDepth = true
				}
				w.truncated = true
				continue
			}
			frontier = append(frontier, id)
		}
		if w.opts.FailFast && len(w.errors) > 0 {
			return nil, errs.Wrap(errs.ErrCodeDependencyCollection, w.errors[0], "collect %s", w.req.RootName())
		}
	}

	return &Result{Graph: w.g, Errors: w.errors, Truncated: w.truncated}, nil
}

func (w *walk) addRoot() error {
	req := w.req
	repos := repository.Merge(nil, req.Repositories...)
	types := w.c.types

	switch {
	case req.Project != nil:
		p := req.Project
		repos = repository.Merge(repos, p.Repositories...)
		w.g.add(Node{Parent: NoParent, Artifact: p.Artifact, Dependency: artifact.Dependency{Artifact: p.Artifact, Type: "pom"}, Repositories: repos, Virtual: true})
		w.state[0] = &nodeState{
			exclusions: req.Exclusions,
			descriptor: &Descriptor{Dependencies: p.Dependencies, Managed: p.Managed, Repositories: p.Repositories},
		}
		return nil

	case req.RootDependency != nil:
		d := types.Apply(*req.RootDependency)
		w.g.add(Node{Parent: NoParent, Artifact: d.Artifact, Dependency: d, Scope: d.Scope.Normalize(), Repositories: repos})
		w.state[0] = &nodeState{exclusions: slices.Concat(req.Exclusions, d.Exclusions)}

	case req.Root != nil:
		a := *req.Root
		if a.Extension == "" {
			a.Extension = artifact.DefaultExtension
		}
		d := types.Apply(artifact.Dependency{Artifact: a, Type: a.Extension})
		w.g.add(Node{Parent: NoParent, Artifact: d.Artifact, Dependency: d, Repositories: repos})
		w.state[0] = &nodeState{exclusions: req.Exclusions}

	default:
		return errs.New(errs.ErrCodeInvalidInput, "collect request has no root")
	}

	w.resolveVersions([]int{0})
	return w.g.Node(0).Err
}

// readDescriptors fetches descriptors for a graph level concurrently.
// Identical artifacts are read once per request.
func (w *walk) readDescriptors(ids []int) {
	type job struct {
		key   string
		a     artifact.Artifact
		repos []repository.Remote
	}
	var jobs []job
	queued := make(map[string]bool)
	for _, id := range ids {
		if w.state[id].descriptor != nil {
			continue
		}
		n := w.g.Node(id)
		a := pomOf(n.Artifact)
		key := a.String()
		if _, done := w.descriptors[key]; done || queued[key] {
			continue
		}
		queued[key] = true
		jobs = append(jobs, job{key: key, a: a, repos: n.Repositories})
	}

	var eg errgroup.Group
	eg.SetLimit(w.opts.Concurrency)
	for _, j := range jobs {
		eg.Go(func() error {
			d, err := w.c.descriptors.ReadDescriptor(w.ctx, j.a, j.repos)
			if err == nil && d == nil {
				d = &Descriptor{}
			}
			w.mu.Lock()
			w.descriptors[j.key] = &descriptorResult{d: d, err: err}
			w.mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()

	for _, id := range ids {
		st := w.state[id]
		if st.descriptor != nil {
			continue
		}
		n := w.g.Node(id)
		r := w.descriptors[pomOf(n.Artifact).String()]
		if r.err != nil {
			n.Err = errs.Wrap(errs.ErrCodeDescriptorRead, r.err, "read descriptor of %s", n.Artifact)
			if id != 0 {
				w.fail(id, n.Err)
			}
			st.descriptor = &Descriptor{}
			continue
		}
		st.descriptor = r.d
	}
}

func pomOf(a artifact.Artifact) artifact.Artifact {
	a.Extension = "pom"
	a.Classifier = ""
	a.Properties = artifact.Properties{}
	return a
}

// expand adds the children of id and returns their indices.
func (w *walk) expand(id int) []int {
	parent := w.g.Node(id)
	if parent.Err != nil {
		return nil
	}
	st := w.state[id]
	desc := st.descriptor
	types := w.c.types

	own := newManagement(desc.Managed, types)
	if id == 0 && len(w.req.Managed) > 0 {
		own = newManagement(w.req.Managed, types).over(own)
	}
	childRepos := repository.Merge(parent.Repositories, desc.Repositories...)
	childInherited := &managementScope{entries: own, parent: st.inherited}

	parentID, parentDepth, parentScope := parent.ID, parent.Depth, parent.Scope

	var added []int
	for _, declared := range desc.Dependencies {
		d := types.Apply(declared)
		node := Node{Parent: parentID, Depth: parentDepth + 1, Repositories: childRepos}

		// The scope and optional filter sees the dependency as its module
		// declares it. Management from further up the graph applies only
		// to dependencies that survive.
		d = manageOwn(d, own)
		if parentDepth >= 1 && (!d.Scope.Transitive() || d.Optional) {
			continue
		}
		d = manageInherited(d, &node, st.inherited)
		if excluded(d.Artifact, st.exclusions) {
			continue
		}
		if w.g.Len() >= w.opts.MaxNodes {
			if !w.truncated {
				w.opts.Logger.Warn("maximum graph size reached, dropping remaining dependencies", "nodes", w.g.Len())
			}
			w.truncated = true
			return added
		}

		node.Dependency = d
		node.Artifact = d.Artifact
		node.Scope = DeriveScope(parentScope, d.Scope)
		if d.Artifact.Version == "" {
			node.Err = errs.New(errs.ErrCodeVersionResolution, "no version declared or managed for %s", d.Key())
		}

		if w.g.HasAncestor(parentID, d.Key()) {
			node.Cycle = true
			w.opts.Logger.Warn("dependency cycle, truncating", "artifact", d.Key(), "path", w.pathString(parentID))
		}

		child := w.g.add(node).ID
		w.state[child] = &nodeState{
			exclusions: slices.Concat(st.exclusions, d.Exclusions),
			inherited:  childInherited,
		}
		added = append(added, child)
	}
	return added
}

// manageOwn fills a missing version or scope from the declaring module's
// own management.
func manageOwn(d artifact.Dependency, own management) artifact.Dependency {
	m, ok := own[d.Key()]
	if !ok {
		return d
	}
	if d.Artifact.Version == "" && m.Artifact.Version != "" {
		d.Artifact.Version = m.Artifact.Version
	}
	if d.Scope == "" && m.Scope != "" {
		d.Scope = m.Scope
	}
	d.Exclusions = slices.Concat(d.Exclusions, m.Exclusions)
	return d
}

// manageInherited applies management from the nearest managing ancestor,
// which overrides the declaration. Overridden values are recorded on node.
func manageInherited(d artifact.Dependency, node *Node, inherited *managementScope) artifact.Dependency {
	m, ok := inherited.lookup(d.Key())
	if !ok {
		return d
	}
	if m.Artifact.Version != "" && m.Artifact.Version != d.Artifact.Version {
		node.PremanagedVersion = orNone(d.Artifact.Version)
		d.Artifact.Version = m.Artifact.Version
	}
	if m.Scope != "" && m.Scope != d.Scope.Normalize() && d.Scope.Normalize() != artifact.ScopeSystem {
		node.PremanagedScope = d.Scope.Normalize()
		d.Scope = m.Scope
	}
	d.Exclusions = slices.Concat(d.Exclusions, m.Exclusions)
	return d
}

func orNone(v string) string {
	if v == "" {
		return "(none)"
	}
	return v
}

func excluded(a artifact.Artifact, exclusions []artifact.Exclusion) bool {
	for _, e := range exclusions {
		if e.Matches(a) {
			return true
		}
	}
	return false
}

// resolveVersions turns version constraints into concrete versions for a
// batch of new nodes.
func (w *walk) resolveVersions(ids []int) {
	results := make([]struct {
		v   string
		err error
	}, len(ids))

	var eg errgroup.Group
	eg.SetLimit(w.opts.Concurrency)
	for i, id := range ids {
		n := w.g.Node(id)
		if n.Err != nil || n.Cycle {
			results[i].v = n.Artifact.Version
			continue
		}
		a, repos := n.Artifact, n.Repositories
		eg.Go(func() error {
			results[i].v, results[i].err = w.resolveVersion(a, repos)
			return nil
		})
	}
	_ = eg.Wait()

	for i, id := range ids {
		n := w.g.Node(id)
		if n.Err != nil || n.Cycle {
			continue
		}
		if err := results[i].err; err != nil {
			n.Err = err
			continue
		}
		n.Artifact.Version = results[i].v
	}
}

func (w *walk) resolveVersion(a artifact.Artifact, repos []repository.Remote) (string, error) {
	v := a.Version
	switch {
	case version.IsRange(v):
		c, err := version.ParseConstraint(v)
		if err != nil {
			return "", err
		}
		if w.c.versions == nil {
			return "", errs.New(errs.ErrCodeVersionResolution, "cannot resolve range %s for %s: no version resolver", v, a.Key())
		}
		candidates, err := w.c.versions.ResolveVersionRange(w.ctx, a, repos)
		if err != nil {
			return "", errs.Wrap(errs.ErrCodeVersionResolution, err, "resolve range %s for %s", v, a.Key())
		}
		best, ok := version.Select(candidates, c)
		if !ok {
			return "", errs.New(errs.ErrCodeVersionResolution, "no version of %s satisfies %s", a.Key(), v)
		}
		return best.String(), nil

	case version.IsMetaVersion(v) || version.IsSnapshot(v):
		if w.c.versions == nil {
			return v, nil
		}
		resolved, err := w.c.versions.ResolveVersion(w.ctx, a, repos)
		if err != nil {
			return "", errs.Wrap(errs.ErrCodeVersionResolution, err, "resolve version %s for %s", v, a.Key())
		}
		return resolved, nil
	}
	return v, nil
}

func (w *walk) fail(id int, cause error) {
	for _, e := range w.errors {
		if e.NodeID == id {
			return
		}
	}
	n := w.g.Node(id)
	var path []string
	for _, p := range w.g.Path(id) {
		path = append(path, p.Artifact.String())
	}
	w.errors = append(w.errors, &CollectionError{NodeID: id, Artifact: n.Artifact, Path: path, Cause: cause})
	w.opts.Logger.Debug("dependency collection failed", "artifact", n.Artifact, "err", cause)
}

func (w *walk) pathString(id int) string {
	var parts []string
	for _, n := range w.g.Path(id) {
		parts = append(parts, n.Key().String())
	}
	return strings.Join(parts, " -> ")
}

// String implements fmt.Stringer for debugging.
func (r *Result) String() string {
	return fmt.Sprintf("graph with %d nodes, %d failures", r.Graph.Len(), len(r.Errors))
}
