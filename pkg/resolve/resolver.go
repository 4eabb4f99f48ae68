package resolve

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackresolve/pkg/artifact"
	"github.com/matzehuels/stackresolve/pkg/collect"
	errs "github.com/matzehuels/stackresolve/pkg/errors"
	"github.com/matzehuels/stackresolve/pkg/observability"
	"github.com/matzehuels/stackresolve/pkg/repository"
)

// FetchRequest asks for one artifact file.
type FetchRequest struct {
	Artifact     artifact.Artifact
	Repositories []repository.Remote
}

// Fetcher materializes artifacts in the local repository and returns their
// absolute file paths in request order.
type Fetcher interface {
	Fetch(ctx context.Context, reqs []FetchRequest) ([]string, error)
}

// Request describes one resolution.
type Request struct {
	Collect     collect.Request
	Scope       PathScope
	Types       []PathType // Paths to dispatch into; empty means classpath
	IncludeRoot bool
}

// File is a resolved artifact file.
type File struct {
	Node *collect.Node // Flattened winner, with its effective scope
	Path string        // Absolute path in the local repository
}

// Result is a completed resolution.
type Result struct {
	Graph   *collect.Graph
	Errors  []*collect.CollectionError // Failures outside the resolved scope
	Winners []*collect.Node
	Files   []File
	Paths   []string              // All files in flattened order
	ByType  map[PathType][]string // Files per requested path type
}

// Resolver collects, flattens and fetches.
type Resolver struct {
	collector *collect.Collector
	fetcher   Fetcher
	logger    *log.Logger
}

// NewResolver creates a Resolver. A nil logger uses log.Default().
func NewResolver(collector *collect.Collector, fetcher Fetcher, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.Default()
	}
	return &Resolver{collector: collector, fetcher: fetcher, logger: logger}
}

// Resolve runs a full resolution: collect the graph, flatten it for
// req.Scope, fetch every winner, and dispatch the files into paths.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*Result, error) {
	if req.Scope == "" {
		req.Scope = MainRuntime
	}
	types := req.Types
	if len(types) == 0 {
		types = []PathType{ClassPath}
	}
	for _, t := range types {
		if _, ok := pathTypeFlags[t]; !ok {
			return nil, errs.New(errs.ErrCodeInvalidInput, "unknown path type %q", t)
		}
	}

	root := req.Collect.RootName()
	start := time.Now()
	observability.Resolution().OnResolveStart(ctx, root, string(req.Scope))

	res, err := r.resolve(ctx, req, types)

	files := 0
	if res != nil {
		files = len(res.Paths)
	}
	observability.Resolution().OnResolveComplete(ctx, root, string(req.Scope), files, time.Since(start), err)
	return res, err
}

func (r *Resolver) resolve(ctx context.Context, req Request, types []PathType) (*Result, error) {
	cres, err := r.collector.Collect(ctx, req.Collect)
	if err != nil {
		return nil, err
	}

	winners, total, err := flatten(cres.Graph, req.Scope, FlattenOptions{IncludeRoot: req.IncludeRoot})
	observability.Resolution().OnFlattenComplete(ctx, string(req.Scope), total, len(winners))
	if err != nil {
		return nil, err
	}
	r.logger.Debug("flattened graph", "scope", req.Scope, "nodes", cres.Graph.Len(), "winners", total, "kept", len(winners))

	reqs := make([]FetchRequest, len(winners))
	for i, n := range winners {
		reqs[i] = FetchRequest{Artifact: n.Artifact, Repositories: n.Repositories}
	}
	paths, err := r.fetcher.Fetch(ctx, reqs)
	if err != nil {
		if !errs.Is(err, errs.ErrCodeArtifactTransfer) {
			err = errs.Wrap(errs.ErrCodeArtifactTransfer, err, "fetch artifacts")
		}
		return nil, errs.Wrap(errs.ErrCodeDependencyResolution, err, "resolve %s", req.Collect.RootName())
	}
	if len(paths) != len(winners) {
		return nil, errs.New(errs.ErrCodeInternal, "fetcher returned %d paths for %d artifacts", len(paths), len(winners))
	}

	out := &Result{
		Graph:   cres.Graph,
		Errors:  cres.Errors,
		Winners: winners,
		Paths:   paths,
		Files:   make([]File, len(winners)),
	}
	for i, n := range winners {
		out.Files[i] = File{Node: n, Path: paths[i]}
	}
	out.ByType = Dispatch(out.Files, types)
	return out, nil
}

// Dispatch sorts files into the requested path types by their artifact
// properties. A file lands in every requested path its flags admit; files
// admitted by none are left out.
func Dispatch(files []File, types []PathType) map[PathType][]string {
	out := make(map[PathType][]string, len(types))
	for _, t := range types {
		out[t] = []string{}
	}
	for _, f := range files {
		props := f.Node.Artifact.Properties
		for _, t := range types {
			if props.CheckFlag(t.Flag()) {
				out[t] = append(out[t], f.Path)
			}
		}
	}
	return out
}
