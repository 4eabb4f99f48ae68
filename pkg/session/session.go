// Package session ties the resolution components together behind one API.
//
// A [Session] owns a local repository, an ordered list of remote
// repositories and the collaborators that act on them: a downloader, a
// descriptor source, a version resolver, a graph collector and a resolver.
// Every collaborator is injected through [Options] or built by an
// [AdapterFactory]; nothing is looked up globally.
//
// # Listeners
//
// Build listeners receive collection and resolution events. Transfer
// listeners receive the downloader's transfer events through a
// [transfer.Multiplexer], so they are called from a single goroutine in
// arrival order no matter how many downloads run in parallel.
//
// # Derived sessions
//
// [Session.WithLocalRepository] and [Session.WithRemoteRepositories]
// return new sessions that share listeners, cache and transports with
// their origin. Close any one of them to stop the shared transfer
// pipeline once all work is done.
//
// # Usage
//
//	s, err := session.New(repository.NewLocal(dir), []repository.Remote{repository.Central()}, session.Options{})
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	paths, err := s.ResolveDependencies(ctx, session.Target{Artifact: &a}, resolve.MainRuntime)
package session

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackresolve/pkg/artifact"
	"github.com/matzehuels/stackresolve/pkg/cache"
	"github.com/matzehuels/stackresolve/pkg/collect"
	"github.com/matzehuels/stackresolve/pkg/download"
	errs "github.com/matzehuels/stackresolve/pkg/errors"
	"github.com/matzehuels/stackresolve/pkg/integrations/maven"
	"github.com/matzehuels/stackresolve/pkg/repository"
	"github.com/matzehuels/stackresolve/pkg/resolve"
	"github.com/matzehuels/stackresolve/pkg/transfer"
	"github.com/matzehuels/stackresolve/pkg/version"
)

// ProjectReader loads a project model from disk.
type ProjectReader interface {
	ReadProject(ctx context.Context, path string, repos []repository.Remote) (*collect.Project, error)
}

// Adapters are the repository-format specific collaborators of a session.
type Adapters struct {
	Descriptors collect.DescriptorSource
	Versions    collect.VersionResolver
	Projects    ProjectReader // Optional
}

// AdapterFactory builds the adapters for a downloader. It is called again
// for every derived session.
type AdapterFactory func(d *download.Downloader, c cache.Cache, logger *log.Logger) Adapters

// MavenAdapters reads pom.xml descriptors and maven-metadata.xml files.
func MavenAdapters(d *download.Downloader, c cache.Cache, logger *log.Logger) Adapters {
	descriptors := maven.NewDescriptorReader(d, c, nil, logger)
	return Adapters{
		Descriptors: descriptors,
		Versions:    maven.NewMetadataResolver(d, c, nil, logger),
		Projects:    descriptors,
	}
}

// Options configures a Session.
type Options struct {
	Types      *artifact.TypeRegistry // Default: built-in types
	Transports download.Transports    // Transports by URL scheme; file:// is built in
	Download   download.Options       // Listener is replaced by the session
	Collect    collect.Options
	Transfer   transfer.Options // Multiplexer feeding transfer listeners
	Cache      cache.Cache      // Descriptor and metadata cache (default: none)
	Adapters   AdapterFactory   // Default: MavenAdapters
	Logger     *log.Logger
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.Types == nil {
		opts.Types = artifact.NewTypeRegistry()
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	if opts.Adapters == nil {
		opts.Adapters = MavenAdapters
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Download.Logger == nil {
		opts.Download.Logger = opts.Logger
	}
	if opts.Collect.Logger == nil {
		opts.Collect.Logger = opts.Logger
	}
	if opts.Transfer.Logger == nil {
		opts.Transfer.Logger = opts.Logger
	}
	return opts
}

// shared is the state common to a session and the sessions derived from it.
type shared struct {
	opts      Options
	build     listeners
	transfers *transfer.Fanout
	mux       *transfer.Multiplexer
	closeOnce sync.Once
}

// Session is the entry point for collecting and resolving dependencies.
// It is safe for concurrent use.
type Session struct {
	*shared
	local      repository.Local
	remotes    []repository.Remote
	downloader *download.Downloader
	adapters   Adapters
	collector  *collect.Collector
	resolver   *resolve.Resolver
}

// New creates a session over local and remotes. Remotes are consulted in
// order; their IDs must be unique.
func New(local repository.Local, remotes []repository.Remote, opts Options) (*Session, error) {
	opts = opts.WithDefaults()
	if local.Basedir == "" {
		return nil, errs.New(errs.ErrCodeInvalidInput, "local repository has no base directory")
	}
	if err := validateRemotes(remotes); err != nil {
		return nil, err
	}

	fan := &transfer.Fanout{}
	sh := &shared{
		opts:      opts,
		transfers: fan,
		mux:       transfer.NewMultiplexer(fan, opts.Transfer),
	}
	return sh.session(local, remotes), nil
}

func validateRemotes(remotes []repository.Remote) error {
	seen := make(map[string]bool, len(remotes))
	for _, r := range remotes {
		if err := r.Validate(); err != nil {
			return err
		}
		if seen[r.ID] {
			return errs.New(errs.ErrCodeInvalidInput, "duplicate repository id %q", r.ID)
		}
		seen[r.ID] = true
	}
	return nil
}

func (sh *shared) session(local repository.Local, remotes []repository.Remote) *Session {
	dopts := sh.opts.Download
	dopts.Listener = sh.mux
	d := download.New(local, sh.opts.Transports, dopts)
	ad := sh.opts.Adapters(d, sh.opts.Cache, sh.opts.Logger)
	c := collect.New(ad.Descriptors, ad.Versions, sh.opts.Types, sh.opts.Collect)
	return &Session{
		shared:     sh,
		local:      local,
		remotes:    slices.Clone(remotes),
		downloader: d,
		adapters:   ad,
		collector:  c,
		resolver:   resolve.NewResolver(c, d, sh.opts.Logger),
	}
}

// Close flushes pending transfer events and stops the transfer pipeline
// shared with derived sessions. The cache is owned by the caller and left
// open.
func (s *Session) Close() error {
	s.closeOnce.Do(s.mux.Close)
	return nil
}

// LocalRepository returns the session's local repository.
func (s *Session) LocalRepository() repository.Local { return s.local }

// RemoteRepositories returns a copy of the session's remote repositories.
func (s *Session) RemoteRepositories() []repository.Remote { return slices.Clone(s.remotes) }

// Downloader returns the session's downloader.
func (s *Session) Downloader() *download.Downloader { return s.downloader }

// Types returns the artifact type registry.
func (s *Session) Types() *artifact.TypeRegistry { return s.opts.Types }

// WithLocalRepository returns a session using local instead of the
// current local repository. The receiver is unchanged.
func (s *Session) WithLocalRepository(local repository.Local) (*Session, error) {
	if local.Basedir == "" {
		return nil, errs.New(errs.ErrCodeInvalidInput, "local repository has no base directory")
	}
	return s.session(local, s.remotes), nil
}

// WithRemoteRepositories returns a session using remotes instead of the
// current remote repositories. The receiver is unchanged.
func (s *Session) WithRemoteRepositories(remotes []repository.Remote) (*Session, error) {
	if err := validateRemotes(remotes); err != nil {
		return nil, err
	}
	return s.session(s.local, remotes), nil
}

// RegisterListener adds a build listener.
func (s *Session) RegisterListener(l Listener) Registration { return s.build.register(l) }

// UnregisterListener removes a build listener. It reports whether id was
// registered.
func (s *Session) UnregisterListener(id Registration) bool { return s.build.unregister(id) }

// RegisterTransferListener adds a transfer listener.
func (s *Session) RegisterTransferListener(l transfer.Listener) transfer.Registration {
	return s.transfers.Register(l)
}

// UnregisterTransferListener removes a transfer listener. It reports
// whether id was registered.
func (s *Session) UnregisterTransferListener(id transfer.Registration) bool {
	return s.transfers.Unregister(id)
}

// CollectArtifact collects the dependency graph rooted at a.
func (s *Session) CollectArtifact(ctx context.Context, a artifact.Artifact) (*collect.Result, error) {
	return s.collect(ctx, collect.Request{Root: &a})
}

// CollectDependency collects the dependency graph rooted at d. The
// dependency's exclusions apply to the whole graph.
func (s *Session) CollectDependency(ctx context.Context, d artifact.Dependency) (*collect.Result, error) {
	return s.collect(ctx, collect.Request{RootDependency: &d})
}

// CollectProject collects the dependency graph of an in-memory project.
func (s *Session) CollectProject(ctx context.Context, p *collect.Project) (*collect.Result, error) {
	if p == nil {
		return nil, errs.New(errs.ErrCodeInvalidInput, "nil project")
	}
	return s.collect(ctx, collect.Request{Project: p})
}

// ReadProject loads the project at path, a pom.xml or a directory
// containing one.
func (s *Session) ReadProject(ctx context.Context, path string) (*collect.Project, error) {
	if s.adapters.Projects == nil {
		return nil, errs.New(errs.ErrCodeUnsupported, "this session cannot read projects")
	}
	return s.adapters.Projects.ReadProject(ctx, path, s.remotes)
}

func (s *Session) collect(ctx context.Context, req collect.Request) (*collect.Result, error) {
	req.Repositories = s.remotes
	root := req.RootName()
	start := time.Now()
	s.build.notify(Event{Type: CollectStarted, Root: root})

	res, err := s.collector.Collect(ctx, req)

	e := Event{Type: CollectSucceeded, Root: root, Duration: time.Since(start), Err: err}
	if err != nil {
		e.Type = CollectFailed
	} else {
		e.Nodes = res.Graph.Len()
	}
	s.build.notify(e)
	return res, err
}

// Flatten resolves conflicts in g and returns the winners in scope.
func (s *Session) Flatten(g *collect.Graph, scope resolve.PathScope, includeRoot bool) ([]*collect.Node, error) {
	return resolve.Flatten(g, scope, resolve.FlattenOptions{IncludeRoot: includeRoot})
}

// Target selects what to resolve. Exactly one field must be set.
// Artifact and Dependency roots are part of their own resolution;
// projects and dependency lists are not.
type Target struct {
	Artifact     *artifact.Artifact
	Dependency   *artifact.Dependency
	Dependencies []artifact.Dependency
	Project      *collect.Project
}

// requestRoot stands in for the root of a dependency list.
var requestRoot = artifact.Artifact{GroupID: "stackresolve", ArtifactID: "request", Version: "0", Extension: "pom"}

func (t Target) request() (collect.Request, bool, error) {
	set := 0
	for _, ok := range []bool{t.Artifact != nil, t.Dependency != nil, t.Dependencies != nil, t.Project != nil} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return collect.Request{}, false, errs.New(errs.ErrCodeInvalidInput, "exactly one resolution target must be set, got %d", set)
	}
	switch {
	case t.Artifact != nil:
		return collect.Request{Root: t.Artifact}, true, nil
	case t.Dependency != nil:
		return collect.Request{RootDependency: t.Dependency}, true, nil
	case t.Dependencies != nil:
		return collect.Request{Project: &collect.Project{Artifact: requestRoot, Dependencies: t.Dependencies}}, false, nil
	default:
		return collect.Request{Project: t.Project}, false, nil
	}
}

// Collect collects the graph of t without flattening or downloading. It
// also reports whether the root takes part in the resolution of t.
func (s *Session) Collect(ctx context.Context, t Target) (*collect.Result, bool, error) {
	req, includeRoot, err := t.request()
	if err != nil {
		return nil, false, err
	}
	res, err := s.collect(ctx, req)
	return res, includeRoot, err
}

// Resolve collects, flattens and downloads t for scope, dispatching the
// files into types (classpath when empty).
func (s *Session) Resolve(ctx context.Context, t Target, scope resolve.PathScope, types ...resolve.PathType) (*resolve.Result, error) {
	creq, includeRoot, err := t.request()
	if err != nil {
		return nil, err
	}
	if scope == "" {
		scope = resolve.MainRuntime
	}
	creq.Repositories = s.remotes
	root := creq.RootName()
	start := time.Now()
	s.build.notify(Event{Type: ResolveStarted, Root: root, Scope: string(scope)})

	res, err := s.resolver.Resolve(ctx, resolve.Request{
		Collect:     creq,
		Scope:       scope,
		Types:       types,
		IncludeRoot: includeRoot,
	})

	e := Event{Type: ResolveSucceeded, Root: root, Scope: string(scope), Duration: time.Since(start), Err: err}
	if err != nil {
		e.Type = ResolveFailed
	} else {
		e.Nodes, e.Files = res.Graph.Len(), len(res.Paths)
	}
	s.build.notify(e)
	return res, err
}

// ResolveDependencies returns the files of t for scope in classpath order.
func (s *Session) ResolveDependencies(ctx context.Context, t Target, scope resolve.PathScope) ([]string, error) {
	res, err := s.Resolve(ctx, t, scope)
	if err != nil {
		return nil, err
	}
	return res.Paths, nil
}

// ResolvePaths returns the files of t for scope grouped by path type.
func (s *Session) ResolvePaths(ctx context.Context, t Target, scope resolve.PathScope, types ...resolve.PathType) (map[resolve.PathType][]string, error) {
	if len(types) == 0 {
		types = resolve.PathTypes()
	}
	res, err := s.Resolve(ctx, t, scope, types...)
	if err != nil {
		return nil, err
	}
	return res.ByType, nil
}

// ResolveArtifact downloads a single artifact, resolving LATEST, RELEASE
// and snapshot versions first, and returns its local path.
func (s *Session) ResolveArtifact(ctx context.Context, a artifact.Artifact) (string, error) {
	v, err := s.ResolveVersion(ctx, a)
	if err != nil {
		return "", err
	}
	return s.downloader.Download(ctx, a.WithVersion(v), s.remotes)
}

// ResolveArtifacts downloads several artifacts in parallel and returns
// their local paths in request order. The first failure cancels the rest.
func (s *Session) ResolveArtifacts(ctx context.Context, as []artifact.Artifact) ([]string, error) {
	reqs := make([]resolve.FetchRequest, len(as))
	for i, a := range as {
		v, err := s.ResolveVersion(ctx, a)
		if err != nil {
			return nil, err
		}
		reqs[i] = resolve.FetchRequest{Artifact: a.WithVersion(v), Repositories: s.remotes}
	}
	return s.downloader.Fetch(ctx, reqs)
}

// ResolveVersion resolves a symbolic or snapshot version of a.
func (s *Session) ResolveVersion(ctx context.Context, a artifact.Artifact) (string, error) {
	return s.adapters.Versions.ResolveVersion(ctx, a, s.remotes)
}

// ResolveVersionRange lists the available versions of a that satisfy
// a.Version, interpreted as a constraint, in ascending order. A plain
// version is returned as is without consulting any repository.
func (s *Session) ResolveVersionRange(ctx context.Context, a artifact.Artifact) ([]version.Version, error) {
	c, err := version.ParseConstraint(a.Version)
	if err != nil {
		return nil, err
	}
	if !c.HasRanges() {
		return []version.Version{*c.Recommended}, nil
	}
	all, err := s.adapters.Versions.ResolveVersionRange(ctx, a, s.remotes)
	if err != nil {
		return nil, err
	}
	out := make([]version.Version, 0, len(all))
	for _, v := range all {
		if c.Contains(v) {
			out = append(out, v)
		}
	}
	return out, nil
}

// ParseVersion parses s. Parsing never fails.
func (s *Session) ParseVersion(v string) version.Version { return version.Parse(v) }

// ParseVersionRange parses a range such as "[1.0,2.0)".
func (s *Session) ParseVersionRange(r string) (version.Range, error) { return version.ParseRange(r) }

// ParseVersionConstraint parses a plain version or a range.
func (s *Session) ParseVersionConstraint(c string) (version.Constraint, error) {
	return version.ParseConstraint(c)
}

// IsVersionSnapshot reports whether v is a snapshot version.
func (s *Session) IsVersionSnapshot(v string) bool { return version.IsSnapshot(v) }

// PathForLocalArtifact returns the path of a locally installed artifact,
// relative to the local repository.
func (s *Session) PathForLocalArtifact(a artifact.Artifact) string {
	return s.local.PathForLocalArtifact(a)
}

// PathForRemoteArtifact returns the path, relative to the local
// repository, where a downloaded from remote is cached.
func (s *Session) PathForRemoteArtifact(remote repository.Remote, a artifact.Artifact) string {
	return s.local.PathForRemoteArtifact(remote, a)
}
