package session

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackresolve/pkg/artifact"
	"github.com/matzehuels/stackresolve/pkg/cache"
	"github.com/matzehuels/stackresolve/pkg/collect"
	"github.com/matzehuels/stackresolve/pkg/collect/collecttest"
	"github.com/matzehuels/stackresolve/pkg/download"
	errs "github.com/matzehuels/stackresolve/pkg/errors"
	"github.com/matzehuels/stackresolve/pkg/repository"
	"github.com/matzehuels/stackresolve/pkg/resolve"
	"github.com/matzehuels/stackresolve/pkg/transfer"
)

type fixture struct {
	s      *Session
	repo   *collecttest.Repo
	remote repository.Remote
}

// newFixture serves jars for every coordinate from a file:// repository
// and descriptors from an in-memory repo.
func newFixture(t *testing.T, coords ...string) *fixture {
	t.Helper()
	remoteDir := t.TempDir()
	for _, c := range coords {
		p := filepath.Join(remoteDir, filepath.FromSlash(repository.ArtifactPath(collecttest.Dep(c).Artifact)))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(c), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	repo := collecttest.New()
	remote := repository.Remote{ID: "files", URL: "file://" + filepath.ToSlash(remoteDir)}
	s, err := New(repository.NewLocal(t.TempDir()), []repository.Remote{remote}, Options{
		Adapters: func(*download.Downloader, cache.Cache, *log.Logger) Adapters {
			return Adapters{Descriptors: repo, Versions: repo}
		},
		Logger: log.New(io.Discard),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return &fixture{s: s, repo: repo, remote: remote}
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Notify(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type.String()
	}
	return out
}

func TestNew(t *testing.T) {
	central := repository.Central()
	tests := []struct {
		name    string
		local   repository.Local
		remotes []repository.Remote
		code    string
	}{
		{"ok", repository.NewLocal(t.TempDir()), []repository.Remote{central}, ""},
		{"no remotes", repository.NewLocal(t.TempDir()), nil, ""},
		{"no basedir", repository.Local{}, nil, errs.ErrCodeInvalidInput},
		{"duplicate id", repository.NewLocal(t.TempDir()), []repository.Remote{central, central}, errs.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.local, tt.remotes, Options{Logger: log.New(io.Discard)})
			if tt.code == "" {
				if err != nil {
					t.Fatalf("New: %v", err)
				}
				s.Close()
				return
			}
			if !errs.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestResolveDependencies(t *testing.T) {
	f := newFixture(t, "g:root:1", "g:a:1", "g:b:1")
	f.repo.Add("g:root:1", collecttest.Dep("g:a:1"), collecttest.Dep("g:b:1"))
	f.repo.Add("g:a:1")
	f.repo.Add("g:b:1")

	build := &recorder{}
	f.s.RegisterListener(build)

	var mu sync.Mutex
	var succeeded []string
	f.s.RegisterTransferListener(transfer.ListenerFunc(func(e transfer.Event) error {
		if e.Type == transfer.Succeeded {
			mu.Lock()
			succeeded = append(succeeded, e.Resource.Name)
			mu.Unlock()
		}
		return nil
	}))

	root := collecttest.Dep("g:root:1")
	paths, err := f.s.ResolveDependencies(context.Background(), Target{Dependency: &root}, resolve.MainRuntime)
	if err != nil {
		t.Fatalf("ResolveDependencies: %v", err)
	}

	var names []string
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			t.Fatalf("resolved file: %v", err)
		}
		names = append(names, string(data))
		if !strings.Contains(filepath.ToSlash(p), "/cached/files/") {
			t.Errorf("%s is not in the remote cache area", p)
		}
	}
	if got := strings.Join(names, ","); got != "g:root:1,g:a:1,g:b:1" {
		t.Errorf("files = %s", got)
	}

	mu.Lock()
	if len(succeeded) != 3 {
		t.Errorf("succeeded transfers = %v", succeeded)
	}
	mu.Unlock()

	if got := strings.Join(build.types(), ","); got != "resolve-started,resolve-succeeded" {
		t.Errorf("build events = %s", got)
	}
	last := build.events[len(build.events)-1]
	if last.Files != 3 || last.Nodes != 3 || last.Scope != string(resolve.MainRuntime) {
		t.Errorf("last event = %+v", last)
	}
}

func TestResolveTargets(t *testing.T) {
	f := newFixture(t, "g:root:1", "g:a:1", "g:b:1")
	f.repo.Add("g:root:1", collecttest.Dep("g:a:1"))
	f.repo.Add("g:a:1")
	f.repo.Add("g:b:1")
	ctx := context.Background()

	list, err := f.s.ResolveDependencies(ctx, Target{Dependencies: []artifact.Dependency{
		collecttest.Dep("g:a:1"), collecttest.Dep("g:b:1"),
	}}, resolve.MainCompile)
	if err != nil {
		t.Fatalf("dependency list: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("dependency list resolved %d files, want 2 without the request root", len(list))
	}

	project := &collect.Project{
		Artifact:     artifact.Artifact{GroupID: "g", ArtifactID: "app", Version: "1", Extension: "pom"},
		Dependencies: []artifact.Dependency{collecttest.Dep("g:root:1")},
	}
	byType, err := f.s.ResolvePaths(ctx, Target{Project: project}, resolve.MainRuntime, resolve.ClassPath, resolve.ModulePath)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if len(byType[resolve.ClassPath]) != 2 {
		t.Errorf("classpath = %v", byType[resolve.ClassPath])
	}
	if _, ok := byType[resolve.ModulePath]; !ok {
		t.Error("modulepath missing from result")
	}

	for _, bad := range []Target{{}, {Artifact: collecttest.Root("g:a:1"), Project: project}} {
		if _, err := f.s.Resolve(ctx, bad, resolve.MainRuntime); !errs.Is(err, errs.ErrCodeInvalidInput) {
			t.Errorf("Resolve(%+v) err = %v", bad, err)
		}
	}
}

func TestResolveArtifact(t *testing.T) {
	f := newFixture(t, "g:a:1")
	p, err := f.s.ResolveArtifact(context.Background(), collecttest.Dep("g:a:1").Artifact)
	if err != nil {
		t.Fatalf("ResolveArtifact: %v", err)
	}
	want := f.s.LocalRepository().Abs(f.s.PathForRemoteArtifact(f.remote, collecttest.Dep("g:a:1").Artifact))
	if p != want {
		t.Errorf("path = %s, want %s", p, want)
	}

	_, err = f.s.ResolveArtifact(context.Background(), collecttest.Dep("g:missing:1").Artifact)
	if !errs.Is(err, errs.ErrCodeArtifactNotFound) {
		t.Errorf("missing artifact: err = %v", err)
	}
}

func TestResolveArtifacts(t *testing.T) {
	f := newFixture(t, "g:a:1", "g:b:2")
	as := []artifact.Artifact{collecttest.Dep("g:b:2").Artifact, collecttest.Dep("g:a:1").Artifact}

	paths, err := f.s.ResolveArtifacts(context.Background(), as)
	if err != nil {
		t.Fatalf("ResolveArtifacts: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("got %d paths, want 2", len(paths))
	}
	for i, a := range as {
		if want := f.s.LocalRepository().Abs(f.s.PathForRemoteArtifact(f.remote, a)); paths[i] != want {
			t.Errorf("paths[%d] = %s, want %s", i, paths[i], want)
		}
	}

	as = append(as, collecttest.Dep("g:missing:1").Artifact)
	if _, err := f.s.ResolveArtifacts(context.Background(), as); !errs.Is(err, errs.ErrCodeArtifactNotFound) {
		t.Errorf("missing artifact: err = %v", err)
	}
}

func TestCollectEvents(t *testing.T) {
	f := newFixture(t)
	f.repo.Add("g:root:1", collecttest.Dep("g:a:1"))
	f.repo.Add("g:a:1")

	rec := &recorder{}
	id := f.s.RegisterListener(rec)
	ctx := context.Background()

	res, err := f.s.CollectArtifact(ctx, *collecttest.Root("g:root:1"))
	if err != nil {
		t.Fatalf("CollectArtifact: %v", err)
	}
	if res.Graph.Len() != 2 {
		t.Errorf("graph has %d nodes", res.Graph.Len())
	}
	if _, err := f.s.CollectArtifact(ctx, *collecttest.Root("g:nope:1")); !errs.Is(err, errs.ErrCodeDependencyCollection) {
		t.Errorf("missing root: err = %v", err)
	}

	want := "collect-started,collect-succeeded,collect-started,collect-failed"
	if got := strings.Join(rec.types(), ","); got != want {
		t.Errorf("events = %s, want %s", got, want)
	}
	if rec.events[1].Nodes != 2 || rec.events[3].Err == nil {
		t.Errorf("events = %+v", rec.events)
	}

	if !f.s.UnregisterListener(id) || f.s.UnregisterListener(id) {
		t.Error("listener must unregister exactly once")
	}
	if _, err := f.s.CollectDependency(ctx, collecttest.Dep("g:root:1")); err != nil {
		t.Fatal(err)
	}
	if len(rec.types()) != 4 {
		t.Error("unregistered listener still notified")
	}
}

func TestCollectTarget(t *testing.T) {
	f := newFixture(t)
	f.repo.Add("g:a:1", collecttest.Dep("g:b:1"))
	f.repo.Add("g:b:1")
	ctx := context.Background()

	d := collecttest.Dep("g:a:1")
	res, includeRoot, err := f.s.Collect(ctx, Target{Dependency: &d})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if !includeRoot || res.Graph.Len() != 2 {
		t.Errorf("dependency target: includeRoot=%v nodes=%d", includeRoot, res.Graph.Len())
	}

	res, includeRoot, err = f.s.Collect(ctx, Target{Dependencies: []artifact.Dependency{d}})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if includeRoot || !res.Graph.Root().Virtual || res.Graph.Len() != 3 {
		t.Errorf("list target: includeRoot=%v virtual=%v nodes=%d", includeRoot, res.Graph.Root().Virtual, res.Graph.Len())
	}

	if _, _, err := f.s.Collect(ctx, Target{}); !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("empty target: err = %v", err)
	}
}

func TestDerivedSessions(t *testing.T) {
	f := newFixture(t, "g:a:1")
	rec := &recorder{}
	f.s.RegisterListener(rec)

	other := repository.Remote{ID: "other", URL: "https://repo.example.com/maven2"}
	derived, err := f.s.WithRemoteRepositories([]repository.Remote{other, f.remote})
	if err != nil {
		t.Fatal(err)
	}
	if got := derived.RemoteRepositories(); len(got) != 2 || got[0].ID != "other" {
		t.Errorf("derived remotes = %v", got)
	}
	if got := f.s.RemoteRepositories(); len(got) != 1 {
		t.Errorf("origin remotes changed: %v", got)
	}

	f.repo.Add("g:a:1")
	if _, err := derived.CollectArtifact(context.Background(), *collecttest.Root("g:a:1")); err != nil {
		t.Fatal(err)
	}
	if len(rec.types()) != 2 {
		t.Errorf("derived session did not notify shared listeners: %v", rec.types())
	}
	if got := f.repo.Repositories("g:a:1"); len(got) != 2 || got[0] != "other" {
		t.Errorf("descriptor read with %v", got)
	}

	local := repository.NewLocal(t.TempDir())
	moved, err := f.s.WithLocalRepository(local)
	if err != nil {
		t.Fatal(err)
	}
	if moved.LocalRepository() != local || f.s.LocalRepository() == local {
		t.Error("WithLocalRepository must only change the derived session")
	}

	if _, err := f.s.WithRemoteRepositories([]repository.Remote{f.remote, f.remote}); !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("duplicate remotes: err = %v", err)
	}
	if _, err := f.s.WithLocalRepository(repository.Local{}); !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("empty local: err = %v", err)
	}
}

func TestVersions(t *testing.T) {
	f := newFixture(t)
	for _, v := range []string{"1.0", "1.5", "2.0", "2.1-SNAPSHOT"} {
		f.repo.Add("g:v:" + v)
	}
	ctx := context.Background()

	tests := []struct {
		constraint string
		want       string
	}{
		{"[1.0,2.0)", "1.0,1.5"},
		{"[2.0,)", "2.0,2.1-SNAPSHOT"},
		{"(,1.0],[1.5,2.0]", "1.0,1.5,2.0"},
		{"1.5", "1.5"},
	}
	for _, tt := range tests {
		vs, err := f.s.ResolveVersionRange(ctx, collecttest.Dep("g:v:"+tt.constraint).Artifact)
		if err != nil {
			t.Fatalf("%s: %v", tt.constraint, err)
		}
		var got []string
		for _, v := range vs {
			got = append(got, v.String())
		}
		if strings.Join(got, ",") != tt.want {
			t.Errorf("%s = %v, want %s", tt.constraint, got, tt.want)
		}
	}
	if _, err := f.s.ResolveVersionRange(ctx, collecttest.Dep("g:v:[2.0,1.0]").Artifact); !errs.Is(err, errs.ErrCodeVersionParse) {
		t.Errorf("inverted range: err = %v", err)
	}

	if v, err := f.s.ResolveVersion(ctx, collecttest.Dep("g:v:RELEASE").Artifact); err != nil || v != "2.0" {
		t.Errorf("RELEASE = %s, %v", v, err)
	}
	if !f.s.IsVersionSnapshot("2.1-SNAPSHOT") || f.s.IsVersionSnapshot("2.1") {
		t.Error("IsVersionSnapshot")
	}
	if f.s.ParseVersion("1.0").Compare(f.s.ParseVersion("1")) != 0 {
		t.Error("1.0 and 1 must be equal")
	}
	if _, err := f.s.ParseVersionRange("[1.0"); err == nil {
		t.Error("unbalanced range accepted")
	}
	if c, err := f.s.ParseVersionConstraint("[1,2)"); err != nil || !c.HasRanges() {
		t.Errorf("constraint = %v, %v", c, err)
	}
}

func TestPaths(t *testing.T) {
	f := newFixture(t)
	a := artifact.Artifact{GroupID: "org.example", ArtifactID: "lib", Version: "1.0", Extension: "jar"}
	if got := f.s.PathForLocalArtifact(a); got != "org/example/lib/1.0/lib-1.0.jar" {
		t.Errorf("local = %s", got)
	}
	if got := f.s.PathForRemoteArtifact(f.remote, a); got != "cached/files/org/example/lib/1.0/lib-1.0.jar" {
		t.Errorf("remote = %s", got)
	}
}
