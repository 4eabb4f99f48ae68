// Package collecttest provides an in-memory repository for tests of code
// built on the collect package.
package collecttest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/matzehuels/stackresolve/pkg/artifact"
	"github.com/matzehuels/stackresolve/pkg/collect"
	errs "github.com/matzehuels/stackresolve/pkg/errors"
	"github.com/matzehuels/stackresolve/pkg/repository"
	"github.com/matzehuels/stackresolve/pkg/version"
)

// Repo is an in-memory [collect.DescriptorSource] and
// [collect.VersionResolver]. It is safe for concurrent use.
type Repo struct {
	mu          sync.Mutex
	descriptors map[string]*collect.Descriptor // g:a:v
	failures    map[string]error               // g:a:v
	reads       map[string]int                 // g:a:v
	repos       map[string][]string            // g:a:v -> repository IDs seen
}

// New returns an empty Repo.
func New() *Repo {
	return &Repo{
		descriptors: make(map[string]*collect.Descriptor),
		failures:    make(map[string]error),
		reads:       make(map[string]int),
		repos:       make(map[string][]string),
	}
}

// Add registers a module "g:a:v" declaring deps and returns its descriptor
// for further editing.
func (r *Repo) Add(coord string, deps ...artifact.Dependency) *collect.Descriptor {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := &collect.Descriptor{Dependencies: deps}
	r.descriptors[coord] = d
	return d
}

// Fail makes reading the descriptor of "g:a:v" return err.
func (r *Repo) Fail(coord string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[coord] = err
}

// Reads returns how often the descriptor of "g:a:v" was read.
func (r *Repo) Reads(coord string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reads[coord]
}

// Repositories returns the repository IDs passed with the last read of
// "g:a:v".
func (r *Repo) Repositories(coord string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.repos[coord]
}

func coordOf(a artifact.Artifact) string {
	return a.GroupID + ":" + a.ArtifactID + ":" + a.Version
}

// ReadDescriptor implements collect.DescriptorSource.
func (r *Repo) ReadDescriptor(ctx context.Context, a artifact.Artifact, repos []repository.Remote) (*collect.Descriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c := coordOf(a)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads[c]++
	ids := make([]string, len(repos))
	for i, rr := range repos {
		ids[i] = rr.ID
	}
	r.repos[c] = ids
	if err := r.failures[c]; err != nil {
		return nil, err
	}
	d, ok := r.descriptors[c]
	if !ok {
		return nil, errs.New(errs.ErrCodeArtifactNotFound, "%s not found", c)
	}
	cp := *d
	return &cp, nil
}

// available returns the registered versions of g:a in ascending order.
func (r *Repo) available(a artifact.Artifact) []version.Version {
	r.mu.Lock()
	defer r.mu.Unlock()
	prefix := a.GroupID + ":" + a.ArtifactID + ":"
	var vs []version.Version
	for c := range r.descriptors {
		if v, ok := strings.CutPrefix(c, prefix); ok {
			vs = append(vs, version.Parse(v))
		}
	}
	version.Sort(vs)
	return vs
}

// ResolveVersion implements collect.VersionResolver. LATEST and RELEASE
// resolve to the highest registered version; other versions are returned
// unchanged.
func (r *Repo) ResolveVersion(_ context.Context, a artifact.Artifact, _ []repository.Remote) (string, error) {
	switch a.Version {
	case version.Latest, version.Release:
		vs := r.available(a)
		if a.Version == version.Release {
			vs = releasesOnly(vs)
		}
		best, ok := version.Max(vs)
		if !ok {
			return "", errs.New(errs.ErrCodeVersionResolution, "no versions of %s", a.Key())
		}
		return best.String(), nil
	}
	return a.Version, nil
}

func releasesOnly(vs []version.Version) []version.Version {
	var out []version.Version
	for _, v := range vs {
		if !v.IsSnapshot() {
			out = append(out, v)
		}
	}
	return out
}

// ResolveVersionRange implements collect.VersionResolver.
func (r *Repo) ResolveVersionRange(_ context.Context, a artifact.Artifact, _ []repository.Remote) ([]version.Version, error) {
	return r.available(a), nil
}

// Dep builds a compile dependency from "g:a" or "g:a:v".
func Dep(coord string) artifact.Dependency {
	parts := strings.SplitN(coord, ":", 3)
	if len(parts) < 2 {
		panic(fmt.Sprintf("collecttest: bad coordinate %q", coord))
	}
	a := artifact.Artifact{GroupID: parts[0], ArtifactID: parts[1], Extension: artifact.DefaultExtension}
	if len(parts) == 3 {
		a.Version = parts[2]
	}
	return artifact.Dependency{Artifact: a}
}

// Scoped returns Dep(coord) with scope s.
func Scoped(coord string, s artifact.Scope) artifact.Dependency {
	d := Dep(coord)
	d.Scope = s
	return d
}

// Optional returns Dep(coord) marked optional.
func Optional(coord string) artifact.Dependency {
	d := Dep(coord)
	d.Optional = true
	return d
}

// Excluding returns Dep(coord) with exclusions given as "g:a" patterns.
func Excluding(coord string, exclusions ...string) artifact.Dependency {
	d := Dep(coord)
	for _, e := range exclusions {
		d.Exclusions = append(d.Exclusions, artifact.ParseExclusion(e))
	}
	return d
}

// Root returns the artifact for "g:a:v".
func Root(coord string) *artifact.Artifact {
	a := Dep(coord).Artifact
	return &a
}
