package maven

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackresolve/pkg/artifact"
	"github.com/matzehuels/stackresolve/pkg/cache"
	"github.com/matzehuels/stackresolve/pkg/collect"
	errs "github.com/matzehuels/stackresolve/pkg/errors"
	"github.com/matzehuels/stackresolve/pkg/repository"
)

// maxParentDepth bounds parent and import chains.
const maxParentDepth = 32

// ArtifactDownloader places artifacts in the local repository.
// *download.Downloader implements it.
type ArtifactDownloader interface {
	Download(ctx context.Context, a artifact.Artifact, repos []repository.Remote) (string, error)
}

// DescriptorReader implements [collect.DescriptorSource] on top of pom.xml
// files. Parent models are inherited, properties interpolated and
// import-scoped BOMs expanded into dependency management. Effective models
// are cached per coordinate.
type DescriptorReader struct {
	downloader ArtifactDownloader
	cache      cache.Cache
	keyer      cache.Keyer
	logger     *log.Logger
}

// NewDescriptorReader creates a DescriptorReader. A nil cache disables
// caching and a nil logger uses log.Default().
func NewDescriptorReader(downloader ArtifactDownloader, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *DescriptorReader {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &DescriptorReader{downloader: downloader, cache: c, keyer: keyer, logger: logger}
}

// ReadDescriptor implements collect.DescriptorSource.
func (r *DescriptorReader) ReadDescriptor(ctx context.Context, a artifact.Artifact, repos []repository.Remote) (*collect.Descriptor, error) {
	p, err := r.Effective(ctx, a, repos)
	if err != nil {
		return nil, err
	}
	return r.descriptor(p), nil
}

// Effective returns the effective model of the POM of a.
func (r *DescriptorReader) Effective(ctx context.Context, a artifact.Artifact, repos []repository.Remote) (*POM, error) {
	return r.effective(ctx, pomArtifact(a.GroupID, a.ArtifactID, a.Version), repos, nil)
}

func (r *DescriptorReader) effective(ctx context.Context, coord artifact.Artifact, repos []repository.Remote, chain []string) (*POM, error) {
	key := r.keyer.DescriptorKey(coord.String())
	if data, ok, _ := r.cache.Get(ctx, key); ok {
		var p POM
		if err := json.Unmarshal(data, &p); err == nil {
			return &p, nil
		}
		r.logger.Debug("discarding unreadable cached descriptor", "artifact", coord)
	}

	if slices.Contains(chain, coord.String()) {
		return nil, errs.New(errs.ErrCodeDescriptorRead, "cycle in parent or import chain: %v -> %s", chain, coord)
	}
	if len(chain) >= maxParentDepth {
		return nil, errs.New(errs.ErrCodeDescriptorRead, "parent or import chain of %s is deeper than %d", coord, maxParentDepth)
	}

	raw, err := r.load(ctx, coord, repos)
	if err != nil {
		return nil, err
	}
	p, err := r.build(ctx, raw, "", repos, append(slices.Clip(chain), coord.String()))
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeDescriptorRead, err, "build model of %s", coord)
	}

	if data, err := json.Marshal(p); err == nil {
		ttl := cache.TTLDescriptor
		if coord.IsSnapshot() {
			ttl = cache.TTLSnapshot
		}
		_ = r.cache.Set(ctx, key, data, ttl)
	}
	return p, nil
}

func (r *DescriptorReader) load(ctx context.Context, coord artifact.Artifact, repos []repository.Remote) (*POM, error) {
	path, err := r.downloader.Download(ctx, coord, repos)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeDescriptorRead, err, "read %s", path)
	}
	p, err := ParsePOM(bytes.NewReader(data))
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeDescriptorRead, err, "%s", coord)
	}
	return p, nil
}

// build turns a raw model into an effective one. dir is the directory of
// a pom.xml on disk, used to find parents by relative path.
func (r *DescriptorReader) build(ctx context.Context, p *POM, dir string, repos []repository.Remote, chain []string) (*POM, error) {
	if p.Parent != nil {
		parent, err := r.parent(ctx, p, dir, repos, chain)
		if err != nil {
			return nil, err
		}
		p.inherit(parent)
	}
	p.interpolate()

	searchRepos := repository.Merge(repos, remotes(p.Repositories, r.logger)...)
	managed := p.DependencyManagement[:0:0]
	for _, d := range p.DependencyManagement {
		if d.Scope != string(artifact.ScopeImport) || (d.Type != "pom" && d.Type != "bom") {
			managed = append(managed, d)
			continue
		}
		bom, err := r.effective(ctx, pomArtifact(d.GroupID, d.ArtifactID, d.Version), searchRepos, chain)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeDescriptorRead, err, "import %s:%s:%s", d.GroupID, d.ArtifactID, d.Version)
		}
		managed = append(managed, bom.DependencyManagement...)
	}
	p.DependencyManagement = mergeDependencies(managed, nil)
	return p, nil
}

func (r *DescriptorReader) parent(ctx context.Context, p *POM, dir string, repos []repository.Remote, chain []string) (*POM, error) {
	ref := p.Parent
	if dir != "" {
		if local, ok := r.localParent(dir, ref); ok {
			id := pomArtifact(ref.GroupID, ref.ArtifactID, ref.Version).String()
			if slices.Contains(chain, id) {
				return nil, errs.New(errs.ErrCodeDescriptorRead, "cycle in parent chain: %v -> %s", chain, id)
			}
			return r.build(ctx, local, filepath.Dir(filepath.Join(dir, relativePath(ref))), repos, append(slices.Clip(chain), id))
		}
	}
	searchRepos := repository.Merge(repos, remotes(p.Repositories, r.logger)...)
	return r.effective(ctx, pomArtifact(ref.GroupID, ref.ArtifactID, ref.Version), searchRepos, chain)
}

// localParent reads the parent from relativePath if it is the referenced
// model.
func (r *DescriptorReader) localParent(dir string, ref *Parent) (*POM, bool) {
	path := filepath.Join(dir, relativePath(ref))
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, "pom.xml")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, false
	}
	defer f.Close()
	p, err := ParsePOM(f)
	if err != nil {
		r.logger.Debug("ignoring unreadable parent", "path", path, "err", err)
		return nil, false
	}
	if p.EffectiveGroupID() != ref.GroupID || p.ArtifactID != ref.ArtifactID || p.EffectiveVersion() != ref.Version {
		return nil, false
	}
	return p, true
}

func relativePath(ref *Parent) string {
	if ref.RelativePath == "" {
		return filepath.Join("..", "pom.xml")
	}
	return filepath.FromSlash(ref.RelativePath)
}

// descriptor converts an effective model. Entries whose coordinates still
// hold unresolved properties are skipped.
func (r *DescriptorReader) descriptor(p *POM) *collect.Descriptor {
	return &collect.Descriptor{
		Dependencies: r.dependencies(p, p.Dependencies),
		Managed:      r.dependencies(p, p.DependencyManagement),
		Repositories: remotes(p.Repositories, r.logger),
	}
}

func (r *DescriptorReader) dependencies(p *POM, deps []Dependency) []artifact.Dependency {
	out := make([]artifact.Dependency, 0, len(deps))
	for _, d := range deps {
		if unresolved(d.GroupID) || unresolved(d.ArtifactID) {
			r.logger.Debug("skipping dependency with unresolved coordinates",
				"pom", p.EffectiveGroupID()+":"+p.ArtifactID, "dependency", d.GroupID+":"+d.ArtifactID)
			continue
		}
		out = append(out, d.toDependency())
	}
	return out
}

func (d Dependency) toDependency() artifact.Dependency {
	dep := artifact.Dependency{
		Artifact: artifact.Artifact{
			GroupID:    d.GroupID,
			ArtifactID: d.ArtifactID,
			Version:    d.Version,
			Classifier: d.Classifier,
		},
		Type:     d.Type,
		Scope:    artifact.Scope(d.Scope),
		Optional: d.Optional == "true",
	}
	for _, e := range d.Exclusions {
		dep.Exclusions = append(dep.Exclusions, artifact.Exclusion{GroupID: e.GroupID, ArtifactID: e.ArtifactID})
	}
	return dep
}

func remotes(rs []Repository, logger *log.Logger) []repository.Remote {
	out := make([]repository.Remote, 0, len(rs))
	for _, r := range rs {
		remote := repository.Remote{ID: r.ID, URL: r.URL}
		if err := remote.Validate(); err != nil {
			logger.Debug("ignoring repository", "id", r.ID, "url", r.URL, "err", err)
			continue
		}
		out = append(out, remote)
	}
	return out
}

func pomArtifact(groupID, artifactID, version string) artifact.Artifact {
	return artifact.Artifact{GroupID: groupID, ArtifactID: artifactID, Version: version, Extension: "pom"}
}

var _ collect.DescriptorSource = (*DescriptorReader)(nil)
