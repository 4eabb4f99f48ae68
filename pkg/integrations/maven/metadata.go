package maven

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackresolve/pkg/artifact"
	"github.com/matzehuels/stackresolve/pkg/cache"
	"github.com/matzehuels/stackresolve/pkg/collect"
	errs "github.com/matzehuels/stackresolve/pkg/errors"
	"github.com/matzehuels/stackresolve/pkg/repository"
	"github.com/matzehuels/stackresolve/pkg/version"
)

// MetadataDownloader fetches maven-metadata.xml files.
// *download.Downloader implements it.
type MetadataDownloader interface {
	DownloadMetadata(ctx context.Context, ref repository.MetadataRef, repo repository.Remote) (string, error)
	LocalMetadata(ref repository.MetadataRef) (string, bool)
}

// MetadataResolver implements [collect.VersionResolver] from repository
// metadata. Metadata of the local repository and of every remote is
// merged, so the newest declaration wins regardless of where it lives.
type MetadataResolver struct {
	downloader MetadataDownloader
	cache      cache.Cache
	keyer      cache.Keyer
	logger     *log.Logger
}

// NewMetadataResolver creates a MetadataResolver. A nil cache disables
// caching and a nil logger uses log.Default().
func NewMetadataResolver(downloader MetadataDownloader, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *MetadataResolver {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &MetadataResolver{downloader: downloader, cache: c, keyer: keyer, logger: logger}
}

// ResolveVersion implements collect.VersionResolver.
//
// LATEST and RELEASE resolve to the newest (release) version listed in
// the artifact metadata. A -SNAPSHOT version resolves to the timestamped
// version of its newest deployment, or stays as is when only a local copy
// exists. Other versions are returned unchanged.
func (r *MetadataResolver) ResolveVersion(ctx context.Context, a artifact.Artifact, repos []repository.Remote) (string, error) {
	switch v := a.Version; {
	case v == version.Latest || v == version.Release:
		md, err := r.Metadata(ctx, repository.MetadataRef{GroupID: a.GroupID, ArtifactID: a.ArtifactID}, repos)
		if err != nil {
			return "", err
		}
		if resolved := pickMeta(md, v == version.Release); resolved != "" {
			return resolved, nil
		}
		return "", errs.New(errs.ErrCodeVersionResolution, "no %s version of %s:%s is published", v, a.GroupID, a.ArtifactID)

	case strings.HasSuffix(v, version.SnapshotQualifier):
		md, err := r.Metadata(ctx, repository.MetadataRef{GroupID: a.GroupID, ArtifactID: a.ArtifactID, Version: v}, repos)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			r.logger.Debug("no snapshot metadata, using version as is", "artifact", a, "err", err)
			return v, nil
		}
		if resolved, ok := md.SnapshotValue(v, a.Classifier, a.Extension); ok {
			return resolved, nil
		}
		return v, nil

	default:
		return v, nil
	}
}

// pickMeta returns the LATEST or RELEASE version of md, falling back to
// the highest listed version.
func pickMeta(md *repository.Metadata, release bool) string {
	if release && md.Versioning.Release != "" {
		return md.Versioning.Release
	}
	if !release && md.Versioning.Latest != "" {
		return md.Versioning.Latest
	}
	var candidates []version.Version
	for _, s := range md.Versioning.Versions {
		if release && version.IsSnapshot(s) {
			continue
		}
		candidates = append(candidates, version.Parse(s))
	}
	if best, ok := version.Max(candidates); ok {
		return best.String()
	}
	return ""
}

// ResolveVersionRange implements collect.VersionResolver. It returns every
// published version in ascending order; the caller filters by range.
func (r *MetadataResolver) ResolveVersionRange(ctx context.Context, a artifact.Artifact, repos []repository.Remote) ([]version.Version, error) {
	md, err := r.Metadata(ctx, repository.MetadataRef{GroupID: a.GroupID, ArtifactID: a.ArtifactID}, repos)
	if err != nil {
		return nil, err
	}
	out := make([]version.Version, 0, len(md.Versioning.Versions))
	for _, s := range md.Versioning.Versions {
		out = append(out, version.Parse(s))
	}
	version.Sort(out)
	return out, nil
}

// Metadata returns the merged metadata for ref from the local repository
// and repos. It fails only when no source has the metadata.
func (r *MetadataResolver) Metadata(ctx context.Context, ref repository.MetadataRef, repos []repository.Remote) (*repository.Metadata, error) {
	var merged *repository.Metadata
	add := func(md *repository.Metadata) {
		if merged == nil {
			merged = md
			return
		}
		merged.Merge(md)
	}

	if path, ok := r.downloader.LocalMetadata(ref); ok {
		if md, err := readMetadata(path); err != nil {
			r.logger.Warn("ignoring unreadable local metadata", "path", path, "err", err)
		} else {
			add(md)
		}
	}

	var failures []error
	for _, repo := range repos {
		md, err := r.remote(ctx, ref, repo)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if !errs.Is(err, errs.ErrCodeArtifactNotFound) {
				failures = append(failures, err)
			}
			continue
		}
		add(md)
	}

	if merged != nil {
		return merged, nil
	}
	if len(failures) > 0 {
		return nil, errs.Wrap(errs.ErrCodeVersionResolution, errors.Join(failures...), "read metadata for %s", refString(ref))
	}
	return nil, errs.New(errs.ErrCodeVersionResolution, "no metadata for %s in %d repositories", refString(ref), len(repos))
}

func (r *MetadataResolver) remote(ctx context.Context, ref repository.MetadataRef, repo repository.Remote) (*repository.Metadata, error) {
	key := r.keyer.MetadataKey(repo.ID, refString(ref))
	if data, ok, _ := r.cache.Get(ctx, key); ok {
		if md, err := repository.ParseMetadata(data); err == nil {
			return md, nil
		}
	}

	path, err := r.downloader.DownloadMetadata(ctx, ref, repo)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeVersionResolution, err, "read %s", path)
	}
	md, err := repository.ParseMetadata(data)
	if err != nil {
		return nil, err
	}
	ttl := cache.TTLMetadata
	if ref.Version != "" {
		ttl = cache.TTLSnapshot
	}
	_ = r.cache.Set(ctx, key, data, ttl)
	return md, nil
}

func readMetadata(path string) (*repository.Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return repository.ParseMetadata(data)
}

func refString(ref repository.MetadataRef) string {
	s := ref.GroupID
	if ref.ArtifactID != "" {
		s += ":" + ref.ArtifactID
		if ref.Version != "" {
			s += ":" + ref.Version
		}
	}
	return s
}

var _ collect.VersionResolver = (*MetadataResolver)(nil)
