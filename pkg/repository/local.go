package repository

import (
	"os"
	"path"
	"path/filepath"

	"github.com/matzehuels/stackresolve/pkg/artifact"
)

// cachedDir holds artifacts downloaded from remote repositories, split by
// repository ID.
const cachedDir = "cached"

// Local is the on-disk local repository. Path methods are pure: they
// return slash-separated paths relative to Basedir and do no I/O.
type Local struct {
	Basedir string
}

// NewLocal returns a local repository rooted at dir.
func NewLocal(dir string) Local {
	return Local{Basedir: dir}
}

// DefaultBasedir returns ~/.m2/repository, falling back to a relative
// directory when the home directory is unknown.
func DefaultBasedir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".m2", "repository")
	}
	return filepath.Join(home, ".m2", "repository")
}

// PathForLocalArtifact returns the path of an artifact installed locally.
func (l Local) PathForLocalArtifact(a artifact.Artifact) string {
	return ArtifactPath(a)
}

// PathForRemoteArtifact returns the path where an artifact downloaded from
// remote is cached.
func (l Local) PathForRemoteArtifact(remote Remote, a artifact.Artifact) string {
	return path.Join(cachedDir, remote.ID, ArtifactPath(a))
}

// PathForLocalMetadata returns the path of locally installed metadata.
func (l Local) PathForLocalMetadata(ref MetadataRef) string {
	return MetadataPath(ref, LocalMetadataFile)
}

// PathForRemoteMetadata returns the path where metadata downloaded from
// remote is cached.
func (l Local) PathForRemoteMetadata(remote Remote, ref MetadataRef) string {
	return path.Join(cachedDir, remote.ID, MetadataPath(ref, RemoteMetadataFile))
}

// Abs joins a relative repository path with Basedir.
func (l Local) Abs(rel string) string {
	return filepath.Join(l.Basedir, filepath.FromSlash(rel))
}
