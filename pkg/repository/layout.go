package repository

import (
	"strings"

	"github.com/matzehuels/stackresolve/pkg/artifact"
)

// Metadata file names.
const (
	RemoteMetadataFile = "maven-metadata.xml"
	LocalMetadataFile  = "maven-metadata-local.xml"
)

// MetadataRef identifies repository metadata at group, artifact or version
// level. An empty ArtifactID selects group metadata; an empty Version
// selects artifact metadata.
type MetadataRef struct {
	GroupID    string
	ArtifactID string
	Version    string
}

// ArtifactPath returns the default-layout path of a:
//
//	org/example/lib/1.0-SNAPSHOT/lib-1.0-20240101.120000-3-sources.jar
//
// The directory uses the base version so that timestamped snapshots share
// their -SNAPSHOT directory; the file name keeps the full version.
func ArtifactPath(a artifact.Artifact) string {
	var b strings.Builder
	b.WriteString(strings.ReplaceAll(a.GroupID, ".", "/"))
	b.WriteByte('/')
	b.WriteString(a.ArtifactID)
	b.WriteByte('/')
	b.WriteString(a.BaseVersion())
	b.WriteByte('/')
	b.WriteString(a.ArtifactID)
	b.WriteByte('-')
	b.WriteString(a.Version)
	if a.Classifier != "" {
		b.WriteByte('-')
		b.WriteString(a.Classifier)
	}
	if a.Extension != "" {
		b.WriteByte('.')
		b.WriteString(a.Extension)
	}
	return b.String()
}

// MetadataPath returns the default-layout path of the metadata file named
// filename for ref.
func MetadataPath(ref MetadataRef, filename string) string {
	parts := []string{strings.ReplaceAll(ref.GroupID, ".", "/")}
	if ref.ArtifactID != "" {
		parts = append(parts, ref.ArtifactID)
		if ref.Version != "" {
			parts = append(parts, ref.Version)
		}
	}
	parts = append(parts, filename)
	return strings.Join(parts, "/")
}

// ChecksumPath returns the path of a checksum file next to path.
func ChecksumPath(path, algorithm string) string {
	return path + "." + algorithm
}
