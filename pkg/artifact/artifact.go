package artifact

import (
	"strings"

	errs "github.com/matzehuels/stackresolve/pkg/errors"
	"github.com/matzehuels/stackresolve/pkg/version"
)

// DefaultExtension is used when a coordinate names no extension.
const DefaultExtension = "jar"

// Artifact identifies one file in a repository.
type Artifact struct {
	GroupID    string     // Reverse-DNS group, e.g. "org.apache.commons"
	ArtifactID string     // Module name within the group
	Version    string     // Exact version, snapshot timestamp, or range literal
	Classifier string     // Optional variant such as "sources" or "tests"
	Extension  string     // File extension, e.g. "jar" or "pom"
	Properties Properties // Type-derived flags (not part of identity)
}

// Key is the version-less identity of an artifact, used for conflict
// detection, dependency management and cycle checks.
type Key struct {
	GroupID    string
	ArtifactID string
	Extension  string
	Classifier string
}

// String renders the key as g:a:ext[:classifier].
func (k Key) String() string {
	s := k.GroupID + ":" + k.ArtifactID + ":" + k.Extension
	if k.Classifier != "" {
		s += ":" + k.Classifier
	}
	return s
}

// Key returns the artifact's identity with the version removed.
func (a Artifact) Key() Key {
	return Key{GroupID: a.GroupID, ArtifactID: a.ArtifactID, Extension: a.Extension, Classifier: a.Classifier}
}

// Equal compares the five identifying fields. Properties are ignored.
func (a Artifact) Equal(o Artifact) bool {
	return a.Key() == o.Key() && a.Version == o.Version
}

// String renders the artifact as g:a:ext[:classifier]:v.
func (a Artifact) String() string {
	return a.Key().String() + ":" + a.Version
}

// WithVersion returns a copy of a with its version replaced.
func (a Artifact) WithVersion(v string) Artifact {
	a.Version = v
	return a
}

// BaseVersion maps a timestamped snapshot to its -SNAPSHOT form.
func (a Artifact) BaseVersion() string {
	return version.BaseVersion(a.Version)
}

// IsSnapshot reports whether the artifact's version is a snapshot.
func (a Artifact) IsSnapshot() bool {
	return version.IsSnapshot(a.Version)
}

// Validate checks that every coordinate field is safe to turn into a
// repository path.
func (a Artifact) Validate() error {
	if err := errs.ValidateCoordinatePart("groupId", a.GroupID); err != nil {
		return err
	}
	if err := errs.ValidateCoordinatePart("artifactId", a.ArtifactID); err != nil {
		return err
	}
	if err := errs.ValidateCoordinatePart("extension", a.Extension); err != nil {
		return err
	}
	if a.Classifier != "" {
		if err := errs.ValidateCoordinatePart("classifier", a.Classifier); err != nil {
			return err
		}
	}
	return errs.ValidateVersionString(a.Version)
}

// ParseCoordinate parses "g:a:v", "g:a:ext:v" or "g:a:ext:classifier:v".
// The extension defaults to "jar".
func ParseCoordinate(s string) (Artifact, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	var a Artifact
	switch len(parts) {
	case 3:
		a = Artifact{GroupID: parts[0], ArtifactID: parts[1], Version: parts[2]}
	case 4:
		a = Artifact{GroupID: parts[0], ArtifactID: parts[1], Extension: parts[2], Version: parts[3]}
	case 5:
		a = Artifact{GroupID: parts[0], ArtifactID: parts[1], Extension: parts[2], Classifier: parts[3], Version: parts[4]}
	default:
		return Artifact{}, errs.New(errs.ErrCodeInvalidCoordinate, "invalid coordinate %q: expected g:a[:ext[:classifier]]:v", s)
	}
	if a.Extension == "" {
		a.Extension = DefaultExtension
	}
	if err := a.Validate(); err != nil {
		return Artifact{}, errs.Wrap(errs.ErrCodeInvalidCoordinate, err, "invalid coordinate %q", s)
	}
	return a, nil
}

// ParseKey parses "g:a" or "g:a:ext[:classifier]" into a Key. The
// extension defaults to "jar".
func ParseKey(s string) (Key, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 4 {
		return Key{}, errs.New(errs.ErrCodeInvalidCoordinate, "invalid key %q: expected g:a[:ext[:classifier]]", s)
	}
	k := Key{GroupID: parts[0], ArtifactID: parts[1], Extension: DefaultExtension}
	if len(parts) > 2 && parts[2] != "" {
		k.Extension = parts[2]
	}
	if len(parts) > 3 {
		k.Classifier = parts[3]
	}
	if k.GroupID == "" || k.ArtifactID == "" {
		return Key{}, errs.New(errs.ErrCodeInvalidCoordinate, "invalid key %q: empty groupId or artifactId", s)
	}
	return k, nil
}
