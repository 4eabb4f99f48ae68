package repository

import (
	"encoding/xml"
	"slices"
	"strconv"
	"strings"

	errs "github.com/matzehuels/stackresolve/pkg/errors"
	"github.com/matzehuels/stackresolve/pkg/version"
)

// Metadata is the content of a maven-metadata.xml file.
type Metadata struct {
	XMLName    xml.Name   `xml:"metadata"`
	GroupID    string     `xml:"groupId,omitempty"`
	ArtifactID string     `xml:"artifactId,omitempty"`
	Version    string     `xml:"version,omitempty"`
	Versioning Versioning `xml:"versioning"`
}

// Versioning lists the versions published for an artifact, or the
// snapshot deployments of one snapshot version.
type Versioning struct {
	Latest           string            `xml:"latest,omitempty"`
	Release          string            `xml:"release,omitempty"`
	Versions         []string          `xml:"versions>version,omitempty"`
	LastUpdated      string            `xml:"lastUpdated,omitempty"`
	Snapshot         *Snapshot         `xml:"snapshot,omitempty"`
	SnapshotVersions []SnapshotVersion `xml:"snapshotVersions>snapshotVersion,omitempty"`
}

// Snapshot identifies the newest deployment of a snapshot version.
type Snapshot struct {
	Timestamp   string `xml:"timestamp,omitempty"`
	BuildNumber int    `xml:"buildNumber,omitempty"`
	LocalCopy   bool   `xml:"localCopy,omitempty"`
}

// SnapshotVersion maps one (classifier, extension) pair of a snapshot to
// its timestamped version.
type SnapshotVersion struct {
	Classifier string `xml:"classifier,omitempty"`
	Extension  string `xml:"extension"`
	Value      string `xml:"value"`
	Updated    string `xml:"updated,omitempty"`
}

// ParseMetadata decodes maven-metadata.xml content.
func ParseMetadata(data []byte) (*Metadata, error) {
	var md Metadata
	if err := xml.Unmarshal(data, &md); err != nil {
		return nil, errs.Wrap(errs.ErrCodeVersionResolution, err, "parse repository metadata")
	}
	return &md, nil
}

// Marshal encodes the metadata as XML with a header.
func (m *Metadata) Marshal() ([]byte, error) {
	out, err := xml.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

// Merge folds o into m: versions are unioned and sorted, and the newest
// latest/release/snapshot values win.
func (m *Metadata) Merge(o *Metadata) {
	if o == nil {
		return
	}
	if m.GroupID == "" {
		m.GroupID = o.GroupID
	}
	if m.ArtifactID == "" {
		m.ArtifactID = o.ArtifactID
	}
	if m.Version == "" {
		m.Version = o.Version
	}

	v, ov := &m.Versioning, o.Versioning
	v.Latest = newer(v.Latest, ov.Latest)
	v.Release = newer(v.Release, ov.Release)

	seen := make(map[string]bool, len(v.Versions)+len(ov.Versions))
	var all []version.Version
	for _, s := range append(slices.Clone(v.Versions), ov.Versions...) {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		all = append(all, version.Parse(s))
	}
	version.Sort(all)
	v.Versions = v.Versions[:0]
	for _, ver := range all {
		v.Versions = append(v.Versions, ver.String())
	}

	if ov.LastUpdated > v.LastUpdated {
		v.LastUpdated = ov.LastUpdated
		if ov.Snapshot != nil {
			v.Snapshot = ov.Snapshot
		}
		if len(ov.SnapshotVersions) > 0 {
			v.SnapshotVersions = ov.SnapshotVersions
		}
	} else if v.Snapshot == nil {
		v.Snapshot = ov.Snapshot
	}
}

func newer(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	case version.Compare(b, a) > 0:
		return b
	}
	return a
}

// SnapshotValue returns the timestamped version of a snapshot for the given
// classifier and extension. The boolean is false when the metadata lists
// none; callers then use the -SNAPSHOT version itself.
func (m *Metadata) SnapshotValue(baseVersion, classifier, extension string) (string, bool) {
	for _, sv := range m.Versioning.SnapshotVersions {
		if sv.Classifier == classifier && sv.Extension == extension && sv.Value != "" {
			return sv.Value, true
		}
	}
	s := m.Versioning.Snapshot
	if s == nil || s.LocalCopy || s.Timestamp == "" || s.BuildNumber <= 0 {
		return "", false
	}
	prefix := strings.TrimSuffix(baseVersion, version.SnapshotQualifier)
	return prefix + s.Timestamp + "-" + strconv.Itoa(s.BuildNumber), true
}
