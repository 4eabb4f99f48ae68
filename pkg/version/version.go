package version

import (
	"regexp"
	"slices"
	"strings"
)

// Version is a parsed Maven version. The zero value is the empty version,
// which compares equal to "0".
type Version struct {
	raw   string
	items groups
}

// Parse parses s into a Version. It never fails: strings that do not look
// like versions still yield a well-defined position in the ordering.
func Parse(s string) Version {
	s = strings.TrimSpace(s)
	return Version{raw: s, items: parseGroups(strings.ToLower(s))}
}

// String returns the version exactly as it was written.
func (v Version) String() string { return v.raw }

// Canonical returns the normalized form used for comparison, for example
// "1" for "1.0.0" and "1-alpha-1" for "1.0-a1".
func (v Version) Canonical() string { return v.items.String() }

// Compare returns -1, 0 or +1 as v sorts before, equal to, or after o.
func (v Version) Compare(o Version) int {
	return v.items.compare(o.items)
}

// Equal reports whether v and o sort equal. "1.0" and "1" are equal.
func (v Version) Equal(o Version) bool { return v.Compare(o) == 0 }

// IsSnapshot reports whether v denotes a snapshot.
func (v Version) IsSnapshot() bool { return IsSnapshot(v.raw) }

// Compare parses a and b and compares them.
func Compare(a, b string) int {
	return Parse(a).Compare(Parse(b))
}

// Sort sorts versions in ascending order. Equal versions keep their
// relative order.
func Sort(vs []Version) {
	slices.SortStableFunc(vs, func(a, b Version) int { return a.Compare(b) })
}

// Max returns the highest of vs, or false if vs is empty.
func Max(vs []Version) (Version, bool) {
	if len(vs) == 0 {
		return Version{}, false
	}
	best := vs[0]
	for _, v := range vs[1:] {
		if v.Compare(best) > 0 {
			best = v
		}
	}
	return best, true
}

// Snapshot suffix constants.
const (
	SnapshotQualifier = "SNAPSHOT"
	Latest            = "LATEST"
	Release           = "RELEASE"
)

var timestampSnapshot = regexp.MustCompile(`^(.*-)?([0-9]{8}\.[0-9]{6}-[0-9]+)$`)

// IsSnapshot reports whether a version string denotes a snapshot: it ends
// with "SNAPSHOT" (any case) or carries a deployment timestamp of the form
// yyyyMMdd.HHmmss-buildNumber.
func IsSnapshot(s string) bool {
	if strings.HasSuffix(strings.ToUpper(s), SnapshotQualifier) {
		return true
	}
	return timestampSnapshot.MatchString(s)
}

// BaseVersion maps a timestamped snapshot to its "-SNAPSHOT" base, for
// example "1.0-20240101.120000-3" to "1.0-SNAPSHOT". Other versions are
// returned unchanged.
func BaseVersion(s string) string {
	m := timestampSnapshot.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	return m[1] + SnapshotQualifier
}

// IsMetaVersion reports whether s is a symbolic version (LATEST or RELEASE)
// that has to be resolved against repository metadata.
func IsMetaVersion(s string) bool {
	return s == Latest || s == Release
}
