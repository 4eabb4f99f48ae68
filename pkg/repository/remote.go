package repository

import (
	"net/url"
	"strings"

	errs "github.com/matzehuels/stackresolve/pkg/errors"
)

// CentralID and CentralURL identify Maven Central.
const (
	CentralID  = "central"
	CentralURL = "https://repo.maven.apache.org/maven2"
)

// Remote is a remote repository. The ID names its cache area in the local
// repository; the URL scheme selects the transport.
type Remote struct {
	ID  string `toml:"id" json:"id"`
	URL string `toml:"url" json:"url"`
}

// Central returns the Maven Central repository.
func Central() Remote {
	return Remote{ID: CentralID, URL: CentralURL}
}

// Scheme returns the lower-cased URL scheme, e.g. "https" or "s3".
func (r Remote) Scheme() string {
	u, err := url.Parse(r.URL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Scheme)
}

// Validate checks the repository ID and URL.
func (r Remote) Validate() error {
	if err := errs.ValidateRepositoryID(r.ID); err != nil {
		return err
	}
	return errs.ValidateRepositoryURL(r.URL)
}

// String renders the repository as id::url.
func (r Remote) String() string {
	return r.ID + "::" + r.URL
}

// ParseRemote parses "id::url". A bare URL gets an ID derived from its host.
func ParseRemote(s string) (Remote, error) {
	s = strings.TrimSpace(s)
	var r Remote
	if id, u, ok := strings.Cut(s, "::"); ok {
		r = Remote{ID: id, URL: u}
	} else {
		u, err := url.Parse(s)
		if err != nil || u.Host == "" {
			return Remote{}, errs.New(errs.ErrCodeInvalidInput, "invalid repository %q: expected id::url", s)
		}
		r = Remote{ID: strings.ReplaceAll(u.Hostname(), ":", "-"), URL: s}
	}
	r.URL = strings.TrimSuffix(r.URL, "/")
	if err := r.Validate(); err != nil {
		return Remote{}, err
	}
	return r, nil
}

// Merge appends repositories from extra whose IDs are not already present.
// Order is preserved; the first repository with a given ID wins.
func Merge(base []Remote, extra ...Remote) []Remote {
	out := make([]Remote, 0, len(base)+len(extra))
	seen := make(map[string]bool, len(base)+len(extra))
	for _, list := range [][]Remote{base, extra} {
		for _, r := range list {
			if seen[r.ID] {
				continue
			}
			seen[r.ID] = true
			out = append(out, r)
		}
	}
	return out
}
