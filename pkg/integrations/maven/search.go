package maven

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/stackresolve/pkg/cache"
	errs "github.com/matzehuels/stackresolve/pkg/errors"
	"github.com/matzehuels/stackresolve/pkg/integrations"
)

// DefaultSearchURL is the Maven Central search endpoint.
const DefaultSearchURL = "https://search.maven.org/solrsearch/select"

// ArtifactInfo is one Maven Central search hit.
type ArtifactInfo struct {
	GroupID    string `json:"groupId"`
	ArtifactID string `json:"artifactId"`
	Version    string `json:"version"`             // Latest version
	Packaging  string `json:"packaging,omitempty"` // e.g. "jar", "pom", "bundle"
	Versions   int    `json:"versionCount,omitempty"`
}

// Coordinate returns "groupId:artifactId:version".
func (a ArtifactInfo) Coordinate() string {
	return a.GroupID + ":" + a.ArtifactID + ":" + a.Version
}

// SearchClient queries the Maven Central search API.
//
// All methods are safe for concurrent use by multiple goroutines.
type SearchClient struct {
	*integrations.Client
	baseURL string
}

// NewSearchClient creates a search client caching responses in c for ttl.
func NewSearchClient(c cache.Cache, ttl time.Duration) *SearchClient {
	return &SearchClient{
		Client:  integrations.NewClient(c, "search", ttl, nil),
		baseURL: DefaultSearchURL,
	}
}

// WithBaseURL points the client at another search endpoint.
func (c *SearchClient) WithBaseURL(u string) *SearchClient {
	c.baseURL = u
	return c
}

// Latest looks up the newest version of groupId:artifactId.
//
// If refresh is true, the cache is bypassed and a fresh API call is made.
// A missing artifact yields an error with code ARTIFACT_NOT_FOUND.
func (c *SearchClient) Latest(ctx context.Context, coordinate string, refresh bool) (*ArtifactInfo, error) {
	groupID, artifactID, err := parseCoordinate(coordinate)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("g:%q AND a:%q", groupID, artifactID)
	var hits []ArtifactInfo
	err = c.Cached(ctx, "latest:"+groupID+":"+artifactID, refresh, &hits, func() error {
		var err error
		hits, err = c.search(ctx, query, 1)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, errs.New(errs.ErrCodeArtifactNotFound, "maven artifact %s:%s", groupID, artifactID)
	}
	return &hits[0], nil
}

// Search runs a free-text query and returns at most rows hits.
func (c *SearchClient) Search(ctx context.Context, query string, rows int) ([]ArtifactInfo, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errs.New(errs.ErrCodeInvalidInput, "search query cannot be empty")
	}
	if rows <= 0 {
		rows = 20
	}
	var hits []ArtifactInfo
	err := c.Cached(ctx, fmt.Sprintf("query:%d:%s", rows, query), false, &hits, func() error {
		var err error
		hits, err = c.search(ctx, query, rows)
		return err
	})
	return hits, err
}

func (c *SearchClient) search(ctx context.Context, query string, rows int) ([]ArtifactInfo, error) {
	url := fmt.Sprintf("%s?q=%s&rows=%d&wt=json", c.baseURL, integrations.URLEncode(query), rows)

	var resp searchResponse
	if err := c.Get(ctx, url, &resp); err != nil {
		return nil, err
	}

	hits := make([]ArtifactInfo, 0, len(resp.Response.Docs))
	for _, doc := range resp.Response.Docs {
		v := doc.LatestVersion
		if v == "" {
			v = doc.Version
		}
		hits = append(hits, ArtifactInfo{
			GroupID:    doc.GroupID,
			ArtifactID: doc.ArtifactID,
			Version:    v,
			Packaging:  doc.Packaging,
			Versions:   doc.VersionCount,
		})
	}
	return hits, nil
}

func parseCoordinate(coord string) (groupID, artifactID string, err error) {
	parts := strings.Split(coord, ":")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errs.New(errs.ErrCodeInvalidCoordinate, "invalid maven coordinate %q (expected groupId:artifactId)", coord)
	}
	return parts[0], parts[1], nil
}

type searchResponse struct {
	Response struct {
		NumFound int         `json:"numFound"`
		Docs     []searchDoc `json:"docs"`
	} `json:"response"`
}

type searchDoc struct {
	GroupID       string `json:"g"`
	ArtifactID    string `json:"a"`
	Version       string `json:"v"`
	LatestVersion string `json:"latestVersion"`
	Packaging     string `json:"p"`
	VersionCount  int    `json:"versionCount"`
}
