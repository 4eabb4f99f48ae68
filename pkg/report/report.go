// Package report records resolution results for later retrieval.
//
// A [Report] is a serializable summary of a [resolve.Result]: the resolved
// artifacts in classpath order, the files per path type and the failures
// that did not abort the resolution. Reports are kept in a [Store];
// [MemoryStore] holds a bounded number in process and [MongoStore]
// persists them in MongoDB.
//
// [resolve.Result]: github.com/matzehuels/stackresolve/pkg/resolve.Result
package report

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/stackresolve/pkg/resolve"
)

// Report summarizes one resolution.
type Report struct {
	ID           string              `json:"id" bson:"_id"`
	Root         string              `json:"root" bson:"root"`
	Scope        string              `json:"scope" bson:"scope"`
	Repositories []string            `json:"repositories,omitempty" bson:"repositories,omitempty"`
	CreatedAt    time.Time           `json:"created_at" bson:"created_at"`
	Duration     time.Duration       `json:"duration_ns" bson:"duration_ns"`
	Nodes        int                 `json:"nodes" bson:"nodes"`
	Artifacts    []Entry             `json:"artifacts" bson:"artifacts"`
	Paths        map[string][]string `json:"paths,omitempty" bson:"paths,omitempty"`
	Errors       []string            `json:"errors,omitempty" bson:"errors,omitempty"`
}

// Entry is one resolved artifact.
type Entry struct {
	Coordinate string `json:"coordinate" bson:"coordinate"`
	Scope      string `json:"scope" bson:"scope"`
	Optional   bool   `json:"optional,omitempty" bson:"optional,omitempty"`
	Depth      int    `json:"depth" bson:"depth"`
	File       string `json:"file,omitempty" bson:"file,omitempty"`
}

// New builds a report with a fresh ID from a resolution result.
func New(res *resolve.Result, scope resolve.PathScope, elapsed time.Duration) *Report {
	r := &Report{
		ID:        uuid.NewString(),
		Scope:     string(scope),
		CreatedAt: time.Now().UTC(),
		Duration:  elapsed,
		Paths:     make(map[string][]string, len(res.ByType)),
	}
	if res.Graph != nil {
		root := res.Graph.Root()
		r.Root = root.Artifact.String()
		r.Nodes = res.Graph.Len()
		for _, repo := range root.Repositories {
			r.Repositories = append(r.Repositories, repo.String())
		}
	}

	files := make(map[int]string, len(res.Files))
	for _, f := range res.Files {
		files[f.Node.ID] = f.Path
	}
	for _, n := range res.Winners {
		r.Artifacts = append(r.Artifacts, Entry{
			Coordinate: n.Artifact.String(),
			Scope:      string(n.Scope),
			Optional:   n.Optional(),
			Depth:      n.Depth,
			File:       files[n.ID],
		})
	}
	for t, paths := range res.ByType {
		r.Paths[string(t)] = paths
	}
	for _, e := range res.Errors {
		r.Errors = append(r.Errors, e.Error())
	}
	return r
}

// Store persists reports. Get returns an error with code REPORT_NOT_FOUND
// for unknown IDs.
type Store interface {
	Save(ctx context.Context, r *Report) error
	Get(ctx context.Context, id string) (*Report, error)
	// List returns up to limit reports, newest first.
	List(ctx context.Context, limit int) ([]*Report, error)
	Delete(ctx context.Context, id string) error
	Close() error
}
