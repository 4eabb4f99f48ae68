package report

import (
	"context"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"

	errs "github.com/matzehuels/stackresolve/pkg/errors"
)

// DefaultMemorySize is the capacity of a MemoryStore created with size 0.
const DefaultMemorySize = 256

// MemoryStore keeps the most recently used reports in process.
type MemoryStore struct {
	reports *lru.Cache[string, *Report]
}

// NewMemoryStore creates a store holding at most size reports.
func NewMemoryStore(size int) (*MemoryStore, error) {
	if size <= 0 {
		size = DefaultMemorySize
	}
	c, err := lru.New[string, *Report](size)
	if err != nil {
		return nil, err
	}
	return &MemoryStore{reports: c}, nil
}

func (s *MemoryStore) Save(_ context.Context, r *Report) error {
	if r == nil || r.ID == "" {
		return errs.New(errs.ErrCodeInvalidInput, "report has no id")
	}
	s.reports.Add(r.ID, r)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Report, error) {
	r, ok := s.reports.Get(id)
	if !ok {
		return nil, errs.New(errs.ErrCodeReportNotFound, "report %s not found", id)
	}
	return r, nil
}

func (s *MemoryStore) List(_ context.Context, limit int) ([]*Report, error) {
	out := s.reports.Values()
	slices.SortStableFunc(out, func(a, b *Report) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.reports.Remove(id)
	return nil
}

func (s *MemoryStore) Close() error {
	s.reports.Purge()
	return nil
}

var _ Store = (*MemoryStore)(nil)
