package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/stackresolve/pkg/observability"
)

func testBackend(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	if _, hit, err := c.Get(ctx, "missing"); err != nil || hit {
		t.Fatalf("Get(missing) = hit %v, err %v", hit, err)
	}
	if err := c.Set(ctx, "k", []byte("value"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "value" {
		t.Fatalf("Get(k) = %q, %v, %v", data, hit, err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("entry survived Delete")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete(missing): %v", err)
	}
}

func TestFileCache(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	testBackend(t, c)
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry returned")
	}
}

func TestMemoryCache(t *testing.T) {
	c, err := NewMemoryCache(16)
	if err != nil {
		t.Fatal(err)
	}
	testBackend(t, c)
}

func TestMemoryCacheEvictsAndExpires(t *testing.T) {
	ctx := context.Background()
	c, err := NewMemoryCache(2)
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_ = c.Set(ctx, "a", []byte("1"), 0)
	_ = c.Set(ctx, "b", []byte("2"), time.Minute)
	_ = c.Set(ctx, "c", []byte("3"), 0)

	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("least recently used entry not evicted")
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}

	now = now.Add(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "b"); hit {
		t.Error("expired entry returned")
	}
	if _, hit, _ := c.Get(ctx, "c"); !hit {
		t.Error("entry without ttl expired")
	}
}

func TestMemoryCacheCopiesValues(t *testing.T) {
	ctx := context.Background()
	c, _ := NewMemoryCache(0)
	buf := []byte("abc")
	_ = c.Set(ctx, "k", buf, 0)
	buf[0] = 'x'
	got, _, _ := c.Get(ctx, "k")
	if string(got) != "abc" {
		t.Errorf("cached value aliased caller buffer: %q", got)
	}
}

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "key"); hit {
		t.Error("NullCache stored data")
	}
}

func TestHash(t *testing.T) {
	if Hash([]byte("hello")) != Hash([]byte("hello")) {
		t.Error("Hash is not deterministic")
	}
	if Hash([]byte("hello")) == Hash([]byte("world")) {
		t.Error("different inputs hash equal")
	}
	if n := len(Hash([]byte("hello"))); n != 64 {
		t.Errorf("Hash length = %d, want 64", n)
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	if got := k.DescriptorKey("g:a:pom:1"); got != "descriptor:g:a:pom:1" {
		t.Errorf("DescriptorKey = %s", got)
	}
	if got := k.MetadataKey("central", "g:a"); got != "metadata:central:g:a" {
		t.Errorf("MetadataKey = %s", got)
	}
	if got := k.HTTPKey("central", "https://x/y"); got != "http:central:https://x/y" {
		t.Errorf("HTTPKey = %s", got)
	}

	r1 := k.ResolutionKey("g:a:jar:1", ResolutionKeyOpts{Scope: "main-runtime"})
	r2 := k.ResolutionKey("g:a:jar:1", ResolutionKeyOpts{Scope: "test-runtime"})
	if r1 == r2 {
		t.Error("different scopes produced the same resolution key")
	}
	if !strings.HasPrefix(r1, "resolution:") {
		t.Errorf("ResolutionKey = %s", r1)
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(nil, "team:")
	if got := scoped.DescriptorKey("g:a:pom:1"); got != "team:descriptor:g:a:pom:1" {
		t.Errorf("DescriptorKey = %s", got)
	}
	if got := scoped.ResolutionKey("r", ResolutionKeyOpts{}); !strings.HasPrefix(got, "team:resolution:") {
		t.Errorf("ResolutionKey = %s", got)
	}
}

type countingHooks struct {
	observability.NoopCacheHooks
	hits, misses, sets map[string]int
}

func (h *countingHooks) OnCacheHit(_ context.Context, kt string)     { h.hits[kt]++ }
func (h *countingHooks) OnCacheMiss(_ context.Context, kt string)    { h.misses[kt]++ }
func (h *countingHooks) OnCacheSet(_ context.Context, kt string, _ int) { h.sets[kt]++ }

func TestInstrumented(t *testing.T) {
	hooks := &countingHooks{hits: map[string]int{}, misses: map[string]int{}, sets: map[string]int{}}
	observability.SetCacheHooks(hooks)
	defer observability.Reset()

	ctx := context.Background()
	mem, _ := NewMemoryCache(0)
	c := Instrument(mem)

	_, _, _ = c.Get(ctx, "descriptor:x")
	_ = c.Set(ctx, "descriptor:x", []byte("1"), 0)
	_, _, _ = c.Get(ctx, "descriptor:x")
	_, _, _ = c.Get(ctx, "plain")

	if hooks.misses["descriptor"] != 1 || hooks.hits["descriptor"] != 1 || hooks.sets["descriptor"] != 1 {
		t.Errorf("hooks = hits %v misses %v sets %v", hooks.hits, hooks.misses, hooks.sets)
	}
	if hooks.misses["other"] != 1 {
		t.Errorf("key without type not reported as other: %v", hooks.misses)
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}
	base := errors.New("connection reset")
	err := Retryable(base)
	if !IsRetryable(err) {
		t.Error("IsRetryable = false for wrapped error")
	}
	if err.Error() != base.Error() {
		t.Errorf("message not preserved: %s", err)
	}
	if IsRetryable(base) {
		t.Error("IsRetryable = true for plain error")
	}
}

func TestRetry(t *testing.T) {
	ctx := context.Background()
	transient := Retryable(errors.New("503"))
	permanent := errors.New("404")

	tests := []struct {
		name      string
		failures  int
		err       error
		wantCalls int
		wantErr   bool
	}{
		{"success", 0, nil, 1, false},
		{"permanent", 1, permanent, 1, true},
		{"transient then success", 1, transient, 2, false},
		{"exhausted", 5, transient, 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Retry(ctx, 3, time.Millisecond, func() error {
				calls++
				if calls <= tt.failures {
					return tt.err
				}
				return nil
			})
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestRetryContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := RetryWithBackoff(ctx, func() error {
		return Retryable(errors.New("timeout"))
	})
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
