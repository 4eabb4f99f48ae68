package maven

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackresolve/pkg/artifact"
	"github.com/matzehuels/stackresolve/pkg/cache"
	"github.com/matzehuels/stackresolve/pkg/download"
	"github.com/matzehuels/stackresolve/pkg/repository"
)

var quiet = log.New(io.Discard)

func testCache(t *testing.T) cache.Cache {
	t.Helper()
	c, err := cache.NewMemoryCache(64)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

// fileRepo creates a file:// repository holding files.
func fileRepo(t *testing.T, id string, files map[string]string) (repository.Remote, string) {
	t.Helper()
	dir := t.TempDir()
	writeFiles(t, dir, files)
	return repository.Remote{ID: id, URL: "file://" + filepath.ToSlash(dir)}, dir
}

func newDownloader(t *testing.T) *download.Downloader {
	t.Helper()
	return download.New(repository.NewLocal(t.TempDir()), nil, download.Options{
		ChecksumPolicy: download.ChecksumIgnore,
		Logger:         quiet,
	})
}

// countingDownloader records Download calls per coordinate.
type countingDownloader struct {
	ArtifactDownloader
	mu    sync.Mutex
	calls map[string]int
}

func counting(d ArtifactDownloader) *countingDownloader {
	return &countingDownloader{ArtifactDownloader: d, calls: make(map[string]int)}
}

func (c *countingDownloader) Download(ctx context.Context, a artifact.Artifact, repos []repository.Remote) (string, error) {
	c.mu.Lock()
	c.calls[a.String()]++
	c.mu.Unlock()
	return c.ArtifactDownloader.Download(ctx, a, repos)
}

func (c *countingDownloader) total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.calls {
		n += v
	}
	return n
}
