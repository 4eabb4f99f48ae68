package download

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"

	errs "github.com/matzehuels/stackresolve/pkg/errors"
	"github.com/matzehuels/stackresolve/pkg/repository"
)

// Transport fetches files from one kind of remote repository.
// Implementations must be safe for concurrent use.
type Transport interface {
	// Get opens the file at path, relative to the repository root, and
	// returns its size (-1 if unknown). A missing file yields an error
	// with code ARTIFACT_NOT_FOUND.
	Get(ctx context.Context, repo repository.Remote, path string) (io.ReadCloser, int64, error)
}

// Transports maps URL schemes to transports.
type Transports map[string]Transport

// FileTransport serves file:// repositories.
type FileTransport struct{}

// Get implements Transport.
func (FileTransport) Get(ctx context.Context, repo repository.Remote, path string) (io.ReadCloser, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	u, err := url.Parse(repo.URL)
	if err != nil {
		return nil, 0, errs.Wrap(errs.ErrCodeInvalidInput, err, "repository %s", repo.ID)
	}
	f, err := os.Open(filepath.Join(filepath.FromSlash(u.Path), filepath.FromSlash(path)))
	if os.IsNotExist(err) {
		return nil, 0, errs.New(errs.ErrCodeArtifactNotFound, "%s not found in %s", path, repo.ID)
	}
	if err != nil {
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	return f, info.Size(), nil
}
