package maven

import (
	"context"
	"io"
	"time"

	"github.com/matzehuels/stackresolve/pkg/cache"
	errs "github.com/matzehuels/stackresolve/pkg/errors"
	"github.com/matzehuels/stackresolve/pkg/integrations"
	"github.com/matzehuels/stackresolve/pkg/repository"
)

// Retry defaults for HTTPTransport.
const (
	DefaultAttempts   = 3
	DefaultRetryDelay = time.Second
)

// HTTPTransport serves http:// and https:// repositories laid out in the
// Maven default layout. Credentials may be embedded in the repository URL.
type HTTPTransport struct {
	client   *integrations.Client
	attempts int
	delay    time.Duration
}

// NewHTTPTransport creates a transport. A nil client uses an uncached
// client with default settings.
func NewHTTPTransport(client *integrations.Client) *HTTPTransport {
	if client == nil {
		client = integrations.NewClient(nil, "repository", 0, nil)
	}
	return &HTTPTransport{client: client, attempts: DefaultAttempts, delay: DefaultRetryDelay}
}

// WithRetry sets the number of attempts for transient failures and the
// initial delay between them.
func (t *HTTPTransport) WithRetry(attempts int, delay time.Duration) *HTTPTransport {
	t.attempts, t.delay = attempts, delay
	return t
}

// Get implements download.Transport.
func (t *HTTPTransport) Get(ctx context.Context, repo repository.Remote, path string) (io.ReadCloser, int64, error) {
	url := integrations.JoinURL(repo.URL, path)
	var (
		body io.ReadCloser
		size int64
	)
	err := cache.Retry(ctx, t.attempts, t.delay, func() error {
		var err error
		body, size, err = t.client.Open(ctx, url, nil)
		return err
	})
	if errs.Is(err, errs.ErrCodeNotFound) {
		return nil, 0, errs.Wrap(errs.ErrCodeArtifactNotFound, err, "%s not found in %s", path, repo.ID)
	}
	if err != nil {
		return nil, 0, err
	}
	return body, size, nil
}
