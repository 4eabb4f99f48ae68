package download

import (
	"context"
	"crypto/sha1"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/stackresolve/pkg/artifact"
	errs "github.com/matzehuels/stackresolve/pkg/errors"
	"github.com/matzehuels/stackresolve/pkg/repository"
	"github.com/matzehuels/stackresolve/pkg/resolve"
	"github.com/matzehuels/stackresolve/pkg/transfer"
)

// DefaultConcurrency is the default number of parallel downloads.
const DefaultConcurrency = 8

// Options configures a Downloader.
type Options struct {
	Concurrency    int               // Parallel downloads in Fetch (default: 8)
	Offline        bool              // Only file:// repositories may be contacted
	ChecksumPolicy ChecksumPolicy    // Default: warn
	Listener       transfer.Listener // Receives transfer events (optional)
	Logger         *log.Logger
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.ChecksumPolicy == "" {
		opts.ChecksumPolicy = ChecksumWarn
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return opts
}

// Downloader fetches artifacts into a local repository.
type Downloader struct {
	local      repository.Local
	transports Transports
	opts       Options
}

// New creates a Downloader. file:// repositories are always served by
// FileTransport unless transports overrides it.
func New(local repository.Local, transports Transports, opts Options) *Downloader {
	ts := Transports{"file": FileTransport{}}
	for scheme, t := range transports {
		ts[scheme] = t
	}
	return &Downloader{local: local, transports: ts, opts: opts.WithDefaults()}
}

// Local returns the local repository.
func (d *Downloader) Local() repository.Local { return d.local }

// Offline reports whether remote repositories are disabled.
func (d *Downloader) Offline() bool { return d.opts.Offline }

// Fetch implements resolve.Fetcher. The first failure cancels the
// remaining downloads.
func (d *Downloader) Fetch(ctx context.Context, reqs []resolve.FetchRequest) ([]string, error) {
	paths := make([]string, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Concurrency)
	for i, r := range reqs {
		g.Go(func() error {
			p, err := d.Download(ctx, r.Artifact, r.Repositories)
			if err != nil {
				return err
			}
			paths[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

// Find returns the absolute path of a in the local repository without
// contacting any remote.
func (d *Downloader) Find(a artifact.Artifact, repos []repository.Remote) (string, bool) {
	if p := d.local.Abs(d.local.PathForLocalArtifact(a)); exists(p) {
		return p, true
	}
	for _, repo := range repos {
		if p := d.local.Abs(d.local.PathForRemoteArtifact(repo, a)); exists(p) {
			return p, true
		}
	}
	return "", false
}

// Download returns the absolute local path of a, fetching it from the
// first repository that has it.
func (d *Downloader) Download(ctx context.Context, a artifact.Artifact, repos []repository.Remote) (string, error) {
	if p, ok := d.Find(a, repos); ok {
		return p, nil
	}
	if err := a.Validate(); err != nil {
		return "", err
	}

	candidates := d.reachable(repos)
	if len(candidates) == 0 {
		if d.opts.Offline {
			return "", errs.New(errs.ErrCodeOffline, "%s is not in the local repository and remote repositories are disabled", a)
		}
		return "", errs.New(errs.ErrCodeArtifactNotFound, "%s: no repositories to download from", a)
	}

	rel := repository.ArtifactPath(a)
	var failures []error
	allMissing := true
	for _, repo := range candidates {
		dest := d.local.Abs(d.local.PathForRemoteArtifact(repo, a))
		err := d.get(ctx, repo, rel, dest)
		if err == nil {
			return dest, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !errs.Is(err, errs.ErrCodeArtifactNotFound) {
			allMissing = false
		}
		failures = append(failures, err)
	}

	if allMissing {
		return "", errs.New(errs.ErrCodeArtifactNotFound, "%s not found in %s", a, repoIDs(candidates))
	}
	return "", errs.Wrap(errs.ErrCodeArtifactTransfer, errors.Join(failures...), "download %s", a)
}

// DownloadMetadata fetches maven-metadata.xml for ref from repo into the
// repository's cache area and returns its absolute path. Offline, the
// previously cached copy is returned.
func (d *Downloader) DownloadMetadata(ctx context.Context, ref repository.MetadataRef, repo repository.Remote) (string, error) {
	dest := d.local.Abs(d.local.PathForRemoteMetadata(repo, ref))
	if len(d.reachable([]repository.Remote{repo})) == 0 {
		if exists(dest) {
			return dest, nil
		}
		return "", errs.New(errs.ErrCodeOffline, "metadata for %s:%s is not cached for %s", ref.GroupID, ref.ArtifactID, repo.ID)
	}
	if err := d.get(ctx, repo, repository.MetadataPath(ref, repository.RemoteMetadataFile), dest); err != nil {
		return "", err
	}
	return dest, nil
}

// LocalMetadata returns the path of locally installed metadata for ref if
// it exists.
func (d *Downloader) LocalMetadata(ref repository.MetadataRef) (string, bool) {
	p := d.local.Abs(d.local.PathForLocalMetadata(ref))
	return p, exists(p)
}

func (d *Downloader) reachable(repos []repository.Remote) []repository.Remote {
	if !d.opts.Offline {
		return repos
	}
	var out []repository.Remote
	for _, r := range repos {
		if r.Scheme() == "file" {
			out = append(out, r)
		}
	}
	return out
}

// get transfers one file and moves it to dest once it is complete and
// verified.
func (d *Downloader) get(ctx context.Context, repo repository.Remote, rel, dest string) (err error) {
	res := transfer.Resource{RepositoryID: repo.ID, RepositoryURL: repo.URL, Name: rel, File: dest, ContentLength: -1}

	t, ok := d.transports[repo.Scheme()]
	if !ok {
		err := errs.New(errs.ErrCodeUnsupported, "no transport for %s repositories (%s)", repo.Scheme(), repo.ID)
		d.emit(transfer.Event{Type: transfer.Initiated, Resource: res})
		d.emit(transfer.Event{Type: transfer.Failed, Resource: res, Err: err})
		return err
	}

	if err := d.emit(transfer.Event{Type: transfer.Initiated, Resource: res}); err != nil {
		d.emit(transfer.Event{Type: transfer.Failed, Resource: res, Err: err})
		return err
	}

	var transferred int64
	defer func() {
		if err != nil {
			d.emit(transfer.Event{Type: transfer.Failed, Resource: res, Transferred: transferred, Err: err})
		}
	}()

	body, size, err := t.Get(ctx, repo, rel)
	if err != nil {
		return err
	}
	defer body.Close()
	res.ContentLength = size
	if err := d.emit(transfer.Event{Type: transfer.Started, Resource: res}); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return errs.Wrap(errs.ErrCodeArtifactTransfer, err, "create %s", filepath.Dir(dest))
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".part-*")
	if err != nil {
		return errs.Wrap(errs.ErrCodeArtifactTransfer, err, "create temporary file for %s", rel)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	h := sha1.New()
	buf := make([]byte, 32*1024)
	for {
		n, rerr := body.Read(buf)
		if n > 0 {
			if _, err := tmp.Write(buf[:n]); err != nil {
				return errs.Wrap(errs.ErrCodeArtifactTransfer, err, "write %s", rel)
			}
			h.Write(buf[:n])
			transferred += int64(n)
			if err := d.emit(transfer.Event{Type: transfer.Progressed, Resource: res, Transferred: transferred, DataLength: n}); err != nil {
				return err
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return errs.Wrap(errs.ErrCodeArtifactTransfer, rerr, "read %s from %s", rel, repo.ID)
		}
	}
	if err := tmp.Close(); err != nil {
		return errs.Wrap(errs.ErrCodeArtifactTransfer, err, "close %s", tmp.Name())
	}

	if err := d.verify(ctx, t, repo, rel, digest(h), res, transferred); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return errs.Wrap(errs.ErrCodeArtifactTransfer, err, "install %s", dest)
	}

	d.emit(transfer.Event{Type: transfer.Succeeded, Resource: res, Transferred: transferred})
	return nil
}

func (d *Downloader) verify(ctx context.Context, t Transport, repo repository.Remote, rel, actual string, res transfer.Resource, transferred int64) error {
	if d.opts.ChecksumPolicy == ChecksumIgnore || strings.HasSuffix(rel, "."+ChecksumAlgorithm) {
		return nil
	}
	expected, ok, err := fetchChecksum(ctx, t, repo, rel)
	if err != nil {
		d.opts.Logger.Warn("could not fetch checksum", "file", rel, "repository", repo.ID, "err", err)
		return nil
	}
	if !ok {
		d.opts.Logger.Debug("no checksum published", "file", rel, "repository", repo.ID)
		return nil
	}
	if expected == actual {
		return nil
	}

	cerr := &errs.ChecksumError{File: rel, Algorithm: ChecksumAlgorithm, Expected: expected, Actual: actual}
	d.emit(transfer.Event{Type: transfer.Corrupted, Resource: res, Transferred: transferred, Err: cerr})
	if d.opts.ChecksumPolicy == ChecksumFail {
		return errs.Wrap(errs.ErrCodeChecksumFailure, cerr, "verify %s from %s", rel, repo.ID)
	}
	d.opts.Logger.Warn("checksum mismatch", "file", rel, "repository", repo.ID, "expected", expected, "actual", actual)
	return nil
}

// emit delivers e to the listener. Only a cancellation request is
// returned; other listener errors are logged.
func (d *Downloader) emit(e transfer.Event) error {
	if d.opts.Listener == nil {
		return nil
	}
	err := d.opts.Listener.Transfer(e)
	if err == nil {
		return nil
	}
	if errors.Is(err, transfer.ErrCancelled) {
		return errs.Wrap(errs.ErrCodeArtifactTransfer, err, "transfer of %s", e.Resource.Name)
	}
	d.opts.Logger.Debug("transfer listener failed", "event", e.Type, "file", e.Resource.Name, "err", err)
	return nil
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func repoIDs(repos []repository.Remote) string {
	ids := make([]string, len(repos))
	for i, r := range repos {
		ids[i] = r.ID
	}
	return "[" + strings.Join(ids, ", ") + "]"
}

var _ resolve.Fetcher = (*Downloader)(nil)
