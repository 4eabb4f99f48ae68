// Package s3 serves Maven-layout repositories stored in S3-compatible
// object stores.
//
// A repository URL has the form s3://bucket/optional/prefix. The endpoint
// and credentials are shared by every s3:// repository of a session and
// come from [Config].
package s3

import (
	"context"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	errs "github.com/matzehuels/stackresolve/pkg/errors"
	"github.com/matzehuels/stackresolve/pkg/observability"
	"github.com/matzehuels/stackresolve/pkg/repository"
)

// Scheme is the URL scheme handled by Transport.
const Scheme = "s3"

// DefaultRegion is used when Config.Region is empty.
const DefaultRegion = "us-east-1"

// Config holds the object store connection settings.
type Config struct {
	Endpoint  string `toml:"endpoint"`
	Region    string `toml:"region"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	UseSSL    bool   `toml:"use_ssl"`
}

// Validate reports missing settings.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return errs.New(errs.ErrCodeInvalidConfig, "s3 endpoint is required")
	}
	if strings.TrimSpace(c.AccessKey) == "" || strings.TrimSpace(c.SecretKey) == "" {
		return errs.New(errs.ErrCodeInvalidConfig, "s3 access key and secret key are required")
	}
	return nil
}

// Transport implements download.Transport for s3:// repositories.
type Transport struct {
	client *minio.Client
}

// NewTransport connects a transport to the configured endpoint. No request
// is made until the first Get.
func NewTransport(cfg Config) (*Transport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = DefaultRegion
	}
	client, err := minio.New(strings.TrimSpace(cfg.Endpoint), &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(cfg.AccessKey), strings.TrimSpace(cfg.SecretKey), ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "init s3 client")
	}
	return &Transport{client: client}, nil
}

// Get implements download.Transport.
func (t *Transport) Get(ctx context.Context, repo repository.Remote, path string) (io.ReadCloser, int64, error) {
	bucket, key, err := Locate(repo.URL, path)
	if err != nil {
		return nil, 0, err
	}

	host, object := t.client.EndpointURL().Host, bucket+"/"+key
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, "GET", host, object)
	start := time.Now()

	obj, err := t.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		hooks.OnError(ctx, "GET", host, object, err)
		return nil, 0, classify(err, repo, path)
	}
	// GetObject is lazy; Stat performs the request.
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		status := minio.ToErrorResponse(err).StatusCode
		if status == 0 {
			hooks.OnError(ctx, "GET", host, object, err)
		} else {
			hooks.OnResponse(ctx, "GET", host, object, status, time.Since(start))
		}
		return nil, 0, classify(err, repo, path)
	}
	hooks.OnResponse(ctx, "GET", host, object, 200, time.Since(start))
	return obj, info.Size, nil
}

func classify(err error, repo repository.Remote, path string) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return errs.Wrap(errs.ErrCodeArtifactNotFound, err, "%s not found in %s", path, repo.ID)
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return errs.Wrap(errs.ErrCodeArtifactTransfer, err, "access to %s denied", repo.ID)
	}
	return errs.Wrap(errs.ErrCodeNetwork, err, "fetch %s from %s", path, repo.ID)
}

// Locate splits a repository URL and a relative file path into the bucket
// and object key.
func Locate(repoURL, path string) (bucket, key string, err error) {
	u, err := url.Parse(repoURL)
	if err != nil {
		return "", "", errs.Wrap(errs.ErrCodeInvalidInput, err, "parse repository url %q", repoURL)
	}
	if u.Scheme != Scheme || u.Host == "" {
		return "", "", errs.New(errs.ErrCodeInvalidInput, "%q is not an s3://bucket url", repoURL)
	}
	prefix := strings.Trim(u.Path, "/")
	key = strings.TrimLeft(strings.TrimSpace(path), "/")
	if prefix != "" {
		key = prefix + "/" + key
	}
	return u.Host, key, nil
}
