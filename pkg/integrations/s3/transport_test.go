package s3

import (
	"errors"
	"testing"

	"github.com/minio/minio-go/v7"

	errs "github.com/matzehuels/stackresolve/pkg/errors"
	"github.com/matzehuels/stackresolve/pkg/repository"
)

func TestLocate(t *testing.T) {
	tests := []struct {
		url, path   string
		bucket, key string
		wantErr     bool
	}{
		{"s3://artifacts", "org/example/lib/1.0/lib-1.0.jar", "artifacts", "org/example/lib/1.0/lib-1.0.jar", false},
		{"s3://artifacts/maven/releases/", "org/example/lib/1.0/lib-1.0.pom", "artifacts", "maven/releases/org/example/lib/1.0/lib-1.0.pom", false},
		{"s3://artifacts/maven", "/a/b.jar", "artifacts", "maven/a/b.jar", false},
		{"https://artifacts/maven", "a.jar", "", "", true},
		{"s3:///maven", "a.jar", "", "", true},
		{"s3://%zz", "a.jar", "", "", true},
	}
	for _, tt := range tests {
		bucket, key, err := Locate(tt.url, tt.path)
		if (err != nil) != tt.wantErr {
			t.Errorf("Locate(%q, %q) error = %v, wantErr %v", tt.url, tt.path, err, tt.wantErr)
			continue
		}
		if bucket != tt.bucket || key != tt.key {
			t.Errorf("Locate(%q, %q) = %q, %q; want %q, %q", tt.url, tt.path, bucket, key, tt.bucket, tt.key)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"complete", Config{Endpoint: "localhost:9000", AccessKey: "k", SecretKey: "s"}, true},
		{"no endpoint", Config{AccessKey: "k", SecretKey: "s"}, false},
		{"no secret", Config{Endpoint: "localhost:9000", AccessKey: "k"}, false},
		{"blank key", Config{Endpoint: "localhost:9000", AccessKey: "  ", SecretKey: "s"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err == nil) != tt.ok {
				t.Fatalf("Validate() = %v, want ok=%v", err, tt.ok)
			}
			if err != nil && !errs.Is(err, errs.ErrCodeInvalidConfig) {
				t.Errorf("code = %s, want INVALID_CONFIG", errs.GetCode(err))
			}
		})
	}
}

func TestNewTransport(t *testing.T) {
	if _, err := NewTransport(Config{}); !errs.Is(err, errs.ErrCodeInvalidConfig) {
		t.Errorf("empty config: err = %v", err)
	}
	tr, err := NewTransport(Config{Endpoint: "localhost:9000", AccessKey: "k", SecretKey: "s"})
	if err != nil {
		t.Fatal(err)
	}
	if tr.client.EndpointURL().Host != "localhost:9000" {
		t.Errorf("endpoint = %s", tr.client.EndpointURL())
	}
}

func TestClassify(t *testing.T) {
	repo := repository.Remote{ID: "store", URL: "s3://artifacts"}
	tests := []struct {
		err  error
		want errs.Code
	}{
		{minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404}, errs.ErrCodeArtifactNotFound},
		{minio.ErrorResponse{Code: "NoSuchBucket", StatusCode: 404}, errs.ErrCodeArtifactNotFound},
		{minio.ErrorResponse{Code: "AccessDenied", StatusCode: 403}, errs.ErrCodeArtifactTransfer},
		{errors.New("connection refused"), errs.ErrCodeNetwork},
	}
	for _, tt := range tests {
		if got := errs.GetCode(classify(tt.err, repo, "a.jar")); got != tt.want {
			t.Errorf("classify(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}
