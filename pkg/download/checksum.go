package download

import (
	"context"
	"encoding/hex"
	"hash"
	"io"
	"strings"

	errs "github.com/matzehuels/stackresolve/pkg/errors"
	"github.com/matzehuels/stackresolve/pkg/repository"
)

// ChecksumPolicy decides what happens when a download does not match its
// published checksum.
type ChecksumPolicy string

// Checksum policies.
const (
	ChecksumFail   ChecksumPolicy = "fail"   // Reject the file
	ChecksumWarn   ChecksumPolicy = "warn"   // Log and keep the file
	ChecksumIgnore ChecksumPolicy = "ignore" // Do not fetch checksums
)

// ChecksumAlgorithm is the digest verified for every download.
const ChecksumAlgorithm = "sha1"

// ParseChecksumPolicy parses a policy name. The empty string means warn.
func ParseChecksumPolicy(s string) (ChecksumPolicy, error) {
	switch p := ChecksumPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return ChecksumWarn, nil
	case ChecksumFail, ChecksumWarn, ChecksumIgnore:
		return p, nil
	}
	return "", errs.New(errs.ErrCodeInvalidConfig, "unknown checksum policy %q (want fail, warn or ignore)", s)
}

// fetchChecksum downloads the published digest of path. ok is false when
// the repository publishes none.
func fetchChecksum(ctx context.Context, t Transport, repo repository.Remote, path string) (sum string, ok bool, err error) {
	body, _, err := t.Get(ctx, repo, repository.ChecksumPath(path, ChecksumAlgorithm))
	if errs.Is(err, errs.ErrCodeArtifactNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	defer body.Close()
	data, err := io.ReadAll(io.LimitReader(body, 1024))
	if err != nil {
		return "", false, err
	}
	return parseChecksum(string(data)), true, nil
}

// parseChecksum extracts the digest from a checksum file, which may carry
// a file name after the hex digits.
func parseChecksum(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

func digest(h hash.Hash) string {
	return hex.EncodeToString(h.Sum(nil))
}
