package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// coordinatePartRegex matches a groupId, artifactId, classifier or extension.
var coordinatePartRegex = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)

// ValidateCoordinatePart validates one field of an artifact coordinate.
// Coordinates become repository paths, so anything that could escape the
// repository root is rejected:
//   - No empty values
//   - No control characters
//   - No path traversal sequences or separators
//   - Maximum length of 256 characters
func ValidateCoordinatePart(field, value string) error {
	if value == "" {
		return New(ErrCodeInvalidCoordinate, "%s cannot be empty", field)
	}
	if len(value) > 256 {
		return New(ErrCodeInvalidCoordinate, "%s too long (max 256 characters)", field)
	}
	for _, r := range value {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidCoordinate, "%s contains invalid control characters", field)
		}
	}
	if value == "." || strings.Contains(value, "..") {
		return New(ErrCodeInvalidCoordinate, "%s cannot contain path traversal sequences: %q", field, value)
	}
	if !coordinatePartRegex.MatchString(value) {
		return New(ErrCodeInvalidCoordinate, "invalid %s: %q", field, value)
	}
	return nil
}

// ValidateVersionString validates a version or version-range literal.
// Range syntax characters are allowed; path separators are not.
func ValidateVersionString(v string) error {
	if strings.TrimSpace(v) == "" {
		return New(ErrCodeInvalidCoordinate, "version cannot be empty")
	}
	if len(v) > 256 {
		return New(ErrCodeInvalidCoordinate, "version too long (max 256 characters)")
	}
	for _, r := range v {
		if unicode.IsControl(r) || r == '/' || r == '\\' {
			return New(ErrCodeInvalidCoordinate, "version contains invalid characters: %q", v)
		}
	}
	return nil
}

// repositoryIDRegex matches repository identifiers used in cache paths.
var repositoryIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.\-]*$`)

// ValidateRepositoryID validates a remote repository identifier.
func ValidateRepositoryID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "repository id cannot be empty")
	}
	if strings.Contains(id, "..") || !repositoryIDRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "invalid repository id: %q", id)
	}
	return nil
}

// ValidatePath validates a file path within a repository for safety.
// It prevents path traversal attacks and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// ValidateRepositoryURL validates a remote repository URL.
// Supported schemes are http, https, file and s3.
func ValidateRepositoryURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	for _, scheme := range []string{"http://", "https://", "file://", "s3://"} {
		if strings.HasPrefix(rawURL, scheme) {
			return nil
		}
	}
	return New(ErrCodeInvalidInput, "URL must use http, https, file or s3 scheme: %q", rawURL)
}
