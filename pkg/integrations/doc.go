// Package integrations provides HTTP clients for artifact repositories.
//
// # Overview
//
// This package contains the shared HTTP client used by repository adapters.
// Each repository kind has its own subpackage:
//
//   - [maven]: Maven-layout HTTP repositories (transport, POM descriptors,
//     maven-metadata.xml version resolution, Maven Central search)
//   - [s3]: S3-compatible object stores holding a Maven layout
//
// # Shared Infrastructure
//
// The [Client] type handles:
//   - HTTP requests with retry of transient failures ([cache.RetryWithBackoff])
//   - Response caching through any [cache.Cache] backend
//   - Basic authentication from credentials embedded in repository URLs
//   - Request metrics through [observability.HTTP] hooks
//
// Errors carry codes from [errors]: a missing file is NOT_FOUND and matches
// [ErrNotFound]; connection failures and 5xx responses are NETWORK_ERROR and
// match [ErrNetwork].
//
// [maven]: github.com/matzehuels/stackresolve/pkg/integrations/maven
// [s3]: github.com/matzehuels/stackresolve/pkg/integrations/s3
// [cache.Cache]: github.com/matzehuels/stackresolve/pkg/cache.Cache
// [cache.RetryWithBackoff]: github.com/matzehuels/stackresolve/pkg/cache.RetryWithBackoff
// [observability.HTTP]: github.com/matzehuels/stackresolve/pkg/observability.HTTP
// [errors]: github.com/matzehuels/stackresolve/pkg/errors
package integrations
