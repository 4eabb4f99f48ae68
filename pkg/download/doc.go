// Package download materializes artifacts and repository metadata in the
// local repository.
//
// A [Downloader] looks for an artifact in the local repository first:
// installed artifacts, then the per-repository cache areas. Missing files
// are fetched from each remote repository in order through the
// [Transport] registered for the repository's URL scheme, verified
// against the published .sha1 checksum, and moved into place atomically.
// Every fetch is reported to a [transfer.Listener], usually a
// [transfer.Multiplexer].
//
// The Downloader implements [resolve.Fetcher]; Fetch downloads a batch of
// artifacts with bounded concurrency.
package download
