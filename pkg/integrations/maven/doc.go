// Package maven adapts Maven-layout repositories to the collector and the
// downloader.
//
// # Overview
//
// The package provides four pieces:
//
//   - [HTTPTransport] serves http:// and https:// repositories to
//     download.Downloader.
//   - [DescriptorReader] reads pom.xml files as collect.Descriptor values:
//     parents are inherited, ${...} properties interpolated and
//     import-scoped BOMs merged into dependency management.
//   - [MetadataResolver] resolves LATEST, RELEASE, -SNAPSHOT and version
//     ranges from maven-metadata.xml, merging local and remote metadata.
//   - [SearchClient] queries the Maven Central search API.
//
// # Usage
//
//	dl := download.New(local, download.Transports{
//	    "https": maven.NewHTTPTransport(nil),
//	}, download.Options{})
//
//	descriptors := maven.NewDescriptorReader(dl, c, nil, logger)
//	versions := maven.NewMetadataResolver(dl, c, nil, logger)
//	collector := collect.New(descriptors, versions, nil, collect.Options{})
//
// # Caching
//
// Effective models are cached under [cache.Keyer.DescriptorKey] and raw
// metadata under [cache.Keyer.MetadataKey]. Snapshot entries expire after
// [cache.TTLSnapshot].
//
// # Projects
//
// [DescriptorReader.ReadProject] reads a pom.xml from disk. Its parent is
// taken from relativePath (default ../pom.xml) when the coordinates match,
// which is how multi-module builds reference an unreleased parent.
//
// [cache.Keyer.DescriptorKey]: github.com/matzehuels/stackresolve/pkg/cache.Keyer
// [cache.Keyer.MetadataKey]: github.com/matzehuels/stackresolve/pkg/cache.Keyer
// [cache.TTLSnapshot]: github.com/matzehuels/stackresolve/pkg/cache.TTLSnapshot
package maven
