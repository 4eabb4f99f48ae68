// Package pkg provides the core libraries for stackresolve, a Maven
// dependency resolver.
//
// # Overview
//
// Stackresolve turns a root artifact, a list of dependencies or a pom.xml
// into the ordered set of files that make up its class and module paths.
// The pkg directory is organized into four areas:
//
//  1. Models: [version], [artifact] and [repository] (coordinates,
//     version ordering and ranges, the repository layouts)
//  2. Resolution: [collect] builds the dependency graph, [resolve]
//     mediates conflicts, flattens the graph and dispatches files
//  3. Transfer: [download] fetches files into the local repository and
//     reports progress through [transfer]
//  4. Integration: [session] ties the above together for callers,
//     [integrations/maven] reads POMs and repository metadata,
//     [server] exposes resolution over HTTP
//
// # Architecture
//
// The data flow of a resolution:
//
//	root coordinate / pom.xml
//	         ↓
//	    [collect] (descriptors, management, exclusions, version ranges)
//	         ↓
//	    [resolve] (nearest wins, scope filtering, path dispatch)
//	         ↓
//	    [download] (local repository, checksums, transfer events)
//	         ↓
//	    class path / module path / report
//
// # Quick Start
//
//	s, err := session.New(repository.NewLocal(repository.DefaultBasedir()),
//	    []repository.Remote{repository.Central()}, session.Options{})
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	d := artifact.Dependency{Artifact: artifact.Artifact{
//	    GroupID: "org.slf4j", ArtifactID: "slf4j-simple", Version: "2.0.13", Extension: "jar",
//	}}
//	files, err := s.ResolveDependencies(ctx, session.Target{Dependency: &d}, resolve.MainRuntime)
//
// # Supporting Packages
//
// [cache] stores parsed descriptors, metadata and search responses in
// memory, files or Redis. [config] loads layered TOML settings.
// [observability] exposes hooks with a Prometheus implementation.
// [report] persists resolution summaries in memory or MongoDB. [render]
// prints graphs as text trees or Graphviz diagrams. [errors] defines the
// coded errors shared by all packages.
//
// [version]: github.com/matzehuels/stackresolve/pkg/version
// [artifact]: github.com/matzehuels/stackresolve/pkg/artifact
// [repository]: github.com/matzehuels/stackresolve/pkg/repository
// [collect]: github.com/matzehuels/stackresolve/pkg/collect
// [resolve]: github.com/matzehuels/stackresolve/pkg/resolve
// [download]: github.com/matzehuels/stackresolve/pkg/download
// [transfer]: github.com/matzehuels/stackresolve/pkg/transfer
// [session]: github.com/matzehuels/stackresolve/pkg/session
// [integrations/maven]: github.com/matzehuels/stackresolve/pkg/integrations/maven
// [server]: github.com/matzehuels/stackresolve/pkg/server
// [cache]: github.com/matzehuels/stackresolve/pkg/cache
// [config]: github.com/matzehuels/stackresolve/pkg/config
// [observability]: github.com/matzehuels/stackresolve/pkg/observability
// [report]: github.com/matzehuels/stackresolve/pkg/report
// [render]: github.com/matzehuels/stackresolve/pkg/render
// [errors]: github.com/matzehuels/stackresolve/pkg/errors
package pkg
