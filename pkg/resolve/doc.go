// Package resolve turns a collected dependency graph into ordered lists of
// files.
//
// [Flatten] performs conflict resolution on a [collect.Graph]: for each
// artifact key the nearest occurrence wins (declaration order breaks ties),
// and only the winners' subtrees are considered further. Transitive winners
// take the widest scope of all competing occurrences. The result is then
// filtered by a [PathScope] such as main-compile or test-runtime.
//
// A [Resolver] runs the whole pipeline: collect, flatten, fetch each winner
// through a [Fetcher], and dispatch the files into [PathType] buckets by
// their artifact properties:
//
//	res, err := resolve.NewResolver(collector, downloader, logger).Resolve(ctx, resolve.Request{
//	    Collect: collect.Request{Root: &root, Repositories: repos},
//	    Scope:   resolve.MainRuntime,
//	    Types:   []resolve.PathType{resolve.ClassPath, resolve.ModulePath},
//	})
//	classpath := res.ByType[resolve.ClassPath]
package resolve
