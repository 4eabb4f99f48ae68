// Package collect builds the full dependency graph of a root artifact or
// project.
//
// The [Collector] walks the graph breadth first. Each level's descriptors
// are read concurrently through a [DescriptorSource]; children are then
// added in declaration order so the resulting graph is deterministic
// regardless of lookup timing. Along the way the collector:
//
//   - applies dependency management inherited from ancestors
//   - filters exclusions accumulated on the path from the root
//   - drops non-transitive scopes and optional dependencies below depth 1
//   - derives each node's scope from its parent's
//   - resolves version ranges and LATEST/RELEASE/snapshot versions
//     through a [VersionResolver]
//   - marks cycles instead of following them
//
// The returned [Graph] keeps every declared occurrence of an artifact,
// including conflicting versions. Conflict resolution is left to the
// resolve package.
//
// A node that cannot be collected carries its error and has no children;
// the walk continues elsewhere and the failure is reported in
// [Result.Errors]. Only a root failure aborts collection.
package collect
