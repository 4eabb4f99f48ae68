// Package artifact defines the coordinate model: artifacts, their
// version-less identity keys, declared dependencies with scopes and
// exclusions, dependency property flags, and the registry mapping logical
// dependency types to file extensions, classifiers and flags.
//
// Coordinates are written g:a[:ext[:classifier]]:v:
//
//	a, err := artifact.ParseCoordinate("org.slf4j:slf4j-api:2.0.9")
//	a.Key().String() // "org.slf4j:slf4j-api:jar"
//
// A [TypeRegistry] resolves the dependency type into the artifact actually
// stored in a repository:
//
//	reg := artifact.NewTypeRegistry()
//	d := reg.Apply(artifact.Dependency{Artifact: a, Type: "test-jar"})
//	d.Artifact.Classifier // "tests"
package artifact
