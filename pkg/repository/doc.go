// Package repository maps artifacts and metadata onto repository paths.
//
// The default layout places an artifact at
//
//	groupId-with-slashes/artifactId/baseVersion/artifactId-version[-classifier].extension
//
// A [Local] repository keeps locally installed files at their layout path
// and files downloaded from a [Remote] under cached/<repositoryId>/, so
// that identical coordinates served by different repositories never
// collide. All path functions are pure.
//
// The package also models maven-metadata.xml ([Metadata]), which lists the
// versions published for an artifact and the timestamped deployments of a
// snapshot.
package repository
