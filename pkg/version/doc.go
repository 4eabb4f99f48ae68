// Package version implements Maven version ordering, version ranges and
// version constraints.
//
// # Versions
//
// [Parse] is total: every string is a version. Versions are split into
// groups at '-' and wherever digits meet letters, and groups into items at
// '.'. Groups and then items compare pairwise, the shorter side padded with
// nulls, which makes [Compare] a total order:
//
//	1 < 1.1 < 1.1.1
//	1-alpha < 1-beta < 1-milestone < 1-rc < 1-SNAPSHOT < 1 < 1-sp
//	1.0 == 1 == 1.0.0 == 1-ga == 1-final
//	1.0-alpha1 == 1.0-a1 == 1.0-alpha-1
//
// Items rank by kind: pre-release qualifiers, then null (0, ga, final,
// release), then sp, then unknown qualifiers lexically, then positive
// numbers of any length.
//
// # Ranges
//
// [ParseRange] accepts one or more comma separated restrictions:
//
//	[1.0,2.0)      1.0 <= x < 2.0
//	[1.0,)         x >= 1.0
//	(,1.0]         x <= 1.0
//	[1.2]          x == 1.2
//	(,1.0],[1.2,)  x <= 1.0 or x >= 1.2
//
// # Constraints
//
// [ParseConstraint] yields either a recommended (soft) version, for bare
// strings, or a set of ranges, for bracketed input. [Select] picks the
// highest candidate that satisfies a constraint.
//
// # Snapshots
//
// [IsSnapshot] recognises both "-SNAPSHOT" versions and timestamped
// deployments such as "1.0-20240101.120000-3"; [BaseVersion] maps the
// latter back to "1.0-SNAPSHOT".
package version
