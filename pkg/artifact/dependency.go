package artifact

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Scope is a dependency scope.
type Scope string

// Dependency scopes.
const (
	ScopeCompile     Scope = "compile"
	ScopeProvided    Scope = "provided"
	ScopeRuntime     Scope = "runtime"
	ScopeSystem      Scope = "system"
	ScopeTest        Scope = "test"
	ScopeImport      Scope = "import"
	ScopeCompileOnly Scope = "compile-only"
	ScopeTestOnly    Scope = "test-only"
	ScopeTestRuntime Scope = "test-runtime"
)

// Normalize maps the empty scope to compile.
func (s Scope) Normalize() Scope {
	if s == "" {
		return ScopeCompile
	}
	return s
}

// Transitive reports whether dependencies declared with this scope are
// inherited by consumers of the declaring module.
func (s Scope) Transitive() bool {
	switch s.Normalize() {
	case ScopeProvided, ScopeTest, ScopeCompileOnly, ScopeTestOnly, ScopeTestRuntime:
		return false
	}
	return true
}

// Exclusion removes matching artifacts from a dependency's subtree. Either
// field may be a wildcard pattern such as "*" or "org.slf4j.*".
type Exclusion struct {
	GroupID    string
	ArtifactID string
}

// Matches reports whether a is excluded.
func (e Exclusion) Matches(a Artifact) bool {
	return matchPattern(e.GroupID, a.GroupID) && matchPattern(e.ArtifactID, a.ArtifactID)
}

// String renders the exclusion as g:a.
func (e Exclusion) String() string {
	return e.GroupID + ":" + e.ArtifactID
}

func matchPattern(pattern, value string) bool {
	if pattern == "" || pattern == "*" {
		return true
	}
	if !strings.ContainsAny(pattern, "*?[{") {
		return pattern == value
	}
	ok, err := doublestar.Match(pattern, value)
	return err == nil && ok
}

// ParseExclusion parses "g:a"; a missing artifactId means "*".
func ParseExclusion(s string) Exclusion {
	g, a, found := strings.Cut(strings.TrimSpace(s), ":")
	if !found {
		a = "*"
	}
	return Exclusion{GroupID: g, ArtifactID: a}
}

// Dependency is a declared dependency on an artifact.
type Dependency struct {
	Artifact   Artifact    // Target; Version may be a range or LATEST/RELEASE
	Type       string      // Logical type, resolved through a TypeRegistry
	Scope      Scope       // Declared scope (empty means compile)
	Optional   bool        // Not inherited by consumers of the declaring module
	Exclusions []Exclusion // Artifacts removed from this dependency's subtree
}

// Excludes reports whether any of the dependency's exclusions matches a.
func (d Dependency) Excludes(a Artifact) bool {
	for _, e := range d.Exclusions {
		if e.Matches(a) {
			return true
		}
	}
	return false
}

// Key returns the identity of the dependency's artifact.
func (d Dependency) Key() Key { return d.Artifact.Key() }

// String renders the dependency as "g:a:ext[:classifier]:v (scope)".
func (d Dependency) String() string {
	s := d.Artifact.String() + " (" + string(d.Scope.Normalize())
	if d.Optional {
		s += ", optional"
	}
	return s + ")"
}
