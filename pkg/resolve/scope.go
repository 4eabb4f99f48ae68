package resolve

import (
	"github.com/matzehuels/stackresolve/pkg/artifact"
	errs "github.com/matzehuels/stackresolve/pkg/errors"
)

// PathScope selects which dependency scopes end up on a resolved path.
type PathScope string

// Path scopes.
const (
	MainCompile PathScope = "main-compile"
	MainRuntime PathScope = "main-runtime"
	TestCompile PathScope = "test-compile"
	TestRuntime PathScope = "test-runtime"
)

var pathScopeIncludes = map[PathScope][]artifact.Scope{
	MainCompile: {artifact.ScopeCompile, artifact.ScopeCompileOnly, artifact.ScopeProvided, artifact.ScopeSystem},
	MainRuntime: {artifact.ScopeCompile, artifact.ScopeRuntime, artifact.ScopeSystem},
	TestCompile: {artifact.ScopeCompile, artifact.ScopeCompileOnly, artifact.ScopeProvided, artifact.ScopeSystem, artifact.ScopeTest, artifact.ScopeTestOnly},
	TestRuntime: {artifact.ScopeCompile, artifact.ScopeRuntime, artifact.ScopeProvided, artifact.ScopeSystem, artifact.ScopeTest, artifact.ScopeTestRuntime},
}

// PathScopes returns all path scopes.
func PathScopes() []PathScope {
	return []PathScope{MainCompile, MainRuntime, TestCompile, TestRuntime}
}

// Includes reports whether dependencies with scope s belong to the path.
func (p PathScope) Includes(s artifact.Scope) bool {
	s = s.Normalize()
	for _, inc := range pathScopeIncludes[p] {
		if inc == s {
			return true
		}
	}
	return false
}

// Scopes returns the dependency scopes included by p.
func (p PathScope) Scopes() []artifact.Scope {
	return append([]artifact.Scope(nil), pathScopeIncludes[p]...)
}

// ParsePathScope parses a path scope name.
func ParsePathScope(s string) (PathScope, error) {
	p := PathScope(s)
	if _, ok := pathScopeIncludes[p]; !ok {
		return "", errs.New(errs.ErrCodeInvalidInput, "unknown path scope %q (want main-compile, main-runtime, test-compile or test-runtime)", s)
	}
	return p, nil
}

// PathType is a kind of tool path a file can be placed on.
type PathType string

// Path types.
const (
	ClassPath     PathType = "classpath"
	ModulePath    PathType = "modulepath"
	ProcessorPath PathType = "processor-path"
	AgentPath     PathType = "agent"
	DocletPath    PathType = "doclet"
)

var pathTypeFlags = map[PathType]string{
	ClassPath:     artifact.ClassPathConstituent,
	ModulePath:    artifact.ModulePathConstituent,
	ProcessorPath: artifact.AnnotationProcessor,
	AgentPath:     artifact.JavaAgent,
	DocletPath:    artifact.Doclet,
}

// PathTypes returns all path types.
func PathTypes() []PathType {
	return []PathType{ClassPath, ModulePath, ProcessorPath, AgentPath, DocletPath}
}

// Flag returns the artifact property that admits a file to the path.
func (t PathType) Flag() string { return pathTypeFlags[t] }

// ParsePathType parses a path type name.
func ParsePathType(s string) (PathType, error) {
	t := PathType(s)
	if _, ok := pathTypeFlags[t]; !ok {
		return "", errs.New(errs.ErrCodeInvalidInput, "unknown path type %q", s)
	}
	return t, nil
}
