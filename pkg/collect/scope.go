package collect

import "github.com/matzehuels/stackresolve/pkg/artifact"

// DeriveScope returns the effective scope of a child declared with
// childScope below a parent whose effective scope is parentScope.
//
//	child system/test       -> child scope
//	parent compile (or "")  -> child scope
//	parent test/runtime     -> parent scope
//	parent provided/system  -> provided
//	parent compile-only     -> provided
//	parent test-only        -> test
//	parent test-runtime     -> test
//	anything else           -> runtime
func DeriveScope(parentScope, childScope artifact.Scope) artifact.Scope {
	child := childScope.Normalize()
	switch child {
	case artifact.ScopeSystem, artifact.ScopeTest:
		return child
	}
	switch parentScope {
	case "", artifact.ScopeCompile:
		return child
	case artifact.ScopeTest, artifact.ScopeRuntime:
		return parentScope
	case artifact.ScopeProvided, artifact.ScopeSystem, artifact.ScopeCompileOnly:
		return artifact.ScopeProvided
	case artifact.ScopeTestOnly, artifact.ScopeTestRuntime:
		return artifact.ScopeTest
	}
	return artifact.ScopeRuntime
}
