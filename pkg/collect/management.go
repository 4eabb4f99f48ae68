package collect

import "github.com/matzehuels/stackresolve/pkg/artifact"

// managementScope is a chain of dependencyManagement sections from a
// node's parent up to the root.
type managementScope struct {
	entries map[artifact.Key]artifact.Dependency
	parent  *managementScope
}

// lookup returns the nearest managed entry for key.
func (m *managementScope) lookup(key artifact.Key) (artifact.Dependency, bool) {
	for s := m; s != nil; s = s.parent {
		if d, ok := s.entries[key]; ok {
			return d, true
		}
	}
	return artifact.Dependency{}, false
}

type management map[artifact.Key]artifact.Dependency

// newManagement indexes managed dependencies by key. Imports are expanded
// by descriptor sources and skipped here. The first entry for a key wins.
func newManagement(deps []artifact.Dependency, types *artifact.TypeRegistry) management {
	m := make(management, len(deps))
	for _, d := range deps {
		if d.Scope == artifact.ScopeImport {
			continue
		}
		d = types.Apply(d)
		if _, ok := m[d.Key()]; !ok {
			m[d.Key()] = d
		}
	}
	return m
}

// over returns m overlaid on base; entries of m win.
func (m management) over(base management) management {
	out := make(management, len(m)+len(base))
	for k, d := range base {
		out[k] = d
	}
	for k, d := range m {
		out[k] = d
	}
	return out
}
