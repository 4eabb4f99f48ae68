package artifact

import (
	"maps"
	"slices"
)

// Well-known dependency property flags.
const (
	IncludesDependencies  = "includesDependencies"      // Artifact bundles its own dependencies
	ClassPathConstituent  = "classPathConstituent"      // Belongs on the class path
	ModulePathConstituent = "modulePathConstituent"     // Belongs on the module path
	JavaAgent             = "isJavaAgent"               // Loaded with -javaagent
	AnnotationProcessor   = "isJavaAnnotationProcessor" // Belongs on the processor path
	Doclet                = "isJavaDoclet"              // Javadoc doclet
)

// Properties is an immutable set of boolean flags. Unknown keys are
// allowed and preserved.
type Properties struct {
	flags map[string]bool
}

// NewProperties copies flags into a Properties value.
func NewProperties(flags map[string]bool) Properties {
	if len(flags) == 0 {
		return Properties{}
	}
	return Properties{flags: maps.Clone(flags)}
}

// PropertiesOf returns Properties with each named flag set to true.
func PropertiesOf(names ...string) Properties {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return Properties{flags: m}
}

// CheckFlag reports the flag's value; absent flags are false.
func (p Properties) CheckFlag(name string) bool {
	return p.flags[name]
}

// With returns a copy of p with name set to v.
func (p Properties) With(name string, v bool) Properties {
	m := maps.Clone(p.flags)
	if m == nil {
		m = make(map[string]bool, 1)
	}
	m[name] = v
	return Properties{flags: m}
}

// Merge returns a copy of p overlaid with o.
func (p Properties) Merge(o Properties) Properties {
	if len(o.flags) == 0 {
		return p
	}
	m := maps.Clone(p.flags)
	if m == nil {
		m = make(map[string]bool, len(o.flags))
	}
	maps.Copy(m, o.flags)
	return Properties{flags: m}
}

// Keys returns the flag names in sorted order.
func (p Properties) Keys() []string {
	return slices.Sorted(maps.Keys(p.flags))
}

// Map returns a copy of the underlying flags.
func (p Properties) Map() map[string]bool {
	return maps.Clone(p.flags)
}
