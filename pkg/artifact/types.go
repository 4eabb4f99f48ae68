package artifact

import (
	"slices"
	"sync"
)

// Type describes how a logical dependency type maps to a file.
type Type struct {
	ID         string     // Logical name used in descriptors, e.g. "test-jar"
	Extension  string     // File extension
	Classifier string     // Default classifier (may be empty)
	Properties Properties // Flags copied onto artifacts of this type
}

// DefaultType is assumed when a dependency names no type.
const DefaultType = "jar"

// BuiltinTypes returns the types known to every registry.
func BuiltinTypes() []Type {
	cp := PropertiesOf(ClassPathConstituent)
	both := PropertiesOf(ClassPathConstituent, ModulePathConstituent)
	return []Type{
		{ID: "pom", Extension: "pom"},
		{ID: "bom", Extension: "pom"},
		{ID: "jar", Extension: "jar", Properties: both},
		{ID: "test-jar", Extension: "jar", Classifier: "tests", Properties: cp},
		{ID: "maven-plugin", Extension: "jar", Properties: cp},
		{ID: "java-source", Extension: "jar", Classifier: "sources"},
		{ID: "javadoc", Extension: "jar", Classifier: "javadoc"},
		{ID: "ejb", Extension: "jar", Properties: cp},
		{ID: "ejb-client", Extension: "jar", Classifier: "client", Properties: cp},
		{ID: "war", Extension: "war", Properties: PropertiesOf(IncludesDependencies)},
		{ID: "ear", Extension: "ear", Properties: PropertiesOf(IncludesDependencies)},
		{ID: "rar", Extension: "rar", Properties: PropertiesOf(IncludesDependencies)},
		{ID: "fatjar", Extension: "jar", Properties: PropertiesOf(IncludesDependencies, ClassPathConstituent)},
		{ID: "modular-jar", Extension: "jar", Properties: PropertiesOf(ModulePathConstituent)},
		{ID: "classpath-jar", Extension: "jar", Properties: cp},
		{ID: "processor", Extension: "jar", Properties: PropertiesOf(AnnotationProcessor)},
		{ID: "javaagent", Extension: "jar", Properties: PropertiesOf(JavaAgent)},
		{ID: "doclet", Extension: "jar", Properties: PropertiesOf(Doclet)},
	}
}

// TypeRegistry maps type names to types. It is safe for concurrent use.
type TypeRegistry struct {
	mu    sync.RWMutex
	types map[string]Type
}

// NewTypeRegistry returns a registry holding the built-in types.
func NewTypeRegistry() *TypeRegistry {
	r := &TypeRegistry{types: make(map[string]Type)}
	for _, t := range BuiltinTypes() {
		r.types[t.ID] = t
	}
	return r
}

// Register adds or replaces a type.
func (r *TypeRegistry) Register(t Type) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[t.ID] = t
}

// Lookup returns the named type. Unknown types map to a type whose
// extension is the type name and which carries no flags.
func (r *TypeRegistry) Lookup(id string) Type {
	if id == "" {
		id = DefaultType
	}
	r.mu.RLock()
	t, ok := r.types[id]
	r.mu.RUnlock()
	if !ok {
		return Type{ID: id, Extension: id}
	}
	return t
}

// IDs returns the registered type names in sorted order.
func (r *TypeRegistry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.types))
	for id := range r.types {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Apply fills a dependency's extension, classifier and properties from its
// type. Values already present on the artifact win over type defaults.
func (r *TypeRegistry) Apply(d Dependency) Dependency {
	t := r.Lookup(d.Type)
	if d.Type == "" {
		d.Type = t.ID
	}
	if d.Artifact.Extension == "" {
		d.Artifact.Extension = t.Extension
	}
	if d.Artifact.Classifier == "" {
		d.Artifact.Classifier = t.Classifier
	}
	d.Artifact.Properties = t.Properties.Merge(d.Artifact.Properties)
	return d
}
