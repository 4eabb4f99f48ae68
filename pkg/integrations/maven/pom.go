package maven

import (
	"encoding/xml"
	"io"
	"strings"

	errs "github.com/matzehuels/stackresolve/pkg/errors"
)

// maxInterpolationPasses bounds nested ${...} expansion.
const maxInterpolationPasses = 10

// POM is the subset of a project object model needed to collect
// dependencies. The zero value is an empty model.
type POM struct {
	Parent               *Parent      `xml:"parent" json:"parent,omitempty"`
	GroupID              string       `xml:"groupId" json:"groupId,omitempty"`
	ArtifactID           string       `xml:"artifactId" json:"artifactId"`
	Version              string       `xml:"version" json:"version,omitempty"`
	Packaging            string       `xml:"packaging" json:"packaging,omitempty"`
	Name                 string       `xml:"name" json:"name,omitempty"`
	Description          string       `xml:"description" json:"description,omitempty"`
	Properties           Properties   `xml:"properties" json:"properties,omitempty"`
	DependencyManagement []Dependency `xml:"dependencyManagement>dependencies>dependency" json:"dependencyManagement,omitempty"`
	Dependencies         []Dependency `xml:"dependencies>dependency" json:"dependencies,omitempty"`
	Repositories         []Repository `xml:"repositories>repository" json:"repositories,omitempty"`
}

// Parent references the POM a model inherits from.
type Parent struct {
	GroupID      string `xml:"groupId" json:"groupId"`
	ArtifactID   string `xml:"artifactId" json:"artifactId"`
	Version      string `xml:"version" json:"version"`
	RelativePath string `xml:"relativePath" json:"relativePath,omitempty"`
}

// Dependency is a <dependency> element. Optional is kept as text so that
// it can be interpolated.
type Dependency struct {
	GroupID    string      `xml:"groupId" json:"groupId"`
	ArtifactID string      `xml:"artifactId" json:"artifactId"`
	Version    string      `xml:"version" json:"version,omitempty"`
	Type       string      `xml:"type" json:"type,omitempty"`
	Classifier string      `xml:"classifier" json:"classifier,omitempty"`
	Scope      string      `xml:"scope" json:"scope,omitempty"`
	Optional   string      `xml:"optional" json:"optional,omitempty"`
	Exclusions []Exclusion `xml:"exclusions>exclusion" json:"exclusions,omitempty"`
}

// Exclusion is an <exclusion> element.
type Exclusion struct {
	GroupID    string `xml:"groupId" json:"groupId"`
	ArtifactID string `xml:"artifactId" json:"artifactId"`
}

// Repository is a <repository> element.
type Repository struct {
	ID  string `xml:"id" json:"id"`
	URL string `xml:"url" json:"url"`
}

// Properties holds the free-form <properties> section.
type Properties map[string]string

// UnmarshalXML reads each child element as one property.
func (p *Properties) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	if *p == nil {
		*p = make(Properties)
	}
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var v string
			if err := d.DecodeElement(&v, &t); err != nil {
				return err
			}
			(*p)[t.Name.Local] = strings.TrimSpace(v)
		case xml.EndElement:
			return nil
		}
	}
}

// ParsePOM decodes a pom.xml document.
func ParsePOM(r io.Reader) (*POM, error) {
	var p POM
	if err := xml.NewDecoder(r).Decode(&p); err != nil {
		return nil, errs.Wrap(errs.ErrCodeDescriptorRead, err, "parse pom")
	}
	p.trim()
	return &p, nil
}

func (p *POM) trim() {
	p.GroupID = strings.TrimSpace(p.GroupID)
	p.ArtifactID = strings.TrimSpace(p.ArtifactID)
	p.Version = strings.TrimSpace(p.Version)
	p.Packaging = strings.TrimSpace(p.Packaging)
	if p.Parent != nil {
		p.Parent.GroupID = strings.TrimSpace(p.Parent.GroupID)
		p.Parent.ArtifactID = strings.TrimSpace(p.Parent.ArtifactID)
		p.Parent.Version = strings.TrimSpace(p.Parent.Version)
	}
	for i := range p.Dependencies {
		p.Dependencies[i].trim()
	}
	for i := range p.DependencyManagement {
		p.DependencyManagement[i].trim()
	}
	for i := range p.Repositories {
		p.Repositories[i].ID = strings.TrimSpace(p.Repositories[i].ID)
		p.Repositories[i].URL = strings.TrimSpace(p.Repositories[i].URL)
	}
}

func (d *Dependency) trim() {
	for _, s := range []*string{&d.GroupID, &d.ArtifactID, &d.Version, &d.Type, &d.Classifier, &d.Scope, &d.Optional} {
		*s = strings.TrimSpace(*s)
	}
	for i := range d.Exclusions {
		d.Exclusions[i].GroupID = strings.TrimSpace(d.Exclusions[i].GroupID)
		d.Exclusions[i].ArtifactID = strings.TrimSpace(d.Exclusions[i].ArtifactID)
	}
}

// EffectiveGroupID returns the model's groupId, inherited from the parent
// reference when absent.
func (p *POM) EffectiveGroupID() string {
	if p.GroupID == "" && p.Parent != nil {
		return p.Parent.GroupID
	}
	return p.GroupID
}

// EffectiveVersion returns the model's version, inherited from the parent
// reference when absent.
func (p *POM) EffectiveVersion() string {
	if p.Version == "" && p.Parent != nil {
		return p.Parent.Version
	}
	return p.Version
}

// managementKey identifies a dependency for inheritance and management.
func (d Dependency) managementKey() string {
	typ := d.Type
	if typ == "" {
		typ = "jar"
	}
	return d.GroupID + ":" + d.ArtifactID + ":" + typ + ":" + d.Classifier
}

// inherit merges parent into p: properties, management, dependencies and
// repositories declared by p win over the parent's.
func (p *POM) inherit(parent *POM) {
	p.GroupID = p.EffectiveGroupID()
	p.Version = p.EffectiveVersion()

	props := make(Properties, len(parent.Properties)+len(p.Properties))
	for k, v := range parent.Properties {
		props[k] = v
	}
	for k, v := range p.Properties {
		props[k] = v
	}
	p.Properties = props

	p.DependencyManagement = mergeDependencies(p.DependencyManagement, parent.DependencyManagement)
	p.Dependencies = mergeDependencies(p.Dependencies, parent.Dependencies)

	seen := make(map[string]bool, len(p.Repositories))
	for _, r := range p.Repositories {
		seen[r.ID] = true
	}
	for _, r := range parent.Repositories {
		if !seen[r.ID] {
			seen[r.ID] = true
			p.Repositories = append(p.Repositories, r)
		}
	}
}

func mergeDependencies(own, inherited []Dependency) []Dependency {
	seen := make(map[string]bool, len(own))
	for _, d := range own {
		seen[d.managementKey()] = true
	}
	out := own
	for _, d := range inherited {
		if k := d.managementKey(); !seen[k] {
			seen[k] = true
			out = append(out, d)
		}
	}
	return out
}

// interpolate expands ${...} references from the model's properties and
// project coordinates. Unknown references are left untouched.
func (p *POM) interpolate() {
	lookup := func(name string) (string, bool) {
		switch name {
		case "project.groupId", "pom.groupId", "groupId":
			return p.GroupID, p.GroupID != ""
		case "project.artifactId", "pom.artifactId", "artifactId":
			return p.ArtifactID, true
		case "project.version", "pom.version", "version":
			return p.Version, p.Version != ""
		case "project.packaging":
			return p.packaging(), true
		case "project.parent.groupId", "parent.groupId":
			if p.Parent != nil {
				return p.Parent.GroupID, true
			}
		case "project.parent.version", "parent.version":
			if p.Parent != nil {
				return p.Parent.Version, true
			}
		}
		v, ok := p.Properties[name]
		return v, ok
	}

	for k, v := range p.Properties {
		p.Properties[k] = expand(v, lookup)
	}
	p.GroupID = expand(p.GroupID, lookup)
	p.Version = expand(p.Version, lookup)
	for i := range p.DependencyManagement {
		p.DependencyManagement[i].expand(lookup)
	}
	for i := range p.Dependencies {
		p.Dependencies[i].expand(lookup)
	}
	for i := range p.Repositories {
		p.Repositories[i].URL = expand(p.Repositories[i].URL, lookup)
	}
}

func (d *Dependency) expand(lookup func(string) (string, bool)) {
	for _, s := range []*string{&d.GroupID, &d.ArtifactID, &d.Version, &d.Type, &d.Classifier, &d.Scope, &d.Optional} {
		*s = expand(*s, lookup)
	}
	for i := range d.Exclusions {
		d.Exclusions[i].GroupID = expand(d.Exclusions[i].GroupID, lookup)
		d.Exclusions[i].ArtifactID = expand(d.Exclusions[i].ArtifactID, lookup)
	}
}

func expand(s string, lookup func(string) (string, bool)) string {
	for range maxInterpolationPasses {
		if !strings.Contains(s, "${") {
			return s
		}
		next := expandOnce(s, lookup)
		if next == s {
			return s
		}
		s = next
	}
	return s
}

func expandOnce(s string, lookup func(string) (string, bool)) string {
	var b strings.Builder
	for {
		start := strings.Index(s, "${")
		if start < 0 {
			b.WriteString(s)
			return b.String()
		}
		end := strings.IndexByte(s[start:], '}')
		if end < 0 {
			b.WriteString(s)
			return b.String()
		}
		end += start
		b.WriteString(s[:start])
		if v, ok := lookup(s[start+2 : end]); ok {
			b.WriteString(v)
		} else {
			b.WriteString(s[start : end+1])
		}
		s = s[end+1:]
	}
}

func (p *POM) packaging() string {
	if p.Packaging == "" {
		return "jar"
	}
	return p.Packaging
}

func unresolved(s string) bool {
	return strings.Contains(s, "${")
}
