package maven

import (
	"strings"
	"testing"
)

const childPOM = `<?xml version="1.0" encoding="UTF-8"?>
<project xmlns="http://maven.apache.org/POM/4.0.0">
  <modelVersion>4.0.0</modelVersion>
  <parent>
    <groupId>org.example</groupId>
    <artifactId>parent</artifactId>
    <version>2.1</version>
  </parent>
  <artifactId>child</artifactId>
  <properties>
    <slf4j.version>2.0.9</slf4j.version>
    <api.version>${slf4j.version}</api.version>
  </properties>
  <dependencies>
    <dependency>
      <groupId>org.slf4j</groupId>
      <artifactId>slf4j-api</artifactId>
      <version>${api.version}</version>
    </dependency>
    <dependency>
      <groupId>${project.groupId}</groupId>
      <artifactId>sibling</artifactId>
      <version>${project.version}</version>
      <optional> true </optional>
      <exclusions>
        <exclusion>
          <groupId>commons-logging</groupId>
          <artifactId>*</artifactId>
        </exclusion>
      </exclusions>
    </dependency>
  </dependencies>
</project>`

func TestParsePOM(t *testing.T) {
	p, err := ParsePOM(strings.NewReader(childPOM))
	if err != nil {
		t.Fatal(err)
	}
	if p.Parent == nil || p.Parent.ArtifactID != "parent" {
		t.Fatalf("parent = %+v", p.Parent)
	}
	if p.EffectiveGroupID() != "org.example" || p.EffectiveVersion() != "2.1" {
		t.Errorf("effective coordinates = %s:%s", p.EffectiveGroupID(), p.EffectiveVersion())
	}
	if p.Properties["slf4j.version"] != "2.0.9" {
		t.Errorf("properties = %v", p.Properties)
	}
	if len(p.Dependencies) != 2 || p.Dependencies[1].Optional != "true" {
		t.Errorf("dependencies = %+v", p.Dependencies)
	}
	if ex := p.Dependencies[1].Exclusions; len(ex) != 1 || ex[0].ArtifactID != "*" {
		t.Errorf("exclusions = %+v", ex)
	}
}

func TestParsePOMInvalid(t *testing.T) {
	if _, err := ParsePOM(strings.NewReader("<project><dependencies>")); err == nil {
		t.Error("expected error for truncated document")
	}
}

func TestInheritAndInterpolate(t *testing.T) {
	child, _ := ParsePOM(strings.NewReader(childPOM))
	parent := &POM{
		GroupID:    "org.example",
		ArtifactID: "parent",
		Version:    "2.1",
		Properties: Properties{"slf4j.version": "1.7.36", "junit.version": "4.13.2"},
		DependencyManagement: []Dependency{
			{GroupID: "junit", ArtifactID: "junit", Version: "${junit.version}", Scope: "test"},
		},
		Dependencies: []Dependency{
			{GroupID: "org.slf4j", ArtifactID: "slf4j-api", Version: "1.7.36"},
			{GroupID: "junit", ArtifactID: "junit"},
		},
		Repositories: []Repository{{ID: "corp", URL: "https://repo.corp.example/maven"}},
	}

	child.inherit(parent)
	child.interpolate()

	if child.GroupID != "org.example" || child.Version != "2.1" {
		t.Errorf("coordinates = %s:%s", child.GroupID, child.Version)
	}
	// The child's declaration of slf4j-api wins over the parent's.
	if len(child.Dependencies) != 3 {
		t.Fatalf("dependencies = %+v", child.Dependencies)
	}
	if d := child.Dependencies[0]; d.Version != "2.0.9" {
		t.Errorf("slf4j-api version = %q, want child property 2.0.9", d.Version)
	}
	if d := child.Dependencies[1]; d.GroupID != "org.example" || d.Version != "2.1" {
		t.Errorf("sibling = %+v", d)
	}
	if d := child.Dependencies[2]; d.ArtifactID != "junit" {
		t.Errorf("inherited dependency = %+v", d)
	}
	if m := child.DependencyManagement; len(m) != 1 || m[0].Version != "4.13.2" {
		t.Errorf("management = %+v", m)
	}
	if len(child.Repositories) != 1 {
		t.Errorf("repositories = %+v", child.Repositories)
	}
}

func TestExpand(t *testing.T) {
	props := map[string]string{"a": "${b}", "b": "${c}", "c": "1", "self": "${self}"}
	lookup := func(name string) (string, bool) {
		v, ok := props[name]
		return v, ok
	}
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"${c}", "1"},
		{"${a}.0", "1.0"},
		{"${missing}", "${missing}"},
		{"x-${c}-${missing}", "x-1-${missing}"},
		{"${unterminated", "${unterminated"},
		{"${self}", "${self}"},
	}
	for _, tt := range tests {
		if got := expand(tt.in, lookup); got != tt.want {
			t.Errorf("expand(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToDependency(t *testing.T) {
	d := Dependency{
		GroupID: "org.example", ArtifactID: "lib", Version: "[1.0,2.0)", Type: "test-jar",
		Scope: "test", Optional: "true",
		Exclusions: []Exclusion{{GroupID: "org.unwanted", ArtifactID: "*"}},
	}.toDependency()

	if d.Artifact.Version != "[1.0,2.0)" || d.Type != "test-jar" || d.Scope != "test" || !d.Optional {
		t.Errorf("dependency = %+v", d)
	}
	if d.Artifact.Extension != "" {
		t.Errorf("extension = %q, want empty until the type registry applies", d.Artifact.Extension)
	}
	if len(d.Exclusions) != 1 || d.Exclusions[0].GroupID != "org.unwanted" {
		t.Errorf("exclusions = %+v", d.Exclusions)
	}
}
