package collect

import (
	"testing"

	"github.com/matzehuels/stackresolve/pkg/artifact"
)

func TestDeriveScope(t *testing.T) {
	tests := []struct {
		parent, child, want artifact.Scope
	}{
		{"", "", artifact.ScopeCompile},
		{"", artifact.ScopeRuntime, artifact.ScopeRuntime},
		{artifact.ScopeCompile, artifact.ScopeProvided, artifact.ScopeProvided},
		{artifact.ScopeCompile, artifact.ScopeTest, artifact.ScopeTest},
		{artifact.ScopeRuntime, artifact.ScopeCompile, artifact.ScopeRuntime},
		{artifact.ScopeTest, artifact.ScopeRuntime, artifact.ScopeTest},
		{artifact.ScopeProvided, artifact.ScopeCompile, artifact.ScopeProvided},
		{artifact.ScopeProvided, artifact.ScopeSystem, artifact.ScopeSystem},
		{artifact.ScopeSystem, artifact.ScopeCompile, artifact.ScopeProvided},
		{artifact.ScopeCompileOnly, artifact.ScopeRuntime, artifact.ScopeProvided},
		{artifact.ScopeTestOnly, artifact.ScopeCompile, artifact.ScopeTest},
		{artifact.ScopeTestRuntime, artifact.ScopeCompile, artifact.ScopeTest},
		{"custom", artifact.ScopeCompile, artifact.ScopeRuntime},
	}
	for _, tt := range tests {
		if got := DeriveScope(tt.parent, tt.child); got != tt.want {
			t.Errorf("DeriveScope(%q, %q) = %q, want %q", tt.parent, tt.child, got, tt.want)
		}
	}
}

func TestGraphNavigation(t *testing.T) {
	a := func(id string) artifact.Artifact {
		return artifact.Artifact{GroupID: "g", ArtifactID: id, Version: "1", Extension: "jar"}
	}
	g := &Graph{}
	g.add(Node{Parent: NoParent, Artifact: a("root")})
	g.add(Node{Parent: 0, Depth: 1, Artifact: a("b")})
	g.add(Node{Parent: 0, Depth: 1, Artifact: a("c")})
	g.add(Node{Parent: 1, Depth: 2, Artifact: a("d")})

	if got := g.Root().Children; len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("root children = %v, want [1 2]", got)
	}
	path := g.Path(3)
	if len(path) != 3 || path[0].ID != 0 || path[1].ID != 1 || path[2].ID != 3 {
		t.Errorf("Path(3) = %v", path)
	}
	if !g.HasAncestor(3, a("b").Key()) {
		t.Error("HasAncestor(3, b) = false")
	}
	if g.HasAncestor(3, a("c").Key()) {
		t.Error("HasAncestor(3, c) = true")
	}

	var order []string
	g.Walk(func(n *Node) bool {
		order = append(order, n.Artifact.ArtifactID)
		return n.ID != 1
	})
	if len(order) != 3 || order[0] != "root" || order[1] != "b" || order[2] != "c" {
		t.Errorf("Walk order = %v, want [root b c]", order)
	}
}
