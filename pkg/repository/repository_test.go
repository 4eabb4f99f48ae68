package repository

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/matzehuels/stackresolve/pkg/artifact"
)

func TestArtifactPath(t *testing.T) {
	tests := []struct {
		name string
		a    artifact.Artifact
		want string
	}{
		{
			name: "jar",
			a:    artifact.Artifact{GroupID: "org.apache.commons", ArtifactID: "commons-lang3", Version: "3.14.0", Extension: "jar"},
			want: "org/apache/commons/commons-lang3/3.14.0/commons-lang3-3.14.0.jar",
		},
		{
			name: "classifier",
			a:    artifact.Artifact{GroupID: "g", ArtifactID: "a", Version: "1.0", Extension: "jar", Classifier: "sources"},
			want: "g/a/1.0/a-1.0-sources.jar",
		},
		{
			name: "timestamped snapshot",
			a:    artifact.Artifact{GroupID: "g.h", ArtifactID: "a", Version: "1.0-20240101.120000-3", Extension: "pom"},
			want: "g/h/a/1.0-SNAPSHOT/a-1.0-20240101.120000-3.pom",
		},
		{
			name: "plain snapshot",
			a:    artifact.Artifact{GroupID: "g", ArtifactID: "a", Version: "1.0-SNAPSHOT", Extension: "jar"},
			want: "g/a/1.0-SNAPSHOT/a-1.0-SNAPSHOT.jar",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ArtifactPath(tt.a); got != tt.want {
				t.Errorf("ArtifactPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLocalPaths(t *testing.T) {
	local := NewLocal("/repo")
	remote := Remote{ID: "central", URL: CentralURL}
	a := artifact.Artifact{GroupID: "org.example", ArtifactID: "lib", Version: "1.0", Extension: "jar"}

	if got := local.PathForLocalArtifact(a); got != "org/example/lib/1.0/lib-1.0.jar" {
		t.Errorf("PathForLocalArtifact() = %q", got)
	}
	if got := local.PathForRemoteArtifact(remote, a); got != "cached/central/org/example/lib/1.0/lib-1.0.jar" {
		t.Errorf("PathForRemoteArtifact() = %q", got)
	}

	ref := MetadataRef{GroupID: "org.example", ArtifactID: "lib"}
	if got := local.PathForLocalMetadata(ref); got != "org/example/lib/maven-metadata-local.xml" {
		t.Errorf("PathForLocalMetadata() = %q", got)
	}
	if got := local.PathForRemoteMetadata(remote, ref); got != "cached/central/org/example/lib/maven-metadata.xml" {
		t.Errorf("PathForRemoteMetadata() = %q", got)
	}

	ref.Version = "1.0-SNAPSHOT"
	if got := local.PathForLocalMetadata(ref); got != "org/example/lib/1.0-SNAPSHOT/maven-metadata-local.xml" {
		t.Errorf("PathForLocalMetadata(version) = %q", got)
	}
	if got := local.PathForRemoteMetadata(remote, MetadataRef{GroupID: "org.example"}); got != "cached/central/org/example/maven-metadata.xml" {
		t.Errorf("PathForRemoteMetadata(group) = %q", got)
	}

	if got := local.Abs("g/a/1/a-1.jar"); got != filepath.Join("/repo", "g", "a", "1", "a-1.jar") {
		t.Errorf("Abs() = %q", got)
	}
}

func TestPathsAreDeterministic(t *testing.T) {
	local := NewLocal("/repo")
	a := artifact.Artifact{GroupID: "g", ArtifactID: "a", Version: "2", Extension: "jar", Classifier: "c"}
	first := local.PathForLocalArtifact(a)
	for i := 0; i < 10; i++ {
		if got := local.PathForLocalArtifact(a); got != first {
			t.Fatalf("PathForLocalArtifact() changed: %q != %q", got, first)
		}
	}
}

func TestParseRemote(t *testing.T) {
	r, err := ParseRemote("corp::https://nexus.example.com/repository/maven/")
	if err != nil {
		t.Fatal(err)
	}
	if r.ID != "corp" || r.URL != "https://nexus.example.com/repository/maven" || r.Scheme() != "https" {
		t.Errorf("ParseRemote() = %+v", r)
	}

	r, err = ParseRemote("https://repo.example.com:8443/maven2")
	if err != nil {
		t.Fatal(err)
	}
	if r.ID != "repo.example.com" {
		t.Errorf("derived ID = %q", r.ID)
	}

	for _, bad := range []string{"", "corp::ftp://x", "../x::https://x", "no-scheme"} {
		if _, err := ParseRemote(bad); err == nil {
			t.Errorf("ParseRemote(%q) error = nil", bad)
		}
	}
}

func TestMergeRemotes(t *testing.T) {
	a := Remote{ID: "a", URL: "https://a"}
	b := Remote{ID: "b", URL: "https://b"}
	a2 := Remote{ID: "a", URL: "https://other"}
	got := Merge([]Remote{a}, b, a2)
	if len(got) != 2 || got[0] != a || got[1] != b {
		t.Errorf("Merge() = %v", got)
	}
}

func TestMetadataMerge(t *testing.T) {
	local, err := ParseMetadata([]byte(`<metadata><groupId>g</groupId><artifactId>a</artifactId>
<versioning><latest>1.1</latest><release>1.1</release><versions><version>1.0</version><version>1.1</version></versions><lastUpdated>20240101000000</lastUpdated></versioning></metadata>`))
	if err != nil {
		t.Fatal(err)
	}
	remote, err := ParseMetadata([]byte(`<metadata><versioning><latest>2.0-SNAPSHOT</latest><release>1.10</release><versions><version>1.10</version><version>1.1</version><version>2.0-SNAPSHOT</version></versions><lastUpdated>20240201000000</lastUpdated></versioning></metadata>`))
	if err != nil {
		t.Fatal(err)
	}
	local.Merge(remote)

	want := []string{"1.0", "1.1", "1.10", "2.0-SNAPSHOT"}
	if fmt.Sprint(local.Versioning.Versions) != fmt.Sprint(want) {
		t.Errorf("Versions = %v, want %v", local.Versioning.Versions, want)
	}
	if local.Versioning.Release != "1.10" || local.Versioning.Latest != "2.0-SNAPSHOT" {
		t.Errorf("Release/Latest = %s/%s", local.Versioning.Release, local.Versioning.Latest)
	}
	if local.Versioning.LastUpdated != "20240201000000" {
		t.Errorf("LastUpdated = %s", local.Versioning.LastUpdated)
	}
}

func TestMetadataSnapshotValue(t *testing.T) {
	md, err := ParseMetadata([]byte(`<metadata><version>1.0-SNAPSHOT</version><versioning>
<snapshot><timestamp>20240101.120000</timestamp><buildNumber>3</buildNumber></snapshot>
<snapshotVersions><snapshotVersion><classifier>sources</classifier><extension>jar</extension><value>1.0-20240101.110000-2</value></snapshotVersion></snapshotVersions>
</versioning></metadata>`))
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := md.SnapshotValue("1.0-SNAPSHOT", "sources", "jar"); !ok || v != "1.0-20240101.110000-2" {
		t.Errorf("SnapshotValue(sources) = %q, %v", v, ok)
	}
	if v, ok := md.SnapshotValue("1.0-SNAPSHOT", "", "jar"); !ok || v != "1.0-20240101.120000-3" {
		t.Errorf("SnapshotValue(jar) = %q, %v", v, ok)
	}

	md.Versioning.Snapshot.LocalCopy = true
	if _, ok := md.SnapshotValue("1.0-SNAPSHOT", "", "jar"); ok {
		t.Error("SnapshotValue() ok = true for local copy")
	}
}

func TestMetadataMarshal(t *testing.T) {
	md := &Metadata{GroupID: "g", ArtifactID: "a", Versioning: Versioning{Versions: []string{"1.0"}}}
	data, err := md.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	back, err := ParseMetadata(data)
	if err != nil {
		t.Fatal(err)
	}
	if back.ArtifactID != "a" || len(back.Versioning.Versions) != 1 {
		t.Errorf("round trip = %+v", back)
	}
}

func ExampleLocal_PathForRemoteArtifact() {
	local := NewLocal("/home/dev/.m2/repository")
	a, _ := artifact.ParseCoordinate("org.slf4j:slf4j-api:2.0.9")
	fmt.Println(local.PathForRemoteArtifact(Central(), a))
	// Output: cached/central/org/slf4j/slf4j-api/2.0.9/slf4j-api-2.0.9.jar
}
