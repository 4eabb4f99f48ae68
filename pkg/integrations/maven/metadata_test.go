package maven

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/stackresolve/pkg/artifact"
	errs "github.com/matzehuels/stackresolve/pkg/errors"
	"github.com/matzehuels/stackresolve/pkg/repository"
	"github.com/matzehuels/stackresolve/pkg/version"
)

const (
	primaryMetadata = `<?xml version="1.0" encoding="UTF-8"?>
<metadata>
  <groupId>org.example</groupId>
  <artifactId>lib</artifactId>
  <versioning>
    <latest>2.0-SNAPSHOT</latest>
    <release>1.5</release>
    <versions>
      <version>1.0</version>
      <version>1.5</version>
      <version>2.0-SNAPSHOT</version>
    </versions>
    <lastUpdated>20240101120000</lastUpdated>
  </versioning>
</metadata>`

	mirrorMetadata = `<metadata>
  <groupId>org.example</groupId>
  <artifactId>lib</artifactId>
  <versioning>
    <latest>1.7</latest>
    <release>1.7</release>
    <versions>
      <version>1.5</version>
      <version>1.7</version>
    </versions>
    <lastUpdated>20240301120000</lastUpdated>
  </versioning>
</metadata>`

	snapshotMetadata = `<metadata>
  <groupId>org.example</groupId>
  <artifactId>lib</artifactId>
  <version>2.0-SNAPSHOT</version>
  <versioning>
    <snapshot>
      <timestamp>20240102.030405</timestamp>
      <buildNumber>7</buildNumber>
    </snapshot>
    <lastUpdated>20240102030405</lastUpdated>
    <snapshotVersions>
      <snapshotVersion>
        <extension>jar</extension>
        <value>2.0-20240102.030405-7</value>
      </snapshotVersion>
    </snapshotVersions>
  </versioning>
</metadata>`
)

func metadataRepos(t *testing.T) ([]repository.Remote, string) {
	t.Helper()
	primary, dir := fileRepo(t, "primary", map[string]string{
		"org/example/lib/maven-metadata.xml":              primaryMetadata,
		"org/example/lib/2.0-SNAPSHOT/maven-metadata.xml": snapshotMetadata,
	})
	mirror, _ := fileRepo(t, "mirror", map[string]string{
		"org/example/lib/maven-metadata.xml": mirrorMetadata,
	})
	return []repository.Remote{primary, mirror}, dir
}

func lib(v string) artifact.Artifact {
	return artifact.Artifact{GroupID: "org.example", ArtifactID: "lib", Version: v, Extension: "jar"}
}

func TestResolveVersion(t *testing.T) {
	repos, _ := metadataRepos(t)
	r := NewMetadataResolver(newDownloader(t), nil, nil, quiet)

	tests := []struct {
		name string
		a    artifact.Artifact
		want string
	}{
		{"latest", lib(version.Latest), "2.0-SNAPSHOT"},
		{"release merges repositories", lib(version.Release), "1.7"},
		{"snapshot", lib("2.0-SNAPSHOT"), "2.0-20240102.030405-7"},
		{"snapshot without matching extension", artifact.Artifact{GroupID: "org.example", ArtifactID: "lib", Version: "2.0-SNAPSHOT", Extension: "pom"}, "2.0-20240102.030405-7"},
		{"timestamped", lib("2.0-20240102.030405-7"), "2.0-20240102.030405-7"},
		{"plain", lib("1.0"), "1.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.ResolveVersion(context.Background(), tt.a, repos)
			if err != nil {
				t.Fatalf("ResolveVersion: %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveVersion(%s) = %s, want %s", tt.a.Version, got, tt.want)
			}
		})
	}
}

func TestResolveVersionSnapshotWithoutMetadata(t *testing.T) {
	repos, _ := metadataRepos(t)
	r := NewMetadataResolver(newDownloader(t), nil, nil, quiet)

	got, err := r.ResolveVersion(context.Background(), lib("3.0-SNAPSHOT"), repos)
	if err != nil || got != "3.0-SNAPSHOT" {
		t.Errorf("ResolveVersion = %s, %v; want 3.0-SNAPSHOT unchanged", got, err)
	}
}

func TestResolveVersionRange(t *testing.T) {
	repos, _ := metadataRepos(t)
	dl := newDownloader(t)
	writeFiles(t, dl.Local().Basedir, map[string]string{
		"org/example/lib/maven-metadata-local.xml": `<metadata><versioning><versions><version>3.0</version></versions></versioning></metadata>`,
	})
	r := NewMetadataResolver(dl, nil, nil, quiet)

	got, err := r.ResolveVersionRange(context.Background(), lib("[1.0,)"), repos)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"1.0", "1.5", "1.7", "2.0-SNAPSHOT", "3.0"}
	if len(got) != len(want) {
		t.Fatalf("versions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i].String() != want[i] {
			t.Errorf("versions[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestResolveVersionMissing(t *testing.T) {
	repos, _ := metadataRepos(t)
	r := NewMetadataResolver(newDownloader(t), nil, nil, quiet)

	absent := artifact.Artifact{GroupID: "org.example", ArtifactID: "absent", Version: version.Release, Extension: "jar"}
	if _, err := r.ResolveVersion(context.Background(), absent, repos); !errs.Is(err, errs.ErrCodeVersionResolution) {
		t.Errorf("ResolveVersion err = %v, want VERSION_RESOLUTION", err)
	}
	if _, err := r.ResolveVersionRange(context.Background(), absent, repos); !errs.Is(err, errs.ErrCodeVersionResolution) {
		t.Errorf("ResolveVersionRange err = %v, want VERSION_RESOLUTION", err)
	}
}

func TestMetadataCached(t *testing.T) {
	repos, dir := metadataRepos(t)
	r := NewMetadataResolver(newDownloader(t), testCache(t), nil, quiet)

	if _, err := r.ResolveVersion(context.Background(), lib(version.Release), repos[:1]); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Join(dir, "org", "example", "lib", "maven-metadata.xml")); err != nil {
		t.Fatal(err)
	}

	got, err := r.ResolveVersion(context.Background(), lib(version.Release), repos[:1])
	if err != nil || got != "1.5" {
		t.Errorf("cached ResolveVersion = %s, %v; want 1.5", got, err)
	}
}

func TestPickMeta(t *testing.T) {
	md := &repository.Metadata{}
	md.Versioning.Versions = []string{"1.0", "1.10", "1.9", "2.0-SNAPSHOT"}

	if got := pickMeta(md, false); got != "2.0-SNAPSHOT" {
		t.Errorf("latest = %s", got)
	}
	if got := pickMeta(md, true); got != "1.10" {
		t.Errorf("release = %s", got)
	}
	if got := pickMeta(&repository.Metadata{}, true); got != "" {
		t.Errorf("empty metadata = %q", got)
	}
}
