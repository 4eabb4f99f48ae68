package maven

import (
	"context"
	"os"
	"path/filepath"

	"github.com/matzehuels/stackresolve/pkg/artifact"
	"github.com/matzehuels/stackresolve/pkg/collect"
	errs "github.com/matzehuels/stackresolve/pkg/errors"
	"github.com/matzehuels/stackresolve/pkg/repository"
)

// ReadProject reads the pom.xml at path (or path/pom.xml for a directory)
// as a collection root. Parents are looked up by relativePath first and
// then in repos.
func (r *DescriptorReader) ReadProject(ctx context.Context, path string, repos []repository.Remote) (*collect.Project, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, "pom.xml")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeDescriptorRead, err, "open project")
	}
	defer f.Close()

	raw, err := ParsePOM(f)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeDescriptorRead, err, "%s", path)
	}
	p, err := r.build(ctx, raw, filepath.Dir(path), repos, nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeDescriptorRead, err, "build model of %s", path)
	}
	if p.GroupID == "" || p.ArtifactID == "" || p.Version == "" {
		return nil, errs.New(errs.ErrCodeDescriptorRead, "%s: groupId, artifactId and version are required", path)
	}

	d := r.descriptor(p)
	return &collect.Project{
		Artifact: artifact.Artifact{
			GroupID:    p.GroupID,
			ArtifactID: p.ArtifactID,
			Version:    p.Version,
			Extension:  artifact.NewTypeRegistry().Lookup(p.packaging()).Extension,
		},
		Dependencies: d.Dependencies,
		Managed:      d.Managed,
		Repositories: d.Repositories,
	}, nil
}
