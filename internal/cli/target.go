package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stackresolve/pkg/artifact"
	errs "github.com/matzehuels/stackresolve/pkg/errors"
	"github.com/matzehuels/stackresolve/pkg/resolve"
	"github.com/matzehuels/stackresolve/pkg/session"
)

// targetFlags selects what a command resolves: coordinates given as
// arguments or a project descriptor.
type targetFlags struct {
	pom      string
	scope    string
	excludes []string
}

func (f *targetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.pom, "pom", "", "resolve the dependencies of a pom.xml instead of coordinates")
	cmd.Flags().StringVarP(&f.scope, "scope", "s", string(resolve.MainRuntime), "path scope: "+scopeNames())
	cmd.Flags().StringArrayVar(&f.excludes, "exclude", nil, "exclude groupId[:artifactId] from the graph (repeatable)")
	_ = cmd.RegisterFlagCompletionFunc("scope", completeScopes)
}

func (f *targetFlags) pathScope() (resolve.PathScope, error) {
	return resolve.ParsePathScope(f.scope)
}

// target builds the session target. A single coordinate resolves that
// artifact including itself; several coordinates or a pom resolve only
// their dependencies.
func (f *targetFlags) target(ctx context.Context, sess *session.Session, args []string) (session.Target, string, error) {
	if (f.pom == "") == (len(args) == 0) {
		return session.Target{}, "", errs.New(errs.ErrCodeInvalidInput, "give either coordinates or --pom")
	}
	excl := make([]artifact.Exclusion, len(f.excludes))
	for i, e := range f.excludes {
		excl[i] = artifact.ParseExclusion(e)
	}

	if f.pom != "" {
		p, err := sess.ReadProject(ctx, f.pom)
		if err != nil {
			return session.Target{}, "", err
		}
		for i := range p.Dependencies {
			p.Dependencies[i].Exclusions = append(p.Dependencies[i].Exclusions, excl...)
		}
		return session.Target{Project: p}, p.Artifact.String(), nil
	}

	deps := make([]artifact.Dependency, len(args))
	for i, arg := range args {
		a, err := artifact.ParseCoordinate(arg)
		if err != nil {
			return session.Target{}, "", err
		}
		deps[i] = artifact.Dependency{Artifact: a, Exclusions: excl}
	}
	if len(deps) == 1 {
		return session.Target{Dependency: &deps[0]}, args[0], nil
	}
	return session.Target{Dependencies: deps}, strings.Join(args, ", "), nil
}

func scopeNames() string {
	names := make([]string, 0, 4)
	for _, s := range []resolve.PathScope{resolve.MainCompile, resolve.MainRuntime, resolve.TestCompile, resolve.TestRuntime} {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}

func parsePathTypes(names []string) ([]resolve.PathType, error) {
	types := make([]resolve.PathType, 0, len(names))
	for _, n := range names {
		for _, part := range strings.Split(n, ",") {
			t, err := resolve.ParsePathType(strings.TrimSpace(part))
			if err != nil {
				return nil, fmt.Errorf("--type: %w", err)
			}
			types = append(types, t)
		}
	}
	return types, nil
}
