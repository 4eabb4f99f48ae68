package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stackresolve/pkg/artifact"
	errs "github.com/matzehuels/stackresolve/pkg/errors"
	"github.com/matzehuels/stackresolve/pkg/integrations/maven"
	"github.com/matzehuels/stackresolve/pkg/version"
)

// versionsCommand creates the versions command.
func (c *CLI) versionsCommand() *cobra.Command {
	var rng string

	cmd := &cobra.Command{
		Use:   "versions <groupId:artifactId>",
		Short: "List available versions of an artifact",
		Long: `Versions reads the repository metadata of an artifact and lists the
versions matching a range, oldest first. LATEST and RELEASE resolve to a
single version.`,
		Example: `  stackresolve versions org.slf4j:slf4j-api
  stackresolve versions org.slf4j:slf4j-api --range "[2.0,2.1)"
  stackresolve versions org.slf4j:slf4j-api --range RELEASE`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			groupID, artifactID, ok := strings.Cut(args[0], ":")
			if !ok || strings.Contains(artifactID, ":") {
				return errs.New(errs.ErrCodeInvalidCoordinate, "invalid coordinate %q (expected groupId:artifactId)", args[0])
			}
			a := artifact.Artifact{GroupID: groupID, ArtifactID: artifactID, Extension: artifact.DefaultExtension, Version: rng}
			if err := a.Validate(); err != nil {
				return err
			}

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			sess, err := c.newSession(ctx, cfg)
			if err != nil {
				return err
			}
			defer sess.Close()

			if version.IsMetaVersion(rng) {
				v, err := sess.ResolveVersion(ctx, a)
				if err != nil {
					return err
				}
				fmt.Println(StyleHighlight.Render(v))
				return nil
			}

			vs, err := sess.ResolveVersionRange(ctx, a)
			if err != nil {
				return err
			}
			if len(vs) == 0 {
				printInfo("No versions of %s match %s", args[0], rng)
				return nil
			}
			for i, v := range vs {
				s := v.String()
				if i == len(vs)-1 {
					s = StyleHighlight.Render(s)
				}
				fmt.Println(s)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&rng, "range", "r", "[0,)", "version range, version, LATEST or RELEASE")
	return cmd
}

// searchCommand creates the search command.
func (c *CLI) searchCommand() *cobra.Command {
	var (
		rows    int
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "search <query | groupId:artifactId>",
		Short: "Search Maven Central",
		Long: `Search queries the Maven Central search API. A groupId:artifactId query
looks up the newest version of that artifact; anything else is a free text
search.`,
		Example: `  stackresolve search slf4j
  stackresolve search org.slf4j:slf4j-api`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			store, err := cfg.Cache.Open(ctx)
			if err != nil {
				return err
			}
			defer store.Close()
			client := maven.NewSearchClient(store, cfg.Cache.TTL.Duration)

			query := strings.Join(args, " ")
			if g, a, ok := strings.Cut(query, ":"); ok && g != "" && a != "" && !strings.ContainsAny(query, " ") {
				info, err := client.Latest(ctx, query, refresh)
				if err != nil {
					return err
				}
				printArtifactInfo(*info)
				return nil
			}

			spinner := newSpinnerWithContext(ctx, "Searching "+query+"...")
			spinner.Start()
			hits, err := client.Search(ctx, query, rows)
			spinner.Stop()
			if err != nil {
				return err
			}
			if len(hits) == 0 {
				printInfo("No artifacts match %q", query)
				return nil
			}
			for _, h := range hits {
				printArtifactInfo(h)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&rows, "rows", "n", 20, "maximum number of results")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the cache for artifact lookups")
	return cmd
}

func printArtifactInfo(info maven.ArtifactInfo) {
	line := StyleValue.Render(info.Coordinate())
	var details []string
	if info.Packaging != "" {
		details = append(details, info.Packaging)
	}
	if info.Versions > 0 {
		details = append(details, fmt.Sprintf("%d versions", info.Versions))
	}
	if len(details) > 0 {
		line += " " + StyleDim.Render(strings.Join(details, " · "))
	}
	fmt.Println(line)
}
