package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stackresolve/pkg/collect"
	"github.com/matzehuels/stackresolve/pkg/render/dot"
	"github.com/matzehuels/stackresolve/pkg/render/tree"
)

// Tree output formats.
const (
	treeText = "text"
	treeDOT  = "dot"
	treeSVG  = "svg"
	treePNG  = "png"
)

// treeCommand creates the tree command, which prints the collected graph
// without downloading artifacts.
func (c *CLI) treeCommand() *cobra.Command {
	var (
		tf       targetFlags
		format   string
		output   string
		detailed bool
		raw      bool
	)

	cmd := &cobra.Command{
		Use:   "tree [coordinate...]",
		Short: "Print the dependency graph",
		Long: `Tree collects the dependency graph and prints it, annotating nodes that
lost a version conflict, duplicates, cycles and managed versions. Only
descriptors are read; artifacts are not downloaded.`,
		Example: `  stackresolve tree org.apache.maven:maven-core:3.9.6
  stackresolve tree --pom pom.xml --scope test-runtime
  stackresolve tree com.google.guava:guava:33.2.1-jre -f svg -o guava.svg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			scope, err := tf.pathScope()
			if err != nil {
				return err
			}
			binary := format == treeSVG || format == treePNG
			switch {
			case format != treeText && format != treeDOT && !binary:
				return fmt.Errorf("unknown format %q (want text, dot, svg or png)", format)
			case binary && output == "":
				return fmt.Errorf("--output is required for %s", format)
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

			target, name, err := tf.target(ctx, sess, args)
			if err != nil {
				return err
			}

			prog := newProgress(loggerFromContext(ctx))
			res, includeRoot, err := sess.Collect(ctx, target)
			if err != nil {
				return err
			}
			prog.done("Collected "+name, "nodes", res.Graph.Len())
			logCollection(loggerFromContext(ctx), res)

			var winners []*collect.Node
			if !raw {
				winners, err = sess.Flatten(res.Graph, scope, includeRoot)
				switch {
				case err != nil:
					loggerFromContext(ctx).Warn("showing unresolved graph", "err", err)
					winners = nil
				case winners == nil:
					winners = []*collect.Node{}
				}
			}

			var out []byte
			switch format {
			case treeText:
				out = []byte(tree.Render(res.Graph, tree.Options{
					Winners: winners,
					Label:   StyleValue,
					Note:    StyleDim,
					Error:   StyleError,
				}) + "\n")
			default:
				src := dot.ToDOT(res.Graph, dot.Options{Detailed: detailed, Winners: winners})
				switch format {
				case treeSVG:
					out, err = dot.RenderSVG(ctx, src)
				case treePNG:
					out, err = dot.RenderPNG(ctx, src)
				default:
					out = []byte(src)
				}
				if err != nil {
					return err
				}
			}

			if output == "" {
				_, err = os.Stdout.Write(out)
				return err
			}
			if err := os.WriteFile(output, out, 0o644); err != nil {
				return err
			}
			printSuccess("Wrote %s graph", format)
			printFile(output)
			return nil
		},
	}

	tf.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", treeText, "output format: text, dot, svg, png")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "add scopes and management details to graph nodes (dot, svg, png)")
	cmd.Flags().BoolVar(&raw, "raw", false, "show the collected graph without conflict resolution")
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions([]string{treeText, treeDOT, treeSVG, treePNG}, cobra.ShellCompDirectiveNoFileComp))

	return cmd
}
