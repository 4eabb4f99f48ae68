package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stackresolve/pkg/report"
	"github.com/matzehuels/stackresolve/pkg/resolve"
	"github.com/matzehuels/stackresolve/pkg/transfer"
)

// Output formats of the resolve command.
const (
	formatText = "text"
	formatJSON = "json"
	formatPath = "path"
)

// resolveCommand creates the resolve command.
func (c *CLI) resolveCommand() *cobra.Command {
	var (
		tf       targetFlags
		types    []string
		format   string
		progress bool
	)

	cmd := &cobra.Command{
		Use:   "resolve [coordinate...]",
		Short: "Resolve, download and print dependencies",
		Long: `Resolve collects the transitive dependencies of the given coordinates or
pom.xml, mediates version conflicts (nearest wins), downloads the winning
artifacts into the local repository and prints them.`,
		Example: `  stackresolve resolve org.slf4j:slf4j-simple:2.0.13
  stackresolve resolve --pom pom.xml --scope test-runtime
  stackresolve resolve com.google.guava:guava:33.2.1-jre --format path --type classpath,modulepath`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			scope, err := tf.pathScope()
			if err != nil {
				return err
			}
			pts, err := parsePathTypes(types)
			if err != nil {
				return err
			}
			if len(pts) == 0 {
				pts = []resolve.PathType{resolve.ClassPath}
			}
			switch format {
			case formatText, formatJSON, formatPath:
			default:
				return fmt.Errorf("unknown format %q (want text, json or path)", format)
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
			var res *resolve.Result
			if progress {
				res, err = resolveWithProgress(ctx, sess, target, scope, pts)
			} else {
				spinner := newSpinnerWithContext(ctx, "Resolving "+name+"...")
				reg := sess.RegisterTransferListener(spinnerListener(spinner))
				spinner.Start()
				res, err = sess.Resolve(ctx, target, scope, pts...)
				spinner.Stop()
				sess.UnregisterTransferListener(reg)
			}
			if err != nil {
				return err
			}
			prog.done("Resolved "+name, "artifacts", len(res.Winners), "files", len(res.Paths))
			rep := report.New(res, scope, prog.elapsed())

			switch format {
			case formatJSON:
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			case formatPath:
				fmt.Print(formatPaths(res, pts))
			default:
				printReport(rep)
			}
			return nil
		},
	}

	tf.register(cmd)
	cmd.Flags().StringArrayVarP(&types, "type", "t", nil, "path types to build: classpath, modulepath, processor-path, agent, doclet")
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "output format: text, json, path")
	cmd.Flags().BoolVar(&progress, "progress", false, "show live download progress")
	_ = cmd.RegisterFlagCompletionFunc("type", completePathTypes)
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions([]string{formatText, formatJSON, formatPath}, cobra.ShellCompDirectiveNoFileComp))

	return cmd
}

// formatPaths joins the files of each path type with the OS path list
// separator. With several types each line is prefixed by "type=".
func formatPaths(res *resolve.Result, types []resolve.PathType) string {
	var b strings.Builder
	for _, t := range types {
		line := strings.Join(res.ByType[t], string(os.PathListSeparator))
		if len(types) > 1 {
			line = string(t) + "=" + line
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

// spinnerListener shows the file being downloaded next to the spinner.
func spinnerListener(s *Spinner) transfer.Listener {
	return transfer.ListenerFunc(func(e transfer.Event) error {
		if e.Type == transfer.Started {
			s.SetMessage("Downloading " + path.Base(e.Resource.Name) + " from " + e.Resource.RepositoryID + "...")
		}
		return nil
	})
}
