// Package cli implements the stackresolve command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stackresolve/pkg/buildinfo"
	"github.com/matzehuels/stackresolve/pkg/cache"
	"github.com/matzehuels/stackresolve/pkg/collect"
	"github.com/matzehuels/stackresolve/pkg/config"
	"github.com/matzehuels/stackresolve/pkg/download"
	"github.com/matzehuels/stackresolve/pkg/integrations"
	"github.com/matzehuels/stackresolve/pkg/integrations/maven"
	"github.com/matzehuels/stackresolve/pkg/integrations/s3"
	"github.com/matzehuels/stackresolve/pkg/repository"
	"github.com/matzehuels/stackresolve/pkg/session"
	"github.com/matzehuels/stackresolve/pkg/transfer"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "stackresolve"

	// repositoryTTL is how long repository responses stay in the HTTP cache.
	repositoryTTL = 24 * time.Hour
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Global flags, applied on top of the loaded configuration.
	configFile string
	localRepo  string
	repos      []string
	offline    bool
	noCache    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Stackresolve resolves Maven dependency graphs",
		Long:         `Stackresolve collects, mediates and downloads transitive Maven dependencies into a local repository and prints the resulting class and module paths.`,
		Version:      buildinfo.Get().Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.StringVar(&c.configFile, "config", "", "configuration file (default: nearest "+config.ProjectFile+")")
	flags.StringVar(&c.localRepo, "local-repo", "", "local repository directory")
	flags.StringArrayVar(&c.repos, "repo", nil, "remote repository as id::url (repeatable, replaces configured repositories)")
	flags.BoolVar(&c.offline, "offline", false, "only use the local repository and file:// repositories")
	flags.BoolVar(&c.noCache, "no-cache", false, "disable the descriptor and metadata cache")

	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.treeCommand())
	root.AddCommand(c.versionsCommand())
	root.AddCommand(c.searchCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Session Factory
// =============================================================================

// loadConfig loads the layered configuration and applies global flags.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{File: c.configFile})
	if err != nil {
		return nil, err
	}
	if c.localRepo != "" {
		cfg.LocalRepository = c.localRepo
	}
	if c.offline {
		cfg.Offline = true
	}
	if c.noCache {
		cfg.Cache.Backend = config.CacheNone
	}
	if cfg.Cache.Backend == config.CacheFile && cfg.Cache.Dir == "" {
		if dir, err := cacheDir(); err == nil {
			cfg.Cache.Dir = dir
		}
	}
	if len(c.repos) > 0 {
		cfg.Repositories = cfg.Repositories[:0]
		for _, s := range c.repos {
			r, err := repository.ParseRemote(s)
			if err != nil {
				return nil, err
			}
			cfg.Repositories = append(cfg.Repositories, r)
		}
	}
	return cfg, cfg.Validate()
}

// newSession opens the configured cache and builds a session over the
// configured repositories. The caller must Close the session.
func (c *CLI) newSession(ctx context.Context, cfg *config.Config) (*session.Session, error) {
	store, err := cfg.Cache.Open(ctx)
	if err != nil {
		return nil, err
	}
	transports, err := newTransports(cfg, store)
	if err != nil {
		return nil, err
	}
	policy, err := download.ParseChecksumPolicy(cfg.ChecksumPolicy)
	if err != nil {
		return nil, err
	}

	logger := loggerFromContext(ctx)
	return session.New(repository.NewLocal(cfg.LocalRepository), cfg.Repositories, session.Options{
		Transports: transports,
		Download: download.Options{
			Concurrency:    cfg.Concurrency,
			Offline:        cfg.Offline,
			ChecksumPolicy: policy,
		},
		Collect: collect.Options{Concurrency: cfg.Concurrency},
		Transfer: transfer.Options{
			QueueSize: cfg.Transfer.QueueSize,
			BatchSize: cfg.Transfer.BatchSize,
		},
		Cache:  store,
		Logger: logger,
	})
}

// newTransports returns the remote transports. http(s) is always
// available; s3 only when an endpoint is configured.
func newTransports(cfg *config.Config, c cache.Cache) (download.Transports, error) {
	client := integrations.NewClient(c, "repository", repositoryTTL, map[string]string{
		"User-Agent": buildinfo.UserAgent(appName),
	})
	web := maven.NewHTTPTransport(client).WithRetry(maven.DefaultAttempts, maven.DefaultRetryDelay)
	ts := download.Transports{"http": web, "https": web}
	if cfg.S3.Endpoint != "" {
		t, err := s3.NewTransport(cfg.S3)
		if err != nil {
			return nil, err
		}
		ts[s3.Scheme] = t
	}
	return ts, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/stackresolve/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
