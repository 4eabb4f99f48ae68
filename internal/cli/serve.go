package cli

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stackresolve/pkg/observability"
	"github.com/matzehuels/stackresolve/pkg/report"
	"github.com/matzehuels/stackresolve/pkg/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the resolution HTTP service",
		Long: `Serve exposes resolution over HTTP. Reports are kept in MongoDB when
server.mongo_uri is configured and in memory otherwise. Prometheus
metrics are served at /metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			hooks := observability.NewPrometheusHooks(prometheus.DefaultRegisterer)
			observability.SetResolutionHooks(hooks)
			observability.SetCacheHooks(hooks)
			observability.SetHTTPHooks(hooks)
			defer observability.Reset()

			sess, err := c.newSession(ctx, cfg)
			if err != nil {
				return err
			}
			defer sess.Close()
			reg := sess.RegisterTransferListener(hooks.TransferListener())
			defer sess.UnregisterTransferListener(reg)

			var store report.Store
			if cfg.Server.MongoURI != "" {
				logger.Info("storing reports in MongoDB", "database", cfg.Server.MongoDatabase)
				store, err = report.NewMongoStore(ctx, cfg.Server.MongoURI, cfg.Server.MongoDatabase)
			} else {
				store, err = report.NewMemoryStore(cfg.Server.ReportCacheSize)
			}
			if err != nil {
				return err
			}
			defer store.Close()

			index, err := cfg.Cache.Open(ctx)
			if err != nil {
				return err
			}
			defer index.Close()

			srv := server.New(sess, store, server.Options{
				Addr:     cfg.Server.Addr,
				Gatherer: prometheus.DefaultGatherer,
				Cache:    index,
				Logger:   logger,
			})
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from server.addr, "+server.DefaultAddr+")")
	return cmd
}
