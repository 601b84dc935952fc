package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-wikiform/internal/proxy"
	"github.com/goliatone/go-wikiform/internal/server"
	"github.com/goliatone/go-wikiform/pkg/config"
)

var (
	serveAddr  string
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP form service",
	Long: `Serves create and edit forms, the schema API and, unless disabled in the
configuration, the write proxy routes. With --watch a local configuration file
is reloaded on change and the schema cache starts fresh.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "reload the configuration file when it changes")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	recorder, gatherer, err := newRecorder()
	if err != nil {
		return err
	}
	submitter, err := newSubmitter(cfg, recorder)
	if err != nil {
		return err
	}
	forms, err := newOrchestrator(cfg, buildOptions{recorder: recorder, submitter: submitter})
	if err != nil {
		return err
	}

	opts := []server.Option{
		server.WithLogger(logger),
		server.WithAddr(cfg.Server.Addr),
		server.WithGatherer(gatherer),
	}
	if cfg.Server.Proxy {
		wiki, err := proxy.NewMediaWiki(cfg.Wikibase.APIEndpoint, proxy.WithRequestTimeout(cfg.Query.Timeout))
		if err != nil {
			return err
		}
		handler, err := proxy.NewHandler(wiki,
			proxy.NewStore(proxy.WithIdleTTL(cfg.Server.SessionTTL)),
			proxy.WithLogger(logger),
			proxy.WithWikibaseURL(cfg.Wikibase.URL),
		)
		if err != nil {
			return err
		}
		opts = append(opts, server.WithProxy(handler))
	}

	srv, err := server.New(ctx, forms, opts...)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	if serveWatch {
		g.Go(func() error {
			return config.Watch(gctx, configPath, func(next config.Config) {
				next, err := applyEnv(next)
				if err != nil {
					logger.Warn("config reload rejected", zap.Error(err))
					return
				}
				if serveAddr != "" {
					next.Server.Addr = serveAddr
				}
				reloaded, err := newOrchestrator(next, buildOptions{recorder: recorder, submitter: submitter})
				if err != nil {
					logger.Warn("config reload failed", zap.Error(err))
					return
				}
				srv.SetOrchestrator(reloaded)
				logger.Info("configuration reloaded", zap.Strings("entityTypes", next.ExemplarKeys()))
			}, func(err error) {
				logger.Warn("config reload failed", zap.Error(err))
			})
		})
	}
	return g.Wait()
}
