package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-settingstext/pkg/api"
	"github.com/dd0wney/cluso-settingstext/pkg/config"
	"github.com/dd0wney/cluso-settingstext/pkg/health"
	"github.com/dd0wney/cluso-settingstext/pkg/logging"
	"github.com/dd0wney/cluso-settingstext/pkg/metrics"
	"github.com/dd0wney/cluso-settingstext/pkg/server"
	"github.com/dd0wney/cluso-settingstext/pkg/service"
	"github.com/dd0wney/cluso-settingstext/pkg/transport"
)

func newServeCmd(a *app) *cobra.Command {
	var listen, nngListen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve reports over HTTP, GraphQL and optionally a nanomsg socket",
		Long: `serve starts the HTTP API:

  POST /api/v1/report      {selection, prompt, workflow, mode}
  POST /api/v1/resolve     {prompt, workflow, node, param}
  POST /api/v1/select-all  {workflow, exclude}
  POST /graphql
  GET  /metrics, /health, /ready

With --nng (or nng.listen in the config) the same report and resolve
operations are answered on a REP socket. SIGHUP re-reads the log level from
the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listen != "" {
				a.cfg.HTTP.Listen = listen
			}
			if nngListen != "" {
				a.cfg.NNG.Listen = nngListen
			}
			configPath, _ := cmd.Flags().GetString("config")
			return runServe(cmd.Context(), a, configPath)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (default from config)")
	cmd.Flags().StringVar(&nngListen, "nng", "", "nanomsg listen address, e.g. tcp://127.0.0.1:5555")
	return cmd
}

func runServe(ctx context.Context, a *app, configPath string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := metrics.NewRegistry()
	svc, err := a.newService(service.WithRecorder(reg))
	if err != nil {
		return err
	}

	hc := health.NewHealthChecker(version)
	hc.RegisterCheck("memory", health.MemoryCheck())
	hc.RegisterCheck("schema", health.SchemaCheck(func() int { return a.schema.Len() }))

	var nng *transport.Server
	if a.cfg.NNG.Listen != "" {
		nng = transport.NewServer(svc,
			transport.WithLogger(a.logger.With(logging.Component("transport"))),
			transport.WithRecorder(reg),
			transport.WithTimeout(a.cfg.NNG.Timeout))
		if err := nng.Start(a.cfg.NNG.Listen); err != nil {
			return err
		}
	}
	hc.RegisterReadinessCheck("transport", health.TransportCheck(nng != nil, func() bool {
		return nng != nil && nng.Running()
	}))

	apiServer, err := api.NewServer(svc, a.cfg.HTTP,
		api.WithLogger(a.logger.With(logging.Component("http"))),
		api.WithMetrics(reg),
		api.WithHealthChecker(hc))
	if err != nil {
		return err
	}
	go apiServer.UpdateMetricsPeriodically(ctx)

	gs := server.NewGracefulServer(apiServer.HTTPServer(),
		server.WithLogger(a.logger),
		server.WithShutdownTimeout(a.cfg.HTTP.ShutdownTimeout))
	if nng != nil {
		gs.OnShutdown(func(context.Context) error { return nng.Stop() })
	}
	gs.SetConfigReloadFunc(func() error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		a.logger.SetLevel(logging.ParseLevel(cfg.LogLevel))
		return nil
	})

	if err := gs.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
