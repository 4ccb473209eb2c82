package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/xraph/mintledger"
	"github.com/xraph/mintledger/api"
	audithook "github.com/xraph/mintledger/audit_hook"
	"github.com/xraph/mintledger/extension"
	"github.com/xraph/mintledger/observability"
	"github.com/xraph/mintledger/types"
)

// Version is the daemon version. Designed to be overwritten by the linker.
var Version = "dev"

const shutdownTimeout = 10 * time.Second

func newRootCmd() *cobra.Command {
	v := newViper()
	var configPath string

	root := &cobra.Command{
		Use:           "mintledgerd",
		Short:         "Payment-backed token ledger daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (yaml, toml or json)")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Replay the journal and serve the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v, configPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	serve.Flags().String("listen", "", "API listen address")
	serve.Flags().String("metrics-listen", "", "metrics listen address; empty disables")
	serve.Flags().String("owner", "", "genesis owner address")
	serve.Flags().String("store", "", "journal backend: memory, leveldb, sqlite, postgres or mongo")
	serve.Flags().String("leveldb-path", "", "leveldb journal directory")
	serve.Flags().String("dsn", "", "connection string for the sqlite, postgres and mongo backends")
	_ = v.BindPFlag("listen", serve.Flags().Lookup("listen"))
	_ = v.BindPFlag("metrics_listen", serve.Flags().Lookup("metrics-listen"))
	_ = v.BindPFlag("ledger.owner", serve.Flags().Lookup("owner"))
	_ = v.BindPFlag("ledger.store", serve.Flags().Lookup("store"))
	_ = v.BindPFlag("ledger.leveldb_path", serve.Flags().Lookup("leveldb-path"))
	_ = v.BindPFlag("ledger.dsn", serve.Flags().Lookup("dsn"))

	token := &cobra.Command{
		Use:   "token <address>",
		Short: "Issue an API bearer token for a caller address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v, configPath)
			if err != nil {
				return err
			}
			caller, err := types.ParseAddress(args[0])
			if err != nil {
				return err
			}
			ttl, err := cmd.Flags().GetDuration("ttl")
			if err != nil {
				return err
			}
			tok, err := api.IssueToken(cfg.Ledger.API.Auth, caller, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	token.Flags().Duration("ttl", 24*time.Hour, "token lifetime; 0 for no expiry")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the daemon version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
		},
	}

	root.AddCommand(serve, token, version)
	return root
}

func serve(ctx context.Context, cfg daemonConfig) error {
	logger, closer, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer closer.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetricsExtension(observability.NewPrometheusFactory(reg))

	audit := audithook.New(audithook.RecorderFunc(func(_ context.Context, evt *audithook.AuditEvent) error {
		logger.Info("audit",
			"action", evt.Action,
			"resource", evt.Resource,
			"resource_id", evt.ResourceID,
			"outcome", evt.Outcome,
			"severity", evt.Severity,
			"reason", evt.Reason,
		)
		return nil
	}), audithook.WithLogger(logger))

	ext := extension.New(
		extension.WithConfig(cfg.Ledger),
		extension.WithPlugin(metrics),
		extension.WithPlugin(audit),
		extension.WithEngineOption(mintledger.WithLogger(logger)),
	)
	if err := ext.Build(ctx); err != nil {
		return err
	}
	engine := ext.Engine()
	if err := engine.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := engine.Stop(stopCtx); err != nil {
			logger.Error("engine stop failed", "error", err)
		}
	}()

	var servers []*http.Server
	if h := ext.Handler(); h != nil {
		servers = append(servers, &http.Server{
			Addr:              cfg.Listen,
			Handler:           h,
			ReadHeaderTimeout: 5 * time.Second,
		})
	}
	if cfg.MetricsListen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		servers = append(servers, &http.Server{
			Addr:              cfg.MetricsListen,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		})
	}

	errc := make(chan error, len(servers))
	for _, srv := range servers {
		logger.Info("listening", "addr", srv.Addr)
		go func(srv *http.Server) {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- fmt.Errorf("serve %s: %w", srv.Addr, err)
			}
		}(srv)
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err = <-errc:
		logger.Error("server failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, srv := range servers {
		if serr := srv.Shutdown(shutdownCtx); serr != nil {
			logger.Error("server shutdown failed", "addr", srv.Addr, "error", serr)
		}
	}
	return err
}
