package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/benjaminclauss/speeddaemon/speeddaemon"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:          "speeddaemon",
		Short:        "Runs a Speed Daemon server for cameras and ticket dispatchers.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		Version:      fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildTime),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadConfig(configPath)
			if err != nil {
				return err
			}
			if err := cfg.ApplyFlags(cmd.Flags()); err != nil {
				return fmt.Errorf("error applying flags: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			logger, err := newLogger(cfg.Log, os.Stderr)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			l, err := net.Listen("tcp", cfg.Listen)
			if err != nil {
				return err
			}
			return run(ctx, l, cfg, logger)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a TOML config file")
	registerFlags(cmd.Flags())
	return cmd
}

const adminShutdownTimeout = 5 * time.Second

// run serves the speed daemon on l, and the admin API if configured, until ctx is done.
func run(ctx context.Context, l net.Listener, cfg Config, logger *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	server, err := speeddaemon.NewServer(
		speeddaemon.WithLogger(logger),
		speeddaemon.WithMetrics(speeddaemon.NewMetrics(reg)),
		speeddaemon.WithWriteTimeout(cfg.WriteTimeout.Duration),
	)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Serve(ctx, l)
	})

	if cfg.AdminListen != "" {
		admin := &http.Server{
			Addr:              cfg.AdminListen,
			Handler:           newAdminRouter(reg),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			logger.Info("exposing admin API", "addr", cfg.AdminListen)
			if err := admin.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serving admin API: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), adminShutdownTimeout)
			defer cancel()
			return admin.Shutdown(shutdownCtx)
		})
	}
	return g.Wait()
}
