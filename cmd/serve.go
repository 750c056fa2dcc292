package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mawngo/kcluster/internal/config"
	"github.com/mawngo/kcluster/internal/metrics"
	"github.com/mawngo/kcluster/internal/server"
	"github.com/mawngo/kcluster/internal/service"
)

const shutdownTimeout = 5 * time.Second

func newServeCommand(f *flags, cfg *config.Config) *cobra.Command {
	command := &cobra.Command{
		Use:   "serve",
		Short: "Load the corpus once and serve clustering requests over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := loadCorpus(*cfg)
			if err != nil {
				return err
			}
			m := metrics.New()
			clusterer := service.NewClusterer(c,
				service.WithSeed(cfg.KMeans.Seed),
				service.WithMaxIterations(cfg.KMeans.MaxIterations),
				service.WithMetrics(m))
			srv := server.New(clusterer, server.Config{
				ReadTimeout:  cfg.Server.ReadTimeout.Duration,
				WriteTimeout: cfg.Server.WriteTimeout.Duration,
				Gatherer:     m.Registry(),
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Listen(cfg.Server.Addr)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			slog.Info("Shutting down")
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(sctx); err != nil {
				return err
			}
			if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	command.Flags().StringVarP(&f.Addr, "addr", "a", cfg.Server.Addr, "Listen address")
	return command
}
