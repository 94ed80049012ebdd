package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/saulo-duarte/codequiz-lambda/internal/config"
	"github.com/saulo-duarte/codequiz-lambda/internal/container"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		c, err := buildContainer(ctx, cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		if migrate, _ := cmd.Flags().GetBool("migrate"); migrate {
			if err := container.Migrate(ctx, c.DB); err != nil {
				return err
			}
		}

		srv := &http.Server{
			Addr:              ":" + c.Settings.Port,
			Handler:           c.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			config.WithContext(ctx).WithField("addr", srv.Addr).Info("HTTP server listening")
			errCh <- srv.ListenAndServe()
		}()

		select {
		case <-ctx.Done():
			config.WithContext(ctx).Info("Shutting down HTTP server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		}
	},
}

func init() {
	serveCmd.Flags().Bool("migrate", false, "Run database migrations before serving")
}
