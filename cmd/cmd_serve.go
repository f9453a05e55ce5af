package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"fuelbot/internal/api"
)

// newServeCmd creates the serve subcommand: an HTTP trigger for an external scheduler.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve [config]",
		Short: "Serve the HTTP trigger and status API",
		Long: `Serve /health and /api/v0 (state, runs, runs/last, ws). Each POST /api/v0/runs
performs one fuel check; concurrent requests are rejected with 409.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, args)
			if err != nil {
				return err
			}
			defer a.close()

			if !debug {
				gin.SetMode(gin.ReleaseMode)
			}
			handler := api.NewHandler(a.svc, a.logger)
			srv := &http.Server{
				Addr:              a.cfg.API.Port,
				Handler:           api.NewRouter(a.logger, handler),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Infof("Starting API server on %s", a.cfg.API.Port)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					a.logger.Errorf("API server failed: %v", err)
					return fmt.Errorf("API server failed: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			a.logger.Infof("Shutting down API server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}
