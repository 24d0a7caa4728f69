package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"partspricing/internal/api"
	"partspricing/internal/bootstrap"
	"partspricing/internal/bootstrap/logging"
	"partspricing/internal/errs"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		server := &http.Server{
			Addr:              app.Config.HTTP.Addr,
			Handler:           api.NewServer(app.Pricing, app.Config.App.Name).Router(),
			ReadHeaderTimeout: 10 * time.Second,
			BaseContext: func(net.Listener) context.Context {
				return ctx
			},
		}

		signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		serveErr := make(chan error, 1)
		go func() {
			logging.Info(ctx, "http server listening", slog.String("addr", app.Config.HTTP.Addr))
			serveErr <- server.ListenAndServe()
		}()

		select {
		case err := <-serveErr:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return errs.Wrap(err, "serve http")
			}
			return nil
		case <-signalCtx.Done():
		}

		logging.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errs.Wrap(err, "shutdown http server")
		}

		logging.Info(ctx, "http server stopped")
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
