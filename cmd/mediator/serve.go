package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/fxsml/mediator/cloudevents"
	"github.com/fxsml/mediator/internal/sample"
)

const shutdownTimeout = 10 * time.Second

// newHandler serves CloudEvents on "/" and a liveness probe on "/healthz".
func newHandler(a *app) (http.Handler, error) {
	adapter := cloudevents.NewAdapter(a.mediator, cloudevents.Config{
		Source: a.cfg.HTTP.Source,
		Logger: a.logger,
	})
	if err := sample.RegisterEvents(adapter); err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("POST /", adapter)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return mux, nil
}

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Accept commands and queries as CloudEvents over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			handler, err := newHandler(a)
			if err != nil {
				return err
			}
			srv := &http.Server{
				Addr:              a.cfg.HTTP.Addr,
				Handler:           handler,
				ReadHeaderTimeout: 5 * time.Second,
			}
			return serve(cmd.Context(), a, srv)
		},
	}
}

// serve runs srv until ctx is done, then shuts it down gracefully.
func serve(ctx context.Context, a *app, srv *http.Server) error {
	errc := make(chan error, 1)
	go func() {
		a.logger.Info("mediator: listening", "addr", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	a.logger.Info("mediator: shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
