package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/justapithecus/s3lake/internal/catalog"
	"github.com/justapithecus/s3lake/internal/logging"
	"github.com/justapithecus/s3lake/internal/metrics"
	"github.com/justapithecus/s3lake/internal/rpc"
	"github.com/justapithecus/s3lake/internal/store"
)

const (
	probeTimeout    = 10 * time.Second
	healthTimeout   = 3 * time.Second
	shutdownTimeout = 15 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the tool catalog over JSON-RPC on HTTP",
	Long: `serve starts an HTTP server answering JSON-RPC 2.0 on /mcp, with /health and
/metrics. Clients that accept text/event-stream receive SSE frames.

At startup the store is probed with a bucket listing; a failed probe is logged
and the server starts anyway. GET /health repeats the probe and answers 503
while the store is unreachable.`,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&cfg.Server.ListenAddr, "listen", cfg.Server.ListenAddr, "address to listen on")
	f.BoolVar(&cfg.Server.Stream, "stream", cfg.Server.Stream, "answer event-stream clients with SSE frames")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := newStore(ctx)
	if err != nil {
		return err
	}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	if err := st.Probe(probeCtx); err != nil {
		logger.Warn().Err(err).Msg("store probe failed; tools will report store errors until credentials work")
	} else {
		logger.Info().Str("region", cfg.Store.Region).Msg("store reachable")
	}
	cancel()

	recorder := metrics.New(nil)
	cat := newCatalog(st, logger, catalog.WithObserver(recorder))
	server := rpc.NewServer(cat,
		rpc.WithServerInfo(appName, Version),
		rpc.WithLogger(logger.With().Str("component", "rpc").Logger()),
	)

	handler := rpc.NewHTTPHandler(server,
		rpc.WithStreaming(cfg.Server.Stream),
		rpc.WithHealth(storeHealth(st)),
		rpc.WithMetricsHandler(recorder.Handler()),
		rpc.WithMiddleware(
			logging.WithRequestID,
			logging.RequestLogger(logger),
			recorder.Middleware,
		),
	)

	httpServer := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", cfg.Server.ListenAddr).
			Str("bucket", cfg.Store.Bucket).
			Bool("stream", cfg.Server.Stream).
			Msg("listening")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// storeHealth probes st with a bucket listing bounded by healthTimeout.
func storeHealth(st *store.Store) rpc.HealthFunc {
	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, healthTimeout)
		defer cancel()
		return st.Probe(ctx)
	}
}
