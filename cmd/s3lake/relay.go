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

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/justapithecus/s3lake/internal/metrics"
	"github.com/justapithecus/s3lake/internal/relay"
	"github.com/justapithecus/s3lake/internal/rpc"
	"github.com/justapithecus/s3lake/internal/store"
)

var (
	// relayEndpoint overrides the URL derived from the runtime ARN, e.g. to
	// point at a locally running serve command.
	relayEndpoint string

	// relayMetricsAddr, when set, serves the relay's request metrics.
	relayMetricsAddr string
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Relay a stdio JSON-RPC client to a hosted catalog",
	Long: `relay reads newline-delimited JSON-RPC from stdin and forwards tools/list and
tools/call to the hosted runtime named by AGENT_ARN, signing each request with
SigV4 (or a bearer token when BEARER_TOKEN is set). Responses are written to
stdout; logs go to stderr. With --metrics-addr, request counts and latencies
are served on /metrics at that address.`,
	RunE: runRelay,
}

func init() {
	addRelayFlags(relayCmd)
	relayCmd.Flags().StringVar(&relayMetricsAddr, "metrics-addr", "", "serve /metrics on this address (disabled when empty)")
	rootCmd.AddCommand(relayCmd)
}

func addRelayFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&cfg.Relay.AgentARN, "agent-arn", cfg.Relay.AgentARN, "ARN of the hosted runtime")
	f.StringVar(&cfg.Relay.BearerToken, "bearer-token", cfg.Relay.BearerToken, "bearer token instead of SigV4")
	f.StringVar(&cfg.Relay.Region, "relay-region", cfg.Relay.Region, "runtime region (default: from the ARN)")
	f.DurationVar(&cfg.Relay.Timeout, "timeout", cfg.Relay.Timeout, "per-request timeout")
	f.StringVar(&relayEndpoint, "endpoint", "", "invocation URL (overrides the ARN-derived URL)")
}

func runRelay(cmd *cobra.Command, _ []string) error {
	logger, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	recorder := metrics.New(nil)
	client, err := newRelayClient(ctx, logger, relay.WithObserver(recorder))
	if err != nil {
		return err
	}
	logger.Info().Str("endpoint", client.Endpoint()).Msg("relaying stdio")

	if relayMetricsAddr != "" {
		metricsServer := newMetricsServer(relayMetricsAddr, recorder)
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Str("addr", relayMetricsAddr).Msg("metrics listener stopped")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = metricsServer.Shutdown(shutdownCtx)
		}()
		logger.Info().Str("addr", relayMetricsAddr).Msg("serving relay metrics")
	}

	server := rpc.NewServer(client,
		rpc.WithServerInfo(appName+"-relay", Version),
		rpc.WithLogger(logger.With().Str("component", "rpc").Logger()),
	)
	err = rpc.ServeStdio(ctx, server, os.Stdin, os.Stdout)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// newMetricsServer serves recorder on /metrics at addr.
func newMetricsServer(addr string, recorder *metrics.Recorder) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", recorder.Handler())
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// newRelayClient builds a client for the configured runtime. An explicit
// endpoint without an ARN is allowed and uses the bearer token, if any.
// extra options are applied after the configured ones.
func newRelayClient(ctx context.Context, logger zerolog.Logger, extra ...relay.Option) (*relay.Client, error) {
	opts := []relay.Option{
		relay.WithTimeout(cfg.Relay.Timeout),
		relay.WithLogger(logger.With().Str("component", "relay").Logger()),
	}
	opts = append(opts, extra...)

	if relayEndpoint != "" && cfg.Relay.AgentARN == "" {
		var auth relay.Authorizer
		if cfg.Relay.BearerToken != "" {
			auth = relay.Bearer(cfg.Relay.BearerToken)
		}
		return relay.New(relayEndpoint, auth, opts...), nil
	}

	if err := cfg.ValidateRelay(); err != nil {
		return nil, err
	}
	region, err := relay.ResolveRegion(cfg.Relay.AgentARN, cfg.Relay.Region)
	if err != nil {
		return nil, err
	}
	endpoint := relayEndpoint
	if endpoint == "" {
		endpoint = relay.EndpointURL(region, cfg.Relay.AgentARN)
	}

	if cfg.Relay.BearerToken != "" {
		logger.Debug().Str("token", redact(cfg.Relay.BearerToken)).Msg("using bearer authorization")
		return relay.New(endpoint, relay.Bearer(cfg.Relay.BearerToken), opts...), nil
	}

	clientCfg := cfg.Store.ClientConfig()
	clientCfg.Region = region
	awsCfg, err := store.LoadAWSConfig(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("load signing credentials: %w", err)
	}
	return relay.New(endpoint, relay.NewSigV4(awsCfg.Credentials, region), opts...), nil
}
