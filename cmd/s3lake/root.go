package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/justapithecus/s3lake/internal/catalog"
	"github.com/justapithecus/s3lake/internal/config"
	"github.com/justapithecus/s3lake/internal/logging"
	"github.com/justapithecus/s3lake/internal/store"
	"github.com/justapithecus/s3lake/lake"
)

const appName = "s3lake"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

// cfg is loaded from the environment before any command runs; flags
// bound to its fields override the environment.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Read-only S3 data-lake tools over JSON-RPC",
	Long: `s3lake exposes an S3 bucket as a catalog of read-only tools (list, read CSV,
JSON and Parquet, filter CSV, summarize, inspect metadata) over JSON-RPC on HTTP,
and relays a local stdio client to a hosted deployment.

Configuration comes from the environment (AWS_REGION, S3_BUCKET_NAME,
S3_ENDPOINT_URL, LOG_LEVEL, ...) and can be overridden with flags.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return cfg.Validate()
	},
}

// Execute runs the CLI and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	loaded, err := config.Load(os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, "warning:", err)
	}
	cfg = loaded

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.Store.Region, "region", cfg.Store.Region, "AWS region of the bucket")
	pf.StringVar(&cfg.Store.Bucket, "bucket", cfg.Store.Bucket, "default bucket when a call omits bucket_name")
	pf.StringVar(&cfg.Store.Endpoint, "s3-endpoint", cfg.Store.Endpoint, "S3-compatible endpoint URL (MinIO, LocalStack)")
	pf.BoolVar(&cfg.Store.ForcePathStyle, "path-style", cfg.Store.ForcePathStyle, "use path-style S3 addressing")
	pf.BoolVar(&cfg.Store.VerifyChecksum, "verify-checksum", cfg.Store.VerifyChecksum, "verify object bodies against single-part ETags")
	pf.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "log level (debug, info, warn, error)")
	pf.StringVar(&cfg.Log.Format, "log-format", cfg.Log.Format, "log format (json, console)")
}

// newLogger builds the process logger writing to w.
func newLogger(w io.Writer) (zerolog.Logger, error) {
	return logging.New(appName, cfg.Log.Level, cfg.Log.Format, w)
}

// newStore builds the object store from cfg.
func newStore(ctx context.Context) (*store.Store, error) {
	client, err := store.NewS3Client(ctx, cfg.Store.ClientConfig())
	if err != nil {
		return nil, err
	}
	var opts []store.Option
	if cfg.Store.VerifyChecksum {
		opts = append(opts, store.WithChecksumVerification(lake.NewMD5Checksum()))
	}
	return store.New(client, opts...), nil
}

// newCatalog builds the tool catalog over s.
func newCatalog(s catalog.ObjectStore, logger zerolog.Logger, opts ...catalog.Option) *catalog.Catalog {
	opts = append([]catalog.Option{
		catalog.WithDefaultBucket(cfg.Store.Bucket),
		catalog.WithLogger(logger.With().Str("component", "catalog").Logger()),
	}, opts...)
	return catalog.New(s, opts...)
}

// redact hides all but the last four characters of a secret.
func redact(secret string) string {
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", len(secret)-4) + secret[len(secret)-4:]
}
