package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/justapithecus/s3lake/internal/seed"
	"github.com/justapithecus/s3lake/lake"
)

var seedOpts = seed.DefaultOptions()

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Upload a deterministic sample data lake",
	Long: `seed generates customer, transaction and sensor datasets in every format the
catalog reads (CSV, JSON, gzip JSONL, Parquet, zstd CSV) and uploads them under
--prefix in the configured bucket. Equal options produce identical objects.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger, err := newLogger(os.Stderr)
		if err != nil {
			return err
		}
		if cfg.Store.Bucket == "" {
			return &lake.ArgumentError{Field: "bucket", Message: "is required (set --bucket or S3_BUCKET_NAME)"}
		}

		st, err := newStore(cmd.Context())
		if err != nil {
			return err
		}

		start := time.Now()
		datasets, err := seed.Generate(seedOpts)
		if err != nil {
			return err
		}
		if err := seed.Upload(cmd.Context(), st, cfg.Store.Bucket, datasets, logger); err != nil {
			return err
		}
		logger.Info().
			Int("objects", len(datasets)).
			Dur("elapsed", time.Since(start)).
			Msg("seed complete")
		return nil
	},
}

func init() {
	f := seedCmd.Flags()
	f.StringVar(&seedOpts.Prefix, "prefix", "demo/", "key prefix for generated objects")
	f.IntVar(&seedOpts.Customers, "customers", seedOpts.Customers, "customer rows")
	f.IntVar(&seedOpts.Transactions, "transactions", seedOpts.Transactions, "transaction records")
	f.IntVar(&seedOpts.Readings, "readings", seedOpts.Readings, "sensor readings")
	f.Uint64Var(&seedOpts.Seed, "seed", seedOpts.Seed, "random seed")
	rootCmd.AddCommand(seedCmd)
}
