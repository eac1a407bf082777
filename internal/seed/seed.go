// Package seed generates a small deterministic sample data lake and
// uploads it to a bucket. Every file format the catalog reads is
// represented, including compressed variants.
package seed

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"path"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"

	"github.com/justapithecus/s3lake/lake"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Object keys, relative to Options.Prefix.
const (
	KeyCustomers        = "customer_analytics.csv"
	KeyTransactions     = "sales_transactions.json"
	KeyTransactionLines = "sales_transactions.jsonl.gz"
	KeySensors          = "iot_sensor_data.parquet"
	KeySensorsCSV       = "iot_sensor_data.csv.zst"
)

// Options controls dataset size and determinism.
type Options struct {
	// Prefix is prepended to every key, e.g. "demo/".
	Prefix string

	Customers    int
	Transactions int
	Readings     int

	// Seed fixes the pseudo-random sequence; equal options generate
	// byte-identical datasets.
	Seed uint64

	// Now anchors generated dates.
	Now time.Time
}

// DefaultOptions returns a small lake that uploads in seconds.
func DefaultOptions() Options {
	return Options{
		Customers:    500,
		Transactions: 750,
		Readings:     1000,
		Seed:         42,
		Now:          time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Dataset is one generated object.
type Dataset struct {
	Key         string
	ContentType string
	Data        []byte
	Records     int
}

// Generate builds every dataset in memory.
func Generate(opts Options) ([]Dataset, error) {
	g := &generator{
		rng: rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)),
		now: opts.Now,
	}
	if g.now.IsZero() {
		g.now = DefaultOptions().Now
	}

	customers := g.customers(opts.Customers)
	transactions := g.transactions(opts.Transactions, opts.Customers)
	readings := g.readings(opts.Readings)

	var out []Dataset
	add := func(key, contentType string, records int, encode func() ([]byte, error)) error {
		data, err := encode()
		if err != nil {
			return fmt.Errorf("seed: encode %s: %w", key, err)
		}
		out = append(out, Dataset{
			Key:         path.Join(opts.Prefix, key),
			ContentType: contentType,
			Data:        data,
			Records:     records,
		})
		return nil
	}

	steps := []struct {
		key         string
		contentType string
		records     int
		encode      func() ([]byte, error)
	}{
		{KeyCustomers, "text/csv", len(customers), func() ([]byte, error) { return encodeCustomers(customers) }},
		{KeyTransactions, "application/json", len(transactions), func() ([]byte, error) {
			return encodeTransactions(transactions, g.now)
		}},
		{KeyTransactionLines, "application/gzip", len(transactions), func() ([]byte, error) {
			return encodeTransactionLines(transactions)
		}},
		{KeySensors, "application/vnd.apache.parquet", len(readings), func() ([]byte, error) {
			return encodeReadings(readings)
		}},
		{KeySensorsCSV, "application/zstd", len(readings), func() ([]byte, error) {
			return encodeReadingsCSV(readings)
		}},
	}
	for _, s := range steps {
		if err := add(s.key, s.contentType, s.records, s.encode); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Uploader stores one object. *store.Store implements it.
type Uploader interface {
	Put(ctx context.Context, ref lake.ObjectRef, data []byte, contentType string) error
}

// Upload writes datasets to bucket and logs each object.
func Upload(ctx context.Context, u Uploader, bucket string, datasets []Dataset, logger zerolog.Logger) error {
	for _, d := range datasets {
		ref := lake.ObjectRef{Bucket: bucket, Key: d.Key}
		if err := u.Put(ctx, ref, d.Data, d.ContentType); err != nil {
			return fmt.Errorf("seed: upload %s: %w", ref, err)
		}
		logger.Info().
			Str("bucket", bucket).
			Str("key", d.Key).
			Int("records", d.Records).
			Str("size", lake.FormatBytes(int64(len(d.Data)))).
			Msg("uploaded")
	}
	return nil
}

// generator holds the shared random source.
type generator struct {
	rng *rand.Rand
	now time.Time
}

func (g *generator) pick(options []string) string {
	return options[g.rng.IntN(len(options))]
}

// weighted picks options[i] with probability weights[i]; weights sum to 1.
func (g *generator) weighted(options []string, weights []float64) string {
	r := g.rng.Float64()
	for i, w := range weights {
		if r < w {
			return options[i]
		}
		r -= w
	}
	return options[len(options)-1]
}

func (g *generator) between(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

// daysAgo returns a date up to n days before now.
func (g *generator) daysAgo(n int) time.Time {
	return g.now.AddDate(0, 0, -g.rng.IntN(n+1))
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
