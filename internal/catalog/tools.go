package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/justapithecus/s3lake/internal/rpc"
	"github.com/justapithecus/s3lake/lake"
)

// Tool names.
const (
	ToolListBuckets  = "list_s3_buckets"
	ToolListObjects  = "list_s3_objects"
	ToolReadCSV      = "read_csv_from_s3"
	ToolReadJSON     = "read_json_from_s3"
	ToolReadParquet  = "read_parquet_from_s3"
	ToolQueryCSV     = "query_csv_data"
	ToolSummarize    = "get_dataset_summary"
	ToolFileMetadata = "get_file_metadata"
)

type handler func(ctx context.Context, args Args) (lake.Envelope, error)

type toolEntry struct {
	spec rpc.Tool
	call handler
}

// Ensure Catalog implements rpc.Backend
var _ rpc.Backend = (*Catalog)(nil)

// ListTools implements rpc.Backend.
func (c *Catalog) ListTools(ctx context.Context) ([]rpc.Tool, error) {
	out := make([]rpc.Tool, len(c.tools))
	for i, t := range c.tools {
		out[i] = t.spec
	}
	return out, nil
}

// CallTool implements rpc.Backend. The envelope is returned as indented
// text content; IsError mirrors the envelope status.
func (c *Catalog) CallTool(ctx context.Context, name string, rawArgs []byte) (rpc.CallResult, error) {
	args, err := ParseArgs(rawArgs)
	if err != nil {
		return rpc.CallResult{}, err
	}
	env, err := c.Call(ctx, name, args)
	if err != nil {
		return rpc.CallResult{}, err
	}
	return rpc.TextResult(lake.RenderIndent(env), !env.OK()), nil
}

// Call runs the named tool. The only error is for an unknown tool; every
// tool failure is carried in the envelope.
func (c *Catalog) Call(ctx context.Context, name string, args Args) (lake.Envelope, error) {
	for _, t := range c.tools {
		if t.spec.Name != name {
			continue
		}

		start := time.Now()
		env, err := t.call(ctx, args)
		if err != nil {
			env = fail[struct{}](c, name, lake.ObjectRef{}, err)
		}
		if c.observer != nil {
			kind := ""
			if f := env.Failure(); f != nil {
				kind = f.Kind.String()
			}
			c.observer.ObserveTool(name, kind, time.Since(start))
		}
		return env, nil
	}
	return nil, fmt.Errorf("%w: %s", rpc.ErrUnknownTool, name)
}

// registry binds tool specs to catalog methods. Argument decoding errors
// are returned as errors and become argument-fault envelopes in Call.
func (c *Catalog) registry() []toolEntry {
	return []toolEntry{
		{
			spec: rpc.Tool{
				Name:        ToolListBuckets,
				Description: "List all S3 buckets accessible to the current AWS credentials.",
				InputSchema: objectSchema(nil),
			},
			call: func(ctx context.Context, _ Args) (lake.Envelope, error) {
				return c.ListBuckets(ctx), nil
			},
		},
		{
			spec: rpc.Tool{
				Name:        ToolListObjects,
				Description: "List objects in an S3 bucket with optional prefix filtering.",
				InputSchema: objectSchema(nil,
					bucketProp(),
					stringProp("prefix", "Optional prefix to filter objects (e.g., \"data/2024/\")", ""),
					intProp("max_keys", "Maximum number of objects to return", DefaultMaxKeys),
				),
			},
			call: func(ctx context.Context, args Args) (lake.Envelope, error) {
				bucket, prefix, err := bucketAndPrefix(args)
				if err != nil {
					return nil, err
				}
				maxKeys, err := args.Int("max_keys", DefaultMaxKeys)
				if err != nil {
					return nil, err
				}
				return c.ListObjects(ctx, bucket, prefix, maxKeys), nil
			},
		},
		{
			spec: rpc.Tool{
				Name:        ToolReadCSV,
				Description: "Read a CSV file from S3 and return its contents as JSON.",
				InputSchema: objectSchema([]string{"object_key"},
					bucketProp(), keyProp("CSV"),
					intProp("max_rows", "Maximum number of rows to return (0 for all)", DefaultMaxRows),
				),
			},
			call: func(ctx context.Context, args Args) (lake.Envelope, error) {
				bucket, key, limit, err := readArgs(args, "max_rows")
				if err != nil {
					return nil, err
				}
				return c.ReadCSV(ctx, bucket, key, limit), nil
			},
		},
		{
			spec: rpc.Tool{
				Name:        ToolReadJSON,
				Description: "Read a JSON file from S3 and return its contents.",
				InputSchema: objectSchema([]string{"object_key"},
					bucketProp(), keyProp("JSON"),
					intProp("max_records", "Maximum number of records to return for JSON arrays (0 for all)", DefaultMaxRows),
				),
			},
			call: func(ctx context.Context, args Args) (lake.Envelope, error) {
				bucket, key, limit, err := readArgs(args, "max_records")
				if err != nil {
					return nil, err
				}
				return c.ReadJSON(ctx, bucket, key, limit), nil
			},
		},
		{
			spec: rpc.Tool{
				Name:        ToolReadParquet,
				Description: "Read a Parquet file from S3 and return its contents as JSON.",
				InputSchema: objectSchema([]string{"object_key"},
					bucketProp(), keyProp("Parquet"),
					intProp("max_rows", "Maximum number of rows to return (0 for all)", DefaultMaxRows),
				),
			},
			call: func(ctx context.Context, args Args) (lake.Envelope, error) {
				bucket, key, limit, err := readArgs(args, "max_rows")
				if err != nil {
					return nil, err
				}
				return c.ReadParquet(ctx, bucket, key, limit), nil
			},
		},
		{
			spec: rpc.Tool{
				Name:        ToolQueryCSV,
				Description: "Query CSV data from S3 with basic filtering capabilities.",
				InputSchema: objectSchema([]string{"object_key"},
					bucketProp(), keyProp("CSV"),
					stringProp("filter_column", "Column name to filter on (optional)", ""),
					stringProp("filter_value", "Value to filter for (optional)", ""),
					intProp("max_rows", "Maximum number of rows to return (0 for all)", DefaultMaxRows),
				),
			},
			call: func(ctx context.Context, args Args) (lake.Envelope, error) {
				bucket, key, limit, err := readArgs(args, "max_rows")
				if err != nil {
					return nil, err
				}
				column, err := args.String("filter_column")
				if err != nil {
					return nil, err
				}
				value, err := args.String("filter_value")
				if err != nil {
					return nil, err
				}
				return c.QueryCSV(ctx, QueryRequest{
					Bucket:       bucket,
					Key:          key,
					FilterColumn: column,
					FilterValue:  value,
					MaxRows:      limit,
				}), nil
			},
		},
		{
			spec: rpc.Tool{
				Name:        ToolSummarize,
				Description: "Get a summary of datasets in an S3 bucket or prefix, including file types and sizes.",
				InputSchema: objectSchema(nil,
					bucketProp(),
					stringProp("prefix", "Optional prefix to filter objects (e.g., \"data/2024/\")", ""),
				),
			},
			call: func(ctx context.Context, args Args) (lake.Envelope, error) {
				bucket, prefix, err := bucketAndPrefix(args)
				if err != nil {
					return nil, err
				}
				return c.Summarize(ctx, bucket, prefix), nil
			},
		},
		{
			spec: rpc.Tool{
				Name:        ToolFileMetadata,
				Description: "Get detailed metadata for a specific file in S3.",
				InputSchema: objectSchema([]string{"object_key"},
					bucketProp(), keyProp("target"),
				),
			},
			call: func(ctx context.Context, args Args) (lake.Envelope, error) {
				bucket, err := args.String("bucket_name")
				if err != nil {
					return nil, err
				}
				key, err := args.String("object_key")
				if err != nil {
					return nil, err
				}
				return c.FileMetadata(ctx, bucket, key), nil
			},
		},
	}
}

// -----------------------------------------------------------------------------
// Argument helpers
// -----------------------------------------------------------------------------

func bucketAndPrefix(args Args) (string, string, error) {
	bucket, err := args.String("bucket_name")
	if err != nil {
		return "", "", err
	}
	prefix, err := args.String("prefix")
	if err != nil {
		return "", "", err
	}
	return bucket, prefix, nil
}

func readArgs(args Args, limitField string) (bucket, key string, limit int, err error) {
	if bucket, err = args.String("bucket_name"); err != nil {
		return
	}
	if key, err = args.String("object_key"); err != nil {
		return
	}
	limit, err = args.Int(limitField, DefaultMaxRows)
	return
}

// -----------------------------------------------------------------------------
// Input schemas
// -----------------------------------------------------------------------------

type property struct {
	name   string
	schema map[string]any
}

func objectSchema(required []string, props ...property) map[string]any {
	properties := make(map[string]any, len(props))
	for _, p := range props {
		properties[p.name] = p.schema
	}
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func stringProp(name, description, def string) property {
	return property{name: name, schema: map[string]any{
		"type":        "string",
		"description": description,
		"default":     def,
	}}
}

func intProp(name, description string, def int) property {
	return property{name: name, schema: map[string]any{
		"type":        "integer",
		"description": description,
		"default":     def,
	}}
}

func bucketProp() property {
	return property{name: "bucket_name", schema: map[string]any{
		"type":        "string",
		"description": "Name of the S3 bucket (defaults to the configured bucket)",
	}}
}

func keyProp(format string) property {
	return property{name: "object_key", schema: map[string]any{
		"type":        "string",
		"description": fmt.Sprintf("Key (path) of the %s file in S3", format),
	}}
}
