package catalog

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/justapithecus/s3lake/internal/store"
	"github.com/justapithecus/s3lake/internal/tabular"
	"github.com/justapithecus/s3lake/lake"
)

// Defaults applied when a tool argument is absent.
const (
	DefaultMaxKeys = 100
	DefaultMaxRows = 1000
)

// SummaryListLimit is the number of objects get_dataset_summary examines.
const SummaryListLimit = 1000

// SampleFilesPerExtension is the number of sample files kept per
// extension in a summary.
const SampleFilesPerExtension = 5

// ObjectStore is the subset of *store.Store the catalog reads through.
type ObjectStore interface {
	Buckets(ctx context.Context) ([]store.Bucket, error)
	List(ctx context.Context, bucket, prefix string, opts store.ListOptions) (store.ListPage, error)
	Read(ctx context.Context, ref lake.ObjectRef) ([]byte, error)
	Head(ctx context.Context, ref lake.ObjectRef) (store.ObjectHead, error)
}

// Ensure *store.Store implements ObjectStore
var _ ObjectStore = (*store.Store)(nil)

// Observer receives one observation per tool call. kind is empty for a
// success.
type Observer interface {
	ObserveTool(tool, kind string, elapsed time.Duration)
}

// Catalog serves the data-lake tools over one object store.
type Catalog struct {
	store         ObjectStore
	defaultBucket string
	logger        zerolog.Logger
	observer      Observer
	tools         []toolEntry
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithDefaultBucket sets the bucket used when a call leaves bucket_name
// empty.
func WithDefaultBucket(bucket string) Option {
	return func(c *Catalog) {
		c.defaultBucket = bucket
	}
}

// WithLogger sets the logger used for failed calls.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Catalog) {
		c.logger = logger
	}
}

// WithObserver records tool calls made through Call.
func WithObserver(o Observer) Option {
	return func(c *Catalog) {
		c.observer = o
	}
}

// New creates a catalog reading from s.
func New(s ObjectStore, opts ...Option) *Catalog {
	c := &Catalog{
		store:  s,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.tools = c.registry()
	return c
}

// -----------------------------------------------------------------------------
// Tools
// -----------------------------------------------------------------------------

// ListBuckets lists every bucket the store credentials can see.
func (c *Catalog) ListBuckets(ctx context.Context) lake.Result[BucketList] {
	buckets, err := c.store.Buckets(ctx)
	if err != nil {
		return fail[BucketList](c, ToolListBuckets, lake.ObjectRef{}, err)
	}

	out := BucketList{Buckets: make([]BucketEntry, 0, len(buckets)), Count: len(buckets)}
	for _, b := range buckets {
		out.Buckets = append(out.Buckets, BucketEntry{
			Name:         b.Name,
			CreationDate: lake.FormatTime(b.CreationDate),
		})
	}
	return lake.Ok(out)
}

// ListObjects lists up to maxKeys objects under prefix.
func (c *Catalog) ListObjects(ctx context.Context, bucket, prefix string, maxKeys int) lake.Result[ObjectList] {
	ref := lake.ObjectRef{Bucket: c.bucket(bucket)}
	if err := requireBucket(ref); err != nil {
		return fail[ObjectList](c, ToolListObjects, ref, err)
	}
	if maxKeys < 1 {
		return fail[ObjectList](c, ToolListObjects, ref,
			&lake.ArgumentError{Field: "max_keys", Message: "must be at least 1"})
	}

	page, err := c.store.List(ctx, ref.Bucket, prefix, store.ListOptions{Limit: maxKeys})
	if err != nil {
		return fail[ObjectList](c, ToolListObjects, ref, err)
	}

	objects := make([]ObjectEntry, 0, len(page.Objects))
	for _, o := range page.Objects {
		if len(objects) == maxKeys {
			break
		}
		objects = append(objects, ObjectEntry{
			Key:          o.Key,
			Size:         o.Size,
			LastModified: lake.FormatTime(o.LastModified),
			StorageClass: o.StorageClass,
			ETag:         o.ETag,
		})
	}

	return lake.Ok(ObjectList{
		Bucket:      ref.Bucket,
		Prefix:      prefix,
		Objects:     objects,
		Count:       len(objects),
		IsTruncated: page.Truncated,
	})
}

// ReadCSV reads a CSV object and returns its first maxRows rows. maxRows
// of 0 returns every row.
func (c *Catalog) ReadCSV(ctx context.Context, bucket, key string, maxRows int) lake.Result[TableRead] {
	ref := lake.ObjectRef{Bucket: c.bucket(bucket), Key: key}
	tbl, err := c.readCSV(ctx, ref, maxRows)
	if err != nil {
		return fail[TableRead](c, ToolReadCSV, ref, err)
	}

	head, truncated := tbl.Head(maxRows)
	return lake.Ok(TableRead{
		Bucket:    ref.Bucket,
		ObjectKey: ref.Key,
		FileType:  FileTypeCSV,
		Metadata:  tableMetadata(tbl, head, truncated),
		Data:      head.Records(),
	})
}

// ReadParquet reads a Parquet object and returns its first maxRows rows.
// maxRows of 0 returns every row.
func (c *Catalog) ReadParquet(ctx context.Context, bucket, key string, maxRows int) lake.Result[TableRead] {
	ref := lake.ObjectRef{Bucket: c.bucket(bucket), Key: key}
	if err := validateRead(ref, "max_rows", maxRows); err != nil {
		return fail[TableRead](c, ToolReadParquet, ref, err)
	}

	data, _, err := c.fetch(ctx, ref)
	if err != nil {
		return fail[TableRead](c, ToolReadParquet, ref, err)
	}
	tbl, err := tabular.ReadParquet(data, maxRows)
	if err != nil {
		return fail[TableRead](c, ToolReadParquet, ref, err)
	}

	head, truncated := tbl.Head(maxRows)
	return lake.Ok(TableRead{
		Bucket:    ref.Bucket,
		ObjectKey: ref.Key,
		FileType:  FileTypeParquet,
		Metadata:  tableMetadata(tbl, head, truncated),
		Data:      head.Records(),
	})
}

// ReadJSON reads a JSON object. Arrays keep their first maxRecords
// elements; maxRecords of 0 keeps all. JSONL and NDJSON keys are read as
// arrays of lines.
func (c *Catalog) ReadJSON(ctx context.Context, bucket, key string, maxRecords int) lake.Result[JSONRead] {
	ref := lake.ObjectRef{Bucket: c.bucket(bucket), Key: key}
	if err := validateRead(ref, "max_records", maxRecords); err != nil {
		return fail[JSONRead](c, ToolReadJSON, ref, err)
	}

	data, layout, err := c.fetch(ctx, ref)
	if err != nil {
		return fail[JSONRead](c, ToolReadJSON, ref, err)
	}

	fileType := FileTypeJSON
	var doc *tabular.Document
	if layout.Format == store.FormatJSONL {
		fileType = FileTypeJSONL
		doc, err = tabular.ReadJSONLines(data)
	} else {
		doc, err = tabular.ReadJSON(data)
	}
	if err != nil {
		return fail[JSONRead](c, ToolReadJSON, ref, err)
	}

	out := JSONRead{
		Bucket:    ref.Bucket,
		ObjectKey: ref.Key,
		FileType:  fileType,
		Metadata:  JSONMetadata{Type: doc.Shape, Keys: doc.Keys},
		Data:      doc.Raw,
	}
	if doc.Shape == tabular.ShapeArray {
		items, truncated := doc.Head(maxRecords)
		raw, err := json.Marshal(items)
		if err != nil {
			return fail[JSONRead](c, ToolReadJSON, ref, lake.FormatError("JSON", err))
		}
		out.Data = raw
		out.Metadata.TotalRecords = len(doc.Items)
		out.Metadata.ReturnedRecords = len(items)
		out.Metadata.Truncated = truncated
	}
	return lake.Ok(out)
}

// QueryRequest are the arguments of QueryCSV.
type QueryRequest struct {
	Bucket       string
	Key          string
	FilterColumn string
	FilterValue  string
	MaxRows      int
}

// QueryCSV reads a CSV object and filters it when both FilterColumn and
// FilterValue are set, then keeps the first MaxRows matching rows.
func (c *Catalog) QueryCSV(ctx context.Context, q QueryRequest) lake.Result[QueryResult] {
	ref := lake.ObjectRef{Bucket: c.bucket(q.Bucket), Key: q.Key}
	tbl, err := c.readCSV(ctx, ref, q.MaxRows)
	if err != nil {
		return fail[QueryResult](c, ToolQueryCSV, ref, err)
	}

	applied := q.FilterColumn != "" && q.FilterValue != ""
	filtered := tbl
	if applied {
		filtered, err = tabular.Filter(tbl, q.FilterColumn, q.FilterValue)
		if err != nil {
			return fail[QueryResult](c, ToolQueryCSV, ref, err)
		}
	}

	head, truncated := filtered.Head(q.MaxRows)
	return lake.Ok(QueryResult{
		Bucket:    ref.Bucket,
		ObjectKey: ref.Key,
		FileType:  FileTypeCSV,
		Metadata: QueryMetadata{
			OriginalRows:  tbl.Total,
			FilteredRows:  filtered.Total,
			ReturnedRows:  len(head.Rows),
			Columns:       tbl.Columns,
			ColumnCount:   len(tbl.Columns),
			FilterApplied: applied,
			FilterColumn:  q.FilterColumn,
			FilterValue:   q.FilterValue,
			Truncated:     truncated,
			DTypes:        tbl.DTypeMap(),
		},
		Data: head.Records(),
	})
}

// FileMetadata returns the store attributes of one object and whether its
// extension names a tabular format.
func (c *Catalog) FileMetadata(ctx context.Context, bucket, key string) lake.Result[FileMetadata] {
	ref := lake.ObjectRef{Bucket: c.bucket(bucket), Key: key}
	if err := requireObject(ref); err != nil {
		return fail[FileMetadata](c, ToolFileMetadata, ref, err)
	}

	head, err := c.store.Head(ctx, ref)
	if err != nil {
		return fail[FileMetadata](c, ToolFileMetadata, ref, err)
	}

	layout := store.ParseKey(ref.Key)
	md := ObjectMetadata{
		Bucket:               ref.Bucket,
		Key:                  ref.Key,
		Size:                 head.Size,
		SizeFormatted:        lake.FormatBytes(head.Size),
		LastModified:         lake.FormatTime(head.LastModified),
		ETag:                 head.ETag,
		ContentType:          orDefault(head.ContentType, "unknown"),
		StorageClass:         head.StorageClass,
		ServerSideEncryption: optional(head.ServerSideEncryption),
		Metadata:             head.Metadata,
		CacheControl:         optional(head.CacheControl),
		ContentDisposition:   optional(head.ContentDisposition),
		ContentEncoding:      optional(head.ContentEncoding),
		ContentLanguage:      optional(head.ContentLanguage),
		FileExtension:        layout.Extension,
		DataFile:             layout.IsDataFile(),
	}
	if md.Metadata == nil {
		md.Metadata = map[string]string{}
	}
	if md.DataFile {
		md.ReadableFormats = store.ReadableFormats
	}
	return lake.Ok(FileMetadata{Metadata: md})
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func (c *Catalog) bucket(bucket string) string {
	if bucket == "" {
		return c.defaultBucket
	}
	return bucket
}

// fetch reads ref and strips any compression implied by its key.
func (c *Catalog) fetch(ctx context.Context, ref lake.ObjectRef) ([]byte, store.KeyLayout, error) {
	layout := store.ParseKey(ref.Key)
	data, err := c.store.Read(ctx, ref)
	if err != nil {
		return nil, layout, err
	}
	data, err = tabular.Decompress(data, string(layout.Compression))
	if err != nil {
		return nil, layout, err
	}
	return data, layout, nil
}

func (c *Catalog) readCSV(ctx context.Context, ref lake.ObjectRef, maxRows int) (*tabular.Table, error) {
	if err := validateRead(ref, "max_rows", maxRows); err != nil {
		return nil, err
	}
	data, _, err := c.fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	return tabular.ReadCSV(data)
}

func tableMetadata(full, head *tabular.Table, truncated bool) TableMetadata {
	return TableMetadata{
		TotalRows:    full.Total,
		ReturnedRows: len(head.Rows),
		Columns:      full.Columns,
		ColumnCount:  len(full.Columns),
		Truncated:    truncated,
		DTypes:       full.DTypeMap(),
	}
}

func requireBucket(ref lake.ObjectRef) error {
	if ref.Bucket == "" {
		return &lake.ArgumentError{Field: "bucket_name", Message: "is required (no default bucket configured)"}
	}
	return nil
}

func requireObject(ref lake.ObjectRef) error {
	if err := requireBucket(ref); err != nil {
		return err
	}
	if ref.Key == "" {
		return &lake.ArgumentError{Field: "object_key", Message: "is required"}
	}
	return nil
}

func validateRead(ref lake.ObjectRef, limitField string, limit int) error {
	if err := requireObject(ref); err != nil {
		return err
	}
	if limit < 0 {
		return &lake.ArgumentError{Field: limitField, Message: "must not be negative"}
	}
	return nil
}

// fail classifies err, logs it against tool and ref, and wraps it.
func fail[T any](c *Catalog, tool string, ref lake.ObjectRef, err error) lake.Result[T] {
	r := lake.Fail[T](err)
	le := r.Failure()

	ev := c.logger.Error().
		Str("tool", tool).
		Str("error_kind", le.Kind.String())
	if ref.Bucket != "" {
		ev = ev.Str("bucket", ref.Bucket)
	}
	if ref.Key != "" {
		ev = ev.Str("key", ref.Key)
	}
	if code := store.ErrorCode(err); code != "" {
		ev = ev.Str("code", code)
	}
	if le.Err != nil {
		ev = ev.Err(le.Err)
	}
	ev.Msg(le.Message)
	return r
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
