package catalog

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/justapithecus/s3lake/internal/tabular"
)

// File types reported in read payloads.
const (
	FileTypeCSV     = "csv"
	FileTypeJSON    = "json"
	FileTypeJSONL   = "jsonl"
	FileTypeParquet = "parquet"
)

// -----------------------------------------------------------------------------
// Listing
// -----------------------------------------------------------------------------

// BucketEntry is one bucket in a BucketList.
type BucketEntry struct {
	Name         string `json:"name"`
	CreationDate string `json:"creation_date"`
}

// BucketList is the payload of list_s3_buckets.
type BucketList struct {
	Buckets []BucketEntry `json:"buckets"`
	Count   int           `json:"count"`
}

// ObjectEntry is one object in an ObjectList.
type ObjectEntry struct {
	Key          string `json:"key"`
	Size         int64  `json:"size"`
	LastModified string `json:"last_modified"`
	StorageClass string `json:"storage_class"`
	ETag         string `json:"etag"`
}

// ObjectList is the payload of list_s3_objects. IsTruncated is the store's
// own flag and is independent of the max_keys cap.
type ObjectList struct {
	Bucket      string        `json:"bucket"`
	Prefix      string        `json:"prefix"`
	Objects     []ObjectEntry `json:"objects"`
	Count       int           `json:"count"`
	IsTruncated bool          `json:"is_truncated"`
}

// -----------------------------------------------------------------------------
// Reads
// -----------------------------------------------------------------------------

// TableMetadata describes a CSV or Parquet read.
type TableMetadata struct {
	TotalRows    int               `json:"total_rows"`
	ReturnedRows int               `json:"returned_rows"`
	Columns      []string          `json:"columns"`
	ColumnCount  int               `json:"column_count"`
	Truncated    bool              `json:"truncated"`
	DTypes       map[string]string `json:"dtypes"`
}

// TableRead is the payload of read_csv_from_s3 and read_parquet_from_s3.
type TableRead struct {
	Bucket    string          `json:"bucket"`
	ObjectKey string          `json:"object_key"`
	FileType  string          `json:"file_type"`
	Metadata  TableMetadata   `json:"metadata"`
	Data      tabular.Records `json:"data"`
}

// JSONMetadata describes a JSON read. Which fields are present depends on
// the document shape.
type JSONMetadata struct {
	Type string

	// array documents
	TotalRecords    int
	ReturnedRecords int
	Truncated       bool

	// object documents
	Keys []string
}

type arrayMetadata struct {
	Type            string `json:"type"`
	TotalRecords    int    `json:"total_records"`
	ReturnedRecords int    `json:"returned_records"`
	Truncated       bool   `json:"truncated"`
}

type objectMetadata struct {
	Type     string   `json:"type"`
	Keys     []string `json:"keys"`
	KeyCount int      `json:"key_count"`
}

type scalarMetadata struct {
	Type string `json:"type"`
}

// MarshalJSON renders only the fields meaningful for m.Type.
func (m JSONMetadata) MarshalJSON() ([]byte, error) {
	switch m.Type {
	case tabular.ShapeArray:
		return json.Marshal(arrayMetadata{
			Type:            m.Type,
			TotalRecords:    m.TotalRecords,
			ReturnedRecords: m.ReturnedRecords,
			Truncated:       m.Truncated,
		})
	case tabular.ShapeObject:
		keys := m.Keys
		if keys == nil {
			keys = []string{}
		}
		return json.Marshal(objectMetadata{Type: m.Type, Keys: keys, KeyCount: len(keys)})
	default:
		return json.Marshal(scalarMetadata{Type: m.Type})
	}
}

// JSONRead is the payload of read_json_from_s3. Data is the document, or
// the kept records for an array.
type JSONRead struct {
	Bucket    string              `json:"bucket"`
	ObjectKey string              `json:"object_key"`
	FileType  string              `json:"file_type"`
	Metadata  JSONMetadata        `json:"metadata"`
	Data      jsoniter.RawMessage `json:"data"`
}

// QueryMetadata describes a query_csv_data result.
type QueryMetadata struct {
	OriginalRows  int               `json:"original_rows"`
	FilteredRows  int               `json:"filtered_rows"`
	ReturnedRows  int               `json:"returned_rows"`
	Columns       []string          `json:"columns"`
	ColumnCount   int               `json:"column_count"`
	FilterApplied bool              `json:"filter_applied"`
	FilterColumn  string            `json:"filter_column"`
	FilterValue   string            `json:"filter_value"`
	Truncated     bool              `json:"truncated"`
	DTypes        map[string]string `json:"dtypes"`
}

// QueryResult is the payload of query_csv_data.
type QueryResult struct {
	Bucket    string          `json:"bucket"`
	ObjectKey string          `json:"object_key"`
	FileType  string          `json:"file_type"`
	Metadata  QueryMetadata   `json:"metadata"`
	Data      tabular.Records `json:"data"`
}

// -----------------------------------------------------------------------------
// Summary and metadata
// -----------------------------------------------------------------------------

// SampleFile is one example object of an extension.
type SampleFile struct {
	Key          string `json:"key"`
	Size         int64  `json:"size"`
	LastModified string `json:"last_modified"`
}

// ExtensionStats aggregates the objects sharing one extension.
type ExtensionStats struct {
	Count                int          `json:"count"`
	TotalSize            int64        `json:"total_size"`
	TotalSizeFormatted   string       `json:"total_size_formatted"`
	AverageSize          float64      `json:"average_size"`
	AverageSizeFormatted string       `json:"average_size_formatted"`
	SampleFiles          []SampleFile `json:"sample_files"`
}

// Summary aggregates a listing by extension. The zero Summary renders as
// an empty object.
type Summary struct {
	TotalFiles         int
	TotalSize          int64
	TotalSizeFormatted string
	FileTypes          map[string]ExtensionStats
}

type summaryJSON struct {
	TotalFiles         int                       `json:"total_files"`
	TotalSize          int64                     `json:"total_size"`
	TotalSizeFormatted string                    `json:"total_size_formatted"`
	FileTypes          map[string]ExtensionStats `json:"file_types"`
}

// MarshalJSON implements json.Marshaler.
func (s Summary) MarshalJSON() ([]byte, error) {
	if s.TotalFiles == 0 && s.FileTypes == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(summaryJSON(s))
}

// DatasetSummary is the payload of get_dataset_summary. An empty listing
// carries Message and an empty Summary, and omits is_truncated.
type DatasetSummary struct {
	Bucket      string  `json:"bucket"`
	Prefix      string  `json:"prefix"`
	Message     string  `json:"message,omitempty"`
	Summary     Summary `json:"summary"`
	IsTruncated *bool   `json:"is_truncated,omitempty"`
}

// ObjectMetadata is the attribute set returned by get_file_metadata.
// Optional store attributes are null when the store did not report them.
type ObjectMetadata struct {
	Bucket               string            `json:"bucket"`
	Key                  string            `json:"key"`
	Size                 int64             `json:"size"`
	SizeFormatted        string            `json:"size_formatted"`
	LastModified         string            `json:"last_modified"`
	ETag                 string            `json:"etag"`
	ContentType          string            `json:"content_type"`
	StorageClass         string            `json:"storage_class"`
	ServerSideEncryption *string           `json:"server_side_encryption"`
	Metadata             map[string]string `json:"metadata"`
	CacheControl         *string           `json:"cache_control"`
	ContentDisposition   *string           `json:"content_disposition"`
	ContentEncoding      *string           `json:"content_encoding"`
	ContentLanguage      *string           `json:"content_language"`
	FileExtension        string            `json:"file_extension"`
	DataFile             bool              `json:"data_file"`
	ReadableFormats      []string          `json:"readable_formats,omitempty"`
}

// FileMetadata is the payload of get_file_metadata.
type FileMetadata struct {
	Metadata ObjectMetadata `json:"metadata"`
}
