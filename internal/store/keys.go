package store

import (
	"strings"

	"github.com/justapithecus/s3lake/lake"
)

// Format is the tabular encoding implied by an object key.
type Format string

// Recognized formats.
const (
	FormatUnknown Format = ""
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
	FormatJSONL   Format = "jsonl"
	FormatParquet Format = "parquet"
	FormatText    Format = "txt"
)

// Compression is the stream compression implied by an object key suffix.
type Compression string

// Recognized compressions.
const (
	CompressionNone Compression = ""
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
)

// ReadableFormats are the formats the catalog can parse, in the order
// advertised by get_file_metadata.
var ReadableFormats = []string{"csv", "json", "parquet"}

var compressionSuffixes = map[string]Compression{
	"gz":   CompressionGzip,
	"gzip": CompressionGzip,
	"zst":  CompressionZstd,
	"zstd": CompressionZstd,
}

var formatExtensions = map[string]Format{
	"csv":     FormatCSV,
	"json":    FormatJSON,
	"jsonl":   FormatJSONL,
	"ndjson":  FormatJSONL,
	"parquet": FormatParquet,
	"txt":     FormatText,
}

// KeyLayout describes what an object key says about its contents.
type KeyLayout struct {
	// Extension is the last extension of the key's base name, or
	// lake.NoExtension.
	Extension string

	// Format is the tabular format after stripping any compression suffix.
	Format Format

	// Compression is the compression implied by the final suffix.
	Compression Compression
}

// IsDataFile reports whether the key names a recognized tabular file.
func (l KeyLayout) IsDataFile() bool {
	return l.Format != FormatUnknown
}

// ParseKey classifies key by its extensions: "events.jsonl.gz" is JSONL
// compressed with gzip, "a.csv" is plain CSV, "README" is unknown.
func ParseKey(key string) KeyLayout {
	layout := KeyLayout{Extension: lake.Extension(key)}
	if layout.Extension == lake.NoExtension {
		return layout
	}

	ext := layout.Extension
	if c, ok := compressionSuffixes[ext]; ok {
		layout.Compression = c
		inner := lake.Extension(strings.TrimSuffix(key, "."+keySuffix(key)))
		if inner == lake.NoExtension {
			return layout
		}
		ext = inner
	}

	layout.Format = formatExtensions[ext]
	return layout
}

// keySuffix returns the raw (case-preserving) last extension of key.
func keySuffix(key string) string {
	i := strings.LastIndexByte(key, '.')
	if i < 0 {
		return ""
	}
	return key[i+1:]
}
