package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/justapithecus/s3lake/lake"
)

// ErrNoColumns is returned for CSV input without a header row.
var ErrNoColumns = errors.New("no columns to parse from file")

// naValues are cell texts decoded as null.
var naValues = map[string]bool{
	"":     true,
	"NA":   true,
	"N/A":  true,
	"n/a":  true,
	"#N/A": true,
	"NaN":  true,
	"nan":  true,
	"-nan": true,
	"null": true,
	"NULL": true,
	"None": true,
	"<NA>": true,
}

// ReadCSV decodes a CSV file whose first record is the header. Column
// types are inferred from every row: a column is int64 when all non-null
// cells parse as integers, float64 when they parse as numbers (or are
// integers mixed with nulls), bool for true/false text, and object
// otherwise. Short rows are padded with nulls; long rows are an error.
func ReadCSV(data []byte) (*Table, error) {
	t, err := readCSV(data)
	if err != nil {
		return nil, lake.FormatError("CSV", err)
	}
	return t, nil
}

func readCSV(data []byte) (*Table, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoColumns
	}
	if err != nil {
		return nil, err
	}
	columns := dedupeColumns(header)

	var text [][]string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) > len(columns) {
			line, _ := r.FieldPos(0)
			return nil, fmt.Errorf("expected %d fields in line %d, saw %d", len(columns), line, len(record))
		}
		for len(record) < len(columns) {
			record = append(record, "")
		}
		text = append(text, record)
	}

	t := &Table{
		Columns: columns,
		DTypes:  make([]string, len(columns)),
		Rows:    make([]Row, len(text)),
		Total:   len(text),
		text:    text,
	}
	for i := range t.Rows {
		t.Rows[i] = make(Row, len(columns))
	}
	for col := range columns {
		t.DTypes[col] = inferColumn(t, col)
	}
	return t, nil
}

// dedupeColumns renames repeated header names to "name.1", "name.2", ...
func dedupeColumns(header []string) []string {
	seen := make(map[string]int, len(header))
	out := make([]string, len(header))
	for i, name := range header {
		n := seen[name]
		seen[name] = n + 1
		if n == 0 {
			out[i] = name
			continue
		}
		candidate := fmt.Sprintf("%s.%d", name, n)
		for seen[candidate] > 0 {
			n++
			candidate = fmt.Sprintf("%s.%d", name, n)
		}
		seen[candidate] = 1
		out[i] = candidate
	}
	return out
}

// inferColumn fills column col of t.Rows and returns its dtype.
func inferColumn(t *Table, col int) string {
	ints, floats, bools, nulls := true, true, true, 0
	for _, rec := range t.text {
		cell := rec[col]
		if naValues[cell] {
			nulls++
			continue
		}
		if ints {
			if _, err := strconv.ParseInt(strings.TrimSpace(cell), 10, 64); err != nil {
				ints = false
			}
		}
		if floats {
			if _, ok := parseFinite(cell); !ok {
				floats = false
			}
		}
		if bools {
			if _, ok := parseBool(cell); !ok {
				bools = false
			}
		}
	}

	dtype := TypeObject
	switch {
	case len(t.text) == 0:
		// header only: no values to infer from
	case nulls == len(t.text):
		dtype = TypeFloat64 // all-null columns carry no values
	case ints && nulls == 0:
		dtype = TypeInt64
	case ints || floats:
		dtype = TypeFloat64
	case bools && nulls == 0:
		dtype = TypeBool
	}

	for row, rec := range t.text {
		cell := rec[col]
		if naValues[cell] {
			continue
		}
		switch dtype {
		case TypeInt64:
			v, _ := strconv.ParseInt(strings.TrimSpace(cell), 10, 64)
			t.Rows[row][col] = v
		case TypeFloat64:
			v, _ := parseFinite(cell)
			t.Rows[row][col] = v
		case TypeBool:
			v, _ := parseBool(cell)
			t.Rows[row][col] = v
		default:
			t.Rows[row][col] = cell
		}
	}
	return dtype
}

// parseFinite parses s as a finite float. Infinities and NaN have no JSON
// encoding and are left as text.
func parseFinite(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func parseBool(s string) (bool, bool) {
	switch s {
	case "true", "True", "TRUE":
		return true, true
	case "false", "False", "FALSE":
		return false, true
	default:
		return false, false
	}
}
