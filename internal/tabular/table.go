package tabular

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Column types reported in dtypes. Names follow the dataframe conventions
// that downstream consumers of the tool output already expect.
const (
	TypeObject  = "object"
	TypeBool    = "bool"
	TypeInt32   = "int32"
	TypeInt64   = "int64"
	TypeFloat32 = "float32"
	TypeFloat64 = "float64"
)

// IsNumeric reports whether dtype holds integers or floats.
func IsNumeric(dtype string) bool {
	switch dtype {
	case TypeInt32, TypeInt64, TypeFloat32, TypeFloat64:
		return true
	default:
		return false
	}
}

// Row is one record; values are in column order.
type Row []any

// Table is a decoded tabular file.
type Table struct {
	Columns []string
	DTypes  []string
	Rows    []Row

	// Total is the number of rows in the source. It equals len(Rows) unless
	// the decoder stopped early at a row limit.
	Total int

	// text holds the source cell text for CSV tables, parallel to Rows.
	// Substring filters match against it rather than the typed value.
	text [][]string
}

// ColumnIndex returns the position of name, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// DTypeMap returns column name to dtype.
func (t *Table) DTypeMap() map[string]string {
	m := make(map[string]string, len(t.Columns))
	for i, c := range t.Columns {
		m[c] = t.DTypes[i]
	}
	return m
}

// Head returns a table holding the first n rows and whether rows were
// dropped. n <= 0 means no cap. The receiver is not modified.
func (t *Table) Head(n int) (*Table, bool) {
	if n <= 0 || len(t.Rows) <= n {
		return t, t.Total > len(t.Rows)
	}
	out := *t
	out.Rows = t.Rows[:n]
	if t.text != nil {
		out.text = t.text[:n]
	}
	return &out, true
}

// Records returns the rows as JSON objects keyed by column name.
func (t *Table) Records() Records {
	return Records{columns: t.Columns, rows: t.Rows}
}

// cellText returns the source text of a cell, or its formatted value when
// the table was not decoded from text.
func (t *Table) cellText(row, col int) string {
	if t.text != nil {
		return t.text[row][col]
	}
	v := t.Rows[row][col]
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// Records marshals rows as an array of objects whose keys follow column
// order.
type Records struct {
	columns []string
	rows    []Row
}

// Len returns the number of records.
func (r Records) Len() int {
	return len(r.rows)
}

// MarshalJSON implements json.Marshaler.
func (r Records) MarshalJSON() ([]byte, error) {
	stream := json.BorrowStream(nil)
	defer json.ReturnStream(stream)

	stream.WriteArrayStart()
	for i, row := range r.rows {
		if i > 0 {
			stream.WriteMore()
		}
		stream.WriteObjectStart()
		for j, col := range r.columns {
			if j > 0 {
				stream.WriteMore()
			}
			stream.WriteObjectField(col)
			if j < len(row) {
				stream.WriteVal(row[j])
			} else {
				stream.WriteNil()
			}
		}
		stream.WriteObjectEnd()
	}
	stream.WriteArrayEnd()

	if stream.Error != nil {
		return nil, stream.Error
	}
	return append([]byte(nil), stream.Buffer()...), nil
}
