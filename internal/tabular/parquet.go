package tabular

import (
	"bytes"
	"errors"
	"io"
	"math"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/justapithecus/s3lake/lake"
)

const parquetBatch = 256

// ReadParquet decodes a Parquet file. Columns are the schema's leaf paths
// joined with "."; a repeated leaf yields a list per row. At most limit
// rows are materialized (limit <= 0 reads all); Total always reports the
// file's row count.
func ReadParquet(data []byte, limit int) (*Table, error) {
	t, err := readParquet(data, limit)
	if err != nil {
		return nil, lake.FormatError("Parquet", err)
	}
	return t, nil
}

func readParquet(data []byte, limit int) (*Table, error) {
	f, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	schema := f.Schema()
	paths := schema.Columns()
	t := &Table{
		Columns: make([]string, len(paths)),
		DTypes:  make([]string, len(paths)),
		Total:   int(f.NumRows()),
	}
	repeated := make([]bool, len(paths))
	for i, path := range paths {
		t.Columns[i] = strings.Join(path, ".")
		leaf, ok := schema.Lookup(path...)
		if !ok {
			t.DTypes[i] = TypeObject
			continue
		}
		t.DTypes[i] = parquetDType(leaf.Node)
		repeated[i] = leaf.MaxRepetitionLevel > 0
	}

	want := t.Total
	if limit > 0 && limit < want {
		want = limit
	}
	t.Rows = make([]Row, 0, want)

	buf := make([]parquet.Row, parquetBatch)
	for _, rg := range f.RowGroups() {
		if len(t.Rows) >= want {
			break
		}
		if err := readRowGroup(rg, t, repeated, buf, want); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func readRowGroup(rg parquet.RowGroup, t *Table, repeated []bool, buf []parquet.Row, want int) error {
	rows := rg.Rows()
	defer func() { _ = rows.Close() }()

	for len(t.Rows) < want {
		n, err := rows.ReadRows(buf)
		for _, r := range buf[:n] {
			if len(t.Rows) >= want {
				break
			}
			t.Rows = append(t.Rows, convertRow(r, len(t.Columns), repeated))
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
	}
	return nil
}

func convertRow(r parquet.Row, width int, repeated []bool) Row {
	row := make(Row, width)
	for _, v := range r {
		col := v.Column()
		if col < 0 || col >= width {
			continue
		}
		val := parquetValue(v)
		if !repeated[col] {
			row[col] = val
			continue
		}
		list, _ := row[col].([]any)
		if list == nil {
			list = []any{}
		}
		if !v.IsNull() {
			list = append(list, val)
		}
		row[col] = list
	}
	return row
}

func parquetValue(v parquet.Value) any {
	if v.IsNull() {
		return nil
	}
	switch v.Kind() {
	case parquet.Boolean:
		return v.Boolean()
	case parquet.Int32:
		return int64(v.Int32())
	case parquet.Int64:
		return v.Int64()
	case parquet.Float:
		f := float64(v.Float())
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return f
	case parquet.Double:
		f := v.Double()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return f
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray())
	default:
		return v.String()
	}
}

func parquetDType(node parquet.Node) string {
	switch node.Type().Kind() {
	case parquet.Boolean:
		return TypeBool
	case parquet.Int32:
		return TypeInt32
	case parquet.Int64:
		return TypeInt64
	case parquet.Float:
		return TypeFloat32
	case parquet.Double:
		return TypeFloat64
	default:
		return TypeObject
	}
}
