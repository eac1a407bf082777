package tabular

import (
	"bytes"
	"errors"
	"testing"

	"github.com/parquet-go/parquet-go"

	"github.com/justapithecus/s3lake/lake"
)

type event struct {
	ID     int64   `parquet:"id"`
	Kind   string  `parquet:"kind"`
	Amount float64 `parquet:"amount"`
	Count  int32   `parquet:"count"`
	OK     bool    `parquet:"ok"`
}

func writeEvents(t *testing.T, n int) []byte {
	t.Helper()
	rows := make([]event, n)
	for i := range rows {
		rows[i] = event{ID: int64(i + 1), Kind: "click", Amount: float64(i) + 0.5, Count: int32(i), OK: i%2 == 0}
	}
	var buf bytes.Buffer
	if err := parquet.Write(&buf, rows); err != nil {
		t.Fatalf("parquet.Write() error: %v", err)
	}
	return buf.Bytes()
}

func TestReadParquet(t *testing.T) {
	tbl, err := ReadParquet(writeEvents(t, 5), 0)
	if err != nil {
		t.Fatalf("ReadParquet() error: %v", err)
	}
	if tbl.Total != 5 || len(tbl.Rows) != 5 {
		t.Fatalf("expected 5 rows, got total=%d rows=%d", tbl.Total, len(tbl.Rows))
	}

	wantTypes := map[string]string{
		"id":     TypeInt64,
		"kind":   TypeObject,
		"amount": TypeFloat64,
		"count":  TypeInt32,
		"ok":     TypeBool,
	}
	types := tbl.DTypeMap()
	for col, want := range wantTypes {
		if types[col] != want {
			t.Errorf("dtype[%s] = %q, want %q", col, types[col], want)
		}
	}

	row := tbl.Rows[2]
	if v := row[tbl.ColumnIndex("id")]; v != int64(3) {
		t.Errorf("id = %#v, want 3", v)
	}
	if v := row[tbl.ColumnIndex("kind")]; v != "click" {
		t.Errorf("kind = %#v, want click", v)
	}
	if v := row[tbl.ColumnIndex("amount")]; v != 2.5 {
		t.Errorf("amount = %#v, want 2.5", v)
	}
	if v := row[tbl.ColumnIndex("count")]; v != int64(2) {
		t.Errorf("count = %#v, want 2", v)
	}
	if v := row[tbl.ColumnIndex("ok")]; v != true {
		t.Errorf("ok = %#v, want true", v)
	}
}

func TestReadParquet_Limit(t *testing.T) {
	tbl, err := ReadParquet(writeEvents(t, 600), 10)
	if err != nil {
		t.Fatalf("ReadParquet() error: %v", err)
	}
	if tbl.Total != 600 {
		t.Errorf("Total = %d, want 600", tbl.Total)
	}
	if len(tbl.Rows) != 10 {
		t.Fatalf("expected 10 rows, got %d", len(tbl.Rows))
	}
	if tbl.Rows[9][tbl.ColumnIndex("id")] != int64(10) {
		t.Error("limit must keep the first rows in file order")
	}

	head, truncated := tbl.Head(10)
	if !truncated || len(head.Rows) != 10 {
		t.Errorf("Head(10) = %d rows truncated=%v", len(head.Rows), truncated)
	}
}

func TestReadParquet_Invalid(t *testing.T) {
	_, err := ReadParquet([]byte("not a parquet file"), 0)
	if !errors.Is(err, lake.ErrFormat) {
		t.Fatalf("expected format fault, got %v", err)
	}
}
