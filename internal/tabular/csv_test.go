package tabular

import (
	"errors"
	"strings"
	"testing"

	"github.com/justapithecus/s3lake/lake"
)

const peopleCSV = `id,name,age,score,active
1,Alice,30,88.5,true
2,bob,25,,false
3,Carol,41,92,true
4,alicia,,70.25,false
`

func TestReadCSV_Types(t *testing.T) {
	tbl, err := ReadCSV([]byte(peopleCSV))
	if err != nil {
		t.Fatalf("ReadCSV() error: %v", err)
	}

	wantCols := []string{"id", "name", "age", "score", "active"}
	if strings.Join(tbl.Columns, ",") != strings.Join(wantCols, ",") {
		t.Errorf("Columns = %v, want %v", tbl.Columns, wantCols)
	}

	wantTypes := map[string]string{
		"id":     TypeInt64,
		"name":   TypeObject,
		"age":    TypeFloat64, // ints with a null
		"score":  TypeFloat64,
		"active": TypeBool,
	}
	for col, want := range wantTypes {
		if got := tbl.DTypeMap()[col]; got != want {
			t.Errorf("dtype[%s] = %q, want %q", col, got, want)
		}
	}

	if tbl.Total != 4 || len(tbl.Rows) != 4 {
		t.Fatalf("expected 4 rows, got total=%d rows=%d", tbl.Total, len(tbl.Rows))
	}
	if v, ok := tbl.Rows[0][0].(int64); !ok || v != 1 {
		t.Errorf("id[0] = %#v, want int64(1)", tbl.Rows[0][0])
	}
	if tbl.Rows[1][3] != nil {
		t.Errorf("score[1] = %#v, want nil", tbl.Rows[1][3])
	}
	if tbl.Rows[3][2] != nil {
		t.Errorf("age[3] = %#v, want nil", tbl.Rows[3][2])
	}
	if v, ok := tbl.Rows[0][2].(float64); !ok || v != 30 {
		t.Errorf("age[0] = %#v, want float64(30)", tbl.Rows[0][2])
	}
	if tbl.Rows[2][4] != true {
		t.Errorf("active[2] = %#v, want true", tbl.Rows[2][4])
	}
}

func TestReadCSV_ShortRowsPadded(t *testing.T) {
	tbl, err := ReadCSV([]byte("a,b,c\n1,2\n"))
	if err != nil {
		t.Fatalf("ReadCSV() error: %v", err)
	}
	if tbl.Rows[0][2] != nil {
		t.Errorf("expected padded null, got %#v", tbl.Rows[0][2])
	}
}

func TestReadCSV_DuplicateColumns(t *testing.T) {
	tbl, err := ReadCSV([]byte("x,x,x\n1,2,3\n"))
	if err != nil {
		t.Fatalf("ReadCSV() error: %v", err)
	}
	want := "x,x.1,x.2"
	if got := strings.Join(tbl.Columns, ","); got != want {
		t.Errorf("Columns = %q, want %q", got, want)
	}
}

func TestReadCSV_QuoteInsideField(t *testing.T) {
	tbl, err := ReadCSV([]byte("id,item\n1,12\" pipe\n2,\"quoted, with comma\"\n"))
	if err != nil {
		t.Fatalf("ReadCSV() error: %v", err)
	}
	if tbl.Total != 2 {
		t.Fatalf("expected 2 rows, got %d", tbl.Total)
	}
	if got := tbl.Rows[0][1]; got != `12" pipe` {
		t.Errorf("item[0] = %#v, want %q", got, `12" pipe`)
	}
	if got := tbl.Rows[1][1]; got != "quoted, with comma" {
		t.Errorf("item[1] = %#v, want %q", got, "quoted, with comma")
	}
}

func TestReadCSV_HeaderOnly(t *testing.T) {
	tbl, err := ReadCSV([]byte("name,age\n"))
	if err != nil {
		t.Fatalf("ReadCSV() error: %v", err)
	}
	if tbl.Total != 0 {
		t.Errorf("Total = %d, want 0", tbl.Total)
	}
	for _, col := range tbl.Columns {
		if got := tbl.DTypeMap()[col]; got != TypeObject {
			t.Errorf("dtype[%s] = %q, want %q", col, got, TypeObject)
		}
	}
}

func TestReadCSV_AllNullColumn(t *testing.T) {
	tbl, err := ReadCSV([]byte("a,b\n1,\n2,NA\n"))
	if err != nil {
		t.Fatalf("ReadCSV() error: %v", err)
	}
	if got := tbl.DTypeMap()["b"]; got != TypeFloat64 {
		t.Errorf("dtype[b] = %q, want %q", got, TypeFloat64)
	}
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", "Invalid CSV format: no columns to parse from file"},
		{"long row", "a,b\n1,2,3\n", "Invalid CSV format: expected 2 fields in line 2, saw 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV([]byte(tt.input))
			if !errors.Is(err, lake.ErrFormat) {
				t.Fatalf("expected format fault, got %v", err)
			}
			var le *lake.Error
			errors.As(err, &le)
			if !strings.HasPrefix(le.Message, tt.want) {
				t.Errorf("Message = %q, want prefix %q", le.Message, tt.want)
			}
		})
	}
}

func TestTable_Head(t *testing.T) {
	tbl, err := ReadCSV([]byte(peopleCSV))
	if err != nil {
		t.Fatalf("ReadCSV() error: %v", err)
	}

	head, truncated := tbl.Head(2)
	if !truncated || len(head.Rows) != 2 {
		t.Errorf("Head(2) = %d rows truncated=%v", len(head.Rows), truncated)
	}
	if head.Rows[0][1] != "Alice" || head.Rows[1][1] != "bob" {
		t.Error("Head must keep the first rows in file order")
	}
	if len(tbl.Rows) != 4 {
		t.Error("Head must not modify the receiver")
	}

	for _, n := range []int{0, 4, 10} {
		head, truncated = tbl.Head(n)
		if truncated || len(head.Rows) != 4 {
			t.Errorf("Head(%d) = %d rows truncated=%v", n, len(head.Rows), truncated)
		}
	}
}

func TestRecords_MarshalJSON_KeepsColumnOrder(t *testing.T) {
	tbl, err := ReadCSV([]byte("z,a,m\n1,x,\n"))
	if err != nil {
		t.Fatalf("ReadCSV() error: %v", err)
	}

	data, err := tbl.Records().MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error: %v", err)
	}
	want := `[{"z":1,"a":"x","m":null}]`
	if string(data) != want {
		t.Errorf("MarshalJSON() = %s, want %s", data, want)
	}
}
