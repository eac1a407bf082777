package tabular

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/justapithecus/s3lake/lake"
)

// Filter selects the rows of t whose column matches value.
//
// Text and bool columns match by case-insensitive substring on the cell
// text. Numeric columns match by exact numeric equality when value parses
// as a number, and fall back to substring otherwise. Null cells never
// match. An unknown column is an argument fault listing the real columns.
func Filter(t *Table, column, value string) (*Table, error) {
	col := t.ColumnIndex(column)
	if col < 0 {
		return nil, lake.NewError(lake.KindArgument,
			fmt.Sprintf("Column '%s' not found in CSV. Available columns: %s", column, formatColumns(t.Columns)), nil)
	}

	match := substringMatcher(value)
	if IsNumeric(t.DTypes[col]) {
		if want, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			match = numericMatcher(want)
		}
	}

	out := &Table{
		Columns: t.Columns,
		DTypes:  t.DTypes,
	}
	if t.text != nil {
		out.text = [][]string{}
	}
	for i, row := range t.Rows {
		if row[col] == nil {
			continue
		}
		if !match(row[col], t.cellText(i, col)) {
			continue
		}
		out.Rows = append(out.Rows, row)
		if t.text != nil {
			out.text = append(out.text, t.text[i])
		}
	}
	out.Total = len(out.Rows)
	return out, nil
}

type matcher func(value any, text string) bool

func substringMatcher(needle string) matcher {
	needle = strings.ToLower(needle)
	return func(_ any, text string) bool {
		return strings.Contains(strings.ToLower(text), needle)
	}
}

func numericMatcher(want float64) matcher {
	return func(value any, _ string) bool {
		switch v := value.(type) {
		case int64:
			return float64(v) == want
		case float64:
			return v == want
		case float32:
			return float64(v) == want
		case int32:
			return float64(v) == want
		default:
			return false
		}
	}
}

// formatColumns renders names as a bracketed, quoted list:
// ['id', 'name'].
func formatColumns(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "'" + n + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
