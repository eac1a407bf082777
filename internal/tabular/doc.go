// Package tabular decodes object bytes into row-oriented results.
//
// CSV and Parquet decode into a Table: named columns, a per-column type
// descriptor, and rows whose values are nil, bool, int64, float64 or
// string. JSON and line-delimited JSON decode into a Document that keeps
// array elements as raw JSON so key order inside records survives.
//
// Every decode failure is a lake.KindFormat error. Truncation always keeps
// the first rows in file order.
package tabular
