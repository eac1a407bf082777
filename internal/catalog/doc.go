// Package catalog implements the data-lake tool catalog: a fixed set of
// named read operations over an object store, each returning a typed
// lake.Result.
//
// Catalog methods never return Go errors. Store faults, undecodable bytes
// and invalid arguments all come back as error envelopes, so a runtime can
// treat every tool the same way.
//
// Tool names and argument names match the hosted server, so a local
// catalog and a relay to a hosted one are interchangeable:
//
//	list_s3_buckets       ListBuckets
//	list_s3_objects       ListObjects
//	read_csv_from_s3      ReadCSV
//	read_json_from_s3     ReadJSON
//	read_parquet_from_s3  ReadParquet
//	query_csv_data        QueryCSV
//	get_dataset_summary   Summarize
//	get_file_metadata     FileMetadata
package catalog
