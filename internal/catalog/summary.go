package catalog

import (
	"context"

	"github.com/justapithecus/s3lake/internal/store"
	"github.com/justapithecus/s3lake/lake"
)

// NoObjectsMessage is reported by Summarize for an empty listing.
const NoObjectsMessage = "No objects found"

// Summarize aggregates up to SummaryListLimit objects under prefix by
// extension. An empty listing is a success carrying NoObjectsMessage.
func (c *Catalog) Summarize(ctx context.Context, bucket, prefix string) lake.Result[DatasetSummary] {
	ref := lake.ObjectRef{Bucket: c.bucket(bucket)}
	if err := requireBucket(ref); err != nil {
		return fail[DatasetSummary](c, ToolSummarize, ref, err)
	}

	page, err := c.store.List(ctx, ref.Bucket, prefix, store.ListOptions{Limit: SummaryListLimit})
	if err != nil {
		return fail[DatasetSummary](c, ToolSummarize, ref, err)
	}

	out := DatasetSummary{Bucket: ref.Bucket, Prefix: prefix}
	if len(page.Objects) == 0 {
		out.Message = NoObjectsMessage
		return lake.Ok(out)
	}

	it := store.Iterate(page)
	defer func() { _ = it.Close() }()

	out.Summary = summarize(it)
	if err := it.Err(); err != nil {
		return fail[DatasetSummary](c, ToolSummarize, ref, err)
	}
	truncated := page.Truncated
	out.IsTruncated = &truncated
	return lake.Ok(out)
}

// summarize folds the iterator into per-extension statistics.
func summarize(it store.ObjectIterator) Summary {
	s := Summary{FileTypes: make(map[string]ExtensionStats)}

	for it.Next() {
		obj := it.Object()
		if s.TotalFiles == SummaryListLimit {
			break
		}
		s.TotalFiles++
		s.TotalSize += obj.Size

		ext := lake.Extension(obj.Key)
		stats := s.FileTypes[ext]
		stats.Count++
		stats.TotalSize += obj.Size
		if len(stats.SampleFiles) < SampleFilesPerExtension {
			stats.SampleFiles = append(stats.SampleFiles, SampleFile{
				Key:          obj.Key,
				Size:         obj.Size,
				LastModified: lake.FormatTime(obj.LastModified),
			})
		}
		s.FileTypes[ext] = stats
	}

	s.TotalSizeFormatted = lake.FormatBytes(s.TotalSize)
	for ext, stats := range s.FileTypes {
		stats.TotalSizeFormatted = lake.FormatBytes(stats.TotalSize)
		stats.AverageSize = float64(stats.TotalSize) / float64(stats.Count)
		stats.AverageSizeFormatted = lake.FormatSize(stats.AverageSize)
		s.FileTypes[ext] = stats
	}
	return s
}
