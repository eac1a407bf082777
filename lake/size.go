package lake

import "fmt"

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatSize renders a byte count using the largest binary unit that keeps
// the scaled value below 1024, with one decimal place: 500 -> "500.0 B",
// 1024 -> "1.0 KB". Values of 1024 TB and above are reported in PB.
func FormatSize(size float64) string {
	for _, unit := range sizeUnits {
		if size < 1024.0 {
			return fmt.Sprintf("%.1f %s", size, unit)
		}
		size /= 1024.0
	}
	return fmt.Sprintf("%.1f PB", size)
}

// FormatBytes is FormatSize for integral byte counts.
func FormatBytes(size int64) string {
	return FormatSize(float64(size))
}
