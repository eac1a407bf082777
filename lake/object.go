package lake

import (
	"path"
	"strings"
)

// ObjectRef identifies one object in the store. It is immutable and owned
// by the store; s3lake never writes through it except when seeding.
type ObjectRef struct {
	Bucket string
	Key    string
}

// String returns "bucket/key".
func (r ObjectRef) String() string {
	return r.Bucket + "/" + r.Key
}

// NoExtension is the extension bucket for keys without a dot in their
// base name.
const NoExtension = "no_extension"

// Extension returns the lowercase suffix after the last dot of the key's
// base name, or NoExtension. Directory components are ignored so that
// "data/v1.2/readme" has no extension.
func Extension(key string) string {
	base := path.Base(key)
	if base == "." || base == "/" {
		return NoExtension
	}
	i := strings.LastIndexByte(base, '.')
	if i < 0 || i == len(base)-1 {
		return NoExtension
	}
	return strings.ToLower(base[i+1:])
}
