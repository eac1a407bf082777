package lake

import (
	"crypto/md5"
	"encoding/hex"
	"hash"
	"strings"
)

// Checksum computes content digests comparable to store-reported tags.
type Checksum interface {
	// Name returns the algorithm name, e.g. "md5".
	Name() string

	// NewHasher returns a fresh streaming hasher.
	NewHasher() HashWriter
}

// HashWriter accumulates bytes and reports the hex digest.
type HashWriter interface {
	Write(p []byte) (n int, err error)
	Sum() string
}

// -----------------------------------------------------------------------------
// MD5 Checksum
// -----------------------------------------------------------------------------

// md5Checksum implements Checksum using MD5.
type md5Checksum struct{}

// NewMD5Checksum creates an MD5 checksum component.
//
// MD5 produces 128-bit hashes represented as 32 hex characters, which is
// the ETag format S3 uses for objects uploaded in a single part.
func NewMD5Checksum() Checksum {
	return &md5Checksum{}
}

func (c *md5Checksum) Name() string {
	return "md5"
}

func (c *md5Checksum) NewHasher() HashWriter {
	return &hashWriter{h: md5.New()}
}

// hashWriter wraps a hash.Hash to implement HashWriter.
type hashWriter struct {
	h hash.Hash
}

func (hw *hashWriter) Write(p []byte) (n int, err error) {
	return hw.h.Write(p)
}

func (hw *hashWriter) Sum() string {
	return hex.EncodeToString(hw.h.Sum(nil))
}

// TrimETag strips the surrounding quotes S3 puts on entity tags.
func TrimETag(etag string) string {
	return strings.Trim(etag, "\"")
}

// IsDigestETag reports whether etag is a plain 32-character hex digest.
// Multipart uploads produce "<digest>-<parts>" tags, which are not
// digests of the object body and cannot be verified.
func IsDigestETag(etag string) bool {
	etag = TrimETag(etag)
	if len(etag) != 32 {
		return false
	}
	_, err := hex.DecodeString(etag)
	return err == nil
}
