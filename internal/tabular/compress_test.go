package tabular

import (
	"bytes"
	"errors"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/justapithecus/s3lake/lake"
)

func TestDecompress(t *testing.T) {
	payload := []byte("id,name\n1,a\n")

	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	_, _ = zw.Write(payload)
	_ = zw.Close()

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("zstd.NewWriter() error: %v", err)
	}
	zs := enc.EncodeAll(payload, nil)
	_ = enc.Close()

	tests := []struct {
		codec string
		input []byte
	}{
		{"", payload},
		{CodecGzip, gz.Bytes()},
		{CodecZstd, zs},
	}
	for _, tt := range tests {
		got, err := Decompress(tt.input, tt.codec)
		if err != nil {
			t.Errorf("Decompress(%q) error: %v", tt.codec, err)
			continue
		}
		if !bytes.Equal(got, payload) {
			t.Errorf("Decompress(%q) = %q, want %q", tt.codec, got, payload)
		}
	}
}

func TestDecompress_Invalid(t *testing.T) {
	for _, codec := range []string{CodecGzip, CodecZstd, "lz4"} {
		_, err := Decompress([]byte("plain text"), codec)
		if !errors.Is(err, lake.ErrFormat) {
			t.Errorf("Decompress(%q) = %v, want format fault", codec, err)
		}
	}
}
