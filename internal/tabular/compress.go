package tabular

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/justapithecus/s3lake/lake"
)

// Codec names accepted by Decompress.
const (
	CodecGzip = "gzip"
	CodecZstd = "zstd"
)

// MaxDecompressedSize bounds the output of Decompress.
const MaxDecompressedSize = 512 << 20

// Decompress inflates data compressed with codec. An empty codec returns
// data unchanged.
func Decompress(data []byte, codec string) ([]byte, error) {
	switch codec {
	case "":
		return data, nil
	case CodecGzip:
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, lake.FormatError("gzip", err)
		}
		defer func() { _ = zr.Close() }()
		return readBounded(zr, "gzip")
	case CodecZstd:
		dec, err := zstd.NewReader(bytes.NewReader(data), zstd.WithDecoderMaxMemory(MaxDecompressedSize))
		if err != nil {
			return nil, lake.FormatError("zstd", err)
		}
		defer dec.Close()
		return readBounded(dec, "zstd")
	default:
		return nil, lake.NewError(lake.KindFormat, fmt.Sprintf("unsupported compression %q", codec), nil)
	}
}

func readBounded(r io.Reader, codec string) ([]byte, error) {
	out, err := io.ReadAll(io.LimitReader(r, MaxDecompressedSize+1))
	if err != nil {
		return nil, lake.FormatError(codec, err)
	}
	if len(out) > MaxDecompressedSize {
		return nil, lake.FormatError(codec, fmt.Errorf("decompressed size exceeds %d bytes", MaxDecompressedSize))
	}
	return out, nil
}
