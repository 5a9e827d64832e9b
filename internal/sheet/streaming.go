package sheet

// streaming.go wraps text input so encoding/csv sees clean UTF-8:
//
//   - a leading byte-order mark is dropped (UTF-16 files are decoded)
//   - invalid UTF-8 sequences become U+FFFD
//   - bytes consumed are counted for the read log
//
// The transform runs on the fly, so memory stays O(buffer) for any file size.

import (
	"io"
	"sync/atomic"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// NewDecodingReader strips a byte-order mark and replaces invalid UTF-8.
// Input without a BOM is treated as UTF-8.
func NewDecodingReader(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}

// CountingReader tracks bytes read from the underlying (raw) reader.
type CountingReader struct {
	reader io.Reader
	read   atomic.Int64
}

// NewCountingReader wraps r.
func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{reader: r}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.read.Add(int64(n))
	return n, err
}

// BytesRead returns the number of raw bytes consumed so far.
func (r *CountingReader) BytesRead() int64 {
	return r.read.Load()
}
