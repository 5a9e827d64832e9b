package glossary

// encode.go writes converted records in the catalog's CSV import layout.
//
// The output is byte-for-byte what the catalog's own exporter produces:
//   - UTF-8 with a leading byte-order mark
//   - the fixed OutputHeader row
//   - LF line endings
//   - minimal quoting: a field is quoted only when it contains the
//     delimiter, a double quote, CR or LF

import (
	"bufio"
	"io"
	"strings"
)

// UTF8BOM is written before the header row.
const UTF8BOM = "\uFEFF"

// Encoder writes TargetRecords as CSV. The header is written lazily before
// the first record, or explicitly with WriteHeader.
type Encoder struct {
	w           *bufio.Writer
	wroteHeader bool
	rows        int
}

// NewEncoder returns an Encoder writing to w. Call Flush when done.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriter(w)}
}

// WriteHeader writes the BOM and header row. It is a no-op after the first call.
func (e *Encoder) WriteHeader() error {
	if e.wroteHeader {
		return nil
	}
	e.wroteHeader = true
	if _, err := e.w.WriteString(UTF8BOM); err != nil {
		return err
	}
	return e.writeLine(OutputHeader())
}

// Write appends one record.
func (e *Encoder) Write(rec TargetRecord) error {
	if err := e.WriteHeader(); err != nil {
		return err
	}
	if err := e.writeLine(rec.Values()); err != nil {
		return err
	}
	e.rows++
	return nil
}

// Rows returns the number of records written so far.
func (e *Encoder) Rows() int {
	return e.rows
}

// Flush writes any buffered data to the underlying writer.
func (e *Encoder) Flush() error {
	return e.w.Flush()
}

func (e *Encoder) writeLine(fields []string) error {
	for i, f := range fields {
		if i > 0 {
			if err := e.w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := e.w.WriteString(quoteField(f)); err != nil {
			return err
		}
	}
	return e.w.WriteByte('\n')
}

func quoteField(f string) string {
	if !strings.ContainsAny(f, ",\"\r\n") {
		return f
	}
	return `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
}

// WriteTable writes the header and all records, then flushes. An empty slice
// still produces a header-only file.
func WriteTable(w io.Writer, records []TargetRecord) error {
	enc := NewEncoder(w)
	if err := enc.WriteHeader(); err != nil {
		return err
	}
	for _, rec := range records {
		if err := enc.Write(rec); err != nil {
			return err
		}
	}
	return enc.Flush()
}
