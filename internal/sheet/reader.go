// Package sheet reads the first sheet of a spreadsheet-like upload into a
// header plus rows of glossary cells.
package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/JonMunkholm/glossary/internal/glossary"
	"github.com/xuri/excelize/v2"
)

var (
	// ErrUnsupportedFormat is returned for file types that cannot be read.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrEmptyFile is returned when the input has no header row.
	ErrEmptyFile = errors.New("empty file")
)

// Format identifies an input file type.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// Table is the content of one sheet. Rows are padded to the header width
// with absent cells.
type Table struct {
	Sheet  string
	Format Format
	Header []string
	Rows   [][]glossary.Cell
}

// DetectFormat maps a file name to its format by extension.
func DetectFormat(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %q (expected .xlsx or .csv)", ErrUnsupportedFormat, filepath.Ext(name))
	}
}

// IsSpreadsheet reports whether name is an Excel workbook the reader accepts.
func IsSpreadsheet(name string) bool {
	f, err := DetectFormat(name)
	return err == nil && f == FormatXLSX
}

// Read parses r according to the extension of name.
func Read(name string, r io.Reader) (*Table, error) {
	format, err := DetectFormat(name)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatXLSX:
		return ReadXLSX(r)
	default:
		return ReadCSV(r)
	}
}

// ReadXLSX reads the first worksheet of a workbook. Cell values are taken
// raw, without number formats applied, and empty cells are absent.
func ReadXLSX(r io.Reader) (*Table, error) {
	start := time.Now()

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	name := sheets[0]

	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", name, err)
	}

	t, err := buildTable(rows)
	if err != nil {
		return nil, err
	}
	t.Sheet = name
	t.Format = FormatXLSX

	slog.Debug("workbook read",
		"sheet", name,
		"sheets", len(sheets),
		"rows", len(t.Rows),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return t, nil
}

// ReadCSV reads comma-separated text. A byte-order mark is skipped and
// invalid UTF-8 is replaced. Empty fields are absent.
func ReadCSV(r io.Reader) (*Table, error) {
	counter := NewCountingReader(r)

	cr := csv.NewReader(NewDecodingReader(counter))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid csv: %w", err)
	}

	t, err := buildTable(rows)
	if err != nil {
		return nil, err
	}
	t.Format = FormatCSV

	slog.Debug("csv read", "bytes", counter.BytesRead(), "rows", len(t.Rows))
	return t, nil
}

// buildTable splits raw rows into header and data. Trailing blank rows are
// dropped; blank rows between data rows are kept.
func buildTable(rows [][]string) (*Table, error) {
	if len(rows) == 0 || isBlank(rows[0]) {
		return nil, ErrEmptyFile
	}

	end := len(rows)
	for end > 1 && isBlank(rows[end-1]) {
		end--
	}

	header := append([]string(nil), rows[0]...)
	width := len(header)

	data := make([][]glossary.Cell, 0, end-1)
	for _, raw := range rows[1:end] {
		cells := make([]glossary.Cell, max(width, len(raw)))
		for i, v := range raw {
			if v != "" {
				cells[i] = glossary.Text(v)
			}
		}
		data = append(data, cells)
	}

	return &Table{Header: header, Rows: data}, nil
}

func isBlank(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}
