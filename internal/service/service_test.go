package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/glossary/internal/catalog"
	"github.com/JonMunkholm/glossary/internal/config"
	"github.com/JonMunkholm/glossary/internal/glossary"
	"github.com/JonMunkholm/glossary/internal/sheet"
)

func testConfig() config.UploadConfig {
	return config.UploadConfig{
		MaxFileSize:   1 << 20,
		MaxConcurrent: 2,
		MaxWaitTime:   time.Second,
		PreviewRows:   5,
		Timeout:       time.Minute,
	}
}

// sourceCSV renders a source sheet with every required column. Each row
// sets only the listed columns.
func sourceCSV(rows ...map[string]string) string {
	cols := glossary.RequiredColumns()
	var b strings.Builder
	b.WriteString(strings.Join(cols, ","))
	b.WriteString("\n")
	for _, row := range rows {
		vals := make([]string, len(cols))
		for i, c := range cols {
			vals[i] = row[c]
		}
		b.WriteString(strings.Join(vals, ","))
		b.WriteString("\n")
	}
	return b.String()
}

type fakeCreator struct {
	failFor map[string]bool
}

func (f *fakeCreator) CreateTerm(_ context.Context, req catalog.CreateTermRequest) (*catalog.Term, error) {
	if f.failFor[req.Name] {
		return nil, &catalog.APIError{StatusCode: 409, Message: "already exists"}
	}
	return &catalog.Term{ID: "id-" + req.Name, Name: req.Name}, nil
}

// ---- Convert ----

func TestConvert_CSV(t *testing.T) {
	svc := New(testConfig(), nil, nil)
	input := sourceCSV(
		map[string]string{"name*": "Revenue", "description": "Money in", "ID": "T1", "dataReadiness": "Chưa hệ thống"},
		map[string]string{"name*": "Cost"},
	)

	res, err := svc.Convert(context.Background(), "terms.csv", strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, "terms_converted.csv", res.FileName)
	require.Len(t, res.Records, 2)
	assert.Equal(t, "Revenue", res.Records[0].Name)
	assert.Equal(t, "dataReadiness:1. Có dữ liệu, chưa hệ thống;id:T1", res.Records[0].Extension)
	assert.Equal(t, "", res.Records[1].Extension)

	out := string(res.CSV)
	assert.True(t, strings.HasPrefix(out, glossary.UTF8BOM+strings.Join(glossary.OutputHeader(), ",")+"\n"))
	assert.Contains(t, out, `,Revenue,,Money in,`)
	assert.Contains(t, out, `"dataReadiness:1. Có dữ liệu, chưa hệ thống;id:T1"`)
	assert.Equal(t, 0, svc.LimiterStatus().Active)
}

func TestConvert_XLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	header := make([]any, 0)
	for _, c := range glossary.RequiredColumns() {
		header = append(header, c)
	}
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &header))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", "Thuật ngữ"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	svc := New(testConfig(), nil, nil)
	res, err := svc.Convert(context.Background(), "Danh mục.xlsx", buf)
	require.NoError(t, err)

	assert.Equal(t, "Danh mục_converted.csv", res.FileName)
	assert.Equal(t, "Sheet1", res.Sheet)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "Thuật ngữ", res.Records[0].Name)
}

func TestConvert_SchemaError(t *testing.T) {
	cols := glossary.RequiredColumns()
	input := strings.Join(cols[:len(cols)-1], ",") + "\nx\n"

	svc := New(testConfig(), nil, nil)
	res, err := svc.Convert(context.Background(), "terms.csv", strings.NewReader(input))
	assert.Nil(t, res)

	var schemaErr *glossary.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, []string{"unit"}, schemaErr.Missing)
	assert.Equal(t, "SCH001", MapError(err).Code)
}

func TestConvert_InputErrors(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		input    string
		maxSize  int64
		wantErr  error
		wantCode string
	}{
		{"legacy xls", "terms.xls", "x", 0, sheet.ErrUnsupportedFormat, "FILE002"},
		{"empty csv", "terms.csv", "", 0, sheet.ErrEmptyFile, "FILE003"},
		{"too large", "terms.csv", strings.Repeat("a", 64), 16, ErrFileTooLarge, "FILE001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			if tt.maxSize > 0 {
				cfg.MaxFileSize = tt.maxSize
			}
			svc := New(cfg, nil, nil)

			_, err := svc.Convert(context.Background(), tt.file, strings.NewReader(tt.input))
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantCode, MapError(err).Code)
		})
	}
}

func TestConvert_NoReader(t *testing.T) {
	svc := New(testConfig(), nil, nil)
	_, err := svc.Convert(context.Background(), "terms.csv", nil)
	assert.ErrorIs(t, err, ErrNoFile)
}

func TestConvert_Busy(t *testing.T) {
	cfg := testConfig()
	cfg.MaxConcurrent = 1
	cfg.MaxWaitTime = 20 * time.Millisecond
	svc := New(cfg, nil, nil)

	require.True(t, svc.limiter.TryAcquire())
	defer svc.limiter.Release()

	_, err := svc.Convert(context.Background(), "terms.csv", strings.NewReader(sourceCSV()))
	assert.ErrorIs(t, err, ErrTooManyConversions)
	assert.Equal(t, "UPL001", MapError(err).Code)
}

func TestPreview(t *testing.T) {
	svc := New(testConfig(), nil, nil)

	var rows []map[string]string
	for _, n := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		rows = append(rows, map[string]string{"name*": n})
	}
	res, err := svc.Convert(context.Background(), "t.csv", strings.NewReader(sourceCSV(rows...)))
	require.NoError(t, err)

	assert.Len(t, svc.Preview(res, 0), 5)
	assert.Len(t, svc.Preview(res, 2), 2)
	assert.Len(t, svc.Preview(res, 100), 7)
	assert.Equal(t, "a", svc.Preview(res, 1)[0].Name)
	assert.Nil(t, svc.Preview(nil, 3))
}

func TestOutputName(t *testing.T) {
	tests := map[string]string{
		"terms.xlsx":          "terms_converted.csv",
		"dir/terms.v2.xlsx":   "terms.v2_converted.csv",
		`C:\Users\x\a b.xlsx`: "a b_converted.csv",
		"noext":               "noext_converted.csv",
		".xlsx":               "glossary_converted.csv",
		"":                    "glossary_converted.csv",
	}
	for in, want := range tests {
		assert.Equal(t, want, OutputName(in), "OutputName(%q)", in)
	}
}

// ---- Import ----

func TestImport_NotConfigured(t *testing.T) {
	svc := New(testConfig(), nil, nil)
	assert.False(t, svc.ImportEnabled())

	_, err := svc.Import(context.Background(), "t.csv", strings.NewReader(sourceCSV()))
	assert.ErrorIs(t, err, catalog.ErrNotConfigured)
	assert.Equal(t, "CAT001", MapError(err).Code)
}

func TestImport_PerRowStatuses(t *testing.T) {
	importer := catalog.NewImporter(&fakeCreator{failFor: map[string]bool{"Cost": true}}, "Finance", 2)
	svc := New(testConfig(), importer, nil)

	input := sourceCSV(
		map[string]string{"name*": "Revenue"},
		map[string]string{"name*": "Cost"},
		map[string]string{"name*": "Margin"},
	)
	res, err := svc.Import(context.Background(), "t.csv", strings.NewReader(input))
	require.NoError(t, err)

	assert.Empty(t, res.RunID)
	assert.Equal(t, "Finance", res.Glossary)
	assert.Equal(t, 2, res.OK)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Rows, 3)
	assert.Equal(t, "Cost", res.Rows[1].Name)
	assert.False(t, res.Rows[1].OK)
	assert.Equal(t, "id-Margin", res.Rows[2].TermID)
}

func TestImport_SchemaErrorImportsNothing(t *testing.T) {
	fc := &fakeCreator{}
	svc := New(testConfig(), catalog.NewImporter(fc, "g", 1), nil)

	_, err := svc.Import(context.Background(), "t.csv", bytes.NewBufferString("name*\nx\n"))
	var schemaErr *glossary.SchemaError
	assert.True(t, errors.As(err, &schemaErr))
}

// ---- History ----

func TestHistory_Disabled(t *testing.T) {
	svc := New(testConfig(), nil, nil)
	assert.False(t, svc.HistoryEnabled())

	_, err := svc.ListRuns(context.Background(), 10)
	assert.ErrorIs(t, err, ErrStoreDisabled)

	_, err = svc.GetRun(context.Background(), "x")
	assert.ErrorIs(t, err, ErrStoreDisabled)
	assert.Equal(t, "UPL004", MapError(err).Code)
}

func TestNewImporter_Disabled(t *testing.T) {
	im, err := NewImporter(config.CatalogConfig{})
	require.NoError(t, err)
	assert.Nil(t, im)

	im, err = NewImporter(config.CatalogConfig{URL: "http://catalog.local", Glossary: "g", Timeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, "g", im.Glossary())
}
