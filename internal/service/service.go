// Package service runs glossary conversions for the web server and the CLI.
//
// A conversion reads the first sheet of an upload, validates its header,
// assembles one record per row and encodes the bulk-import CSV. Imports push
// the converted records to the catalog and, when a database is configured,
// record the run in the import history.
package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/JonMunkholm/glossary/internal/catalog"
	"github.com/JonMunkholm/glossary/internal/config"
	"github.com/JonMunkholm/glossary/internal/glossary"
	"github.com/JonMunkholm/glossary/internal/logging"
	"github.com/JonMunkholm/glossary/internal/sheet"
	"github.com/JonMunkholm/glossary/internal/store"
)

// OutputSuffix is appended to the input file stem to name the CSV download.
const OutputSuffix = "_converted.csv"

// historyTimeout bounds history writes that outlive the request context.
const historyTimeout = 10 * time.Second

// Service converts and imports glossary spreadsheets.
type Service struct {
	limiter  *Limiter
	importer *catalog.Importer
	history  *store.Store

	maxFileSize int64
	previewRows int
	timeout     time.Duration
}

// New creates a service. importer and history may be nil, which disables
// Import and the history queries respectively.
func New(cfg config.UploadConfig, importer *catalog.Importer, history *store.Store) *Service {
	previewRows := cfg.PreviewRows
	if previewRows <= 0 {
		previewRows = 5
	}
	return &Service{
		limiter:     NewLimiter(cfg.MaxConcurrent, cfg.MaxWaitTime),
		importer:    importer,
		history:     history,
		maxFileSize: cfg.MaxFileSize,
		previewRows: previewRows,
		timeout:     cfg.Timeout,
	}
}

// NewImporter builds a catalog importer from cfg. It returns nil, nil when
// no catalog URL is configured.
func NewImporter(cfg config.CatalogConfig) (*catalog.Importer, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	client, err := catalog.NewClient(cfg.URL, cfg.Token, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return catalog.NewImporter(client, cfg.Glossary, cfg.Concurrency), nil
}

// ConvertResult is a finished conversion.
type ConvertResult struct {
	SourceName string
	FileName   string // download name, <stem>_converted.csv
	Sheet      string
	Records    []glossary.TargetRecord
	CSV        []byte
	Duration   time.Duration
}

// OutputName derives the download name for an uploaded file.
func OutputName(sourceName string) string {
	base := filepath.Base(strings.ReplaceAll(sourceName, `\`, "/"))
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." || stem == "/" {
		stem = "glossary"
	}
	return stem + OutputSuffix
}

// Convert reads fileName's content from r and produces the bulk-import CSV.
// A header missing required columns fails with *glossary.SchemaError and
// no output.
func (s *Service) Convert(ctx context.Context, fileName string, r io.Reader) (*ConvertResult, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	return s.convert(ctx, fileName, r)
}

func (s *Service) convert(ctx context.Context, fileName string, r io.Reader) (*ConvertResult, error) {
	start := time.Now()
	logger := logging.WithFields(ctx, "file", fileName)

	data, err := s.readUpload(r)
	if err != nil {
		return nil, err
	}

	table, err := sheet.Read(fileName, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records, err := glossary.Convert(table.Header, table.Rows)
	if err != nil {
		logger.Warn("conversion rejected", "error", err)
		return nil, err
	}

	var buf bytes.Buffer
	if err := glossary.WriteTable(&buf, records); err != nil {
		return nil, fmt.Errorf("encode csv: %w", err)
	}

	res := &ConvertResult{
		SourceName: fileName,
		FileName:   OutputName(fileName),
		Sheet:      table.Sheet,
		Records:    records,
		CSV:        buf.Bytes(),
		Duration:   time.Since(start),
	}
	logger.Info("glossary converted",
		"sheet", res.Sheet,
		"rows", len(records),
		"bytes", len(res.CSV),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (s *Service) readUpload(r io.Reader) ([]byte, error) {
	if r == nil {
		return nil, ErrNoFile
	}
	if s.maxFileSize <= 0 {
		return io.ReadAll(r)
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxFileSize {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, s.maxFileSize)
	}
	return data, nil
}

// Preview returns up to n leading records. n <= 0 uses the configured default.
func (s *Service) Preview(res *ConvertResult, n int) []glossary.TargetRecord {
	if res == nil {
		return nil
	}
	if n <= 0 {
		n = s.previewRows
	}
	return res.Records[:min(n, len(res.Records))]
}

// ImportResult is the outcome of converting and importing one file.
type ImportResult struct {
	RunID    string              `json:"runId,omitempty"`
	FileName string              `json:"fileName"`
	Glossary string              `json:"glossary"`
	Rows     []catalog.RowStatus `json:"rows"`
	OK       int                 `json:"ok"`
	Failed   int                 `json:"failed"`
	Duration time.Duration       `json:"-"`
}

// ImportEnabled reports whether a catalog is configured.
func (s *Service) ImportEnabled() bool {
	return s.importer != nil
}

// HistoryEnabled reports whether import runs are recorded.
func (s *Service) HistoryEnabled() bool {
	return s.history != nil
}

// Import converts the upload and creates one catalog term per record.
// Row failures are reported in the result, not as an error.
func (s *Service) Import(ctx context.Context, fileName string, r io.Reader) (*ImportResult, error) {
	if s.importer == nil {
		return nil, catalog.ErrNotConfigured
	}

	res, err := s.Convert(ctx, fileName, r)
	if err != nil {
		return nil, err
	}
	return s.ImportRecords(ctx, fileName, res.Records)
}

// ImportRecords pushes already converted records to the catalog.
func (s *Service) ImportRecords(ctx context.Context, fileName string, records []glossary.TargetRecord) (*ImportResult, error) {
	if s.importer == nil {
		return nil, catalog.ErrNotConfigured
	}

	start := time.Now()
	result := &ImportResult{FileName: fileName, Glossary: s.importer.Glossary()}
	logger := logging.WithFields(ctx, "file", fileName, "glossary", result.Glossary)

	var run *store.Run
	if s.history != nil {
		var err error
		run, err = s.history.CreateRun(ctx, fileName, result.Glossary, len(records))
		if err != nil {
			logger.Warn("import history unavailable", "error", err)
		} else {
			result.RunID = run.ID
			logger = logger.With("run_id", run.ID)
		}
	}

	result.Rows = s.importer.Import(ctx, records)
	result.OK, result.Failed = catalog.Summarize(result.Rows)
	result.Duration = time.Since(start)

	if run != nil {
		s.recordRun(ctx, run.ID, result, ctx.Err())
	}

	logger.Info("glossary imported",
		"ok", result.OK,
		"failed", result.Failed,
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}

// recordRun writes row outcomes even when the request context is gone.
func (s *Service) recordRun(ctx context.Context, runID string, result *ImportResult, runErr error) {
	logger := logging.WithFields(ctx, "run_id", runID)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyTimeout)
	defer cancel()

	if _, err := s.history.SaveRowStatuses(ctx, runID, result.Rows); err != nil {
		logger.Warn("saving row statuses failed", "error", err)
		if runErr == nil {
			runErr = err
		}
	}
	if err := s.history.FinishRun(ctx, runID, result.OK, result.Failed, runErr); err != nil {
		logger.Warn("finishing import run failed", "error", err)
	}
}

// RunDetail is a recorded run with its row outcomes.
type RunDetail struct {
	store.Run
	Rows []catalog.RowStatus `json:"rows"`
}

// ListRuns returns the most recent import runs.
func (s *Service) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	if s.history == nil {
		return nil, ErrStoreDisabled
	}
	return s.history.ListRuns(ctx, limit)
}

// GetRun returns one import run and its rows.
func (s *Service) GetRun(ctx context.Context, runID string) (*RunDetail, error) {
	if s.history == nil {
		return nil, ErrStoreDisabled
	}

	run, err := s.history.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	rows, err := s.history.RunRows(ctx, runID)
	if err != nil {
		return nil, err
	}
	return &RunDetail{Run: *run, Rows: rows}, nil
}

// LimiterStatus reports conversion slot usage.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForConversions blocks until in-flight conversions finish or ctx is done.
func (s *Service) WaitForConversions(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
