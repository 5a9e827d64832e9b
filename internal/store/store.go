// Package store keeps a history of glossary import runs in PostgreSQL.
//
// Each run records the uploaded file, the target glossary and per-row
// outcomes. Row statuses are written with the COPY protocol.
package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/glossary/internal/catalog"
)

//go:embed schema.sql
var schemaSQL string

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("import run not found")

// Run statuses.
const (
	StatusRunning  = "running"
	StatusFinished = "finished"
	StatusFailed   = "failed"
)

// DefaultListLimit caps ListRuns when no positive limit is given.
const DefaultListLimit = 50

// DBTX is the subset of pgx used by the store. *pgxpool.Pool, *pgx.Conn
// and pgx.Tx satisfy it.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
}

// Run is one import attempt.
type Run struct {
	ID         string     `json:"id"`
	FileName   string     `json:"fileName"`
	Glossary   string     `json:"glossary"`
	Status     string     `json:"status"`
	TotalRows  int        `json:"totalRows"`
	OKRows     int        `json:"okRows"`
	FailedRows int        `json:"failedRows"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

// Store reads and writes import history.
type Store struct {
	db DBTX
}

// New creates a store over db.
func New(db DBTX) *Store {
	return &Store{db: db}
}

// Migrate creates the history tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate import history: %w", err)
	}
	return nil
}

// CreateRun starts a run for totalRows records and returns it.
func (s *Store) CreateRun(ctx context.Context, fileName, glossaryName string, totalRows int) (*Run, error) {
	id := uuid.New()

	row := s.db.QueryRow(ctx, `
		INSERT INTO glossary_import_runs (id, file_name, glossary, status, total_rows)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING started_at`,
		toPgUUID(id), fileName, glossaryName, StatusRunning, int32(totalRows),
	)

	var startedAt pgtype.Timestamptz
	if err := row.Scan(&startedAt); err != nil {
		return nil, fmt.Errorf("create import run: %w", err)
	}

	return &Run{
		ID:        id.String(),
		FileName:  fileName,
		Glossary:  glossaryName,
		Status:    StatusRunning,
		TotalRows: totalRows,
		StartedAt: startedAt.Time,
	}, nil
}

// FinishRun records the final counts. A non-nil runErr marks the run failed.
func (s *Store) FinishRun(ctx context.Context, runID string, ok, failed int, runErr error) error {
	id, err := ParseRunID(runID)
	if err != nil {
		return err
	}

	status, msg := StatusFinished, pgtype.Text{}
	if runErr != nil {
		status = StatusFailed
		msg = pgtype.Text{String: runErr.Error(), Valid: true}
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE glossary_import_runs
		SET status = $2, ok_rows = $3, failed_rows = $4, error = $5, finished_at = now()
		WHERE id = $1`,
		toPgUUID(id), status, int32(ok), int32(failed), msg,
	)
	if err != nil {
		return fmt.Errorf("finish import run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRunNotFound
	}
	return nil
}

var rowColumns = []string{"run_id", "row_num", "name", "ok", "term_id", "error", "elapsed_ms"}

// SaveRowStatuses bulk-inserts per-row outcomes for a run.
func (s *Store) SaveRowStatuses(ctx context.Context, runID string, statuses []catalog.RowStatus) (int64, error) {
	if len(statuses) == 0 {
		return 0, nil
	}
	id, err := ParseRunID(runID)
	if err != nil {
		return 0, err
	}

	n, err := s.db.CopyFrom(ctx,
		pgx.Identifier{"glossary_import_rows"},
		rowColumns,
		pgx.CopyFromSlice(len(statuses), func(i int) ([]any, error) {
			return rowValues(id, statuses[i]), nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("save row statuses: %w", err)
	}
	return n, nil
}

func rowValues(runID uuid.UUID, st catalog.RowStatus) []any {
	return []any{
		toPgUUID(runID),
		int32(st.Row),
		st.Name,
		st.OK,
		toPgText(st.TermID),
		toPgText(st.Error),
		st.Elapsed,
	}
}

const runSelect = `
	SELECT id, file_name, glossary, status, total_rows, ok_rows, failed_rows,
	       error, started_at, finished_at
	FROM glossary_import_runs`

// GetRun loads one run.
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	id, err := ParseRunID(runID)
	if err != nil {
		return nil, err
	}

	run, err := scanRun(s.db.QueryRow(ctx, runSelect+" WHERE id = $1", toPgUUID(id)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get import run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := s.db.Query(ctx, runSelect+" ORDER BY started_at DESC LIMIT $1", int32(limit))
	if err != nil {
		return nil, fmt.Errorf("list import runs: %w", err)
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan import run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list import runs: %w", err)
	}
	return runs, nil
}

// RunRows returns a run's row statuses in row order.
func (s *Store) RunRows(ctx context.Context, runID string) ([]catalog.RowStatus, error) {
	id, err := ParseRunID(runID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT row_num, name, ok, term_id, error, elapsed_ms
		FROM glossary_import_rows
		WHERE run_id = $1
		ORDER BY row_num`,
		toPgUUID(id),
	)
	if err != nil {
		return nil, fmt.Errorf("query run rows: %w", err)
	}
	defer rows.Close()

	statuses := make([]catalog.RowStatus, 0)
	for rows.Next() {
		var (
			rowNum  int32
			st      catalog.RowStatus
			termID  pgtype.Text
			errText pgtype.Text
		)
		if err := rows.Scan(&rowNum, &st.Name, &st.OK, &termID, &errText, &st.Elapsed); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		st.Row = int(rowNum)
		st.TermID = termID.String
		st.Error = errText.String
		statuses = append(statuses, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query run rows: %w", err)
	}
	return statuses, nil
}

func scanRun(row pgx.Row) (*Run, error) {
	var (
		id                pgtype.UUID
		run               Run
		total, ok, failed int32
		errText           pgtype.Text
		started, finished pgtype.Timestamptz
	)
	err := row.Scan(&id, &run.FileName, &run.Glossary, &run.Status,
		&total, &ok, &failed, &errText, &started, &finished)
	if err != nil {
		return nil, err
	}

	run.ID = uuidToString(id)
	run.TotalRows = int(total)
	run.OKRows = int(ok)
	run.FailedRows = int(failed)
	run.Error = errText.String
	run.StartedAt = started.Time
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	return &run, nil
}

// ParseRunID validates a run ID string.
func ParseRunID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid run id %q", ErrRunNotFound, s)
	}
	return id, nil
}

func toPgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func uuidToString(u pgtype.UUID) string {
	if !u.Valid {
		return ""
	}
	return uuid.UUID(u.Bytes).String()
}

func toPgText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}
