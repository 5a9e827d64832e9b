package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/glossary/internal/catalog"
)

// ---- Helpers ----

func TestParseRunID(t *testing.T) {
	id := uuid.New()
	got, err := ParseRunID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ParseRunID("not-a-uuid")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestUUIDRoundTrip(t *testing.T) {
	id := uuid.New()
	assert.Equal(t, id.String(), uuidToString(toPgUUID(id)))
	assert.Equal(t, "", uuidToString(pgtype.UUID{}))
}

func TestToPgText(t *testing.T) {
	assert.False(t, toPgText("").Valid)
	assert.Equal(t, pgtype.Text{String: "x", Valid: true}, toPgText("x"))
}

func TestRowValues(t *testing.T) {
	id := uuid.New()
	vals := rowValues(id, catalog.RowStatus{Row: 3, Name: "Revenue", OK: true, TermID: "t-1", Elapsed: 12})
	require.Len(t, vals, len(rowColumns))
	assert.Equal(t, toPgUUID(id), vals[0])
	assert.Equal(t, int32(3), vals[1])
	assert.Equal(t, "Revenue", vals[2])
	assert.Equal(t, true, vals[3])
	assert.Equal(t, pgtype.Text{String: "t-1", Valid: true}, vals[4])
	assert.False(t, vals[5].(pgtype.Text).Valid)
	assert.Equal(t, int64(12), vals[6])
}

func TestSaveRowStatuses_EmptyIsNoop(t *testing.T) {
	s := New(nil)
	n, err := s.SaveRowStatuses(context.Background(), "ignored", nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

// ---- PostgreSQL ----

func testStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	s := New(pool)
	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Migrate(ctx), "migrate must be idempotent")
	return s
}

func TestStore_RunLifecycle(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, "terms.xlsx", "Finance", 3)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, run.Status)

	statuses := []catalog.RowStatus{
		{Row: 1, Name: "a", OK: true, TermID: "t-a", Elapsed: 5},
		{Row: 2, Name: "b", Error: "catalog error 409: exists", Elapsed: 7},
		{Row: 3, Name: "c", OK: true, TermID: "t-c", Elapsed: 4},
	}
	n, err := s.SaveRowStatuses(ctx, run.ID, statuses)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	require.NoError(t, s.FinishRun(ctx, run.ID, 2, 1, nil))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFinished, got.Status)
	assert.Equal(t, 2, got.OKRows)
	assert.Equal(t, 1, got.FailedRows)
	require.NotNil(t, got.FinishedAt)

	rows, err := s.RunRows(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, statuses, rows)

	runs, err := s.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.NotEmpty(t, runs)
	assert.Equal(t, run.ID, runs[0].ID)
}

func TestStore_FailedRun(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, "terms.xlsx", "Finance", 1)
	require.NoError(t, err)
	require.NoError(t, s.FinishRun(ctx, run.ID, 0, 0, errors.New("catalog unreachable")))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "catalog unreachable", got.Error)
}

func TestStore_NotFound(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	_, err := s.GetRun(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrRunNotFound)

	err = s.FinishRun(ctx, uuid.NewString(), 0, 0, nil)
	assert.ErrorIs(t, err, ErrRunNotFound)
}
