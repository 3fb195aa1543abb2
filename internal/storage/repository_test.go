package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paydesk/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "paydesk_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestBatchLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	id, err := repo.CreateBatch(ctx, start, end)
	require.NoError(t, err)

	b, err := repo.BatchByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, b.ID)
	assert.True(t, b.PeriodStart.Equal(start))
	assert.True(t, b.PeriodEnd.Equal(end))

	_, err = repo.BatchByID(ctx, 99999)
	assert.ErrorIs(t, err, ErrBatchNotFound)

	batches, err := repo.ListBatches(ctx)
	require.NoError(t, err)
	require.Len(t, batches, 1)
}

func TestIngestAndReadSnapshots(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	batchID, err := repo.CreateBatch(ctx,
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	// Detailed-shape snapshot.
	_, err = repo.IngestSnapshot(ctx, batchID, SnapshotParams{
		EmployeeCode: "E100", FirstName: "Mara", LastName: "Conti", ShiftID: 1,
		WorkedMinutes: 480, BreakMinutes: 30, PaidMinutes: 450, NormalMinutes: 450,
		BreakdownJSON: []byte(`[{"worked_minutes":480,"break_deducted_minutes":30,"break_added_minutes":0}]`),
	})
	require.NoError(t, err)

	// Legacy-shape snapshot for the same employee; the upsert must not
	// create a second employee row.
	_, err = repo.IngestSnapshot(ctx, batchID, SnapshotParams{
		EmployeeCode: "E100", FirstName: "Mara", LastName: "Conti", ShiftID: 2,
		WorkedMinutes: 240, PaidMinutes: 240, OvertimeMinutes: 240,
	})
	require.NoError(t, err)

	snaps, err := repo.SnapshotsByBatch(ctx, batchID)
	require.NoError(t, err)
	require.Len(t, snaps, 2)

	byShift := map[int64]core.ShiftSnapshot{}
	for _, s := range snaps {
		byShift[s.ShiftID] = s
		assert.Equal(t, "E100", s.EmployeeCode)
		assert.Equal(t, "Mara Conti", s.DisplayName())
	}
	assert.Equal(t, byShift[1].EmployeeID, byShift[2].EmployeeID)
	assert.Equal(t, core.BreakdownDetailed, byShift[1].Breakdown.Kind)
	assert.Equal(t, core.BreakdownLegacy, byShift[2].Breakdown.Kind)

	worked, deducted, added := byShift[1].Breakdown.Contribution()
	assert.Equal(t, core.Minutes(480), worked)
	assert.Equal(t, core.Minutes(30), deducted)
	assert.Equal(t, core.Minutes(0), added)

	employees, err := repo.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, employees, 1)
	assert.Equal(t, "E100", employees[0].Code)
	assert.Equal(t, "Mara", employees[0].FirstName)
}

func TestMalformedBreakdownDegradesAtScan(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	batchID, err := repo.CreateBatch(ctx, time.Now(), time.Now())
	require.NoError(t, err)

	_, err = repo.IngestSnapshot(ctx, batchID, SnapshotParams{
		EmployeeCode: "E200", ShiftID: 9,
		WorkedMinutes: 300, BreakMinutes: 15, PaidMinutes: 285,
		BreakdownJSON: []byte(`{"not":"an array"}`),
	})
	require.NoError(t, err)

	snaps, err := repo.SnapshotsByBatch(ctx, batchID)
	require.NoError(t, err)
	require.Len(t, snaps, 1)

	assert.Equal(t, core.BreakdownLegacy, snaps[0].Breakdown.Kind)
	worked, deducted, _ := snaps[0].Breakdown.Contribution()
	assert.Equal(t, core.Minutes(300), worked)
	assert.Equal(t, core.Minutes(15), deducted)
}

func TestSummaryRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	batchID, err := repo.CreateBatch(ctx, time.Now(), time.Now())
	require.NoError(t, err)

	_, err = repo.SummaryByBatch(ctx, batchID)
	assert.ErrorIs(t, err, ErrSummaryNotFound)

	raw := []byte(`[{"employee_code":"E100","employee_name":"Mara Conti","regular_hours":40,"overtime_hours":2,"regular_amount_cents":60000,"overtime_amount_cents":4500,"gross_pay_cents":64500}]`)
	require.NoError(t, repo.SaveSummary(ctx, batchID, raw))

	s, err := repo.SummaryByBatch(ctx, batchID)
	require.NoError(t, err)
	require.Len(t, s.Rows, 1)
	assert.Equal(t, int64(64500), s.Rows[0].GrossPayCents)

	// Re-saving replaces, not duplicates.
	require.NoError(t, repo.SaveSummary(ctx, batchID, []byte(`[]`)))
	s, err = repo.SummaryByBatch(ctx, batchID)
	require.NoError(t, err)
	assert.Empty(t, s.Rows)
}

func TestExportJobLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	batchID, err := repo.CreateBatch(ctx, time.Now(), time.Now())
	require.NoError(t, err)

	jobID, err := repo.CreateExportJob(ctx, batchID, "csv")
	require.NoError(t, err)

	j, err := repo.ExportJobByID(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, JobQueued, j.Status)
	assert.Equal(t, "csv", j.Format)

	require.NoError(t, repo.MarkExportJobDone(ctx, jobID, "/tmp/batch_1.csv"))
	j, err = repo.ExportJobByID(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, JobDone, j.Status)
	assert.Equal(t, "/tmp/batch_1.csv", j.OutputPath)

	require.NoError(t, repo.MarkExportJobError(ctx, jobID, "boom"))
	j, _ = repo.ExportJobByID(ctx, jobID)
	assert.Equal(t, JobError, j.Status)
	assert.Equal(t, "boom", j.Error)

	_, err = repo.ExportJobByID(ctx, 424242)
	assert.ErrorIs(t, err, ErrJobNotFound)
}
