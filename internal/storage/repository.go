// Package storage persists paydesk's payroll data in SQLite and implements
// the snapshot source the export service reads from.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"paydesk/internal/core"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

var (
	// ErrBatchNotFound is returned when a batch id does not resolve.
	ErrBatchNotFound = errors.New("payroll batch not found")
	// ErrSummaryNotFound is returned when a batch has no stored summary.
	ErrSummaryNotFound = errors.New("batch summary not found")
	// ErrJobNotFound is returned when an export job id does not resolve.
	ErrJobNotFound = errors.New("export job not found")
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateBatch records a payroll run for a period and returns its id.
func (r *SQLiteRepository) CreateBatch(ctx context.Context, periodStart, periodEnd time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO payroll_batches (period_start, period_end) VALUES (?, ?)`,
		periodStart.Format(dateLayout), periodEnd.Format(dateLayout))
	if err != nil {
		return 0, fmt.Errorf("create batch: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("batch id: %w", err)
	}
	return id, nil
}

// BatchByID resolves one batch; a missing id maps to ErrBatchNotFound.
func (r *SQLiteRepository) BatchByID(ctx context.Context, id int64) (core.PayrollBatch, error) {
	var b core.PayrollBatch
	var start, end string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, period_start, period_end FROM payroll_batches WHERE id = ?`, id).
		Scan(&b.ID, &start, &end)
	if errors.Is(err, sql.ErrNoRows) {
		return core.PayrollBatch{}, ErrBatchNotFound
	}
	if err != nil {
		return core.PayrollBatch{}, fmt.Errorf("get batch %d: %w", id, err)
	}
	if b.PeriodStart, err = time.Parse(dateLayout, start); err != nil {
		return core.PayrollBatch{}, fmt.Errorf("parse period start: %w", err)
	}
	if b.PeriodEnd, err = time.Parse(dateLayout, end); err != nil {
		return core.PayrollBatch{}, fmt.Errorf("parse period end: %w", err)
	}
	return b, nil
}

// ListBatches returns all batches, newest first.
func (r *SQLiteRepository) ListBatches(ctx context.Context) ([]core.PayrollBatch, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, period_start, period_end FROM payroll_batches ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	var batches []core.PayrollBatch
	for rows.Next() {
		var b core.PayrollBatch
		var start, end string
		if err := rows.Scan(&b.ID, &start, &end); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		if b.PeriodStart, err = time.Parse(dateLayout, start); err != nil {
			return nil, fmt.Errorf("parse period start: %w", err)
		}
		if b.PeriodEnd, err = time.Parse(dateLayout, end); err != nil {
			return nil, fmt.Errorf("parse period end: %w", err)
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// Employee is the identity row snapshots are keyed against.
type Employee struct {
	ID        int64
	Code      string
	FirstName string
	LastName  string
}

// ListEmployees returns all known employees ordered by code.
func (r *SQLiteRepository) ListEmployees(ctx context.Context) ([]Employee, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, code, first_name, last_name FROM employees ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		var e Employee
		if err := rows.Scan(&e.ID, &e.Code, &e.FirstName, &e.LastName); err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

// SnapshotParams is one snapshot's figures as submitted by the upstream
// payroll engine. BreakdownJSON may be nil for legacy-shape snapshots.
type SnapshotParams struct {
	EmployeeCode string
	FirstName    string
	LastName     string
	ShiftID      int64

	WorkedMinutes      int64
	BreakMinutes       int64
	PaidMinutes        int64
	NormalMinutes      int64
	WeekendMinutes     int64
	BankHolidayMinutes int64
	OvertimeMinutes    int64

	BreakdownJSON []byte
}

// IngestSnapshot upserts the employee by code and stores the snapshot in a
// single transaction.
func (r *SQLiteRepository) IngestSnapshot(ctx context.Context, batchID int64, p SnapshotParams) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin ingest: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO employees (code, first_name, last_name) VALUES (?, ?, ?)
		 ON CONFLICT(code) DO UPDATE SET first_name = excluded.first_name, last_name = excluded.last_name`,
		p.EmployeeCode, p.FirstName, p.LastName); err != nil {
		return 0, fmt.Errorf("upsert employee %s: %w", p.EmployeeCode, err)
	}

	var employeeID int64
	if err := tx.QueryRowContext(ctx,
		`SELECT id FROM employees WHERE code = ?`, p.EmployeeCode).Scan(&employeeID); err != nil {
		return 0, fmt.Errorf("resolve employee %s: %w", p.EmployeeCode, err)
	}

	var breakdown any
	if len(p.BreakdownJSON) > 0 {
		breakdown = string(p.BreakdownJSON)
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO shift_snapshots
		 (batch_id, employee_id, shift_id, worked_minutes, break_minutes, paid_minutes,
		  normal_minutes, weekend_minutes, bank_holiday_minutes, overtime_minutes, breakdown_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		batchID, employeeID, p.ShiftID,
		p.WorkedMinutes, p.BreakMinutes, p.PaidMinutes,
		p.NormalMinutes, p.WeekendMinutes, p.BankHolidayMinutes, p.OvertimeMinutes,
		breakdown)
	if err != nil {
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("snapshot id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit ingest: %w", err)
	}

	slog.InfoContext(ctx, "Snapshot ingested",
		"batch_id", batchID,
		"employee_code", p.EmployeeCode,
		"shift_id", p.ShiftID,
		"paid_minutes", p.PaidMinutes)

	return id, nil
}

// SnapshotsByBatch returns every snapshot of a batch joined with the
// employee identity fields, in no guaranteed order; grouping and ordering
// happen downstream. Each snapshot's breakdown shape is resolved here,
// once, at scan time.
func (r *SQLiteRepository) SnapshotsByBatch(ctx context.Context, batchID int64) ([]core.ShiftSnapshot, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT s.shift_id, s.employee_id, e.code, e.first_name, e.last_name,
		        s.worked_minutes, s.break_minutes, s.paid_minutes, s.normal_minutes,
		        s.weekend_minutes, s.bank_holiday_minutes, s.overtime_minutes, s.breakdown_json
		 FROM shift_snapshots s
		 JOIN employees e ON e.id = s.employee_id
		 WHERE s.batch_id = ?`, batchID)
	if err != nil {
		return nil, fmt.Errorf("query snapshots for batch %d: %w", batchID, err)
	}
	defer rows.Close()

	var snaps []core.ShiftSnapshot
	for rows.Next() {
		var s core.ShiftSnapshot
		var breakdown sql.NullString
		if err := rows.Scan(
			&s.ShiftID, &s.EmployeeID, &s.EmployeeCode, &s.FirstName, &s.LastName,
			&s.Worked, &s.Break, &s.Paid, &s.Normal,
			&s.Weekend, &s.BankHoliday, &s.Overtime, &breakdown,
		); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		var raw []byte
		if breakdown.Valid {
			raw = []byte(breakdown.String)
		}
		s.Breakdown = core.ResolveBreakdown(raw, s.Worked, s.Break)
		snaps = append(snaps, s)
	}
	return snaps, rows.Err()
}

// SaveSummary stores the pre-computed monetary summary payload for a batch,
// replacing any previous one.
func (r *SQLiteRepository) SaveSummary(ctx context.Context, batchID int64, raw []byte) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO batch_summaries (batch_id, summary_json) VALUES (?, ?)
		 ON CONFLICT(batch_id) DO UPDATE SET summary_json = excluded.summary_json`,
		batchID, string(raw))
	if err != nil {
		return fmt.Errorf("save summary for batch %d: %w", batchID, err)
	}
	return nil
}

// SummaryByBatch loads and parses the stored monetary summary.
func (r *SQLiteRepository) SummaryByBatch(ctx context.Context, batchID int64) (core.BatchSummary, error) {
	var raw string
	err := r.db.QueryRowContext(ctx,
		`SELECT summary_json FROM batch_summaries WHERE batch_id = ?`, batchID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return core.BatchSummary{}, ErrSummaryNotFound
	}
	if err != nil {
		return core.BatchSummary{}, fmt.Errorf("get summary for batch %d: %w", batchID, err)
	}
	parsed, err := core.ParseSummaryRows([]byte(raw))
	if err != nil {
		return core.BatchSummary{}, fmt.Errorf("parse summary for batch %d: %w", batchID, err)
	}
	return core.BatchSummary{BatchID: batchID, Rows: parsed}, nil
}

// ExportJob tracks one async export request through its lifecycle.
type ExportJob struct {
	ID         int64
	BatchID    int64
	Format     string
	Status     string
	OutputPath string
	Error      string
}

// Export job statuses.
const (
	JobQueued = "queued"
	JobDone   = "done"
	JobError  = "error"
)

// CreateExportJob records a queued export job and returns its id.
func (r *SQLiteRepository) CreateExportJob(ctx context.Context, batchID int64, format string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO export_jobs (batch_id, format, status) VALUES (?, ?, ?)`,
		batchID, format, JobQueued)
	if err != nil {
		return 0, fmt.Errorf("create export job: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("export job id: %w", err)
	}
	slog.InfoContext(ctx, "Export job queued", "job_id", id, "batch_id", batchID, "format", format)
	return id, nil
}

// ExportJobByID resolves one export job.
func (r *SQLiteRepository) ExportJobByID(ctx context.Context, id int64) (ExportJob, error) {
	var j ExportJob
	err := r.db.QueryRowContext(ctx,
		`SELECT id, batch_id, format, status, output_path, error FROM export_jobs WHERE id = ?`, id).
		Scan(&j.ID, &j.BatchID, &j.Format, &j.Status, &j.OutputPath, &j.Error)
	if errors.Is(err, sql.ErrNoRows) {
		return ExportJob{}, ErrJobNotFound
	}
	if err != nil {
		return ExportJob{}, fmt.Errorf("get export job %d: %w", id, err)
	}
	return j, nil
}

// MarkExportJobDone records a completed job and where its file landed.
func (r *SQLiteRepository) MarkExportJobDone(ctx context.Context, id int64, outputPath string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE export_jobs SET status = ?, output_path = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		JobDone, outputPath, id)
	if err != nil {
		return fmt.Errorf("mark export job %d done: %w", id, err)
	}
	slog.InfoContext(ctx, "Export job done", "job_id", id, "export_path", outputPath)
	return nil
}

// MarkExportJobError records a failed job with its error message.
func (r *SQLiteRepository) MarkExportJobError(ctx context.Context, id int64, msg string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE export_jobs SET status = ?, error = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		JobError, msg, id)
	if err != nil {
		return fmt.Errorf("mark export job %d error: %w", id, err)
	}
	return nil
}
