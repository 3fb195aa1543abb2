// Package services orchestrates the payroll export pass: it pulls one
// batch's snapshots from storage, runs the aggregation and rounding core,
// and hands the ordered export to whichever renderer the caller picked.
package services

import (
	"context"
	"fmt"
	"time"

	"paydesk/internal/core"
	"paydesk/internal/log"
	"paydesk/internal/metrics"
	"paydesk/internal/payroll"
)

// SnapshotSource yields one batch's snapshot set with employee identity
// already joined. Implementations do not need to pre-sort or group; the
// aggregation core is order-independent. A missing batch id must surface
// as storage.ErrBatchNotFound so the HTTP layer can map it to a 404.
type SnapshotSource interface {
	BatchByID(ctx context.Context, id int64) (core.PayrollBatch, error)
	SnapshotsByBatch(ctx context.Context, batchID int64) ([]core.ShiftSnapshot, error)
	SummaryByBatch(ctx context.Context, batchID int64) (core.BatchSummary, error)
}

// ExportService runs the aggregate → round → order pass for one batch at a
// time. The rounding policy is injected, never ambient, so concurrent
// batches can round differently and tests can pin a fixed policy.
type ExportService struct {
	source SnapshotSource
	policy payroll.Policy
	logger *log.Logger
}

func NewExportService(source SnapshotSource, policy payroll.Policy, logger *log.Logger) *ExportService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ExportService{
		source: source,
		policy: policy,
		logger: logger.WithComponent(log.ComponentExport),
	}
}

// PolicyFromConfig builds the configured rounding policy. Step 0 disables
// rounding entirely (identity).
func PolicyFromConfig(stepMinutes int, mode string) (payroll.Policy, error) {
	return payroll.StepPolicy(core.Minutes(stepMinutes), payroll.RoundingMode(mode))
}

// BuildExport produces the ordered payroll export for one batch. An
// existing batch with no snapshots yields an export with zero rows; only an
// unresolvable batch id is an error.
func (s *ExportService) BuildExport(ctx context.Context, batchID int64) (payroll.Export, error) {
	start := time.Now()

	batch, err := s.source.BatchByID(ctx, batchID)
	if err != nil {
		return payroll.Export{}, fmt.Errorf("resolve batch %d: %w", batchID, err)
	}

	snaps, err := s.source.SnapshotsByBatch(ctx, batchID)
	if err != nil {
		return payroll.Export{}, fmt.Errorf("load snapshots for batch %d: %w", batchID, err)
	}

	totals := payroll.Aggregate(snaps)
	export := payroll.BuildExport(batch, totals, s.policy)

	metrics.ExportDuration.Observe(time.Since(start).Seconds())
	if clamped := export.ClampCount(); clamped > 0 {
		metrics.RoundingClampTotal.Add(float64(clamped))
		s.logger.WarnContext(ctx, "Rounded base clamped to zero",
			log.FieldBatchID, batchID,
			log.FieldClampedRows, clamped)
	}

	s.logger.InfoContext(ctx, "Export built",
		log.FieldBatchID, batchID,
		log.FieldSnapshots, len(snaps),
		log.FieldEmployees, totals.Len(),
		log.FieldDuration, time.Since(start).Milliseconds())

	return export, nil
}

// BatchSummary returns the pre-computed monetary summary for a batch. This
// is a pass-through of figures serialized at batch close; the aggregation
// core is not involved.
func (s *ExportService) BatchSummary(ctx context.Context, batchID int64) (core.BatchSummary, error) {
	summary, err := s.source.SummaryByBatch(ctx, batchID)
	if err != nil {
		return core.BatchSummary{}, fmt.Errorf("load summary for batch %d: %w", batchID, err)
	}
	return summary, nil
}
