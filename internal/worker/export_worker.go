// Package worker processes queued export jobs: it rebuilds the batch
// export, renders it to the exports directory, and records the outcome on
// the job row so the admin UI can poll for it.
package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"paydesk/internal/amqp"
	"paydesk/internal/log"
	"paydesk/internal/metrics"
	"paydesk/internal/payroll"
	"paydesk/internal/render"
	"paydesk/internal/sheets"
)

// ExportBuilder produces the ordered export for one batch.
type ExportBuilder interface {
	BuildExport(ctx context.Context, batchID int64) (payroll.Export, error)
}

// JobStore records the terminal state of an export job.
type JobStore interface {
	MarkExportJobDone(ctx context.Context, id int64, outputPath string) error
	MarkExportJobError(ctx context.Context, id int64, msg string) error
}

// ExportWorker handles one export job message at a time. A build or render
// failure is terminal for the job: the job row is marked with the error and
// the message is acked, so a batch that cannot export does not loop in the
// queue forever.
type ExportWorker struct {
	builder   ExportBuilder
	store     JobStore
	sink      sheets.ExportSink // optional
	exportDir string
	logger    *log.Logger
}

func NewExportWorker(builder ExportBuilder, store JobStore, sink sheets.ExportSink, exportDir string, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ExportWorker{
		builder:   builder,
		store:     store,
		sink:      sink,
		exportDir: exportDir,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// HandleExportJob is the message handler wired into the AMQP consumer.
func (w *ExportWorker) HandleExportJob(ctx context.Context, msg *amqp.ExportJobMessage) error {
	w.logger.InfoContext(ctx, "Processing export job",
		log.FieldJobID, msg.JobID,
		log.FieldBatchID, msg.BatchID,
		log.FieldExportFormat, msg.Format)

	outputPath, err := w.run(ctx, msg)
	if err != nil {
		metrics.ExportJobsTotal.WithLabelValues("error").Inc()
		w.logger.ErrorContext(ctx, "Export job failed",
			log.FieldJobID, msg.JobID,
			log.FieldBatchID, msg.BatchID,
			log.FieldError, err)
		if markErr := w.store.MarkExportJobError(ctx, msg.JobID, err.Error()); markErr != nil {
			// Requeue so the status write gets another chance.
			return fmt.Errorf("mark job %d errored: %w", msg.JobID, markErr)
		}
		return nil
	}

	if err := w.store.MarkExportJobDone(ctx, msg.JobID, outputPath); err != nil {
		return fmt.Errorf("mark job %d done: %w", msg.JobID, err)
	}

	metrics.ExportJobsTotal.WithLabelValues("done").Inc()
	w.logger.InfoContext(ctx, "Export job completed",
		log.FieldJobID, msg.JobID,
		log.FieldBatchID, msg.BatchID,
		log.FieldExportPath, outputPath)
	return nil
}

func (w *ExportWorker) run(ctx context.Context, msg *amqp.ExportJobMessage) (string, error) {
	export, err := w.builder.BuildExport(ctx, msg.BatchID)
	if err != nil {
		return "", fmt.Errorf("build export: %w", err)
	}

	outputPath := filepath.Join(w.exportDir, fmt.Sprintf("batch_%d_job_%d.%s", msg.BatchID, msg.JobID, msg.Format))
	if err := w.writeFile(outputPath, msg.Format, export); err != nil {
		return "", err
	}
	metrics.ExportsTotal.WithLabelValues(msg.Format).Inc()

	if w.sink != nil {
		rows := make([][]string, 0, len(export.Rows))
		for _, row := range export.Rows {
			rows = append(rows, row.Fields())
		}
		if err := w.sink.AppendExport(ctx, msg.BatchID, payroll.Header(), rows); err != nil {
			return "", fmt.Errorf("push to sink: %w", err)
		}
	}

	return outputPath, nil
}

func (w *ExportWorker) writeFile(path, format string, export payroll.Export) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	switch format {
	case "csv":
		err = render.WriteCSV(f, export)
	case "xlsx":
		err = render.WriteXLSX(f, export)
	default:
		err = fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		f.Close()
		os.Remove(path)
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
