package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"paydesk/internal/core"
	"paydesk/internal/metrics"
	"paydesk/internal/payroll"
	"paydesk/internal/render"
	"paydesk/internal/storage"
)

const maxBodyBytes = 1 << 20 // 1 MiB

type batchResponse struct {
	ID          int64  `json:"id"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
}

type createBatchRequest struct {
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
}

type ingestSnapshotRequest struct {
	EmployeeCode string `json:"employee_code"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	ShiftID      int64  `json:"shift_id"`

	WorkedMinutes      int64 `json:"worked_minutes"`
	BreakMinutes       int64 `json:"break_minutes"`
	PaidMinutes        int64 `json:"paid_minutes"`
	NormalMinutes      int64 `json:"normal_minutes"`
	WeekendMinutes     int64 `json:"weekend_minutes"`
	BankHolidayMinutes int64 `json:"bank_holiday_minutes"`
	OvertimeMinutes    int64 `json:"overtime_minutes"`

	// Breakdown is stored verbatim; a malformed payload degrades to the
	// flat legacy shape at read time rather than failing ingestion.
	Breakdown json.RawMessage `json:"breakdown,omitempty"`
}

type exportJobRequest struct {
	Format string `json:"format"`
}

type exportJobResponse struct {
	ID         int64  `json:"id"`
	BatchID    int64  `json:"batch_id"`
	Format     string `json:"format"`
	Status     string `json:"status"`
	OutputPath string `json:"output_path,omitempty"`
	Error      string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Encode response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusForError maps storage sentinels onto HTTP statuses.
func statusForError(err error) int {
	switch {
	case errors.Is(err, storage.ErrBatchNotFound),
		errors.Is(err, storage.ErrSummaryNotFound),
		errors.Is(err, storage.ErrJobNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func (s *Server) handleListBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := s.store.ListBatches(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List batches failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not list batches")
		return
	}

	resp := make([]batchResponse, 0, len(batches))
	for _, b := range batches {
		resp = append(resp, batchResponse{
			ID:          b.ID,
			PeriodStart: b.PeriodStart.Format("2006-01-02"),
			PeriodEnd:   b.PeriodEnd.Format("2006-01-02"),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type employeeResponse struct {
	ID        int64  `json:"id"`
	Code      string `json:"code"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (s *Server) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := s.store.ListEmployees(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List employees failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not list employees")
		return
	}

	resp := make([]employeeResponse, 0, len(employees))
	for _, e := range employees {
		resp = append(resp, employeeResponse{ID: e.ID, Code: e.Code, FirstName: e.FirstName, LastName: e.LastName})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateBatch(w http.ResponseWriter, r *http.Request) {
	var req createBatchRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	start, err := time.Parse("2006-01-02", req.PeriodStart)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "period_start must be YYYY-MM-DD")
		return
	}
	end, err := time.Parse("2006-01-02", req.PeriodEnd)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "period_end must be YYYY-MM-DD")
		return
	}
	if end.Before(start) {
		writeError(w, http.StatusUnprocessableEntity, "period_end before period_start")
		return
	}

	id, err := s.store.CreateBatch(r.Context(), start, end)
	if err != nil {
		slog.ErrorContext(r.Context(), "Create batch failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not create batch")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleIngestSnapshot(w http.ResponseWriter, r *http.Request) {
	batchID, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid batch id")
		return
	}

	var req ingestSnapshotRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.EmployeeCode == "" {
		writeError(w, http.StatusUnprocessableEntity, "employee_code is required")
		return
	}

	id, err := s.store.IngestSnapshot(r.Context(), batchID, storage.SnapshotParams{
		EmployeeCode: req.EmployeeCode,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		ShiftID:      req.ShiftID,

		WorkedMinutes:      req.WorkedMinutes,
		BreakMinutes:       req.BreakMinutes,
		PaidMinutes:        req.PaidMinutes,
		NormalMinutes:      req.NormalMinutes,
		WeekendMinutes:     req.WeekendMinutes,
		BankHolidayMinutes: req.BankHolidayMinutes,
		OvertimeMinutes:    req.OvertimeMinutes,

		BreakdownJSON: req.Breakdown,
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "Ingest snapshot failed", "error", err, "batch_id", batchID)
		writeError(w, statusForError(err), "could not ingest snapshot")
		return
	}

	s.invalidateExports(batchID)
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleSaveSummary(w http.ResponseWriter, r *http.Request) {
	batchID, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid batch id")
		return
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read body")
		return
	}
	// Summaries have no fallback shape: reject anything that will not
	// parse back at export time.
	if _, err := core.ParseSummaryRows(raw); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "summary payload is not a valid row list")
		return
	}

	if err := s.store.SaveSummary(r.Context(), batchID, raw); err != nil {
		slog.ErrorContext(r.Context(), "Save summary failed", "error", err, "batch_id", batchID)
		writeError(w, statusForError(err), "could not save summary")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	s.serveExport(w, r, "csv", "text/csv; charset=utf-8", render.WriteCSV)
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	s.serveExport(w, r, "xlsx",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		render.WriteXLSX)
}

func (s *Server) serveExport(w http.ResponseWriter, r *http.Request, format, contentType string, write func(io.Writer, payroll.Export) error) {
	batchID, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid batch id")
		return
	}

	key := s.exportCacheKey(batchID, format)
	data, found := s.exportCache.Get(key)
	if !found {
		export, err := s.exporter.BuildExport(r.Context(), batchID)
		if err != nil {
			slog.ErrorContext(r.Context(), "Build export failed", "error", err, "batch_id", batchID, "format", format)
			writeError(w, statusForError(err), "could not build export")
			return
		}

		var buf bytes.Buffer
		if err := write(&buf, export); err != nil {
			slog.ErrorContext(r.Context(), "Render export failed", "error", err, "batch_id", batchID, "format", format)
			writeError(w, http.StatusInternalServerError, "could not render export")
			return
		}
		data = buf.Bytes()
		s.exportCache.Set(key, data)
		metrics.ExportsTotal.WithLabelValues(format).Inc()
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("batch_%d.%s", batchID, format)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleSummaryCSV(w http.ResponseWriter, r *http.Request) {
	batchID, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid batch id")
		return
	}

	summary, err := s.exporter.BatchSummary(r.Context(), batchID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Load summary failed", "error", err, "batch_id", batchID)
		writeError(w, statusForError(err), "could not load summary")
		return
	}

	var buf bytes.Buffer
	if err := render.WriteSummaryCSV(&buf, summary); err != nil {
		slog.ErrorContext(r.Context(), "Render summary failed", "error", err, "batch_id", batchID)
		writeError(w, http.StatusInternalServerError, "could not render summary")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("batch_%d_summary.csv", batchID)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleCreateExportJob(w http.ResponseWriter, r *http.Request) {
	if s.publisher == nil {
		writeError(w, http.StatusServiceUnavailable, "async exports are not configured")
		return
	}

	batchID, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid batch id")
		return
	}

	var req exportJobRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Format != "csv" && req.Format != "xlsx" {
		writeError(w, http.StatusUnprocessableEntity, "format must be csv or xlsx")
		return
	}

	jobID, err := s.store.CreateExportJob(r.Context(), batchID, req.Format)
	if err != nil {
		slog.ErrorContext(r.Context(), "Create export job failed", "error", err, "batch_id", batchID)
		writeError(w, statusForError(err), "could not create export job")
		return
	}

	if err := s.publisher.PublishExportJob(r.Context(), jobID, batchID, req.Format); err != nil {
		slog.ErrorContext(r.Context(), "Publish export job failed", "error", err, "job_id", jobID, "batch_id", batchID)
		writeError(w, http.StatusBadGateway, "could not queue export job")
		return
	}

	writeJSON(w, http.StatusAccepted, exportJobResponse{
		ID:      jobID,
		BatchID: batchID,
		Format:  req.Format,
		Status:  storage.JobQueued,
	})
}

func (s *Server) handleExportJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid job id")
		return
	}

	job, err := s.store.ExportJobByID(r.Context(), jobID)
	if err != nil {
		writeError(w, statusForError(err), "could not load export job")
		return
	}

	writeJSON(w, http.StatusOK, exportJobResponse{
		ID:         job.ID,
		BatchID:    job.BatchID,
		Format:     job.Format,
		Status:     job.Status,
		OutputPath: job.OutputPath,
		Error:      job.Error,
	})
}
