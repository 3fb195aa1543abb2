package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldBatchID      = "batch_id"
	FieldEmployeeID   = "employee_id"
	FieldEmployees    = "employees"
	FieldSnapshots    = "snapshots"
	FieldClampedRows  = "clamped_rows"
	FieldExportFormat = "export_format"
	FieldExportPath   = "export_path"
	FieldJobID        = "job_id"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentExport  = "export"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentSheets  = "sheets"
)
