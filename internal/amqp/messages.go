package amqp

import (
	"encoding/json"
	"time"
)

// ExportJobMessage asks the worker to build one batch's payroll export.
// It carries only identifiers; the worker reads everything else from the
// database so a stale message can never ship stale figures.
type ExportJobMessage struct {
	JobID     int64     `json:"job_id"`
	BatchID   int64     `json:"batch_id"`
	Format    string    `json:"format"`
	Timestamp time.Time `json:"timestamp"`
}

// NewExportJobMessage creates a message for a queued export job.
func NewExportJobMessage(jobID, batchID int64, format string) *ExportJobMessage {
	return &ExportJobMessage{
		JobID:     jobID,
		BatchID:   batchID,
		Format:    format,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExportJobMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExportJobMessageFromJSON creates a message from JSON bytes
func ExportJobMessageFromJSON(data []byte) (*ExportJobMessage, error) {
	var msg ExportJobMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
