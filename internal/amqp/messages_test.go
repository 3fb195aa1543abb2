package amqp

import (
	"testing"
	"time"
)

func TestExportJobMessageRoundTrip(t *testing.T) {
	msg := NewExportJobMessage(7, 42, "xlsx")
	if msg.Timestamp.IsZero() {
		t.Fatalf("timestamp not set")
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	back, err := ExportJobMessageFromJSON(body)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.JobID != 7 || back.BatchID != 42 || back.Format != "xlsx" {
		t.Fatalf("round trip lost fields: %+v", back)
	}
	if !back.Timestamp.Truncate(time.Millisecond).Equal(msg.Timestamp.Truncate(time.Millisecond)) {
		t.Fatalf("timestamp drift: %v vs %v", back.Timestamp, msg.Timestamp)
	}
}

func TestExportJobMessageFromJSONRejectsGarbage(t *testing.T) {
	if _, err := ExportJobMessageFromJSON([]byte(`not json`)); err == nil {
		t.Fatalf("expected error")
	}
}
