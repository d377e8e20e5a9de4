package pii

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// EventType identifies one kind of audit-worthy event.
type EventType string

const (
	EventPIIDetected      EventType = "pii_detected"
	EventPIIRedacted      EventType = "pii_redacted"
	EventExternalCallInit EventType = "external_call_initiated"
	EventPermissionDenied EventType = "permission_denied"
)

// AuditEvent is one append-only audit log record. Context must never carry
// raw PII — callers attach categories/counts/tool names, not the matched
// text itself.
type AuditEvent struct {
	Timestamp time.Time      `json:"timestamp"`
	TaskID    string         `json:"task_id"`
	Type      EventType      `json:"type"`
	Context   map[string]any `json:"context,omitempty"`
}

// AuditLog is an append-only JSONL file, fsync'd after every write so a
// crash never loses the most recent audit record, mirrored from
// pkg/episodic's fsync'd decision log idiom.
type AuditLog struct {
	mu   sync.Mutex
	file *os.File
}

// OpenAuditLog opens (creating if necessary) the audit log file at path for
// appending.
func OpenAuditLog(path string) (*AuditLog, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	return &AuditLog{file: f}, nil
}

// Close closes the underlying file.
func (a *AuditLog) Close() error {
	return a.file.Close()
}

// Record appends one event as a JSON line, fsyncing before returning.
func (a *AuditLog) Record(event AuditEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling audit event: %w", err)
	}
	data = append(data, '\n')

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, err := a.file.Write(data); err != nil {
		return fmt.Errorf("writing audit event: %w", err)
	}
	return a.file.Sync()
}
