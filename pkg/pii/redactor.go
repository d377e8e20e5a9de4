package pii

import "context"

// Redactor is the facade workflow nodes and the Tool Executor call: detect,
// optionally redact, and, when auditing is enabled and an audit log is set,
// emit an audit trail entry whenever anything was found.
type Redactor struct {
	detectionEnabled bool
	redactionEnabled bool
	auditEnabled     bool
	detectors        []Detector
	audit            *AuditLog
}

// NewRedactor constructs a Redactor. audit may be nil when auditEnabled is
// false.
func NewRedactor(detectionEnabled, redactionEnabled, auditEnabled bool, audit *AuditLog) *Redactor {
	return &Redactor{
		detectionEnabled: detectionEnabled,
		redactionEnabled: redactionEnabled,
		auditEnabled:     auditEnabled,
		detectors:        Detectors(),
		audit:            audit,
	}
}

// Process detects PII in text, redacts it if redaction is enabled, and
// records an audit event if anything was found and auditing is enabled.
// Returns the (possibly unchanged) text and the categories detected.
func (r *Redactor) Process(ctx context.Context, taskID, text string, mode Mode) (string, []Category, error) {
	if !r.detectionEnabled || text == "" {
		return text, nil, nil
	}

	matches := Detect(text, r.detectors)
	if len(matches) == 0 {
		return text, nil, nil
	}

	categories := categoriesOf(matches)
	out := text
	eventType := EventPIIDetected
	if r.redactionEnabled {
		out = Redact(text, matches, mode)
		eventType = EventPIIRedacted
	}

	if r.auditEnabled && r.audit != nil {
		if err := r.audit.Record(AuditEvent{
			TaskID: taskID,
			Type:   eventType,
			Context: map[string]any{
				"categories": categories,
				"count":      len(matches),
			},
		}); err != nil {
			return out, categories, err
		}
	}
	return out, categories, nil
}

// RecordExternalCall emits an audit event marking that an external call is
// about to be made.
func (r *Redactor) RecordExternalCall(taskID, toolName string) error {
	if !r.auditEnabled || r.audit == nil {
		return nil
	}
	return r.audit.Record(AuditEvent{TaskID: taskID, Type: EventExternalCallInit, Context: map[string]any{"tool": toolName}})
}

// RecordPermissionDenied emits an audit event for a tool invocation blocked
// by its permission tier.
func (r *Redactor) RecordPermissionDenied(taskID, toolName string) error {
	if !r.auditEnabled || r.audit == nil {
		return nil
	}
	return r.audit.Record(AuditEvent{TaskID: taskID, Type: EventPermissionDenied, Context: map[string]any{"tool": toolName}})
}

func categoriesOf(matches []Match) []Category {
	seen := map[Category]bool{}
	var out []Category
	for _, m := range matches {
		if !seen[m.Category] {
			seen[m.Category] = true
			out = append(out, m.Category)
		}
	}
	return out
}
