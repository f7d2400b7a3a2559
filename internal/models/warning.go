package models

// WarningKind tells which threshold a warning crossed
type WarningKind string

const (
	WarningLongWork  WarningKind = "long_work"
	WarningLongBreak WarningKind = "long_break"
)

// Warning is a derived, non-persisted flag on an active session
type Warning struct {
	SubjectID       string      `json:"user_id"`
	SubjectName     string      `json:"user_name"`
	TenantID        string      `json:"team_id"`
	DurationMinutes float64     `json:"duration"`
	Kind            WarningKind `json:"warning_type"`
	SessionID       string      `json:"doc_id"`
}
