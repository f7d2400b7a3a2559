// Package warning flags active sessions that have run past the configured
// work or break thresholds.
package warning

import (
	"time"

	"github.com/balkashynov/punchclock/internal/accounting"
	"github.com/balkashynov/punchclock/internal/models"
)

const (
	DefaultLongWorkThreshold  = 480
	DefaultLongBreakThreshold = 60
)

// Config holds the thresholds in minutes. Enabled only gates scheduled delivery.
type Config struct {
	Enabled                   bool
	LongWorkThresholdMinutes  float64
	LongBreakThresholdMinutes float64
}

// DefaultConfig returns disabled alerts with the stock thresholds
func DefaultConfig() Config {
	return Config{
		LongWorkThresholdMinutes:  DefaultLongWorkThreshold,
		LongBreakThresholdMinutes: DefaultLongBreakThreshold,
	}
}

// LongWork flags sessions whose subject is working and has worked at least
// the threshold, counting elapsed time minus closed breaks
func LongWork(sessions []models.Session, cfg Config, now time.Time) []models.Warning {
	var out []models.Warning
	for _, s := range sessions {
		if !s.Active() || s.OnBreak() {
			continue
		}
		worked := accounting.Round2(accounting.Elapsed(s.Start, now) - accounting.TotalBreakTime(s))
		if worked >= cfg.LongWorkThresholdMinutes {
			out = append(out, newWarning(s, models.WarningLongWork, worked))
		}
	}
	return out
}

// LongBreak flags sessions whose open break has lasted at least the threshold
func LongBreak(sessions []models.Session, cfg Config, now time.Time) []models.Warning {
	var out []models.Warning
	for _, s := range sessions {
		if !s.Active() || !s.OnBreak() {
			continue
		}
		onBreak := accounting.Round2(accounting.Elapsed(s.LastBreak().Start, now))
		if onBreak >= cfg.LongBreakThresholdMinutes {
			out = append(out, newWarning(s, models.WarningLongBreak, onBreak))
		}
	}
	return out
}

// All returns long-work warnings followed by long-break warnings. A session
// is either working or on break, so it appears at most once.
func All(sessions []models.Session, cfg Config, now time.Time) []models.Warning {
	return append(LongWork(sessions, cfg, now), LongBreak(sessions, cfg, now)...)
}

func newWarning(s models.Session, kind models.WarningKind, minutes float64) models.Warning {
	return models.Warning{
		SubjectID:       s.SubjectID,
		SubjectName:     s.SubjectName,
		TenantID:        s.TenantID,
		DurationMinutes: minutes,
		Kind:            kind,
		SessionID:       s.ID,
	}
}

// Message renders a warning as a short line for people
func Message(w models.Warning) string {
	name := w.SubjectName
	if name == "" {
		name = w.SubjectID
	}
	switch w.Kind {
	case models.WarningLongBreak:
		return name + " on break for " + accounting.FormatMinutes(w.DurationMinutes)
	default:
		return name + " working for " + accounting.FormatMinutes(w.DurationMinutes)
	}
}
