// Package attendance implements the punch-in / break / punch-out lifecycle of
// a subject's work session.
//
// Every operation reads the subject's active session, checks the transition
// is allowed, mutates it in memory and writes the full document back. The
// store rejects a second open session for the same subject and tenant, and
// rejects writes based on a stale version, so two racing callers cannot both
// succeed.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/balkashynov/punchclock/internal/accounting"
	"github.com/balkashynov/punchclock/internal/clock"
	"github.com/balkashynov/punchclock/internal/db"
	"github.com/balkashynov/punchclock/internal/models"
)

// Service runs lifecycle operations against a record store
type Service struct {
	store  db.RecordStore
	clock  clock.Clock
	logger *slog.Logger
}

// NewService wires the lifecycle to its store and time source
func NewService(store db.RecordStore, clk clock.Clock, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		clock:  clk,
		logger: logger.With("service", "attendance"),
	}
}

// PunchIn opens a new session and returns its start time
func (s *Service) PunchIn(ctx context.Context, subject, name, tenant string) (time.Time, error) {
	active, err := s.active(ctx, subject, tenant)
	if err != nil {
		return time.Time{}, err
	}
	if active != nil {
		return time.Time{}, ErrAlreadyActive
	}

	now := s.clock.Now()
	session := models.Session{
		SubjectID:   subject,
		SubjectName: name,
		TenantID:    tenant,
		Start:       now,
	}
	if _, err := s.store.Create(ctx, &session); err != nil {
		// Another punch-in won between our read and write.
		if errors.Is(err, models.ErrExists) {
			return time.Time{}, ErrAlreadyActive
		}
		return time.Time{}, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info("punched in", "subject", subject, "tenant", tenant, "session", session.ID)
	return now, nil
}

// PunchOut closes the active session and returns it
func (s *Service) PunchOut(ctx context.Context, subject, tenant string) (models.Session, error) {
	active, err := s.active(ctx, subject, tenant)
	if err != nil {
		return models.Session{}, err
	}
	if active == nil {
		return models.Session{}, ErrNoActiveSession
	}
	if active.OnBreak() {
		return models.Session{}, ErrBreakInProgress
	}

	now := s.clock.Now()
	active.End = &now
	if err := s.save(ctx, active); err != nil {
		return models.Session{}, err
	}

	s.logger.Info("punched out", "subject", subject, "tenant", tenant, "session", active.ID,
		"workingMinutes", accounting.WorkingTime(*active))
	return *active, nil
}

// StartBreak opens a break in the active session and returns its start time
func (s *Service) StartBreak(ctx context.Context, subject, tenant string) (time.Time, error) {
	active, err := s.active(ctx, subject, tenant)
	if err != nil {
		return time.Time{}, err
	}
	if active == nil {
		return time.Time{}, ErrNoActiveSession
	}
	if active.OnBreak() {
		return time.Time{}, ErrAlreadyOnBreak
	}

	now := s.clock.Now()
	active.Breaks = append(active.Breaks, models.BreakInterval{Start: now})
	if err := s.save(ctx, active); err != nil {
		return time.Time{}, err
	}

	s.logger.Info("break started", "subject", subject, "tenant", tenant, "session", active.ID)
	return now, nil
}

// EndBreak closes the open break and returns its end time and length in minutes
func (s *Service) EndBreak(ctx context.Context, subject, tenant string) (time.Time, float64, error) {
	active, err := s.active(ctx, subject, tenant)
	if err != nil {
		return time.Time{}, 0, err
	}
	if active == nil {
		return time.Time{}, 0, ErrNoActiveSession
	}
	if !active.OnBreak() {
		return time.Time{}, 0, ErrNoBreakInProgress
	}

	now := s.clock.Now()
	last := active.LastBreak()
	last.End = &now
	duration := accounting.BreakDuration(*last)
	if err := s.save(ctx, active); err != nil {
		return time.Time{}, 0, err
	}

	s.logger.Info("break ended", "subject", subject, "tenant", tenant, "session", active.ID, "minutes", duration)
	return now, duration, nil
}

// Report is the work summary attached to a session after punch-out.
// Empty fields are left unset.
type Report struct {
	Description string
	Progress    string
	ChannelID   string
	Mentions    []string
}

// SubmitReport attaches a work report to a closed session of subject
func (s *Service) SubmitReport(ctx context.Context, subject, sessionID string, report Report) (models.Session, error) {
	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return models.Session{}, fmt.Errorf("failed to load session: %w", err)
	}
	if session.SubjectID != subject {
		return models.Session{}, ErrNotOwner
	}
	if session.Active() {
		return models.Session{}, ErrSessionNotClosed
	}

	session.WorkDescription = optional(report.Description)
	session.WorkProgress = optional(report.Progress)
	session.ReportChannelID = optional(report.ChannelID)
	session.MentionUserIDs = nil
	if len(report.Mentions) > 0 {
		session.MentionUserIDs = append([]string(nil), report.Mentions...)
	}

	if err := s.save(ctx, session); err != nil {
		return models.Session{}, err
	}

	s.logger.Info("work report saved", "subject", subject, "session", session.ID)
	return *session, nil
}

// active returns the open session of subject in tenant, or nil
func (s *Service) active(ctx context.Context, subject, tenant string) (*models.Session, error) {
	sessions, err := s.store.Query(ctx, db.Query{
		Filter: db.Filter{SubjectID: &subject, TenantID: &tenant, ActiveOnly: true},
		Limit:  1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find active session: %w", err)
	}
	if len(sessions) == 0 {
		return nil, nil
	}
	return &sessions[0], nil
}

// save writes the full document back and flags integrity problems
func (s *Service) save(ctx context.Context, session *models.Session) error {
	if err := s.store.Put(ctx, session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	for _, issue := range accounting.Audit(*session) {
		s.logger.Warn("data integrity", "session", session.ID, "subject", session.SubjectID, "issue", issue.String())
	}
	return nil
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
