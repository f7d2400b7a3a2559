package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/balkashynov/punchclock/internal/accounting"
	"github.com/balkashynov/punchclock/internal/db"
	"github.com/balkashynov/punchclock/internal/models"
)

// State is what an active subject is doing right now
type State string

const (
	StateWorking State = "working"
	StateOnBreak State = "on_break"
)

// EmployeeStatus is a snapshot of one active session
type EmployeeStatus struct {
	SubjectID   string
	SubjectName string
	TenantID    string
	SessionID   string
	State       State
	Start       time.Time

	// Minutes since punch-in, breaks included
	WorkingDuration float64
	// Start of the open break, nil when working
	BreakStart *time.Time
	// Minutes since the open break started, nil when working
	BreakDuration *float64
	// Minutes of closed breaks so far
	TotalBreakTime float64
}

func statusOf(s models.Session, now time.Time) EmployeeStatus {
	st := EmployeeStatus{
		SubjectID:       s.SubjectID,
		SubjectName:     s.SubjectName,
		TenantID:        s.TenantID,
		SessionID:       s.ID,
		State:           StateWorking,
		Start:           s.Start,
		WorkingDuration: accounting.Elapsed(s.Start, now),
		TotalBreakTime:  accounting.TotalBreakTime(s),
	}
	if s.OnBreak() {
		st.State = StateOnBreak
		start := s.LastBreak().Start
		d := accounting.Elapsed(start, now)
		st.BreakStart = &start
		st.BreakDuration = &d
	}
	return st
}

// Status returns the subject's current status, nil when not clocked in
func (s *Service) Status(ctx context.Context, subject, tenant string) (*EmployeeStatus, error) {
	active, err := s.active(ctx, subject, tenant)
	if err != nil {
		return nil, err
	}
	if active == nil {
		return nil, nil
	}
	st := statusOf(*active, s.clock.Now())
	return &st, nil
}

// ActiveEmployees lists everyone clocked in within tenant
func (s *Service) ActiveEmployees(ctx context.Context, tenant string) ([]EmployeeStatus, error) {
	sessions, err := s.store.Query(ctx, db.Query{
		Filter: db.Filter{TenantID: &tenant, ActiveOnly: true},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list active sessions: %w", err)
	}

	now := s.clock.Now()
	statuses := make([]EmployeeStatus, 0, len(sessions))
	for _, session := range sessions {
		statuses = append(statuses, statusOf(session, now))
	}
	return statuses, nil
}
