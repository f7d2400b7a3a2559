package models

import "time"

// Session represents one attendance record, from punch-in to punch-out
type Session struct {
	// Store metadata, not part of the document itself
	ID      string `json:"-"`
	Version int64  `json:"-"`

	SubjectID   string
	SubjectName string
	TenantID    string

	Start  time.Time
	End    *time.Time // nil while the session is active
	Breaks []BreakInterval

	// Optional work report, set right after punch-out
	WorkDescription *string
	WorkProgress    *string
	ReportChannelID *string
	MentionUserIDs  []string
}

// BreakInterval is a single break inside a session
type BreakInterval struct {
	Start time.Time
	End   *time.Time
}

// Open reports whether the break has not ended yet
func (b BreakInterval) Open() bool {
	return b.End == nil
}

// Active reports whether the session has no end timestamp
func (s *Session) Active() bool {
	return s.End == nil
}

// LastBreak returns the trailing break interval, or nil when there are none
func (s *Session) LastBreak() *BreakInterval {
	if len(s.Breaks) == 0 {
		return nil
	}
	return &s.Breaks[len(s.Breaks)-1]
}

// OnBreak reports whether the trailing break is still open
func (s *Session) OnBreak() bool {
	last := s.LastBreak()
	return last != nil && last.Open()
}

// Clone returns a deep copy so callers can mutate without touching shared state
func (s Session) Clone() Session {
	out := s
	if s.End != nil {
		end := *s.End
		out.End = &end
	}
	if s.Breaks != nil {
		out.Breaks = make([]BreakInterval, len(s.Breaks))
		for i, b := range s.Breaks {
			out.Breaks[i] = BreakInterval{Start: b.Start}
			if b.End != nil {
				end := *b.End
				out.Breaks[i].End = &end
			}
		}
	}
	out.WorkDescription = cloneString(s.WorkDescription)
	out.WorkProgress = cloneString(s.WorkProgress)
	out.ReportChannelID = cloneString(s.ReportChannelID)
	if s.MentionUserIDs != nil {
		out.MentionUserIDs = append([]string(nil), s.MentionUserIDs...)
	}
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
