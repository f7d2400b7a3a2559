package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimeLayout is the canonical timestamp format of stored documents
const TimeLayout = time.RFC3339Nano

// Document is the serialized shape of a session as kept in the record store
type Document struct {
	SubjectID       string          `json:"user_id"`
	SubjectName     string          `json:"user_name"`
	TenantID        string          `json:"team_id"`
	StartTime       string          `json:"start_time"`
	EndTime         *string         `json:"end_time"`
	BreakPeriods    []BreakDocument `json:"break_periods"`
	WorkDescription *string         `json:"work_description"`
	WorkProgress    *string         `json:"work_progress"`
	ReportChannelID *string         `json:"report_channel_id"`
	MentionUserIDs  []string        `json:"mention_user_ids"`
}

// BreakDocument is the serialized shape of a break interval
type BreakDocument struct {
	StartTime string  `json:"start_time"`
	EndTime   *string `json:"end_time"`
}

// ToDocument converts a session into its document shape
func ToDocument(s Session) Document {
	doc := Document{
		SubjectID:       s.SubjectID,
		SubjectName:     s.SubjectName,
		TenantID:        s.TenantID,
		StartTime:       formatTime(s.Start),
		EndTime:         formatTimePtr(s.End),
		BreakPeriods:    make([]BreakDocument, 0, len(s.Breaks)),
		WorkDescription: s.WorkDescription,
		WorkProgress:    s.WorkProgress,
		ReportChannelID: s.ReportChannelID,
		MentionUserIDs:  s.MentionUserIDs,
	}
	for _, b := range s.Breaks {
		doc.BreakPeriods = append(doc.BreakPeriods, BreakDocument{
			StartTime: formatTime(b.Start),
			EndTime:   formatTimePtr(b.End),
		})
	}
	if doc.MentionUserIDs == nil {
		doc.MentionUserIDs = []string{}
	}
	return doc
}

// Session converts the document back into a session without store metadata
func (d Document) Session() (Session, error) {
	start, err := parseTime("start_time", d.StartTime)
	if err != nil {
		return Session{}, err
	}
	end, err := parseTimePtr("end_time", d.EndTime)
	if err != nil {
		return Session{}, err
	}

	s := Session{
		SubjectID:       d.SubjectID,
		SubjectName:     d.SubjectName,
		TenantID:        d.TenantID,
		Start:           start,
		End:             end,
		WorkDescription: d.WorkDescription,
		WorkProgress:    d.WorkProgress,
		ReportChannelID: d.ReportChannelID,
	}
	for i, bd := range d.BreakPeriods {
		bStart, err := parseTime(fmt.Sprintf("break_periods[%d].start_time", i), bd.StartTime)
		if err != nil {
			return Session{}, err
		}
		bEnd, err := parseTimePtr(fmt.Sprintf("break_periods[%d].end_time", i), bd.EndTime)
		if err != nil {
			return Session{}, err
		}
		s.Breaks = append(s.Breaks, BreakInterval{Start: bStart, End: bEnd})
	}
	if len(d.MentionUserIDs) > 0 {
		s.MentionUserIDs = append([]string(nil), d.MentionUserIDs...)
	}
	return s, nil
}

// Encode serializes a session into its JSON document
func Encode(s Session) ([]byte, error) {
	return json.Marshal(ToDocument(s))
}

// Decode parses a JSON document into a session
func Decode(data []byte) (Session, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return doc.Session()
}

func formatTime(t time.Time) string {
	return t.Format(TimeLayout)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func parseTime(field, value string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s %q", ErrMalformed, field, value)
	}
	return t, nil
}

func parseTimePtr(field string, value *string) (*time.Time, error) {
	// Older documents store an empty string instead of null
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := parseTime(field, *value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
