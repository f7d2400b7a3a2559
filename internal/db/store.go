package db

import (
	"context"
	"time"

	"github.com/balkashynov/punchclock/internal/models"
)

// RecordStore is durable keyed storage of attendance documents
type RecordStore interface {
	// Create stores a new session, assigns its ID and sets Version to 1
	Create(ctx context.Context, session *models.Session) (string, error)
	// Get loads a session by ID, models.ErrNotFound when absent
	Get(ctx context.Context, id string) (*models.Session, error)
	// Put overwrites the full document. The write only succeeds when the stored
	// version still matches session.Version; on success Version is incremented.
	Put(ctx context.Context, session *models.Session) error
	// Query returns sessions matching the filter
	Query(ctx context.Context, q Query) ([]models.Session, error)
}

// Filter narrows a query. Nil fields match anything.
type Filter struct {
	SubjectID  *string
	TenantID   *string
	ActiveOnly bool
	StartFrom  *time.Time // inclusive
	StartTo    *time.Time // inclusive
}

// Query is a filtered, optionally ordered and paginated read
type Query struct {
	Filter
	OrderByStart bool
	Limit        int     // 0 means no limit
	After        *Cursor // only with OrderByStart
}

// Cursor points at the last record of the previous page
type Cursor struct {
	Start time.Time
	ID    string
}

// CursorAfter returns a cursor positioned on the given session
func CursorAfter(s models.Session) *Cursor {
	return &Cursor{Start: s.Start, ID: s.ID}
}

// NeedsCompositeIndex reports whether the query combines an equality filter with
// a range or ordering on start time, which the store only serves from a composite index.
func (q Query) NeedsCompositeIndex() bool {
	return q.SubjectID != nil && (q.StartFrom != nil || q.StartTo != nil || q.OrderByStart)
}

// Matches applies the filter to a single session in memory
func (f Filter) Matches(s models.Session) bool {
	if f.SubjectID != nil && s.SubjectID != *f.SubjectID {
		return false
	}
	if f.TenantID != nil && s.TenantID != *f.TenantID {
		return false
	}
	if f.ActiveOnly && !s.Active() {
		return false
	}
	if f.StartFrom != nil && s.Start.Before(*f.StartFrom) {
		return false
	}
	if f.StartTo != nil && s.Start.After(*f.StartTo) {
		return false
	}
	return true
}

// after reports whether s sorts strictly after the cursor
func (c *Cursor) after(s models.Session) bool {
	if c == nil {
		return true
	}
	if !s.Start.Equal(c.Start) {
		return s.Start.After(c.Start)
	}
	return s.ID > c.ID
}

// String returns a pointer to v, handy for building filters
func String(v string) *string {
	return &v
}

// Time returns a pointer to t, handy for building filters
func Time(t time.Time) *time.Time {
	return &t
}
