package period

import (
	"context"
	"sort"
	"time"

	"github.com/balkashynov/punchclock/internal/db"
	"github.com/balkashynov/punchclock/internal/models"
)

const (
	DefaultPageSize    = 100
	DefaultFallbackCap = 1000
)

// Request selects a subject's sessions whose start lies in [From, To]
type Request struct {
	SubjectID string
	TenantID  string // empty means every tenant
	From      time.Time
	To        time.Time
	PageSize  int
}

func (r Request) filter() db.Filter {
	f := db.Filter{SubjectID: db.String(r.SubjectID)}
	if r.TenantID != "" {
		f.TenantID = db.String(r.TenantID)
	}
	return f
}

// Strategy is one way of answering a Request
type Strategy interface {
	Fetch(ctx context.Context, req Request) ([]models.Session, error)
}

// PagedRange is the primary strategy: a ranged, ordered store query read in
// pages of PageSize with a cursor on the last record of each page
type PagedRange struct {
	Store db.RecordStore
}

func (p PagedRange) Fetch(ctx context.Context, req Request) ([]models.Session, error) {
	q := db.Query{
		Filter:       req.filter(),
		OrderByStart: true,
		Limit:        req.PageSize,
	}
	q.StartFrom = db.Time(req.From)
	q.StartTo = db.Time(req.To)

	var records []models.Session
	for {
		batch, err := p.Store.Query(ctx, q)
		if err != nil {
			return nil, err
		}
		records = append(records, batch...)
		if len(batch) < req.PageSize {
			return records, nil
		}
		q.After = db.CursorAfter(batch[len(batch)-1])
	}
}

// CappedScan is the fallback strategy for stores that cannot serve the ranged
// query. It reads at most Cap documents filtered by subject only, then applies
// the range, tenant and order in memory and keeps the first PageSize records.
// Documents beyond Cap are never seen, so the result may be incomplete.
type CappedScan struct {
	Store db.RecordStore
	Cap   int
}

func (c CappedScan) Fetch(ctx context.Context, req Request) ([]models.Session, error) {
	limit := c.Cap
	if limit <= 0 {
		limit = DefaultFallbackCap
	}

	candidates, err := c.Store.Query(ctx, db.Query{
		Filter: db.Filter{SubjectID: db.String(req.SubjectID)},
		Limit:  limit,
	})
	if err != nil {
		return nil, err
	}

	filter := req.filter()
	filter.StartFrom = db.Time(req.From)
	filter.StartTo = db.Time(req.To)

	records := make([]models.Session, 0, len(candidates))
	for _, s := range candidates {
		if filter.Matches(s) {
			records = append(records, s)
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Start.Before(records[j].Start)
	})
	if len(records) > req.PageSize {
		records = records[:req.PageSize]
	}
	return records, nil
}
