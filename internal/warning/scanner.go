package warning

import (
	"context"
	"fmt"

	"github.com/balkashynov/punchclock/internal/clock"
	"github.com/balkashynov/punchclock/internal/db"
	"github.com/balkashynov/punchclock/internal/models"
)

// Scanner reads active sessions from the store and applies the checks. It
// never writes, so scans may overlap with lifecycle operations.
type Scanner struct {
	store db.RecordStore
	clock clock.Clock
	cfg   Config
}

func NewScanner(store db.RecordStore, clk clock.Clock, cfg Config) *Scanner {
	return &Scanner{store: store, clock: clk, cfg: cfg}
}

// Config returns the scanner's thresholds
func (s *Scanner) Config() Config {
	return s.cfg
}

// Warnings returns the current warnings for tenant, or for every tenant when
// tenant is empty
func (s *Scanner) Warnings(ctx context.Context, tenant string) ([]models.Warning, error) {
	q := db.Query{Filter: db.Filter{ActiveOnly: true}}
	if tenant != "" {
		q.TenantID = db.String(tenant)
	}
	sessions, err := s.store.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to load active sessions: %w", err)
	}
	return All(sessions, s.cfg, s.clock.Now()), nil
}
