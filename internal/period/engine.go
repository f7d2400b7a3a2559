// Package period reads a subject's sessions over a date range and aggregates
// them into daily, weekly and monthly totals.
package period

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/balkashynov/punchclock/internal/clock"
	"github.com/balkashynov/punchclock/internal/db"
	"github.com/balkashynov/punchclock/internal/models"
)

// Options sizes the engine's reads
type Options struct {
	PageSize    int
	FallbackCap int
}

// Engine answers period requests with a primary strategy and degrades to a
// fallback when the store lacks the index the primary needs
type Engine struct {
	primary  Strategy
	fallback Strategy
	pageSize int
	clock    clock.Clock
	logger   *slog.Logger
}

// NewEngine builds the default two-tier engine over store
func NewEngine(store db.RecordStore, opts Options, clk clock.Clock, logger *slog.Logger) *Engine {
	return NewEngineWithStrategies(
		PagedRange{Store: store},
		CappedScan{Store: store, Cap: opts.FallbackCap},
		opts.PageSize, clk, logger,
	)
}

// NewEngineWithStrategies builds an engine from explicit strategies. A nil
// fallback disables degradation.
func NewEngineWithStrategies(primary, fallback Strategy, pageSize int, clk clock.Clock, logger *slog.Logger) *Engine {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		primary:  primary,
		fallback: fallback,
		pageSize: pageSize,
		clock:    clk,
		logger:   logger.With("service", "period"),
	}
}

// GetByPeriod returns the subject's sessions started within the request range,
// oldest first
func (e *Engine) GetByPeriod(ctx context.Context, req Request) ([]models.Session, error) {
	if req.PageSize <= 0 {
		req.PageSize = e.pageSize
	}
	if req.To.Before(req.From) {
		return nil, fmt.Errorf("invalid period: %s is before %s", req.To.Format(models.TimeLayout), req.From.Format(models.TimeLayout))
	}

	records, err := e.primary.Fetch(ctx, req)
	if err == nil {
		return records, nil
	}
	if e.fallback == nil || !errors.Is(err, models.ErrIndexMissing) {
		return nil, fmt.Errorf("failed to retrieve sessions: %w", err)
	}

	e.logger.Warn("ranged query unavailable, using capped scan",
		"subject", req.SubjectID, "tenant", req.TenantID, "error", err)

	records, err = e.fallback.Fetch(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve sessions: %w", err)
	}
	return records, nil
}
