package warning

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/balkashynov/punchclock/internal/models"
)

// DefaultCheckInterval is how often Run scans when no interval is configured
const DefaultCheckInterval = 30 * time.Minute

// Notifier delivers the warnings of one tenant
type Notifier interface {
	Notify(ctx context.Context, tenant string, warnings []models.Warning) error
}

// LogNotifier writes each warning to the structured log
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(ctx context.Context, tenant string, warnings []models.Warning) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	for _, w := range warnings {
		logger.WarnContext(ctx, Message(w),
			"tenant", tenant,
			"user", w.SubjectID,
			"kind", w.Kind,
			"minutes", w.DurationMinutes,
			"session", w.SessionID)
	}
	return nil
}

// Runner scans on a schedule and hands warnings to a Notifier
type Runner struct {
	scanner  *Scanner
	notifier Notifier
	interval time.Duration
	logger   *slog.Logger
}

func NewRunner(scanner *Scanner, notifier Notifier, interval time.Duration, logger *slog.Logger) *Runner {
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		scanner:  scanner,
		notifier: notifier,
		interval: interval,
		logger:   logger.With("service", "warning"),
	}
}

// RunOnce performs a single scan over every tenant and returns the number of
// warnings delivered. Nothing is delivered while alerts are disabled.
func (r *Runner) RunOnce(ctx context.Context) (int, error) {
	if !r.scanner.Config().Enabled {
		r.logger.Debug("alerts disabled, skipping scan")
		return 0, nil
	}

	warnings, err := r.scanner.Warnings(ctx, "")
	if err != nil {
		r.logger.Error("failed to scan active sessions", "error", err)
		return 0, err
	}

	byTenant := make(map[string][]models.Warning)
	for _, w := range warnings {
		byTenant[w.TenantID] = append(byTenant[w.TenantID], w)
	}
	tenants := make([]string, 0, len(byTenant))
	for t := range byTenant {
		tenants = append(tenants, t)
	}
	sort.Strings(tenants)

	var (
		delivered int
		errs      []error
	)
	for _, tenant := range tenants {
		if err := r.notifier.Notify(ctx, tenant, byTenant[tenant]); err != nil {
			r.logger.Error("failed to deliver warnings", "tenant", tenant, "error", err)
			errs = append(errs, err)
			continue
		}
		delivered += len(byTenant[tenant])
	}

	r.logger.Info("warning scan done", "warnings", len(warnings), "delivered", delivered)
	return delivered, errors.Join(errs...)
}

// Run scans immediately and then every interval until ctx is cancelled
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		// a failed scan is logged and retried on the next tick
		_, _ = r.RunOnce(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
