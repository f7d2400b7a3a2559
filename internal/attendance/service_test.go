package attendance

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/balkashynov/punchclock/internal/clock"
	"github.com/balkashynov/punchclock/internal/db"
	"github.com/balkashynov/punchclock/internal/models"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, 10, 14, hour, minute, 0, 0, time.UTC)
}

func newTestService(t *testing.T) (*Service, *db.MemoryStore, *clock.Fixed) {
	t.Helper()
	store := db.NewMemoryStore()
	clk := clock.NewFixed(at(9, 0))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(store, clk, logger), store, clk
}

func activeSession(t *testing.T, store *db.MemoryStore, subject, tenant string) *models.Session {
	t.Helper()
	sessions, err := store.Query(context.Background(), db.Query{
		Filter: db.Filter{SubjectID: &subject, TenantID: &tenant, ActiveOnly: true},
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(sessions) > 1 {
		t.Fatalf("%d active sessions for %s/%s", len(sessions), subject, tenant)
	}
	if len(sessions) == 0 {
		return nil
	}
	return &sessions[0]
}

// assertBreakInvariant checks that only the trailing break may be open.
func assertBreakInvariant(t *testing.T, s *models.Session) {
	t.Helper()
	if s == nil {
		return
	}
	for i, b := range s.Breaks {
		if b.Open() && i != len(s.Breaks)-1 {
			t.Fatalf("break %d of %d is open", i, len(s.Breaks))
		}
	}
}

func TestFullWorkday(t *testing.T) {
	ctx := context.Background()
	svc, store, clk := newTestService(t)

	start, err := svc.PunchIn(ctx, "U1", "alice", "T1")
	if err != nil {
		t.Fatalf("PunchIn: %v", err)
	}
	if !start.Equal(at(9, 0)) {
		t.Fatalf("PunchIn start = %v", start)
	}

	clk.Set(at(12, 0))
	if _, err := svc.StartBreak(ctx, "U1", "T1"); err != nil {
		t.Fatalf("StartBreak: %v", err)
	}
	assertBreakInvariant(t, activeSession(t, store, "U1", "T1"))

	clk.Set(at(12, 30))
	end, minutes, err := svc.EndBreak(ctx, "U1", "T1")
	if err != nil {
		t.Fatalf("EndBreak: %v", err)
	}
	if !end.Equal(at(12, 30)) || minutes != 30 {
		t.Fatalf("EndBreak = %v, %v; want 12:30, 30", end, minutes)
	}
	assertBreakInvariant(t, activeSession(t, store, "U1", "T1"))

	clk.Set(at(18, 0))
	closed, err := svc.PunchOut(ctx, "U1", "T1")
	if err != nil {
		t.Fatalf("PunchOut: %v", err)
	}
	if closed.End == nil || !closed.End.Equal(at(18, 0)) {
		t.Fatalf("PunchOut End = %v", closed.End)
	}
	if activeSession(t, store, "U1", "T1") != nil {
		t.Fatalf("session still active after punch-out")
	}

	stored, err := store.Get(ctx, closed.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(stored.Breaks) != 1 || stored.End == nil {
		t.Fatalf("stored session = %+v", stored)
	}
}

func TestPunchInTwice(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)

	if _, err := svc.PunchIn(ctx, "U1", "alice", "T1"); err != nil {
		t.Fatalf("PunchIn: %v", err)
	}
	_, err := svc.PunchIn(ctx, "U1", "alice", "T1")
	if !errors.Is(err, ErrAlreadyActive) {
		t.Fatalf("second PunchIn error = %v, want ErrAlreadyActive", err)
	}
	if !IsConflict(err) {
		t.Fatalf("IsConflict(%v) = false", err)
	}
	if n := store.Len(); n != 1 {
		t.Fatalf("store holds %d documents, want 1", n)
	}
}

func TestPunchInSameSubjectOtherTenant(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)

	if _, err := svc.PunchIn(ctx, "U1", "alice", "T1"); err != nil {
		t.Fatalf("PunchIn T1: %v", err)
	}
	if _, err := svc.PunchIn(ctx, "U1", "alice", "T2"); err != nil {
		t.Fatalf("PunchIn T2: %v", err)
	}
	if n := store.Len(); n != 2 {
		t.Fatalf("store holds %d documents, want 2", n)
	}
}

func TestRejectedTransitions(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		setup func(svc *Service)
		op    func(svc *Service) error
		want  error
	}{
		{
			name: "punch out without session",
			op: func(svc *Service) error {
				_, err := svc.PunchOut(ctx, "U1", "T1")
				return err
			},
			want: ErrNoActiveSession,
		},
		{
			name: "punch out on break",
			setup: func(svc *Service) {
				svc.PunchIn(ctx, "U1", "alice", "T1")
				svc.StartBreak(ctx, "U1", "T1")
			},
			op: func(svc *Service) error {
				_, err := svc.PunchOut(ctx, "U1", "T1")
				return err
			},
			want: ErrBreakInProgress,
		},
		{
			name: "break without session",
			op: func(svc *Service) error {
				_, err := svc.StartBreak(ctx, "U1", "T1")
				return err
			},
			want: ErrNoActiveSession,
		},
		{
			name: "break twice",
			setup: func(svc *Service) {
				svc.PunchIn(ctx, "U1", "alice", "T1")
				svc.StartBreak(ctx, "U1", "T1")
			},
			op: func(svc *Service) error {
				_, err := svc.StartBreak(ctx, "U1", "T1")
				return err
			},
			want: ErrAlreadyOnBreak,
		},
		{
			name: "end break without session",
			op: func(svc *Service) error {
				_, _, err := svc.EndBreak(ctx, "U1", "T1")
				return err
			},
			want: ErrNoActiveSession,
		},
		{
			name: "end break while working",
			setup: func(svc *Service) {
				svc.PunchIn(ctx, "U1", "alice", "T1")
			},
			op: func(svc *Service) error {
				_, _, err := svc.EndBreak(ctx, "U1", "T1")
				return err
			},
			want: ErrNoBreakInProgress,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService(t)
			if tt.setup != nil {
				tt.setup(svc)
			}
			if err := tt.op(svc); !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestEndBreakTwiceLeavesSessionUnchanged(t *testing.T) {
	ctx := context.Background()
	svc, store, clk := newTestService(t)

	svc.PunchIn(ctx, "U1", "alice", "T1")
	clk.Set(at(12, 0))
	svc.StartBreak(ctx, "U1", "T1")
	clk.Set(at(12, 15))
	if _, _, err := svc.EndBreak(ctx, "U1", "T1"); err != nil {
		t.Fatalf("EndBreak: %v", err)
	}
	before := activeSession(t, store, "U1", "T1")

	clk.Set(at(12, 20))
	if _, _, err := svc.EndBreak(ctx, "U1", "T1"); !errors.Is(err, ErrNoBreakInProgress) {
		t.Fatalf("second EndBreak error = %v, want ErrNoBreakInProgress", err)
	}

	after := activeSession(t, store, "U1", "T1")
	if after.Version != before.Version || len(after.Breaks) != 1 || !after.Breaks[0].End.Equal(at(12, 15)) {
		t.Fatalf("session changed by rejected EndBreak: before %+v after %+v", before, after)
	}
}

func TestMultipleBreaksKeepInvariant(t *testing.T) {
	ctx := context.Background()
	svc, store, clk := newTestService(t)

	svc.PunchIn(ctx, "U1", "alice", "T1")
	for i := 0; i < 3; i++ {
		clk.Advance(time.Hour)
		if _, err := svc.StartBreak(ctx, "U1", "T1"); err != nil {
			t.Fatalf("StartBreak %d: %v", i, err)
		}
		assertBreakInvariant(t, activeSession(t, store, "U1", "T1"))
		clk.Advance(10 * time.Minute)
		if _, _, err := svc.EndBreak(ctx, "U1", "T1"); err != nil {
			t.Fatalf("EndBreak %d: %v", i, err)
		}
		assertBreakInvariant(t, activeSession(t, store, "U1", "T1"))
	}

	if got := len(activeSession(t, store, "U1", "T1").Breaks); got != 3 {
		t.Fatalf("breaks = %d, want 3", got)
	}
}

func TestStoreFailurePropagates(t *testing.T) {
	svc := NewService(failingStore{}, clock.NewFixed(at(9, 0)), nil)
	_, err := svc.PunchIn(context.Background(), "U1", "alice", "T1")
	if err == nil || IsConflict(err) {
		t.Fatalf("PunchIn error = %v, want store failure", err)
	}
	if !errors.Is(err, errUnavailable) {
		t.Fatalf("PunchIn error = %v, want wrapped errUnavailable", err)
	}
}

var errUnavailable = errors.New("store unavailable")

type failingStore struct{}

func (failingStore) Create(context.Context, *models.Session) (string, error) {
	return "", errUnavailable
}

func (failingStore) Get(context.Context, string) (*models.Session, error) {
	return nil, errUnavailable
}

func (failingStore) Put(context.Context, *models.Session) error {
	return errUnavailable
}

func (failingStore) Query(context.Context, db.Query) ([]models.Session, error) {
	return nil, errUnavailable
}

func TestSubmitReport(t *testing.T) {
	ctx := context.Background()
	svc, _, clk := newTestService(t)

	svc.PunchIn(ctx, "U1", "alice", "T1")
	clk.Set(at(18, 0))
	closed, err := svc.PunchOut(ctx, "U1", "T1")
	if err != nil {
		t.Fatalf("PunchOut: %v", err)
	}

	got, err := svc.SubmitReport(ctx, "U1", closed.ID, Report{
		Description: "shipped the exporter",
		Progress:    "done",
		ChannelID:   "C42",
		Mentions:    []string{"U7"},
	})
	if err != nil {
		t.Fatalf("SubmitReport: %v", err)
	}
	if got.WorkDescription == nil || *got.WorkDescription != "shipped the exporter" ||
		got.ReportChannelID == nil || *got.ReportChannelID != "C42" ||
		len(got.MentionUserIDs) != 1 {
		t.Fatalf("report not applied: %+v", got)
	}
	if !got.End.Equal(at(18, 0)) {
		t.Fatalf("report changed end time: %v", got.End)
	}

	if _, err := svc.SubmitReport(ctx, "U2", closed.ID, Report{Description: "x"}); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("foreign SubmitReport error = %v, want ErrNotOwner", err)
	}
}

func TestSubmitReportOnOpenSession(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)

	svc.PunchIn(ctx, "U1", "alice", "T1")
	open := activeSession(t, store, "U1", "T1")
	if _, err := svc.SubmitReport(ctx, "U1", open.ID, Report{Description: "x"}); !errors.Is(err, ErrSessionNotClosed) {
		t.Fatalf("SubmitReport error = %v, want ErrSessionNotClosed", err)
	}
}

func TestStatus(t *testing.T) {
	ctx := context.Background()
	svc, _, clk := newTestService(t)

	if st, err := svc.Status(ctx, "U1", "T1"); err != nil || st != nil {
		t.Fatalf("Status before punch-in = %v, %v", st, err)
	}

	svc.PunchIn(ctx, "U1", "alice", "T1")
	svc.PunchIn(ctx, "U2", "bob", "T1")
	clk.Set(at(11, 0))
	svc.StartBreak(ctx, "U2", "T1")
	clk.Set(at(11, 20))

	st, err := svc.Status(ctx, "U1", "T1")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.State != StateWorking || st.WorkingDuration != 140 || st.BreakDuration != nil {
		t.Fatalf("U1 status = %+v", st)
	}

	all, err := svc.ActiveEmployees(ctx, "T1")
	if err != nil {
		t.Fatalf("ActiveEmployees: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("ActiveEmployees = %d, want 2", len(all))
	}
	for _, e := range all {
		if e.SubjectID == "U2" && (e.State != StateOnBreak || e.BreakDuration == nil || *e.BreakDuration != 20) {
			t.Fatalf("U2 status = %+v", e)
		}
	}
}

func TestConcurrentPunchInHasSingleWinner(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)

	const callers = 8
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		go func() {
			_, err := svc.PunchIn(ctx, "U1", "alice", "T1")
			errs <- err
		}()
	}

	var wins int
	for i := 0; i < callers; i++ {
		err := <-errs
		switch {
		case err == nil:
			wins++
		case !errors.Is(err, ErrAlreadyActive):
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("%d punch-ins succeeded, want 1", wins)
	}
	if n := store.Len(); n != 1 {
		t.Fatalf("store holds %d documents, want 1", n)
	}
}
