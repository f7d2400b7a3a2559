package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/balkashynov/punchclock/internal/models"
)

func at(day, hour, minute int) time.Time {
	return time.Date(2026, 10, day, hour, minute, 0, 0, time.UTC)
}

func closedSession(subject, tenant string, start time.Time) models.Session {
	end := start.Add(8 * time.Hour)
	return models.Session{SubjectID: subject, TenantID: tenant, Start: start, End: &end}
}

func openDocumentStore(t *testing.T, createIndexes bool) *DocumentStore {
	t.Helper()
	store, err := Open(Options{
		Path:          filepath.Join(t.TempDir(), "punchclock.db"),
		CreateIndexes: createIndexes,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// recordStoreContract runs the behaviour both stores must share.
func recordStoreContract(t *testing.T, newStore func(t *testing.T) RecordStore) {
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		store := newStore(t)
		s := models.Session{SubjectID: "U1", SubjectName: "alice", TenantID: "T1", Start: at(14, 9, 0)}
		id, err := store.Create(ctx, &s)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if id == "" || s.ID != id || s.Version != 1 {
			t.Fatalf("Create set ID=%q Version=%d, returned %q", s.ID, s.Version, id)
		}
		got, err := store.Get(ctx, id)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.SubjectName != "alice" || !got.Start.Equal(s.Start) || !got.Active() {
			t.Fatalf("Get returned %+v", got)
		}
	})

	t.Run("get missing", func(t *testing.T) {
		store := newStore(t)
		if _, err := store.Get(ctx, "nope"); !errors.Is(err, models.ErrNotFound) {
			t.Fatalf("Get error = %v, want ErrNotFound", err)
		}
	})

	t.Run("one active session per subject and tenant", func(t *testing.T) {
		store := newStore(t)
		first := models.Session{SubjectID: "U1", TenantID: "T1", Start: at(14, 9, 0)}
		if _, err := store.Create(ctx, &first); err != nil {
			t.Fatalf("Create: %v", err)
		}
		second := models.Session{SubjectID: "U1", TenantID: "T1", Start: at(14, 9, 1)}
		if _, err := store.Create(ctx, &second); !errors.Is(err, models.ErrExists) {
			t.Fatalf("second Create error = %v, want ErrExists", err)
		}
		other := models.Session{SubjectID: "U1", TenantID: "T2", Start: at(14, 9, 1)}
		if _, err := store.Create(ctx, &other); err != nil {
			t.Fatalf("Create in another tenant: %v", err)
		}
	})

	t.Run("put is compare and swap", func(t *testing.T) {
		store := newStore(t)
		s := models.Session{SubjectID: "U1", TenantID: "T1", Start: at(14, 9, 0)}
		if _, err := store.Create(ctx, &s); err != nil {
			t.Fatalf("Create: %v", err)
		}
		stale := s.Clone()

		s.Breaks = append(s.Breaks, models.BreakInterval{Start: at(14, 12, 0)})
		if err := store.Put(ctx, &s); err != nil {
			t.Fatalf("Put: %v", err)
		}
		if s.Version != 2 {
			t.Fatalf("Version after Put = %d, want 2", s.Version)
		}

		end := at(14, 18, 0)
		stale.End = &end
		if err := store.Put(ctx, &stale); !errors.Is(err, models.ErrVersionConflict) {
			t.Fatalf("stale Put error = %v, want ErrVersionConflict", err)
		}

		got, err := store.Get(ctx, s.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if !got.Active() || len(got.Breaks) != 1 {
			t.Fatalf("stale write leaked into stored session: %+v", got)
		}
	})

	t.Run("put missing", func(t *testing.T) {
		store := newStore(t)
		s := models.Session{ID: "ghost", Version: 1, SubjectID: "U1", Start: at(14, 9, 0)}
		if err := store.Put(ctx, &s); !errors.Is(err, models.ErrNotFound) {
			t.Fatalf("Put error = %v, want ErrNotFound", err)
		}
	})

	t.Run("ordered range query with cursor", func(t *testing.T) {
		store := newStore(t)
		for _, day := range []int{5, 1, 3, 2, 4} {
			s := closedSession("U1", "T1", at(day, 9, 0))
			if _, err := store.Create(ctx, &s); err != nil {
				t.Fatalf("Create: %v", err)
			}
		}
		other := closedSession("U2", "T1", at(2, 9, 0))
		if _, err := store.Create(ctx, &other); err != nil {
			t.Fatalf("Create: %v", err)
		}

		q := Query{
			Filter:       Filter{SubjectID: String("U1"), StartFrom: Time(at(2, 0, 0)), StartTo: Time(at(4, 23, 59))},
			OrderByStart: true,
			Limit:        2,
		}
		page1, err := store.Query(ctx, q)
		if err != nil {
			t.Fatalf("Query: %v", err)
		}
		if len(page1) != 2 || page1[0].Start.Day() != 2 || page1[1].Start.Day() != 3 {
			t.Fatalf("page1 = %v", days(page1))
		}

		q.After = CursorAfter(page1[len(page1)-1])
		page2, err := store.Query(ctx, q)
		if err != nil {
			t.Fatalf("Query: %v", err)
		}
		if len(page2) != 1 || page2[0].Start.Day() != 4 {
			t.Fatalf("page2 = %v", days(page2))
		}
	})

	t.Run("active only across tenants", func(t *testing.T) {
		store := newStore(t)
		closed := closedSession("U1", "T1", at(1, 9, 0))
		open1 := models.Session{SubjectID: "U1", TenantID: "T1", Start: at(2, 9, 0)}
		open2 := models.Session{SubjectID: "U2", TenantID: "T2", Start: at(2, 9, 0)}
		for _, s := range []*models.Session{&closed, &open1, &open2} {
			if _, err := store.Create(ctx, s); err != nil {
				t.Fatalf("Create: %v", err)
			}
		}

		all, err := store.Query(ctx, Query{Filter: Filter{ActiveOnly: true}})
		if err != nil {
			t.Fatalf("Query: %v", err)
		}
		if len(all) != 2 {
			t.Fatalf("active sessions = %d, want 2", len(all))
		}

		scoped, err := store.Query(ctx, Query{Filter: Filter{ActiveOnly: true, TenantID: String("T2")}})
		if err != nil {
			t.Fatalf("Query: %v", err)
		}
		if len(scoped) != 1 || scoped[0].SubjectID != "U2" {
			t.Fatalf("scoped active sessions = %+v", scoped)
		}
	})
}

func days(sessions []models.Session) []int {
	out := make([]int, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Start.Day())
	}
	return out
}

func TestDocumentStore(t *testing.T) {
	recordStoreContract(t, func(t *testing.T) RecordStore { return openDocumentStore(t, true) })
}

func TestMemoryStore(t *testing.T) {
	recordStoreContract(t, func(t *testing.T) RecordStore { return NewMemoryStore() })
}

func TestDocumentStoreWithoutCompositeIndex(t *testing.T) {
	ctx := context.Background()
	store := openDocumentStore(t, false)

	s := closedSession("U1", "T1", at(3, 9, 0))
	if _, err := store.Create(ctx, &s); err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err := store.Query(ctx, Query{
		Filter:       Filter{SubjectID: String("U1"), StartFrom: Time(at(1, 0, 0))},
		OrderByStart: true,
	})
	if !errors.Is(err, models.ErrIndexMissing) {
		t.Fatalf("ranged Query error = %v, want ErrIndexMissing", err)
	}

	// Equality-only reads still work.
	got, err := store.Query(ctx, Query{Filter: Filter{SubjectID: String("U1")}, Limit: 10})
	if err != nil {
		t.Fatalf("subject-only Query: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("subject-only Query returned %d sessions, want 1", len(got))
	}
}

func TestMemoryStoreIndexMissing(t *testing.T) {
	store := NewMemoryStore()
	store.IndexMissing = true
	_, err := store.Query(context.Background(), Query{Filter: Filter{SubjectID: String("U1")}, OrderByStart: true})
	if !errors.Is(err, models.ErrIndexMissing) {
		t.Fatalf("Query error = %v, want ErrIndexMissing", err)
	}
}

func TestDocumentStoreSkipsUndecodableDocuments(t *testing.T) {
	ctx := context.Background()
	store := openDocumentStore(t, true)

	good := closedSession("U1", "T1", at(3, 9, 0))
	if _, err := store.Create(ctx, &good); err != nil {
		t.Fatalf("Create: %v", err)
	}
	bad := document{ID: "broken", SubjectID: "U1", TenantID: "T1", StartedAt: at(4, 9, 0), Version: 1, Body: []byte(`{"start_time":"not a time"}`)}
	if err := store.db.Create(&bad).Error; err != nil {
		t.Fatalf("insert broken row: %v", err)
	}

	got, err := store.Query(ctx, Query{Filter: Filter{SubjectID: String("U1")}})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 1 || got[0].ID != good.ID {
		t.Fatalf("Query returned %+v, want only the decodable session", got)
	}

	if _, err := store.Get(ctx, "broken"); !errors.Is(err, models.ErrMalformed) {
		t.Fatalf("Get broken error = %v, want ErrMalformed", err)
	}
}

func TestBackfillTenant(t *testing.T) {
	ctx := context.Background()
	store := openDocumentStore(t, true)

	for day := 1; day <= 5; day++ {
		s := closedSession("U1", "", at(day, 9, 0))
		if _, err := store.Create(ctx, &s); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	tagged := closedSession("U1", "T9", at(6, 9, 0))
	if _, err := store.Create(ctx, &tagged); err != nil {
		t.Fatalf("Create: %v", err)
	}

	n, err := store.BackfillTenant(ctx, "T1", 2, true)
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if n != 5 {
		t.Fatalf("dry run counted %d, want 5", n)
	}
	if untouched, _ := store.Query(ctx, Query{Filter: Filter{TenantID: String("")}}); len(untouched) != 5 {
		t.Fatalf("dry run modified documents")
	}

	n, err = store.BackfillTenant(ctx, "T1", 2, false)
	if err != nil {
		t.Fatalf("BackfillTenant: %v", err)
	}
	if n != 5 {
		t.Fatalf("updated %d, want 5", n)
	}

	t1, err := store.Query(ctx, Query{Filter: Filter{TenantID: String("T1")}})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(t1) != 5 {
		t.Fatalf("T1 documents = %d, want 5", len(t1))
	}
	for _, s := range t1 {
		if s.TenantID != "T1" || s.Version != 2 {
			t.Fatalf("backfilled session = %+v", s)
		}
	}
}
