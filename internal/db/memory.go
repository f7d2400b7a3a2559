package db

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/balkashynov/punchclock/internal/models"
)

// MemoryStore is an in-process RecordStore with the same write rules as
// DocumentStore. Tests use it in place of sqlite.
type MemoryStore struct {
	mu    sync.Mutex
	docs  map[string][]byte
	meta  map[string]models.Session // decoded copy, used for filtering
	order []string                  // insertion order

	// IndexMissing makes compound range/order queries fail the way a store
	// without the composite index does
	IndexMissing bool
	// Queries records every query received, in order
	Queries []Query
}

var _ RecordStore = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string][]byte),
		meta: make(map[string]models.Session),
	}
}

func (m *MemoryStore) Create(_ context.Context, session *models.Session) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if session.Active() && m.hasActiveLocked(session.SubjectID, session.TenantID, "") {
		return "", models.NewError("session", models.ErrExists)
	}

	body, err := models.Encode(*session)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	session.ID = id
	session.Version = 1

	m.docs[id] = body
	m.meta[id] = session.Clone()
	m.order = append(m.order, id)
	return id, nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.loadLocked(id)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *MemoryStore) Put(_ context.Context, session *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if session.ID == "" {
		return errors.New("cannot update session without id")
	}
	stored, ok := m.meta[session.ID]
	if !ok {
		return models.NewError("session", models.ErrNotFound)
	}
	if stored.Version != session.Version {
		return models.NewError("session", models.ErrVersionConflict)
	}
	if session.Active() && m.hasActiveLocked(session.SubjectID, session.TenantID, session.ID) {
		return models.NewError("session", models.ErrExists)
	}

	body, err := models.Encode(*session)
	if err != nil {
		return err
	}

	session.Version++
	m.docs[session.ID] = body
	m.meta[session.ID] = session.Clone()
	return nil
}

func (m *MemoryStore) Query(_ context.Context, q Query) ([]models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Queries = append(m.Queries, q)

	if m.IndexMissing && q.NeedsCompositeIndex() {
		return nil, models.NewError("documents", models.ErrIndexMissing)
	}

	var out []models.Session
	for _, id := range m.order {
		if !q.Matches(m.meta[id]) {
			continue
		}
		s, err := m.loadLocked(id)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}

	if q.OrderByStart {
		sort.SliceStable(out, func(i, j int) bool {
			if !out[i].Start.Equal(out[j].Start) {
				return out[i].Start.Before(out[j].Start)
			}
			return out[i].ID < out[j].ID
		})
		if q.After != nil {
			filtered := out[:0]
			for _, s := range out {
				if q.After.after(s) {
					filtered = append(filtered, s)
				}
			}
			out = filtered
		}
	}

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// Len returns the number of stored documents
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.order)
}

// Seed stores sessions as they are, ending or not, bypassing the active-session rule.
// Used to load historical fixtures.
func (m *MemoryStore) Seed(sessions ...models.Session) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(sessions))
	for _, s := range sessions {
		body, err := models.Encode(s)
		if err != nil {
			panic(err)
		}
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		s.Version = 1
		m.docs[s.ID] = body
		m.meta[s.ID] = s.Clone()
		m.order = append(m.order, s.ID)
		ids = append(ids, s.ID)
	}
	return ids
}

// loadLocked decodes from the stored bytes so callers never share memory with the store
func (m *MemoryStore) loadLocked(id string) (models.Session, error) {
	body, ok := m.docs[id]
	if !ok {
		return models.Session{}, models.NewError("session", models.ErrNotFound)
	}
	s, err := models.Decode(body)
	if err != nil {
		return models.Session{}, err
	}
	s.ID = id
	s.Version = m.meta[id].Version
	return s, nil
}

func (m *MemoryStore) hasActiveLocked(subject, tenant, exceptID string) bool {
	for id, s := range m.meta {
		if id != exceptID && s.Active() && s.SubjectID == subject && s.TenantID == tenant {
			return true
		}
	}
	return false
}
