package db

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/balkashynov/punchclock/internal/models"
)

// document is the stored row: the full session document plus the projected
// columns queries filter and order on
type document struct {
	ID        string `gorm:"primaryKey;size:36"`
	CreatedAt time.Time
	UpdatedAt time.Time

	SubjectID string     `gorm:"not null;index"`
	TenantID  string     `gorm:"not null;default:''"`
	StartedAt time.Time  `gorm:"not null"`
	EndedAt   *time.Time // NULL while the session is active
	Version   int64      `gorm:"not null;default:1"`

	Body datatypes.JSON `gorm:"not null"`
}

func (document) TableName() string { return "documents" }

// DocumentStore keeps sessions as JSON documents in sqlite through gorm
type DocumentStore struct {
	db       *gorm.DB
	logger   *slog.Logger
	hasIndex atomic.Bool
}

var _ RecordStore = (*DocumentStore)(nil)

func newDocument(id string, session models.Session, version int64) (document, error) {
	body, err := models.Encode(session)
	if err != nil {
		return document{}, err
	}
	doc := document{
		ID:        id,
		SubjectID: session.SubjectID,
		TenantID:  session.TenantID,
		StartedAt: session.Start.UTC(),
		Version:   version,
		Body:      datatypes.JSON(body),
	}
	if session.End != nil {
		end := session.End.UTC()
		doc.EndedAt = &end
	}
	return doc, nil
}

func (d document) session() (models.Session, error) {
	s, err := models.Decode(d.Body)
	if err != nil {
		return models.Session{}, err
	}
	s.ID = d.ID
	s.Version = d.Version
	return s, nil
}

// Create stores a new session under a fresh document ID
func (s *DocumentStore) Create(ctx context.Context, session *models.Session) (string, error) {
	logger := s.logger.With("query", "create")

	doc, err := newDocument(uuid.NewString(), *session, 1)
	if err != nil {
		return "", err
	}

	if err := s.db.WithContext(ctx).Create(&doc).Error; err != nil {
		logger.Warn("failed query execute", "error", err)

		if isUniqueViolation(err) {
			return "", models.NewError("session", models.ErrExists)
		}
		return "", err
	}

	session.ID = doc.ID
	session.Version = doc.Version

	logger.Debug("success query execute", "insertId", doc.ID)
	return doc.ID, nil
}

// Get loads one session by document ID
func (s *DocumentStore) Get(ctx context.Context, id string) (*models.Session, error) {
	var doc document
	if err := s.db.WithContext(ctx).First(&doc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewError("session", models.ErrNotFound)
		}
		return nil, err
	}

	session, err := doc.session()
	if err != nil {
		return nil, models.NewError("session "+id, err)
	}
	return &session, nil
}

// Put overwrites the stored document if nobody wrote it since it was read
func (s *DocumentStore) Put(ctx context.Context, session *models.Session) error {
	logger := s.logger.With("query", "put")

	if session.ID == "" {
		return errors.New("cannot update session without id")
	}

	doc, err := newDocument(session.ID, *session, session.Version+1)
	if err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Model(&document{}).
		Where("id = ? AND version = ?", session.ID, session.Version).
		Updates(map[string]any{
			"subject_id": doc.SubjectID,
			"tenant_id":  doc.TenantID,
			"started_at": doc.StartedAt,
			"ended_at":   doc.EndedAt,
			"version":    doc.Version,
			"body":       doc.Body,
		})
	if result.Error != nil {
		logger.Warn("failed query execute", "error", result.Error)

		if isUniqueViolation(result.Error) {
			return models.NewError("session", models.ErrExists)
		}
		return result.Error
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&document{}).Where("id = ?", session.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return models.NewError("session", models.ErrNotFound)
		}
		return models.NewError("session", models.ErrVersionConflict)
	}

	session.Version = doc.Version
	logger.Debug("success query execute", "updateId", session.ID, "version", session.Version)
	return nil
}

// Query runs a filtered read. Compound equality + start range/order queries
// require the composite index and fail with models.ErrIndexMissing without it.
func (s *DocumentStore) Query(ctx context.Context, q Query) ([]models.Session, error) {
	logger := s.logger.With("query", "find")

	if q.NeedsCompositeIndex() {
		if !s.compositeIndexReady() {
			return nil, models.NewError("documents", models.ErrIndexMissing)
		}
	}

	tx := s.db.WithContext(ctx).Model(&document{})
	if q.SubjectID != nil {
		tx = tx.Where("subject_id = ?", *q.SubjectID)
	}
	if q.TenantID != nil {
		tx = tx.Where("tenant_id = ?", *q.TenantID)
	}
	if q.ActiveOnly {
		tx = tx.Where("ended_at IS NULL")
	}
	if q.StartFrom != nil {
		tx = tx.Where("started_at >= ?", q.StartFrom.UTC())
	}
	if q.StartTo != nil {
		tx = tx.Where("started_at <= ?", q.StartTo.UTC())
	}
	if q.OrderByStart {
		if q.After != nil {
			after := q.After.Start.UTC()
			tx = tx.Where("(started_at > ? OR (started_at = ? AND id > ?))", after, after, q.After.ID)
		}
		tx = tx.Order("started_at ASC").Order("id ASC")
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var docs []document
	if err := tx.Find(&docs).Error; err != nil {
		logger.Warn("failed query execute", "error", err)
		return nil, err
	}

	sessions := make([]models.Session, 0, len(docs))
	for _, doc := range docs {
		session, err := doc.session()
		if err != nil {
			// Historical data cannot be fixed here; skip the record and keep going.
			logger.Warn("skipping undecodable document", "id", doc.ID, "error", err)
			continue
		}
		sessions = append(sessions, session)
	}

	logger.Debug("success query execute", "countSessions", len(sessions))
	return sessions, nil
}

func (s *DocumentStore) compositeIndexReady() bool {
	if s.hasIndex.Load() {
		return true
	}
	ok := s.db.Migrator().HasIndex(&document{}, compositeIndex)
	if ok {
		s.hasIndex.Store(true)
	}
	return ok
}

// BackfillTenant assigns tenant to documents stored without one, batchSize rows
// at a time. With dryRun it only counts them.
func (s *DocumentStore) BackfillTenant(ctx context.Context, tenant string, batchSize int, dryRun bool) (int, error) {
	logger := s.logger.With("query", "backfill_tenant")

	if tenant == "" {
		return 0, errors.New("tenant must not be empty")
	}
	if batchSize <= 0 {
		batchSize = 100
	}

	var (
		docs    []document
		updated int
	)
	result := s.db.WithContext(ctx).Where("tenant_id = ?", "").
		FindInBatches(&docs, batchSize, func(_ *gorm.DB, batch int) error {
			for _, doc := range docs {
				session, err := doc.session()
				if err != nil {
					logger.Warn("skipping undecodable document", "id", doc.ID, "error", err)
					continue
				}
				if dryRun {
					updated++
					continue
				}

				session.TenantID = tenant
				if err := s.Put(ctx, &session); err != nil {
					return err
				}
				updated++
			}
			logger.Info("processed batch", "batch", batch, "size", len(docs), "total", updated)
			return nil
		})
	if result.Error != nil {
		return updated, result.Error
	}

	return updated, nil
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}
