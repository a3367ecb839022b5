package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mvargas/muni-machinery/internal/model"
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Record(ctx context.Context, entry model.AuditEntry) error {
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO audit_log (actor_id, action, entity_kind, entity_id, detail)
		VALUES (?, ?, ?, ?, ?)
	`, entry.ActorID, entry.Action, entry.EntityKind, entry.EntityID, entry.Detail).Error
}

// AuditFilter narrows the audit listing. Zero values mean no filter.
type AuditFilter struct {
	ActorID *uuid.UUID
	Action  string
	From    time.Time
	To      time.Time
	Limit   int
}

func (r *AuditRepository) List(ctx context.Context, filter AuditFilter) ([]model.AuditEntry, error) {
	query := `
		SELECT id, actor_id, action, entity_kind, entity_id, detail, created_at
		FROM audit_log
		WHERE 1=1
	`
	args := []interface{}{}
	if filter.ActorID != nil {
		query += " AND actor_id = ?"
		args = append(args, *filter.ActorID)
	}
	if filter.Action != "" {
		query += " AND action = ?"
		args = append(args, filter.Action)
	}
	if !filter.From.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		query += " AND created_at < ?"
		args = append(args, filter.To)
	}
	query += " ORDER BY created_at DESC"

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	query += " LIMIT ?"
	args = append(args, limit)

	var entries []model.AuditEntry
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
