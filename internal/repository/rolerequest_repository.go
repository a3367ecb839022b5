package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mvargas/muni-machinery/internal/model"
)

type RoleRequestRepository struct {
	db *gorm.DB
}

func NewRoleRequestRepository(db *gorm.DB) *RoleRequestRepository {
	return &RoleRequestRepository{db: db}
}

func (r *RoleRequestRepository) Create(ctx context.Context, req model.RoleRequest) (*model.RoleRequest, error) {
	var saved model.RoleRequest
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO role_requests (user_id, requested_role, status)
		VALUES (?, ?, ?)
		RETURNING id, user_id, requested_role, status, rejection_reason,
			decided_by_user_id, decided_at, created_at
	`, req.UserID, req.RequestedRole, req.Status).Scan(&saved).Error
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *RoleRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.RoleRequest, error) {
	var req model.RoleRequest
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, user_id, requested_role, status, rejection_reason,
			decided_by_user_id, decided_at, created_at
		FROM role_requests
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&req).Error; err != nil {
		return nil, err
	}
	if req.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &req, nil
}

// HasPending reports whether the user already has an undecided request for
// the same role.
func (r *RoleRequestRepository) HasPending(ctx context.Context, userID uuid.UUID, role model.Role) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*)
		FROM role_requests
		WHERE user_id = ? AND requested_role = ? AND status = 'PENDING'
	`, userID, role).Scan(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateDecision transitions a PENDING request. RowsAffected of zero means
// the request was already decided or does not exist.
func (r *RoleRequestRepository) UpdateDecision(
	ctx context.Context,
	id uuid.UUID,
	status model.RoleRequestStatus,
	rejectionReason *string,
	decidedBy uuid.UUID,
	decidedAt time.Time,
) (bool, error) {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE role_requests
		SET status = ?, rejection_reason = ?, decided_by_user_id = ?, decided_at = ?
		WHERE id = ? AND status = 'PENDING'
	`, status, rejectionReason, decidedBy, decidedAt, id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *RoleRequestRepository) List(ctx context.Context, status *model.RoleRequestStatus, userID *uuid.UUID) ([]model.RoleRequest, error) {
	query := `
		SELECT id, user_id, requested_role, status, rejection_reason,
			decided_by_user_id, decided_at, created_at
		FROM role_requests
		WHERE 1=1
	`
	args := []interface{}{}
	if status != nil {
		query += " AND status = ?"
		args = append(args, *status)
	}
	if userID != nil {
		query += " AND user_id = ?"
		args = append(args, *userID)
	}
	query += " ORDER BY created_at DESC"

	var requests []model.RoleRequest
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}
