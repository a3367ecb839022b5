package service

import (
	"context"

	"github.com/mvargas/muni-machinery/internal/model"
	"github.com/mvargas/muni-machinery/internal/repository"
)

type AuditStore interface {
	List(ctx context.Context, filter repository.AuditFilter) ([]model.AuditEntry, error)
}

type AuditService struct {
	store AuditStore
}

func NewAuditService(store AuditStore) *AuditService {
	return &AuditService{store: store}
}

// List is the audit-log viewer backend, admin only.
func (s *AuditService) List(ctx context.Context, principal model.Principal, filter repository.AuditFilter) ([]model.AuditEntry, error) {
	if !principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	return s.store.List(ctx, filter)
}
