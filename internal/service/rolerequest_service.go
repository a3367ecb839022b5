package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mvargas/muni-machinery/internal/model"
)

type RoleRequestStore interface {
	Create(ctx context.Context, req model.RoleRequest) (*model.RoleRequest, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.RoleRequest, error)
	HasPending(ctx context.Context, userID uuid.UUID, role model.Role) (bool, error)
	UpdateDecision(ctx context.Context, id uuid.UUID, status model.RoleRequestStatus, rejectionReason *string, decidedBy uuid.UUID, decidedAt time.Time) (bool, error)
	List(ctx context.Context, status *model.RoleRequestStatus, userID *uuid.UUID) ([]model.RoleRequest, error)
}

type RoleRequestService struct {
	store RoleRequestStore
	audit AuditRecorder
}

func NewRoleRequestService(store RoleRequestStore, audit AuditRecorder) *RoleRequestService {
	return &RoleRequestService{store: store, audit: audit}
}

func (s *RoleRequestService) Submit(ctx context.Context, principal model.Principal, requestedRole string) (*model.RoleRequest, error) {
	role, ok := model.ParseRole(strings.ToUpper(strings.TrimSpace(requestedRole)))
	if !ok {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, requestedRole)
	}
	if role == principal.Role {
		return nil, fmt.Errorf("%w: role %s is already assigned", ErrInvalidInput, role)
	}

	pending, err := s.store.HasPending(ctx, principal.UserID, role)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, fmt.Errorf("%w: a pending request for %s already exists", ErrInvalidInput, role)
	}

	saved, err := s.store.Create(ctx, model.RoleRequest{
		UserID:        principal.UserID,
		RequestedRole: role,
		Status:        model.RoleRequestPending,
	})
	if err != nil {
		return nil, err
	}

	_ = s.audit.Record(ctx, model.AuditEntry{
		ActorID:    principal.UserID,
		Action:     "role_request.submit",
		EntityKind: "role_request",
		EntityID:   saved.ID,
		Detail:     string(role),
	})
	return saved, nil
}

type DecideRoleRequestInput struct {
	RequestID uuid.UUID
	Approve   bool
	Reason    string
	Principal model.Principal
}

// Decide transitions a pending request. Only PENDING requests move; deciding
// an already-decided request is reported as invalid input, not overwritten.
func (s *RoleRequestService) Decide(ctx context.Context, input DecideRoleRequestInput) (*model.RoleRequest, error) {
	if !input.Principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}

	req, err := s.store.GetByID(ctx, input.RequestID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if req.Status != model.RoleRequestPending {
		return nil, fmt.Errorf("%w: request is already %s", ErrInvalidInput, req.Status)
	}

	status := model.RoleRequestApproved
	var reason *string
	if !input.Approve {
		status = model.RoleRequestRejected
		trimmed := strings.TrimSpace(input.Reason)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: a rejection reason is required", ErrInvalidInput)
		}
		reason = &trimmed
	}

	now := time.Now().UTC()
	moved, err := s.store.UpdateDecision(ctx, input.RequestID, status, reason, input.Principal.UserID, now)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, fmt.Errorf("%w: request is no longer pending", ErrInvalidInput)
	}

	_ = s.audit.Record(ctx, model.AuditEntry{
		ActorID:    input.Principal.UserID,
		Action:     "role_request.decide",
		EntityKind: "role_request",
		EntityID:   input.RequestID,
		Detail:     string(status),
	})

	return s.store.GetByID(ctx, input.RequestID)
}

// List shows everything to admins and only the caller's own requests to
// everyone else.
func (s *RoleRequestService) List(ctx context.Context, principal model.Principal, status *model.RoleRequestStatus) ([]model.RoleRequest, error) {
	if principal.IsAdmin() {
		return s.store.List(ctx, status, nil)
	}
	userID := principal.UserID
	return s.store.List(ctx, status, &userID)
}
