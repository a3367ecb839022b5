package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mvargas/muni-machinery/internal/model"
)

type RegistryStore interface {
	CreateOperator(ctx context.Context, op model.Operator) (*model.Operator, error)
	GetOperator(ctx context.Context, id uuid.UUID) (*model.Operator, error)
	ListOperators(ctx context.Context, activeOnly bool) ([]model.Operator, error)
	SetOperatorActive(ctx context.Context, id uuid.UUID, active bool) error
	CreateMachine(ctx context.Context, m model.Machine) (*model.Machine, error)
	GetMachine(ctx context.Context, id uuid.UUID) (*model.Machine, error)
	GetMachineByPlate(ctx context.Context, plate string) (*model.Machine, error)
	ListMachines(ctx context.Context, ownership *model.Ownership, activeOnly bool) ([]model.Machine, error)
	SetMachineActive(ctx context.Context, id uuid.UUID, active bool) error
}

type RegistryService struct {
	store RegistryStore
	audit AuditRecorder
}

func NewRegistryService(store RegistryStore, audit AuditRecorder) *RegistryService {
	return &RegistryService{store: store, audit: audit}
}

type CreateOperatorInput struct {
	DocumentID   string
	FullName     string
	LicenseClass string
	Principal    model.Principal
}

func (s *RegistryService) CreateOperator(ctx context.Context, input CreateOperatorInput) (*model.Operator, error) {
	if !input.Principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	if strings.TrimSpace(input.DocumentID) == "" {
		return nil, fmt.Errorf("%w: document id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(input.FullName) == "" {
		return nil, fmt.Errorf("%w: full name is required", ErrInvalidInput)
	}

	saved, err := s.store.CreateOperator(ctx, model.Operator{
		DocumentID:   strings.TrimSpace(input.DocumentID),
		FullName:     strings.TrimSpace(input.FullName),
		LicenseClass: strings.ToUpper(strings.TrimSpace(input.LicenseClass)),
		Active:       true,
	})
	if err != nil {
		return nil, err
	}

	_ = s.audit.Record(ctx, model.AuditEntry{
		ActorID:    input.Principal.UserID,
		Action:     "operator.create",
		EntityKind: "operator",
		EntityID:   saved.ID,
		Detail:     saved.FullName,
	})
	return saved, nil
}

func (s *RegistryService) ListOperators(ctx context.Context, activeOnly bool) ([]model.Operator, error) {
	return s.store.ListOperators(ctx, activeOnly)
}

func (s *RegistryService) SetOperatorActive(ctx context.Context, principal model.Principal, id uuid.UUID, active bool) error {
	if !principal.IsAdmin() {
		return ErrPermissionDenied
	}
	if err := s.store.SetOperatorActive(ctx, id, active); err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrNotFound
		}
		return err
	}

	_ = s.audit.Record(ctx, model.AuditEntry{
		ActorID:    principal.UserID,
		Action:     "operator.set_active",
		EntityKind: "operator",
		EntityID:   id,
		Detail:     fmt.Sprintf("active=%t", active),
	})
	return nil
}

type CreateMachineInput struct {
	Plate         string
	Type          string
	Ownership     string
	MaterialKind  *string
	RentalCompany *string
	HourlyRate    *float64
	Principal     model.Principal
}

func (s *RegistryService) CreateMachine(ctx context.Context, input CreateMachineInput) (*model.Machine, error) {
	if !input.Principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}

	plate := strings.ToUpper(strings.TrimSpace(input.Plate))
	if plate == "" {
		return nil, fmt.Errorf("%w: plate is required", ErrInvalidInput)
	}
	typ, ok := model.ParseMachineType(strings.ToUpper(strings.TrimSpace(input.Type)))
	if !ok {
		return nil, fmt.Errorf("%w: unknown machine type %q", ErrInvalidInput, input.Type)
	}

	ownership := model.Ownership(strings.ToUpper(strings.TrimSpace(input.Ownership)))
	switch ownership {
	case model.OwnershipMunicipal, model.OwnershipRental:
	default:
		return nil, fmt.Errorf("%w: ownership must be MUNICIPAL or RENTAL", ErrInvalidInput)
	}
	if ownership == model.OwnershipRental {
		if input.RentalCompany == nil || strings.TrimSpace(*input.RentalCompany) == "" {
			return nil, fmt.Errorf("%w: rental machines need a rental company", ErrInvalidInput)
		}
		if input.HourlyRate == nil || *input.HourlyRate <= 0 {
			return nil, fmt.Errorf("%w: rental machines need a positive hourly rate", ErrInvalidInput)
		}
	}

	saved, err := s.store.CreateMachine(ctx, model.Machine{
		Plate:         plate,
		Type:          typ,
		Ownership:     ownership,
		MaterialKind:  input.MaterialKind,
		RentalCompany: input.RentalCompany,
		HourlyRate:    input.HourlyRate,
		Active:        true,
	})
	if err != nil {
		return nil, err
	}

	_ = s.audit.Record(ctx, model.AuditEntry{
		ActorID:    input.Principal.UserID,
		Action:     "machine.create",
		EntityKind: "machine",
		EntityID:   saved.ID,
		Detail:     fmt.Sprintf("%s %s", saved.Type, saved.Plate),
	})
	return saved, nil
}

func (s *RegistryService) ListMachines(ctx context.Context, ownership *model.Ownership, activeOnly bool) ([]model.Machine, error) {
	return s.store.ListMachines(ctx, ownership, activeOnly)
}

func (s *RegistryService) SetMachineActive(ctx context.Context, principal model.Principal, id uuid.UUID, active bool) error {
	if !principal.IsAdmin() {
		return ErrPermissionDenied
	}
	if err := s.store.SetMachineActive(ctx, id, active); err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrNotFound
		}
		return err
	}

	_ = s.audit.Record(ctx, model.AuditEntry{
		ActorID:    principal.UserID,
		Action:     "machine.set_active",
		EntityKind: "machine",
		EntityID:   id,
		Detail:     fmt.Sprintf("active=%t", active),
	})
	return nil
}
