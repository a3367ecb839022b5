package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mvargas/muni-machinery/internal/model"
)

type RegistryRepository struct {
	db *gorm.DB
}

func NewRegistryRepository(db *gorm.DB) *RegistryRepository {
	return &RegistryRepository{db: db}
}

func (r *RegistryRepository) CreateOperator(ctx context.Context, op model.Operator) (*model.Operator, error) {
	var saved model.Operator
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO operators (document_id, full_name, license_class, active)
		VALUES (?, ?, ?, ?)
		RETURNING id, document_id, full_name, license_class, active, created_at
	`, op.DocumentID, op.FullName, op.LicenseClass, op.Active).Scan(&saved).Error
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *RegistryRepository) GetOperator(ctx context.Context, id uuid.UUID) (*model.Operator, error) {
	var op model.Operator
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, document_id, full_name, license_class, active, created_at
		FROM operators
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&op).Error; err != nil {
		return nil, err
	}
	if op.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &op, nil
}

func (r *RegistryRepository) ListOperators(ctx context.Context, activeOnly bool) ([]model.Operator, error) {
	query := `
		SELECT id, document_id, full_name, license_class, active, created_at
		FROM operators
	`
	if activeOnly {
		query += " WHERE active"
	}
	query += " ORDER BY full_name ASC"

	var operators []model.Operator
	if err := r.db.WithContext(ctx).Raw(query).Scan(&operators).Error; err != nil {
		return nil, err
	}
	return operators, nil
}

func (r *RegistryRepository) SetOperatorActive(ctx context.Context, id uuid.UUID, active bool) error {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE operators SET active = ? WHERE id = ?
	`, active, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *RegistryRepository) CreateMachine(ctx context.Context, m model.Machine) (*model.Machine, error) {
	var saved model.Machine
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO machines (plate, type, ownership, material_kind, rental_company, hourly_rate, active)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id, plate, type, ownership, material_kind, rental_company, hourly_rate, active, created_at
	`, m.Plate, m.Type, m.Ownership, m.MaterialKind, m.RentalCompany, m.HourlyRate, m.Active).Scan(&saved).Error
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *RegistryRepository) GetMachine(ctx context.Context, id uuid.UUID) (*model.Machine, error) {
	var m model.Machine
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, plate, type, ownership, material_kind, rental_company, hourly_rate, active, created_at
		FROM machines
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&m).Error; err != nil {
		return nil, err
	}
	if m.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &m, nil
}

func (r *RegistryRepository) GetMachineByPlate(ctx context.Context, plate string) (*model.Machine, error) {
	var m model.Machine
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, plate, type, ownership, material_kind, rental_company, hourly_rate, active, created_at
		FROM machines
		WHERE UPPER(plate) = ?
		LIMIT 1
	`, strings.ToUpper(strings.TrimSpace(plate))).Scan(&m).Error; err != nil {
		return nil, err
	}
	if m.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &m, nil
}

func (r *RegistryRepository) ListMachines(ctx context.Context, ownership *model.Ownership, activeOnly bool) ([]model.Machine, error) {
	query := `
		SELECT id, plate, type, ownership, material_kind, rental_company, hourly_rate, active, created_at
		FROM machines
		WHERE 1=1
	`
	args := []interface{}{}
	if ownership != nil {
		query += " AND ownership = ?"
		args = append(args, *ownership)
	}
	if activeOnly {
		query += " AND active"
	}
	query += " ORDER BY plate ASC"

	var machines []model.Machine
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&machines).Error; err != nil {
		return nil, err
	}
	return machines, nil
}

func (r *RegistryRepository) SetMachineActive(ctx context.Context, id uuid.UUID, active bool) error {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE machines SET active = ? WHERE id = ?
	`, active, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
