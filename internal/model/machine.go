package model

import (
	"time"

	"github.com/google/uuid"
)

type MachineType string

const (
	MachineNiveladora   MachineType = "NIVELADORA"
	MachineVagoneta     MachineType = "VAGONETA"
	MachineCompactadora MachineType = "COMPACTADORA"
	MachineCabezal      MachineType = "CABEZAL"
	MachineCisterna     MachineType = "CISTERNA"
	MachineExcavadora   MachineType = "EXCAVADORA"
	MachineBackhoe      MachineType = "BACKHOE"
	MachineCargador     MachineType = "CARGADOR"
)

type Variant string

const (
	VariantMaterial Variant = "MATERIAL"
	VariantCarreta  Variant = "CARRETA"
	VariantCisterna Variant = "CISTERNA"
)

type Ownership string

const (
	OwnershipMunicipal Ownership = "MUNICIPAL"
	OwnershipRental    Ownership = "RENTAL"
)

// MaterialKindFlatbed marks trailers that carry goods from a fixed checklist
// instead of per-trip tickets.
const MaterialKindFlatbed = "FLATBED"

type Machine struct {
	ID            uuid.UUID
	Plate         string
	Type          MachineType
	Ownership     Ownership
	MaterialKind  *string // trailers only
	RentalCompany *string
	HourlyRate    *float64
	Active        bool
	CreatedAt     time.Time
}

func ParseMachineType(raw string) (MachineType, bool) {
	switch MachineType(raw) {
	case MachineNiveladora, MachineVagoneta, MachineCompactadora, MachineCabezal,
		MachineCisterna, MachineExcavadora, MachineBackhoe, MachineCargador:
		return MachineType(raw), true
	default:
		return "", false
	}
}

func ParseVariant(raw string) (Variant, bool) {
	switch Variant(raw) {
	case VariantMaterial, VariantCarreta, VariantCisterna:
		return Variant(raw), true
	default:
		return "", false
	}
}
