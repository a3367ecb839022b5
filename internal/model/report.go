package model

import (
	"time"

	"github.com/google/uuid"
)

type ReportKind string

const (
	ReportMunicipal ReportKind = "MUNICIPAL"
	ReportRental    ReportKind = "RENTAL"
)

// UsageReport is one day of work for one machine. Tickets are present only for
// the material flow of hauling machines.
type UsageReport struct {
	ID             uuid.UUID
	Kind           ReportKind
	WorkDate       time.Time
	MachineID      uuid.UUID
	MachinePlate   string
	MachineType    MachineType
	Variant        *Variant
	TowedPlate     *string
	CargoDetail    *string
	OperatorID     *uuid.UUID
	OperatorName   *string
	RentalCompany  *string
	HourlyRate     *float64
	Activity       string
	District       *string
	RoadCode       *string
	StartTime      string
	EndTime        string
	TotalHours     float64
	OrdinaryHours  float64
	OvertimeHours  float64
	HourmeterStart *float64
	HourmeterEnd   *float64
	StationFrom    *float64
	StationTo      *float64
	SourceSite     *string
	WaterLoads     *int
	DailyTotalM3   *float64
	CreatedBy      uuid.UUID
	CreatedAt      time.Time
	Tickets        []TicketEntry `gorm:"-"`
}

// TicketEntry is one haul (boleta) inside a material report.
type TicketEntry struct {
	ID           uuid.UUID
	ReportID     uuid.UUID
	MaterialType string
	CubicMeters  float64
	SourceSite   string
	SubSource    *string
	TicketNumber string
	RoadCode     string
	District     string
}

// StationRecord is the last recorded to-station for a road code, used for
// progression checks on new reports.
type StationRecord struct {
	RoadCode  string
	StationTo float64
	WorkDate  time.Time
}
