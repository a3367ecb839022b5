package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mvargas/muni-machinery/internal/model"
)

type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// ReportFilter narrows report listings. Zero times mean an open bound.
type ReportFilter struct {
	From      time.Time
	To        time.Time
	MachineID *uuid.UUID
	Kind      *model.ReportKind
}

func (r *ReportRepository) CreateReport(ctx context.Context, rep model.UsageReport) (*model.UsageReport, error) {
	var saved model.UsageReport
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Raw(`
			INSERT INTO usage_reports (
				kind, work_date, machine_id, variant, towed_plate, cargo_detail,
				operator_id, rental_company, hourly_rate, activity,
				district, road_code, start_time, end_time,
				total_hours, ordinary_hours, overtime_hours,
				hourmeter_start, hourmeter_end, station_from, station_to,
				source_site, water_loads, daily_total_m3, created_by
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING
				id, kind, work_date, machine_id, variant, towed_plate, cargo_detail,
				operator_id, rental_company, hourly_rate, activity,
				district, road_code, start_time, end_time,
				total_hours, ordinary_hours, overtime_hours,
				hourmeter_start, hourmeter_end, station_from, station_to,
				source_site, water_loads, daily_total_m3, created_by, created_at
		`,
			rep.Kind,
			rep.WorkDate,
			rep.MachineID,
			rep.Variant,
			rep.TowedPlate,
			rep.CargoDetail,
			rep.OperatorID,
			rep.RentalCompany,
			rep.HourlyRate,
			rep.Activity,
			rep.District,
			rep.RoadCode,
			rep.StartTime,
			rep.EndTime,
			rep.TotalHours,
			rep.OrdinaryHours,
			rep.OvertimeHours,
			rep.HourmeterStart,
			rep.HourmeterEnd,
			rep.StationFrom,
			rep.StationTo,
			rep.SourceSite,
			rep.WaterLoads,
			rep.DailyTotalM3,
			rep.CreatedBy,
		).Scan(&saved).Error
		if err != nil {
			return err
		}

		for _, ticket := range rep.Tickets {
			if err := tx.Exec(`
				INSERT INTO ticket_entries (
					report_id, material_type, cubic_meters, source_site,
					sub_source, ticket_number, road_code, district
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`,
				saved.ID,
				ticket.MaterialType,
				ticket.CubicMeters,
				ticket.SourceSite,
				ticket.SubSource,
				ticket.TicketNumber,
				ticket.RoadCode,
				ticket.District,
			).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	saved.Tickets = rep.Tickets
	return &saved, nil
}

func (r *ReportRepository) GetReport(ctx context.Context, id uuid.UUID) (*model.UsageReport, error) {
	var rep model.UsageReport
	if err := r.db.WithContext(ctx).Raw(`
		SELECT
			ur.id, ur.kind, ur.work_date, ur.machine_id,
			m.plate AS machine_plate, m.type AS machine_type,
			ur.variant, ur.towed_plate, ur.cargo_detail, ur.operator_id,
			op.full_name AS operator_name,
			ur.rental_company, ur.hourly_rate, ur.activity,
			ur.district, ur.road_code, ur.start_time, ur.end_time,
			ur.total_hours, ur.ordinary_hours, ur.overtime_hours,
			ur.hourmeter_start, ur.hourmeter_end, ur.station_from, ur.station_to,
			ur.source_site, ur.water_loads, ur.daily_total_m3, ur.created_by, ur.created_at
		FROM usage_reports ur
		JOIN machines m ON m.id = ur.machine_id
		LEFT JOIN operators op ON op.id = ur.operator_id
		WHERE ur.id = ?
		LIMIT 1
	`, id).Scan(&rep).Error; err != nil {
		return nil, err
	}
	if rep.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}

	tickets, err := r.listTickets(ctx, rep.ID)
	if err != nil {
		return nil, err
	}
	rep.Tickets = tickets
	return &rep, nil
}

func (r *ReportRepository) ListReports(ctx context.Context, filter ReportFilter) ([]model.UsageReport, error) {
	query := `
		SELECT
			ur.id, ur.kind, ur.work_date, ur.machine_id,
			m.plate AS machine_plate, m.type AS machine_type,
			ur.variant, ur.towed_plate, ur.cargo_detail, ur.operator_id,
			op.full_name AS operator_name,
			ur.rental_company, ur.hourly_rate, ur.activity,
			ur.district, ur.road_code, ur.start_time, ur.end_time,
			ur.total_hours, ur.ordinary_hours, ur.overtime_hours,
			ur.hourmeter_start, ur.hourmeter_end, ur.station_from, ur.station_to,
			ur.source_site, ur.water_loads, ur.daily_total_m3, ur.created_by, ur.created_at
		FROM usage_reports ur
		JOIN machines m ON m.id = ur.machine_id
		LEFT JOIN operators op ON op.id = ur.operator_id
		WHERE 1=1
	`
	args := []interface{}{}
	if !filter.From.IsZero() {
		query += " AND ur.work_date >= ?"
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		query += " AND ur.work_date < ?"
		args = append(args, filter.To)
	}
	if filter.MachineID != nil {
		query += " AND ur.machine_id = ?"
		args = append(args, *filter.MachineID)
	}
	if filter.Kind != nil {
		query += " AND ur.kind = ?"
		args = append(args, *filter.Kind)
	}
	query += " ORDER BY ur.work_date ASC, ur.created_at ASC"

	var reports []model.UsageReport
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

// ListReportsWithTickets hydrates ticket rows for export flows.
func (r *ReportRepository) ListReportsWithTickets(ctx context.Context, filter ReportFilter) ([]model.UsageReport, error) {
	reports, err := r.ListReports(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i := range reports {
		tickets, err := r.listTickets(ctx, reports[i].ID)
		if err != nil {
			return nil, err
		}
		reports[i].Tickets = tickets
	}
	return reports, nil
}

// LastStation returns the latest recorded to-station for a road code before
// the given work date, or nil when no report touched the road yet.
func (r *ReportRepository) LastStation(ctx context.Context, roadCode string, before time.Time) (*model.StationRecord, error) {
	var record model.StationRecord
	if err := r.db.WithContext(ctx).Raw(`
		SELECT road_code, station_to, work_date
		FROM usage_reports
		WHERE road_code = ?
			AND station_to IS NOT NULL
			AND work_date < ?
		ORDER BY work_date DESC, created_at DESC
		LIMIT 1
	`, roadCode, before).Scan(&record).Error; err != nil {
		return nil, err
	}
	if record.RoadCode == "" {
		return nil, nil
	}
	return &record, nil
}

func (r *ReportRepository) listTickets(ctx context.Context, reportID uuid.UUID) ([]model.TicketEntry, error) {
	var tickets []model.TicketEntry
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, report_id, material_type, cubic_meters, source_site,
			sub_source, ticket_number, road_code, district
		FROM ticket_entries
		WHERE report_id = ?
		ORDER BY id
	`, reportID).Scan(&tickets).Error; err != nil {
		return nil, err
	}
	return tickets, nil
}
