package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mvargas/muni-machinery/internal/model"
	"github.com/mvargas/muni-machinery/internal/report"
	"github.com/mvargas/muni-machinery/internal/repository"
)

type ReportStore interface {
	CreateReport(ctx context.Context, rep model.UsageReport) (*model.UsageReport, error)
	GetReport(ctx context.Context, id uuid.UUID) (*model.UsageReport, error)
	ListReports(ctx context.Context, filter repository.ReportFilter) ([]model.UsageReport, error)
	ListReportsWithTickets(ctx context.Context, filter repository.ReportFilter) ([]model.UsageReport, error)
	LastStation(ctx context.Context, roadCode string, before time.Time) (*model.StationRecord, error)
}

type MachineCatalog interface {
	GetMachine(ctx context.Context, id uuid.UUID) (*model.Machine, error)
	GetMachineByPlate(ctx context.Context, plate string) (*model.Machine, error)
}

type OperatorCatalog interface {
	GetOperator(ctx context.Context, id uuid.UUID) (*model.Operator, error)
}

type AuditRecorder interface {
	Record(ctx context.Context, entry model.AuditEntry) error
}

type ExcelGenerator interface {
	Generate(export model.PeriodExport) ([]byte, error)
}

type PDFGenerator interface {
	Generate(doc model.ReportDocument) ([]byte, error)
}

type ReportService struct {
	store     ReportStore
	machines  MachineCatalog
	operators OperatorCatalog
	audit     AuditRecorder
	excel     ExcelGenerator
	pdf       PDFGenerator
}

func NewReportService(
	store ReportStore,
	machines MachineCatalog,
	operators OperatorCatalog,
	audit AuditRecorder,
	excel ExcelGenerator,
	pdf PDFGenerator,
) *ReportService {
	return &ReportService{
		store:     store,
		machines:  machines,
		operators: operators,
		audit:     audit,
		excel:     excel,
		pdf:       pdf,
	}
}

type SubmitReportInput struct {
	Kind           model.ReportKind
	WorkDate       time.Time
	MachineID      uuid.UUID
	Variant        string
	TowedPlate     string
	CargoDetail    string
	OperatorID     *uuid.UUID
	Activity       string
	District       string
	RoadCode       string
	StartTime      string
	EndTime        string
	HourmeterStart *float64
	HourmeterEnd   *float64
	StationFrom    *float64
	StationTo      *float64
	SourceSite     string
	WaterLoads     *int
	DailyTotalM3   *float64
	Tickets        []model.TicketEntry
	Principal      model.Principal
}

// ResolveFormFieldsInput backs the field-preview endpoint: clients ask which
// fields to render before the user has filled anything in.
type ResolveFormFieldsInput struct {
	MachineType model.MachineType
	Variant     model.Variant
	TowedPlate  string
}

func (s *ReportService) ResolveFormFields(ctx context.Context, input ResolveFormFieldsInput) ([]report.FieldID, error) {
	if !report.VariantAllowed(input.MachineType, input.Variant) {
		return nil, fmt.Errorf("%w: variant %s is not valid for %s", ErrInvalidInput, input.Variant, input.MachineType)
	}
	fieldCtx, err := s.deriveFieldContext(ctx, input.MachineType, input.Variant, input.TowedPlate)
	if err != nil {
		return nil, err
	}
	return report.ResolveFields(input.MachineType, input.Variant, fieldCtx), nil
}

func (s *ReportService) Submit(ctx context.Context, input SubmitReportInput) (*model.UsageReport, error) {
	if input.Principal.IsViewer() {
		return nil, ErrPermissionDenied
	}
	if input.MachineID == uuid.Nil {
		return nil, fmt.Errorf("%w: machine_id is required", ErrInvalidInput)
	}
	if input.WorkDate.IsZero() {
		return nil, fmt.Errorf("%w: work_date is required", ErrInvalidInput)
	}

	machine, err := s.machines.GetMachine(ctx, input.MachineID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !machine.Active {
		return nil, fmt.Errorf("%w: machine %s is inactive", ErrInvalidInput, machine.Plate)
	}

	if err := checkKindMatchesOwnership(input.Kind, machine.Ownership); err != nil {
		return nil, err
	}

	variant := model.Variant(strings.ToUpper(strings.TrimSpace(input.Variant)))
	if variant != "" {
		if _, ok := model.ParseVariant(string(variant)); !ok {
			return nil, fmt.Errorf("%w: unknown variant %q", ErrInvalidInput, input.Variant)
		}
	}
	if !report.VariantAllowed(machine.Type, variant) {
		return nil, fmt.Errorf("%w: variant %s is not valid for %s", ErrInvalidInput, variant, machine.Type)
	}

	fieldCtx, err := s.deriveFieldContext(ctx, machine.Type, variant, input.TowedPlate)
	if err != nil {
		return nil, err
	}
	fields := report.ResolveFields(machine.Type, variant, fieldCtx)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no report form for machine type %s", ErrInvalidInput, machine.Type)
	}

	totalHours := report.ComputeWorkedHours(input.StartTime, input.EndTime)
	split := report.SplitHours(totalHours)

	violations, err := s.validateSubmission(ctx, input, machine, fields, fieldCtx, totalHours)
	if err != nil {
		return nil, err
	}
	if len(violations) > 0 {
		return nil, validationError(violations)
	}

	rep := s.buildReport(input, machine, variant, fields, fieldCtx, totalHours, split)

	saved, err := s.store.CreateReport(ctx, rep)
	if err != nil {
		return nil, err
	}

	_ = s.audit.Record(ctx, model.AuditEntry{
		ActorID:    input.Principal.UserID,
		Action:     "report.submit",
		EntityKind: "usage_report",
		EntityID:   saved.ID,
		Detail:     fmt.Sprintf("machine %s, date %s", machine.Plate, input.WorkDate.Format("2006-01-02")),
	})

	return saved, nil
}

func (s *ReportService) Get(ctx context.Context, id uuid.UUID) (*model.UsageReport, error) {
	rep, err := s.store.GetReport(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rep, nil
}

func (s *ReportService) List(ctx context.Context, filter repository.ReportFilter) ([]model.UsageReport, error) {
	return s.store.ListReports(ctx, filter)
}

type ExportPeriodInput struct {
	From      time.Time
	To        time.Time
	MachineID *uuid.UUID
	Kind      *model.ReportKind
	Principal model.Principal
}

type ExportResult struct {
	FileName string
	Content  []byte
}

func (s *ReportService) ExportPeriod(ctx context.Context, input ExportPeriodInput) (*ExportResult, error) {
	if !(input.Principal.IsAdmin() || input.Principal.IsInspector()) {
		return nil, ErrPermissionDenied
	}
	if input.From.IsZero() || input.To.IsZero() {
		return nil, fmt.Errorf("%w: period dates are required", ErrInvalidInput)
	}
	from := dateOnly(input.From)
	to := dateOnly(input.To)
	if from.After(to) {
		return nil, fmt.Errorf("%w: period start must be before or equal to period end", ErrInvalidInput)
	}

	reports, err := s.store.ListReportsWithTickets(ctx, repository.ReportFilter{
		From:      from,
		To:        to.Add(24 * time.Hour),
		MachineID: input.MachineID,
		Kind:      input.Kind,
	})
	if err != nil {
		return nil, err
	}

	export := model.PeriodExport{
		PeriodStart: from,
		PeriodEnd:   to,
		Sections:    groupByMachine(ctx, s.machines, reports),
	}

	content, err := s.excel.Generate(export)
	if err != nil {
		return nil, err
	}

	fileName := fmt.Sprintf("machinery-usage-%s-%s.xlsx",
		from.Format("20060102"), to.Format("20060102"))
	return &ExportResult{FileName: fileName, Content: content}, nil
}

func (s *ReportService) ExportPDF(ctx context.Context, id uuid.UUID, principal model.Principal) (*ExportResult, error) {
	if principal.IsViewer() {
		return nil, ErrPermissionDenied
	}

	rep, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	machine, err := s.machines.GetMachine(ctx, rep.MachineID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	content, err := s.pdf.Generate(model.ReportDocument{Report: *rep, Machine: *machine})
	if err != nil {
		return nil, err
	}

	fileName := fmt.Sprintf("report-%s-%s.pdf",
		sanitizeFileName(machine.Plate), rep.WorkDate.Format("20060102"))
	return &ExportResult{FileName: fileName, Content: content}, nil
}

// deriveFieldContext resolves the flatbed flag from the machinery catalog:
// the towed plate's material kind decides the branch, not a user toggle.
func (s *ReportService) deriveFieldContext(ctx context.Context, typ model.MachineType, variant model.Variant, towedPlate string) (report.FieldContext, error) {
	var fieldCtx report.FieldContext
	if variant != model.VariantMaterial || strings.TrimSpace(towedPlate) == "" {
		return fieldCtx, nil
	}

	towed, err := s.machines.GetMachineByPlate(ctx, towedPlate)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return fieldCtx, fmt.Errorf("%w: towed plate %s is not in the machinery registry", ErrInvalidInput, towedPlate)
		}
		return fieldCtx, err
	}
	fieldCtx.FlatbedMaterial = towed.MaterialKind != nil && *towed.MaterialKind == model.MaterialKindFlatbed
	return fieldCtx, nil
}

func (s *ReportService) validateSubmission(
	ctx context.Context,
	input SubmitReportInput,
	machine *model.Machine,
	fields []report.FieldID,
	fieldCtx report.FieldContext,
	totalHours float64,
) ([]report.Violation, error) {
	var violations []report.Violation
	required := fieldSet(fields)

	if strings.TrimSpace(input.Activity) == "" {
		violations = append(violations, report.Violation{Field: "activity", Message: "activity is required"})
	}

	// End at or before start degrades to zero hours rather than erroring,
	// matching what the calculator shows while typing.
	if v := report.CheckHours(totalHours); v != nil {
		violations = append(violations, *v)
	}

	if required[report.FieldOperator] && input.Kind == model.ReportMunicipal {
		if input.OperatorID == nil {
			violations = append(violations, report.Violation{Field: "operator", Message: "operator is required"})
		} else {
			operator, err := s.operators.GetOperator(ctx, *input.OperatorID)
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					violations = append(violations, report.Violation{Field: "operator", Message: "operator is not registered"})
				} else {
					return nil, err
				}
			} else if !operator.Active {
				violations = append(violations, report.Violation{Field: "operator", Message: "operator is inactive"})
			}
		}
	}

	if required[report.FieldTowedPlate] && strings.TrimSpace(input.TowedPlate) == "" {
		violations = append(violations, report.Violation{Field: "towedPlate", Message: "towed plate is required"})
	}
	if required[report.FieldCargoDetail] && strings.TrimSpace(input.CargoDetail) == "" {
		violations = append(violations, report.Violation{Field: "cargoDetail", Message: "cargo detail is required"})
	}
	if required[report.FieldSourceSite] && strings.TrimSpace(input.SourceSite) == "" {
		violations = append(violations, report.Violation{Field: "sourceSite", Message: "source site is required"})
	}

	if required[report.FieldDistrict] && strings.TrimSpace(input.District) == "" {
		violations = append(violations, report.Violation{Field: "district", Message: "district is required"})
	}
	if required[report.FieldRoadCode] && !report.ValidRoadCode(input.RoadCode) {
		violations = append(violations, report.Violation{Field: "roadCode", Message: "road code must be exactly 3 digits"})
	}

	if required[report.FieldHourmeterStart] {
		if input.HourmeterStart == nil || input.HourmeterEnd == nil {
			violations = append(violations, report.Violation{Field: "hourmeterStart", Message: "hourmeter readings are required"})
		} else if *input.HourmeterEnd < *input.HourmeterStart {
			violations = append(violations, report.Violation{Field: "hourmeterEnd", Message: "hourmeter end must not be below start"})
		}
	}

	if required[report.FieldWaterLoads] {
		if input.WaterLoads == nil || *input.WaterLoads <= 0 {
			violations = append(violations, report.Violation{Field: "waterLoads", Message: "water load count must be a positive number"})
		}
	}

	if required[report.FieldStationFrom] {
		stationViolations, err := s.checkStations(ctx, input)
		if err != nil {
			return nil, err
		}
		violations = append(violations, stationViolations...)
	}

	materialFlow := required[report.FieldDailyTotalM3]
	if materialFlow && !fieldCtx.FlatbedMaterial {
		violations = append(violations, s.checkMaterialFlow(input)...)
	}

	return violations, nil
}

func (s *ReportService) checkStations(ctx context.Context, input SubmitReportInput) ([]report.Violation, error) {
	if input.StationFrom == nil || input.StationTo == nil {
		return []report.Violation{{Field: "stationFrom", Message: "station range is required"}}, nil
	}
	if *input.StationTo < *input.StationFrom {
		return []report.Violation{{Field: "stationTo", Message: "to-station must not be below from-station"}}, nil
	}
	if !report.ValidRoadCode(input.RoadCode) {
		return nil, nil // road code violation is reported separately
	}

	last, err := s.store.LastStation(ctx, input.RoadCode, input.WorkDate)
	if err != nil {
		return nil, err
	}
	if last == nil {
		return nil, nil
	}
	if !report.StationProgressOK(*input.StationFrom, last.StationTo, last.WorkDate, input.WorkDate) {
		return []report.Violation{{
			Field: "stationFrom",
			Message: fmt.Sprintf("from-station %.2f is behind the last recorded to-station %.2f on road %s",
				*input.StationFrom, last.StationTo, input.RoadCode),
		}}, nil
	}
	return nil, nil
}

func (s *ReportService) checkMaterialFlow(input SubmitReportInput) []report.Violation {
	var violations []report.Violation

	tickets := report.EnsureTicketRow(input.Tickets)
	for i, ticket := range tickets {
		violations = append(violations, report.ValidateTicket(ticket, i)...)
	}

	if input.DailyTotalM3 == nil {
		violations = append(violations, report.Violation{Field: "dailyTotalM3", Message: "daily material total is required"})
	} else if len(violations) == 0 {
		breakdown := report.AggregateMaterials(tickets)
		if v := report.CheckDailyTotal(breakdown, *input.DailyTotalM3); v != nil {
			violations = append(violations, *v)
		}
	}
	return violations
}

func (s *ReportService) buildReport(
	input SubmitReportInput,
	machine *model.Machine,
	variant model.Variant,
	fields []report.FieldID,
	fieldCtx report.FieldContext,
	totalHours float64,
	split report.HoursSplit,
) model.UsageReport {
	required := fieldSet(fields)

	rep := model.UsageReport{
		Kind:          input.Kind,
		WorkDate:      dateOnly(input.WorkDate),
		MachineID:     machine.ID,
		MachinePlate:  machine.Plate,
		MachineType:   machine.Type,
		Activity:      strings.TrimSpace(input.Activity),
		StartTime:     strings.TrimSpace(input.StartTime),
		EndTime:       strings.TrimSpace(input.EndTime),
		TotalHours:    totalHours,
		OrdinaryHours: split.Ordinary,
		OvertimeHours: split.Overtime,
		CreatedBy:     input.Principal.UserID,
	}

	if variant != "" {
		rep.Variant = &variant
	}
	if required[report.FieldTowedPlate] || fieldCtx.FlatbedMaterial {
		if towed := strings.ToUpper(strings.TrimSpace(input.TowedPlate)); towed != "" {
			rep.TowedPlate = &towed
		}
	}
	if required[report.FieldCargoDetail] {
		detail := strings.TrimSpace(input.CargoDetail)
		rep.CargoDetail = &detail
	}
	if required[report.FieldSourceSite] {
		source := strings.TrimSpace(input.SourceSite)
		rep.SourceSite = &source
	}
	if input.Kind == model.ReportMunicipal {
		rep.OperatorID = input.OperatorID
	} else {
		rep.RentalCompany = machine.RentalCompany
		rep.HourlyRate = machine.HourlyRate
	}
	if required[report.FieldDistrict] {
		district := strings.TrimSpace(input.District)
		rep.District = &district
	}
	if required[report.FieldRoadCode] {
		roadCode := strings.TrimSpace(input.RoadCode)
		rep.RoadCode = &roadCode
	}
	if required[report.FieldHourmeterStart] {
		rep.HourmeterStart = input.HourmeterStart
		rep.HourmeterEnd = input.HourmeterEnd
	}
	if required[report.FieldStationFrom] {
		rep.StationFrom = input.StationFrom
		rep.StationTo = input.StationTo
	}
	if required[report.FieldWaterLoads] {
		rep.WaterLoads = input.WaterLoads
	}
	if required[report.FieldDailyTotalM3] {
		rep.DailyTotalM3 = input.DailyTotalM3
		if !fieldCtx.FlatbedMaterial {
			rep.Tickets = report.EnsureTicketRow(input.Tickets)
		}
	}

	return rep
}

func checkKindMatchesOwnership(kind model.ReportKind, ownership model.Ownership) error {
	switch kind {
	case model.ReportMunicipal:
		if ownership != model.OwnershipMunicipal {
			return fmt.Errorf("%w: municipal report requires a municipal machine", ErrInvalidInput)
		}
	case model.ReportRental:
		if ownership != model.OwnershipRental {
			return fmt.Errorf("%w: rental report requires a rental machine", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown report kind %q", ErrInvalidInput, kind)
	}
	return nil
}

func fieldSet(fields []report.FieldID) map[report.FieldID]bool {
	set := make(map[report.FieldID]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}

func groupByMachine(ctx context.Context, catalog MachineCatalog, reports []model.UsageReport) []model.MachineSection {
	sections := make([]model.MachineSection, 0)
	index := make(map[uuid.UUID]int)

	for _, rep := range reports {
		pos, ok := index[rep.MachineID]
		if !ok {
			machine := model.Machine{ID: rep.MachineID, Plate: rep.MachinePlate, Type: rep.MachineType}
			if full, err := catalog.GetMachine(ctx, rep.MachineID); err == nil {
				machine = *full
			}
			sections = append(sections, model.MachineSection{Machine: machine})
			pos = len(sections) - 1
			index[rep.MachineID] = pos
		}
		sections[pos].Reports = append(sections[pos].Reports, rep)
	}
	return sections
}

func dateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sanitizeFileName(input string) string {
	result := make([]rune, 0, len(input))
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z':
			result = append(result, r)
		case r >= 'A' && r <= 'Z':
			result = append(result, r)
		case r >= '0' && r <= '9':
			result = append(result, r)
		case r == '-', r == '_':
			result = append(result, r)
		default:
			result = append(result, '-')
		}
	}
	return strings.Trim(string(result), "-")
}
