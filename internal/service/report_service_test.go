package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/mvargas/muni-machinery/internal/model"
	"github.com/mvargas/muni-machinery/internal/repository"
)

type mockReportStore struct {
	mock.Mock
}

func (m *mockReportStore) CreateReport(ctx context.Context, rep model.UsageReport) (*model.UsageReport, error) {
	args := m.Called(ctx, rep)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UsageReport), args.Error(1)
}

func (m *mockReportStore) GetReport(ctx context.Context, id uuid.UUID) (*model.UsageReport, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UsageReport), args.Error(1)
}

func (m *mockReportStore) ListReports(ctx context.Context, filter repository.ReportFilter) ([]model.UsageReport, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.UsageReport), args.Error(1)
}

func (m *mockReportStore) ListReportsWithTickets(ctx context.Context, filter repository.ReportFilter) ([]model.UsageReport, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.UsageReport), args.Error(1)
}

func (m *mockReportStore) LastStation(ctx context.Context, roadCode string, before time.Time) (*model.StationRecord, error) {
	args := m.Called(ctx, roadCode, before)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StationRecord), args.Error(1)
}

type mockMachineCatalog struct {
	mock.Mock
}

func (m *mockMachineCatalog) GetMachine(ctx context.Context, id uuid.UUID) (*model.Machine, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Machine), args.Error(1)
}

func (m *mockMachineCatalog) GetMachineByPlate(ctx context.Context, plate string) (*model.Machine, error) {
	args := m.Called(ctx, plate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Machine), args.Error(1)
}

type mockOperatorCatalog struct {
	mock.Mock
}

func (m *mockOperatorCatalog) GetOperator(ctx context.Context, id uuid.UUID) (*model.Operator, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Operator), args.Error(1)
}

type mockAuditRecorder struct {
	mock.Mock
}

func (m *mockAuditRecorder) Record(ctx context.Context, entry model.AuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

type reportServiceMocks struct {
	store     *mockReportStore
	machines  *mockMachineCatalog
	operators *mockOperatorCatalog
	audit     *mockAuditRecorder
}

func newReportService() (*ReportService, reportServiceMocks) {
	mocks := reportServiceMocks{
		store:     new(mockReportStore),
		machines:  new(mockMachineCatalog),
		operators: new(mockOperatorCatalog),
		audit:     new(mockAuditRecorder),
	}
	svc := NewReportService(mocks.store, mocks.machines, mocks.operators, mocks.audit, nil, nil)
	return svc, mocks
}

func inspector() model.Principal {
	return model.Principal{UserID: uuid.New(), FullName: "Test Inspector", Role: model.RoleInspector}
}

func municipalGrader() *model.Machine {
	return &model.Machine{
		ID:        uuid.New(),
		Plate:     "SM-5501",
		Type:      model.MachineNiveladora,
		Ownership: model.OwnershipMunicipal,
		Active:    true,
	}
}

func graderInput(machine *model.Machine, operatorID uuid.UUID) SubmitReportInput {
	from := 100.0
	to := 180.0
	hmStart := 4520.5
	hmEnd := 4530.0
	return SubmitReportInput{
		Kind:           model.ReportMunicipal,
		WorkDate:       time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		MachineID:      machine.ID,
		OperatorID:     &operatorID,
		Activity:       "Road surface grading",
		District:       "Central",
		RoadCode:       "204",
		StartTime:      "07:00",
		EndTime:        "16:30",
		HourmeterStart: &hmStart,
		HourmeterEnd:   &hmEnd,
		StationFrom:    &from,
		StationTo:      &to,
		Principal:      inspector(),
	}
}

func TestSubmitMunicipalGraderReport(t *testing.T) {
	svc, mocks := newReportService()

	machine := municipalGrader()
	operatorID := uuid.New()
	input := graderInput(machine, operatorID)

	mocks.machines.On("GetMachine", mock.Anything, machine.ID).Return(machine, nil)
	mocks.operators.On("GetOperator", mock.Anything, operatorID).Return(&model.Operator{
		ID: operatorID, FullName: "J. Solano", Active: true,
	}, nil)
	mocks.store.On("LastStation", mock.Anything, "204", input.WorkDate).Return(nil, nil)
	mocks.store.On("CreateReport", mock.Anything, mock.Anything).Return(&model.UsageReport{ID: uuid.New()}, nil)
	mocks.audit.On("Record", mock.Anything, mock.Anything).Return(nil)

	saved, err := svc.Submit(context.Background(), input)
	assert.NoError(t, err)
	assert.NotNil(t, saved)

	// The persisted report carries the server-side hours computation.
	created := mocks.store.Calls[1].Arguments.Get(1).(model.UsageReport)
	assert.Equal(t, 9.5, created.TotalHours)
	assert.Equal(t, 8.0, created.OrdinaryHours)
	assert.Equal(t, 1.5, created.OvertimeHours)
	assert.Equal(t, "204", *created.RoadCode)

	mocks.audit.AssertCalled(t, "Record", mock.Anything, mock.Anything)
}

func TestSubmitDeniedForViewer(t *testing.T) {
	svc, _ := newReportService()

	input := SubmitReportInput{
		Principal: model.Principal{UserID: uuid.New(), Role: model.RoleViewer},
		MachineID: uuid.New(),
		WorkDate:  time.Now(),
	}
	_, err := svc.Submit(context.Background(), input)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestSubmitKindMustMatchOwnership(t *testing.T) {
	svc, mocks := newReportService()

	machine := municipalGrader()
	mocks.machines.On("GetMachine", mock.Anything, machine.ID).Return(machine, nil)

	input := graderInput(machine, uuid.New())
	input.Kind = model.ReportRental

	_, err := svc.Submit(context.Background(), input)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSubmitRejectsStaleVariant(t *testing.T) {
	svc, mocks := newReportService()

	machine := municipalGrader()
	mocks.machines.On("GetMachine", mock.Anything, machine.ID).Return(machine, nil)

	// MATERIAL belongs to haulers; a grader form carrying it is stale input.
	input := graderInput(machine, uuid.New())
	input.Variant = "MATERIAL"

	_, err := svc.Submit(context.Background(), input)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSubmitStationRegressionBlocked(t *testing.T) {
	svc, mocks := newReportService()

	machine := municipalGrader()
	operatorID := uuid.New()
	input := graderInput(machine, operatorID)

	mocks.machines.On("GetMachine", mock.Anything, machine.ID).Return(machine, nil)
	mocks.operators.On("GetOperator", mock.Anything, operatorID).Return(&model.Operator{
		ID: operatorID, Active: true,
	}, nil)
	mocks.store.On("LastStation", mock.Anything, "204", input.WorkDate).Return(&model.StationRecord{
		RoadCode:  "204",
		StationTo: 150,
		WorkDate:  input.WorkDate.AddDate(0, 0, -3),
	}, nil)

	_, err := svc.Submit(context.Background(), input)

	var validation *ValidationError
	if assert.ErrorAs(t, err, &validation) {
		assert.Equal(t, "stationFrom", validation.Violations[0].Field)
	}
}

func TestSubmitStationRegressionAllowedWhenStale(t *testing.T) {
	svc, mocks := newReportService()

	machine := municipalGrader()
	operatorID := uuid.New()
	input := graderInput(machine, operatorID)

	mocks.machines.On("GetMachine", mock.Anything, machine.ID).Return(machine, nil)
	mocks.operators.On("GetOperator", mock.Anything, operatorID).Return(&model.Operator{
		ID: operatorID, Active: true,
	}, nil)
	mocks.store.On("LastStation", mock.Anything, "204", input.WorkDate).Return(&model.StationRecord{
		RoadCode:  "204",
		StationTo: 150,
		WorkDate:  input.WorkDate.AddDate(0, 0, -45),
	}, nil)
	mocks.store.On("CreateReport", mock.Anything, mock.Anything).Return(&model.UsageReport{ID: uuid.New()}, nil)
	mocks.audit.On("Record", mock.Anything, mock.Anything).Return(nil)

	_, err := svc.Submit(context.Background(), input)
	assert.NoError(t, err)
}

func haulTruck() *model.Machine {
	return &model.Machine{
		ID:        uuid.New(),
		Plate:     "SM-7702",
		Type:      model.MachineVagoneta,
		Ownership: model.OwnershipMunicipal,
		Active:    true,
	}
}

func materialInput(machine *model.Machine, operatorID uuid.UUID) SubmitReportInput {
	dailyTotal := 10.0
	sub := "north bank"
	return SubmitReportInput{
		Kind:         model.ReportMunicipal,
		WorkDate:     time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		MachineID:    machine.ID,
		Variant:      "MATERIAL",
		OperatorID:   &operatorID,
		Activity:     "Material hauling",
		StartTime:    "06:00",
		EndTime:      "14:00",
		DailyTotalM3: &dailyTotal,
		Tickets: []model.TicketEntry{
			{
				MaterialType: "Gravel", CubicMeters: 6, SourceSite: "RIVER", SubSource: &sub,
				TicketNumber: "100234", RoadCode: "204", District: "Central",
			},
			{
				MaterialType: "Sand", CubicMeters: 4, SourceSite: "STOCKPILE",
				TicketNumber: "100235", RoadCode: "204", District: "Central",
			},
		},
		Principal: inspector(),
	}
}

func TestSubmitMaterialReportWithTickets(t *testing.T) {
	svc, mocks := newReportService()

	machine := haulTruck()
	operatorID := uuid.New()
	input := materialInput(machine, operatorID)

	mocks.machines.On("GetMachine", mock.Anything, machine.ID).Return(machine, nil)
	mocks.operators.On("GetOperator", mock.Anything, operatorID).Return(&model.Operator{
		ID: operatorID, Active: true,
	}, nil)
	mocks.store.On("CreateReport", mock.Anything, mock.Anything).Return(&model.UsageReport{ID: uuid.New()}, nil)
	mocks.audit.On("Record", mock.Anything, mock.Anything).Return(nil)

	saved, err := svc.Submit(context.Background(), input)
	assert.NoError(t, err)
	assert.NotNil(t, saved)

	created := mocks.store.Calls[0].Arguments.Get(1).(model.UsageReport)
	assert.Len(t, created.Tickets, 2)
	assert.Equal(t, 8.0, created.TotalHours)
}

func TestSubmitMaterialReportDailyTotalMismatch(t *testing.T) {
	svc, mocks := newReportService()

	machine := haulTruck()
	operatorID := uuid.New()
	input := materialInput(machine, operatorID)
	wrong := 12.0
	input.DailyTotalM3 = &wrong

	mocks.machines.On("GetMachine", mock.Anything, machine.ID).Return(machine, nil)
	mocks.operators.On("GetOperator", mock.Anything, operatorID).Return(&model.Operator{
		ID: operatorID, Active: true,
	}, nil)

	_, err := svc.Submit(context.Background(), input)

	var validation *ValidationError
	if assert.ErrorAs(t, err, &validation) {
		assert.Equal(t, "dailyTotalM3", validation.Violations[0].Field)
	}
}

func TestSubmitMaterialReportBadTicketNumber(t *testing.T) {
	svc, mocks := newReportService()

	machine := haulTruck()
	operatorID := uuid.New()
	input := materialInput(machine, operatorID)
	input.Tickets[0].TicketNumber = "99"

	mocks.machines.On("GetMachine", mock.Anything, machine.ID).Return(machine, nil)
	mocks.operators.On("GetOperator", mock.Anything, operatorID).Return(&model.Operator{
		ID: operatorID, Active: true,
	}, nil)

	_, err := svc.Submit(context.Background(), input)

	var validation *ValidationError
	if assert.ErrorAs(t, err, &validation) {
		assert.Equal(t, "tickets[0].ticketNumber", validation.Violations[0].Field)
	}
}

func TestSubmitFlatbedMaterialRequiresRoadAttribution(t *testing.T) {
	svc, mocks := newReportService()

	machine := haulTruck()
	operatorID := uuid.New()
	input := materialInput(machine, operatorID)
	input.TowedPlate = "RM-0042"
	input.Tickets = nil
	input.DailyTotalM3 = nil

	flatbed := model.MaterialKindFlatbed
	mocks.machines.On("GetMachine", mock.Anything, machine.ID).Return(machine, nil)
	mocks.machines.On("GetMachineByPlate", mock.Anything, "RM-0042").Return(&model.Machine{
		ID: uuid.New(), Plate: "RM-0042", MaterialKind: &flatbed,
	}, nil)
	mocks.operators.On("GetOperator", mock.Anything, operatorID).Return(&model.Operator{
		ID: operatorID, Active: true,
	}, nil)

	// District and road code moved back onto the report and are missing.
	_, err := svc.Submit(context.Background(), input)

	var validation *ValidationError
	if assert.ErrorAs(t, err, &validation) {
		fields := violationFields(validation)
		assert.Contains(t, fields, "district")
		assert.Contains(t, fields, "roadCode")
	}
}

func violationFields(validation *ValidationError) []string {
	fields := make([]string, 0, len(validation.Violations))
	for _, v := range validation.Violations {
		fields = append(fields, v.Field)
	}
	return fields
}

func TestSubmitCarretaWithoutTowedPlate(t *testing.T) {
	svc, mocks := newReportService()

	machine := municipalGrader()
	operatorID := uuid.New()
	input := graderInput(machine, operatorID)
	input.Variant = "CARRETA"

	mocks.machines.On("GetMachine", mock.Anything, machine.ID).Return(machine, nil)
	mocks.operators.On("GetOperator", mock.Anything, operatorID).Return(&model.Operator{
		ID: operatorID, Active: true,
	}, nil)
	mocks.store.On("LastStation", mock.Anything, "204", input.WorkDate).Return(nil, nil)

	_, err := svc.Submit(context.Background(), input)

	var validation *ValidationError
	if assert.ErrorAs(t, err, &validation) {
		assert.Contains(t, violationFields(validation), "towedPlate")
	}
	mocks.store.AssertNotCalled(t, "CreateReport", mock.Anything, mock.Anything)
}

func TestSubmitCarretaCargoWiring(t *testing.T) {
	svc, mocks := newReportService()

	machine := haulTruck()
	operatorID := uuid.New()
	input := SubmitReportInput{
		Kind:       model.ReportMunicipal,
		WorkDate:   time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC),
		MachineID:  machine.ID,
		Variant:    "CARRETA",
		OperatorID: &operatorID,
		Activity:   "Equipment transfer",
		District:   "Central",
		RoadCode:   "204",
		StartTime:  "07:00",
		EndTime:    "12:00",
		Principal:  inspector(),
	}

	mocks.machines.On("GetMachine", mock.Anything, machine.ID).Return(machine, nil)
	mocks.operators.On("GetOperator", mock.Anything, operatorID).Return(&model.Operator{
		ID: operatorID, Active: true,
	}, nil)

	_, err := svc.Submit(context.Background(), input)

	var validation *ValidationError
	if assert.ErrorAs(t, err, &validation) {
		fields := violationFields(validation)
		assert.Contains(t, fields, "towedPlate")
		assert.Contains(t, fields, "cargoDetail")
	}

	input.TowedPlate = "rm-0042"
	input.CargoDetail = "Backhoe moved to the north yard"
	mocks.store.On("CreateReport", mock.Anything, mock.Anything).Return(&model.UsageReport{ID: uuid.New()}, nil)
	mocks.audit.On("Record", mock.Anything, mock.Anything).Return(nil)

	_, err = svc.Submit(context.Background(), input)
	assert.NoError(t, err)

	created := mocks.store.Calls[0].Arguments.Get(1).(model.UsageReport)
	assert.Equal(t, "RM-0042", *created.TowedPlate)
	assert.Equal(t, "Backhoe moved to the north yard", *created.CargoDetail)
}

func TestSubmitCisternaRequiresSourceSite(t *testing.T) {
	svc, mocks := newReportService()

	machine := &model.Machine{
		ID:        uuid.New(),
		Plate:     "SM-6603",
		Type:      model.MachineCisterna,
		Ownership: model.OwnershipMunicipal,
		Active:    true,
	}
	operatorID := uuid.New()
	loads := 4
	input := SubmitReportInput{
		Kind:       model.ReportMunicipal,
		WorkDate:   time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		MachineID:  machine.ID,
		OperatorID: &operatorID,
		Activity:   "Dust control watering",
		District:   "Central",
		RoadCode:   "204",
		StartTime:  "07:00",
		EndTime:    "15:00",
		WaterLoads: &loads,
		Principal:  inspector(),
	}

	mocks.machines.On("GetMachine", mock.Anything, machine.ID).Return(machine, nil)
	mocks.operators.On("GetOperator", mock.Anything, operatorID).Return(&model.Operator{
		ID: operatorID, Active: true,
	}, nil)

	_, err := svc.Submit(context.Background(), input)

	var validation *ValidationError
	if assert.ErrorAs(t, err, &validation) {
		assert.Equal(t, "sourceSite", validation.Violations[0].Field)
	}

	input.SourceSite = "RIVER"
	mocks.store.On("CreateReport", mock.Anything, mock.Anything).Return(&model.UsageReport{ID: uuid.New()}, nil)
	mocks.audit.On("Record", mock.Anything, mock.Anything).Return(nil)

	_, err = svc.Submit(context.Background(), input)
	assert.NoError(t, err)

	created := mocks.store.Calls[0].Arguments.Get(1).(model.UsageReport)
	assert.Equal(t, "RIVER", *created.SourceSite)
}

func TestSubmitUnknownTowedPlate(t *testing.T) {
	svc, mocks := newReportService()

	machine := haulTruck()
	input := materialInput(machine, uuid.New())
	input.TowedPlate = "XX-0000"

	mocks.machines.On("GetMachine", mock.Anything, machine.ID).Return(machine, nil)
	mocks.machines.On("GetMachineByPlate", mock.Anything, "XX-0000").Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.Submit(context.Background(), input)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSubmitMachineNotFound(t *testing.T) {
	svc, mocks := newReportService()

	machineID := uuid.New()
	mocks.machines.On("GetMachine", mock.Anything, machineID).Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.Submit(context.Background(), SubmitReportInput{
		Kind:      model.ReportMunicipal,
		WorkDate:  time.Now(),
		MachineID: machineID,
		Principal: inspector(),
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExportPeriodDeniedForOperator(t *testing.T) {
	svc, _ := newReportService()

	_, err := svc.ExportPeriod(context.Background(), ExportPeriodInput{
		From:      time.Now().AddDate(0, -1, 0),
		To:        time.Now(),
		Principal: model.Principal{UserID: uuid.New(), Role: model.RoleOperator},
	})
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestResolveFormFieldsRejectsStaleVariant(t *testing.T) {
	svc, _ := newReportService()

	_, err := svc.ResolveFormFields(context.Background(), ResolveFormFieldsInput{
		MachineType: model.MachineExcavadora,
		Variant:     model.VariantMaterial,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetReportPropagatesStoreError(t *testing.T) {
	svc, mocks := newReportService()

	id := uuid.New()
	storeErr := errors.New("connection reset")
	mocks.store.On("GetReport", mock.Anything, id).Return(nil, storeErr)

	_, err := svc.Get(context.Background(), id)
	assert.ErrorIs(t, err, storeErr)
}
