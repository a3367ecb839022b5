package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mvargas/muni-machinery/internal/http/middleware"
	"github.com/mvargas/muni-machinery/internal/model"
	"github.com/mvargas/muni-machinery/internal/repository"
	"github.com/mvargas/muni-machinery/internal/service"
)

type Handler struct {
	reports      *service.ReportService
	registry     *service.RegistryService
	roleRequests *service.RoleRequestService
	audit        *service.AuditService
	log          zerolog.Logger
}

func NewHandler(
	reports *service.ReportService,
	registry *service.RegistryService,
	roleRequests *service.RoleRequestService,
	audit *service.AuditService,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		reports:      reports,
		registry:     registry,
		roleRequests: roleRequests,
		audit:        audit,
		log:          log,
	}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := router.Group("/")
	protected.Use(authMiddleware)

	protected.POST("/role-requests", h.submitRoleRequest)
	protected.GET("/role-requests", h.listRoleRequests)
	protected.POST("/role-requests/:id/decision", h.decideRoleRequest)

	protected.GET("/operators", h.listOperators)
	protected.POST("/operators", h.createOperator)
	protected.PATCH("/operators/:id/active", h.setOperatorActive)

	protected.GET("/machines", h.listMachines)
	protected.POST("/machines", h.createMachine)
	protected.PATCH("/machines/:id/active", h.setMachineActive)

	protected.GET("/reports/fields", h.resolveReportFields)
	protected.POST("/reports", h.submitReport)
	protected.GET("/reports", h.listReports)
	protected.GET("/reports/:id", h.getReport)
	protected.GET("/reports/:id/pdf", h.exportReportPDF)
	protected.POST("/reports/export", h.exportPeriod)

	protected.GET("/audit-log", h.listAuditLog)
}

type submitRoleRequestBody struct {
	Role string `json:"role" binding:"required"`
}

func (h *Handler) submitRoleRequest(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var body submitRoleRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	request, err := h.roleRequests.Submit(c.Request.Context(), principal, body.Role)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, request)
}

func (h *Handler) listRoleRequests(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var status *model.RoleRequestStatus
	if raw := strings.ToUpper(strings.TrimSpace(c.Query("status"))); raw != "" {
		parsed := model.RoleRequestStatus(raw)
		switch parsed {
		case model.RoleRequestPending, model.RoleRequestApproved, model.RoleRequestRejected:
			status = &parsed
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
	}

	requests, err := h.roleRequests.List(c.Request.Context(), principal, status)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, requests)
}

type decideRoleRequestBody struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason"`
}

func (h *Handler) decideRoleRequest(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return
	}

	var body decideRoleRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	request, err := h.roleRequests.Decide(c.Request.Context(), service.DecideRoleRequestInput{
		RequestID: requestID,
		Approve:   body.Approve,
		Reason:    body.Reason,
		Principal: principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

func (h *Handler) listOperators(c *gin.Context) {
	operators, err := h.registry.ListOperators(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, operators)
}

type createOperatorBody struct {
	DocumentID   string `json:"document_id" binding:"required"`
	FullName     string `json:"full_name" binding:"required"`
	LicenseClass string `json:"license_class" binding:"required"`
}

func (h *Handler) createOperator(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var body createOperatorBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	operator, err := h.registry.CreateOperator(c.Request.Context(), service.CreateOperatorInput{
		DocumentID:   body.DocumentID,
		FullName:     body.FullName,
		LicenseClass: body.LicenseClass,
		Principal:    principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, operator)
}

type setActiveBody struct {
	Active *bool `json:"active" binding:"required"`
}

func (h *Handler) setOperatorActive(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid operator id"})
		return
	}

	var body setActiveBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.registry.SetOperatorActive(c.Request.Context(), principal, id, *body.Active); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listMachines(c *gin.Context) {
	var ownership *model.Ownership
	if raw := strings.ToUpper(strings.TrimSpace(c.Query("ownership"))); raw != "" {
		parsed := model.Ownership(raw)
		switch parsed {
		case model.OwnershipMunicipal, model.OwnershipRental:
			ownership = &parsed
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ownership"})
			return
		}
	}

	machines, err := h.registry.ListMachines(c.Request.Context(), ownership, c.Query("active") == "true")
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, machines)
}

type createMachineBody struct {
	Plate         string   `json:"plate" binding:"required"`
	Type          string   `json:"type" binding:"required"`
	Ownership     string   `json:"ownership" binding:"required"`
	MaterialKind  *string  `json:"material_kind"`
	RentalCompany *string  `json:"rental_company"`
	HourlyRate    *float64 `json:"hourly_rate"`
}

func (h *Handler) createMachine(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var body createMachineBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	machine, err := h.registry.CreateMachine(c.Request.Context(), service.CreateMachineInput{
		Plate:         body.Plate,
		Type:          body.Type,
		Ownership:     body.Ownership,
		MaterialKind:  body.MaterialKind,
		RentalCompany: body.RentalCompany,
		HourlyRate:    body.HourlyRate,
		Principal:     principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, machine)
}

func (h *Handler) setMachineActive(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid machine id"})
		return
	}

	var body setActiveBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.registry.SetMachineActive(c.Request.Context(), principal, id, *body.Active); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) resolveReportFields(c *gin.Context) {
	machineType, ok := model.ParseMachineType(strings.ToUpper(strings.TrimSpace(c.Query("type"))))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid machine type"})
		return
	}

	var variant model.Variant
	if raw := strings.ToUpper(strings.TrimSpace(c.Query("variant"))); raw != "" {
		parsed, ok := model.ParseVariant(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid variant"})
			return
		}
		variant = parsed
	}

	fields, err := h.reports.ResolveFormFields(c.Request.Context(), service.ResolveFormFieldsInput{
		MachineType: machineType,
		Variant:     variant,
		TowedPlate:  c.Query("towed_plate"),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fields": fields})
}

type ticketBody struct {
	MaterialType string  `json:"material_type"`
	CubicMeters  float64 `json:"cubic_meters"`
	SourceSite   string  `json:"source_site"`
	SubSource    *string `json:"sub_source"`
	TicketNumber string  `json:"ticket_number"`
	RoadCode     string  `json:"road_code"`
	District     string  `json:"district"`
}

type submitReportBody struct {
	Kind           string       `json:"kind" binding:"required"`
	WorkDate       string       `json:"work_date" binding:"required"`
	MachineID      string       `json:"machine_id" binding:"required"`
	Variant        string       `json:"variant"`
	TowedPlate     string       `json:"towed_plate"`
	CargoDetail    string       `json:"cargo_detail"`
	OperatorID     *string      `json:"operator_id"`
	Activity       string       `json:"activity"`
	District       string       `json:"district"`
	RoadCode       string       `json:"road_code"`
	StartTime      string       `json:"start_time"`
	EndTime        string       `json:"end_time"`
	HourmeterStart *float64     `json:"hourmeter_start"`
	HourmeterEnd   *float64     `json:"hourmeter_end"`
	StationFrom    *float64     `json:"station_from"`
	StationTo      *float64     `json:"station_to"`
	SourceSite     string       `json:"source_site"`
	WaterLoads     *int         `json:"water_loads"`
	DailyTotalM3   *float64     `json:"daily_total_m3"`
	Tickets        []ticketBody `json:"tickets"`
}

func (h *Handler) submitReport(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var body submitReportBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	kind, err := parseReportKind(body.Kind)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid kind"})
		return
	}
	workDate, err := parseDate(body.WorkDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid work_date"})
		return
	}
	machineID, err := uuid.Parse(strings.TrimSpace(body.MachineID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid machine_id"})
		return
	}

	var operatorID *uuid.UUID
	if body.OperatorID != nil && strings.TrimSpace(*body.OperatorID) != "" {
		parsed, err := uuid.Parse(strings.TrimSpace(*body.OperatorID))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid operator_id"})
			return
		}
		operatorID = &parsed
	}

	tickets := make([]model.TicketEntry, 0, len(body.Tickets))
	for _, t := range body.Tickets {
		tickets = append(tickets, model.TicketEntry{
			MaterialType: t.MaterialType,
			CubicMeters:  t.CubicMeters,
			SourceSite:   t.SourceSite,
			SubSource:    t.SubSource,
			TicketNumber: t.TicketNumber,
			RoadCode:     t.RoadCode,
			District:     t.District,
		})
	}

	saved, err := h.reports.Submit(c.Request.Context(), service.SubmitReportInput{
		Kind:           kind,
		WorkDate:       workDate,
		MachineID:      machineID,
		Variant:        body.Variant,
		TowedPlate:     body.TowedPlate,
		CargoDetail:    body.CargoDetail,
		OperatorID:     operatorID,
		Activity:       body.Activity,
		District:       body.District,
		RoadCode:       body.RoadCode,
		StartTime:      body.StartTime,
		EndTime:        body.EndTime,
		HourmeterStart: body.HourmeterStart,
		HourmeterEnd:   body.HourmeterEnd,
		StationFrom:    body.StationFrom,
		StationTo:      body.StationTo,
		SourceSite:     body.SourceSite,
		WaterLoads:     body.WaterLoads,
		DailyTotalM3:   body.DailyTotalM3,
		Tickets:        tickets,
		Principal:      principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

func (h *Handler) listReports(c *gin.Context) {
	filter := repository.ReportFilter{}

	if raw := c.Query("from"); raw != "" {
		from, err := parseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from"})
			return
		}
		filter.From = from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := parseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to"})
			return
		}
		filter.To = to.Add(24 * time.Hour)
	}
	if raw := c.Query("machine_id"); raw != "" {
		machineID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid machine_id"})
			return
		}
		filter.MachineID = &machineID
	}
	if raw := c.Query("kind"); raw != "" {
		kind, err := parseReportKind(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid kind"})
			return
		}
		filter.Kind = &kind
	}

	reports, err := h.reports.List(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, reports)
}

func (h *Handler) getReport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report id"})
		return
	}

	rep, err := h.reports.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (h *Handler) exportReportPDF(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report id"})
		return
	}

	result, err := h.reports.ExportPDF(c.Request.Context(), id, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/pdf", result.Content)
}

type exportPeriodBody struct {
	PeriodStart string  `json:"period_start" binding:"required"`
	PeriodEnd   string  `json:"period_end" binding:"required"`
	MachineID   *string `json:"machine_id"`
	Kind        *string `json:"kind"`
}

func (h *Handler) exportPeriod(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var body exportPeriodBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start, err := parseDate(body.PeriodStart)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period_start"})
		return
	}
	end, err := parseDate(body.PeriodEnd)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period_end"})
		return
	}

	input := service.ExportPeriodInput{
		From:      start,
		To:        end,
		Principal: principal,
	}
	if body.MachineID != nil && strings.TrimSpace(*body.MachineID) != "" {
		machineID, err := uuid.Parse(strings.TrimSpace(*body.MachineID))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid machine_id"})
			return
		}
		input.MachineID = &machineID
	}
	if body.Kind != nil && strings.TrimSpace(*body.Kind) != "" {
		kind, err := parseReportKind(*body.Kind)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid kind"})
			return
		}
		input.Kind = &kind
	}

	result, err := h.reports.ExportPeriod(c.Request.Context(), input)
	if err != nil {
		h.handleError(c, err)
		return
	}

	const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, xlsxContentType, result.Content)
}

func (h *Handler) listAuditLog(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	filter := repository.AuditFilter{Action: strings.TrimSpace(c.Query("action"))}
	if raw := c.Query("actor_id"); raw != "" {
		actorID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid actor_id"})
			return
		}
		filter.ActorID = &actorID
	}
	if raw := c.Query("from"); raw != "" {
		from, err := parseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from"})
			return
		}
		filter.From = from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := parseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to"})
			return
		}
		filter.To = to.Add(24 * time.Hour)
	}

	entries, err := h.audit.List(c.Request.Context(), principal, filter)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	var validation *service.ValidationError
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "validation failed",
			"fields": validation.Violations,
		})
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parseReportKind(raw string) (model.ReportKind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "municipal":
		return model.ReportMunicipal, nil
	case "rental":
		return model.ReportRental, nil
	default:
		return "", service.ErrInvalidInput
	}
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, service.ErrInvalidInput
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, service.ErrInvalidInput
}
