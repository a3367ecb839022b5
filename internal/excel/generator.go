package excel

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/mvargas/muni-machinery/internal/model"
	"github.com/mvargas/muni-machinery/internal/report"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Generate(export model.PeriodExport) ([]byte, error) {
	file := excelize.NewFile()

	summarySheet := "Resumen"
	file.SetSheetName("Sheet1", summarySheet)
	if err := g.writeSummary(file, summarySheet, export); err != nil {
		return nil, err
	}

	usedNames := map[string]struct{}{summarySheet: {}}
	for _, section := range export.Sections {
		sheetName := buildSheetName(section.Machine.Plate, section.Machine.ID, usedNames)
		usedNames[sheetName] = struct{}{}

		file.NewSheet(sheetName)
		if err := g.writeMachineSheet(file, sheetName, export, section); err != nil {
			return nil, err
		}
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, sheet string, export model.PeriodExport) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Inicio del período")
	set("B1", formatDate(export.PeriodStart))
	set("A2", "Fin del período")
	set("B2", formatDate(export.PeriodEnd))

	tableRow := 4
	headers := []string{
		"Placa", "Tipo", "Días", "Horas ordinarias", "Horas extra", "Material, m3",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, tableRow)
		set(cell, header)
	}

	for i, section := range export.Sections {
		row := tableRow + 1 + i
		ordinary, overtime := sumHours(section.Reports)
		set(fmt.Sprintf("A%d", row), section.Machine.Plate)
		set(fmt.Sprintf("B%d", row), string(section.Machine.Type))
		set(fmt.Sprintf("C%d", row), len(section.Reports))
		set(fmt.Sprintf("D%d", row), formatFloat(ordinary))
		set(fmt.Sprintf("E%d", row), formatFloat(overtime))
		set(fmt.Sprintf("F%d", row), formatFloat(sumMaterial(section.Reports)))
	}

	_ = file.SetColWidth(sheet, "A", "A", 16)
	_ = file.SetColWidth(sheet, "B", "B", 18)
	_ = file.SetColWidth(sheet, "C", "F", 16)
	return nil
}

func (g *Generator) writeMachineSheet(file *excelize.File, sheet string, export model.PeriodExport, section model.MachineSection) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Placa")
	set("B1", section.Machine.Plate)
	set("A2", "Tipo")
	set("B2", string(section.Machine.Type))
	set("A3", "Inicio del período")
	set("B3", formatDate(export.PeriodStart))
	set("A4", "Fin del período")
	set("B4", formatDate(export.PeriodEnd))

	tableRow := 6
	headers := []string{
		"Fecha", "Actividad", "Operador", "Distrito", "Código camino",
		"Entrada", "Salida", "Horas ordinarias", "Horas extra", "Material, m3",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, tableRow)
		set(cell, header)
	}

	for i, rep := range section.Reports {
		row := tableRow + 1 + i
		set(fmt.Sprintf("A%d", row), formatDate(rep.WorkDate))
		set(fmt.Sprintf("B%d", row), rep.Activity)
		set(fmt.Sprintf("C%d", row), formatString(rep.OperatorName))
		set(fmt.Sprintf("D%d", row), formatString(rep.District))
		set(fmt.Sprintf("E%d", row), formatString(rep.RoadCode))
		set(fmt.Sprintf("F%d", row), rep.StartTime)
		set(fmt.Sprintf("G%d", row), rep.EndTime)
		set(fmt.Sprintf("H%d", row), formatFloat(rep.OrdinaryHours))
		set(fmt.Sprintf("I%d", row), formatFloat(rep.OvertimeHours))
		set(fmt.Sprintf("J%d", row), formatFloat(report.AggregateMaterials(rep.Tickets).GrandTotal))
	}

	_ = file.SetColWidth(sheet, "A", "A", 12)
	_ = file.SetColWidth(sheet, "B", "C", 28)
	_ = file.SetColWidth(sheet, "D", "G", 14)
	_ = file.SetColWidth(sheet, "H", "J", 16)
	return nil
}

func buildSheetName(plate string, id uuid.UUID, used map[string]struct{}) string {
	base := strings.TrimSpace(plate)
	if base == "" {
		base = id.String()
	}
	base = sanitizeSheetName(base)
	if len(base) > 31 {
		base = base[:31]
	}

	nameCandidate := base
	counter := 2
	for {
		if _, exists := used[nameCandidate]; !exists {
			return nameCandidate
		}
		suffix := fmt.Sprintf("-%d", counter)
		trimmed := base
		if len(trimmed)+len(suffix) > 31 {
			trimmed = trimmed[:31-len(suffix)]
		}
		nameCandidate = trimmed + suffix
		counter++
	}
}

func sanitizeSheetName(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "Hoja"
	}

	replacer := strings.NewReplacer(
		"[", "-",
		"]", "-",
		":", "-",
		"*", "-",
		"?", "-",
		"/", "-",
		"\\", "-",
	)
	value = replacer.Replace(value)
	value = strings.TrimSpace(value)
	if value == "" {
		return "Hoja"
	}
	return value
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func formatFloat(value float64) string {
	return fmt.Sprintf("%.2f", value)
}

func sumHours(reports []model.UsageReport) (float64, float64) {
	ordinary := 0.0
	overtime := 0.0
	for _, rep := range reports {
		ordinary += rep.OrdinaryHours
		overtime += rep.OvertimeHours
	}
	return ordinary, overtime
}

func sumMaterial(reports []model.UsageReport) float64 {
	total := 0.0
	for _, rep := range reports {
		total += report.AggregateMaterials(rep.Tickets).GrandTotal
	}
	return total
}
