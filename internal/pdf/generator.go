package pdf

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/mvargas/muni-machinery/internal/model"
	"github.com/mvargas/muni-machinery/internal/report"
)

type Generator struct {
	fontName string
}

func NewGenerator() (*Generator, error) {
	return &Generator{fontName: "Helvetica"}, nil
}

// Generate renders the daily machinery sheet (boleta diaria) for one report.
func (g *Generator) Generate(doc model.ReportDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont(g.fontName, "B", 14)
	pdf.CellFormat(0, 10, tr("Boleta diaria de maquinaria"), "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Fecha: %s", doc.Report.WorkDate.Format("2006-01-02"))), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Máquina: %s (%s)", doc.Machine.Plate, doc.Machine.Type)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, tr("Datos del reporte"), "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 10)

	for _, line := range detailLines(doc) {
		pdf.MultiCell(0, 5, tr(line), "", "L", false)
	}
	pdf.Ln(2)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, tr("Horas"), "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 10)

	hoursHeaders := []string{"Entrada", "Salida", "Total", "Ordinarias", "Extra"}
	hoursWidths := []float64{30, 30, 30, 35, 35}
	drawTableRow(pdf, tr, g.fontName, hoursHeaders, hoursWidths, true)
	drawTableRow(pdf, tr, g.fontName, []string{
		doc.Report.StartTime,
		doc.Report.EndTime,
		fmt.Sprintf("%.2f", doc.Report.TotalHours),
		fmt.Sprintf("%.2f", doc.Report.OrdinaryHours),
		fmt.Sprintf("%.2f", doc.Report.OvertimeHours),
	}, hoursWidths, false)
	pdf.Ln(4)

	if len(doc.Report.Tickets) > 0 {
		pdf.SetFont(g.fontName, "B", 12)
		pdf.CellFormat(0, 8, tr("Boletas de material"), "", 1, "L", false, 0, "")
		pdf.SetFont(g.fontName, "", 10)

		ticketHeaders := []string{"Boleta", "Material", "m3", "Fuente", "Camino", "Distrito"}
		ticketWidths := []float64{22, 40, 20, 40, 20, 38}
		drawTableRow(pdf, tr, g.fontName, ticketHeaders, ticketWidths, true)
		for _, ticket := range doc.Report.Tickets {
			drawTableRow(pdf, tr, g.fontName, []string{
				ticket.TicketNumber,
				ticket.MaterialType,
				fmt.Sprintf("%.2f", ticket.CubicMeters),
				ticket.SourceSite,
				ticket.RoadCode,
				ticket.District,
			}, ticketWidths, false)
		}

		breakdown := report.AggregateMaterials(doc.Report.Tickets)
		pdf.Ln(2)
		pdf.SetFont(g.fontName, "", 11)
		for _, total := range breakdown.Totals {
			pdf.CellFormat(0, 6, tr(fmt.Sprintf("%s: %.2f m3", total.MaterialType, total.CubicMeters)), "", 1, "R", false, 0, "")
		}
		pdf.CellFormat(0, 6, tr(fmt.Sprintf("Total del día: %.2f m3", breakdown.GrandTotal)), "", 1, "R", false, 0, "")
	}

	pdf.Ln(6)
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, tr("Firmas"), "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)

	signatureBlock(pdf, tr, "Operador", stringValue(doc.Report.OperatorName))
	signatureBlock(pdf, tr, "Inspector", "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func detailLines(doc model.ReportDocument) []string {
	lines := []string{
		fmt.Sprintf("Actividad: %s", doc.Report.Activity),
	}
	if doc.Report.Variant != nil {
		lines = append(lines, fmt.Sprintf("Modalidad: %s", *doc.Report.Variant))
	}
	if doc.Report.TowedPlate != nil {
		lines = append(lines, fmt.Sprintf("Placa remolque: %s", *doc.Report.TowedPlate))
	}
	if doc.Report.CargoDetail != nil {
		lines = append(lines, fmt.Sprintf("Detalle de carga: %s", *doc.Report.CargoDetail))
	}
	if doc.Report.OperatorName != nil {
		lines = append(lines, fmt.Sprintf("Operador: %s", *doc.Report.OperatorName))
	}
	if doc.Report.RentalCompany != nil {
		lines = append(lines, fmt.Sprintf("Empresa alquiladora: %s", *doc.Report.RentalCompany))
	}
	if doc.Report.District != nil {
		lines = append(lines, fmt.Sprintf("Distrito: %s", *doc.Report.District))
	}
	if doc.Report.RoadCode != nil {
		lines = append(lines, fmt.Sprintf("Código camino: %s", *doc.Report.RoadCode))
	}
	if doc.Report.StationFrom != nil && doc.Report.StationTo != nil {
		lines = append(lines, fmt.Sprintf("Estación: %.2f a %.2f", *doc.Report.StationFrom, *doc.Report.StationTo))
	}
	if doc.Report.HourmeterStart != nil && doc.Report.HourmeterEnd != nil {
		lines = append(lines, fmt.Sprintf("Horómetro: %.1f a %.1f", *doc.Report.HourmeterStart, *doc.Report.HourmeterEnd))
	}
	if doc.Report.SourceSite != nil {
		lines = append(lines, fmt.Sprintf("Fuente: %s", *doc.Report.SourceSite))
	}
	if doc.Report.WaterLoads != nil {
		lines = append(lines, fmt.Sprintf("Cargas de agua: %d", *doc.Report.WaterLoads))
	}
	return lines
}

func drawTableRow(pdf *gofpdf.Fpdf, tr func(string) string, fontName string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 10)
	for i, col := range cols {
		pdf.CellFormat(widths[i], 7, tr(col), "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
}

func signatureBlock(pdf *gofpdf.Fpdf, tr func(string) string, title, name string) {
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("%s: %s", title, name)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 10, "_________________________", "", 1, "L", false, 0, "")
	pdf.Ln(2)
}

func stringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
