package model

import "time"

// PeriodExport feeds the Excel workbook: one section per machine with its
// reports for the period.
type PeriodExport struct {
	PeriodStart time.Time
	PeriodEnd   time.Time
	Sections    []MachineSection
}

type MachineSection struct {
	Machine Machine
	Reports []UsageReport
}

// ReportDocument feeds the PDF daily sheet.
type ReportDocument struct {
	Report  UsageReport
	Machine Machine
}
