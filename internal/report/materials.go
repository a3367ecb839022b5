package report

import (
	"math"

	"github.com/mvargas/muni-machinery/internal/model"
)

type MaterialTotal struct {
	MaterialType string
	CubicMeters  float64
}

// MaterialBreakdown is the grouped sum of ticket quantities. Totals keep the
// first-appearance order of each material for display.
type MaterialBreakdown struct {
	Totals     []MaterialTotal
	GrandTotal float64
}

func (b MaterialBreakdown) Of(materialType string) float64 {
	for _, t := range b.Totals {
		if t.MaterialType == materialType {
			return t.CubicMeters
		}
	}
	return 0
}

// EnsureTicketRow keeps the repeatable ticket editor non-empty: removing the
// last row re-seeds a single blank one.
func EnsureTicketRow(entries []model.TicketEntry) []model.TicketEntry {
	if len(entries) == 0 {
		return []model.TicketEntry{{}}
	}
	return entries
}

// AggregateMaterials groups ticket quantities by material type. Entries with
// an empty material or a non-positive or non-finite quantity are ignored.
func AggregateMaterials(entries []model.TicketEntry) MaterialBreakdown {
	var breakdown MaterialBreakdown
	index := make(map[string]int)

	for _, entry := range entries {
		if entry.MaterialType == "" {
			continue
		}
		qty := entry.CubicMeters
		if qty <= 0 || math.IsNaN(qty) || math.IsInf(qty, 0) {
			continue
		}

		if pos, ok := index[entry.MaterialType]; ok {
			breakdown.Totals[pos].CubicMeters += qty
		} else {
			breakdown.Totals = append(breakdown.Totals, MaterialTotal{
				MaterialType: entry.MaterialType,
				CubicMeters:  qty,
			})
			index[entry.MaterialType] = len(breakdown.Totals) - 1
		}
		breakdown.GrandTotal += qty
	}

	return breakdown
}
