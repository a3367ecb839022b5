package report

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mvargas/muni-machinery/internal/model"
)

func ticket(material string, qty float64) model.TicketEntry {
	return model.TicketEntry{MaterialType: material, CubicMeters: qty}
}

func TestAggregateMaterialsGroupsAndSums(t *testing.T) {
	breakdown := AggregateMaterials([]model.TicketEntry{
		ticket("Sand", 5),
		ticket("Sand", 3),
		ticket("Gravel", 2),
	})

	assert.Equal(t, 8.0, breakdown.Of("Sand"))
	assert.Equal(t, 2.0, breakdown.Of("Gravel"))
	assert.Equal(t, 10.0, breakdown.GrandTotal)

	// First appearance order is kept for display.
	assert.Equal(t, "Sand", breakdown.Totals[0].MaterialType)
	assert.Equal(t, "Gravel", breakdown.Totals[1].MaterialType)
}

func TestAggregateMaterialsSkipsInvalidEntries(t *testing.T) {
	breakdown := AggregateMaterials([]model.TicketEntry{
		ticket("", 5),
		ticket("Sand", 0),
		ticket("Sand", -2),
		ticket("Gravel", math.NaN()),
		ticket("Gravel", math.Inf(1)),
		ticket("Base", 1.5),
	})

	assert.Len(t, breakdown.Totals, 1)
	assert.Equal(t, 1.5, breakdown.Of("Base"))
	assert.Equal(t, 1.5, breakdown.GrandTotal)
}

func TestEnsureTicketRowNeverLeavesZeroRows(t *testing.T) {
	rows := []model.TicketEntry{ticket("Sand", 5)}
	rows = rows[:0]

	rows = EnsureTicketRow(rows)
	assert.Len(t, rows, 1)
	assert.Zero(t, rows[0])

	// A non-empty list passes through untouched.
	rows = EnsureTicketRow([]model.TicketEntry{ticket("Sand", 5)})
	assert.Len(t, rows, 1)
	assert.Equal(t, "Sand", rows[0].MaterialType)
}

func TestCheckDailyTotal(t *testing.T) {
	breakdown := AggregateMaterials([]model.TicketEntry{ticket("Sand", 4), ticket("Gravel", 6)})

	assert.Nil(t, CheckDailyTotal(breakdown, 10))
	assert.Nil(t, CheckDailyTotal(breakdown, 10.004))

	violation := CheckDailyTotal(breakdown, 12)
	if assert.NotNil(t, violation) {
		assert.Equal(t, "dailyTotalM3", violation.Field)
	}
}
