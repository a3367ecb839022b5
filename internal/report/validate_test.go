package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mvargas/muni-machinery/internal/model"
)

func validTicket() model.TicketEntry {
	sub := "north bank"
	return model.TicketEntry{
		MaterialType: "Gravel",
		CubicMeters:  6,
		SourceSite:   "RIVER",
		SubSource:    &sub,
		TicketNumber: "123456",
		RoadCode:     "204",
		District:     "Central",
	}
}

func TestValidateTicketAcceptsCompleteEntry(t *testing.T) {
	assert.Empty(t, ValidateTicket(validTicket(), 0))
}

func TestValidateTicketDigitRules(t *testing.T) {
	entry := validTicket()
	entry.TicketNumber = "12345"
	entry.RoadCode = "20a"

	violations := ValidateTicket(entry, 2)
	fields := make([]string, 0, len(violations))
	for _, v := range violations {
		fields = append(fields, v.Field)
	}
	assert.Contains(t, fields, "tickets[2].ticketNumber")
	assert.Contains(t, fields, "tickets[2].roadCode")
}

func TestValidateTicketSubSourceRequiredForRiverAndQuarry(t *testing.T) {
	entry := validTicket()
	entry.SubSource = nil
	violations := ValidateTicket(entry, 0)
	assert.Len(t, violations, 1)
	assert.Equal(t, "tickets[0].subSource", violations[0].Field)

	entry.SourceSite = "QUARRY"
	violations = ValidateTicket(entry, 0)
	assert.Len(t, violations, 1)

	// Stockpile sources do not need a sub-source.
	entry.SourceSite = "STOCKPILE"
	assert.Empty(t, ValidateTicket(entry, 0))
}

func TestCheckHours(t *testing.T) {
	assert.Nil(t, CheckHours(0))
	assert.Nil(t, CheckHours(18))
	assert.NotNil(t, CheckHours(18.5))
	assert.NotNil(t, CheckHours(-1))
}

func TestStationProgress(t *testing.T) {
	workDate := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	// Moving forward is always fine.
	assert.True(t, StationProgressOK(120, 100, workDate.AddDate(0, 0, -5), workDate))

	// Regression within the binding window is blocked.
	assert.False(t, StationProgressOK(80, 100, workDate.AddDate(0, 0, -5), workDate))

	// A stale prior record releases the constraint.
	assert.True(t, StationProgressOK(80, 100, workDate.AddDate(0, 0, -31), workDate))
}
