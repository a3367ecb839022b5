package report

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/mvargas/muni-machinery/internal/model"
)

// Violation is a field-specific validation failure. Validation never panics
// and never throws; callers collect violations and block submission.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

const (
	SourceRiver  = "RIVER"
	SourceQuarry = "QUARRY"
)

var (
	ticketNumberRe = regexp.MustCompile(`^\d{6}$`)
	roadCodeRe     = regexp.MustCompile(`^\d{3}$`)
)

func ValidTicketNumber(raw string) bool { return ticketNumberRe.MatchString(raw) }
func ValidRoadCode(raw string) bool     { return roadCodeRe.MatchString(raw) }

func sourceRequiresSubSource(source string) bool {
	switch strings.ToUpper(strings.TrimSpace(source)) {
	case SourceRiver, SourceQuarry:
		return true
	default:
		return false
	}
}

// ValidateTicket checks one haul entry. The row index is only used to address
// the message at the right row.
func ValidateTicket(entry model.TicketEntry, row int) []Violation {
	var violations []Violation
	field := func(name string) string {
		return fmt.Sprintf("tickets[%d].%s", row, name)
	}

	if strings.TrimSpace(entry.MaterialType) == "" {
		violations = append(violations, Violation{field("materialType"), "material type is required"})
	}
	if entry.CubicMeters <= 0 || math.IsNaN(entry.CubicMeters) || math.IsInf(entry.CubicMeters, 0) {
		violations = append(violations, Violation{field("cubicMeters"), "quantity must be a positive number"})
	}
	if strings.TrimSpace(entry.SourceSite) == "" {
		violations = append(violations, Violation{field("sourceSite"), "source site is required"})
	} else if sourceRequiresSubSource(entry.SourceSite) {
		if entry.SubSource == nil || strings.TrimSpace(*entry.SubSource) == "" {
			violations = append(violations, Violation{field("subSource"), "sub-source is required for river and quarry sources"})
		}
	}
	if !ValidTicketNumber(entry.TicketNumber) {
		violations = append(violations, Violation{field("ticketNumber"), "ticket number must be exactly 6 digits"})
	}
	if !ValidRoadCode(entry.RoadCode) {
		violations = append(violations, Violation{field("roadCode"), "road code must be exactly 3 digits"})
	}
	if strings.TrimSpace(entry.District) == "" {
		violations = append(violations, Violation{field("district"), "district is required"})
	}
	return violations
}

// quantityTolerance absorbs decimal-entry rounding when cross-checking the
// declared daily total against the ticket sum.
const quantityTolerance = 0.005

// CheckDailyTotal cross-checks the aggregated ticket sum against the declared
// total for the day.
func CheckDailyTotal(breakdown MaterialBreakdown, declared float64) *Violation {
	if math.Abs(breakdown.GrandTotal-declared) <= quantityTolerance {
		return nil
	}
	return &Violation{
		Field: "dailyTotalM3",
		Message: fmt.Sprintf("ticket quantities sum to %.2f but the declared daily total is %.2f",
			breakdown.GrandTotal, declared),
	}
}

// CheckHours rejects totals outside the accepted daily range.
func CheckHours(total float64) *Violation {
	if total < 0 || total > MaxDailyHours {
		return &Violation{
			Field:   "endTime",
			Message: fmt.Sprintf("worked hours must be between 0 and %d", MaxDailyHours),
		}
	}
	return nil
}
