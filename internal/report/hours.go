package report

import (
	"math"
	"strconv"
	"strings"
)

const (
	// MaxDailyHours caps a single day's worked hours.
	MaxDailyHours = 18
	// OrdinaryHoursLimit is where overtime starts.
	OrdinaryHoursLimit = 8
)

type HoursSplit struct {
	Ordinary float64
	Overtime float64
}

// ComputeWorkedHours converts two same-day HH:MM clock times into a decimal
// hour count rounded to two decimals and clamped to [0, MaxDailyHours].
// Empty or malformed input yields 0, as does end at or before start; there is
// no overnight wraparound.
func ComputeWorkedHours(start, end string) float64 {
	startMin, ok := parseClock(start)
	if !ok {
		return 0
	}
	endMin, ok := parseClock(end)
	if !ok {
		return 0
	}
	if endMin <= startMin {
		return 0
	}

	hours := float64(endMin-startMin) / 60
	hours = math.Round(hours*100) / 100
	if hours > MaxDailyHours {
		return MaxDailyHours
	}
	return hours
}

// SplitHours divides a total at the ordinary-hours limit.
func SplitHours(total float64) HoursSplit {
	if total <= OrdinaryHoursLimit {
		return HoursSplit{Ordinary: total}
	}
	return HoursSplit{
		Ordinary: OrdinaryHoursLimit,
		Overtime: total - OrdinaryHoursLimit,
	}
}

func parseClock(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	parts := strings.Split(raw, ":")
	if len(parts) != 2 {
		return 0, false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, false
	}
	return hour*60 + minute, true
}
