package report

import "time"

// StationStaleDays is how long a recorded to-station stays binding for
// progression checks on the same road code.
const StationStaleDays = 30

// StationProgressOK reports whether a new from-station is acceptable given
// the last recorded to-station on the same road. A regression is allowed only
// when the prior record is older than StationStaleDays relative to the new
// work date.
func StationProgressOK(newFrom float64, lastTo float64, lastDate, workDate time.Time) bool {
	if newFrom >= lastTo {
		return true
	}
	age := workDate.Sub(lastDate)
	return age > StationStaleDays*24*time.Hour
}
