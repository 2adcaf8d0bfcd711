package raster

import (
	"math"
	"strings"
	"time"

	"github.com/ctessum/cdf"
	"github.com/rotisserie/eris"
)

// supportedCalendars are the CF calendar attribute values this loader accepts.
// Non-standard calendars (360_day, noleap) would shift every date and must be
// rejected rather than silently misread.
var supportedCalendars = map[string]bool{
	"":                    true,
	"standard":            true,
	"gregorian":           true,
	"proleptic_gregorian": true,
}

// ParseTimeUnits parses a CF time units string of the form
// "days since YYYY-MM-DD" or "days since YYYY-MM-DD HH:MM:SS" and returns the
// epoch. Only day-resolution units are supported; anything else is ErrDateParse.
func ParseTimeUnits(units string) (time.Time, error) {
	fields := strings.Fields(units)
	if len(fields) < 3 || !strings.EqualFold(fields[0], "days") || !strings.EqualFold(fields[1], "since") {
		return time.Time{}, eris.Wrapf(ErrDateParse, "time units %q", units)
	}

	base, err := time.Parse("2006-01-02", fields[2])
	if err != nil {
		return time.Time{}, eris.Wrapf(ErrDateParse, "time units %q: epoch %q", units, fields[2])
	}

	if len(fields) >= 4 {
		clock, err := time.Parse("15:04:05", fields[3])
		if err != nil {
			return time.Time{}, eris.Wrapf(ErrDateParse, "time units %q: clock %q", units, fields[3])
		}
		base = base.Add(time.Duration(clock.Hour())*time.Hour +
			time.Duration(clock.Minute())*time.Minute +
			time.Duration(clock.Second())*time.Second)
	}

	return base.UTC(), nil
}

// readDays decodes the time coordinate variable into calendar dates.
func readDays(f *cdf.File, timeVar string) ([]time.Time, error) {
	if !hasVariable(f, timeVar) {
		return nil, eris.Wrapf(ErrFormat, "no coordinate variable for dimension %s", timeVar)
	}

	units := attrString(f, timeVar, "units")
	if units == "" {
		return nil, eris.Wrapf(ErrDateParse, "time variable %s has no units attribute", timeVar)
	}
	if cal := attrString(f, timeVar, "calendar"); !supportedCalendars[strings.ToLower(cal)] {
		return nil, eris.Wrapf(ErrDateParse, "time variable %s: unsupported calendar %q", timeVar, cal)
	}

	epoch, err := ParseTimeUnits(units)
	if err != nil {
		return nil, err
	}

	offsets, err := readValues(f, timeVar)
	if err != nil {
		return nil, err
	}

	days := make([]time.Time, len(offsets))
	for i, off := range offsets {
		if math.IsNaN(off) {
			return nil, eris.Wrapf(ErrDateParse, "time variable %s: missing offset at layer %d", timeVar, i)
		}
		whole, frac := math.Modf(off)
		days[i] = epoch.AddDate(0, 0, int(whole)).Add(time.Duration(frac * 24 * float64(time.Hour)))
	}
	return days, nil
}
