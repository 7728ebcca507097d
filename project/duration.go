package project

import (
	"fmt"
	"math"

	perr "github.com/planfile/planfile/error"
)

// Calendar second counts per unit. A month is the average Gregorian month,
// a year is 365 days.
const (
	secondsPerMinute = 60
	secondsPerHour   = 3600
	secondsPerDay    = 86400
	secondsPerWeek   = 604800
	secondsPerMonth  = 2629728
	secondsPerYear   = 31536000
)

// CalendarSeconds converts a duration value to seconds of wall-clock time,
// as used by the duration attribute.
func (p *Project) CalendarSeconds(value float64, unit string) (int64, error) {
	var factor float64
	switch unit {
	case "min":
		factor = secondsPerMinute
	case "h":
		factor = secondsPerHour
	case "d":
		factor = secondsPerDay
	case "w":
		factor = secondsPerWeek
	case "m":
		factor = secondsPerMonth
	case "y":
		factor = secondsPerYear
	default:
		return 0, p.unknownUnit(unit)
	}
	return int64(math.Round(value * factor)), nil
}

// WorkingSeconds converts a duration value to seconds of working time, as
// used by the length and effort attributes. A working day is
// dailyworkinghours long; larger units scale through yearlyworkingdays.
func (p *Project) WorkingSeconds(value float64, unit string) (int64, error) {
	day := p.DailyWorkingHours * secondsPerHour
	var factor float64
	switch unit {
	case "min":
		factor = secondsPerMinute
	case "h":
		factor = secondsPerHour
	case "d":
		factor = day
	case "w":
		factor = day * p.YearlyWorkingDays / weeksPerYear
	case "m":
		factor = day * p.YearlyWorkingDays / 12
	case "y":
		factor = day * p.YearlyWorkingDays
	default:
		return 0, p.unknownUnit(unit)
	}
	return int64(math.Round(value * factor)), nil
}

// weeksPerYear is 365.25/7.
const weeksPerYear = 52.1786

func (p *Project) unknownUnit(unit string) error {
	return &perr.Error{
		Kind:    perr.KindSemantic,
		Code:    "unknown_unit",
		Message: fmt.Sprintf("'%v' is not a duration unit (expected min, h, d, w, m, or y)", unit),
	}
}
