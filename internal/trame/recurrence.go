package trame

import (
	"slices"
	"time"

	"github.com/chu-atlantique/bloc-planner/backend/internal/domain"
)

// GenerateApplicableDates resolves the dates inside [start, end] on which the
// template applies, ascending. Pure: same inputs always produce the same
// output.
//
// AUCUNE yields at most the range start, when it falls inside the effective
// window. HEBDOMADAIRE walks every calendar day and keeps those inside the
// effective window whose ISO weekday is active and whose ISO week parity
// matches the template.
func GenerateApplicableDates(t *domain.ScheduleTemplate, start, end time.Time) []time.Time {
	start = DateOnly(start)
	end = DateOnly(end)

	dates := []time.Time{}

	switch t.Recurrence {
	case domain.RecurrenceNone:
		if inEffectiveWindow(t, start) {
			dates = append(dates, start)
		}
	case domain.RecurrenceWeekly:
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			if !inEffectiveWindow(t, d) {
				continue
			}
			if !slices.Contains(t.ActiveWeekdays, isoWeekday(d)) {
				continue
			}
			if !weekParityMatches(t.WeekParity, d) {
				continue
			}
			dates = append(dates, d)
		}
	}

	return dates
}

// isoWeekday returns the ISO-8601 weekday, Monday = 1 through Sunday = 7.
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

func isoWeek(t time.Time) int {
	_, week := t.ISOWeek()
	return week
}

func weekParityMatches(parity domain.WeekParity, date time.Time) bool {
	switch parity {
	case domain.WeekParityAll:
		return true
	case domain.WeekParityEven:
		return isoWeek(date)%2 == 0
	case domain.WeekParityOdd:
		return isoWeek(date)%2 == 1
	default:
		return false
	}
}

func inEffectiveWindow(t *domain.ScheduleTemplate, date time.Time) bool {
	if date.Before(DateOnly(t.EffectiveFrom)) {
		return false
	}
	if t.EffectiveTo != nil && date.After(DateOnly(*t.EffectiveTo)) {
		return false
	}
	return true
}
