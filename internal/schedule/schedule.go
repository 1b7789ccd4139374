// Package schedule computes check-in deadlines and compliance status from a
// user's cadence configuration and check-in history. All functions are pure:
// callers pass the evaluation instant and the reference timezone explicitly.
package schedule

import (
	"time"

	"github.com/alfredang/iamgood/internal/models"
)

// NextRequiredCheckIn computes the next instant the user must check in,
// strictly after from. Times-of-day are interpreted in loc. A candidate
// equal to from is never selected, so the result always lies in the future
// of the reference instant.
func NextRequiredCheckIn(s *models.Schedule, from time.Time, loc *time.Location) time.Time {
	if s.Frequency == models.FrequencyCustom {
		return from.Add(time.Duration(s.CustomIntervalHours) * time.Hour)
	}

	local := from.In(loc)
	times := s.SortedTimes()

	switch s.Frequency {
	case models.FrequencyDaily, models.FrequencyTwiceDaily:
		for _, t := range times {
			if candidate := at(local, 0, t); candidate.After(from) {
				return candidate
			}
		}
		// All times today have passed; first time tomorrow.
		return at(local, 1, times[0])

	case models.FrequencyWeekly:
		days := s.SortedDays()
		configured := make(map[int]bool, len(days))
		for _, d := range days {
			configured[d] = true
		}

		currentDay := int(local.Weekday())
		for offset := 0; offset <= 7; offset++ {
			if !configured[(currentDay+offset)%7] {
				continue
			}
			for _, t := range times {
				if candidate := at(local, offset, t); candidate.After(from) {
					return candidate
				}
			}
		}
		// Nothing within a full week scan; wrap to the smallest configured
		// day next week.
		ahead := (days[0] - currentDay + 7) % 7
		if ahead == 0 {
			ahead = 7
		}
		return at(local, ahead, times[0])
	}

	// Unknown frequency in a stored row: tomorrow at the first time.
	return at(local, 1, times[0])
}

// AlertDeadline is the instant past which the user counts as overdue. With
// no prior check-in the deadline is now: a brand-new user is immediately
// eligible to be asked to check in. Otherwise grace is added to the next
// required instant after the last check-in, not to the evaluation time.
// Grace is tolerance around the scheduled moment, not a rolling window.
func AlertDeadline(s *models.Schedule, lastCheckIn *models.CheckIn, now time.Time, loc *time.Location) time.Time {
	if lastCheckIn == nil {
		return now
	}
	return NextRequiredCheckIn(s, lastCheckIn.Timestamp, loc).Add(s.Grace())
}

// at builds the instant on local's date plus offset days at clock time t.
func at(local time.Time, offset int, t string) time.Time {
	h, m := clock(t)
	day := local.AddDate(0, 0, offset)
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, day.Location())
}

// clock parses an HH:MM string. Malformed values are rejected when a
// schedule is saved; a value that slips through falls back to the default
// morning check-in time.
func clock(s string) (int, int) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 9, 0
	}
	return t.Hour(), t.Minute()
}
