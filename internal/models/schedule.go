package models

import (
	"fmt"
	"sort"
	"time"
)

// Frequency defines how often a user must check in
type Frequency string

const (
	FrequencyDaily      Frequency = "daily"
	FrequencyTwiceDaily Frequency = "twice-daily"
	FrequencyWeekly     Frequency = "weekly"
	FrequencyCustom     Frequency = "custom"
)

// Schedule describes a user's required check-in cadence and tolerance
// window. Times are wall-clock HH:MM values interpreted in the service's
// reference timezone. Days are weekday indices (0=Sunday..6=Saturday) and
// apply only to weekly schedules.
type Schedule struct {
	UserID              int64     `json:"user_id" db:"user_id"`
	Frequency           Frequency `json:"frequency" db:"frequency"`
	Times               []string  `json:"times" db:"times"`
	Days                []int     `json:"days" db:"days"`
	CustomIntervalHours int       `json:"custom_interval_hours" db:"custom_interval_hours"`
	GracePeriodMinutes  int       `json:"grace_period_minutes" db:"grace_period_minutes"`
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at"`
}

// DefaultSchedule returns the schedule applied to users who have never
// saved one: daily at 09:00, all days, 24h interval, 60 minute grace.
func DefaultSchedule(userID int64) *Schedule {
	return &Schedule{
		UserID:              userID,
		Frequency:           FrequencyDaily,
		Times:               []string{"09:00"},
		Days:                []int{0, 1, 2, 3, 4, 5, 6},
		CustomIntervalHours: 24,
		GracePeriodMinutes:  60,
	}
}

// ApplyDefaults fills any absent field from the default schedule so the
// core never sees a partially specified row.
func (s *Schedule) ApplyDefaults() {
	def := DefaultSchedule(s.UserID)
	if s.Frequency == "" {
		s.Frequency = def.Frequency
	}
	if len(s.Times) == 0 {
		s.Times = def.Times
	}
	if len(s.Days) == 0 {
		s.Days = def.Days
	}
	if s.CustomIntervalHours <= 0 {
		s.CustomIntervalHours = def.CustomIntervalHours
	}
	if s.GracePeriodMinutes <= 0 {
		s.GracePeriodMinutes = def.GracePeriodMinutes
	}
}

// Validate rejects malformed schedules at the write boundary. The scanner
// itself never validates: defaults fill all gaps before a row is stored.
func (s *Schedule) Validate() error {
	switch s.Frequency {
	case FrequencyDaily, FrequencyTwiceDaily, FrequencyWeekly, FrequencyCustom:
	default:
		return fmt.Errorf("invalid frequency %q", s.Frequency)
	}

	if s.Frequency != FrequencyCustom && len(s.Times) == 0 {
		return fmt.Errorf("at least one check-in time is required for %s frequency", s.Frequency)
	}
	for _, t := range s.Times {
		if _, err := time.Parse("15:04", t); err != nil {
			return fmt.Errorf("invalid time %q: must be HH:MM", t)
		}
	}

	if s.Frequency == FrequencyWeekly {
		if len(s.Days) == 0 {
			return fmt.Errorf("at least one day is required for weekly frequency")
		}
		for _, d := range s.Days {
			if d < 0 || d > 6 {
				return fmt.Errorf("invalid day %d: must be 0 (Sunday) through 6 (Saturday)", d)
			}
		}
	}

	if s.Frequency == FrequencyCustom && s.CustomIntervalHours < 1 {
		return fmt.Errorf("custom interval must be at least 1 hour")
	}
	if s.GracePeriodMinutes < 1 {
		return fmt.Errorf("grace period must be at least 1 minute")
	}

	return nil
}

// Interval returns the effective length of one check-in period. It is used
// as the alert dedup lookback window: at most one alert episode fires per
// interval.
func (s *Schedule) Interval() time.Duration {
	switch s.Frequency {
	case FrequencyCustom:
		return time.Duration(s.CustomIntervalHours) * time.Hour
	case FrequencyTwiceDaily:
		return 12 * time.Hour
	case FrequencyWeekly:
		return 7 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// Grace returns the grace period as a duration.
func (s *Schedule) Grace() time.Duration {
	return time.Duration(s.GracePeriodMinutes) * time.Minute
}

// SortedTimes returns the configured times-of-day in ascending order.
// HH:MM strings sort correctly lexicographically.
func (s *Schedule) SortedTimes() []string {
	times := make([]string, len(s.Times))
	copy(times, s.Times)
	sort.Strings(times)
	return times
}

// SortedDays returns the configured weekdays in ascending order.
func (s *Schedule) SortedDays() []int {
	days := make([]int, len(s.Days))
	copy(days, s.Days)
	sort.Ints(days)
	return days
}
