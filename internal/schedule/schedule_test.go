package schedule

import (
	"testing"
	"time"

	"github.com/alfredang/iamgood/internal/models"
)

func daily(times ...string) *models.Schedule {
	s := models.DefaultSchedule(1)
	s.Times = times
	return s
}

func ts(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return parsed
}

func TestNextRequiredCheckIn_DailySingleTime(t *testing.T) {
	s := daily("09:00")

	tests := []struct {
		name string
		from string
		want string
	}{
		{"just before", "2024-01-01T08:59:00Z", "2024-01-01T09:00:00Z"},
		{"just after", "2024-01-01T09:01:00Z", "2024-01-02T09:00:00Z"},
		{"exactly at time rolls to next day", "2024-01-01T09:00:00Z", "2024-01-02T09:00:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextRequiredCheckIn(s, ts(t, tt.from), time.UTC)
			if !got.Equal(ts(t, tt.want)) {
				t.Fatalf("want %s, got %s", tt.want, got.Format(time.RFC3339))
			}
		})
	}
}

func TestNextRequiredCheckIn_TwiceDaily(t *testing.T) {
	s := daily("21:00", "09:00") // unsorted on purpose
	s.Frequency = models.FrequencyTwiceDaily

	got := NextRequiredCheckIn(s, ts(t, "2024-01-01T10:00:00Z"), time.UTC)
	if want := ts(t, "2024-01-01T21:00:00Z"); !got.Equal(want) {
		t.Fatalf("midday should pick evening slot, got %s", got.Format(time.RFC3339))
	}

	got = NextRequiredCheckIn(s, ts(t, "2024-01-01T22:00:00Z"), time.UTC)
	if want := ts(t, "2024-01-02T09:00:00Z"); !got.Equal(want) {
		t.Fatalf("after last slot should wrap to morning, got %s", got.Format(time.RFC3339))
	}
}

func TestNextRequiredCheckIn_Custom(t *testing.T) {
	s := models.DefaultSchedule(1)
	s.Frequency = models.FrequencyCustom
	s.CustomIntervalHours = 36

	from := ts(t, "2024-01-01T12:00:00Z")
	got := NextRequiredCheckIn(s, from, time.UTC)
	if want := from.Add(36 * time.Hour); !got.Equal(want) {
		t.Fatalf("want %s, got %s", want.Format(time.RFC3339), got.Format(time.RFC3339))
	}
}

func TestNextRequiredCheckIn_Weekly(t *testing.T) {
	s := models.DefaultSchedule(1)
	s.Frequency = models.FrequencyWeekly
	s.Times = []string{"10:00"}

	// 2024-01-03 is a Wednesday.
	wednesday := ts(t, "2024-01-03T12:00:00Z")

	// Friday slot later this week.
	s.Days = []int{5}
	got := NextRequiredCheckIn(s, wednesday, time.UTC)
	if want := ts(t, "2024-01-05T10:00:00Z"); !got.Equal(want) {
		t.Fatalf("want Friday, got %s", got.Format(time.RFC3339))
	}

	// Monday only: must wrap past the weekend, not into the past.
	s.Days = []int{1}
	got = NextRequiredCheckIn(s, wednesday, time.UTC)
	if want := ts(t, "2024-01-08T10:00:00Z"); !got.Equal(want) {
		t.Fatalf("want next Monday, got %s", got.Format(time.RFC3339))
	}

	// Today's slot still ahead counts as today.
	s.Days = []int{3}
	got = NextRequiredCheckIn(s, ts(t, "2024-01-03T08:00:00Z"), time.UTC)
	if want := ts(t, "2024-01-03T10:00:00Z"); !got.Equal(want) {
		t.Fatalf("want same Wednesday, got %s", got.Format(time.RFC3339))
	}
}

func TestNextRequiredCheckIn_WeeklyNeverMoreThanAWeekOut(t *testing.T) {
	s := models.DefaultSchedule(1)
	s.Frequency = models.FrequencyWeekly
	s.Times = []string{"00:30", "23:30"}

	for day := 0; day <= 6; day++ {
		s.Days = []int{day}
		for hour := 0; hour < 24; hour++ {
			from := time.Date(2024, time.March, 10+hour%7, hour, 17, 0, 0, time.UTC)
			got := NextRequiredCheckIn(s, from, time.UTC)
			if !got.After(from) {
				t.Fatalf("day=%d from=%s: result %s not in the future", day, from, got)
			}
			if got.Sub(from) > 7*24*time.Hour {
				t.Fatalf("day=%d from=%s: result %s more than 7 days out", day, from, got)
			}
		}
	}
}

func TestNextRequiredCheckIn_ReferenceTimezone(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	s := daily("09:00")
	// 13:00 UTC on Jan 1 is 08:00 in New York: 09:00 local is still ahead.
	got := NextRequiredCheckIn(s, ts(t, "2024-01-01T13:00:00Z"), loc)
	if want := time.Date(2024, time.January, 1, 9, 0, 0, 0, loc); !got.Equal(want) {
		t.Fatalf("want %s, got %s", want, got)
	}
}

func TestAlertDeadline_NoHistoryIsDueNow(t *testing.T) {
	now := ts(t, "2024-01-01T12:00:00Z")
	got := AlertDeadline(models.DefaultSchedule(1), nil, now, time.UTC)
	if !got.Equal(now) {
		t.Fatalf("want deadline == now, got %s", got.Format(time.RFC3339))
	}
}

func TestAlertDeadline_GraceAddedToNextRequired(t *testing.T) {
	s := daily("09:00")
	last := &models.CheckIn{Timestamp: ts(t, "2024-01-01T09:05:00Z")}

	got := AlertDeadline(s, last, ts(t, "2024-01-02T08:00:00Z"), time.UTC)
	if want := ts(t, "2024-01-02T10:00:00Z"); !got.Equal(want) {
		t.Fatalf("want %s, got %s", want.Format(time.RFC3339), got.Format(time.RFC3339))
	}
}

func TestClassify_DailyScenario(t *testing.T) {
	s := daily("09:00")
	last := &models.CheckIn{Timestamp: ts(t, "2024-01-01T09:05:00Z")}

	tests := []struct {
		now  string
		want Status
	}{
		{"2024-01-02T08:00:00Z", StatusCompliant},
		{"2024-01-02T09:45:00Z", StatusDueSoon},
		{"2024-01-02T10:01:00Z", StatusOverdue},
	}

	for _, tt := range tests {
		if got := Classify(s, last, ts(t, tt.now), time.UTC); got != tt.want {
			t.Errorf("at %s: want %s, got %s", tt.now, tt.want, got)
		}
	}
}

func TestClassify_MonotonicInTime(t *testing.T) {
	s := daily("09:00")
	last := &models.CheckIn{Timestamp: ts(t, "2024-01-01T09:05:00Z")}

	rank := map[Status]int{StatusCompliant: 0, StatusDueSoon: 1, StatusOverdue: 2}

	prev := -1
	for now := ts(t, "2024-01-02T00:00:00Z"); now.Before(ts(t, "2024-01-02T12:00:00Z")); now = now.Add(5 * time.Minute) {
		got := rank[Classify(s, last, now, time.UTC)]
		if got < prev {
			t.Fatalf("status moved backward at %s", now.Format(time.RFC3339))
		}
		prev = got
	}
}

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{-time.Minute, "Overdue"},
		{45 * time.Minute, "45m"},
		{5*time.Hour + 12*time.Minute, "5h 12m"},
		{49 * time.Hour, "2 days"},
	}

	for _, tt := range tests {
		if got := FormatRemaining(tt.d); got != tt.want {
			t.Errorf("FormatRemaining(%v): want %q, got %q", tt.d, tt.want, got)
		}
	}
}
