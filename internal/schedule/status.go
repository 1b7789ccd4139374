package schedule

import (
	"fmt"
	"time"

	"github.com/alfredang/iamgood/internal/models"
)

// Status is the compliance classification of a user at an instant
type Status string

const (
	StatusCompliant Status = "compliant"
	StatusDueSoon   Status = "due-soon"
	StatusOverdue   Status = "overdue"
)

// DueSoonWindow is how long before the alert deadline a user is flagged as
// due-soon. Fixed, independent of the grace period length.
const DueSoonWindow = 30 * time.Minute

// Classify maps the time remaining until the alert deadline onto a status.
func Classify(s *models.Schedule, lastCheckIn *models.CheckIn, now time.Time, loc *time.Location) Status {
	remaining := AlertDeadline(s, lastCheckIn, now, loc).Sub(now)
	switch {
	case remaining < 0:
		return StatusOverdue
	case remaining < DueSoonWindow:
		return StatusDueSoon
	default:
		return StatusCompliant
	}
}

// FormatRemaining renders a duration until deadline for display, e.g.
// "3 days", "5h 12m", "45m", or "Overdue" once the deadline has passed.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		return "Overdue"
	}
	totalMinutes := int(d.Minutes())
	hours := totalMinutes / 60
	minutes := totalMinutes % 60

	if hours > 24 {
		days := hours / 24
		if days > 1 {
			return fmt.Sprintf("%d days", days)
		}
		return "1 day"
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
