package service

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/alfredang/iamgood/internal/metrics"
	"github.com/alfredang/iamgood/internal/models"
	"github.com/alfredang/iamgood/internal/notify"
	"github.com/alfredang/iamgood/internal/schedule"
)

// monitorLockID keys the postgres advisory lock that excludes overlapping
// overdue-check invocations across processes.
const monitorLockID int64 = 874551

// OverdueUser is a user requiring a new alert episode right now.
type OverdueUser struct {
	UserID   int64
	UserName string
	Contacts []*models.EmergencyContact
}

// UserAlertResult summarizes dispatch outcomes for one user.
type UserAlertResult struct {
	UserID   int64  `json:"user_id"`
	UserName string `json:"user_name"`
	Attempts int    `json:"attempts"`
	Sent     int    `json:"sent"`
}

// RunSummary is the structured result of one overdue-check invocation.
type RunSummary struct {
	StartedAt time.Time         `json:"started_at"`
	Scanned   int               `json:"scanned"`
	Overdue   int               `json:"overdue"`
	Alerted   int               `json:"alerted"`
	Skipped   bool              `json:"skipped"`
	PerUser   []UserAlertResult `json:"per_user,omitempty"`
}

// RunOverdueCheck scans all regular users for missed check-in deadlines and
// dispatches alerts for those starting a new overdue episode. It is
// idempotent: with no intervening check-in and no elapsed interval, a second
// call triggers nothing because the first call's alert log rows fall inside
// the dedup lookback window. Persistence failures abort the run; already
// written alert log rows stand and the next invocation re-evaluates.
func (s *Service) RunOverdueCheck(ctx context.Context, now time.Time) (*RunSummary, error) {
	summary := &RunSummary{StartedAt: now}

	if !s.running.CAS(false, true) {
		summary.Skipped = true
		metrics.MonitorRuns.WithLabelValues("skipped").Inc()
		return summary, nil
	}
	defer s.running.Store(false)

	if s.db != nil {
		release, acquired, err := s.acquireRunLock(ctx)
		if err != nil {
			metrics.MonitorRuns.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("acquire monitor lock: %w", err)
		}
		if !acquired {
			s.logger.Info("Overdue check already running elsewhere, skipping")
			summary.Skipped = true
			metrics.MonitorRuns.WithLabelValues("skipped").Inc()
			return summary, nil
		}
		defer release()
	}

	started := time.Now()
	defer func() {
		metrics.MonitorDuration.Observe(time.Since(started).Seconds())
	}()

	users, err := s.Users.GetByRole(ctx, models.RoleUser)
	if err != nil {
		metrics.MonitorRuns.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("list users: %w", err)
	}
	summary.Scanned = len(users)

	var overdue []*OverdueUser
	for _, user := range users {
		ou, err := s.evaluateUser(ctx, user, now)
		if err != nil {
			metrics.MonitorRuns.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("evaluate user %d: %w", user.ID, err)
		}
		if ou != nil {
			overdue = append(overdue, ou)
		}
	}
	summary.Overdue = len(overdue)

	var errs *multierror.Error
	for _, ou := range overdue {
		result, err := s.dispatch(ctx, ou, now)
		if err != nil {
			errs = multierror.Append(errs, err)
		}
		metrics.OverdueUsers.Inc()
		summary.Alerted++
		summary.PerUser = append(summary.PerUser, result)
	}

	if summary.Alerted > 0 {
		s.notifyOps(summary)
	}

	if errs.ErrorOrNil() != nil {
		metrics.MonitorRuns.WithLabelValues("error").Inc()
	} else {
		metrics.MonitorRuns.WithLabelValues("ok").Inc()
	}

	s.logger.WithFields(logrus.Fields{
		"scanned": summary.Scanned,
		"overdue": summary.Overdue,
		"alerted": summary.Alerted,
	}).Info("Overdue check completed")

	return summary, errs.ErrorOrNil()
}

// evaluateUser decides whether the user needs a new alert episode. Users
// with no check-in history are skipped: only an established history that has
// lapsed is alert-worthy. The dedup lookback uses the current schedule's
// interval, which makes suppression best-effort when the schedule changed
// shortly after an alert fired.
func (s *Service) evaluateUser(ctx context.Context, user *models.User, now time.Time) (*OverdueUser, error) {
	sched, err := s.EffectiveSchedule(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	last, err := s.CheckIns.GetLatest(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("get latest check-in: %w", err)
	}
	if last == nil {
		return nil, nil
	}

	deadline := schedule.AlertDeadline(sched, last, now, s.loc)
	if !now.After(deadline) {
		return nil, nil
	}

	recent, err := s.AlertLogs.GetSince(ctx, user.ID, now.Add(-sched.Interval()))
	if err != nil {
		return nil, fmt.Errorf("get recent alerts: %w", err)
	}
	if len(recent) > 0 {
		return nil, nil
	}

	contacts, err := s.Contacts.GetByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("get contacts: %w", err)
	}
	if len(contacts) == 0 {
		s.logger.WithField("user_id", user.ID).Warn("User is overdue but has no emergency contacts")
		return nil, nil
	}

	return &OverdueUser{UserID: user.ID, UserName: user.Name, Contacts: contacts}, nil
}

// dispatch notifies every contact of one overdue user. Each channel attempt
// gets exactly one alert log row, written before the next contact is
// processed, so one contact's failure never blocks another's notification
// and nothing is ever rolled back.
func (s *Service) dispatch(ctx context.Context, ou *OverdueUser, now time.Time) (UserAlertResult, error) {
	result := UserAlertResult{UserID: ou.UserID, UserName: ou.UserName}

	var errs *multierror.Error
	for _, contact := range ou.Contacts {
		subject, body := alertEmail(ou.UserName, contact.Name, now)

		result.Attempts++
		if s.attempt(ctx, ou, contact, models.AlertTypeEmail, contact.Email, subject, body, now, &errs) {
			result.Sent++
		}

		if contact.Phone == "" {
			continue
		}
		addr, ok := notify.SMSAddress(contact.Phone, s.smsGateway)
		if !ok {
			// Channel never attempted: no alert log row either.
			continue
		}

		result.Attempts++
		if s.attempt(ctx, ou, contact, models.AlertTypeSMS, addr, subject, smsBody(ou.UserName), now, &errs) {
			result.Sent++
		}
	}

	return result, errs.ErrorOrNil()
}

// attempt sends one notification and records its outcome. Transport errors
// become failed rows, never returned errors; only a failure to persist the
// row itself is reported, via errs.
func (s *Service) attempt(ctx context.Context, ou *OverdueUser, contact *models.EmergencyContact,
	alertType models.AlertType, destination, subject, body string, now time.Time, errs **multierror.Error) bool {

	status := models.AlertStatusSent
	if err := s.transport.Send(ctx, destination, subject, body); err != nil {
		status = models.AlertStatusFailed
		s.logger.WithError(err).WithFields(logrus.Fields{
			"user_id":    ou.UserID,
			"contact_id": contact.ID,
			"channel":    alertType,
		}).Warn("Alert delivery failed")
	}
	metrics.AlertAttempts.WithLabelValues(string(alertType), string(status)).Inc()

	contactID := contact.ID
	_, err := s.AlertLogs.Create(ctx, &models.AlertLog{
		UserID:    ou.UserID,
		ContactID: &contactID,
		AlertType: alertType,
		Status:    status,
		Message:   fmt.Sprintf("%s alert to %s <%s>: missed check-in by %s", alertType, contact.Name, destination, ou.UserName),
		SentAt:    now,
	})
	if err != nil {
		*errs = multierror.Append(*errs, fmt.Errorf("record %s alert for contact %d: %w", alertType, contact.ID, err))
	}

	return status == models.AlertStatusSent
}

func (s *Service) notifyOps(summary *RunSummary) {
	if s.ops == nil {
		return
	}
	text := fmt.Sprintf("⚠️ Missed check-ins: %d user(s) overdue, %d alert episode(s) triggered.", summary.Overdue, summary.Alerted)
	for _, r := range summary.PerUser {
		text += fmt.Sprintf("\n• %s: %d/%d notifications delivered", r.UserName, r.Sent, r.Attempts)
	}
	if err := s.ops.Notify(text); err != nil {
		s.logger.WithError(err).Warn("Failed to send ops notification")
	}
}

// acquireRunLock takes a session-level advisory lock on a dedicated
// connection. Releasing closes the connection, which also releases the lock
// even if the unlock statement itself fails.
func (s *Service) acquireRunLock(ctx context.Context) (release func(), acquired bool, err error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, false, err
	}

	var got bool
	if err := conn.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1)`, monitorLockID).Scan(&got); err != nil {
		conn.Close()
		return nil, false, err
	}
	if !got {
		conn.Close()
		return nil, false, nil
	}

	release = func() {
		if _, err := conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, monitorLockID); err != nil {
			s.logger.WithError(err).Warn("Failed to release monitor lock")
		}
		conn.Close()
	}
	return release, true, nil
}

// StartMonitor runs the overdue check on a fixed interval until the context
// is cancelled. It blocks, so it should be launched in a separate goroutine.
// Deployments with an external timer can skip this and hit the cron endpoint
// instead; both paths share the same idempotent run.
func (s *Service) StartMonitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Infof("Overdue monitor started, checking every %s", interval)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Overdue monitor stopped")
			return
		case <-ticker.C:
			if _, err := s.RunOverdueCheck(ctx, time.Now()); err != nil {
				s.logger.WithError(err).Error("Overdue check failed")
			}
		}
	}
}

func alertEmail(userName, contactName string, now time.Time) (subject, body string) {
	subject = fmt.Sprintf("Safety Alert: %s has missed their check-in", userName)
	body = fmt.Sprintf(`
		<div style="font-family: sans-serif; max-width: 480px; margin: 0 auto; padding: 24px;">
			<h1 style="font-size: 22px; text-align: center;">Safety Check-in Alert</h1>
			<p>Hi %s,</p>
			<p><strong>%s</strong> has missed their scheduled safety check-in.
			This may be nothing to worry about, but we wanted to let you know.</p>
			<p>Missed at: <strong>%s</strong></p>
			<p>Consider reaching out to %s to make sure they are okay.</p>
		</div>`,
		contactName, userName, now.Format("Mon, 02 Jan 2006 15:04 MST"), userName)
	return subject, body
}

func smsBody(userName string) string {
	return fmt.Sprintf("Safety alert: %s has missed their scheduled check-in. Please check on them.", userName)
}
