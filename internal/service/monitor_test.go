package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alfredang/iamgood/internal/models"
	"github.com/alfredang/iamgood/internal/notify"
)

// ---------------------------------------------------------------------------
// In-memory fakes
// ---------------------------------------------------------------------------

type fakeStore struct {
	users     []*models.User
	schedules map[int64]*models.Schedule
	checkIns  map[int64][]*models.CheckIn
	contacts  map[int64][]*models.EmergencyContact
	alertLogs []*models.AlertLog
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		schedules: make(map[int64]*models.Schedule),
		checkIns:  make(map[int64][]*models.CheckIn),
		contacts:  make(map[int64][]*models.EmergencyContact),
	}
}

type fakeUserRepo struct{ s *fakeStore }

func (r *fakeUserRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	r.s.users = append(r.s.users, u)
	return u, nil
}
func (r *fakeUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	for _, u := range r.s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}
func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range r.s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}
func (r *fakeUserRepo) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	for _, u := range r.s.users {
		if u.TelegramID != nil && *u.TelegramID == telegramID {
			return u, nil
		}
	}
	return nil, nil
}
func (r *fakeUserRepo) GetByRole(ctx context.Context, role models.Role) ([]*models.User, error) {
	var out []*models.User
	for _, u := range r.s.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}
func (r *fakeUserRepo) Update(ctx context.Context, u *models.User) (*models.User, error) {
	return u, nil
}

type fakeScheduleRepo struct{ s *fakeStore }

func (r *fakeScheduleRepo) Upsert(ctx context.Context, sched *models.Schedule) (*models.Schedule, error) {
	r.s.schedules[sched.UserID] = sched
	return sched, nil
}
func (r *fakeScheduleRepo) GetByUserID(ctx context.Context, userID int64) (*models.Schedule, error) {
	return r.s.schedules[userID], nil
}

type fakeCheckInRepo struct{ s *fakeStore }

func (r *fakeCheckInRepo) Create(ctx context.Context, c *models.CheckIn) (*models.CheckIn, error) {
	r.s.checkIns[c.UserID] = append(r.s.checkIns[c.UserID], c)
	return c, nil
}
func (r *fakeCheckInRepo) GetLatest(ctx context.Context, userID int64) (*models.CheckIn, error) {
	var latest *models.CheckIn
	for _, c := range r.s.checkIns[userID] {
		if latest == nil || c.Timestamp.After(latest.Timestamp) {
			latest = c
		}
	}
	return latest, nil
}
func (r *fakeCheckInRepo) GetByUserID(ctx context.Context, userID int64, limit int) ([]*models.CheckIn, error) {
	return r.s.checkIns[userID], nil
}

type fakeContactRepo struct{ s *fakeStore }

func (r *fakeContactRepo) Create(ctx context.Context, c *models.EmergencyContact) (*models.EmergencyContact, error) {
	r.s.contacts[c.UserID] = append(r.s.contacts[c.UserID], c)
	return c, nil
}
func (r *fakeContactRepo) GetByUserID(ctx context.Context, userID int64) ([]*models.EmergencyContact, error) {
	return r.s.contacts[userID], nil
}
func (r *fakeContactRepo) CountByUserID(ctx context.Context, userID int64) (int, error) {
	return len(r.s.contacts[userID]), nil
}
func (r *fakeContactRepo) Delete(ctx context.Context, id, userID int64) error { return nil }

type fakeAlertLogRepo struct{ s *fakeStore }

func (r *fakeAlertLogRepo) Create(ctx context.Context, log *models.AlertLog) (*models.AlertLog, error) {
	r.s.alertLogs = append(r.s.alertLogs, log)
	return log, nil
}
func (r *fakeAlertLogRepo) GetSince(ctx context.Context, userID int64, since time.Time) ([]*models.AlertLog, error) {
	var out []*models.AlertLog
	for _, l := range r.s.alertLogs {
		if l.UserID == userID && l.SentAt.After(since) {
			out = append(out, l)
		}
	}
	return out, nil
}
func (r *fakeAlertLogRepo) GetByUserID(ctx context.Context, userID int64, limit int) ([]*models.AlertLog, error) {
	return r.s.alertLogs, nil
}

type fakeTransport struct {
	failFor map[string]bool
	sent    []string
}

func (t *fakeTransport) Send(ctx context.Context, to, subject, body string) error {
	t.sent = append(t.sent, to)
	if t.failFor[to] {
		return errors.New("delivery refused")
	}
	return nil
}

var _ notify.Transport = (*fakeTransport)(nil)

func newTestService(store *fakeStore, transport notify.Transport) *Service {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return New(nil, logger, time.UTC, transport,
		&fakeUserRepo{store},
		&fakeScheduleRepo{store},
		&fakeCheckInRepo{store},
		&fakeContactRepo{store},
		&fakeAlertLogRepo{store},
	)
}

func customSchedule(userID int64, hours, graceMinutes int) *models.Schedule {
	s := models.DefaultSchedule(userID)
	s.Frequency = models.FrequencyCustom
	s.CustomIntervalHours = hours
	s.GracePeriodMinutes = graceMinutes
	return s
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestRunOverdueCheck_AlertsOncePerEpisode(t *testing.T) {
	store := newFakeStore()
	store.users = []*models.User{{ID: 1, Name: "Alice", Role: models.RoleUser}}
	store.schedules[1] = customSchedule(1, 24, 60)
	store.contacts[1] = []*models.EmergencyContact{
		{ID: 10, UserID: 1, Name: "Bob", Email: "bob@example.com"},
	}

	base := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	store.checkIns[1] = []*models.CheckIn{{UserID: 1, Timestamp: base}}

	svc := newTestService(store, &fakeTransport{})

	// 25h after the last check-in: one interval plus grace has elapsed.
	first, err := svc.RunOverdueCheck(context.Background(), base.Add(25*time.Hour))
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Overdue != 1 || first.Alerted != 1 {
		t.Fatalf("first run: want 1 overdue/alerted, got %+v", first)
	}
	if len(store.alertLogs) != 1 {
		t.Fatalf("want 1 alert log row, got %d", len(store.alertLogs))
	}

	// Five minutes later, nothing new has happened: the episode is already
	// covered by the row the first run wrote.
	second, err := svc.RunOverdueCheck(context.Background(), base.Add(25*time.Hour+5*time.Minute))
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Overdue != 0 || second.Alerted != 0 {
		t.Fatalf("second run should be suppressed, got %+v", second)
	}
	if len(store.alertLogs) != 1 {
		t.Fatalf("second run wrote duplicate rows: %d", len(store.alertLogs))
	}
}

func TestRunOverdueCheck_CompliantUserNotAlerted(t *testing.T) {
	store := newFakeStore()
	store.users = []*models.User{{ID: 1, Name: "Alice", Role: models.RoleUser}}
	store.schedules[1] = customSchedule(1, 24, 60)
	store.contacts[1] = []*models.EmergencyContact{{ID: 10, UserID: 1, Name: "Bob", Email: "bob@example.com"}}

	base := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	store.checkIns[1] = []*models.CheckIn{{UserID: 1, Timestamp: base}}

	svc := newTestService(store, &fakeTransport{})

	// Inside the grace period: interval elapsed but grace has not.
	summary, err := svc.RunOverdueCheck(context.Background(), base.Add(24*time.Hour+30*time.Minute))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Overdue != 0 || len(store.alertLogs) != 0 {
		t.Fatalf("user inside grace period was alerted: %+v", summary)
	}
}

func TestRunOverdueCheck_SkipsUserWithNoHistory(t *testing.T) {
	store := newFakeStore()
	store.users = []*models.User{{ID: 1, Name: "Alice", Role: models.RoleUser}}
	store.schedules[1] = customSchedule(1, 24, 60)
	store.contacts[1] = []*models.EmergencyContact{{ID: 10, UserID: 1, Name: "Bob", Email: "bob@example.com"}}

	svc := newTestService(store, &fakeTransport{})

	summary, err := svc.RunOverdueCheck(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Overdue != 0 || len(store.alertLogs) != 0 {
		t.Fatal("user with no check-in history must not be alerted")
	}
}

func TestRunOverdueCheck_SkipsUserWithoutContacts(t *testing.T) {
	store := newFakeStore()
	store.users = []*models.User{{ID: 1, Name: "Alice", Role: models.RoleUser}}
	store.schedules[1] = customSchedule(1, 24, 60)

	base := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	store.checkIns[1] = []*models.CheckIn{{UserID: 1, Timestamp: base}}

	svc := newTestService(store, &fakeTransport{})

	summary, err := svc.RunOverdueCheck(context.Background(), base.Add(25*time.Hour))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Overdue != 0 || len(store.alertLogs) != 0 {
		t.Fatal("user without contacts must be skipped, nothing to notify")
	}
}

func TestRunOverdueCheck_PartialFailureIndependence(t *testing.T) {
	store := newFakeStore()
	store.users = []*models.User{{ID: 1, Name: "Alice", Role: models.RoleUser}}
	store.schedules[1] = customSchedule(1, 24, 60)
	store.contacts[1] = []*models.EmergencyContact{
		{ID: 10, UserID: 1, Name: "Bob", Email: "bob@example.com"},
		{ID: 11, UserID: 1, Name: "Carol", Email: "carol@example.com"},
	}

	base := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	store.checkIns[1] = []*models.CheckIn{{UserID: 1, Timestamp: base}}

	transport := &fakeTransport{failFor: map[string]bool{"bob@example.com": true}}
	svc := newTestService(store, transport)

	summary, err := svc.RunOverdueCheck(context.Background(), base.Add(25*time.Hour))
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(store.alertLogs) != 2 {
		t.Fatalf("want one row per contact, got %d", len(store.alertLogs))
	}
	byContact := make(map[int64]models.AlertStatus)
	for _, l := range store.alertLogs {
		byContact[*l.ContactID] = l.Status
	}
	if byContact[10] != models.AlertStatusFailed || byContact[11] != models.AlertStatusSent {
		t.Fatalf("independent statuses not recorded: %+v", byContact)
	}

	if len(summary.PerUser) != 1 {
		t.Fatalf("want one per-user result, got %d", len(summary.PerUser))
	}
	if r := summary.PerUser[0]; r.Attempts != 2 || r.Sent != 1 {
		t.Fatalf("want 2 attempts / 1 sent, got %+v", r)
	}
}

func TestRunOverdueCheck_SMSChannel(t *testing.T) {
	store := newFakeStore()
	store.users = []*models.User{{ID: 1, Name: "Alice", Role: models.RoleUser}}
	store.schedules[1] = customSchedule(1, 24, 60)
	store.contacts[1] = []*models.EmergencyContact{
		{ID: 10, UserID: 1, Name: "Bob", Email: "bob@example.com", Phone: "+1 (555) 123-4567"},
		{ID: 11, UserID: 1, Name: "Carol", Email: "carol@example.com", Phone: "123"},
	}

	base := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	store.checkIns[1] = []*models.CheckIn{{UserID: 1, Timestamp: base}}

	transport := &fakeTransport{}
	svc := newTestService(store, transport)
	svc.SetSMSGateway("txt.example.com")

	summary, err := svc.RunOverdueCheck(context.Background(), base.Add(25*time.Hour))
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	// Bob: email + SMS. Carol: email only, her number fails normalization
	// and the SMS channel is never attempted, so no row for it either.
	if len(store.alertLogs) != 3 {
		t.Fatalf("want 3 alert log rows, got %d", len(store.alertLogs))
	}
	var smsRows int
	for _, l := range store.alertLogs {
		if l.AlertType == models.AlertTypeSMS {
			smsRows++
			if *l.ContactID != 10 {
				t.Fatalf("sms row for wrong contact %d", *l.ContactID)
			}
		}
	}
	if smsRows != 1 {
		t.Fatalf("want exactly 1 sms row, got %d", smsRows)
	}

	found := false
	for _, to := range transport.sent {
		if to == "5551234567@txt.example.com" {
			found = true
		}
	}
	if !found {
		t.Fatalf("sms gateway address never used: %v", transport.sent)
	}

	if r := summary.PerUser[0]; r.Attempts != 3 || r.Sent != 3 {
		t.Fatalf("want 3 attempts / 3 sent, got %+v", r)
	}
}

func TestRunOverdueCheck_UnconfiguredTransportRecordsFailure(t *testing.T) {
	store := newFakeStore()
	store.users = []*models.User{{ID: 1, Name: "Alice", Role: models.RoleUser}}
	store.schedules[1] = customSchedule(1, 24, 60)
	store.contacts[1] = []*models.EmergencyContact{{ID: 10, UserID: 1, Name: "Bob", Email: "bob@example.com"}}

	base := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	store.checkIns[1] = []*models.CheckIn{{UserID: 1, Timestamp: base}}

	svc := newTestService(store, notify.Disabled())

	if _, err := svc.RunOverdueCheck(context.Background(), base.Add(25*time.Hour)); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(store.alertLogs) != 1 || store.alertLogs[0].Status != models.AlertStatusFailed {
		t.Fatalf("unconfigured transport must record a failed attempt: %+v", store.alertLogs)
	}
}
