package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"github.com/alfredang/iamgood/internal/metrics"
	"github.com/alfredang/iamgood/internal/models"
	"github.com/alfredang/iamgood/internal/notify"
	"github.com/alfredang/iamgood/internal/repository"
	"github.com/alfredang/iamgood/internal/schedule"
)

// OpsNotifier receives human-readable monitor run notices. Optional.
type OpsNotifier interface {
	Notify(text string) error
}

// Service is the central business logic layer that holds all repositories
// and provides high-level methods for the application.
type Service struct {
	db        *sql.DB
	logger    *logrus.Logger
	loc       *time.Location
	transport notify.Transport

	Users     repository.UserRepository
	Schedules repository.ScheduleRepository
	CheckIns  repository.CheckInRepository
	Contacts  repository.ContactRepository
	AlertLogs repository.AlertLogRepository

	smsGateway string
	ops        OpsNotifier
	running    atomic.Bool
}

// New creates a new Service with all required dependencies. loc is the
// reference timezone in which schedule times-of-day are interpreted.
func New(db *sql.DB, logger *logrus.Logger, loc *time.Location, transport notify.Transport,
	users repository.UserRepository,
	schedules repository.ScheduleRepository,
	checkIns repository.CheckInRepository,
	contacts repository.ContactRepository,
	alertLogs repository.AlertLogRepository,
) *Service {
	return &Service{
		db: db, logger: logger, loc: loc, transport: transport,
		Users: users, Schedules: schedules, CheckIns: checkIns,
		Contacts: contacts, AlertLogs: alertLogs,
	}
}

// SetSMSGateway enables the SMS channel via an email-to-SMS gateway domain.
func (s *Service) SetSMSGateway(domain string) {
	s.smsGateway = domain
}

// SetOpsNotifier enables run-summary notices to an operations channel.
func (s *Service) SetOpsNotifier(n OpsNotifier) {
	s.ops = n
}

// RegisterUser creates a user after boundary validation.
func (s *Service) RegisterUser(ctx context.Context, name, email string, role models.Role) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" {
		return nil, fmt.Errorf("name and email are required")
	}
	if role == "" {
		role = models.RoleUser
	}

	existing, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("user with email %s already exists", email)
	}

	return s.Users.Create(ctx, &models.User{Name: name, Email: email, Role: role})
}

// LinkTelegram attaches a Telegram account to the user registered under
// email, so the user can check in from the bot.
func (s *Service) LinkTelegram(ctx context.Context, email string, telegramID int64) (*models.User, error) {
	user, err := s.Users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("no user registered with email %s", email)
	}

	user.TelegramID = &telegramID
	return s.Users.Update(ctx, user)
}

// RecordCheckIn appends a check-in for the user. The history is immutable;
// nothing is ever updated or deleted here.
func (s *Service) RecordCheckIn(ctx context.Context, userID int64, tag models.HealthTag, note string) (*models.CheckIn, error) {
	if tag == "" {
		tag = models.HealthTagOkay
	}
	if !tag.Valid() {
		return nil, fmt.Errorf("invalid health tag %q", tag)
	}

	checkIn, err := s.CheckIns.Create(ctx, &models.CheckIn{
		UserID:    userID,
		Timestamp: time.Now(),
		HealthTag: tag,
		Note:      strings.TrimSpace(note),
	})
	if err != nil {
		return nil, err
	}

	metrics.CheckIns.WithLabelValues(string(tag)).Inc()
	s.logger.WithFields(logrus.Fields{
		"user_id":    userID,
		"health_tag": tag,
	}).Info("Check-in recorded")

	return checkIn, nil
}

// EffectiveSchedule resolves the user's stored schedule, or the defaults
// when none was ever saved. All gaps are filled, so callers never see a
// partially specified schedule.
func (s *Service) EffectiveSchedule(ctx context.Context, userID int64) (*models.Schedule, error) {
	stored, err := s.Schedules.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	if stored == nil {
		return models.DefaultSchedule(userID), nil
	}
	stored.ApplyDefaults()
	return stored, nil
}

// SaveSchedule validates and upserts the user's schedule.
func (s *Service) SaveSchedule(ctx context.Context, sched *models.Schedule) (*models.Schedule, error) {
	sched.ApplyDefaults()
	if err := sched.Validate(); err != nil {
		return nil, err
	}
	return s.Schedules.Upsert(ctx, sched)
}

// StatusInfo is a snapshot of a user's compliance state.
type StatusInfo struct {
	Status        schedule.Status `json:"status"`
	NextRequired  *time.Time      `json:"next_required,omitempty"`
	AlertDeadline time.Time       `json:"alert_deadline"`
	Remaining     string          `json:"remaining"`
	LastCheckIn   *models.CheckIn `json:"last_check_in,omitempty"`
}

// UserStatus classifies the user at the given instant.
func (s *Service) UserStatus(ctx context.Context, userID int64, now time.Time) (*StatusInfo, error) {
	sched, err := s.EffectiveSchedule(ctx, userID)
	if err != nil {
		return nil, err
	}

	last, err := s.CheckIns.GetLatest(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get latest check-in: %w", err)
	}

	deadline := schedule.AlertDeadline(sched, last, now, s.loc)
	info := &StatusInfo{
		Status:        schedule.Classify(sched, last, now, s.loc),
		AlertDeadline: deadline,
		Remaining:     schedule.FormatRemaining(deadline.Sub(now)),
		LastCheckIn:   last,
	}
	if last != nil {
		next := schedule.NextRequiredCheckIn(sched, last.Timestamp, s.loc)
		info.NextRequired = &next
	}

	return info, nil
}
