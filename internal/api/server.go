package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/alfredang/iamgood/internal/models"
	"github.com/alfredang/iamgood/internal/service"
)

// Server provides the HTTP API.
type Server struct {
	svc        *service.Service
	logger     *logrus.Logger
	mux        *http.ServeMux
	cronSecret string
}

// NewServer creates a Server, registers all routes, and returns it.
// cronSecret, when non-empty, is required as a bearer token on the cron
// trigger endpoint.
func NewServer(svc *service.Service, logger *logrus.Logger, cronSecret string) *Server {
	s := &Server{svc: svc, logger: logger, mux: http.NewServeMux(), cronSecret: cronSecret}
	s.routes()
	return s
}

// Handler returns the http.Handler that can be passed to http.Server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ---------------------------------------------------------------------------
// Routes
// ---------------------------------------------------------------------------

func (s *Server) routes() {
	// API – Users
	s.mux.HandleFunc("POST /api/users", s.handleCreateUser)
	s.mux.HandleFunc("GET /api/users", s.handleGetUsers)

	// API – Check-ins
	s.mux.HandleFunc("POST /api/checkins", s.handleCreateCheckIn)
	s.mux.HandleFunc("GET /api/checkins", s.handleGetCheckIns)
	s.mux.HandleFunc("GET /api/status", s.handleGetStatus)

	// API – Schedule
	s.mux.HandleFunc("GET /api/schedule", s.handleGetSchedule)
	s.mux.HandleFunc("PUT /api/schedule", s.handleSaveSchedule)

	// API – Emergency contacts
	s.mux.HandleFunc("GET /api/contacts", s.handleGetContacts)
	s.mux.HandleFunc("POST /api/contacts", s.handleCreateContact)
	s.mux.HandleFunc("DELETE /api/contacts/{id}", s.handleDeleteContact)

	// API – Alert audit trail
	s.mux.HandleFunc("GET /api/alerts", s.handleGetAlerts)

	// Overdue check trigger for external timers (cron)
	s.mux.HandleFunc("POST /api/cron", s.handleCron)

	// Operational endpoints
	s.mux.Handle("GET /metrics", promhttp.Handler())
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
}

// ---------------------------------------------------------------------------
// JSON helpers
// ---------------------------------------------------------------------------

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.WithError(err).Error("failed to encode JSON response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// decodeJSON reads the request body into dst and returns an error message on
// failure.  The caller should return immediately when ok == false.
func (s *Server) decodeJSON(r *http.Request, dst any) (ok bool, errMsg string) {
	if r.Body == nil {
		return false, "request body is empty"
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return false, fmt.Sprintf("invalid JSON: %v", err)
	}
	return true, ""
}

// pathID extracts the {id} path value and converts it to int64.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	if raw == "" {
		return 0, fmt.Errorf("missing id in path")
	}
	return strconv.ParseInt(raw, 10, 64)
}

// requireUserID reads the user_id query parameter.  It writes an error
// response and returns 0 when the parameter is absent or invalid.
func (s *Server) requireUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("user_id")
	if raw == "" {
		s.respondError(w, http.StatusBadRequest, "user_id query parameter is required")
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "user_id must be an integer")
		return 0, false
	}
	return id, true
}

func queryLimit(r *http.Request) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return 0
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

type createUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	role := models.Role(req.Role)
	if req.Role != "" && role != models.RoleUser && role != models.RoleAdmin {
		s.respondError(w, http.StatusBadRequest, "role must be user or admin")
		return
	}

	user, err := s.svc.RegisterUser(r.Context(), req.Name, req.Email, role)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.respondJSON(w, http.StatusCreated, user)
}

func (s *Server) handleGetUsers(w http.ResponseWriter, r *http.Request) {
	role := models.Role(r.URL.Query().Get("role"))
	if role == "" {
		role = models.RoleUser
	}

	users, err := s.svc.Users.GetByRole(r.Context(), role)
	if err != nil {
		s.logger.WithError(err).Error("failed to get users")
		s.respondError(w, http.StatusInternalServerError, "failed to get users")
		return
	}

	s.respondJSON(w, http.StatusOK, users)
}

// ---------------------------------------------------------------------------
// Check-ins
// ---------------------------------------------------------------------------

type createCheckInRequest struct {
	UserID    int64  `json:"user_id"`
	HealthTag string `json:"health_tag"`
	Note      string `json:"note"`
}

func (s *Server) handleCreateCheckIn(w http.ResponseWriter, r *http.Request) {
	var req createCheckInRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	if req.UserID == 0 {
		s.respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	checkIn, err := s.svc.RecordCheckIn(r.Context(), req.UserID, models.HealthTag(req.HealthTag), req.Note)
	if err != nil {
		if strings.Contains(err.Error(), "invalid health tag") {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.WithError(err).Error("failed to record check-in")
		s.respondError(w, http.StatusInternalServerError, "failed to record check-in")
		return
	}

	s.respondJSON(w, http.StatusCreated, checkIn)
}

func (s *Server) handleGetCheckIns(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	checkIns, err := s.svc.CheckIns.GetByUserID(r.Context(), userID, queryLimit(r))
	if err != nil {
		s.logger.WithError(err).Error("failed to get check-ins")
		s.respondError(w, http.StatusInternalServerError, "failed to get check-ins")
		return
	}

	s.respondJSON(w, http.StatusOK, checkIns)
}

func (s *Server) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	info, err := s.svc.UserStatus(r.Context(), userID, time.Now())
	if err != nil {
		s.logger.WithError(err).Error("failed to get status")
		s.respondError(w, http.StatusInternalServerError, "failed to get status")
		return
	}

	s.respondJSON(w, http.StatusOK, info)
}

// ---------------------------------------------------------------------------
// Schedule
// ---------------------------------------------------------------------------

type saveScheduleRequest struct {
	UserID              int64    `json:"user_id"`
	Frequency           string   `json:"frequency"`
	Times               []string `json:"times"`
	Days                []int    `json:"days"`
	CustomIntervalHours int      `json:"custom_interval_hours"`
	GracePeriodMinutes  int      `json:"grace_period_minutes"`
}

func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	sched, err := s.svc.EffectiveSchedule(r.Context(), userID)
	if err != nil {
		s.logger.WithError(err).Error("failed to get schedule")
		s.respondError(w, http.StatusInternalServerError, "failed to get schedule")
		return
	}

	s.respondJSON(w, http.StatusOK, sched)
}

func (s *Server) handleSaveSchedule(w http.ResponseWriter, r *http.Request) {
	var req saveScheduleRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	if req.UserID == 0 {
		s.respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	sched, err := s.svc.SaveSchedule(r.Context(), &models.Schedule{
		UserID:              req.UserID,
		Frequency:           models.Frequency(req.Frequency),
		Times:               req.Times,
		Days:                req.Days,
		CustomIntervalHours: req.CustomIntervalHours,
		GracePeriodMinutes:  req.GracePeriodMinutes,
	})
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, sched)
}

// ---------------------------------------------------------------------------
// Emergency contacts
// ---------------------------------------------------------------------------

type createContactRequest struct {
	UserID       int64  `json:"user_id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Relationship string `json:"relationship"`
}

func (s *Server) handleGetContacts(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	contacts, err := s.svc.Contacts.GetByUserID(r.Context(), userID)
	if err != nil {
		s.logger.WithError(err).Error("failed to get contacts")
		s.respondError(w, http.StatusInternalServerError, "failed to get contacts")
		return
	}

	s.respondJSON(w, http.StatusOK, contacts)
}

func (s *Server) handleCreateContact(w http.ResponseWriter, r *http.Request) {
	var req createContactRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	if req.UserID == 0 {
		s.respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		s.respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		s.respondError(w, http.StatusBadRequest, "email is required")
		return
	}

	count, err := s.svc.Contacts.CountByUserID(r.Context(), req.UserID)
	if err != nil {
		s.logger.WithError(err).Error("failed to count contacts")
		s.respondError(w, http.StatusInternalServerError, "failed to add contact")
		return
	}
	if count >= models.MaxContactsPerUser {
		s.respondError(w, http.StatusBadRequest,
			fmt.Sprintf("at most %d emergency contacts are allowed", models.MaxContactsPerUser))
		return
	}

	contact, err := s.svc.Contacts.Create(r.Context(), &models.EmergencyContact{
		UserID:       req.UserID,
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.TrimSpace(req.Email),
		Phone:        strings.TrimSpace(req.Phone),
		Relationship: strings.TrimSpace(req.Relationship),
	})
	if err != nil {
		s.logger.WithError(err).Error("failed to create contact")
		s.respondError(w, http.StatusInternalServerError, "failed to add contact")
		return
	}

	s.respondJSON(w, http.StatusCreated, contact)
}

func (s *Server) handleDeleteContact(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid contact id")
		return
	}
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	if err := s.svc.Contacts.Delete(r.Context(), id, userID); err != nil {
		s.logger.WithError(err).Error("failed to delete contact")
		s.respondError(w, http.StatusNotFound, "contact not found")
		return
	}

	s.respondJSON(w, http.StatusNoContent, nil)
}

// ---------------------------------------------------------------------------
// Alert logs
// ---------------------------------------------------------------------------

func (s *Server) handleGetAlerts(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	logs, err := s.svc.AlertLogs.GetByUserID(r.Context(), userID, queryLimit(r))
	if err != nil {
		s.logger.WithError(err).Error("failed to get alert logs")
		s.respondError(w, http.StatusInternalServerError, "failed to get alert logs")
		return
	}

	s.respondJSON(w, http.StatusOK, logs)
}

// ---------------------------------------------------------------------------
// Cron trigger
// ---------------------------------------------------------------------------

func (s *Server) handleCron(w http.ResponseWriter, r *http.Request) {
	if s.cronSecret != "" {
		if r.Header.Get("Authorization") != "Bearer "+s.cronSecret {
			s.respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
	}

	summary, err := s.svc.RunOverdueCheck(r.Context(), time.Now())
	if err != nil {
		s.logger.WithError(err).Error("overdue check failed")
		s.respondError(w, http.StatusInternalServerError, fmt.Sprintf("overdue check failed: %v", err))
		return
	}

	s.respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
