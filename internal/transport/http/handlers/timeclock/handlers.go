package timeclockhandler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Smoothestguy/commndx-sub004/internal/domain/auth"
	"github.com/Smoothestguy/commndx-sub004/internal/domain/geo"
	"github.com/Smoothestguy/commndx-sub004/internal/domain/timeclock"
	"github.com/Smoothestguy/commndx-sub004/internal/platform/metrics"
	"github.com/Smoothestguy/commndx-sub004/internal/transport/http/api"
	"github.com/Smoothestguy/commndx-sub004/internal/transport/http/middleware"
	"github.com/Smoothestguy/commndx-sub004/internal/transport/http/shared"
)

type Handler struct {
	Service     *timeclock.Service
	Metrics     *metrics.Collector
	Idempotency *middleware.IdempotencyStore
}

func NewHandler(service *timeclock.Service, collector *metrics.Collector, idempotency *middleware.IdempotencyStore) *Handler {
	return &Handler{Service: service, Metrics: collector, Idempotency: idempotency}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/timeclock", func(r chi.Router) {
		r.Post("/clock-in", h.handleClockIn)
		r.Post("/clock-out", h.handleClockOut)
		r.Post("/lunch/start", h.handleLunchStart)
		r.Post("/lunch/end", h.handleLunchEnd)
		r.Get("/status", h.handleStatus)
		r.Post("/ping", h.handlePing)
		r.With(middleware.RequirePermission(auth.PermTimeclockRead)).Get("/open", h.handleOpenSessions)
		r.With(middleware.RequirePermission(auth.PermTimeclockAdmin)).Post("/block/{personID}", h.handleBlock)
	})
}

// geoPayload mirrors what the device capture produces: coordinates when
// granted, an error string when denied or timed out.
type geoPayload struct {
	Lat        *float64 `json:"lat"`
	Lng        *float64 `json:"lng"`
	Accuracy   *float64 `json:"accuracy"`
	Error      *string  `json:"error"`
	CapturedAt *string  `json:"capturedAt"`
}

func (p *geoPayload) toFix(now time.Time) geo.Fix {
	if p == nil {
		return geo.Fix{}
	}
	capturedAt := now
	if p.CapturedAt != nil {
		if parsed, err := time.Parse(time.RFC3339, *p.CapturedAt); err == nil {
			capturedAt = parsed
		}
	}
	if p.Error != nil && *p.Error != "" {
		return geo.FailedFix(*p.Error, capturedAt)
	}
	if p.Lat != nil && p.Lng != nil {
		return geo.DeviceFix(*p.Lat, *p.Lng, p.Accuracy, capturedAt)
	}
	return geo.Fix{}
}

type clockInRequest struct {
	ProjectID string      `json:"projectId"`
	Geo       *geoPayload `json:"geo"`
}

type clockOutRequest struct {
	SessionID string      `json:"sessionId"`
	Geo       *geoPayload `json:"geo"`
}

type lunchRequest struct {
	SessionID string `json:"sessionId"`
}

func (h *Handler) handleClockIn(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok || user.PersonID == "" {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}

	body, done := h.replayOrRead(w, r, user.UserID, "timeclock/clock-in")
	if done {
		return
	}

	var payload clockInRequest
	if err := json.Unmarshal(body, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	v := shared.NewValidator()
	v.Required("projectId", payload.ProjectID, "project is required")
	if payload.Geo != nil {
		v.Coordinate("geo.lat", payload.Geo.Lat, -90, 90)
		v.Coordinate("geo.lng", payload.Geo.Lng, -180, 180)
	}
	if v.Reject(w, reqID) {
		return
	}

	session, err := h.Service.ClockIn(r.Context(), user.PersonID, payload.ProjectID, payload.Geo.toFix(time.Now().UTC()))
	if err != nil {
		if h.Metrics != nil {
			h.Metrics.RecordBlockedClockIn()
		}
		h.failTimeclock(w, err, reqID)
		return
	}
	if h.Metrics != nil {
		h.Metrics.RecordClockIn()
	}

	h.respondAndRemember(w, r, user.UserID, "timeclock/clock-in", body, sessionView(session), reqID)
}

func (h *Handler) handleClockOut(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok || user.PersonID == "" {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}

	body, done := h.replayOrRead(w, r, user.UserID, "timeclock/clock-out")
	if done {
		return
	}

	var payload clockOutRequest
	if err := json.Unmarshal(body, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	sessionID := payload.SessionID
	if sessionID == "" {
		open, err := h.Service.Status(r.Context(), user.PersonID)
		if err != nil {
			api.Fail(w, http.StatusInternalServerError, "status_failed", "failed to resolve open session", reqID)
			return
		}
		if open == nil {
			h.failTimeclock(w, timeclock.ErrNoOpenSession, reqID)
			return
		}
		sessionID = open.ID
	}

	result, err := h.Service.ClockOut(r.Context(), sessionID, payload.Geo.toFix(time.Now().UTC()))
	if err != nil {
		h.failTimeclock(w, err, reqID)
		return
	}
	if h.Metrics != nil {
		h.Metrics.RecordClockOut()
	}

	data := map[string]any{
		"session":  sessionView(result.Session),
		"recordId": result.RecordID,
		"hours":    result.Hours,
	}
	if result.Warning != nil {
		data["geofenceWarning"] = result.Warning
	}
	h.respondAndRemember(w, r, user.UserID, "timeclock/clock-out", body, data, reqID)
}

func (h *Handler) handleLunchStart(w http.ResponseWriter, r *http.Request) {
	h.handleLunch(w, r, h.Service.StartLunch)
}

func (h *Handler) handleLunchEnd(w http.ResponseWriter, r *http.Request) {
	h.handleLunch(w, r, h.Service.EndLunch)
}

func (h *Handler) handleLunch(w http.ResponseWriter, r *http.Request, transition func(ctx context.Context, sessionID string) (timeclock.ClockSession, error)) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok || user.PersonID == "" {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}

	var payload lunchRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	sessionID := payload.SessionID
	if sessionID == "" {
		open, err := h.Service.Status(r.Context(), user.PersonID)
		if err != nil {
			api.Fail(w, http.StatusInternalServerError, "status_failed", "failed to resolve open session", reqID)
			return
		}
		if open == nil {
			h.failTimeclock(w, timeclock.ErrNoOpenSession, reqID)
			return
		}
		sessionID = open.ID
	}

	session, err := transition(r.Context(), sessionID)
	if err != nil {
		h.failTimeclock(w, err, reqID)
		return
	}
	api.Success(w, sessionView(session), reqID)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok || user.PersonID == "" {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}

	session, err := h.Service.Status(r.Context(), user.PersonID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "status_failed", "failed to load status", reqID)
		return
	}
	if session == nil {
		api.Success(w, map[string]any{"state": timeclock.StateNotClocked}, reqID)
		return
	}

	elapsed := timeclock.Elapsed(time.Now().UTC(), session.ClockInAt, session.LunchDurationMinutes)
	data := sessionView(*session)
	data["elapsedSeconds"] = int(elapsed.Seconds())
	api.Success(w, data, reqID)
}

type pingRequest struct {
	Geo *geoPayload `json:"geo"`
}

// handlePing records the device's current fix so the drift monitor has a
// fresh sample between clock transitions.
func (h *Handler) handlePing(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok || user.PersonID == "" {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}

	var payload pingRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	if err := h.Service.ReportLocation(r.Context(), user.PersonID, payload.Geo.toFix(time.Now().UTC())); err != nil {
		api.Fail(w, http.StatusInternalServerError, "ping_failed", "failed to record location", reqID)
		return
	}
	api.Success(w, map[string]string{"status": "recorded"}, reqID)
}

func (h *Handler) handleOpenSessions(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	sessions, err := h.Service.OpenSessions(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_failed", "failed to list open sessions", reqID)
		return
	}

	views := make([]map[string]any, 0, len(sessions))
	for _, session := range sessions {
		views = append(views, sessionView(session))
	}
	api.Success(w, views, reqID)
}

type blockRequest struct {
	Until   string `json:"until"`
	Minutes int    `json:"minutes"`
}

func (h *Handler) handleBlock(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	personID := chi.URLParam(r, "personID")

	var payload blockRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	until := time.Now().UTC()
	switch {
	case payload.Until != "":
		parsed, err := time.Parse(time.RFC3339, payload.Until)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "until must be RFC3339", reqID)
			return
		}
		until = parsed
	case payload.Minutes > 0:
		until = until.Add(time.Duration(payload.Minutes) * time.Minute)
	default:
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "until or minutes is required", reqID)
		return
	}

	if err := h.Service.BlockClockIns(r.Context(), personID, until); err != nil {
		api.Fail(w, http.StatusInternalServerError, "block_failed", "failed to set block window", reqID)
		return
	}
	api.Success(w, map[string]any{"personId": personID, "blockedUntil": until.Format(time.RFC3339)}, reqID)
}

func sessionView(session timeclock.ClockSession) map[string]any {
	view := map[string]any{
		"id":                   session.ID,
		"personId":             session.PersonID,
		"projectId":            session.ProjectID,
		"state":                session.State(),
		"clockInAt":            session.ClockInAt.Format(time.RFC3339),
		"lunchTaken":           session.LunchTaken(),
		"lunchDurationMinutes": session.LunchDurationMinutes,
	}
	if session.ClockOutAt != nil {
		view["clockOutAt"] = session.ClockOutAt.Format(time.RFC3339)
	}
	return view
}

// failTimeclock maps domain errors onto the response envelope. Late blocks
// and geofence violations keep their structured payloads so clients can
// render the guidance without parsing message strings.
func (h *Handler) failTimeclock(w http.ResponseWriter, err error, reqID string) {
	var lateBlock *timeclock.LateBlockError
	if errors.As(err, &lateBlock) {
		api.FailWithDetails(w, http.StatusConflict, "LATE_CLOCK_IN_BLOCKED", lateBlock.Error(), map[string]any{
			"minutesLate":   lateBlock.MinutesLate,
			"scheduledTime": lateBlock.ScheduledTime,
		}, reqID)
		return
	}
	var violation *timeclock.GeofenceViolationError
	if errors.As(err, &violation) {
		api.FailWithDetails(w, http.StatusForbidden, "GEOFENCE_VIOLATION", violation.Error(), map[string]any{
			"distanceMiles": violation.DistanceMiles,
			"radiusMiles":   violation.RadiusMiles,
		}, reqID)
		return
	}

	switch {
	case errors.Is(err, timeclock.ErrAlreadyClockedIn):
		api.Fail(w, http.StatusConflict, "already_clocked_in", "an open session already exists", reqID)
	case errors.Is(err, timeclock.ErrNoOpenSession):
		api.Fail(w, http.StatusConflict, "no_open_session", "no open session to transition", reqID)
	case errors.Is(err, timeclock.ErrLunchAlreadyTaken):
		api.Fail(w, http.StatusConflict, "lunch_already_taken", "lunch was already taken this session", reqID)
	case errors.Is(err, timeclock.ErrNotOnLunch):
		api.Fail(w, http.StatusConflict, "not_on_lunch", "no lunch in progress", reqID)
	case errors.Is(err, timeclock.ErrClockBlocked):
		api.Fail(w, http.StatusForbidden, "clock_blocked", "clock-ins are blocked for this person", reqID)
	case errors.Is(err, timeclock.ErrTimeClockDisabled):
		api.Fail(w, http.StatusForbidden, "timeclock_disabled", "time clock is disabled for this project", reqID)
	case errors.Is(err, timeclock.ErrLocationRequiredDenied):
		api.Fail(w, http.StatusForbidden, "location_required", "this project requires a device location", reqID)
	case errors.Is(err, timeclock.ErrSessionNotFound):
		api.Fail(w, http.StatusNotFound, "session_not_found", "session not found", reqID)
	default:
		slog.Error("timeclock operation failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "timeclock_error", "time clock operation failed", reqID)
	}
}

// replayOrRead consumes the body and, when an Idempotency-Key is present,
// either replays the stored response or hands the body back for a fresh
// run. done=true means the response was already written.
func (h *Handler) replayOrRead(w http.ResponseWriter, r *http.Request, userID, endpoint string) ([]byte, bool) {
	reqID := middleware.GetRequestID(r.Context())
	body, err := io.ReadAll(r.Body)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "failed to read request body", reqID)
		return nil, true
	}

	key := r.Header.Get("Idempotency-Key")
	if key == "" || h.Idempotency == nil {
		return body, false
	}

	stored, found, err := h.Idempotency.Check(r.Context(), userID, endpoint, key, middleware.RequestHash(body))
	if errors.Is(err, middleware.ErrIdempotencyConflict) {
		api.Fail(w, http.StatusConflict, "idempotency_conflict", "idempotency key was used with a different payload", reqID)
		return nil, true
	}
	if err != nil {
		slog.Warn("idempotency check failed", "endpoint", endpoint, "err", err)
		return body, false
	}
	if found {
		var data any
		if err := json.Unmarshal(stored, &data); err == nil {
			api.Success(w, data, reqID)
			return nil, true
		}
	}
	return body, false
}

func (h *Handler) respondAndRemember(w http.ResponseWriter, r *http.Request, userID, endpoint string, body []byte, data any, reqID string) {
	if key := r.Header.Get("Idempotency-Key"); key != "" && h.Idempotency != nil {
		if encoded, err := json.Marshal(data); err == nil {
			if err := h.Idempotency.Save(r.Context(), userID, endpoint, key, middleware.RequestHash(body), encoded); err != nil {
				slog.Warn("idempotency save failed", "endpoint", endpoint, "err", err)
			}
		}
	}
	api.Success(w, data, reqID)
}
