package payrollhandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Smoothestguy/commndx-sub004/internal/domain/auth"
	"github.com/Smoothestguy/commndx-sub004/internal/domain/payroll"
	"github.com/Smoothestguy/commndx-sub004/internal/transport/http/api"
	"github.com/Smoothestguy/commndx-sub004/internal/transport/http/middleware"
	"github.com/Smoothestguy/commndx-sub004/internal/transport/http/shared"
)

type Handler struct {
	Service *payroll.Service
}

func NewHandler(service *payroll.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	write := middleware.RequirePermission(auth.PermHoursWrite)

	r.Route("/hours", func(r chi.Router) {
		r.Get("/", h.handleView)
		r.Get("/weekly", h.handleWeeklyTotals)
		r.With(write).Post("/", h.handleManualEntry)
		r.With(write).Patch("/status", h.handleUpdateStatus)
		r.With(write).Delete("/{recordID}", h.handleDeleteRecord)
	})
	r.Route("/payroll/locks", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermTimeclockAdmin))
		r.Post("/", h.handleLock)
		r.Delete("/", h.handleUnlock)
	})
	r.Get("/settings", h.handleSettings)
	r.With(middleware.RequirePermission(auth.PermSettingsWrite)).Put("/settings", h.handleUpdateSettings)
}

func (h *Handler) handleView(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	query := r.URL.Query()

	v := shared.NewValidator()
	from, okFrom := v.Date("from", query.Get("from"))
	to, okTo := v.Date("to", query.Get("to"))
	if okFrom && okTo {
		v.DateOrder("from", from, "to", to)
	}
	view := query.Get("view")
	if view == "" {
		view = payroll.ViewByPerson
	}
	v.Enum("view", view, []string{payroll.ViewByPerson, payroll.ViewProjectPersonDay, payroll.ViewPersonProjectDay}, "unknown view")
	sortBy := query.Get("sort")
	if sortBy == "" {
		sortBy = payroll.SortByName
	}
	v.Enum("sort", sortBy, []string{payroll.SortByName, payroll.SortByHours, payroll.SortByCost, payroll.SortByEntries}, "unknown sort key")
	if v.Reject(w, reqID) {
		return
	}

	filter := payroll.RecordFilter{
		PersonID:  query.Get("personId"),
		ProjectID: query.Get("projectId"),
		From:      from,
		To:        to,
	}
	opts := payroll.ViewOptions{
		View:       view,
		SortBy:     sortBy,
		Descending: strings.EqualFold(query.Get("dir"), "desc"),
	}

	nodes, err := h.Service.View(r.Context(), filter, opts)
	if err != nil {
		if errors.Is(err, payroll.ErrUnknownView) {
			api.Fail(w, http.StatusBadRequest, "unknown_view", "unknown aggregation view", reqID)
			return
		}
		slog.Error("hours view failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "view_failed", "failed to build hours view", reqID)
		return
	}
	api.Success(w, nodes, reqID)
}

func (h *Handler) handleWeeklyTotals(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	query := r.URL.Query()

	personID := query.Get("personId")
	if personID == "" {
		if user, ok := middleware.GetUser(r.Context()); ok {
			personID = user.PersonID
		}
	}

	v := shared.NewValidator()
	v.Required("personId", personID, "person is required")
	weekOf, okWeek := v.Date("weekOf", query.Get("weekOf"))
	if v.Reject(w, reqID) {
		return
	}
	if !okWeek {
		return
	}

	classified, err := h.Service.WeeklyTotals(r.Context(), personID, payroll.WeekStartOf(weekOf))
	if err != nil {
		slog.Error("weekly totals failed", "personId", personID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "totals_failed", "failed to classify week", reqID)
		return
	}
	api.Success(w, classified, reqID)
}

type manualEntryRequest struct {
	PersonID  string   `json:"personId"`
	ProjectID string   `json:"projectId"`
	WorkDate  string   `json:"workDate"`
	Hours     float64  `json:"hours"`
	IsHoliday bool     `json:"isHoliday"`
	Rate      *float64 `json:"hourlyRate"`
}

func (h *Handler) handleManualEntry(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	var payload manualEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	v := shared.NewValidator()
	v.Required("personId", payload.PersonID, "person is required")
	v.Required("projectId", payload.ProjectID, "project is required")
	v.HoursRange("hours", payload.Hours)
	workDate, okDate := v.Date("workDate", payload.WorkDate)
	if v.Reject(w, reqID) {
		return
	}
	if !okDate {
		return
	}

	record := payroll.WorkedHourRecord{
		PersonID:   payload.PersonID,
		ProjectID:  payload.ProjectID,
		WorkDate:   workDate,
		Hours:      payload.Hours,
		IsHoliday:  payload.IsHoliday,
		HourlyRate: payload.Rate,
	}
	id, err := h.Service.CreateManualEntry(r.Context(), record)
	if err != nil {
		h.failPayroll(w, err, reqID)
		return
	}
	api.Created(w, map[string]string{"id": id}, reqID)
}

type statusUpdateRequest struct {
	RecordIDs []string `json:"recordIds"`
	Status    string   `json:"status"`
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	var payload statusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	v := shared.NewValidator()
	if len(payload.RecordIDs) == 0 {
		v.Add("recordIds", "at least one record is required")
	}
	v.Enum("status", payload.Status, []string{
		payroll.RecordStatusPending,
		payroll.RecordStatusApproved,
		payroll.RecordStatusRejected,
		payroll.RecordStatusBilled,
		payroll.RecordStatusInvoiced,
	}, "unknown status")
	if v.Reject(w, reqID) {
		return
	}

	if err := h.Service.UpdateStatus(r.Context(), payload.RecordIDs, strings.ToLower(payload.Status)); err != nil {
		h.failPayroll(w, err, reqID)
		return
	}
	api.Success(w, map[string]any{"updated": len(payload.RecordIDs)}, reqID)
}

func (h *Handler) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	recordID := chi.URLParam(r, "recordID")

	if err := h.Service.DeleteRecord(r.Context(), recordID); err != nil {
		h.failPayroll(w, err, reqID)
		return
	}
	api.Success(w, map[string]string{"status": "deleted"}, reqID)
}

type lockRequest struct {
	ProjectID string `json:"projectId"`
	WeekOf    string `json:"weekOf"`
}

func (h *Handler) handleLock(w http.ResponseWriter, r *http.Request) {
	h.handleLockChange(w, r, true)
}

func (h *Handler) handleUnlock(w http.ResponseWriter, r *http.Request) {
	h.handleLockChange(w, r, false)
}

func (h *Handler) handleLockChange(w http.ResponseWriter, r *http.Request, lock bool) {
	reqID := middleware.GetRequestID(r.Context())

	var payload lockRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	v := shared.NewValidator()
	v.Required("projectId", payload.ProjectID, "project is required")
	weekOf, okDate := v.Date("weekOf", payload.WeekOf)
	if v.Reject(w, reqID) {
		return
	}
	if !okDate {
		return
	}

	var err error
	if lock {
		lockedBy := ""
		if user, ok := middleware.GetUser(r.Context()); ok {
			lockedBy = user.UserID
		}
		err = h.Service.LockPeriod(r.Context(), payload.ProjectID, weekOf, lockedBy)
	} else {
		err = h.Service.UnlockPeriod(r.Context(), payload.ProjectID, weekOf)
	}
	if err != nil {
		h.failPayroll(w, err, reqID)
		return
	}

	status := "unlocked"
	if lock {
		status = "locked"
	}
	api.Success(w, map[string]any{
		"projectId": payload.ProjectID,
		"weekStart": payroll.WeekStartOf(weekOf).Format("2006-01-02"),
		"status":    status,
	}, reqID)
}

func (h *Handler) handleSettings(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	settings, err := h.Service.Settings(r.Context())
	if err != nil {
		slog.Error("settings load failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "settings_failed", "failed to load settings", reqID)
		return
	}
	api.Success(w, settings, reqID)
}

func (h *Handler) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	var settings payroll.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	if err := h.Service.UpdateSettings(r.Context(), settings); err != nil {
		if errors.Is(err, payroll.ErrInvalidHours) {
			api.Fail(w, http.StatusBadRequest, "invalid_settings", "multipliers must be >= 1 and threshold > 0", reqID)
			return
		}
		slog.Error("settings update failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "settings_failed", "failed to update settings", reqID)
		return
	}
	api.Success(w, settings, reqID)
}

func (h *Handler) failPayroll(w http.ResponseWriter, err error, reqID string) {
	switch {
	case errors.Is(err, payroll.ErrPeriodLocked):
		api.Fail(w, http.StatusConflict, "period_locked", "the period for this record is locked", reqID)
	case errors.Is(err, payroll.ErrRecordNotFound):
		api.Fail(w, http.StatusNotFound, "record_not_found", "worked hour record not found", reqID)
	case errors.Is(err, payroll.ErrInvalidHours):
		api.Fail(w, http.StatusBadRequest, "invalid_hours", "hours must be between 0 and 24", reqID)
	default:
		slog.Error("payroll operation failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "payroll_error", "payroll operation failed", reqID)
	}
}
