package reportshandler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

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
	r.Route("/reports", func(r chi.Router) {
		r.Get("/register.csv", h.handleRegisterCSV)
		r.Get("/timesheet.pdf", h.handleTimesheetPDF)
	})
}

func (h *Handler) handleRegisterCSV(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	query := r.URL.Query()

	v := shared.NewValidator()
	from, okFrom := v.Date("from", query.Get("from"))
	to, okTo := v.Date("to", query.Get("to"))
	if okFrom && okTo {
		v.DateOrder("from", from, "to", to)
	}
	if v.Reject(w, reqID) {
		return
	}

	records, err := h.Service.Register(r.Context(), payroll.RecordFilter{
		PersonID:  query.Get("personId"),
		ProjectID: query.Get("projectId"),
		From:      from,
		To:        to,
	})
	if err != nil {
		slog.Error("register export failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to build register", reqID)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=register_%s_%s.csv",
		from.Format("2006-01-02"), to.Format("2006-01-02")))
	if err := payroll.WriteRegisterCSV(w, records); err != nil {
		slog.Warn("register csv write failed", "err", err)
	}
}

func (h *Handler) handleTimesheetPDF(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	query := r.URL.Query()

	personID := query.Get("personId")
	v := shared.NewValidator()
	v.Required("personId", personID, "person is required")
	weekOf, okWeek := v.Date("weekOf", query.Get("weekOf"))
	if v.Reject(w, reqID) {
		return
	}
	if !okWeek {
		return
	}

	weekStart := payroll.WeekStartOf(weekOf)
	records, err := h.Service.Register(r.Context(), payroll.RecordFilter{
		PersonID: personID,
		From:     weekStart,
		To:       weekStart.AddDate(0, 0, 7),
	})
	if err != nil {
		slog.Error("timesheet export failed", "personId", personID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to load week", reqID)
		return
	}

	classified, err := h.Service.WeeklyTotals(r.Context(), personID, weekStart)
	if err != nil {
		slog.Error("timesheet classification failed", "personId", personID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to classify week", reqID)
		return
	}

	personName := personID
	if len(records) > 0 && records[0].PersonName != "" {
		personName = records[0].PersonName
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=timesheet_%s.pdf", weekStart.Format("2006-01-02")))
	if err := payroll.WriteTimesheetPDF(w, personName, weekStart, records, classified); err != nil {
		slog.Warn("timesheet pdf write failed", "err", err)
	}
}
