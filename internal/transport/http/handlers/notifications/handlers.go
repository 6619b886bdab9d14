package notificationshandler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Smoothestguy/commndx-sub004/internal/domain/notifications"
	"github.com/Smoothestguy/commndx-sub004/internal/transport/http/api"
	"github.com/Smoothestguy/commndx-sub004/internal/transport/http/middleware"
	"github.com/Smoothestguy/commndx-sub004/internal/transport/http/shared"
)

type Handler struct {
	Service *notifications.Service
}

func NewHandler(service *notifications.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/unread-count", h.handleUnreadCount)
		r.Post("/{notificationID}/read", h.handleMarkRead)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}

	page := shared.ParsePagination(r, 100, 500)
	items, err := h.Service.List(r.Context(), user.UserID, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "notification_list_failed", "failed to list notifications", reqID)
		return
	}
	api.Success(w, items, reqID)
}

func (h *Handler) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}

	count, err := h.Service.UnreadCount(r.Context(), user.UserID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "notification_count_failed", "failed to count notifications", reqID)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(count))
	api.Success(w, map[string]int{"unread": count}, reqID)
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}

	notificationID := chi.URLParam(r, "notificationID")
	if err := h.Service.MarkRead(r.Context(), user.UserID, notificationID); err != nil {
		api.Fail(w, http.StatusInternalServerError, "notification_update_failed", "failed to update notification", reqID)
		return
	}
	api.Success(w, map[string]string{"status": "read"}, reqID)
}
