package authhandler

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Smoothestguy/commndx-sub004/internal/domain/auth"
	"github.com/Smoothestguy/commndx-sub004/internal/transport/http/api"
	"github.com/Smoothestguy/commndx-sub004/internal/transport/http/middleware"
)

const sessionTTL = 8 * time.Hour

type Handler struct {
	Store  *auth.Store
	Secret string
}

func NewHandler(store *auth.Store, secret string) *Handler {
	return &Handler{Store: store, Secret: secret}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
	r.Post("/auth/logout", h.handleLogout)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	var payload loginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	user, err := h.Store.FindActiveUserByEmail(r.Context(), payload.Email)
	if err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", reqID)
		return
	}
	if err := auth.CheckPassword(user.PasswordHash, payload.Password); err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", reqID)
		return
	}

	sessionID, err := generateToken()
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", reqID)
		return
	}
	if err := h.Store.CreateSession(r.Context(), user.ID, auth.HashToken(sessionID), time.Now().Add(sessionTTL)); err != nil {
		api.Fail(w, http.StatusInternalServerError, "session_error", "failed to start session", reqID)
		return
	}

	token, err := auth.GenerateToken(h.Secret, auth.Claims{
		UserID:    user.ID,
		PersonID:  user.PersonID,
		RoleName:  user.RoleName,
		SessionID: sessionID,
	}, sessionTTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", reqID)
		return
	}

	if err := h.Store.UpdateLastLogin(r.Context(), user.ID); err != nil {
		slog.Warn("update last_login failed", "userId", user.ID, "err", err)
	}

	api.Success(w, map[string]any{
		"token": token,
		"user": map[string]string{
			"id":       user.ID,
			"personId": user.PersonID,
			"role":     user.RoleName,
		},
	}, reqID)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if user, ok := middleware.GetUser(r.Context()); ok && user.SessionID != "" {
		if err := h.Store.RevokeSession(r.Context(), user.UserID, auth.HashToken(user.SessionID)); err != nil {
			slog.Warn("logout session revoke failed", "userId", user.UserID, "err", err)
		}
	}
	api.Success(w, map[string]string{"status": "logged_out"}, middleware.GetRequestID(r.Context()))
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
