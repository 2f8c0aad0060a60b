package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/snwareresearch/project-tracker/internal"
	"github.com/snwareresearch/project-tracker/internal/transport"
	"github.com/snwareresearch/project-tracker/pkg/logger"
)

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name     string
	Secure   bool
	SameSite http.SameSite
}

// AttemptObserver records the outcome of authentication attempts.
type AttemptObserver interface {
	ObserveAuthAttempt(operation, outcome string)
}

type noopObserver struct{}

func (noopObserver) ObserveAuthAttempt(string, string) {}

type Handler struct {
	*transport.BaseHandler
	Service  ServiceAPI
	Cookie   CookieConfig
	Attempts AttemptObserver
}

func NewHandler(svc ServiceAPI, cookie CookieConfig, attempts AttemptObserver) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	if cookie.Name == "" {
		cookie.Name = "token"
	}
	if cookie.SameSite == 0 {
		cookie.SameSite = http.SameSiteLaxMode
	}
	if attempts == nil {
		attempts = noopObserver{}
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
		Cookie:      cookie,
		Attempts:    attempts,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleError(w, r, err)
		return
	}

	session, err := h.Service.Authenticate(r.Context(), dto)
	if err != nil {
		h.Attempts.ObserveAuthAttempt("login", outcomeOf(err))
		h.HandleError(w, r, err)
		return
	}
	h.Attempts.ObserveAuthAttempt("login", "success")

	http.SetCookie(w, h.sessionCookie(session.Token, session.ExpiresAt))

	logger.From(r.Context()).Info("user logged in", "user_id", session.User.ID, "role", session.User.Role)
	h.WriteJSON(w, http.StatusOK, LoginResponse{
		Success:    true,
		Message:    "Login successful",
		Name:       session.User.Name,
		Email:      session.User.Email,
		Role:       session.User.Role,
		Department: session.User.Department,
	})
}

// Signup registers an account. The session, when present, is the acting user.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	actor, _ := ClaimsFromContext(r.Context())

	var dto SignupDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleError(w, r, err)
		return
	}

	user, err := h.Service.Signup(r.Context(), actor, dto)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, SignupResponse{
		Success: true,
		Message: "User registered successfully",
		User:    user,
	})
}

// Logout clears the session cookie. Tokens are stateless, so this always succeeds.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.Cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.Cookie.Secure,
		SameSite: h.Cookie.SameSite,
	})
	h.WriteJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "Logged out successfully"})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		h.HandleError(w, r, internal.ErrNoCredential)
		return
	}
	h.WriteJSON(w, http.StatusOK, MeResponse{Success: true, User: claims})
}

func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var dto ForgotPasswordDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleError(w, r, err)
		return
	}

	if err := h.Service.ForgotPassword(r.Context(), dto); err != nil {
		h.Attempts.ObserveAuthAttempt("forgot_password", outcomeOf(err))
		h.HandleError(w, r, err)
		return
	}
	h.Attempts.ObserveAuthAttempt("forgot_password", "success")

	h.WriteJSON(w, http.StatusOK, MessageResponse{
		Success: true,
		Message: "Temporary password sent to your email",
	})
}

func (h *Handler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var dto UpdatePasswordDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleError(w, r, err)
		return
	}

	if err := h.Service.UpdatePassword(r.Context(), dto); err != nil {
		h.Attempts.ObserveAuthAttempt("update_password", outcomeOf(err))
		h.HandleError(w, r, err)
		return
	}
	h.Attempts.ObserveAuthAttempt("update_password", "success")

	h.WriteJSON(w, http.StatusOK, MessageResponse{
		Success: true,
		Message: "Password updated successfully",
	})
}

func (h *Handler) sessionCookie(token string, expiresAt time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     h.Cookie.Name,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(h.Service.TokenTTL().Seconds()),
		HttpOnly: true,
		Secure:   h.Cookie.Secure,
		SameSite: h.Cookie.SameSite,
	}
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, internal.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, internal.ErrUserInactive):
		return "inactive"
	case errors.Is(err, internal.ErrUserNotFound):
		return "unknown_user"
	case errors.Is(err, internal.ErrCurrentPasswordIncorrect):
		return "wrong_password"
	case errors.Is(err, internal.ErrNotificationFailed):
		return "notification_failed"
	}
	if appErr, ok := internal.IsAppError(err); ok && appErr.Type == internal.ErrorTypeValidation {
		return "invalid_input"
	}
	return "error"
}
