package user

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/snwareresearch/project-tracker/internal"
	"github.com/snwareresearch/project-tracker/internal/auth"
	"github.com/snwareresearch/project-tracker/internal/transport"
	"github.com/snwareresearch/project-tracker/pkg/logger"
)

type ServiceAPI interface {
	List(ctx context.Context) ([]*User, error)
	Update(ctx context.Context, actor *auth.Claims, id string, dto UpdateUserDTO) (*User, error)
	SalesReps(ctx context.Context) ([]SalesRep, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// ListUsers handles GET /api/v1/users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.List(r.Context())
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, users)
}

// UpdateUser handles PATCH /api/v1/users/{id}
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		h.HandleError(w, r, internal.ErrNoCredential)
		return
	}

	var dto UpdateUserDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleError(w, r, err)
		return
	}

	u, err := h.Service.Update(r.Context(), actor, chi.URLParam(r, "id"), dto)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, UpdateUserResponse{
		Message: "User updated successfully",
		User:    u,
	})
}

// ListSalesReps handles GET /api/v1/sales-reps
func (h *Handler) ListSalesReps(w http.ResponseWriter, r *http.Request) {
	reps, err := h.Service.SalesReps(r.Context())
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, reps)
}
