package project

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi"

	"github.com/snwareresearch/project-tracker/internal"
	"github.com/snwareresearch/project-tracker/internal/auth"
	"github.com/snwareresearch/project-tracker/internal/core/common/validation"
	"github.com/snwareresearch/project-tracker/internal/transport"
)

type ServiceAPI interface {
	Create(ctx context.Context, createdBy string, dto CreateProjectDTO) (*Project, error)
	NextIdentifier(ctx context.Context) (string, error)
	List(ctx context.Context, filter ListFilter) ([]*Project, error)
	Update(ctx context.Context, id int64, dto UpdateProjectDTO) (*Project, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListFilter(r)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	projects, err := h.Service.List(r.Context(), filter)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, projects)
}

func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		h.HandleError(w, r, internal.ErrNoCredential)
		return
	}

	var dto CreateProjectDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleError(w, r, err)
		return
	}

	p, err := h.Service.Create(r.Context(), claims.UserID, dto)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, CreateProjectResponse{
		Message:   "Project saved successfully",
		ProjectID: p.ProjectID,
		ID:        p.ID,
	})
}

func (h *Handler) GenerateID(w http.ResponseWriter, r *http.Request) {
	id, err := h.Service.NextIdentifier(r.Context())
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, NextIdentifierResponse{ProjectID: id})
}

func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.HandleError(w, r, internal.NewValidationFieldError("id", "id must be a positive integer", internal.ErrCodeValidationFailed))
		return
	}

	var dto UpdateProjectDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleError(w, r, err)
		return
	}

	p, err := h.Service.Update(r.Context(), id, dto)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, UpdateProjectResponse{
		Message: "Project updated successfully",
		Data:    p,
	})
}

// parseListFilter reads from/to/client/status. "all" means no constraint;
// from and to only apply together.
func parseListFilter(r *http.Request) (ListFilter, error) {
	q := r.URL.Query()
	var f ListFilter

	from, to := strings.TrimSpace(q.Get("from")), strings.TrimSpace(q.Get("to"))
	if from != "" && to != "" {
		var ok bool
		if f.From, ok = validation.ParseDate(from); !ok {
			return f, internal.NewValidationFieldError("from", "from must be a date", internal.ErrCodeValidationFailed)
		}
		if f.To, ok = validation.ParseDate(to); !ok {
			return f, internal.NewValidationFieldError("to", "to must be a date", internal.ErrCodeValidationFailed)
		}
	}

	if client := strings.TrimSpace(q.Get("client")); client != "" && client != "all" {
		f.Client = client
	}
	if status := strings.TrimSpace(q.Get("status")); status != "" && status != "all" {
		f.Status = status
	}
	return f, nil
}
