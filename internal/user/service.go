package user

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/snwareresearch/project-tracker/internal"
	"github.com/snwareresearch/project-tracker/internal/auth"
	"github.com/snwareresearch/project-tracker/internal/core/common/validation"
	userDatamodel "github.com/snwareresearch/project-tracker/internal/core/datamodel/user"
)

type Repository interface {
	List(ctx context.Context) ([]*userDatamodel.User, error)
	GetByID(ctx context.Context, id string) (*userDatamodel.User, error)
	Update(ctx context.Context, id string, changes Changes) (*userDatamodel.User, error)
	ListActiveInDepartment(ctx context.Context, department string) ([]*userDatamodel.User, error)
}

type Service struct {
	repo         Repository
	validator    *validation.Validator
	queryTimeout time.Duration
	logger       *slog.Logger
}

func NewService(repo Repository, v *validation.Validator, queryTimeout time.Duration, logger *slog.Logger) *Service {
	return &Service{
		repo:         repo,
		validator:    v,
		queryTimeout: queryTimeout,
		logger:       logger,
	}
}

func (s *Service) List(ctx context.Context) ([]*User, error) {
	ctx, cancel := internal.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, internal.NewInternalError("failed to list users", err)
	}

	users := make([]*User, 0, len(records))
	for _, r := range records {
		users = append(users, FromDataModel(r))
	}
	return users, nil
}

// Update changes role, departments or the active flag of an account. The
// actor must outrank or equal both the target's current role and any role
// being granted, and may not lock itself out.
func (s *Service) Update(ctx context.Context, actor *auth.Claims, id string, dto UpdateUserDTO) (*User, error) {
	dto.Normalize()
	if err := s.validator.Struct(dto); err != nil {
		return nil, err
	}
	changes := dto.Changes()
	if changes.Empty() {
		return nil, internal.NewValidationError("No fields provided for update", internal.ErrCodeValidationFailed)
	}
	if changes.Department != nil && len(changes.Department) == 0 {
		return nil, internal.NewValidationFieldError("department", "at least 1 department entry is required", internal.ErrCodeValidationFailed)
	}

	ctx, cancel := internal.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	target, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, internal.NewInternalError("failed to load user", err)
	}

	if !actor.Role.CanManage(auth.Role(target.Role)) {
		s.logger.Warn("user update denied: target outranks actor",
			"actor_id", actor.UserID, "actor_role", actor.Role, "target_id", target.ID, "target_role", target.Role)
		return nil, internal.ErrInsufficientRole
	}
	if changes.Role != nil && !actor.Role.CanAssign(*changes.Role) {
		s.logger.Warn("user update denied: role above actor rank",
			"actor_id", actor.UserID, "actor_role", actor.Role, "requested_role", *changes.Role)
		return nil, internal.ErrInsufficientRole
	}
	if target.ID == actor.UserID {
		if changes.IsActive != nil && !*changes.IsActive {
			return nil, internal.NewValidationFieldError("is_active", "you cannot deactivate your own account", internal.ErrCodeValidationFailed)
		}
		if changes.Role != nil && *changes.Role != actor.Role {
			return nil, internal.NewValidationFieldError("role", "you cannot change your own role", internal.ErrCodeValidationFailed)
		}
	}

	updated, err := s.repo.Update(ctx, id, changes)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, internal.NewInternalError("failed to update user", err)
	}

	s.logger.Info("user updated", "actor_id", actor.UserID, "target_id", id)
	return FromDataModel(updated), nil
}

// SalesReps lists active users in a sales department.
func (s *Service) SalesReps(ctx context.Context) ([]SalesRep, error) {
	ctx, cancel := internal.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	records, err := s.repo.ListActiveInDepartment(ctx, SalesDepartment)
	if err != nil {
		return nil, internal.NewInternalError("failed to list sales reps", err)
	}

	reps := make([]SalesRep, 0, len(records))
	for _, r := range records {
		u := FromDataModel(r)
		if u.IsActiveUser() && u.InDepartment(SalesDepartment) {
			reps = append(reps, SalesRep{ID: u.ID, Name: u.Name})
		}
	}
	return reps, nil
}
