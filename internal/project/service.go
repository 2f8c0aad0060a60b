package project

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/snwareresearch/project-tracker/internal"
	"github.com/snwareresearch/project-tracker/internal/core/common/validation"
	projectDatamodel "github.com/snwareresearch/project-tracker/internal/core/datamodel/project"
)

type RepositoryAPI interface {
	IdentifierSource
	Create(ctx context.Context, p *projectDatamodel.SaleProject) error
	GetByID(ctx context.Context, id int64) (*projectDatamodel.SaleProject, error)
	List(ctx context.Context, filter ListFilter) ([]*projectDatamodel.SaleProject, error)
	Update(ctx context.Context, p *projectDatamodel.SaleProject) error
}

// IdentifierAllocator hands out project identifiers.
type IdentifierAllocator interface {
	Next(ctx context.Context) (string, error)
	Peek(ctx context.Context) (string, error)
}

type ServiceConfig struct {
	// AllocAttempts is how many identifiers Create tries before giving up
	// on a unique conflict.
	AllocAttempts int
	QueryTimeout  time.Duration
}

type Service struct {
	repo      RepositoryAPI
	allocator IdentifierAllocator
	validator *validation.Validator
	cfg       ServiceConfig
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, allocator IdentifierAllocator, v *validation.Validator, cfg ServiceConfig, logger *slog.Logger) *Service {
	if cfg.AllocAttempts < 1 {
		cfg.AllocAttempts = 2
	}
	return &Service{
		repo:      repo,
		allocator: allocator,
		validator: v,
		cfg:       cfg,
		logger:    logger,
	}
}

// Create stores a new project under a freshly allocated identifier. A unique
// conflict on the identifier means another writer took it; the identifier is
// recomputed and the insert retried.
func (s *Service) Create(ctx context.Context, createdBy string, dto CreateProjectDTO) (*Project, error) {
	dto.Normalize()
	if err := s.validator.Struct(dto); err != nil {
		return nil, err
	}
	projectDate, _ := validation.ParseDate(dto.ProjectDate)

	for attempt := 1; attempt <= s.cfg.AllocAttempts; attempt++ {
		id, err := s.allocator.Next(ctx)
		if err != nil {
			return nil, err
		}

		record := &projectDatamodel.SaleProject{
			ProjectID:     id,
			ProjectName:   dto.ProjectName,
			ProjectDate:   projectDate,
			ClientName:    dto.ClientName,
			SalesRep:      dto.SalesRep,
			CurrentStatus: dto.CurrentStatus,
			CreatedBy:     createdBy,
		}

		err = s.insert(ctx, record)
		if err == nil {
			s.logger.Info("project created", "project_id", id, "created_by", createdBy, "attempt", attempt)
			return FromDataModel(record), nil
		}
		if !errors.Is(err, ErrDuplicateIdentifier) {
			return nil, internal.NewInternalError("failed to create project", err)
		}
		s.logger.Warn("project id taken concurrently, retrying", "project_id", id, "attempt", attempt)
	}

	return nil, internal.ErrIdentifierConflict
}

func (s *Service) insert(ctx context.Context, record *projectDatamodel.SaleProject) error {
	qctx, cancel := internal.WithTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()
	return s.repo.Create(qctx, record)
}

// NextIdentifier previews the identifier the next Create would use.
func (s *Service) NextIdentifier(ctx context.Context) (string, error) {
	return s.allocator.Peek(ctx)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Project, error) {
	qctx, cancel := internal.WithTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	records, err := s.repo.List(qctx, filter)
	if err != nil {
		s.logger.Error("failed to list projects", "error", err)
		return nil, internal.NewInternalError("failed to list projects", err)
	}

	projects := make([]*Project, 0, len(records))
	for _, r := range records {
		projects = append(projects, FromDataModel(r))
	}
	return projects, nil
}

// Update applies a partial update. The identifier is never changed.
func (s *Service) Update(ctx context.Context, id int64, dto UpdateProjectDTO) (*Project, error) {
	dto.Normalize()
	if err := s.validator.Struct(dto); err != nil {
		return nil, err
	}

	qctx, cancel := internal.WithTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	record, err := s.repo.GetByID(qctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, internal.ErrProjectNotFound
		}
		return nil, internal.NewInternalError("failed to load project", err)
	}

	if dto.ProjectName != nil {
		record.ProjectName = *dto.ProjectName
	}
	if dto.ProjectDate != nil {
		record.ProjectDate, _ = validation.ParseDate(*dto.ProjectDate)
	}
	if dto.ClientName != nil {
		record.ClientName = *dto.ClientName
	}
	if dto.SalesRep != nil {
		record.SalesRep = *dto.SalesRep
	}
	if dto.CurrentStatus != nil {
		record.CurrentStatus = *dto.CurrentStatus
	}

	if err := s.repo.Update(qctx, record); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, internal.ErrProjectNotFound
		}
		return nil, internal.NewInternalError("failed to update project", err)
	}

	return FromDataModel(record), nil
}
