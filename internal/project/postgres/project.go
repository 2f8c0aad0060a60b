package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/snwareresearch/project-tracker/internal/core/common/database"
	projectDatamodel "github.com/snwareresearch/project-tracker/internal/core/datamodel/project"
	"github.com/snwareresearch/project-tracker/internal/project"
)

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) project.RepositoryAPI {
	return &ProjectRepository{db: db}
}

// LatestIdentifiers returns up to limit identifiers starting with prefix,
// highest first. Zero padding makes lexical order match serial order.
func (r *ProjectRepository) LatestIdentifiers(ctx context.Context, prefix string, limit int) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&projectDatamodel.SaleProject{}).
		Where("project_id LIKE ?", prefix+"%").
		Order("project_id DESC").
		Limit(limit).
		Pluck("project_id", &ids).Error
	return ids, err
}

func (r *ProjectRepository) Create(ctx context.Context, p *projectDatamodel.SaleProject) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return project.ErrDuplicateIdentifier
		}
		return err
	}
	return nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, id int64) (*projectDatamodel.SaleProject, error) {
	var p projectDatamodel.SaleProject
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, project.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *ProjectRepository) List(ctx context.Context, filter project.ListFilter) ([]*projectDatamodel.SaleProject, error) {
	q := r.db.WithContext(ctx).Model(&projectDatamodel.SaleProject{})
	if !filter.From.IsZero() && !filter.To.IsZero() {
		q = q.Where("project_date BETWEEN ? AND ?", filter.From, filter.To)
	}
	if filter.Client != "" {
		q = q.Where("client_name = ?", filter.Client)
	}
	if filter.Status != "" {
		q = q.Where("current_status = ?", filter.Status)
	}

	var projects []*projectDatamodel.SaleProject
	err := q.Order("created_at DESC").Order("id DESC").Find(&projects).Error
	return projects, err
}

// Update writes the mutable columns; project_id is left untouched.
func (r *ProjectRepository) Update(ctx context.Context, p *projectDatamodel.SaleProject) error {
	res := r.db.WithContext(ctx).
		Model(&projectDatamodel.SaleProject{}).
		Where("id = ?", p.ID).
		Updates(map[string]interface{}{
			"project_name":   p.ProjectName,
			"project_date":   p.ProjectDate,
			"client_name":    p.ClientName,
			"sales_rep":      p.SalesRep,
			"current_status": p.CurrentStatus,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return project.ErrNotFound
	}
	return nil
}
