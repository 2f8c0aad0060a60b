package project

import (
	"errors"
	"time"

	projectDatamodel "github.com/snwareresearch/project-tracker/internal/core/datamodel/project"
)

// Store-level errors returned by RepositoryAPI implementations.
var (
	ErrNotFound            = errors.New("project not found")
	ErrDuplicateIdentifier = errors.New("project id already taken")
)

type Project struct {
	ID            int64     `json:"id"`
	ProjectID     string    `json:"project_id"`
	ProjectName   string    `json:"project_name"`
	ProjectDate   time.Time `json:"project_date"`
	ClientName    string    `json:"client_name"`
	SalesRep      string    `json:"sales_rep"`
	CurrentStatus string    `json:"current_status"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ListFilter narrows a project listing. Zero values mean no constraint.
type ListFilter struct {
	From   time.Time
	To     time.Time
	Client string
	Status string
}

func FromDataModel(p *projectDatamodel.SaleProject) *Project {
	return &Project{
		ID:            p.ID,
		ProjectID:     p.ProjectID,
		ProjectName:   p.ProjectName,
		ProjectDate:   p.ProjectDate,
		ClientName:    p.ClientName,
		SalesRep:      p.SalesRep,
		CurrentStatus: p.CurrentStatus,
		CreatedBy:     p.CreatedBy,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
