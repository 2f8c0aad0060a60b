package project

import "strings"

type CreateProjectDTO struct {
	ProjectName   string `json:"project_name" validate:"required,max=255"`
	ProjectDate   string `json:"project_date" validate:"required,isodate"`
	ClientName    string `json:"client_name" validate:"max=100"`
	SalesRep      string `json:"sales_rep" validate:"max=100"`
	CurrentStatus string `json:"current_status" validate:"max=255"`
}

// UpdateProjectDTO carries a partial update. The project id is not part of
// it: identifiers are immutable once assigned.
type UpdateProjectDTO struct {
	ProjectName   *string `json:"project_name" validate:"omitempty,min=1,max=255"`
	ProjectDate   *string `json:"project_date" validate:"omitempty,isodate"`
	ClientName    *string `json:"client_name" validate:"omitempty,max=100"`
	SalesRep      *string `json:"sales_rep" validate:"omitempty,max=100"`
	CurrentStatus *string `json:"current_status" validate:"omitempty,max=255"`
}

type CreateProjectResponse struct {
	Message   string `json:"message"`
	ProjectID string `json:"project_id"`
	ID        int64  `json:"id"`
}

type NextIdentifierResponse struct {
	ProjectID string `json:"project_id"`
}

type UpdateProjectResponse struct {
	Message string   `json:"message"`
	Data    *Project `json:"data"`
}

func (d *CreateProjectDTO) Normalize() {
	d.ProjectName = strings.TrimSpace(d.ProjectName)
	d.ProjectDate = strings.TrimSpace(d.ProjectDate)
	d.ClientName = strings.TrimSpace(d.ClientName)
	d.SalesRep = strings.TrimSpace(d.SalesRep)
	d.CurrentStatus = strings.TrimSpace(d.CurrentStatus)
}

func (d *UpdateProjectDTO) Normalize() {
	for _, f := range []*string{d.ProjectName, d.ProjectDate, d.ClientName, d.SalesRep, d.CurrentStatus} {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}
}
