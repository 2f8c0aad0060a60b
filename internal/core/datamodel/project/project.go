package project

import "time"

type SaleProject struct {
	ID            int64     `gorm:"primaryKey"`
	ProjectID     string    `gorm:"column:project_id;uniqueIndex;size:50;not null"`
	ProjectName   string    `gorm:"column:project_name;size:255;not null"`
	ProjectDate   time.Time `gorm:"column:project_date;not null"`
	ClientName    string    `gorm:"column:client_name;size:100"`
	SalesRep      string    `gorm:"column:sales_rep;size:100"`
	CurrentStatus string    `gorm:"column:current_status;size:255"`
	CreatedBy     string    `gorm:"column:created_by;size:36"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (SaleProject) TableName() string {
	return "sale_projects"
}
