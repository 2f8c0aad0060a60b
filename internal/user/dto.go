package user

import (
	"strings"

	"github.com/snwareresearch/project-tracker/internal/auth"
)

const SalesDepartment = "sales"

type UpdateUserDTO struct {
	Role       *auth.Role `json:"role" validate:"omitempty,oneof='Super Admin' Admin Manager Executive"`
	Department []string   `json:"department" validate:"omitempty,dive,required,max=100"`
	IsActive   *bool      `json:"is_active"`
}

type UpdateUserResponse struct {
	Message string `json:"message"`
	User    *User  `json:"user"`
}

func (d *UpdateUserDTO) Normalize() {
	if d.Role != nil {
		if r, ok := auth.ParseRole(string(*d.Role)); ok {
			*d.Role = r
		}
	}
	if d.Department != nil {
		departments := make([]string, 0, len(d.Department))
		seen := make(map[string]bool, len(d.Department))
		for _, dep := range d.Department {
			dep = strings.TrimSpace(dep)
			if seen[strings.ToLower(dep)] {
				continue
			}
			seen[strings.ToLower(dep)] = true
			departments = append(departments, dep)
		}
		d.Department = departments
	}
}

func (d UpdateUserDTO) Changes() Changes {
	return Changes{
		Role:       d.Role,
		Department: d.Department,
		IsActive:   d.IsActive,
	}
}
