package user

import (
	"errors"
	"strings"
	"time"

	"github.com/snwareresearch/project-tracker/internal/auth"
	userDatamodel "github.com/snwareresearch/project-tracker/internal/core/datamodel/user"
)

// User is the administrative view of an account. The password hash never
// leaves the store layer.
type User struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Role       auth.Role `json:"role"`
	Department []string  `json:"department"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SalesRep is the directory entry used to fill the sales_rep field of projects.
type SalesRep struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Changes is a partial update of the administrative fields. Nil means unchanged.
type Changes struct {
	Role       *auth.Role
	Department []string
	IsActive   *bool
}

func (c Changes) Empty() bool {
	return c.Role == nil && c.Department == nil && c.IsActive == nil
}

var ErrNotFound = errors.New("user not found")

func (u *User) IsActiveUser() bool {
	return u.IsActive
}

// InDepartment reports whether any of the user's departments mentions name,
// ignoring case.
func (u *User) InDepartment(name string) bool {
	name = strings.ToLower(name)
	for _, d := range u.Department {
		if strings.Contains(strings.ToLower(d), name) {
			return true
		}
	}
	return false
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Role:       auth.Role(u.Role),
		Department: u.Department,
		IsActive:   u.IsActive,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}
