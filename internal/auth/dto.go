package auth

import "strings"

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=100"`
}

// SignupDTO carries a new account. Role must be one of the fixed enumeration.
type SignupDTO struct {
	Name       string   `json:"name" validate:"required,min=3,max=100"`
	Email      string   `json:"email" validate:"required,email,orgemail"`
	Password   string   `json:"password" validate:"required,password"`
	Role       Role     `json:"role" validate:"required,oneof='Super Admin' Admin Manager Executive"`
	Department []string `json:"department" validate:"required,min=1,dive,required,min=1,max=100"`
}

type ForgotPasswordDTO struct {
	Email string `json:"email" validate:"required,email"`
}

type UpdatePasswordDTO struct {
	Email           string `json:"email" validate:"required,email"`
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,password"`
}

// LoginResponse is the body returned by a successful login; the token travels in the cookie.
type LoginResponse struct {
	Success    bool     `json:"success"`
	Message    string   `json:"message"`
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Role       Role     `json:"role"`
	Department []string `json:"department"`
}

type MeResponse struct {
	Success bool    `json:"success"`
	User    *Claims `json:"user"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type SignupResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	User    *PublicUser `json:"user"`
}

func (d *LoginDTO) Normalize() {
	d.Email = NormalizeEmail(d.Email)
}

func (d *SignupDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Email = NormalizeEmail(d.Email)
	if r, ok := ParseRole(string(d.Role)); ok {
		d.Role = r
	}
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
	if d.Department != nil {
		d.Department = departments
	}
}

func (d *ForgotPasswordDTO) Normalize() {
	d.Email = NormalizeEmail(d.Email)
}

func (d *UpdatePasswordDTO) Normalize() {
	d.Email = NormalizeEmail(d.Email)
}
