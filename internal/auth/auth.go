package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	userDatamodel "github.com/snwareresearch/project-tracker/internal/core/datamodel/user"
)

// Role is a staff member's position in the fixed role enumeration.
type Role string

const (
	RoleSuperAdmin Role = "Super Admin"
	RoleAdmin      Role = "Admin"
	RoleManager    Role = "Manager"
	RoleExecutive  Role = "Executive"
)

// Capability names something a role is allowed to do.
type Capability string

const (
	CapManageUsers    Capability = "manage_users"
	CapViewUsers      Capability = "view_users"
	CapCreateProjects Capability = "create_projects"
)

// roleRank orders the roles; a higher rank dominates a lower one.
var roleRank = map[Role]int{
	RoleExecutive:  1,
	RoleManager:    2,
	RoleAdmin:      3,
	RoleSuperAdmin: 4,
}

var roleCapabilities = map[Role][]Capability{
	RoleSuperAdmin: {CapManageUsers, CapViewUsers, CapCreateProjects},
	RoleAdmin:      {CapManageUsers, CapViewUsers, CapCreateProjects},
	RoleManager:    {CapCreateProjects},
	RoleExecutive:  {CapCreateProjects},
}

// AllRoles lists the enumeration from highest to lowest rank.
var AllRoles = []Role{RoleSuperAdmin, RoleAdmin, RoleManager, RoleExecutive}

// AdminRoles is the allow-list for user administration endpoints.
var AdminRoles = []Role{RoleSuperAdmin, RoleAdmin}

func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

func (r Role) Rank() int {
	return roleRank[r]
}

func (r Role) Can(c Capability) bool {
	for _, have := range roleCapabilities[r] {
		if have == c {
			return true
		}
	}
	return false
}

// CanManage reports whether r may modify an account currently holding target.
func (r Role) CanManage(target Role) bool {
	return r.Can(CapManageUsers) && target.Valid() && r.Rank() >= target.Rank()
}

// CanAssign reports whether r may grant target to an account.
func (r Role) CanAssign(target Role) bool {
	return r.CanManage(target)
}

// ParseRole matches s against the enumeration, ignoring case and surrounding space.
func ParseRole(s string) (Role, bool) {
	s = strings.TrimSpace(s)
	for _, r := range AllRoles {
		if strings.EqualFold(string(r), s) {
			return r, true
		}
	}
	return "", false
}

// Identity is the subset of a user record embedded in a session token.
type Identity struct {
	ID         string
	Name       string
	Email      string
	Role       Role
	Department []string
}

// Claims represents JWT token claims
type Claims struct {
	UserID     string   `json:"id"`
	Role       Role     `json:"role"`
	Email      string   `json:"email"`
	Name       string   `json:"name"`
	Department []string `json:"department"`
	jwt.RegisteredClaims
}

// PublicUser is the outward view of a user record; the hash never leaves the store layer.
type PublicUser struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       Role      `json:"role"`
	Department []string  `json:"department"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

func ToPublicUser(u *userDatamodel.User) *PublicUser {
	return &PublicUser{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       Role(u.Role),
		Department: u.Department,
		IsActive:   u.IsActive,
		CreatedAt:  u.CreatedAt,
	}
}

func IdentityOf(u *userDatamodel.User) Identity {
	return Identity{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       Role(u.Role),
		Department: u.Department,
	}
}

// NormalizeEmail is the canonical form used for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Store-level errors returned by CredentialStore implementations.
var (
	ErrCredentialNotFound = errors.New("credential not found")
	ErrDuplicateEmail     = errors.New("email already registered")
)

type ctxKey string

const ContextClaimsKey ctxKey = "auth_claims"

// ClaimsFromContext returns the claims attached by the session middleware.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	if ctx == nil {
		return nil, false
	}
	claims, ok := ctx.Value(ContextClaimsKey).(*Claims)
	return claims, ok && claims != nil
}

func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ContextClaimsKey, claims)
}
