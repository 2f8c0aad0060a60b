package auth

import (
	"log/slog"
	"net/http"

	"github.com/snwareresearch/project-tracker/internal"
	"github.com/snwareresearch/project-tracker/internal/transport"
)

type RBACAuthorization struct {
	*transport.BaseHandler
	logger *slog.Logger
}

func NewRBACAuthorization(logger *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{
		BaseHandler: transport.NewBaseHandler(logger),
		logger:      logger,
	}
}

// Allows reports whether role is in the allow-list.
func Allows(role Role, allowed ...Role) bool {
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}

// Check wraps next so it only runs for sessions whose role is allowed.
// It must sit behind AuthMiddleware; a request without claims is denied.
func (ra *RBACAuthorization) Check(next http.HandlerFunc, roles ...Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			ra.logger.ErrorContext(r.Context(), "authorization check without session claims",
				"path", r.URL.Path, "required_roles", roles)
			ra.HandleError(w, r, internal.ErrInsufficientRole)
			return
		}

		if !Allows(claims.Role, roles...) {
			ra.logger.WarnContext(r.Context(), "access denied: insufficient role",
				"user_id", claims.UserID,
				"role", claims.Role,
				"required_roles", roles,
				"path", r.URL.Path)
			ra.HandleError(w, r, internal.ErrInsufficientRole)
			return
		}

		next.ServeHTTP(w, r)
	}
}

// RequireRoles is Check as chi-style middleware.
func (ra *RBACAuthorization) RequireRoles(roles ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return ra.Check(next.ServeHTTP, roles...)
	}
}

func (ra *RBACAuthorization) RequireAdmin() func(http.Handler) http.Handler {
	return ra.RequireRoles(AdminRoles...)
}
