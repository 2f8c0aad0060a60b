package auth

import (
	"net/http"

	"github.com/snwareresearch/project-tracker/internal"
	"github.com/snwareresearch/project-tracker/pkg/logger"
)

// AuthMiddleware admits a request only if it carries a valid session token,
// read from the session cookie first and the Authorization header second.
// The verified claims are attached to the request context.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.tokenFromRequest(r)
		if token == "" {
			h.HandleError(w, r, internal.ErrNoCredential)
			return
		}

		claims, err := h.Service.ValidateAccessToken(token)
		if err != nil {
			h.HandleError(w, r, internal.ErrInvalidToken.WithCause(err))
			return
		}

		ctx := ContextWithClaims(r.Context(), claims)
		ctx = logger.With(ctx, "user_id", claims.UserID, "role", claims.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuthMiddleware attaches claims when the request carries a token and
// lets anonymous requests through. A token that fails verification is still
// rejected.
func (h *Handler) OptionalAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.tokenFromRequest(r) == "" {
			next.ServeHTTP(w, r)
			return
		}
		h.AuthMiddleware(next).ServeHTTP(w, r)
	})
}

func (h *Handler) tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(h.Cookie.Name); err == nil && c.Value != "" {
		return c.Value
	}
	return h.ExtractTokenFromHeader(r)
}
