package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/training-records/internal"
	"github.com/frahmantamala/training-records/internal/transport"
)

// RBACAuthorization guards whole route groups by role. Record-level rules
// (ownership) stay in the services, which call the policy functions directly.
type RBACAuthorization struct {
	*transport.BaseHandler
}

func NewRBACAuthorization(logger *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{BaseHandler: transport.NewBaseHandler(logger)}
}

func (ra *RBACAuthorization) Check(next http.HandlerFunc, check func(Identity) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			ra.Logger.Warn("authorization check failed: identity not found in context")
			ra.WriteAppError(w, internal.ErrInvalidToken)
			return
		}

		if err := check(identity); err != nil {
			ra.Logger.WarnContext(r.Context(), "access denied",
				"user_id", identity.ID,
				"role", identity.Role,
				"path", r.URL.Path)
			ra.WriteAppError(w, err)
			return
		}

		next.ServeHTTP(w, r)
	}
}

func (ra *RBACAuthorization) Middleware(check func(Identity) error) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return ra.Check(next.ServeHTTP, check)
	}
}

// RequireAdmin protects the user management routes.
func (ra *RBACAuthorization) RequireAdmin() func(http.Handler) http.Handler {
	return ra.Middleware(CanManageUsers)
}

// RequireMonitor protects organisation-wide statistics.
func (ra *RBACAuthorization) RequireMonitor() func(http.Handler) http.Handler {
	return ra.Middleware(CanViewStatistics)
}
