package handler

import (
	"net/http"

	"github.com/larkin/bankview-go/internal/guard"
	"github.com/larkin/bankview-go/internal/service"

	"go.uber.org/zap"
)

// RequireSession gates protected routes on the route guard. The decision
// is evaluated per request — never cached — since the session can expire
// or be cleared between navigations. requiredRoles may be nil: any live
// session passes.
func RequireSession(authSvc *service.AuthService, requiredRoles []string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch decision := guard.Decide(authSvc.Snapshot(), requiredRoles); decision {
			case guard.Allow:
				next.ServeHTTP(w, r)
			case guard.RedirectToLogin:
				logger.Warn("guard: no live session",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "login required")
			case guard.Forbidden:
				logger.Warn("guard: missing required role",
					zap.String("path", r.URL.Path),
					zap.Strings("required_roles", requiredRoles),
				)
				writeError(w, http.StatusForbidden, "insufficient role")
			default:
				writeError(w, http.StatusInternalServerError, "unknown guard decision")
			}
		})
	}
}
