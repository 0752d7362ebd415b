package auth

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/frahmantamala/storeadmin/internal/core/events"
	"github.com/frahmantamala/storeadmin/internal/core/metrics"
	"github.com/frahmantamala/storeadmin/internal/rbac"
	"github.com/frahmantamala/storeadmin/internal/transport"
	"github.com/frahmantamala/storeadmin/pkg/logger"
)

// RBACAuthorization guards routes behind AuthMiddleware. Every denial is a
// bare 403; which check failed is only logged.
type RBACAuthorization struct {
	*transport.BaseHandler
	resolver *rbac.Resolver
	events   events.Publisher
	metrics  *metrics.Recorder
}

func NewRBACAuthorization(resolver *rbac.Resolver, lg *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{
		BaseHandler: transport.NewBaseHandler(lg),
		resolver:    resolver,
	}
}

func (ra *RBACAuthorization) WithEventBus(p events.Publisher) *RBACAuthorization {
	ra.events = p
	return ra
}

func (ra *RBACAuthorization) WithMetrics(m *metrics.Recorder) *RBACAuthorization {
	ra.metrics = m
	return ra
}

// Require admits callers holding every listed permission.
func (ra *RBACAuthorization) Require(perms ...string) func(http.Handler) http.Handler {
	return ra.Middleware(rbac.AllOf(perms...))
}

// RequireAny admits callers holding at least one listed permission.
func (ra *RBACAuthorization) RequireAny(perms ...string) func(http.Handler) http.Handler {
	return ra.Middleware(rbac.AnyOf(perms...))
}

func (ra *RBACAuthorization) Middleware(req rbac.Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := UserFromContext(r.Context())
			if !ok {
				ra.metrics.ObserveDecision("deny", "unauthenticated")
				ra.WriteAppError(w, ErrUnauthenticated)
				return
			}

			err := ra.resolver.Authorize(u.Subject(), req, ClientIP(r))
			if err != nil {
				reason := denialReason(err)
				logger.From(r.Context()).Warn("access denied",
					"role", u.Role,
					"method", r.Method,
					"path", r.URL.Path,
					"requirement", req.String(),
					"reason", reason)
				ra.metrics.ObserveDecision("deny", reason)
				if ra.events != nil {
					event := events.NewAccessDeniedEvent(u.ID, r.Method, r.URL.Path, req.String(), reason)
					if perr := ra.events.Publish(r.Context(), event); perr != nil {
						ra.Logger.Warn("failed to publish access denied event", "error", perr)
					}
				}
				ra.WriteAppError(w, ErrForbidden)
				return
			}

			ra.metrics.ObserveDecision("allow", "granted")
			next.ServeHTTP(w, r)
		})
	}
}

func denialReason(err error) string {
	switch {
	case errors.Is(err, rbac.ErrLocked):
		return "locked"
	case errors.Is(err, rbac.ErrIPNotAllowed):
		return "ip_not_allowed"
	case errors.Is(err, rbac.ErrOutsideAccessWindow):
		return "outside_access_window"
	default:
		return "insufficient_permissions"
	}
}

// ClientIP returns the host part of RemoteAddr. Forwarding headers only count
// when the router was told to trust them and mounted chi's RealIP.
func ClientIP(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
