package auth

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/frahmantamala/storeadmin/internal/core/events"
	"github.com/frahmantamala/storeadmin/internal/core/metrics"
	"github.com/frahmantamala/storeadmin/internal/core/user"
	"github.com/frahmantamala/storeadmin/internal/rbac"
	"github.com/frahmantamala/storeadmin/pkg/logger"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

var _ = ginkgo.Describe("RBACAuthorization", func() {
	var (
		guard     *RBACAuthorization
		publisher *recordingPublisher
		recorder  *metrics.Recorder
		noon      = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
		ok        = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	)

	serve := func(mw func(http.Handler) http.Handler, u *user.User, remoteAddr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
		req.RemoteAddr = remoteAddr
		if u != nil {
			req = req.WithContext(ContextWithUser(req.Context(), u))
		}
		rec := httptest.NewRecorder()
		mw(ok).ServeHTTP(rec, req)
		return rec
	}

	ginkgo.BeforeEach(func() {
		publisher = &recordingPublisher{}
		recorder = metrics.New()
		resolver := rbac.NewResolver(rbac.NewRoleTable()).WithClock(func() time.Time { return noon })
		guard = NewRBACAuthorization(resolver, nil).WithEventBus(publisher).WithMetrics(recorder)
	})

	ginkgo.It("should admit a role holding the permission", func() {
		u := &user.User{ID: 1, Role: rbac.RoleManager, IsActive: true}

		rec := serve(guard.Require(rbac.PermOrdersView), u, "10.0.0.1:5000")

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusNoContent))
		gomega.Expect(testutil.ToFloat64(recorder.Decisions().WithLabelValues("allow", "granted"))).To(gomega.Equal(1.0))
	})

	ginkgo.It("should admit SUPER_ADMIN everywhere", func() {
		u := &user.User{ID: 1, Role: rbac.RoleSuperAdmin, IsActive: true}

		rec := serve(guard.Require(rbac.PermUsersDelete, rbac.PermSettingsEdit), u, "10.0.0.1:5000")

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusNoContent))
	})

	ginkgo.It("should deny with a bare 403 when a permission is missing", func() {
		u := &user.User{ID: 7, Role: rbac.RoleManager, IsActive: true}

		rec := serve(guard.Require(rbac.PermUsersDelete), u, "10.0.0.1:5000")

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
		env := decodeEnvelope(rec)
		gomega.Expect(env.Error.Code).To(gomega.Equal("FORBIDDEN"))
		gomega.Expect(env.Error.Message).ToNot(gomega.ContainSubstring("users.delete"))
		gomega.Expect(publisher.types()).To(gomega.ConsistOf(events.EventTypeAccessDenied))
		gomega.Expect(testutil.ToFloat64(recorder.Decisions().WithLabelValues("deny", "insufficient_permissions"))).To(gomega.Equal(1.0))
	})

	ginkgo.It("should log the denial once per user id", func() {
		// Given a request logger already scoped to the caller
		var buf bytes.Buffer
		logger.Configure(&buf, "debug", "json")
		ginkgo.DeferCleanup(func() { logger.Init("test") })
		u := &user.User{ID: 7, Role: rbac.RoleManager, IsActive: true}
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
		req = req.WithContext(ContextWithUser(logger.With(req.Context(), "user_id", u.ID), u))

		// When the guard denies it
		rec := httptest.NewRecorder()
		guard.Require(rbac.PermUsersDelete)(ok).ServeHTTP(rec, req)

		// Then the warning carries user_id exactly once
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
		var denial string
		for _, line := range strings.Split(buf.String(), "\n") {
			if strings.Contains(line, `"msg":"access denied"`) {
				denial = line
			}
		}
		gomega.Expect(denial).NotTo(gomega.BeEmpty())
		gomega.Expect(strings.Count(denial, `"user_id"`)).To(gomega.Equal(1))
	})

	ginkgo.It("should require every permission by default", func() {
		u := &user.User{ID: 7, Role: rbac.RoleCRMManager, IsActive: true}

		rec := serve(guard.Require(rbac.PermCustomersEdit, rbac.PermUsersEdit), u, "10.0.0.1:5000")

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
	})

	ginkgo.It("should accept any listed permission with RequireAny", func() {
		u := &user.User{ID: 7, Role: rbac.RoleCRMManager, IsActive: true}

		rec := serve(guard.RequireAny(rbac.PermUsersEdit, rbac.PermCustomersEdit), u, "10.0.0.1:5000")

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusNoContent))
	})

	ginkgo.It("should honour denied permissions", func() {
		u := &user.User{ID: 7, Role: rbac.RoleManager, IsActive: true, DeniedPermissions: []string{rbac.PermOrdersView}}

		rec := serve(guard.Require(rbac.PermOrdersView), u, "10.0.0.1:5000")

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
	})

	ginkgo.It("should honour unexpired temporary grants only", func() {
		active := &user.User{ID: 7, Role: rbac.RoleCRMManager, IsActive: true, TemporaryPermissions: []user.TemporaryPermission{
			{Permission: rbac.PermSettingsEdit, ExpiresAt: noon.Add(time.Hour)},
		}}
		expired := &user.User{ID: 8, Role: rbac.RoleCRMManager, IsActive: true, TemporaryPermissions: []user.TemporaryPermission{
			{Permission: rbac.PermSettingsEdit, ExpiresAt: noon.Add(-time.Hour)},
		}}

		gomega.Expect(serve(guard.Require(rbac.PermSettingsEdit), active, "10.0.0.1:5000").Code).To(gomega.Equal(http.StatusNoContent))
		gomega.Expect(serve(guard.Require(rbac.PermSettingsEdit), expired, "10.0.0.1:5000").Code).To(gomega.Equal(http.StatusForbidden))
	})

	ginkgo.It("should deny callers outside the IP allow-list", func() {
		u := &user.User{ID: 7, Role: rbac.RoleSuperAdmin, IsActive: true, AllowedIPs: []string{"10.0.0.1"}}

		gomega.Expect(serve(guard.Require(rbac.PermOrdersView), u, "10.0.0.1:5000").Code).To(gomega.Equal(http.StatusNoContent))
		gomega.Expect(serve(guard.Require(rbac.PermOrdersView), u, "10.0.0.2:5000").Code).To(gomega.Equal(http.StatusForbidden))
		gomega.Expect(testutil.ToFloat64(recorder.Decisions().WithLabelValues("deny", "ip_not_allowed"))).To(gomega.Equal(1.0))
	})

	ginkgo.It("should deny callers outside the access window", func() {
		u := &user.User{ID: 7, Role: rbac.RoleSuperAdmin, IsActive: true, AccessStartTime: "13:00", AccessEndTime: "17:00"}

		rec := serve(guard.Require(rbac.PermOrdersView), u, "10.0.0.1:5000")

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
		gomega.Expect(testutil.ToFloat64(recorder.Decisions().WithLabelValues("deny", "outside_access_window"))).To(gomega.Equal(1.0))
	})

	ginkgo.It("should deny locked accounts", func() {
		until := noon.Add(10 * time.Minute)
		u := &user.User{ID: 7, Role: rbac.RoleSuperAdmin, IsActive: true, LockedUntil: &until}

		rec := serve(guard.Require(rbac.PermOrdersView), u, "10.0.0.1:5000")

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
		gomega.Expect(testutil.ToFloat64(recorder.Decisions().WithLabelValues("deny", "locked"))).To(gomega.Equal(1.0))
	})

	ginkgo.It("should answer 401 when no principal is in context", func() {
		rec := serve(guard.Require(rbac.PermOrdersView), nil, "10.0.0.1:5000")

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
	})

	ginkgo.Describe("ClientIP", func() {
		ginkgo.It("should strip the port", func() {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "[::1]:8080"
			gomega.Expect(ClientIP(req)).To(gomega.Equal("::1"))
		})

		ginkgo.It("should keep a bare address", func() {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "192.168.1.10"
			gomega.Expect(ClientIP(req)).To(gomega.Equal("192.168.1.10"))
		})
	})
})
