package rbac_test

import (
	"errors"
	"time"

	"github.com/frahmantamala/storeadmin/internal/rbac"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Resolver", func() {
	var (
		resolver *rbac.Resolver
		now      time.Time
	)

	BeforeEach(func() {
		now = time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
		resolver = rbac.NewResolver(rbac.NewRoleTable()).WithClock(func() time.Time { return now })
	})

	Describe("EffectivePermissions", func() {
		It("equals the static MANAGER set when there are no overrides", func() {
			subject := rbac.Subject{Role: rbac.RoleManager}

			effective := resolver.EffectivePermissions(subject)

			Expect(effective).To(Equal(resolver.Table().Permissions(rbac.RoleManager)))
			Expect(effective.Has(rbac.PermOrdersView)).To(BeTrue())
			Expect(effective.Has(rbac.PermUsersDelete)).To(BeFalse())
		})

		It("is idempotent", func() {
			subject := rbac.Subject{
				Role:              rbac.RoleCRMManager,
				Permissions:       []string{rbac.PermProductsView},
				DeniedPermissions: []string{rbac.PermOrdersEdit},
			}
			Expect(resolver.EffectivePermissions(subject)).To(Equal(resolver.EffectivePermissions(subject)))
		})

		It("adds direct and custom grants", func() {
			subject := rbac.Subject{
				Role:              rbac.RoleCRMManager,
				Permissions:       []string{rbac.PermProductsView},
				CustomPermissions: []string{rbac.PermBannersEdit},
			}

			effective := resolver.EffectivePermissions(subject)
			Expect(effective.Has(rbac.PermProductsView)).To(BeTrue())
			Expect(effective.Has(rbac.PermBannersEdit)).To(BeTrue())
		})

		It("removes denied permissions even when the role grants them", func() {
			subject := rbac.Subject{
				Role:              rbac.RoleCRMManager,
				DeniedPermissions: []string{rbac.PermCustomersEdit},
			}

			Expect(resolver.EffectivePermissions(subject).Has(rbac.PermCustomersEdit)).To(BeFalse())
			Expect(resolver.HasPermission(subject, rbac.PermCustomersEdit)).To(BeFalse())
		})

		It("lets denial override a direct grant of the same permission", func() {
			subject := rbac.Subject{
				Role:              rbac.RoleManager,
				Permissions:       []string{rbac.PermSettingsEdit},
				DeniedPermissions: []string{rbac.PermSettingsEdit},
			}
			Expect(resolver.HasPermission(subject, rbac.PermSettingsEdit)).To(BeFalse())
		})

		It("keeps the universal grant even when it is denied", func() {
			subject := rbac.Subject{
				Role:              rbac.RoleSuperAdmin,
				DeniedPermissions: []string{rbac.FullAccess, rbac.PermUsersDelete},
			}

			Expect(resolver.EffectivePermissions(subject).Has(rbac.FullAccess)).To(BeTrue())
			Expect(resolver.HasPermission(subject, rbac.PermUsersDelete)).To(BeTrue())
		})

		It("includes unexpired temporary grants and drops expired ones", func() {
			subject := rbac.Subject{
				Role: rbac.RoleCRMManager,
				TemporaryPermissions: []rbac.TemporaryGrant{
					{Permission: rbac.PermOrdersExport, ExpiresAt: now.Add(time.Hour)},
					{Permission: rbac.PermSettingsView, ExpiresAt: now.Add(-time.Minute)},
				},
			}

			effective := resolver.EffectivePermissions(subject)
			Expect(effective.Has(rbac.PermOrdersExport)).To(BeTrue())
			Expect(effective.Has(rbac.PermSettingsView)).To(BeFalse())
		})

		It("stops honouring a temporary grant once its expiry passes", func() {
			subject := rbac.Subject{
				Role: rbac.RoleCRMManager,
				TemporaryPermissions: []rbac.TemporaryGrant{
					{Permission: rbac.PermOrdersExport, ExpiresAt: now.Add(time.Minute)},
				},
			}
			Expect(resolver.HasPermission(subject, rbac.PermOrdersExport)).To(BeTrue())

			now = now.Add(2 * time.Minute)
			Expect(resolver.HasPermission(subject, rbac.PermOrdersExport)).To(BeFalse())
		})

		It("drops permission strings outside the known set", func() {
			subject := rbac.Subject{
				Role:              rbac.RoleManager,
				Permissions:       []string{"products.*", "root"},
				CustomPermissions: []string{"anything.goes"},
			}

			effective := resolver.EffectivePermissions(subject)
			for p := range effective {
				Expect(resolver.Table().IsKnown(p)).To(BeTrue())
			}
			Expect(effective.Has("products.*")).To(BeFalse())
		})

		It("returns nothing but overrides for an unknown role", func() {
			subject := rbac.Subject{Role: rbac.Role("GHOST"), Permissions: []string{rbac.PermPagesView}}
			Expect(resolver.EffectivePermissions(subject).Slice()).To(Equal([]string{rbac.PermPagesView}))
		})
	})

	Describe("HasPermission", func() {
		It("is true for anything when the universal grant is held", func() {
			superAdmin := rbac.Subject{Role: rbac.RoleSuperAdmin}
			Expect(resolver.HasPermission(superAdmin, rbac.FullAccess)).To(BeTrue())
			Expect(resolver.HasPermission(superAdmin, rbac.PermUsersDelete)).To(BeTrue())
			Expect(resolver.HasPermission(superAdmin, "not.declared")).To(BeTrue())

			granted := rbac.Subject{Role: rbac.RoleCRMManager, CustomPermissions: []string{rbac.FullAccess}}
			Expect(resolver.HasPermission(granted, rbac.PermSettingsEdit)).To(BeTrue())
		})
	})

	Describe("HasAny and HasAll", func() {
		subject := rbac.Subject{Role: rbac.RoleCRMManager}

		It("quantifies over HasPermission", func() {
			Expect(resolver.HasAny(subject, []string{rbac.PermUsersDelete, rbac.PermCustomersView})).To(BeTrue())
			Expect(resolver.HasAny(subject, []string{rbac.PermUsersDelete, rbac.PermSettingsEdit})).To(BeFalse())
			Expect(resolver.HasAll(subject, []string{rbac.PermCustomersView, rbac.PermCustomersEdit})).To(BeTrue())
			Expect(resolver.HasAll(subject, []string{rbac.PermCustomersView, rbac.PermUsersDelete})).To(BeFalse())
		})

		It("treats empty lists as vacuous", func() {
			Expect(resolver.HasAny(subject, nil)).To(BeFalse())
			Expect(resolver.HasAll(subject, nil)).To(BeTrue())
		})
	})

	Describe("CheckTimeWindow", func() {
		DescribeTable("window evaluation at 14:30",
			func(start, end string, allowed bool) {
				err := resolver.CheckTimeWindow(rbac.Subject{AccessStartTime: start, AccessEndTime: end})
				if allowed {
					Expect(err).NotTo(HaveOccurred())
				} else {
					Expect(errors.Is(err, rbac.ErrOutsideAccessWindow)).To(BeTrue())
				}
			},
			Entry("no constraint", "", "", true),
			Entry("inside", "09:00", "18:00", true),
			Entry("inclusive start", "14:30", "18:00", true),
			Entry("inclusive end", "08:00", "14:30", true),
			Entry("before start", "15:00", "18:00", false),
			Entry("after end", "08:00", "14:29", false),
			Entry("overnight window excludes afternoon", "22:00", "06:00", false),
			Entry("overnight window includes afternoon", "13:00", "02:00", true),
			Entry("only start set", "10:00", "", true),
			Entry("only end set", "", "12:00", false),
			Entry("malformed bound", "25:99", "18:00", false),
		)
	})

	Describe("CheckIP", func() {
		It("is unrestricted with an empty allow-list", func() {
			Expect(resolver.CheckIP(rbac.Subject{}, "203.0.113.9")).To(Succeed())
		})

		It("requires membership otherwise", func() {
			subject := rbac.Subject{AllowedIPs: []string{"10.0.0.1", "2001:db8::1"}}
			Expect(resolver.CheckIP(subject, "10.0.0.1")).To(Succeed())
			Expect(resolver.CheckIP(subject, "2001:0db8:0000::0001")).To(Succeed())
			Expect(resolver.CheckIP(subject, "10.0.0.2")).To(MatchError(rbac.ErrIPNotAllowed))
			Expect(resolver.CheckIP(subject, "")).To(MatchError(rbac.ErrIPNotAllowed))
		})
	})

	Describe("CheckLockout", func() {
		It("denies while locked and allows after the lock lapses", func() {
			until := now.Add(10 * time.Minute)
			subject := rbac.Subject{Role: rbac.RoleSuperAdmin, LockedUntil: &until}
			Expect(resolver.CheckLockout(subject)).To(MatchError(rbac.ErrLocked))

			now = now.Add(11 * time.Minute)
			Expect(resolver.CheckLockout(subject)).To(Succeed())
		})
	})

	Describe("Authorize", func() {
		It("requires every permission by default", func() {
			subject := rbac.Subject{Role: rbac.RoleManager}
			Expect(resolver.Authorize(subject, rbac.AllOf(rbac.PermOrdersView, rbac.PermProductsEdit), "")).To(Succeed())

			err := resolver.Authorize(subject, rbac.AllOf(rbac.PermOrdersView, rbac.PermUsersDelete), "")
			Expect(errors.Is(err, rbac.ErrPermissionDenied)).To(BeTrue())
		})

		It("accepts any one permission for any-of requirements", func() {
			subject := rbac.Subject{Role: rbac.RoleManager}
			Expect(resolver.Authorize(subject, rbac.AnyOf(rbac.PermUsersDelete, rbac.PermOrdersView), "")).To(Succeed())
		})

		It("denies a locked super admin regardless of permissions", func() {
			until := now.Add(time.Hour)
			subject := rbac.Subject{Role: rbac.RoleSuperAdmin, LockedUntil: &until}
			Expect(resolver.Authorize(subject, rbac.AllOf(rbac.PermOrdersView), "")).To(MatchError(rbac.ErrLocked))
		})

		It("applies the IP filter before the permission check", func() {
			subject := rbac.Subject{Role: rbac.RoleSuperAdmin, AllowedIPs: []string{"10.1.1.1"}}
			Expect(resolver.Authorize(subject, rbac.AllOf(rbac.PermOrdersView), "10.9.9.9")).To(MatchError(rbac.ErrIPNotAllowed))
			Expect(resolver.Authorize(subject, rbac.AllOf(rbac.PermOrdersView), "10.1.1.1")).To(Succeed())
		})

		It("applies the access window", func() {
			subject := rbac.Subject{Role: rbac.RoleSuperAdmin, AccessStartTime: "08:00", AccessEndTime: "09:00"}
			err := resolver.Authorize(subject, rbac.AllOf(rbac.PermOrdersView), "")
			Expect(errors.Is(err, rbac.ErrOutsideAccessWindow)).To(BeTrue())
		})
	})
})
