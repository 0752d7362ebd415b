package user_test

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/storeadmin/internal"
	"github.com/frahmantamala/storeadmin/internal/auth"
	userDatamodel "github.com/frahmantamala/storeadmin/internal/core/datamodel/user"
	"github.com/frahmantamala/storeadmin/internal/rbac"
	userAdmin "github.com/frahmantamala/storeadmin/internal/user"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

var _ = Describe("User admin service", func() {
	var (
		service *userAdmin.Service
		ctx     context.Context
	)

	BeforeEach(func() {
		service, _ = newTestService()
		ctx = context.Background()
	})

	Describe("GetProfile", func() {
		It("includes the effective permissions", func() {
			profile, err := service.GetProfile(ctx, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(profile.Username).To(Equal("manager"))
			Expect(profile.EffectivePermissions).To(ContainElement(rbac.PermOrdersView))
			Expect(profile.EffectivePermissions).NotTo(ContainElement(rbac.PermUsersDelete))
			Expect(profile.PasswordHash).To(BeEmpty())
		})

		It("returns USER_NOT_FOUND for a missing id", func() {
			_, err := service.GetProfile(ctx, 404)
			Expect(errors.Is(err, internal.ErrUserNotFound)).To(BeTrue())
		})
	})

	Describe("Create", func() {
		It("hashes the password and activates the account", func() {
			u, err := service.Create(ctx, root, userAdmin.CreateUserDTO{
				Username: "crm",
				Email:    "CRM@Shop.test",
				Password: "s3cret-pass",
				Role:     string(rbac.RoleCRMManager),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(u.ID).To(BeNumerically(">", 3))
			Expect(u.Email).To(Equal("crm@shop.test"))
			Expect(u.IsActive).To(BeTrue())
			Expect(u.PasswordHash).To(BeEmpty())

			users, err := service.List(ctx, userAdmin.ListFilter{Role: rbac.RoleCRMManager})
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(HaveLen(1))
		})

		It("rejects an unknown role", func() {
			_, err := service.Create(ctx, root, userAdmin.CreateUserDTO{Username: "bad", Email: "bad@shop.test", Password: "s3cret-pass", Role: "ROOT"})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))
		})

		It("rejects unknown permission strings", func() {
			_, err := service.Create(ctx, root, userAdmin.CreateUserDTO{
				Username:    "bad",
				Email:       "bad@shop.test",
				Password:    "s3cret-pass",
				Role:        string(rbac.RoleManager),
				Permissions: []string{"orders.*"},
			})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("orders.*"))
		})

		It("reports a taken username as a conflict", func() {
			_, err := service.Create(ctx, root, userAdmin.CreateUserDTO{Username: "manager", Email: "other@shop.test", Password: "s3cret-pass", Role: string(rbac.RoleManager)})
			Expect(errors.Is(err, internal.ErrUserExists)).To(BeTrue())
		})
	})

	Describe("UpdateAccess", func() {
		It("replaces the access fields and temporary grants", func() {
			expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
			profile, err := service.UpdateAccess(ctx, root, 2, userAdmin.UpdateAccessDTO{
				CustomPermissions: []string{rbac.PermUsersView},
				DeniedPermissions: []string{rbac.PermOrdersView},
				TemporaryPermissions: []userAdmin.TemporaryPermissionDTO{
					{Permission: rbac.PermSettingsEdit, ExpiresAt: expires},
				},
				AllowedIPs:      []string{" 10.0.0.1 "},
				AccessStartTime: "08:00",
				AccessEndTime:   "18:00",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(profile.Role).To(Equal(rbac.RoleManager))
			Expect(profile.AllowedIPs).To(Equal([]string{"10.0.0.1"}))
			Expect(profile.EffectivePermissions).To(ContainElements(rbac.PermUsersView, rbac.PermSettingsEdit))
			Expect(profile.EffectivePermissions).NotTo(ContainElement(rbac.PermOrdersView))
			Expect(profile.TemporaryPermissions).To(HaveLen(1))

			profile, err = service.UpdateAccess(ctx, root, 2, userAdmin.UpdateAccessDTO{Role: string(rbac.RoleCRMManager)})
			Expect(err).NotTo(HaveOccurred())
			Expect(profile.Role).To(Equal(rbac.RoleCRMManager))
			Expect(profile.TemporaryPermissions).To(BeEmpty())
			Expect(profile.DeniedPermissions).To(BeEmpty())
		})

		It("rejects invalid input", func() {
			_, err := service.UpdateAccess(ctx, root, 2, userAdmin.UpdateAccessDTO{
				DeniedPermissions: []string{"nope"},
				AllowedIPs:        []string{"not-an-ip"},
				AccessEndTime:     "25:00",
			})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("returns USER_NOT_FOUND for a missing id", func() {
			_, err := service.UpdateAccess(ctx, root, 404, userAdmin.UpdateAccessDTO{})
			Expect(errors.Is(err, internal.ErrUserNotFound)).To(BeTrue())
		})
	})

	Describe("grant limits", func() {
		It("lets an administrator grant what it holds", func() {
			u, err := service.Create(ctx, admin, userAdmin.CreateUserDTO{
				Username:    "crm",
				Email:       "crm@shop.test",
				Password:    "s3cret-pass",
				Role:        string(rbac.RoleCRMManager),
				Permissions: []string{rbac.PermSettingsView},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Role).To(Equal(rbac.RoleCRMManager))

			profile, err := service.UpdateAccess(ctx, admin, 2, userAdmin.UpdateAccessDTO{
				Role:              string(rbac.RoleAdministrator),
				CustomPermissions: []string{rbac.PermUsersView},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(profile.Role).To(Equal(rbac.RoleAdministrator))
		})

		It("refuses to create a SUPER_ADMIN for an administrator", func() {
			_, err := service.Create(ctx, admin, userAdmin.CreateUserDTO{
				Username: "boss",
				Email:    "boss@shop.test",
				Password: "s3cret-pass",
				Role:     string(rbac.RoleSuperAdmin),
			})
			Expect(errors.Is(err, internal.ErrForbidden)).To(BeTrue())

			users, err := service.List(ctx, userAdmin.ListFilter{Role: rbac.RoleSuperAdmin})
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(HaveLen(1))
		})

		It("refuses full access as a direct, custom or temporary grant", func() {
			_, err := service.Create(ctx, admin, userAdmin.CreateUserDTO{
				Username:    "boss",
				Email:       "boss@shop.test",
				Password:    "s3cret-pass",
				Role:        string(rbac.RoleManager),
				Permissions: []string{rbac.FullAccess},
			})
			Expect(errors.Is(err, internal.ErrForbidden)).To(BeTrue())

			for _, dto := range []userAdmin.UpdateAccessDTO{
				{Permissions: []string{rbac.FullAccess}},
				{CustomPermissions: []string{rbac.FullAccess}},
				{TemporaryPermissions: []userAdmin.TemporaryPermissionDTO{{Permission: rbac.FullAccess, ExpiresAt: time.Now().Add(time.Hour)}}},
			} {
				_, err := service.UpdateAccess(ctx, admin, 2, dto)
				Expect(errors.Is(err, internal.ErrForbidden)).To(BeTrue())
			}
		})

		It("refuses self-promotion to SUPER_ADMIN", func() {
			_, err := service.UpdateAccess(ctx, admin, 3, userAdmin.UpdateAccessDTO{
				Role:        string(rbac.RoleSuperAdmin),
				Permissions: []string{rbac.FullAccess},
			})
			Expect(errors.Is(err, internal.ErrForbidden)).To(BeTrue())

			profile, err := service.GetProfile(ctx, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(profile.Role).To(Equal(rbac.RoleAdministrator))
			Expect(profile.Permissions).To(BeEmpty())
		})

		It("keeps administrators from changing a SUPER_ADMIN", func() {
			_, err := service.UpdateAccess(ctx, admin, 1, userAdmin.UpdateAccessDTO{DeniedPermissions: []string{rbac.PermUsersView}})
			Expect(errors.Is(err, internal.ErrForbidden)).To(BeTrue())

			off := false
			_, err = service.SetStatus(ctx, admin, 1, userAdmin.UpdateStatusDTO{IsActive: &off})
			Expect(errors.Is(err, internal.ErrForbidden)).To(BeTrue())
		})

		It("lets a SUPER_ADMIN grant full access", func() {
			profile, err := service.UpdateAccess(ctx, root, 3, userAdmin.UpdateAccessDTO{Role: string(rbac.RoleSuperAdmin)})
			Expect(err).NotTo(HaveOccurred())
			Expect(profile.EffectivePermissions).To(ContainElement(rbac.FullAccess))
		})

		It("requires a caller", func() {
			_, err := service.Create(ctx, nil, userAdmin.CreateUserDTO{Username: "x-user", Email: "x@shop.test", Password: "s3cret-pass", Role: string(rbac.RoleManager)})
			Expect(errors.Is(err, internal.ErrUnauthenticated)).To(BeTrue())
		})
	})

	Describe("SetStatus", func() {
		It("deactivates and reactivates", func() {
			off := false
			u, err := service.SetStatus(ctx, root, 2, userAdmin.UpdateStatusDTO{IsActive: &off})
			Expect(err).NotTo(HaveOccurred())
			Expect(u.IsActive).To(BeFalse())

			on := true
			u, err = service.SetStatus(ctx, root, 2, userAdmin.UpdateStatusDTO{IsActive: &on})
			Expect(err).NotTo(HaveOccurred())
			Expect(u.IsActive).To(BeTrue())
		})

		It("requires isActive", func() {
			_, err := service.SetStatus(ctx, root, 2, userAdmin.UpdateStatusDTO{})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Roles", func() {
		It("lists every role with its grants", func() {
			roles := service.Roles()
			Expect(roles).To(HaveLen(4))
			for _, r := range roles {
				if r.Role == rbac.RoleSuperAdmin {
					Expect(r.Permissions).To(ContainElement(rbac.FullAccess))
				}
			}
		})
	})

	It("stores a bcrypt hash that verifies", func() {
		var db *gorm.DB
		service, db = newTestService()

		u, err := service.Create(ctx, root, userAdmin.CreateUserDTO{Username: "ops", Email: "ops@shop.test", Password: "s3cret-pass", Role: string(rbac.RoleAdministrator)})
		Expect(err).NotTo(HaveOccurred())

		var stored userDatamodel.User
		Expect(db.First(&stored, u.ID).Error).To(Succeed())
		Expect(stored.PasswordHash).NotTo(Equal("s3cret-pass"))
		Expect(auth.VerifyPassword(stored.PasswordHash, "s3cret-pass")).To(Succeed())
	})
})
