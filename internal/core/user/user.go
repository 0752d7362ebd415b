package user

import (
	"errors"
	"slices"
	"time"

	userDatamodel "github.com/frahmantamala/storeadmin/internal/core/datamodel/user"
	"github.com/frahmantamala/storeadmin/internal/rbac"
)

// User is an admin principal.
type User struct {
	ID               int64     `json:"id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"-"`
	Role             rbac.Role `json:"role"`
	IsActive         bool      `json:"isActive"`
	TwoFactorEnabled bool      `json:"twoFactorEnabled"`
	TwoFactorSecret  string    `json:"-"`

	Permissions          []string              `json:"permissions"`
	CustomPermissions    []string              `json:"customPermissions"`
	DeniedPermissions    []string              `json:"deniedPermissions"`
	TemporaryPermissions []TemporaryPermission `json:"temporaryPermissions"`

	AllowedIPs      []string   `json:"allowedIPs"`
	AccessStartTime string     `json:"accessStartTime,omitempty"`
	AccessEndTime   string     `json:"accessEndTime,omitempty"`
	LockedUntil     *time.Time `json:"lockedUntil,omitempty"`

	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type TemporaryPermission struct {
	Permission string    `json:"permission"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

var ErrNotFound = errors.New("user not found")

func (u *User) IsActiveUser() bool {
	return u.IsActive
}

// Sanitized returns a copy without the password hash or two-factor secret.
func (u *User) Sanitized() *User {
	c := *u
	c.PasswordHash = ""
	c.TwoFactorSecret = ""
	c.Permissions = slices.Clone(u.Permissions)
	c.CustomPermissions = slices.Clone(u.CustomPermissions)
	c.DeniedPermissions = slices.Clone(u.DeniedPermissions)
	c.TemporaryPermissions = slices.Clone(u.TemporaryPermissions)
	c.AllowedIPs = slices.Clone(u.AllowedIPs)
	return &c
}

// Subject projects the principal onto the fields authorization looks at.
func (u *User) Subject() rbac.Subject {
	temp := make([]rbac.TemporaryGrant, 0, len(u.TemporaryPermissions))
	for _, tp := range u.TemporaryPermissions {
		temp = append(temp, rbac.TemporaryGrant{Permission: tp.Permission, ExpiresAt: tp.ExpiresAt})
	}
	return rbac.Subject{
		Role:                 u.Role,
		Permissions:          u.Permissions,
		CustomPermissions:    u.CustomPermissions,
		DeniedPermissions:    u.DeniedPermissions,
		TemporaryPermissions: temp,
		AllowedIPs:           u.AllowedIPs,
		AccessStartTime:      u.AccessStartTime,
		AccessEndTime:        u.AccessEndTime,
		LockedUntil:          u.LockedUntil,
	}
}

func ToDataModel(u *User) *userDatamodel.User {
	temp := make([]userDatamodel.TemporaryPermission, 0, len(u.TemporaryPermissions))
	for _, tp := range u.TemporaryPermissions {
		temp = append(temp, userDatamodel.TemporaryPermission{
			UserID:     u.ID,
			Permission: tp.Permission,
			ExpiresAt:  tp.ExpiresAt,
		})
	}
	return &userDatamodel.User{
		ID:                   u.ID,
		Username:             u.Username,
		Email:                u.Email,
		PasswordHash:         u.PasswordHash,
		Role:                 string(u.Role),
		IsActive:             u.IsActive,
		TwoFactorEnabled:     u.TwoFactorEnabled,
		TwoFactorSecret:      u.TwoFactorSecret,
		Permissions:          u.Permissions,
		CustomPermissions:    u.CustomPermissions,
		DeniedPermissions:    u.DeniedPermissions,
		AllowedIPs:           u.AllowedIPs,
		AccessStartTime:      u.AccessStartTime,
		AccessEndTime:        u.AccessEndTime,
		LockedUntil:          u.LockedUntil,
		LastLoginAt:          u.LastLoginAt,
		CreatedAt:            u.CreatedAt,
		UpdatedAt:            u.UpdatedAt,
		TemporaryPermissions: temp,
	}
}

func FromDataModel(u *userDatamodel.User) *User {
	temp := make([]TemporaryPermission, 0, len(u.TemporaryPermissions))
	for _, tp := range u.TemporaryPermissions {
		temp = append(temp, TemporaryPermission{Permission: tp.Permission, ExpiresAt: tp.ExpiresAt})
	}
	return &User{
		ID:                   u.ID,
		Username:             u.Username,
		Email:                u.Email,
		PasswordHash:         u.PasswordHash,
		Role:                 rbac.Role(u.Role),
		IsActive:             u.IsActive,
		TwoFactorEnabled:     u.TwoFactorEnabled,
		TwoFactorSecret:      u.TwoFactorSecret,
		Permissions:          nonNil(u.Permissions),
		CustomPermissions:    nonNil(u.CustomPermissions),
		DeniedPermissions:    nonNil(u.DeniedPermissions),
		TemporaryPermissions: temp,
		AllowedIPs:           nonNil(u.AllowedIPs),
		AccessStartTime:      u.AccessStartTime,
		AccessEndTime:        u.AccessEndTime,
		LockedUntil:          u.LockedUntil,
		LastLoginAt:          u.LastLoginAt,
		CreatedAt:            u.CreatedAt,
		UpdatedAt:            u.UpdatedAt,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
