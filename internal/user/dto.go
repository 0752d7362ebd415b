package user

import (
	"strings"
	"time"

	"github.com/frahmantamala/storeadmin/internal"
	"github.com/frahmantamala/storeadmin/internal/core/common/validation"
	"github.com/frahmantamala/storeadmin/internal/core/user"
	"github.com/frahmantamala/storeadmin/internal/rbac"
)

type CreateUserDTO struct {
	Username         string   `json:"username"`
	Email            string   `json:"email"`
	Password         string   `json:"password"`
	Role             string   `json:"role"`
	Permissions      []string `json:"permissions,omitempty"`
	TwoFactorEnabled bool     `json:"twoFactorEnabled,omitempty"`
}

type TemporaryPermissionDTO struct {
	Permission string    `json:"permission"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// UpdateAccessDTO replaces the access fields of a user. Omitted lists are
// cleared. Role is optional and kept when empty.
type UpdateAccessDTO struct {
	Role                 string                   `json:"role,omitempty"`
	Permissions          []string                 `json:"permissions"`
	CustomPermissions    []string                 `json:"customPermissions"`
	DeniedPermissions    []string                 `json:"deniedPermissions"`
	TemporaryPermissions []TemporaryPermissionDTO `json:"temporaryPermissions"`
	AllowedIPs           []string                 `json:"allowedIPs"`
	AccessStartTime      string                   `json:"accessStartTime"`
	AccessEndTime        string                   `json:"accessEndTime"`
	LockedUntil          *time.Time               `json:"lockedUntil"`
}

type UpdateStatusDTO struct {
	IsActive *bool `json:"isActive"`
}

func (d CreateUserDTO) Validate(table *rbac.RoleTable) *internal.AppError {
	v := validation.NewValidator()
	v.Field("username", d.Username).Required().MinLength(3).MaxLength(64)
	v.Field("email", d.Email).Required().Email().MaxLength(255)
	v.Field("password", d.Password).Required().MinLength(8).MaxLength(72)
	v.Field("role", d.Role).Required().Role()
	v.Field("permissions", d.Permissions).Permissions(table)
	return v.Validate()
}

func (d UpdateAccessDTO) Validate(table *rbac.RoleTable) *internal.AppError {
	v := validation.NewValidator()
	if d.Role != "" {
		v.Field("role", d.Role).Role()
	}
	v.Field("permissions", d.Permissions).Permissions(table)
	v.Field("customPermissions", d.CustomPermissions).Permissions(table)
	v.Field("deniedPermissions", d.DeniedPermissions).Permissions(table)
	v.Field("temporaryPermissions", d.temporaryPermissionNames()).Permissions(table)
	v.Field("allowedIPs", d.AllowedIPs).IPs()
	v.Field("accessStartTime", d.AccessStartTime).TimeOfDay()
	v.Field("accessEndTime", d.AccessEndTime).TimeOfDay()
	v.Field("temporaryPermissions", d.TemporaryPermissions).Custom(func(interface{}) *internal.AppError {
		for _, tp := range d.TemporaryPermissions {
			if tp.ExpiresAt.IsZero() {
				return internal.NewValidationFieldError("temporaryPermissions", "temporaryPermissions entries need an expiresAt", internal.ErrCodeValidationFailed)
			}
		}
		return nil
	})
	return v.Validate()
}

func (d UpdateStatusDTO) Validate() *internal.AppError {
	if d.IsActive == nil {
		return internal.NewValidationFieldError("isActive", "isActive is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

func (d UpdateAccessDTO) temporaryPermissionNames() []string {
	names := make([]string, 0, len(d.TemporaryPermissions))
	for _, tp := range d.TemporaryPermissions {
		names = append(names, tp.Permission)
	}
	return names
}

func (d UpdateAccessDTO) toAccessUpdate(current rbac.Role) AccessUpdate {
	role := current
	if d.Role != "" {
		role = rbac.Role(d.Role)
	}
	temp := make([]user.TemporaryPermission, 0, len(d.TemporaryPermissions))
	for _, tp := range d.TemporaryPermissions {
		temp = append(temp, user.TemporaryPermission{Permission: tp.Permission, ExpiresAt: tp.ExpiresAt.UTC()})
	}
	return AccessUpdate{
		Role:                 role,
		Permissions:          orEmpty(d.Permissions),
		CustomPermissions:    orEmpty(d.CustomPermissions),
		DeniedPermissions:    orEmpty(d.DeniedPermissions),
		TemporaryPermissions: temp,
		AllowedIPs:           trimAll(d.AllowedIPs),
		AccessStartTime:      strings.TrimSpace(d.AccessStartTime),
		AccessEndTime:        strings.TrimSpace(d.AccessEndTime),
		LockedUntil:          d.LockedUntil,
	}
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func trimAll(s []string) []string {
	out := make([]string, 0, len(s))
	for _, v := range s {
		out = append(out, strings.TrimSpace(v))
	}
	return out
}
