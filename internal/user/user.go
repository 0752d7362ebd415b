package user

import (
	"context"
	"time"

	"github.com/frahmantamala/storeadmin/internal/core/user"
	"github.com/frahmantamala/storeadmin/internal/rbac"
)

// Repository is the persistence the admin user endpoints need.
type Repository interface {
	FindByID(ctx context.Context, id int64) (*user.User, error)
	List(ctx context.Context, filter ListFilter) ([]*user.User, error)
	Create(ctx context.Context, u *user.User) error
	UpdateAccess(ctx context.Context, id int64, access AccessUpdate) error
	SetActive(ctx context.Context, id int64, active bool) error
}

type ServiceAPI interface {
	GetProfile(ctx context.Context, id int64) (*Profile, error)
	List(ctx context.Context, filter ListFilter) ([]*user.User, error)
	Create(ctx context.Context, caller *user.User, dto CreateUserDTO) (*user.User, error)
	UpdateAccess(ctx context.Context, caller *user.User, id int64, dto UpdateAccessDTO) (*Profile, error)
	SetStatus(ctx context.Context, caller *user.User, id int64, dto UpdateStatusDTO) (*user.User, error)
	Roles() []RoleView
}

type ListFilter struct {
	Role   rbac.Role
	Active *bool
}

// AccessUpdate replaces every authorization field of a user at once.
type AccessUpdate struct {
	Role                 rbac.Role
	Permissions          []string
	CustomPermissions    []string
	DeniedPermissions    []string
	TemporaryPermissions []user.TemporaryPermission
	AllowedIPs           []string
	AccessStartTime      string
	AccessEndTime        string
	LockedUntil          *time.Time
}

// Profile is a user together with what the resolver currently grants it.
type Profile struct {
	*user.User
	EffectivePermissions []string `json:"effectivePermissions"`
}

type RoleView struct {
	Role        rbac.Role `json:"role"`
	Permissions []string  `json:"permissions"`
}
