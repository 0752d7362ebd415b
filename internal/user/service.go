package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/frahmantamala/storeadmin/internal"
	"github.com/frahmantamala/storeadmin/internal/auth"
	"github.com/frahmantamala/storeadmin/internal/core/user"
	"github.com/frahmantamala/storeadmin/internal/rbac"
	"github.com/frahmantamala/storeadmin/pkg/logger"
)

var ErrAlreadyExists = errors.New("user already exists")

type Service struct {
	repo       Repository
	resolver   *rbac.Resolver
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo Repository, resolver *rbac.Resolver, bcryptCost int) *Service {
	return &Service{
		repo:       repo,
		resolver:   resolver,
		bcryptCost: bcryptCost,
		logger:     logger.LoggerWrapper(),
	}
}

func (s *Service) GetProfile(ctx context.Context, id int64) (*Profile, error) {
	u, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.profile(u), nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*user.User, error) {
	users, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, internal.NewInternalError("failed to list users", err)
	}
	out := make([]*user.User, 0, len(users))
	for _, u := range users {
		out = append(out, u.Sanitized())
	}
	return out, nil
}

// Create stores a new active admin with a bcrypt-hashed password. The new
// user's role and direct grants must lie within the caller's own access.
func (s *Service) Create(ctx context.Context, caller *user.User, dto CreateUserDTO) (*user.User, error) {
	if err := dto.Validate(s.resolver.Table()); err != nil {
		return nil, err
	}
	if err := s.checkGrant(ctx, caller, rbac.Role(dto.Role), dto.Permissions); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(dto.Password, s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	u := &user.User{
		Username:             strings.TrimSpace(dto.Username),
		Email:                strings.ToLower(strings.TrimSpace(dto.Email)),
		PasswordHash:         hash,
		Role:                 rbac.Role(dto.Role),
		IsActive:             true,
		TwoFactorEnabled:     dto.TwoFactorEnabled,
		Permissions:          orEmpty(dto.Permissions),
		CustomPermissions:    []string{},
		DeniedPermissions:    []string{},
		AllowedIPs:           []string{},
		TemporaryPermissions: []user.TemporaryPermission{},
	}

	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return nil, internal.ErrUserExists
		}
		return nil, internal.NewInternalError("failed to create user", err)
	}

	logger.From(ctx).Info("admin user created", "created_id", u.ID, "role", u.Role)
	return u.Sanitized(), nil
}

// UpdateAccess replaces the authorization fields of user id.
func (s *Service) UpdateAccess(ctx context.Context, caller *user.User, id int64, dto UpdateAccessDTO) (*Profile, error) {
	if err := dto.Validate(s.resolver.Table()); err != nil {
		return nil, err
	}

	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkTarget(ctx, caller, current); err != nil {
		return nil, err
	}

	var role rbac.Role
	if dto.Role != "" && rbac.Role(dto.Role) != current.Role {
		role = rbac.Role(dto.Role)
	}
	if err := s.checkGrant(ctx, caller, role, dto.Permissions, dto.CustomPermissions, dto.temporaryPermissionNames()); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateAccess(ctx, id, dto.toAccessUpdate(current.Role)); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, internal.NewInternalError("failed to update access", err)
	}

	updated, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	logger.From(ctx).Info("admin access updated", "target_id", id, "role", updated.Role)
	return s.profile(updated), nil
}

func (s *Service) SetStatus(ctx context.Context, caller *user.User, id int64, dto UpdateStatusDTO) (*user.User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	target, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkTarget(ctx, caller, target); err != nil {
		return nil, err
	}

	if err := s.repo.SetActive(ctx, id, *dto.IsActive); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, internal.NewInternalError("failed to update status", err)
	}

	u, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	logger.From(ctx).Info("admin status changed", "target_id", id, "is_active", u.IsActive)
	return u.Sanitized(), nil
}

// Roles dumps the static role table.
func (s *Service) Roles() []RoleView {
	table := s.resolver.Table()
	views := make([]RoleView, 0, len(table.Roles()))
	for _, role := range table.Roles() {
		views = append(views, RoleView{Role: role, Permissions: table.Permissions(role).Slice()})
	}
	return views
}

// checkGrant refuses a role or permission the caller does not hold itself.
// An empty role is not checked. Holders of admin.full_access may grant anything.
func (s *Service) checkGrant(ctx context.Context, caller *user.User, role rbac.Role, grants ...[]string) error {
	if caller == nil {
		return internal.ErrUnauthenticated
	}
	held := s.resolver.EffectivePermissions(caller.Subject())
	if held.Has(rbac.FullAccess) {
		return nil
	}

	var missing []string
	if role != "" {
		for _, p := range s.resolver.Table().Permissions(role).Slice() {
			if !held.Has(p) {
				missing = append(missing, p)
			}
		}
	}
	for _, list := range grants {
		for _, p := range list {
			if !held.Has(p) && !slices.Contains(missing, p) {
				missing = append(missing, p)
			}
		}
	}
	if len(missing) == 0 {
		return nil
	}

	logger.From(ctx).Warn("grant beyond caller's access refused",
		"caller_id", caller.ID, "role", role, "missing", missing)
	return internal.ErrGrantNotHeld
}

// checkTarget keeps callers without admin.full_access away from principals
// that hold it.
func (s *Service) checkTarget(ctx context.Context, caller, target *user.User) error {
	if caller == nil {
		return internal.ErrUnauthenticated
	}
	if !s.resolver.EffectivePermissions(target.Subject()).Has(rbac.FullAccess) {
		return nil
	}
	if s.resolver.EffectivePermissions(caller.Subject()).Has(rbac.FullAccess) {
		return nil
	}

	logger.From(ctx).Warn("change to full-access principal refused",
		"caller_id", caller.ID, "target_id", target.ID)
	return internal.ErrGrantNotHeld
}

func (s *Service) find(ctx context.Context, id int64) (*user.User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, internal.NewInternalError(fmt.Sprintf("failed to load user %d", id), err)
	}
	return u, nil
}

func (s *Service) profile(u *user.User) *Profile {
	return &Profile{
		User:                 u.Sanitized(),
		EffectivePermissions: s.resolver.EffectivePermissions(u.Subject()).Slice(),
	}
}
