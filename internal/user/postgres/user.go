package postgres

import (
	"context"
	"errors"
	"fmt"

	userDatamodel "github.com/frahmantamala/storeadmin/internal/core/datamodel/user"
	"github.com/frahmantamala/storeadmin/internal/core/user"
	userAdmin "github.com/frahmantamala/storeadmin/internal/user"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

var _ userAdmin.Repository = (*Repository)(nil)

func NewUserRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*user.User, error) {
	var m userDatamodel.User
	if err := r.db.WithContext(ctx).Preload("TemporaryPermissions").First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user.FromDataModel(&m), nil
}

func (r *Repository) List(ctx context.Context, filter userAdmin.ListFilter) ([]*user.User, error) {
	q := r.db.WithContext(ctx).Preload("TemporaryPermissions").Order("id")
	if filter.Role != "" {
		q = q.Where("role = ?", string(filter.Role))
	}
	if filter.Active != nil {
		q = q.Where("is_active = ?", *filter.Active)
	}

	var rows []userDatamodel.User
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	out := make([]*user.User, 0, len(rows))
	for i := range rows {
		out = append(out, user.FromDataModel(&rows[i]))
	}
	return out, nil
}

// Create inserts u and sets its id and timestamps. A taken username or email
// yields userAdmin.ErrAlreadyExists.
func (r *Repository) Create(ctx context.Context, u *user.User) error {
	db := r.db.WithContext(ctx)

	var taken int64
	if err := db.Model(&userDatamodel.User{}).
		Where("username = ? OR email = ?", u.Username, u.Email).
		Count(&taken).Error; err != nil {
		return fmt.Errorf("check existing user: %w", err)
	}
	if taken > 0 {
		return userAdmin.ErrAlreadyExists
	}

	m := user.ToDataModel(u)
	if err := db.Create(m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return userAdmin.ErrAlreadyExists
		}
		return fmt.Errorf("create user: %w", err)
	}

	u.ID = m.ID
	u.CreatedAt = m.CreatedAt
	u.UpdatedAt = m.UpdatedAt
	return nil
}

// UpdateAccess rewrites the access columns and replaces the temporary grants
// in one transaction.
func (r *Repository) UpdateAccess(ctx context.Context, id int64, access userAdmin.AccessUpdate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := &userDatamodel.User{
			Role:              string(access.Role),
			Permissions:       access.Permissions,
			CustomPermissions: access.CustomPermissions,
			DeniedPermissions: access.DeniedPermissions,
			AllowedIPs:        access.AllowedIPs,
			AccessStartTime:   access.AccessStartTime,
			AccessEndTime:     access.AccessEndTime,
			LockedUntil:       access.LockedUntil,
		}
		result := tx.Model(&userDatamodel.User{ID: id}).
			Select("Role", "Permissions", "CustomPermissions", "DeniedPermissions",
				"AllowedIPs", "AccessStartTime", "AccessEndTime", "LockedUntil").
			Updates(model)
		if result.Error != nil {
			return fmt.Errorf("update access: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return user.ErrNotFound
		}

		if err := tx.Where("user_id = ?", id).Delete(&userDatamodel.TemporaryPermission{}).Error; err != nil {
			return fmt.Errorf("clear temporary permissions: %w", err)
		}
		if len(access.TemporaryPermissions) == 0 {
			return nil
		}

		grants := make([]userDatamodel.TemporaryPermission, 0, len(access.TemporaryPermissions))
		for _, tp := range access.TemporaryPermissions {
			grants = append(grants, userDatamodel.TemporaryPermission{
				UserID:     id,
				Permission: tp.Permission,
				ExpiresAt:  tp.ExpiresAt,
			})
		}
		if err := tx.Create(&grants).Error; err != nil {
			return fmt.Errorf("insert temporary permissions: %w", err)
		}
		return nil
	})
}

func (r *Repository) SetActive(ctx context.Context, id int64, active bool) error {
	result := r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("id = ?", id).
		Update("is_active", active)
	if result.Error != nil {
		return fmt.Errorf("set active: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return user.ErrNotFound
	}
	return nil
}
