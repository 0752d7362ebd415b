package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/frahmantamala/storeadmin/internal/auth"
	userDatamodel "github.com/frahmantamala/storeadmin/internal/core/datamodel/user"
	"github.com/frahmantamala/storeadmin/internal/core/user"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

var _ auth.Repository = (*Repository)(nil)

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByUsernameOrEmail matches identifier against the username exactly or
// against the email ignoring case.
func (r *Repository) FindByUsernameOrEmail(ctx context.Context, identifier string) (*user.User, error) {
	var m userDatamodel.User
	err := r.db.WithContext(ctx).
		Preload("TemporaryPermissions").
		Where("username = ? OR LOWER(email) = LOWER(?)", identifier, identifier).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("find user by identifier: %w", err)
	}
	return user.FromDataModel(&m), nil
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*user.User, error) {
	var m userDatamodel.User
	err := r.db.WithContext(ctx).
		Preload("TemporaryPermissions").
		First(&m, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return user.FromDataModel(&m), nil
}

// UpdateLastLogin writes last_login_at only; updated_at is left alone.
func (r *Repository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at)
	if result.Error != nil {
		return fmt.Errorf("update last login: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return user.ErrNotFound
	}
	return nil
}
