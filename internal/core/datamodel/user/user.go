package user

import "time"

type User struct {
	ID                int64      `gorm:"primaryKey"`
	Username          string     `gorm:"column:username;uniqueIndex;not null"`
	Email             string     `gorm:"column:email;uniqueIndex;not null"`
	PasswordHash      string     `gorm:"column:password_hash"`
	Role              string     `gorm:"column:role;not null"`
	IsActive          bool       `gorm:"column:is_active;not null"`
	TwoFactorEnabled  bool       `gorm:"column:two_factor_enabled;not null"`
	TwoFactorSecret   string     `gorm:"column:two_factor_secret"`
	Permissions       []string   `gorm:"column:permissions;serializer:json"`
	CustomPermissions []string   `gorm:"column:custom_permissions;serializer:json"`
	DeniedPermissions []string   `gorm:"column:denied_permissions;serializer:json"`
	AllowedIPs        []string   `gorm:"column:allowed_ips;serializer:json"`
	AccessStartTime   string     `gorm:"column:access_start_time"`
	AccessEndTime     string     `gorm:"column:access_end_time"`
	LockedUntil       *time.Time `gorm:"column:locked_until"`
	LastLoginAt       *time.Time `gorm:"column:last_login_at"`
	CreatedAt         time.Time  `gorm:"column:created_at"`
	UpdatedAt         time.Time  `gorm:"column:updated_at"`

	TemporaryPermissions []TemporaryPermission `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (User) TableName() string {
	return "users"
}

type TemporaryPermission struct {
	ID         int64     `gorm:"primaryKey"`
	UserID     int64     `gorm:"column:user_id;index;not null"`
	Permission string    `gorm:"column:permission;not null"`
	ExpiresAt  time.Time `gorm:"column:expires_at;not null"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (TemporaryPermission) TableName() string {
	return "user_temporary_permissions"
}
