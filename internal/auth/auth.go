package auth

import (
	"context"
	"time"

	"github.com/frahmantamala/storeadmin/internal"
	"github.com/frahmantamala/storeadmin/internal/core/user"
	"github.com/frahmantamala/storeadmin/internal/rbac"
	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenUseAccess  = "access"
	tokenUseRefresh = "refresh"
)

// Claims is the payload of both token kinds. Refresh tokens carry only the
// user id.
type Claims struct {
	UserID      int64     `json:"id"`
	Username    string    `json:"username,omitempty"`
	Role        rbac.Role `json:"role,omitempty"`
	Permissions []string  `json:"permissions,omitempty"`
	TokenUse    string    `json:"token_use"`
	jwt.RegisteredClaims
}

// TokenGenerator creates and verifies signed tokens.
type TokenGenerator interface {
	GenerateAccessToken(u *user.User, permissions []string) (string, error)
	GenerateRefreshToken(u *user.User) (string, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	ValidateRefreshToken(tokenString string) (*Claims, error)
}

// Repository is what the auth core needs from persistence.
type Repository interface {
	FindByUsernameOrEmail(ctx context.Context, identifier string) (*user.User, error)
	FindByID(ctx context.Context, id int64) (*user.User, error)
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
}

// ServiceAPI is consumed by the HTTP handler.
type ServiceAPI interface {
	Authenticate(ctx context.Context, dto LoginDTO) (*LoginResult, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*LoginResult, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	AuthenticateRequest(ctx context.Context, tokenString string) (*user.User, error)
}

// LoginResult is returned by a successful login or refresh.
type LoginResult struct {
	User         *user.User
	Token        string
	RefreshToken string
}

var (
	ErrInvalidCredentials = internal.ErrInvalidCredentials
	ErrTwoFactorRequired  = internal.ErrTwoFactorRequired
	ErrInvalidToken       = internal.ErrInvalidToken
	ErrUnauthenticated    = internal.ErrUnauthenticated
	ErrForbidden          = internal.ErrForbidden
)
