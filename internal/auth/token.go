package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/frahmantamala/storeadmin/internal/core/user"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

// NewJWTTokenGenerator creates a new JWT token generator
func NewJWTTokenGenerator(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *JWTTokenGenerator {
	return &JWTTokenGenerator{
		AccessTokenSecret:  []byte(accessSecret),
		RefreshTokenSecret: []byte(refreshSecret),
		AccessTokenTTL:     accessTTL,
		RefreshTokenTTL:    refreshTTL,
	}
}

// GenerateAccessToken encodes id, username, role and a snapshot of the
// permission list.
func (j *JWTTokenGenerator) GenerateAccessToken(u *user.User, permissions []string) (string, error) {
	claims := &Claims{
		UserID:           u.ID,
		Username:         u.Username,
		Role:             u.Role,
		Permissions:      permissions,
		TokenUse:         tokenUseAccess,
		RegisteredClaims: registeredClaims(u.ID, j.AccessTokenTTL),
	}
	return sign(claims, j.AccessTokenSecret)
}

// GenerateRefreshToken encodes the user id only.
func (j *JWTTokenGenerator) GenerateRefreshToken(u *user.User) (string, error) {
	claims := &Claims{
		UserID:           u.ID,
		TokenUse:         tokenUseRefresh,
		RegisteredClaims: registeredClaims(u.ID, j.RefreshTokenTTL),
	}
	return sign(claims, j.RefreshTokenSecret)
}

func (j *JWTTokenGenerator) ValidateAccessToken(tokenString string) (*Claims, error) {
	return verify(tokenString, j.AccessTokenSecret, tokenUseAccess)
}

func (j *JWTTokenGenerator) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return verify(tokenString, j.RefreshTokenSecret, tokenUseRefresh)
}

func registeredClaims(userID int64, ttl time.Duration) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func sign(claims *Claims, secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("signing %s token: %w", claims.TokenUse, err)
	}
	return signed, nil
}

// verify checks signature, expiry and token use. Every failure is ErrInvalidToken.
func verify(tokenString string, secret []byte, use string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, ErrInvalidToken.WithCause(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenUse != use {
		return nil, ErrInvalidToken.WithCause(fmt.Errorf("expected %s token, got %q", use, claims.TokenUse))
	}
	if claims.UserID == 0 {
		return nil, ErrInvalidToken.WithCause(errors.New("missing user id"))
	}
	return claims, nil
}
