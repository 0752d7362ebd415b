package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/storeadmin/internal"
	"github.com/frahmantamala/storeadmin/internal/core/events"
	"github.com/frahmantamala/storeadmin/internal/core/metrics"
	"github.com/frahmantamala/storeadmin/internal/core/user"
	"github.com/frahmantamala/storeadmin/internal/rbac"
	"github.com/frahmantamala/storeadmin/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when the identifier matches nobody so that
// unknown and known users take a similar amount of time.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("storeadmin-dummy-password"), bcrypt.DefaultCost)

// Service verifies credentials and issues token pairs.
type Service struct {
	repo     Repository
	tokens   TokenGenerator
	resolver *rbac.Resolver
	logger   *slog.Logger
	events   events.Publisher
	metrics  *metrics.Recorder
	now      func() time.Time
}

// NewService creates a new auth service
func NewService(repo Repository, tokenGen TokenGenerator, resolver *rbac.Resolver, lg *slog.Logger) *Service {
	if lg == nil {
		lg = logger.LoggerWrapper()
	}
	return &Service{
		repo:     repo,
		tokens:   tokenGen,
		resolver: resolver,
		logger:   lg,
		now:      time.Now,
	}
}

func (s *Service) WithEventBus(p events.Publisher) *Service {
	s.events = p
	return s
}

func (s *Service) WithMetrics(m *metrics.Recorder) *Service {
	s.metrics = m
	return s
}

func (s *Service) Resolver() *rbac.Resolver {
	return s.resolver
}

// Authenticate validates credentials and returns the sanitized principal with
// a fresh token pair. Unknown identifier, inactive account, missing hash and
// wrong password are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (*LoginResult, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	identifier := strings.TrimSpace(dto.Username)
	u, err := s.repo.FindByUsernameOrEmail(ctx, identifier)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			return nil, internal.NewInternalError("failed to load user", err)
		}
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(dto.Password))
		return nil, s.loginFailed(ctx, identifier, "unknown_user")
	}

	if !u.IsActiveUser() {
		return nil, s.loginFailed(ctx, identifier, "inactive")
	}
	if u.PasswordHash == "" {
		return nil, s.loginFailed(ctx, identifier, "no_password")
	}
	if err := VerifyPassword(u.PasswordHash, dto.Password); err != nil {
		return nil, s.loginFailed(ctx, identifier, "bad_password")
	}

	// Only the presence of a code is checked; no TOTP verification yet.
	if u.TwoFactorEnabled && strings.TrimSpace(dto.TwoFactorCode) == "" {
		s.metrics.ObserveLogin("two_factor_required")
		return nil, ErrTwoFactorRequired
	}

	now := s.now()
	if err := s.repo.UpdateLastLogin(ctx, u.ID, now); err != nil {
		return nil, internal.NewInternalError("failed to record login", err)
	}
	u.LastLoginAt = &now

	result, err := s.issue(u)
	if err != nil {
		return nil, err
	}

	logger.From(ctx).Info("user logged in", "user_id", u.ID, "role", u.Role)
	s.metrics.ObserveLogin("success")
	s.publish(ctx, events.NewLoginSucceededEvent(u.ID, u.Username))

	return result, nil
}

// RefreshTokens verifies a refresh token, reloads the principal and issues a
// new pair. The presented refresh token is not revoked.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (*LoginResult, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		s.metrics.ObserveRefresh("invalid_token")
		return nil, err
	}

	u, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.metrics.ObserveRefresh("unknown_user")
			return nil, ErrInvalidToken
		}
		return nil, internal.NewInternalError("failed to load user", err)
	}
	if !u.IsActiveUser() {
		s.metrics.ObserveRefresh("inactive")
		return nil, ErrInvalidToken
	}

	result, err := s.issue(u)
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveRefresh("success")
	s.publish(ctx, events.NewTokenRefreshedEvent(u.ID))
	return result, nil
}

func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokens.ValidateAccessToken(tokenString)
}

// AuthenticateRequest resolves a bearer token to the live principal. A valid
// token whose principal has since been removed or deactivated is rejected.
func (s *Service) AuthenticateRequest(ctx context.Context, tokenString string) (*user.User, error) {
	if tokenString == "" {
		return nil, ErrUnauthenticated
	}
	claims, err := s.tokens.ValidateAccessToken(tokenString)
	if err != nil {
		return nil, err
	}

	u, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, internal.NewInternalError("failed to load user", err)
	}
	if !u.IsActiveUser() {
		return nil, ErrInvalidToken
	}
	return u, nil
}

// EffectivePermissions returns the sorted effective permission list of u.
func (s *Service) EffectivePermissions(u *user.User) []string {
	return s.resolver.EffectivePermissions(u.Subject()).Slice()
}

func (s *Service) issue(u *user.User) (*LoginResult, error) {
	access, err := s.tokens.GenerateAccessToken(u, s.EffectivePermissions(u))
	if err != nil {
		return nil, internal.NewInternalError("failed to issue token", err)
	}
	refresh, err := s.tokens.GenerateRefreshToken(u)
	if err != nil {
		return nil, internal.NewInternalError("failed to issue token", err)
	}
	return &LoginResult{
		User:         u.Sanitized(),
		Token:        access,
		RefreshToken: refresh,
	}, nil
}

func (s *Service) loginFailed(ctx context.Context, identifier, reason string) error {
	logger.From(ctx).Warn("login failed", "identifier", identifier, "reason", reason)
	s.metrics.ObserveLogin("failure")
	s.publish(ctx, events.NewLoginFailedEvent(identifier, reason))
	return ErrInvalidCredentials
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event", "event_type", event.EventType(), "error", err)
	}
}
