package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeLoginSucceeded = "auth.login_succeeded"
	EventTypeLoginFailed    = "auth.login_failed"
	EventTypeTokenRefreshed = "auth.token_refreshed"
	EventTypeAccessDenied   = "auth.access_denied"
)

func newBaseEvent(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

type LoginSucceededEvent struct {
	BaseEvent
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

func NewLoginSucceededEvent(userID int64, username string) *LoginSucceededEvent {
	return &LoginSucceededEvent{
		BaseEvent: newBaseEvent(EventTypeLoginSucceeded, map[string]interface{}{
			"user_id":  userID,
			"username": username,
		}),
		UserID:   userID,
		Username: username,
	}
}

// LoginFailedEvent records the internal reason; callers only ever see
// "invalid credentials".
type LoginFailedEvent struct {
	BaseEvent
	Identifier string `json:"identifier"`
	Reason     string `json:"reason"`
}

func NewLoginFailedEvent(identifier, reason string) *LoginFailedEvent {
	return &LoginFailedEvent{
		BaseEvent: newBaseEvent(EventTypeLoginFailed, map[string]interface{}{
			"identifier": identifier,
			"reason":     reason,
		}),
		Identifier: identifier,
		Reason:     reason,
	}
}

type TokenRefreshedEvent struct {
	BaseEvent
	UserID int64 `json:"user_id"`
}

func NewTokenRefreshedEvent(userID int64) *TokenRefreshedEvent {
	return &TokenRefreshedEvent{
		BaseEvent: newBaseEvent(EventTypeTokenRefreshed, map[string]interface{}{
			"user_id": userID,
		}),
		UserID: userID,
	}
}

type AccessDeniedEvent struct {
	BaseEvent
	UserID      int64  `json:"user_id"`
	Method      string `json:"method"`
	Path        string `json:"path"`
	Requirement string `json:"requirement"`
	Reason      string `json:"reason"`
}

func NewAccessDeniedEvent(userID int64, method, path, requirement, reason string) *AccessDeniedEvent {
	return &AccessDeniedEvent{
		BaseEvent: newBaseEvent(EventTypeAccessDenied, map[string]interface{}{
			"user_id":     userID,
			"method":      method,
			"path":        path,
			"requirement": requirement,
			"reason":      reason,
		}),
		UserID:      userID,
		Method:      method,
		Path:        path,
		Requirement: requirement,
		Reason:      reason,
	}
}

// RegisterAuditLogger writes every published event to logger as an audit line.
func RegisterAuditLogger(bus *EventBus, logger *slog.Logger) {
	bus.Subscribe(Wildcard, func(ctx context.Context, event Event) error {
		logger.InfoContext(ctx, "audit",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"occurred_at", event.OccurredAt(),
			"payload", event.Payload())
		return nil
	})
}
