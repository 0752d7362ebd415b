package auth

import (
	"context"

	"github.com/frahmantamala/storeadmin/internal/core/user"
)

type contextKey string

const ContextUserKey contextKey = "user"

// ContextWithUser stores the authenticated principal.
func ContextWithUser(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, ContextUserKey, u)
}

func UserFromContext(ctx context.Context) (*user.User, bool) {
	u, ok := ctx.Value(ContextUserKey).(*user.User)
	return u, ok && u != nil
}
