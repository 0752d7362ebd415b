package auth

import (
	"net/http"

	"github.com/frahmantamala/storeadmin/internal/transport"
	"github.com/frahmantamala/storeadmin/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.LoggerWrapper()),
		Service:     svc,
	}
}

// Login handles POST /auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := transport.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, err)
		return
	}

	result, err := h.Service.Authenticate(r.Context(), dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, NewLoginResponse(result))
}

// RefreshToken handles POST /auth/refresh
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var dto RefreshTokenDTO
	if err := transport.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, err)
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteAppError(w, err)
		return
	}

	result, err := h.Service.RefreshTokens(r.Context(), dto.RefreshToken)
	if err != nil {
		logger.From(r.Context()).Warn("token refresh failed", "error", err)
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, NewLoginResponse(result))
}

// Logout handles POST /auth/logout. Tokens are stateless, so this only
// confirms the caller held a valid access token; the client discards both.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token := h.ExtractTokenFromHeader(r)
	if token == "" {
		h.WriteAppError(w, ErrUnauthenticated)
		return
	}

	claims, err := h.Service.ValidateAccessToken(token)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	logger.From(r.Context()).Info("user logged out", "user_id", claims.UserID)
	h.WriteJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "Logged out"})
}

// AuthMiddleware resolves the bearer token to the live principal and stores
// it in the request context.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.WriteAppError(w, ErrUnauthenticated)
			return
		}

		u, err := h.Service.AuthenticateRequest(r.Context(), token)
		if err != nil {
			logger.From(r.Context()).Warn("auth middleware: rejecting token", "error", err)
			h.WriteAppError(w, err)
			return
		}

		ctx := ContextWithUser(r.Context(), u)
		ctx = logger.With(ctx, "user_id", u.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
