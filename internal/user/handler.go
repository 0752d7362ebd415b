package user

import (
	"net/http"
	"strconv"

	"github.com/frahmantamala/storeadmin/internal"
	"github.com/frahmantamala/storeadmin/internal/auth"
	"github.com/frahmantamala/storeadmin/internal/rbac"
	"github.com/frahmantamala/storeadmin/internal/transport"
	"github.com/frahmantamala/storeadmin/pkg/logger"
	"github.com/go-chi/chi"
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

// GetCurrentUser handles GET /users/me
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	current, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrUnauthenticated)
		return
	}

	profile, err := h.Service.GetProfile(r.Context(), current.ID)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	h.WriteSuccess(w, http.StatusOK, profile)
}

// ListUsers handles GET /users?role=&active=
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	var filter ListFilter
	if role := r.URL.Query().Get("role"); role != "" {
		parsed, ok := rbac.ParseRole(role)
		if !ok {
			h.WriteAppError(w, internal.NewValidationFieldError("role", "unknown role", internal.ErrCodeInvalidRole))
			return
		}
		filter.Role = parsed
	}
	if active := r.URL.Query().Get("active"); active != "" {
		b, err := strconv.ParseBool(active)
		if err != nil {
			h.WriteAppError(w, internal.NewValidationFieldError("active", "active must be true or false", internal.ErrCodeValidationFailed))
			return
		}
		filter.Active = &b
	}

	users, err := h.Service.List(r.Context(), filter)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	h.WriteSuccess(w, http.StatusOK, users)
}

// CreateUser handles POST /users
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var dto CreateUserDTO
	if err := transport.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, err)
		return
	}

	caller, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrUnauthenticated)
		return
	}

	u, err := h.Service.Create(r.Context(), caller, dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	h.WriteSuccess(w, http.StatusCreated, u)
}

// UpdatePermissions handles PUT /users/{id}/permissions
func (h *Handler) UpdatePermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}

	caller, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrUnauthenticated)
		return
	}

	var dto UpdateAccessDTO
	if err := transport.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, err)
		return
	}

	profile, err := h.Service.UpdateAccess(r.Context(), caller, id, dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	h.WriteSuccess(w, http.StatusOK, profile)
}

// UpdateStatus handles PATCH /users/{id}/status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}

	caller, found := auth.UserFromContext(r.Context())
	if !found {
		h.WriteAppError(w, internal.ErrUnauthenticated)
		return
	}
	if caller.ID == id {
		h.WriteAppError(w, internal.NewValidationFieldError("id", "you cannot change your own status", internal.ErrCodeInvalidRequest))
		return
	}

	var dto UpdateStatusDTO
	if err := transport.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, err)
		return
	}

	u, err := h.Service.SetStatus(r.Context(), caller, id, dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	h.WriteSuccess(w, http.StatusOK, u)
}

// ListRoles handles GET /roles
func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	h.WriteSuccess(w, http.StatusOK, h.Service.Roles())
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.WriteAppError(w, internal.NewValidationFieldError("id", "id must be a positive integer", internal.ErrCodeInvalidRequest))
		return 0, false
	}
	return id, true
}
