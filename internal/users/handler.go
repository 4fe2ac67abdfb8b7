package users

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/bookward/bookward/internal/auth"
	"github.com/bookward/bookward/internal/authz"
	"github.com/bookward/bookward/internal/platform/httpx"
	"github.com/bookward/bookward/internal/shared"
)

// Lifecycle covers the account state transitions owned by the auth service.
type Lifecycle interface {
	Deactivate(ctx context.Context, subject string) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// Handler manages user management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	lifecycle Lifecycle
	gate      auth.Middleware
	policy    *authz.Policy
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, lifecycle Lifecycle, gate auth.Middleware, policy *authz.Policy) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		lifecycle: lifecycle,
		gate:      gate,
		policy:    policy,
		validator: validator.New(),
	}
}

// MountRoutes registers user routes. Every route is authenticated; the policy
// table gates the admin-only ones.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Authenticate)
		r.Post("/deactivate", h.deactivate)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Authenticate, h.policy.Require(authz.ActionUsersList))
		r.Get("/", h.listUsers)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Authenticate, h.policy.Require(authz.ActionUsersCreate))
		r.Post("/", h.createUser)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Authenticate, h.policy.Require(authz.ActionUsersUpdate))
		r.Put("/{id}", h.updateUser)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Authenticate, h.policy.Require(authz.ActionUsersDelete))
		r.Delete("/{id}", h.deleteUser)
	})
}

type createUserRequest struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Username  string `json:"username" validate:"required,min=3"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	Role      string `json:"role" validate:"required,oneof=admin author user"`
}

type updateUserRequest struct {
	FirstName *string `json:"firstName" validate:"omitempty,min=1"`
	LastName  *string `json:"lastName" validate:"omitempty,min=1"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Role      *string `json:"role" validate:"omitempty,oneof=admin author user"`
	IsActive  *bool   `json:"isActive"`
}

type listUsersResponse struct {
	Users      []User `json:"users"`
	TotalCount int64  `json:"totalCount"`
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := shared.ParseLimitOffset(r.URL.Query())
	result, total, err := h.service.ListUsers(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if result == nil {
		result = []User{}
	}
	httpx.JSON(w, http.StatusOK, listUsersResponse{Users: result, TotalCount: total})
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	user, err := h.service.CreateUser(r.Context(), CreateInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		Role:      auth.Role(req.Role),
	})
	if err != nil {
		h.logError("create user", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, user)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid user id")
		return
	}
	var req updateUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	var role *auth.Role
	if req.Role != nil {
		converted := auth.Role(*req.Role)
		role = &converted
	}
	user, err := h.service.UpdateUser(r.Context(), id, UpdateInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Role:      role,
		IsActive:  req.IsActive,
	})
	if err != nil {
		h.logError("update user", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid user id")
		return
	}
	if err := h.lifecycle.SoftDelete(r.Context(), id); err != nil {
		h.logError("delete user", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	if err := h.lifecycle.Deactivate(r.Context(), identity.Subject); err != nil {
		h.logError("deactivate user", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "account deactivated"})
}

func (h *Handler) logError(op string, err error) {
	switch {
	case errors.Is(err, httpx.ErrNotFound),
		errors.Is(err, httpx.ErrDuplicate),
		errors.Is(err, httpx.ErrValidation),
		errors.Is(err, httpx.ErrForbidden):
		// Expected domain outcomes.
	default:
		h.logger.Error(op, slog.Any("error", err))
	}
}
