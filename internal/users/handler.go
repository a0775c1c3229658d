package users

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-pos/meridian/internal/authz"
	"github.com/meridian-pos/meridian/internal/platform/httpx"
	"github.com/meridian-pos/meridian/internal/shared"
)

// Handler exposes the admin user-lifecycle endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	guard     *authz.Guard
	mw        authz.Middleware
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard *authz.Guard, mw authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, guard: guard, mw: mw, validator: validator.New()}
}

// MountRoutes registers the user management routes. Every route names the
// exact permission it needs; nothing is gated on a role name.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.mw.Require(authz.ResourceUser, authz.ActionList)).Get("/", h.list)
	r.With(h.mw.Require(authz.ResourceUser, authz.ActionCreate)).Post("/", h.create)
	r.With(h.mw.Require(authz.ResourceUser, authz.ActionRead)).Get("/{id}", h.get)
	r.With(h.mw.Require(authz.ResourceUser, authz.ActionSetRole)).Put("/{id}/role", h.setRole)
	r.With(h.mw.Require(authz.ResourceUser, authz.ActionBan)).Post("/{id}/ban", h.ban)
	r.With(h.mw.Require(authz.ResourceUser, authz.ActionUnban)).Post("/{id}/unban", h.unban)
	r.With(h.mw.Require(authz.ResourceUser, authz.ActionDelete)).Delete("/{id}", h.delete)
	r.With(h.mw.Require(authz.ResourceUser, authz.ActionSetPassword)).Put("/{id}/password", h.setPassword)
	r.With(h.mw.Require(authz.ResourceUser, authz.ActionImpersonate)).Post("/{id}/impersonate", h.impersonate)
	r.Get("/{id}/can", h.can)
}

type listResponse struct {
	Users      []User            `json:"users"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	users, pagination, err := h.service.List(r.Context(), principal.OrgID, page, perPage)
	if err != nil {
		h.fail(w, "list users", err)
		return
	}
	if users == nil {
		users = []User{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{Users: users, Pagination: pagination})
}

type createRequest struct {
	Email    string   `json:"email" validate:"required,email"`
	Name     string   `json:"name" validate:"required"`
	Password string   `json:"password" validate:"required,min=8"`
	Roles    []string `json:"roles" validate:"required,min=1"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Invalid user payload")
		return
	}

	user, err := h.service.Create(r.Context(), principal, CreateInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Roles:    req.Roles,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicateEmail):
			httpx.Fail(w, http.StatusConflict, "Email already registered")
		case errors.Is(err, ErrUnknownRoleName):
			httpx.Fail(w, http.StatusBadRequest, "Unknown role")
		default:
			h.fail(w, "create user", err)
		}
		return
	}
	httpx.JSON(w, http.StatusCreated, user)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	user, err := h.service.Get(r.Context(), principal.OrgID, id)
	if err != nil {
		h.fail(w, "get user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

type setRoleRequest struct {
	Roles []string `json:"roles" validate:"required,min=1"`
}

func (h *Handler) setRole(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req setRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "At least one role is required")
		return
	}
	if err := h.service.SetRoles(r.Context(), principal, id, req.Roles); err != nil {
		if errors.Is(err, ErrUnknownRoleName) {
			httpx.Fail(w, http.StatusBadRequest, "Unknown role")
			return
		}
		h.fail(w, "set roles", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"id": id, "roles": req.Roles})
}

type banRequest struct {
	Reason  string     `json:"reason" validate:"required"`
	Expires *time.Time `json:"expires,omitempty"`
}

func (h *Handler) ban(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req banRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Ban reason is required")
		return
	}
	if err := h.service.Ban(r.Context(), principal, id, BanInput{Reason: req.Reason, Expires: req.Expires}); err != nil {
		h.fail(w, "ban user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"id": id, "banned": true})
}

func (h *Handler) unban(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	if err := h.service.Unban(r.Context(), principal, id); err != nil {
		h.fail(w, "unban user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"id": id, "banned": false})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), principal, id); err != nil {
		h.fail(w, "delete user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"id": id, "deleted": true})
}

type setPasswordRequest struct {
	Password string `json:"password" validate:"required,min=8"`
}

func (h *Handler) setPassword(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req setPasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}
	if err := h.service.SetPassword(r.Context(), principal, id, req.Password); err != nil {
		h.fail(w, "set password", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"id": id, "password_set": true})
}

func (h *Handler) impersonate(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	target, err := h.service.Impersonate(r.Context(), principal, id)
	if err != nil {
		h.fail(w, "impersonate user", err)
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.Fail(w, http.StatusInternalServerError, "Internal error")
		return
	}
	sess.SetUser(strconv.FormatInt(target.ID, 10), target.OrgID, target.Roles)
	sess.Set("email", target.Email)
	sess.Set("impersonator", strconv.FormatInt(principal.ID, 10))

	httpx.JSON(w, http.StatusOK, map[string]any{
		"impersonating": target.ID,
		"email":         target.Email,
		"roles":         target.Roles,
	})
}

// can answers whether the target user's roles would grant an arbitrary
// (resource, action) pair. The caller must hold user:read; the answer grants
// the caller nothing.
func (h *Handler) can(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Invalid user ID")
		return
	}
	resource := authz.Resource(r.URL.Query().Get("resource"))
	action := authz.Action(r.URL.Query().Get("action"))
	if resource == "" || action == "" {
		httpx.Fail(w, http.StatusBadRequest, "resource and action query parameters are required")
		return
	}

	callerReq := []authz.Requirement{{Resource: authz.ResourceUser, Action: authz.ActionRead}}
	caller, err := h.guard.Authorize(r.Context(), r, callerReq...)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	target, err := h.service.Get(r.Context(), caller.OrgID, id)
	if err != nil {
		h.fail(w, "get target", err)
		return
	}

	_, allowed, err := h.guard.AuthorizeFor(r.Context(), r, callerReq, target.Roles,
		authz.Requirement{Resource: resource, Action: action})
	if err != nil {
		if errors.Is(err, authz.ErrUnknownRole) {
			httpx.Fail(w, http.StatusConflict, "Target user holds a role unknown to the catalog")
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"user_id":  id,
		"resource": resource,
		"action":   action,
		"allowed":  allowed,
	})
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Invalid user ID")
		return 0, false
	}
	return id, true
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, shared.ErrNotFound) {
		httpx.Fail(w, http.StatusNotFound, "User not found")
		return
	}
	if h.logger != nil {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.Fail(w, http.StatusInternalServerError, "Internal error")
}
