package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/caminante/caminante-api/internal/config"
	"github.com/caminante/caminante-api/internal/model"
	"github.com/caminante/caminante-api/internal/repository"
)

// UserHandler implements the user administration endpoints. Listing,
// role changes and deletion are admin-only (enforced by route group
// middleware); the password change additionally allows the account
// owner, checked here because it is an ownership predicate rather than
// a role.
type UserHandler struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo
}

func NewUserHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo) *UserHandler {
	if u == nil || t == nil {
		panic("nil repository passed to NewUserHandler")
	}
	return &UserHandler{Cfg: cfg, Users: u, Tokens: t}
}

// List handles GET /api/usuarios. Password hashes never leave the
// repository's List query.
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.Users.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to load users"})
	}
	out := make([]userPart, 0, len(users))
	for _, u := range users {
		out = append(out, userPart{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "ok", "users": out})
}

type passwordReq struct {
	Password string `json:"password"`
}

// UpdatePassword handles PUT /api/usuarios/:id/modificar-password.
// A user may change their own password; admins may change anyone's.
// All refresh tokens of the target user are revoked afterwards.
func (h *UserHandler) UpdatePassword(c echo.Context) error {
	callerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	targetID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid user id"})
	}
	if callerID != targetID && getRole(c) != model.RoleAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "access denied"})
	}
	var req passwordReq
	if err := c.Bind(&req); err != nil || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "password is required"})
	}

	ctx := c.Request().Context()
	if err := h.Users.UpdatePassword(ctx, targetID, req.Password, h.Cfg.BcryptCost); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to update password"})
	}
	_ = h.Tokens.RevokeAllForUser(ctx, targetID)
	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}

type roleReq struct {
	Role string `json:"role"`
}

// UpdateRole handles PUT /api/usuarios/:id/modificar-rol (admin only).
func (h *UserHandler) UpdateRole(c echo.Context) error {
	targetID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid user id"})
	}
	var req roleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	if !model.ValidRole(req.Role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid role"})
	}

	if err := h.Users.UpdateRole(c.Request().Context(), targetID, req.Role); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to update role"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "role updated"})
}

// Delete handles DELETE /api/usuarios/:id/eliminar (admin only). The
// user's refresh tokens are revoked so stale sessions die with the
// account. Seats the user held remain occupied until cancelled by an
// operator; reassignment policy is an open product decision.
func (h *UserHandler) Delete(c echo.Context) error {
	targetID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid user id"})
	}
	ctx := c.Request().Context()
	if err := h.Users.Delete(ctx, targetID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to delete user"})
	}
	_ = h.Tokens.RevokeAllForUser(ctx, targetID)
	return c.JSON(http.StatusOK, echo.Map{"message": "user deleted"})
}
