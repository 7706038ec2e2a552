package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/opsgate/identity/internal/core/domain"
	"github.com/opsgate/identity/internal/core/ports"
)

type RoleHandler struct {
	roles ports.RoleService
	audit ports.AuditRecorder
}

func NewRoleHandler(roles ports.RoleService, audit ports.AuditRecorder) *RoleHandler {
	return &RoleHandler{roles: roles, audit: audit}
}

type assignRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

type roleValue struct {
	Role string `json:"role"`
}

// Assign handles PUT /v1/tenants/:tenant/users/:user/role. The previous
// assignment, if any, is captured so the change trail records both sides
// of the transition.
//
// @Summary      Assign or replace a user's role in a tenant
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        tenant  path      string             true  "Tenant id"
// @Param        user    path      string             true  "User id"
// @Param        body    body      assignRoleRequest  true  "Role to grant"
// @Success      200     {object}  domain.RoleAssignment
// @Failure      400     {object}  errorResponse
// @Failure      403     {object}  errorResponse
// @Failure      404     {object}  errorResponse
// @Router       /v1/tenants/{tenant}/users/{user}/role [put]
func (h *RoleHandler) Assign(c echo.Context) error {
	actorID, actorEmail, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	tenantID := c.Param("tenant")
	userID := c.Param("user")

	var req assignRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	role, err := domain.ParseRole(req.Role)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	var oldValue json.RawMessage
	if prior, err := h.roles.GetRole(ctx, userID, tenantID); err == nil {
		oldValue = mustJSON(roleValue{Role: string(prior)})
	}

	assignment, err := h.roles.AssignRole(ctx, userID, tenantID, role)
	if err != nil {
		return err
	}

	h.audit.RecordChange(ctx, ports.ChangeInput{
		ActorUserID: &actorID,
		ActorEmail:  actorEmail,
		TenantID:    tenantID,
		Action:      "role.assigned",
		EntityType:  "role_assignment",
		EntityID:    fmt.Sprintf("%s:%s", userID, tenantID),
		OldValue:    oldValue,
		NewValue:    mustJSON(roleValue{Role: string(role)}),
		Meta:        requestMeta(c),
	})
	return c.JSON(http.StatusOK, assignment)
}

// Revoke handles DELETE /v1/tenants/:tenant/users/:user/role. Revoking a
// missing assignment is a 404 rather than a silent no-op.
//
// @Summary      Revoke a user's role in a tenant
// @Tags         roles
// @Security     BearerAuth
// @Param        tenant  path  string  true  "Tenant id"
// @Param        user    path  string  true  "User id"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/tenants/{tenant}/users/{user}/role [delete]
func (h *RoleHandler) Revoke(c echo.Context) error {
	actorID, actorEmail, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	tenantID := c.Param("tenant")
	userID := c.Param("user")

	ctx := c.Request().Context()
	var oldValue json.RawMessage
	if prior, err := h.roles.GetRole(ctx, userID, tenantID); err == nil {
		oldValue = mustJSON(roleValue{Role: string(prior)})
	}

	removed, err := h.roles.RevokeRole(ctx, userID, tenantID)
	if err != nil {
		return err
	}
	if !removed {
		return domain.ErrRoleNotFound
	}

	h.audit.RecordChange(ctx, ports.ChangeInput{
		ActorUserID: &actorID,
		ActorEmail:  actorEmail,
		TenantID:    tenantID,
		Action:      "role.revoked",
		EntityType:  "role_assignment",
		EntityID:    fmt.Sprintf("%s:%s", userID, tenantID),
		OldValue:    oldValue,
		Meta:        requestMeta(c),
	})
	return c.NoContent(http.StatusNoContent)
}

// List handles GET /v1/users/:user/roles.
//
// @Summary      List a user's role assignments across tenants
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Param        user  path      string  true  "User id"
// @Success      200   {array}   domain.RoleAssignment
// @Router       /v1/users/{user}/roles [get]
func (h *RoleHandler) List(c echo.Context) error {
	assignments, err := h.roles.ListRoles(c.Request().Context(), c.Param("user"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, assignments)
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}
