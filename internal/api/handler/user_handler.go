package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/opsgate/identity/internal/core/ports"
)

type UserHandler struct {
	accounts ports.AccountService
	audit    ports.AuditRecorder
}

func NewUserHandler(accounts ports.AccountService, audit ports.AuditRecorder) *UserHandler {
	return &UserHandler{accounts: accounts, audit: audit}
}

// Delete handles DELETE /v1/users/:user. Role assignments cascade away with
// the user; audit rows survive with their user reference nulled.
//
// @Summary      Delete a user account
// @Tags         users
// @Security     BearerAuth
// @Param        user  path  string  true  "User id"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/users/{user} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	actorID, actorEmail, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	userID := c.Param("user")

	ctx := c.Request().Context()
	if err := h.accounts.Delete(ctx, userID); err != nil {
		return err
	}

	h.audit.RecordChange(ctx, ports.ChangeInput{
		ActorUserID: &actorID,
		ActorEmail:  actorEmail,
		Action:      "user.deleted",
		EntityType:  "user",
		EntityID:    userID,
		Meta:        requestMeta(c),
	})
	return c.NoContent(http.StatusNoContent)
}

// AuthEvents handles GET /v1/users/:user/auth-events.
//
// @Summary      List a user's recent authentication events
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        user   path      string  true   "User id"
// @Param        limit  query     int     false  "Maximum rows to return"
// @Success      200    {array}   domain.AuthAuditEntry
// @Router       /v1/users/{user}/auth-events [get]
func (h *UserHandler) AuthEvents(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	events, err := h.audit.ListAuthEvents(c.Request().Context(), c.Param("user"), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, events)
}
