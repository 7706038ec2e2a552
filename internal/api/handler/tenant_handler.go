package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/opsgate/identity/internal/core/domain"
	"github.com/opsgate/identity/internal/core/ports"
)

// SecretWriter stores a tenant's webhook signing secret. Implemented by the
// caching secret provider so a rotation is visible immediately.
type SecretWriter interface {
	SetSecret(ctx context.Context, tenantID string, secret []byte) error
}

type TenantHandler struct {
	secrets SecretWriter
	audit   ports.AuditRecorder
}

func NewTenantHandler(secrets SecretWriter, audit ports.AuditRecorder) *TenantHandler {
	return &TenantHandler{secrets: secrets, audit: audit}
}

type setSecretRequest struct {
	Secret string `json:"secret" validate:"required,min=16"`
}

// SetSecret handles PUT /v1/tenants/:tenant/secret. The secret value never
// enters the audit trail, only the fact that it was rotated.
//
// @Summary      Set or rotate a tenant's webhook signing secret
// @Tags         tenants
// @Accept       json
// @Security     BearerAuth
// @Param        tenant  path  string            true  "Tenant id"
// @Param        body    body  setSecretRequest  true  "New signing secret"
// @Success      204
// @Failure      400  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /v1/tenants/{tenant}/secret [put]
func (h *TenantHandler) SetSecret(c echo.Context) error {
	actorID, actorEmail, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	tenantID := c.Param("tenant")
	if !domain.ValidTenantID(tenantID) {
		return domain.ErrInvalidTenantFormat
	}

	var req setSecretRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	ctx := c.Request().Context()
	if err := h.secrets.SetSecret(ctx, tenantID, []byte(req.Secret)); err != nil {
		return err
	}

	redacted := json.RawMessage(`{"secret":"[redacted]"}`)
	h.audit.RecordChange(ctx, ports.ChangeInput{
		ActorUserID: &actorID,
		ActorEmail:  actorEmail,
		TenantID:    tenantID,
		Action:      "tenant.secret_rotated",
		EntityType:  "tenant_webhook_secret",
		EntityID:    tenantID,
		OldValue:    redacted,
		NewValue:    redacted,
		Meta:        requestMeta(c),
	})
	return c.NoContent(http.StatusNoContent)
}
