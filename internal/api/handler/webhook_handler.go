package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/opsgate/identity/internal/metrics"
	"github.com/opsgate/identity/internal/core/domain"
	"github.com/opsgate/identity/internal/core/ports"
)

// maxWebhookBody bounds how much of a delivery we buffer. Signatures are
// computed over the exact raw bytes, so the body is read before any JSON
// handling.
const maxWebhookBody = 1 << 20

const signatureHeader = "X-Webhook-Signature"

type WebhookHandler struct {
	verifier ports.WebhookVerifier
}

func NewWebhookHandler(verifier ports.WebhookVerifier) *WebhookHandler {
	return &WebhookHandler{verifier: verifier}
}

type webhookAcceptedResponse struct {
	TenantID string `json:"tenant_id"`
	Message  string `json:"message"`
}

// Receive handles POST /v1/webhooks/:tool and verifies the delivery's
// HMAC signature, freshness window, and replay status before accepting it.
//
// @Summary      Ingest an external tool webhook
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        tool  path      string  true  "Source tool slug"
// @Success      202   {object}  webhookAcceptedResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /v1/webhooks/{tool} [post]
func (h *WebhookHandler) Receive(c echo.Context) error {
	signature := strings.TrimPrefix(c.Request().Header.Get(signatureHeader), "sha256=")
	if signature == "" {
		metrics.WebhookVerificationsTotal.WithLabelValues("invalid").Inc()
		return echo.NewHTTPError(http.StatusBadRequest, "missing signature header")
	}

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
	}

	tenantID, err := h.verifier.Verify(c.Request().Context(), ports.WebhookInput{
		Body:      body,
		Signature: signature,
		Meta:      requestMeta(c),
	})
	if err != nil {
		metrics.WebhookVerificationsTotal.WithLabelValues(webhookResult(err)).Inc()
		if errors.Is(err, domain.ErrDuplicateDelivery) {
			metrics.WebhookReplayHitsTotal.Inc()
		}
		return err
	}
	metrics.WebhookVerificationsTotal.WithLabelValues("success").Inc()

	return c.JSON(http.StatusAccepted, webhookAcceptedResponse{
		TenantID: tenantID,
		Message:  "delivery accepted",
	})
}

func webhookResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrSignatureMismatch):
		return "signature_mismatch"
	case errors.Is(err, domain.ErrWebhookExpired):
		return "expired"
	case errors.Is(err, domain.ErrFutureTimestamp):
		return "future"
	case errors.Is(err, domain.ErrDuplicateDelivery):
		return "duplicate"
	case errors.Is(err, domain.ErrUnknownTenant):
		return "unknown_tenant"
	default:
		return "invalid"
	}
}
