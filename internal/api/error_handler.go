package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/opsgate/identity/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	// Known domain errors map to deterministic HTTP codes. Unknown email
	// and wrong password both surface as ErrInvalidCredentials upstream,
	// so the response never reveals whether an account exists.
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, domain.ErrAccountLocked):
		return http.StatusUnauthorized, "account temporarily locked"
	case errors.Is(err, domain.ErrPasswordExpired):
		return http.StatusUnauthorized, "password expired"
	case errors.Is(err, domain.ErrPasswordReused):
		return http.StatusUnprocessableEntity, "password was used recently"
	case errors.Is(err, domain.ErrEmailTaken):
		return http.StatusConflict, "email already registered"
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, domain.ErrRoleNotFound):
		return http.StatusNotFound, "role not found"
	case errors.Is(err, domain.ErrUnknownRole):
		return http.StatusBadRequest, "unknown role"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "access forbidden"

	case errors.Is(err, domain.ErrInvalidPayload):
		return http.StatusBadRequest, "invalid payload"
	case errors.Is(err, domain.ErrMissingTenant):
		return http.StatusBadRequest, "tenant_id is required"
	case errors.Is(err, domain.ErrInvalidTenantFormat):
		return http.StatusBadRequest, "malformed tenant_id"
	case errors.Is(err, domain.ErrUnknownTenant):
		return http.StatusNotFound, "unknown tenant"
	case errors.Is(err, domain.ErrSignatureMismatch):
		return http.StatusUnauthorized, "signature verification failed"
	case errors.Is(err, domain.ErrNaiveTimestamp):
		return http.StatusUnauthorized, "timestamp must carry a timezone"
	case errors.Is(err, domain.ErrWebhookExpired):
		return http.StatusUnauthorized, "delivery is too old"
	case errors.Is(err, domain.ErrFutureTimestamp):
		return http.StatusUnauthorized, "timestamp is in the future"
	case errors.Is(err, domain.ErrDuplicateDelivery):
		return http.StatusConflict, "duplicate delivery"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
