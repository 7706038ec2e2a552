package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/opsgate/identity/internal/core/ports"
)

// requestMeta captures the caller's network identity for the audit trail.
func requestMeta(c echo.Context) ports.RequestMeta {
	return ports.RequestMeta{
		IPAddress: c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}
}

// ctxIdentity extracts the claims injected by the Auth middleware. A missing
// user id means the middleware did not run or the token was unusable, so the
// request fails fast with 401.
func ctxIdentity(c echo.Context) (userID, email string, err error) {
	userID, _ = c.Get("user_id").(string)
	if userID == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	email, _ = c.Get("email").(string)
	return userID, email, nil
}
