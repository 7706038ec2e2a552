package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/opsgate/identity/internal/core/domain"
	"github.com/opsgate/identity/internal/core/ports"
)

// RequireRole enforces a minimum role in the tenant the request targets.
// The tenant comes from the :tenant path parameter when present, falling
// back to the token's tenant claim. The role lookup is a fresh read per
// request, so a revocation takes effect immediately.
func RequireRole(roles ports.RoleService, minimum domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, _ := c.Get("user_id").(string)
			if userID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
			}

			tenantID := c.Param("tenant")
			if tenantID == "" {
				tenantID, _ = c.Get("tenant_id").(string)
			}
			if tenantID == "" {
				return echo.NewHTTPError(http.StatusForbidden, "no tenant in scope")
			}

			if err := roles.Authorize(c.Request().Context(), userID, tenantID, minimum); err != nil {
				return err
			}
			return next(c)
		}
	}
}

// SelfOrRole guards user-scoped reads: the request passes when the :user
// path parameter is the token subject, otherwise the caller needs the
// minimum role in the resolved tenant, exactly as RequireRole. Anything
// else fails closed.
func SelfOrRole(roles ports.RoleService, minimum domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, _ := c.Get("user_id").(string)
			if userID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
			}

			if target := c.Param("user"); target != "" && target == userID {
				return next(c)
			}

			tenantID := c.Param("tenant")
			if tenantID == "" {
				tenantID, _ = c.Get("tenant_id").(string)
			}
			if tenantID == "" {
				return echo.NewHTTPError(http.StatusForbidden, "no tenant in scope")
			}

			if err := roles.Authorize(c.Request().Context(), userID, tenantID, minimum); err != nil {
				return err
			}
			return next(c)
		}
	}
}
