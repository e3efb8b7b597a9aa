package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hallbook/auditorium-booking/internal/model"
)

// RequireRole enforces that the authenticated user holds one of the given
// workflow roles.  The values compared are the JWT "role" claim strings
// stored in context by JWTAuth.  Requests from any other role are
// rejected with 403 before reaching the handler; the transition engine
// re-checks actor roles independently, so this is the outer gate only.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[string(r)] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get("role").(string)
			if !ok || !allowed[role] {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
