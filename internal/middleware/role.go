package middleware // middleware provides shared request processing for handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// RequireLogin aborts requests that carry no logged-in identity.  Page
// requests (GET with an HTML Accept header) are redirected to /login; API
// calls get a 401 JSON body.
func RequireLogin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := CurrentIdentity(c); !ok {
				return unauthenticated(c)
			}
			return next(c)
		}
	}
}

// RequireRole returns a middleware that enforces that the logged-in caller
// holds one of roles.  Anonymous callers are treated as in RequireLogin;
// authenticated callers with another role get 403.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := CurrentIdentity(c)
			if !ok {
				return unauthenticated(c)
			}
			if !allowed[id.Role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

func unauthenticated(c echo.Context) error {
	req := c.Request()
	if req.Method == http.MethodGet && strings.Contains(req.Header.Get(echo.HeaderAccept), echo.MIMETextHTML) {
		return c.Redirect(http.StatusFound, "/login")
	}
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "login required"})
}
