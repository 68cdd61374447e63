package middleware

// identity.go holds the accessors for what Session stores in the echo
// context.  Handlers and the other middleware go through these rather than
// reading context keys directly.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/user-management/internal/model"
	"github.com/iliyamo/user-management/internal/session"
)

// CurrentIdentity returns the logged-in caller, if any.
func CurrentIdentity(c echo.Context) (model.Identity, bool) {
	id, ok := c.Get(session.ContextIdentity).(model.Identity)
	if !ok || id.UserID == 0 {
		return model.Identity{}, false
	}
	return id, true
}

// SessionID returns the session id assigned by Session, or "".
func SessionID(c echo.Context) string {
	sid, _ := c.Get(session.ContextSID).(string)
	return sid
}

// userID returns the caller's id for rate-limit keys, "guest" when anonymous.
func userID(c echo.Context) string {
	if id, ok := CurrentIdentity(c); ok {
		return strconv.FormatUint(id.UserID, 10)
	}
	return "guest"
}
