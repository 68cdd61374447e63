package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/user-management/internal/model"
	"github.com/iliyamo/user-management/internal/session"
)

// IdentityLoader resolves the identity attached to a session id;
// *session.Store satisfies it.
type IdentityLoader interface {
	Identity(ctx context.Context, sid string) (model.Identity, bool, error)
}

// Session returns a middleware that guarantees every request carries a
// session id cookie and, when the session is logged in, injects the caller's
// identity into the context.  Handlers read both back through SessionID and
// CurrentIdentity.  A Redis failure is logged and the request continues as
// anonymous.
func Session(store IdentityLoader, secure bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sid := ""
			if ck, err := c.Cookie(session.CookieName); err == nil {
				sid = ck.Value
			}
			if sid == "" {
				sid = session.NewID()
				c.SetCookie(&http.Cookie{
					Name:     session.CookieName,
					Value:    sid,
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			c.Set(session.ContextSID, sid)

			id, ok, err := store.Identity(c.Request().Context(), sid)
			if err != nil {
				c.Logger().Errorf("session: load %s: %v", sid, err)
			} else if ok {
				c.Set(session.ContextIdentity, id)
			}
			return next(c)
		}
	}
}
