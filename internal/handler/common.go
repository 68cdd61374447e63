package handler // handler defines http handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/user-management/internal/middleware"
	"github.com/iliyamo/user-management/internal/model"
)

// storeTimeout bounds every store call a handler makes.
const storeTimeout = 5 * time.Second

// SessionStore is the slice of the session store handlers use;
// *session.Store satisfies it.
type SessionStore interface {
	SetIdentity(ctx context.Context, sid string, id model.Identity) error
	ClearIdentity(ctx context.Context, sid string) error
	AddFlash(ctx context.Context, sid, kind, msg string) error
	Flashes(ctx context.Context, sid string) (map[string][]string, error)
}

func storeCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), storeTimeout)
}

// parseID reads the :id path parameter.  ok is false for anything that is
// not a positive integer.
func parseID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// flashRedirect queues msg under kind and redirects to target.  A failing
// flash store only costs the message, never the redirect.
func flashRedirect(c echo.Context, sessions SessionStore, kind, msg, target string) error {
	if sid := middleware.SessionID(c); sid != "" {
		ctx, cancel := storeCtx(c)
		defer cancel()
		if err := sessions.AddFlash(ctx, sid, kind, msg); err != nil {
			c.Logger().Errorf("flash %s: %v", kind, err)
		}
	}
	return c.Redirect(http.StatusFound, target)
}

// render pops the pending flashes into data["messages"] and renders page.
func render(c echo.Context, sessions SessionStore, page string, data echo.Map) error {
	if data == nil {
		data = echo.Map{}
	}
	if sid := middleware.SessionID(c); sid != "" {
		ctx, cancel := storeCtx(c)
		defer cancel()
		msgs, err := sessions.Flashes(ctx, sid)
		if err != nil {
			c.Logger().Errorf("read flashes: %v", err)
		}
		data["messages"] = msgs
	}
	return c.Render(http.StatusOK, page, data)
}

// wantsJSON distinguishes the data calls of the user page from a browser
// navigating to it.
func wantsJSON(c echo.Context) bool {
	req := c.Request()
	if strings.Contains(req.Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON) {
		return true
	}
	if req.Header.Get(echo.HeaderXRequestedWith) == "XMLHttpRequest" {
		return true
	}
	q := c.QueryParams()
	return q.Has("page") || q.Has("limit")
}

// positiveQueryInt returns the query parameter as an int, or def when it is
// missing, malformed or below 1.
func positiveQueryInt(c echo.Context, name string, def int) int {
	n, err := strconv.Atoi(c.QueryParam(name))
	if err != nil || n < 1 {
		return def
	}
	return n
}
