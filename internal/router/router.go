package router // package router defines how HTTP routes are registered

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/user-management/internal/handler"
	"github.com/iliyamo/user-management/internal/middleware"
	"github.com/iliyamo/user-management/internal/model"
)

// RegisterRoutes registers the unauthenticated operational endpoints.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
}

// RegisterAuth registers login and logout.  limit guards the credential
// check against guessing.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limit echo.MiddlewareFunc) {
	e.GET("/login", a.LoginView)
	e.POST("/login", a.Login, limit)
	e.POST("/logout", a.Logout)
}

// RegisterActivation registers the pages reached from the activation email
// and the anonymous "notify admin" call.  None of them require a session
// identity.
func RegisterActivation(e *echo.Echo, h *handler.ActivationHandler, limit echo.MiddlewareFunc) {
	e.GET("/activate/:token", h.ActivateView)
	e.POST("/activate", h.Activate, limit)
	e.GET("/resend-request", h.ResendRequestView)
	e.POST("/user/notify-admin", h.NotifyAdmin, limit)
}

// RegisterUsers registers the /user routes.  Middleware is attached per
// route because administrators and ordinary users share the /user prefix.
func RegisterUsers(e *echo.Echo, u *handler.UserHandler, h *handler.ActivationHandler, n *handler.NotificationHandler) {
	admin := middleware.RequireRole(model.RoleAdmin)
	login := middleware.RequireLogin()

	e.GET("/user", u.Index, admin)
	e.POST("/user", u.Register, admin)
	e.GET("/user/notifications", n.Unread, admin)

	e.GET("/user/set-password", u.SetPasswordView, login)
	e.POST("/user/set-password", u.SetPassword, login)

	e.GET("/user/:id", u.Get, login)
	e.PUT("/user/:id", u.Update, login)
	e.PATCH("/user/:id", u.Update, login)
	e.DELETE("/user/:id", u.Remove, admin)
	e.GET("/user/:id/profile", u.Profile, login)

	e.PATCH("/user/:id/block", u.Block, admin)
	e.POST("/user/:id/block", u.Block, admin)
	e.POST("/user/:id/resend", h.Resend, admin)
}
