package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/user-management/internal/middleware"
	"github.com/iliyamo/user-management/internal/model"
	"github.com/iliyamo/user-management/internal/service"
	"github.com/iliyamo/user-management/internal/session"
)

// Authenticator checks login credentials; *service.UserService satisfies it.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (model.User, error)
}

// AuthHandler serves login and logout.
type AuthHandler struct {
	Users    Authenticator
	Sessions SessionStore
}

func NewAuthHandler(users Authenticator, sessions SessionStore) *AuthHandler {
	return &AuthHandler{Users: users, Sessions: sessions}
}

type loginReq struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func (h *AuthHandler) LoginView(c echo.Context) error {
	return render(c, h.Sessions, "pages/login", nil)
}

// Login attaches the user to the session.  Users who still hold the
// temporary password go straight to the set-password page.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return flashRedirect(c, h.Sessions, session.FlashError, "Invalid form data.", "/login")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return flashRedirect(c, h.Sessions, session.FlashError, "Email and password are required.", "/login")
	}

	ctx, cancel := storeCtx(c)
	defer cancel()
	u, err := h.Users.Authenticate(ctx, req.Email, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrInvalidCredentials):
		return flashRedirect(c, h.Sessions, session.FlashError, "Invalid email or password.", "/login")
	case errors.Is(err, service.ErrUserLocked):
		return flashRedirect(c, h.Sessions, session.FlashError, "Your account has been blocked.", "/login")
	case errors.Is(err, service.ErrUserInactive):
		return flashRedirect(c, h.Sessions, session.FlashError, "Please activate your account using the link in your email.", "/login")
	default:
		c.Logger().Errorf("login %s: %v", req.Email, err)
		return flashRedirect(c, h.Sessions, session.FlashError, "An error occurred.", "/login")
	}

	id := model.Identity{UserID: u.ID, Email: u.Email, Role: u.Role, HasLoggedIn: u.HasLoggedIn}
	if err := h.Sessions.SetIdentity(ctx, middleware.SessionID(c), id); err != nil {
		c.Logger().Errorf("store session for %s: %v", u.Email, err)
		return flashRedirect(c, h.Sessions, session.FlashError, "An error occurred.", "/login")
	}

	switch {
	case !u.HasLoggedIn:
		return c.Redirect(http.StatusFound, "/user/set-password")
	case id.IsAdmin():
		return c.Redirect(http.StatusFound, "/user")
	default:
		return c.Redirect(http.StatusFound, "/user/"+strconv.FormatUint(u.ID, 10)+"/profile")
	}
}

// Logout detaches the identity and keeps the session id for the flash.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx, cancel := storeCtx(c)
	defer cancel()
	if err := h.Sessions.ClearIdentity(ctx, middleware.SessionID(c)); err != nil {
		c.Logger().Errorf("logout: %v", err)
	}
	return flashRedirect(c, h.Sessions, session.FlashSuccess, "You have been logged out.", "/login")
}
