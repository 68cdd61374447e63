package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/user-management/internal/middleware"
	"github.com/iliyamo/user-management/internal/model"
	"github.com/iliyamo/user-management/internal/service"
	"github.com/iliyamo/user-management/internal/session"
)

// Accounts is the user service as seen by the handlers;
// *service.UserService satisfies it.
type Accounts interface {
	ListUsers(ctx context.Context, page, limit int) (service.UserPage, error)
	SignUp(ctx context.Context, in service.SignUpInput) (service.SignUpResult, error)
	ToggleUserBlock(ctx context.Context, id uint64, locked bool) (service.BlockResult, error)
	UpdatePassword(ctx context.Context, email, password string) error
	SetLoginStatus(ctx context.Context, email string) error
	RemoveUser(ctx context.Context, id uint64) (bool, error)
	GetUserByID(ctx context.Context, id uint64) (model.User, error)
	EditByID(ctx context.Context, id uint64, upd service.UserUpdate) (service.EditResult, error)
}

// Default page and page size of the user listing.
const (
	defaultPage  = 1
	defaultLimit = 5
)

// UserHandler serves the /user routes.
type UserHandler struct {
	Accounts Accounts
	Sessions SessionStore
}

func NewUserHandler(accounts Accounts, sessions SessionStore) *UserHandler {
	if accounts == nil || sessions == nil {
		panic("nil dependency passed to NewUserHandler")
	}
	return &UserHandler{Accounts: accounts, Sessions: sessions}
}

// Index serves GET /user: the page for browsers, the listing for data calls.
func (h *UserHandler) Index(c echo.Context) error {
	if wantsJSON(c) {
		return h.List(c)
	}
	return h.View(c)
}

// View renders the administration page.
func (h *UserHandler) View(c echo.Context) error {
	id, _ := middleware.CurrentIdentity(c)
	return render(c, h.Sessions, "pages/user", echo.Map{"user": id})
}

// List returns one page of users.  Malformed paging parameters fall back to
// the defaults instead of failing.
func (h *UserHandler) List(c echo.Context) error {
	page := positiveQueryInt(c, "page", defaultPage)
	limit := positiveQueryInt(c, "limit", defaultLimit)

	ctx, cancel := storeCtx(c)
	defer cancel()
	res, err := h.Accounts.ListUsers(ctx, page, limit)
	if err != nil {
		c.Logger().Errorf("list users: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Internal Server Error"})
	}
	return c.JSON(http.StatusOK, res)
}

// Register handles the registration form and always returns to the user page.
func (h *UserHandler) Register(c echo.Context) error {
	var in service.SignUpInput
	if err := c.Bind(&in); err != nil {
		return flashRedirect(c, h.Sessions, session.FlashError, "Invalid registration data.", "/user")
	}

	ctx, cancel := storeCtx(c)
	defer cancel()
	res, err := h.Accounts.SignUp(ctx, in)
	if err != nil {
		c.Logger().Errorf("register %s: %v", in.Email, err)
		return flashRedirect(c, h.Sessions, session.FlashError, "An error occurred while registering the user.", "/user")
	}
	if !res.Valid {
		return flashRedirect(c, h.Sessions, session.FlashError, res.Message, "/user")
	}
	return flashRedirect(c, h.Sessions, session.FlashSuccess, res.Message, "/user")
}

type blockReq struct {
	IsLocked *bool `json:"isLocked" form:"isLocked"`
}

// Block sets or clears the lock flag of a user.
func (h *UserHandler) Block(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusNotFound, service.BlockResult{Success: false, Message: "User not found"})
	}
	var req blockReq
	if err := c.Bind(&req); err != nil || req.IsLocked == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "isLocked is required"})
	}

	ctx, cancel := storeCtx(c)
	defer cancel()
	res, err := h.Accounts.ToggleUserBlock(ctx, id, *req.IsLocked)
	if err != nil {
		c.Logger().Errorf("block user %d: %v", id, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "Internal Server Error"})
	}
	if !res.Success {
		return c.JSON(http.StatusNotFound, res)
	}
	return c.JSON(http.StatusOK, res)
}

// SetPasswordView renders the first-login password form.
func (h *UserHandler) SetPasswordView(c echo.Context) error {
	id, _ := middleware.CurrentIdentity(c)
	return render(c, h.Sessions, "pages/set-password", echo.Map{"email": id.Email})
}

type setPasswordReq struct {
	Email           string `json:"email" form:"email"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword"`
}

// SetPassword replaces the caller's password, records the first login and
// ends the session so the user logs in again with the new password.
//
// The password update and the login-status update are two separate writes.
// When the second fails the new password stays in place; the user is told
// to retry and the failure is logged.
func (h *UserHandler) SetPassword(c echo.Context) error {
	const back = "/user/set-password"
	caller, _ := middleware.CurrentIdentity(c)

	var req setPasswordReq
	if err := c.Bind(&req); err != nil {
		return flashRedirect(c, h.Sessions, session.FlashError, "Invalid form data.", back)
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		email = caller.Email
	}
	if email != caller.Email {
		return flashRedirect(c, h.Sessions, session.FlashError, "You can only set your own password.", back)
	}
	if req.Password != req.ConfirmPassword {
		return flashRedirect(c, h.Sessions, session.FlashError, "Passwords do not match.", back)
	}

	ctx, cancel := storeCtx(c)
	defer cancel()
	if err := h.Accounts.UpdatePassword(ctx, email, req.Password); err != nil {
		if errors.Is(err, service.ErrWeakPassword) {
			return flashRedirect(c, h.Sessions, session.FlashError, "Password must be at least 8 characters.", back)
		}
		c.Logger().Errorf("update password for %s: %v", email, err)
		return flashRedirect(c, h.Sessions, session.FlashError, "An error occurred while updating the password.", back)
	}
	if err := h.Accounts.SetLoginStatus(ctx, email); err != nil {
		c.Logger().Errorf("password for %s updated but login status not recorded: %v", email, err)
		return flashRedirect(c, h.Sessions, session.FlashError, "An error occurred while updating the password.", back)
	}

	if err := h.Sessions.ClearIdentity(ctx, middleware.SessionID(c)); err != nil {
		c.Logger().Errorf("clear session after password set: %v", err)
	}
	return flashRedirect(c, h.Sessions, session.FlashSuccess, "Password updated. Please log in with your new password.", "/login")
}

// Remove deletes a user.  Deleting the same id twice yields 200 then 404.
func (h *UserHandler) Remove(c echo.Context) error {
	if strings.TrimSpace(c.Param("id")) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "User id is required"})
	}
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "User not found"})
	}

	ctx, cancel := storeCtx(c)
	defer cancel()
	removed, err := h.Accounts.RemoveUser(ctx, id)
	if err != nil {
		c.Logger().Errorf("remove user %d: %v", id, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "Internal Server Error"})
	}
	if !removed {
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "User not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "User removed successfully"})
}

// canView reports whether the caller may read the user with target id.
func canView(c echo.Context, target uint64) bool {
	caller, ok := middleware.CurrentIdentity(c)
	return ok && (caller.IsAdmin() || caller.UserID == target)
}

// Get returns one user as JSON.
func (h *UserHandler) Get(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "User not found"})
	}
	if !canView(c, id) {
		return c.JSON(http.StatusForbidden, echo.Map{"success": false, "message": "Forbidden"})
	}

	ctx, cancel := storeCtx(c)
	defer cancel()
	u, err := h.Accounts.GetUserByID(ctx, id)
	if errors.Is(err, service.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "User not found"})
	}
	if err != nil {
		c.Logger().Errorf("get user %d: %v", id, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "Internal Server Error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "User retrieved successfully", "user": u})
}

// Update applies a partial update.  The permission check runs before the
// body is read, so a rejected caller causes no side effect at all.
func (h *UserHandler) Update(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "User not found"})
	}
	caller, _ := middleware.CurrentIdentity(c)
	if !caller.CanUpdate(id) {
		return c.String(http.StatusForbidden, "You do not have permission to update this user")
	}

	var upd service.UserUpdate
	if err := c.Bind(&upd); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Invalid request body"})
	}
	upd.Sanitize()
	if err := upd.Validate(caller); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": err.Error()})
	}

	ctx, cancel := storeCtx(c)
	defer cancel()
	res, err := h.Accounts.EditByID(ctx, id, upd)
	if err != nil {
		c.Logger().Errorf("update user %d: %v", id, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "Internal Server Error"})
	}
	if !res.Success {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": res.Message})
	}
	return c.JSON(http.StatusOK, res)
}

// Profile renders a user's profile page.
func (h *UserHandler) Profile(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.String(http.StatusNotFound, "User not found")
	}
	if !canView(c, id) {
		return c.String(http.StatusForbidden, "Forbidden")
	}

	ctx, cancel := storeCtx(c)
	defer cancel()
	u, err := h.Accounts.GetUserByID(ctx, id)
	if errors.Is(err, service.ErrNotFound) {
		return c.String(http.StatusNotFound, "User not found")
	}
	if err != nil {
		c.Logger().Errorf("profile %d: %v", id, err)
		return c.String(http.StatusInternalServerError, "Internal Server Error")
	}
	return render(c, h.Sessions, "pages/profile", echo.Map{"user": u})
}
