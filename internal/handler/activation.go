package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/user-management/internal/service"
	"github.com/iliyamo/user-management/internal/session"
)

// Activator is the activation service as seen by the handlers;
// *service.ActivationService satisfies it.
type Activator interface {
	Activate(ctx context.Context, raw string) service.ActivationResult
	Resend(ctx context.Context, userID uint64) (service.ResendResult, error)
	NotifyAdmin(ctx context.Context, userID uint64) error
}

// ActivationHandler serves the activation pages and the resend endpoints.
type ActivationHandler struct {
	Activation Activator
	Sessions   SessionStore
}

func NewActivationHandler(a Activator, sessions SessionStore) *ActivationHandler {
	if a == nil || sessions == nil {
		panic("nil dependency passed to NewActivationHandler")
	}
	return &ActivationHandler{Activation: a, Sessions: sessions}
}

// ActivateView renders the page the emailed link points at.
func (h *ActivationHandler) ActivateView(c echo.Context) error {
	return render(c, h.Sessions, "pages/activate", echo.Map{"token": c.Param("token")})
}

type activateReq struct {
	Token string `json:"token" form:"token"`
}

// Activate verifies the submitted token and routes the browser by outcome:
// login on success, the resend page when the link expired, and back to the
// activation page otherwise.
func (h *ActivationHandler) Activate(c echo.Context) error {
	var req activateReq
	_ = c.Bind(&req)
	token := strings.TrimSpace(req.Token)
	back := "/activate/" + url.PathEscape(token)

	ctx, cancel := storeCtx(c)
	defer cancel()
	res := h.Activation.Activate(ctx, token)
	switch res.Status {
	case service.Activated:
		return flashRedirect(c, h.Sessions, session.FlashSuccess, "Activation successful.", "/login")
	case service.NotActivated:
		return c.Redirect(http.StatusFound, back)
	case service.ActivationExpired:
		return flashRedirect(c, h.Sessions, session.FlashError, "Activation link has expired. Please request a new one.", "/resend-request")
	case service.ActivationInvalid:
		return flashRedirect(c, h.Sessions, session.FlashError, "Invalid activation link.", back)
	default:
		c.Logger().Errorf("activate: %v", res.Err)
		return flashRedirect(c, h.Sessions, session.FlashError, "An error occurred.", back)
	}
}

// ResendRequestView renders the "link expired" page.  An optional ?userId=
// pre-fills the form.
func (h *ActivationHandler) ResendRequestView(c echo.Context) error {
	data := echo.Map{}
	if id, err := strconv.ParseUint(c.QueryParam("userId"), 10, 64); err == nil && id > 0 {
		data["userId"] = id
	}
	return render(c, h.Sessions, "pages/resend-request", data)
}

// Resend mails a new activation link for the user.  An already active user
// is reported with success=false and status 200.
func (h *ActivationHandler) Resend(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "User not found"})
	}

	ctx, cancel := storeCtx(c)
	defer cancel()
	res, err := h.Activation.Resend(ctx, id)
	if errors.Is(err, service.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "User not found"})
	}
	if err != nil {
		c.Logger().Errorf("resend activation for %d: %v", id, err)
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Failed to resend activation email"})
	}
	if res.AlreadyActive {
		return c.JSON(http.StatusOK, echo.Map{"success": false, "message": res.Message})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": res.Message})
}

type notifyAdminReq struct {
	UserID uint64 `json:"userId" form:"userId"`
}

// NotifyAdmin records a request for a new activation link.
func (h *ActivationHandler) NotifyAdmin(c echo.Context) error {
	var req notifyAdminReq
	if err := c.Bind(&req); err != nil || req.UserID == 0 {
		return c.String(http.StatusInternalServerError, "Error sending notification")
	}

	ctx, cancel := storeCtx(c)
	defer cancel()
	if err := h.Activation.NotifyAdmin(ctx, req.UserID); err != nil {
		c.Logger().Errorf("notify admin for %d: %v", req.UserID, err)
		return c.String(http.StatusInternalServerError, "Error sending notification")
	}
	return c.String(http.StatusOK, "Notification sent to admin")
}
