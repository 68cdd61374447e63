package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/user-management/internal/model"
)

// NotificationLister is satisfied by *service.NotificationService.
type NotificationLister interface {
	Unread(ctx context.Context, limit int) ([]model.Notification, error)
}

// NotificationHandler lets administrators see pending resend requests.
type NotificationHandler struct {
	Notes NotificationLister
}

func NewNotificationHandler(notes NotificationLister) *NotificationHandler {
	return &NotificationHandler{Notes: notes}
}

// Unread returns the newest unread notifications, ?limit= capped at 100.
func (h *NotificationHandler) Unread(c echo.Context) error {
	limit := positiveQueryInt(c, "limit", 20)
	if limit > 100 {
		limit = 100
	}
	ctx, cancel := storeCtx(c)
	defer cancel()
	notes, err := h.Notes.Unread(ctx, limit)
	if err != nil {
		c.Logger().Errorf("list notifications: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Internal Server Error"})
	}
	if notes == nil {
		notes = []model.Notification{}
	}
	return c.JSON(http.StatusOK, echo.Map{"notifications": notes})
}
