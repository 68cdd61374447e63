package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/iliyamo/user-management/internal/model"
	"github.com/iliyamo/user-management/internal/queue"
)

// NotificationStore persists admin notifications; *repository.NotificationRepo
// satisfies it.
type NotificationStore interface {
	Create(ctx context.Context, n model.Notification) (uint64, error)
	ListUnread(ctx context.Context, limit int) ([]model.Notification, error)
}

type userLookup interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// NotificationService records requests that need an administrator.
type NotificationService struct {
	Notes NotificationStore
	Users userLookup
	Pub   Publisher
}

func NewNotificationService(notes NotificationStore, users userLookup, pub Publisher) *NotificationService {
	return &NotificationService{Notes: notes, Users: users, Pub: pub}
}

// CreateResendRequestNotification stores a "resend my activation link"
// request for userID and pushes it to the admin queue.  The row is the
// source of truth; a failed publish is logged only.
func (s *NotificationService) CreateResendRequestNotification(ctx context.Context, userID uint64) error {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	n := model.Notification{
		UserID:  u.ID,
		Kind:    model.NotificationResendRequest,
		Message: fmt.Sprintf("User %s requested a new activation link.", u.Email),
	}
	id, err := s.Notes.Create(ctx, n)
	if err != nil {
		return err
	}
	ev := queue.AdminNotificationEvent{
		NotificationID: id,
		UserID:         u.ID,
		Email:          u.Email,
		Kind:           n.Kind,
		Message:        n.Message,
		CreatedAt:      time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.Pub.Publish(ctx, queue.AdminQueue, ev); err != nil {
		log.Printf("notify-admin: publish notification %d failed: %v", id, err)
	}
	return nil
}

// Unread lists pending notifications for the admin page.
func (s *NotificationService) Unread(ctx context.Context, limit int) ([]model.Notification, error) {
	return s.Notes.ListUnread(ctx, limit)
}
