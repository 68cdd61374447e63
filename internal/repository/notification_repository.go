package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/user-management/internal/model"
)

// NotificationRepo persists admin notifications.
type NotificationRepo struct{ DB *sql.DB }

func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{DB: db} }

// Create inserts a notification and returns its ID.
func (r *NotificationRepo) Create(ctx context.Context, n model.Notification) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO notifications (user_id, kind, message) VALUES (?,?,?)",
		n.UserID, n.Kind, n.Message)
	if err != nil {
		return 0, fmt.Errorf("insert notification: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ListUnread returns the newest unread notifications, at most limit.
func (r *NotificationRepo) ListUnread(ctx context.Context, limit int) ([]model.Notification, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,user_id,kind,message,is_read,created_at FROM notifications WHERE is_read=0 ORDER BY id DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
