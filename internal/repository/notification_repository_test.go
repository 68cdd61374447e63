package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/user-management/internal/model"
)

func TestNotificationRepo_CreateAndListUnread(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewNotificationRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notifications (user_id, kind, message) VALUES (?,?,?)")).
		WithArgs(uint64(3), model.NotificationResendRequest, "resend please").
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery(`SELECT .* FROM notifications WHERE is_read=0 ORDER BY id DESC LIMIT \?`).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "kind", "message", "is_read", "created_at"}).
			AddRow(11, 3, model.NotificationResendRequest, "resend please", false, time.Now()))

	id, err := repo.Create(context.Background(), model.Notification{UserID: 3, Kind: model.NotificationResendRequest, Message: "resend please"})
	require.NoError(t, err)
	assert.Equal(t, uint64(11), id)

	list, err := repo.ListUnread(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, uint64(3), list[0].UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
