package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/user-management/internal/model"
)

func newUserRepoWithMock(t *testing.T) (*UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewUserRepo(db), mock
}

var userRowColumns = []string{"id", "email", "password_hash", "full_name", "phone", "role",
	"is_active", "is_locked", "has_logged_in", "created_at", "updated_at"}

func TestUserRepo_Create_NormalizesEmail(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users (email, password_hash, full_name, phone, role, is_active) VALUES (?,?,?,?,?,?)")).
		WithArgs("alice@example.com", sqlmock.AnyArg(), "Alice", "", model.RoleUser, false).
		WillReturnResult(sqlmock.NewResult(42, 1))

	id, err := repo.Create(context.Background(), model.User{Email: " Alice@Example.com ", FullName: "Alice", Role: model.RoleUser}, "pw", 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
}

func TestUserRepo_Create_Duplicate(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	_, err := repo.Create(context.Background(), model.User{Email: "a@b.co", Role: model.RoleUser}, "pw", 4)
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestUserRepo_Create_DBError(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectExec("INSERT INTO users").WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), model.User{Email: "a@b.co"}, "pw", 4)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert user: db down")
}

func TestUserRepo_GetByID(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT .* FROM users WHERE id=\? LIMIT 1`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow(7, "bob@example.com", "hash", "Bob", "0123456789", "USER", true, false, true, now, now))

	u, err := repo.GetByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", u.Email)
	assert.True(t, u.IsActive)
	assert.True(t, u.HasLoggedIn)
}

func TestUserRepo_GetByEmail_NotFound(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectQuery(`SELECT .* FROM users WHERE email=\?`).
		WithArgs("ghost@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "GHOST@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepo_List(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery(`SELECT .* FROM users ORDER BY id DESC LIMIT \? OFFSET \?`).
		WithArgs(5, 5).
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow(7, "a@example.com", "h", "", "", "USER", false, false, false, now, now).
			AddRow(6, "b@example.com", "h", "", "", "ADMIN", true, false, true, now, now))

	users, total, err := repo.List(context.Background(), 2, 5)
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	require.Len(t, users, 2)
	assert.Equal(t, uint64(7), users[0].ID)
}

func TestUserRepo_Update_OnlySetFields(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)
	name := "Alice Liddell"

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET full_name=? WHERE id=?")).
		WithArgs(name, uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Update(context.Background(), 3, UserFields{FullName: &name}))
}

func TestUserRepo_Update_NoFieldsIsNoop(t *testing.T) {
	repo, _ := newUserRepoWithMock(t)
	require.NoError(t, repo.Update(context.Background(), 3, UserFields{}))
}

func TestUserRepo_SetLocked_NotFound(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET is_locked=? WHERE id=?")).
		WithArgs(true, uint64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.SetLocked(context.Background(), 99, true), ErrNotFound)
}

func TestUserRepo_ActivateByEmail(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET is_active=1 WHERE email=?")).
		WithArgs("alice@example.com").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET is_active=1 WHERE email=?")).
		WithArgs("nobody@example.com").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.ActivateByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ActivateByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUserRepo_Delete_Twice(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	q := regexp.QuoteMeta("DELETE FROM users WHERE id=?")
	mock.ExpectExec(q).WithArgs(uint64(5)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs(uint64(5)).WillReturnResult(sqlmock.NewResult(0, 0))

	first, err := repo.Delete(context.Background(), 5)
	require.NoError(t, err)
	second, err := repo.Delete(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, first)
	assert.False(t, second)
}

func TestUserRepo_MarkLoggedIn_And_UpdatePassword(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET password_hash=? WHERE email=?")).
		WithArgs("newhash", "alice@example.com").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET has_logged_in=1 WHERE email=?")).
		WithArgs("alice@example.com").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.UpdatePasswordByEmail(context.Background(), "alice@example.com", "newhash"))
	assert.ErrorIs(t, repo.MarkLoggedIn(context.Background(), "alice@example.com"), ErrNotFound)
}
