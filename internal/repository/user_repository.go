package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/user-management/internal/model"
	"github.com/iliyamo/user-management/internal/utils"
)

const userColumns = "id,email,password_hash,full_name,phone,role,is_active,is_locked,has_logged_in,created_at,updated_at"

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// UserFields lists the columns an update may touch.  Nil means "leave as is".
type UserFields struct {
	FullName *string
	Phone    *string
	Role     *string
}

// Empty reports whether no field is set.
func (f UserFields) Empty() bool { return f.FullName == nil && f.Phone == nil && f.Role == nil }

type rowScanner interface{ Scan(dest ...any) error }

func scanUser(row rowScanner) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Phone, &u.Role,
		&u.IsActive, &u.IsLocked, &u.HasLoggedIn, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// Create hashes password, inserts the user and returns its ID.
func (r *UserRepo) Create(ctx context.Context, u model.User, password string, cost int) (uint64, error) {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, full_name, phone, role, is_active) VALUES (?,?,?,?,?,?)",
		normalizeEmail(u.Email), hash, u.FullName, u.Phone, u.Role, u.IsActive)
	if err != nil {
		var myErr *mysql.MySQLError
		if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
			return 0, ErrEmailExists
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", normalizeEmail(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// List returns one page of users (newest first) and the total user count.
// page is 1-based.
func (r *UserRepo) List(ctx context.Context, page, limit int) ([]model.User, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	offset := (page - 1) * limit
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY id DESC LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0, limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

// Update applies the non-nil fields to the user.
func (r *UserRepo) Update(ctx context.Context, id uint64, f UserFields) error {
	sets := make([]string, 0, 3)
	args := make([]any, 0, 4)
	if f.FullName != nil {
		sets = append(sets, "full_name=?")
		args = append(args, *f.FullName)
	}
	if f.Phone != nil {
		sets = append(sets, "phone=?")
		args = append(args, *f.Phone)
	}
	if f.Role != nil {
		sets = append(sets, "role=?")
		args = append(args, *f.Role)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET "+strings.Join(sets, ",")+" WHERE id=?", args...)
	return affectedOrNotFound(res, err)
}

// SetLocked blocks or unblocks a user.
func (r *UserRepo) SetLocked(ctx context.Context, id uint64, locked bool) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET is_locked=? WHERE id=?", locked, id)
	return affectedOrNotFound(res, err)
}

// ActivateByEmail marks the user active.  It reports false when no user has
// that email; activating an already active user reports true (the DSN sets
// clientFoundRows so matched rows are counted).
func (r *UserRepo) ActivateByEmail(ctx context.Context, email string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET is_active=1 WHERE email=?", normalizeEmail(email))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdatePasswordByEmail stores a new password hash.
func (r *UserRepo) UpdatePasswordByEmail(ctx context.Context, email, hash string) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET password_hash=? WHERE email=?", hash, normalizeEmail(email))
	return affectedOrNotFound(res, err)
}

// UpdatePasswordByID stores a new password hash.
func (r *UserRepo) UpdatePasswordByID(ctx context.Context, id uint64, hash string) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET password_hash=? WHERE id=?", hash, id)
	return affectedOrNotFound(res, err)
}

// MarkLoggedIn records that the user has replaced the temporary password.
func (r *UserRepo) MarkLoggedIn(ctx context.Context, email string) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET has_logged_in=1 WHERE email=?", normalizeEmail(email))
	return affectedOrNotFound(res, err)
}

// Delete removes the user.  It reports false when nothing was deleted.
func (r *UserRepo) Delete(ctx context.Context, id uint64) (bool, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func affectedOrNotFound(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
