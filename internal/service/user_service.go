package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/iliyamo/user-management/internal/model"
	"github.com/iliyamo/user-management/internal/queue"
	"github.com/iliyamo/user-management/internal/repository"
	"github.com/iliyamo/user-management/internal/utils"
)

// UserStore is the persistence the user service needs; *repository.UserRepo
// satisfies it.
type UserStore interface {
	Create(ctx context.Context, u model.User, password string, cost int) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	List(ctx context.Context, page, limit int) ([]model.User, int, error)
	Update(ctx context.Context, id uint64, f repository.UserFields) error
	SetLocked(ctx context.Context, id uint64, locked bool) error
	ActivateByEmail(ctx context.Context, email string) (bool, error)
	UpdatePasswordByEmail(ctx context.Context, email, hash string) error
	UpdatePasswordByID(ctx context.Context, id uint64, hash string) error
	MarkLoggedIn(ctx context.Context, email string) error
	Delete(ctx context.Context, id uint64) (bool, error)
}

// TokenIssuer mints activation tokens.
type TokenIssuer interface {
	Issue(email string) (utils.ActivationToken, error)
}

// MaxPageSize caps the user listing.
const MaxPageSize = 100

// MinPasswordLength applies to passwords chosen by users.
const MinPasswordLength = 8

// UserService implements registration, activation bookkeeping and the
// administrative user operations.
type UserService struct {
	Users      UserStore
	Tokens     TokenIssuer
	Mail       Publisher
	BcryptCost int
	BaseURL    string
}

func NewUserService(users UserStore, tokens TokenIssuer, mail Publisher, bcryptCost int, baseURL string) *UserService {
	if users == nil || tokens == nil || mail == nil {
		panic("nil dependency passed to NewUserService")
	}
	return &UserService{
		Users:      users,
		Tokens:     tokens,
		Mail:       mail,
		BcryptCost: bcryptCost,
		BaseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// SignUpResult mirrors what the registration page shows: Valid=false means
// the input was rejected and Message says why.
type SignUpResult struct {
	Valid   bool
	Message string
	UserID  uint64
}

// UserPage is one page of the user listing.
type UserPage struct {
	Users       []model.User `json:"users"`
	CurrentPage int          `json:"currentPage"`
	Limit       int          `json:"limit"`
	TotalUsers  int          `json:"totalUsers"`
	TotalPages  int          `json:"totalPages"`
}

// BlockResult is returned by ToggleUserBlock.
type BlockResult struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    *model.User `json:"data"`
}

// EditResult is returned by EditByID.
type EditResult struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    *model.User `json:"data,omitempty"`
}

// ListUsers returns page (1-based) of at most limit users.
func (s *UserService) ListUsers(ctx context.Context, page, limit int) (UserPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 5
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	users, total, err := s.Users.List(ctx, page, limit)
	if err != nil {
		return UserPage{}, err
	}
	return UserPage{
		Users:       users,
		CurrentPage: page,
		Limit:       limit,
		TotalUsers:  total,
		TotalPages:  (total + limit - 1) / limit,
	}, nil
}

// SignUp registers a pending user with a temporary password and mails the
// activation link.  A user that was stored but could not be mailed is still
// reported as valid; the administrator can resend from the user list.
func (s *UserService) SignUp(ctx context.Context, in SignUpInput) (SignUpResult, error) {
	in.Sanitize()
	if err := in.Validate(); err != nil {
		return SignUpResult{Valid: false, Message: err.Error()}, nil
	}

	tempPassword, err := utils.TemporaryPassword()
	if err != nil {
		return SignUpResult{}, err
	}
	u := model.User{Email: in.Email, FullName: in.FullName, Phone: in.Phone, Role: in.Role}
	id, err := s.Users.Create(ctx, u, tempPassword, s.BcryptCost)
	if errors.Is(err, repository.ErrEmailExists) {
		return SignUpResult{Valid: false, Message: "Email already exists."}, nil
	}
	if err != nil {
		return SignUpResult{}, err
	}
	u.ID = id

	if err := s.sendActivation(ctx, u, tempPassword); err != nil {
		log.Printf("signup: activation mail for user %d not sent: %v", id, err)
		return SignUpResult{Valid: true, UserID: id,
			Message: "User created, but the activation email could not be sent. Use resend from the user list."}, nil
	}
	return SignUpResult{Valid: true, UserID: id,
		Message: fmt.Sprintf("User created. An activation email has been sent to %s.", u.Email)}, nil
}

// GetUserByID returns ErrNotFound for unknown ids.
func (s *UserService) GetUserByID(ctx context.Context, id uint64) (model.User, error) {
	return s.Users.GetByID(ctx, id)
}

// EditByID applies an already sanitized and validated update.
func (s *UserService) EditByID(ctx context.Context, id uint64, upd UserUpdate) (EditResult, error) {
	err := s.Users.Update(ctx, id, repository.UserFields{FullName: upd.FullName, Phone: upd.Phone, Role: upd.Role})
	if errors.Is(err, repository.ErrNotFound) {
		return EditResult{Success: false, Message: "User not found"}, nil
	}
	if err != nil {
		return EditResult{}, err
	}
	u, err := s.Users.GetByID(ctx, id)
	if err != nil {
		return EditResult{}, err
	}
	return EditResult{Success: true, Message: "User updated successfully", Data: &u}, nil
}

// ToggleUserBlock sets the lock flag.  Unknown users yield Success=false.
func (s *UserService) ToggleUserBlock(ctx context.Context, id uint64, locked bool) (BlockResult, error) {
	err := s.Users.SetLocked(ctx, id, locked)
	if errors.Is(err, repository.ErrNotFound) {
		return BlockResult{Success: false, Message: "User not found"}, nil
	}
	if err != nil {
		return BlockResult{}, err
	}
	u, err := s.Users.GetByID(ctx, id)
	if err != nil {
		return BlockResult{}, err
	}
	msg := "User has been unblocked"
	if locked {
		msg = "User has been blocked"
	}
	return BlockResult{Success: true, Message: msg, Data: &u}, nil
}

// ActivateUserByEmail flips the user to active.  False means no such user.
func (s *UserService) ActivateUserByEmail(ctx context.Context, email string) (bool, error) {
	return s.Users.ActivateByEmail(ctx, email)
}

// UpdatePassword replaces the password of the user with email.
func (s *UserService) UpdatePassword(ctx context.Context, email, password string) error {
	if len(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	hash, err := utils.HashPassword(password, s.BcryptCost)
	if err != nil {
		return err
	}
	return s.Users.UpdatePasswordByEmail(ctx, email, hash)
}

// SetLoginStatus records that the user has completed first login.
func (s *UserService) SetLoginStatus(ctx context.Context, email string) error {
	return s.Users.MarkLoggedIn(ctx, email)
}

// RemoveUser deletes the user; false means it did not exist.
func (s *UserService) RemoveUser(ctx context.Context, id uint64) (bool, error) {
	return s.Users.Delete(ctx, id)
}

// ResendActivationEmail rotates the temporary password and mails a fresh
// activation link.  Unlike SignUp a delivery failure is an error here.
func (s *UserService) ResendActivationEmail(ctx context.Context, id uint64) (string, error) {
	u, err := s.Users.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	tempPassword, err := utils.TemporaryPassword()
	if err != nil {
		return "", err
	}
	hash, err := utils.HashPassword(tempPassword, s.BcryptCost)
	if err != nil {
		return "", err
	}
	if err := s.Users.UpdatePasswordByID(ctx, id, hash); err != nil {
		return "", err
	}
	if err := s.sendActivation(ctx, u, tempPassword); err != nil {
		return "", fmt.Errorf("send activation email: %w", err)
	}
	return fmt.Sprintf("Activation email has been resent to %s.", u.Email), nil
}

// Authenticate checks credentials for the login page.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (model.User, error) {
	u, err := s.Users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return model.User{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return model.User{}, ErrInvalidCredentials
	}
	if u.IsLocked {
		return model.User{}, ErrUserLocked
	}
	if !u.IsActive {
		return model.User{}, ErrUserInactive
	}
	return u, nil
}

// EnsureAdmin creates an active administrator when no user with email
// exists.  It reports whether a user was created.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	_, err := s.Users.GetByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}
	admin := model.User{Email: email, FullName: "Administrator", Role: model.RoleAdmin, IsActive: true}
	if _, err := s.Users.Create(ctx, admin, password, s.BcryptCost); err != nil {
		return false, err
	}
	if err := s.Users.MarkLoggedIn(ctx, email); err != nil {
		return true, err
	}
	return true, nil
}

func (s *UserService) sendActivation(ctx context.Context, u model.User, tempPassword string) error {
	tok, err := s.Tokens.Issue(u.Email)
	if err != nil {
		return err
	}
	ev := queue.ActivationEmailEvent{
		UserID:            u.ID,
		Email:             u.Email,
		FullName:          u.FullName,
		ActivationURL:     s.BaseURL + "/activate/" + tok.Token,
		TemporaryPassword: tempPassword,
		ExpiresAt:         tok.Exp.Format(time.RFC3339),
		RequestedAt:       time.Now().UTC().Format(time.RFC3339),
	}
	return s.Mail.Publish(ctx, queue.MailQueue, ev)
}
