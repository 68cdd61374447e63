package service

import (
	"context"

	"github.com/iliyamo/user-management/internal/model"
	"github.com/iliyamo/user-management/internal/utils"
)

// TokenVerifier checks activation tokens; *utils.ActivationTokens satisfies it.
type TokenVerifier interface {
	Verify(raw string) utils.TokenResult
}

// ActivationStatus is the outcome of Activate.
type ActivationStatus int

const (
	Activated         ActivationStatus = iota // token valid, user is now active
	NotActivated                              // token valid but no such user
	ActivationExpired                         // token expired: request a new link
	ActivationInvalid                         // token tampered or malformed
	ActivationFailed                          // store error or unclassified token error
)

// ActivationResult carries the status plus the email the token named (when
// it could be read) and the underlying error for logging.
type ActivationResult struct {
	Status ActivationStatus
	Email  string
	Err    error
}

// ResendResult is returned by Resend.  AlreadyActive is not an error.
type ResendResult struct {
	AlreadyActive bool
	Message       string
}

type activationAccounts interface {
	ActivateUserByEmail(ctx context.Context, email string) (bool, error)
	GetUserByID(ctx context.Context, id uint64) (model.User, error)
	ResendActivationEmail(ctx context.Context, id uint64) (string, error)
}

type resendNotifier interface {
	CreateResendRequestNotification(ctx context.Context, userID uint64) error
}

// ActivationService drives the activation token lifecycle: verify and
// activate, resend, and escalate to an administrator.
type ActivationService struct {
	tokens   TokenVerifier
	accounts activationAccounts
	notifier resendNotifier
}

func NewActivationService(tokens TokenVerifier, accounts activationAccounts, notifier resendNotifier) *ActivationService {
	if tokens == nil || accounts == nil || notifier == nil {
		panic("nil dependency passed to NewActivationService")
	}
	return &ActivationService{tokens: tokens, accounts: accounts, notifier: notifier}
}

// Activate verifies raw and activates the user it names.  The token is not
// consumed; replaying a valid token re-activates idempotently.
func (s *ActivationService) Activate(ctx context.Context, raw string) ActivationResult {
	res := s.tokens.Verify(raw)
	switch res.Status {
	case utils.TokenValid:
	case utils.TokenExpired:
		return ActivationResult{Status: ActivationExpired, Err: res.Err}
	case utils.TokenInvalid:
		return ActivationResult{Status: ActivationInvalid, Err: res.Err}
	default:
		return ActivationResult{Status: ActivationFailed, Err: res.Err}
	}

	ok, err := s.accounts.ActivateUserByEmail(ctx, res.Email)
	if err != nil {
		return ActivationResult{Status: ActivationFailed, Email: res.Email, Err: err}
	}
	if !ok {
		return ActivationResult{Status: NotActivated, Email: res.Email}
	}
	return ActivationResult{Status: Activated, Email: res.Email}
}

// Resend mails a fresh activation link unless the user is already active.
func (s *ActivationService) Resend(ctx context.Context, userID uint64) (ResendResult, error) {
	u, err := s.accounts.GetUserByID(ctx, userID)
	if err != nil {
		return ResendResult{}, err
	}
	if u.IsActive {
		return ResendResult{AlreadyActive: true, Message: "User has been active"}, nil
	}
	msg, err := s.accounts.ResendActivationEmail(ctx, userID)
	if err != nil {
		return ResendResult{}, err
	}
	return ResendResult{Message: msg}, nil
}

// NotifyAdmin records that userID asked an administrator for a new link.
func (s *ActivationService) NotifyAdmin(ctx context.Context, userID uint64) error {
	return s.notifier.CreateResendRequestNotification(ctx, userID)
}
