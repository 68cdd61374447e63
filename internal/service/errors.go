package service

import (
	"errors"

	"github.com/iliyamo/user-management/internal/repository"
)

var (
	// ErrNotFound mirrors repository.ErrNotFound so handlers need not import
	// the repository package.
	ErrNotFound = repository.ErrNotFound

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserLocked         = errors.New("account is blocked")
	ErrUserInactive       = errors.New("account is not activated")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)
