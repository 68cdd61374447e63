// Package repository defines error types that are reused across the
// repositories. These sentinel values allow higher layers such as
// services and handlers to distinguish between failure scenarios
// without looking at driver-specific errors.
package repository

import "errors"

// ErrNotFound is returned when the addressed row does not exist.
// Handlers translate it into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when inserting a user whose email is
// already registered (MySQL error 1062 on uq_users_email).
var ErrEmailExists = errors.New("email already exists")
