package model

import "time"

// Role names stored in users.role.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// User represents an application user record as stored in the `users`
// table.  PasswordHash never leaves the server; handlers serialise users
// through the JSON tags below.
//
// Lifecycle: created pending (IsActive=false) by registration, activated by
// a verified activation token, blocked/unblocked by an administrator at any
// time (IsLocked), removed by an administrator.  HasLoggedIn flips once the
// user replaces the temporary password issued at registration.
type User struct {
	ID           uint64    `json:"id"`          // users.id
	Email        string    `json:"email"`       // users.email (unique)
	PasswordHash string    `json:"-"`           // users.password_hash (bcrypt)
	FullName     string    `json:"fullName"`    // users.full_name
	Phone        string    `json:"phone"`       // users.phone
	Role         string    `json:"role"`        // users.role (ADMIN or USER)
	IsActive     bool      `json:"isActive"`    // users.is_active
	IsLocked     bool      `json:"isLocked"`    // users.is_locked
	HasLoggedIn  bool      `json:"hasLoggedIn"` // users.has_logged_in
	CreatedAt    time.Time `json:"createdAt"`   // users.created_at
	UpdatedAt    time.Time `json:"updatedAt"`   // users.updated_at
}

// Notification models a row in the `notifications` table.  Notifications are
// written for administrators, e.g. when a user whose activation link expired
// asks for a new one.
type Notification struct {
	ID        uint64    `json:"id"`
	UserID    uint64    `json:"userId"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

// NotificationResendRequest is the kind used for "please resend my link".
const NotificationResendRequest = "RESEND_REQUEST"
