// Package queue defines message payloads exchanged over the message broker
// and the consumer that delivers them.
package queue

// Queue names.  Both are durable.
const (
	MailQueue  = "mail.activation"
	AdminQueue = "admin.notifications"
)

// ActivationEmailEvent asks the mailer to send an activation link.  It is
// published at registration and on every resend.
type ActivationEmailEvent struct {
	UserID            uint64 `json:"user_id"`
	Email             string `json:"email"`
	FullName          string `json:"full_name"`
	ActivationURL     string `json:"activation_url"`
	TemporaryPassword string `json:"temporary_password,omitempty"`
	ExpiresAt         string `json:"expires_at"`
	RequestedAt       string `json:"requested_at"`
}

// AdminNotificationEvent tells administrators that a user needs attention,
// e.g. an expired activation link.
type AdminNotificationEvent struct {
	NotificationID uint64 `json:"notification_id"`
	UserID         uint64 `json:"user_id"`
	Email          string `json:"email"`
	Kind           string `json:"kind"`
	Message        string `json:"message"`
	CreatedAt      string `json:"created_at"`
}
