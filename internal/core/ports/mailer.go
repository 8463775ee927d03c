package ports

import (
	"context"
	"time"

	"github.com/storeline/commerce-api/internal/core/domain"
)

// Mailer delivers outbound messages. Delivery is fire-and-forget from the
// auth core's perspective; a failure is logged but never rolls back token
// issuance.
type Mailer interface {
	SendPasswordReset(ctx context.Context, user *domain.User, token string, expires time.Time) error
}

// ResetMailInput is the DTO handed from the auth service to the mail queue.
type ResetMailInput struct {
	User    *domain.User
	Token   string
	Expires time.Time
}

// MailQueue accepts reset mails for asynchronous delivery.
type MailQueue interface {
	Enqueue(mail ResetMailInput)
}
