package domain

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/bwmarrin/snowflake"
)

//go:generate mockgen -destination=../mocks/mock_intake.go -package=mocks github.com/crowngraphics/portal/internal/intake/domain Notifier,Renderer,FileStore,LinkIssuer

type Service interface {
	// Ingest stores the submission as a job and sends the notifications.
	// Resubmitting an order id returns the stored job without notifying again.
	Ingest(ctx context.Context, sub Submission, uploads []Upload) (Result, error)
}

// Upload is a file posted with a submission.
type Upload struct {
	Filename string
	Content  io.Reader
}

// Notifier sends the internal notification and the customer confirmation.
// Failures are reported as *DeliveryError naming the message that failed.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Renderer turns an order into a printable PDF.
type Renderer interface {
	RenderOrder(ctx context.Context, order OrderSummary, items []ItemRow) ([]byte, error)
}

// FileStore keeps uploaded artwork.
type FileStore interface {
	// Save stores one upload and returns its path. Files with a disallowed
	// extension return ErrFileNotAllowed.
	Save(ctx context.Context, filename string, content io.Reader) (string, error)
	Remove(ctx context.Context, path string) error
}

// LinkIssuer signs the customer change-request link for a stored order.
type LinkIssuer interface {
	Issue(jobID snowflake.ID, orderID string) (string, error)
}

var (
	ErrInvalidOrderType = errors.New("invalid_order_type")
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidEmail     = errors.New("invalid_email")
	ErrInvalidOrderID   = errors.New("invalid_order_id")
	ErrInvalidPayload   = errors.New("invalid_payload")
	ErrFileNotAllowed   = errors.New("file_not_allowed")
)

// Order emails, also used as the email failure metric label.
const (
	EmailInternal = "internal"
	EmailCustomer = "customer"
)

// DeliveryError reports which order email could not be sent. A customer
// failure means the internal notification already went out.
type DeliveryError struct {
	Email string
	Err   error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s email: %v", e.Email, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// FailedEmail names the email err is about. Errors that are not a
// DeliveryError count against the internal notification.
func FailedEmail(err error) string {
	var derr *DeliveryError
	if errors.As(err, &derr) && derr.Email != "" {
		return derr.Email
	}
	return EmailInternal
}
