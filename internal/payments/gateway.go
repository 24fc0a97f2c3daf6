package payments

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrNetwork means the gateway could not be reached or answered with a server fault.
	ErrNetwork = errors.New("payments: network error")
	// ErrGatewayTimeout means the gateway did not answer within the attempt deadline.
	ErrGatewayTimeout = errors.New("payments: gateway timeout")
)

// Charge is one payment request.
type Charge struct {
	AmountCents    int64
	Currency       string
	PaymentToken   string
	IdempotencyKey string
	UserID         uuid.UUID
	Description    string
}

// Result is the gateway's decision. A decline is a result, not an error.
type Result struct {
	Approved      bool   `json:"approved"`
	Reference     string `json:"reference,omitempty"`
	DeclineReason string `json:"decline_reason,omitempty"`
}

// Gateway submits charges to a payment processor.
type Gateway interface {
	Submit(ctx context.Context, charge Charge) (Result, error)
}

// IsRetryable reports whether err is a transient gateway failure.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrGatewayTimeout)
}
