package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	// TokenDecline always declines in the simulated gateway.
	TokenDecline = "tok_decline"
	// TokenNetworkError always fails with ErrNetwork in the simulated gateway.
	TokenNetworkError = "tok_network_error"

	simulatedReferencePrefix = "sim_"
)

// SimulatedGateway approves everything after a fixed delay except the magic tokens.
type SimulatedGateway struct {
	delay time.Duration
}

// NewSimulatedGateway returns a gateway that waits delay before answering.
func NewSimulatedGateway(delay time.Duration) *SimulatedGateway {
	if delay < 0 {
		delay = 0
	}
	return &SimulatedGateway{delay: delay}
}

func (g *SimulatedGateway) Submit(ctx context.Context, charge Charge) (Result, error) {
	if g.delay > 0 {
		timer := time.NewTimer(g.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Result{}, ErrGatewayTimeout
		case <-timer.C:
		}
	} else if ctx.Err() != nil {
		return Result{}, ErrGatewayTimeout
	}

	switch charge.PaymentToken {
	case TokenDecline:
		return Result{Approved: false, DeclineReason: "card declined"}, nil
	case TokenNetworkError:
		return Result{}, ErrNetwork
	}
	return Result{Approved: true, Reference: simulatedReferencePrefix + uuid.NewString()}, nil
}
