package payments

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v74"
)

const defaultCurrency = "usd"

type intentCreator interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// StripeGateway charges card payment methods through confirmed PaymentIntents.
type StripeGateway struct {
	intents intentCreator
}

// NewStripeGateway wraps the PaymentIntent API.
func NewStripeGateway(intents intentCreator) (*StripeGateway, error) {
	if intents == nil {
		return nil, fmt.Errorf("stripe payment intents client required")
	}
	return &StripeGateway{intents: intents}, nil
}

func (g *StripeGateway) Submit(ctx context.Context, charge Charge) (Result, error) {
	if strings.TrimSpace(charge.PaymentToken) == "" {
		return Result{Approved: false, DeclineReason: "payment method required"}, nil
	}
	currency := strings.ToLower(strings.TrimSpace(charge.Currency))
	if currency == "" {
		currency = defaultCurrency
	}

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(charge.AmountCents),
		Currency:           stripe.String(currency),
		PaymentMethod:      stripe.String(charge.PaymentToken),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Confirm:            stripe.Bool(true),
	}
	if charge.Description != "" {
		params.Description = stripe.String(charge.Description)
	}
	params.Context = ctx
	if charge.IdempotencyKey != "" {
		params.SetIdempotencyKey(charge.IdempotencyKey)
	}
	params.AddMetadata("user_id", charge.UserID.String())

	intent, err := g.intents.New(params)
	if err != nil {
		return mapStripeError(ctx, err)
	}

	switch intent.Status {
	case stripe.PaymentIntentStatusSucceeded, stripe.PaymentIntentStatusProcessing, stripe.PaymentIntentStatusRequiresCapture:
		return Result{Approved: true, Reference: intent.ID}, nil
	case stripe.PaymentIntentStatusRequiresAction:
		return Result{Approved: false, Reference: intent.ID, DeclineReason: "additional authentication required"}, nil
	default:
		return Result{Approved: false, Reference: intent.ID, DeclineReason: fmt.Sprintf("payment %s", intent.Status)}, nil
	}
}

func mapStripeError(ctx context.Context, err error) (Result, error) {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return Result{}, ErrGatewayTimeout
	}
	if errors.Is(err, context.Canceled) {
		return Result{}, err
	}

	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return Result{}, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	switch {
	case stripeErr.Type == stripe.ErrorTypeCard:
		reason := stripeErr.Msg
		if reason == "" {
			reason = "card declined"
		}
		return Result{Approved: false, DeclineReason: reason}, nil
	case stripeErr.HTTPStatusCode >= http.StatusInternalServerError,
		stripeErr.HTTPStatusCode == http.StatusTooManyRequests,
		stripeErr.Type == stripe.ErrorTypeAPI:
		return Result{}, fmt.Errorf("%w: %s", ErrNetwork, stripeErr.Msg)
	}
	return Result{}, fmt.Errorf("stripe: %s", stripeErr.Msg)
}
