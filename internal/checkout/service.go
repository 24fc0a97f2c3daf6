package checkout

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/payments"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/pricing"
	"github.com/google/uuid"
)

const (
	outcomeSuccess     = "success"
	outcomeEmptyCart   = "empty_cart"
	outcomeInvalid     = "invalid"
	outcomeStale       = "stale_cart"
	outcomeDeclined    = "declined"
	outcomeUnavailable = "gateway_unavailable"
	outcomeError       = "error"
)

var (
	// ErrEmptyCart is returned when checking out with nothing in the cart.
	ErrEmptyCart = pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	// ErrPaymentDeclined is returned when the gateway refuses the charge.
	ErrPaymentDeclined = pkgerrors.New(pkgerrors.CodePayment, "payment declined")
)

type cartService interface {
	Quote(ctx context.Context, owner string) (*cart.Cart, pricing.Breakdown, error)
	Clear(ctx context.Context, owner string) error
}

type catalog interface {
	GetMany(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]product.ProductDTO, error)
}

type orderCreator interface {
	Create(ctx context.Context, input orders.CreateOrderInput) (*orders.OrderDTO, error)
}

type paymentSubmitter interface {
	Submit(ctx context.Context, charge payments.Charge) (payments.Result, error)
}

// Service executes checkout orchestration.
type Service interface {
	Checkout(ctx context.Context, userID uuid.UUID, input CheckoutInput) (*CheckoutResult, error)
}

// CheckoutInput is what the shopper submits.
type CheckoutInput struct {
	ShippingAddress Address
	PaymentToken    string
	IdempotencyKey  string
}

// CheckoutResult is the created order plus the gateway decision.
type CheckoutResult struct {
	Order   *orders.OrderDTO  `json:"order"`
	Payment payments.Result   `json:"payment"`
	Totals  pricing.Breakdown `json:"totals"`
}

// ServiceParams bundles checkout dependencies.
type ServiceParams struct {
	Cart     cartService
	Catalog  catalog
	Orders   orderCreator
	Payments paymentSubmitter
	Metrics  *metrics.CheckoutMetrics
	Logger   *logger.Logger
	Currency string
}

type service struct {
	cart     cartService
	catalog  catalog
	orders   orderCreator
	payments paymentSubmitter
	metrics  *metrics.CheckoutMetrics
	logg     *logger.Logger
	currency string
	now      func() time.Time
}

// NewService constructs the checkout orchestrator.
func NewService(params ServiceParams) (Service, error) {
	if params.Cart == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("product catalog required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if params.Payments == nil {
		return nil, fmt.Errorf("payment client required")
	}
	currency := params.Currency
	if currency == "" {
		currency = "usd"
	}
	return &service{
		cart:     params.Cart,
		catalog:  params.Catalog,
		orders:   params.Orders,
		payments: params.Payments,
		metrics:  params.Metrics,
		logg:     params.Logger,
		currency: currency,
		now:      time.Now,
	}, nil
}

func (s *service) Checkout(ctx context.Context, userID uuid.UUID, input CheckoutInput) (*CheckoutResult, error) {
	started := s.now()
	outcome := outcomeError
	defer func() {
		s.metrics.ObserveCheckout(outcome, s.now().Sub(started))
	}()

	if userID == uuid.Nil {
		outcome = outcomeInvalid
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if missing := input.ShippingAddress.missingFields(); len(missing) > 0 {
		sort.Strings(missing)
		outcome = outcomeInvalid
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address is incomplete").
			WithDetails(map[string]any{"missing": missing})
	}
	if strings.TrimSpace(input.IdempotencyKey) == "" {
		outcome = outcomeInvalid
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "idempotency key is required")
	}

	owner := cart.OwnerKey(userID)
	current, breakdown, err := s.cart.Quote(ctx, owner)
	if err != nil {
		return nil, err
	}
	if current.IsEmpty() {
		outcome = outcomeEmptyCart
		return nil, ErrEmptyCart
	}

	if err := s.revalidate(ctx, current); err != nil {
		switch {
		case pkgerrors.IsCode(err, pkgerrors.CodeConflict):
			outcome = outcomeStale
		case pkgerrors.IsCode(err, pkgerrors.CodeValidation):
			outcome = outcomeInvalid
		}
		return nil, err
	}

	payment, err := s.payments.Submit(ctx, payments.Charge{
		AmountCents:    breakdown.TotalCents,
		Currency:       s.currency,
		PaymentToken:   input.PaymentToken,
		IdempotencyKey: input.IdempotencyKey,
		UserID:         userID,
		Description:    fmt.Sprintf("Storefront order, %d items", breakdown.ItemCount),
	})
	if err != nil {
		if payments.IsRetryable(err) {
			outcome = outcomeUnavailable
			s.warn(ctx, "payment gateway unavailable", err)
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment gateway unavailable")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "payment failed")
	}
	if !payment.Approved {
		outcome = outcomeDeclined
		if s.logg != nil {
			s.logg.Info(s.logg.WithField(ctx, "reason", payment.DeclineReason), "payment declined")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePayment, ErrPaymentDeclined, "payment declined").
			WithDetails(map[string]any{"reason": payment.DeclineReason})
	}

	items := make([]orders.ItemInput, 0, len(current.Items))
	for _, item := range current.Items {
		items = append(items, orders.ItemInput{
			ProductID:      item.ProductID,
			Name:           item.Name,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
		})
	}
	reference := payment.Reference
	order, err := s.orders.Create(ctx, orders.CreateOrderInput{
		UserID:           userID,
		Items:            items,
		SubtotalCents:    breakdown.SubtotalCents,
		ShippingCents:    breakdown.ShippingCents,
		TaxCents:         breakdown.TaxCents,
		TotalCents:       breakdown.TotalCents,
		ShippingAddress:  input.ShippingAddress.Format(),
		PaymentReference: &reference,
	})
	if err != nil {
		if s.logg != nil {
			s.logg.Error(s.logg.WithField(ctx, "payment_reference", reference), "order creation failed after payment", err)
		}
		return nil, err
	}

	if err := s.cart.Clear(ctx, owner); err != nil {
		s.warn(ctx, "cart clear failed after checkout", err)
	}

	outcome = outcomeSuccess
	s.metrics.AddRevenue(order.TotalCents)
	return &CheckoutResult{Order: order, Payment: payment, Totals: breakdown}, nil
}

func (s *service) revalidate(ctx context.Context, c *cart.Cart) error {
	ids := make([]uuid.UUID, 0, len(c.Items))
	checks := make([]pricing.LineCheck, 0, len(c.Items))
	for _, item := range c.Items {
		ids = append(ids, item.ProductID)
		checks = append(checks, pricing.LineCheck{
			ProductID:      item.ProductID,
			ProductName:    item.Name,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
		})
	}
	if err := pricing.ValidateLines(checks); err != nil {
		return err
	}

	found, err := s.catalog.GetMany(ctx, ids)
	if err != nil {
		return err
	}

	var violations []pricing.LineViolation
	for _, item := range c.Items {
		p, ok := found[item.ProductID]
		switch {
		case !ok:
			violations = append(violations, pricing.LineViolation{ProductID: item.ProductID, ProductName: item.Name, Reason: "product no longer exists"})
		case !p.Purchasable:
			violations = append(violations, pricing.LineViolation{ProductID: item.ProductID, ProductName: item.Name, Reason: "product is not available"})
		case item.Quantity > p.Stock:
			violations = append(violations, pricing.LineViolation{ProductID: item.ProductID, ProductName: item.Name, Reason: fmt.Sprintf("only %d in stock", p.Stock)})
		}
	}
	if len(violations) > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "cart contains unavailable products").
			WithDetails(map[string]any{"violations": violations})
	}
	return nil
}

func (s *service) warn(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), msg)
}

// ObservePaymentAttempts forwards gateway attempt outcomes to checkout metrics.
func ObservePaymentAttempts(m *metrics.CheckoutMetrics) payments.AttemptObserver {
	return func(outcome string) {
		m.IncPaymentAttempt(outcome)
	}
}
