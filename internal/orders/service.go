package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned for unknown orders and for orders the caller may not see.
	ErrNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	// ErrInvalidTransition is returned when the lifecycle forbids the requested status.
	ErrInvalidTransition = pkgerrors.New(pkgerrors.CodeConflict, "order status transition not allowed")
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// eventQueue records events inside the order transaction. When set it
// replaces direct publishing.
type eventQueue interface {
	Enqueue(ctx context.Context, tx *gorm.DB, event outbox.Event) error
}

// Service exposes order store operations.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*OrderDTO, error)
	SetStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*OrderDTO, error)
	Get(ctx context.Context, orderID uuid.UUID, viewer Viewer) (*OrderDTO, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error)
	ListAll(ctx context.Context) ([]OrderDTO, error)
	Search(ctx context.Context, input SearchInput) (*OrderSearchResult, error)
}

// Viewer identifies who is reading an order.
type Viewer struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// CreateOrderInput is an order without id or timestamps.
type CreateOrderInput struct {
	UserID           uuid.UUID
	Items            []ItemInput
	SubtotalCents    int64
	ShippingCents    int64
	TaxCents         int64
	TotalCents       int64
	ShippingAddress  string
	PaymentReference *string
	Status           *enums.OrderStatus
	CreatedAt        *time.Time
}

// ItemInput is one line copied from the cart.
type ItemInput struct {
	ProductID      uuid.UUID
	Name           string
	Quantity       int
	UnitPriceCents int64
}

// SearchInput filters the admin order list.
type SearchInput struct {
	Status *enums.OrderStatus
	Query  string
	Limit  int
	Cursor string
}

// ServiceParams bundles the order service dependencies.
type ServiceParams struct {
	Repo               Repository
	Tx                 txRunner
	Publisher          Publisher
	Outbox             eventQueue
	Logger             *logger.Logger
	AllowAnyTransition bool
}

type service struct {
	repo      Repository
	tx        txRunner
	publisher Publisher
	outbox    eventQueue
	logg      *logger.Logger
	allowAny  bool
	now       func() time.Time
}

// NewService builds the order service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	publisher := params.Publisher
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	return &service{
		repo:      params.Repo,
		tx:        params.Tx,
		publisher: publisher,
		outbox:    params.Outbox,
		logg:      params.Logger,
		allowAny:  params.AllowAnyTransition,
		now:       time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*OrderDTO, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	status := enums.OrderStatusPending
	if input.Status != nil {
		status = *input.Status
	}
	createdAt := s.now().UTC()
	if input.CreatedAt != nil {
		createdAt = input.CreatedAt.UTC()
	}

	order := &models.Order{
		ID:               uuid.New(),
		UserID:           input.UserID,
		Status:           status,
		SubtotalCents:    input.SubtotalCents,
		ShippingCents:    input.ShippingCents,
		TaxCents:         input.TaxCents,
		TotalCents:       input.TotalCents,
		ShippingAddress:  strings.TrimSpace(input.ShippingAddress),
		PaymentReference: input.PaymentReference,
		CreatedAt:        createdAt,
		UpdatedAt:        createdAt,
	}
	for i, item := range input.Items {
		order.Items = append(order.Items, models.OrderItem{
			ID:             uuid.New(),
			OrderID:        order.ID,
			Position:       i,
			ProductID:      item.ProductID,
			Name:           item.Name,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
		})
	}

	event := newOrderEvent(enums.OrderEventCreated, order.ID, order.UserID, order.Status, nil, order.TotalCents, createdAt)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return err
		}
		return s.enqueue(ctx, tx, event)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert order")
	}

	s.publish(ctx, event)
	if s.logg != nil {
		s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "order created")
	}
	return NewOrderDTO(order), nil
}

func (s *service) SetStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*OrderDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", status))
	}

	var (
		order    *models.Order
		previous enums.OrderStatus
	)
	now := s.now().UTC()
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		previous = current.Status
		if !s.allowAny && !current.Status.CanTransitionTo(status) {
			return ErrInvalidTransition
		}
		if err := repo.UpdateStatus(ctx, orderID, status, now); err != nil {
			return err
		}
		current.Status = status
		current.UpdatedAt = now
		order = current
		return s.enqueue(ctx, tx, newOrderEvent(enums.OrderEventStatusChanged, current.ID, current.UserID, status, &previous, current.TotalCents, now))
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrNotFound
		case errors.Is(err, ErrInvalidTransition):
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, ErrInvalidTransition,
				fmt.Sprintf("cannot move order from %s to %s", previous, status))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update order status")
	}

	s.publish(ctx, newOrderEvent(enums.OrderEventStatusChanged, order.ID, order.UserID, status, &previous, order.TotalCents, now))
	if s.logg != nil {
		ctx = s.logg.WithFields(s.logg.WithOrderID(ctx, order.ID.String()), map[string]any{
			"from": previous.String(),
			"to":   status.String(),
		})
		s.logg.Info(ctx, "order status changed")
	}
	return NewOrderDTO(order), nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID, viewer Viewer) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load order")
	}
	if viewer.Role != enums.UserRoleAdmin && order.UserID != viewer.UserID {
		return nil, ErrNotFound
	}
	return NewOrderDTO(order), nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	orders, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list user orders")
	}
	return newOrderDTOs(orders), nil
}

func (s *service) ListAll(ctx context.Context) ([]OrderDTO, error) {
	orders, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list orders")
	}
	return newOrderDTOs(orders), nil
}

func (s *service) Search(ctx context.Context, input SearchInput) (*OrderSearchResult, error) {
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	params := searchParams{
		Status: input.Status,
		Query:  input.Query,
		Limit:  input.Limit,
	}
	if input.Cursor != "" {
		cursor, err := pagination.ParseCursor(input.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		params.Cursor = cursor
	}

	orders, next, err := s.repo.Search(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: search orders")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &OrderSearchResult{Orders: newOrderDTOs(orders), Cursor: cursor}, nil
}

func (s *service) enqueue(ctx context.Context, tx *gorm.DB, event OrderEvent) error {
	if s.outbox == nil {
		return nil
	}
	id, _ := uuid.Parse(event.EventID)
	return s.outbox.Enqueue(ctx, tx, outbox.Event{
		ID:          id,
		Type:        event.Type.String(),
		AggregateID: event.OrderID,
		Payload:     event,
	})
}

// publish sends event directly unless the outbox already holds it.
func (s *service) publish(ctx context.Context, event OrderEvent) {
	if s.outbox != nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil && s.logg != nil {
		s.logg.Error(s.logg.WithOrderID(ctx, event.OrderID.String()), "order event publish failed", err)
	}
}

func validateCreate(input CreateOrderInput) error {
	if input.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	if strings.TrimSpace(input.ShippingAddress) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping address is required")
	}
	if input.Status != nil && !input.Status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	var subtotal int64
	for i, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: product id is required", i))
		}
		if item.Quantity < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: quantity must be at least 1", i))
		}
		if item.UnitPriceCents < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: price must not be negative", i))
		}
		subtotal += item.UnitPriceCents * int64(item.Quantity)
	}
	if input.SubtotalCents != subtotal {
		return pkgerrors.New(pkgerrors.CodeValidation, "subtotal does not match items")
	}
	if input.ShippingCents < 0 || input.TaxCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping and tax must not be negative")
	}
	if input.TotalCents != input.SubtotalCents+input.ShippingCents+input.TaxCents {
		return pkgerrors.New(pkgerrors.CodeValidation, "total does not match subtotal, shipping and tax")
	}
	return nil
}
