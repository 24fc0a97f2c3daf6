package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/orders"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/google/uuid"
)

type orderLister interface {
	ListAll(ctx context.Context) ([]orders.OrderDTO, error)
}

type productLister interface {
	ListAll(ctx context.Context) ([]product.ProductDTO, error)
}

// Service serves the admin sales dashboard.
type Service interface {
	SalesReport(ctx context.Context, period enums.SalesPeriod) (*SalesReport, error)
	CustomerStats(ctx context.Context) (map[uuid.UUID]CustomerStat, error)
}

type service struct {
	orders   orderLister
	products productLister
	now      func() time.Time
}

// NewService builds an analytics service over the order and catalog stores.
func NewService(orders orderLister, products productLister) (Service, error) {
	if orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if products == nil {
		return nil, fmt.Errorf("product service required")
	}
	return &service{orders: orders, products: products, now: time.Now}, nil
}

func (s *service) SalesReport(ctx context.Context, period enums.SalesPeriod) (*SalesReport, error) {
	if !period.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid period %q", period))
	}
	orderList, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	products, err := s.products.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	report := BuildSalesReport(orderList, products, period, s.now().UTC())
	return &report, nil
}

func (s *service) CustomerStats(ctx context.Context) (map[uuid.UUID]CustomerStat, error) {
	orderList, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return CustomerStats(orderList), nil
}
