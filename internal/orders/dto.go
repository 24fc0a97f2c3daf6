package orders

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pricing"
	"github.com/google/uuid"
)

// OrderItemDTO is one purchased line.
type OrderItemDTO struct {
	ProductID      uuid.UUID `json:"product_id"`
	Name           string    `json:"name"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	LineTotalCents int64     `json:"line_total_cents"`
}

// OrderDTO is the order payload returned to clients.
type OrderDTO struct {
	ID               uuid.UUID         `json:"id"`
	UserID           uuid.UUID         `json:"user_id"`
	Status           enums.OrderStatus `json:"status"`
	Items            []OrderItemDTO    `json:"items"`
	ItemCount        int               `json:"item_count"`
	SubtotalCents    int64             `json:"subtotal_cents"`
	ShippingCents    int64             `json:"shipping_cents"`
	TaxCents         int64             `json:"tax_cents"`
	TotalCents       int64             `json:"total_cents"`
	Total            string            `json:"total"`
	ShippingAddress  string            `json:"shipping_address"`
	PaymentReference *string           `json:"payment_reference,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// OrderSearchResult is one page of the admin order search.
type OrderSearchResult struct {
	Orders []OrderDTO `json:"orders"`
	Cursor string     `json:"cursor,omitempty"`
}

// NewOrderDTO maps the persisted order to its payload.
func NewOrderDTO(order *models.Order) *OrderDTO {
	if order == nil {
		return nil
	}
	items := make([]OrderItemDTO, 0, len(order.Items))
	count := 0
	for _, item := range order.Items {
		items = append(items, OrderItemDTO{
			ProductID:      item.ProductID,
			Name:           item.Name,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			LineTotalCents: item.LineTotalCents(),
		})
		count += item.Quantity
	}
	return &OrderDTO{
		ID:               order.ID,
		UserID:           order.UserID,
		Status:           order.Status,
		Items:            items,
		ItemCount:        count,
		SubtotalCents:    order.SubtotalCents,
		ShippingCents:    order.ShippingCents,
		TaxCents:         order.TaxCents,
		TotalCents:       order.TotalCents,
		Total:            pricing.FormatCents(order.TotalCents),
		ShippingAddress:  order.ShippingAddress,
		PaymentReference: order.PaymentReference,
		CreatedAt:        order.CreatedAt,
		UpdatedAt:        order.UpdatedAt,
	}
}

func newOrderDTOs(orders []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(orders))
	for i := range orders {
		out = append(out, *NewOrderDTO(&orders[i]))
	}
	return out
}
