package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Order is a placed purchase. Money fields are fixed at creation.
type Order struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	UserID           uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	Status           enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending';index"`
	SubtotalCents    int64             `gorm:"column:subtotal_cents;not null"`
	ShippingCents    int64             `gorm:"column:shipping_cents;not null"`
	TaxCents         int64             `gorm:"column:tax_cents;not null"`
	TotalCents       int64             `gorm:"column:total_cents;not null"`
	ShippingAddress  string            `gorm:"column:shipping_address;not null"`
	PaymentReference *string           `gorm:"column:payment_reference"`
	Items            []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time         `gorm:"column:created_at;not null;index"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;not null"`
}

// OrderItem is a line snapshot copied from the cart at checkout.
type OrderItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	Position       int       `gorm:"column:position;not null"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	Name           string    `gorm:"column:name;not null"`
	Quantity       int       `gorm:"column:quantity;not null"`
	UnitPriceCents int64     `gorm:"column:unit_price_cents;not null"`
}

// LineTotalCents returns unit price times quantity.
func (i OrderItem) LineTotalCents() int64 {
	return i.UnitPriceCents * int64(i.Quantity)
}
