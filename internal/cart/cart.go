package cart

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/pricing"
	"github.com/google/uuid"
)

// Item is one cart line. Name, image and price are captured when the product
// is first added and never refreshed from the catalog.
type Item struct {
	ProductID      uuid.UUID `json:"product_id"`
	Name           string    `json:"name"`
	ImageURL       string    `json:"image_url,omitempty"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	AddedAt        time.Time `json:"added_at"`
}

// LineTotalCents returns price times quantity.
func (i Item) LineTotalCents() int64 {
	return i.UnitPriceCents * int64(i.Quantity)
}

// Cart is the snapshot persisted per owner.
type Cart struct {
	OwnerKey  string    `json:"owner_key"`
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newCart(owner string) *Cart {
	return &Cart{OwnerKey: owner, Items: []Item{}}
}

// TotalCents sums price times quantity over every line.
func (c *Cart) TotalCents() int64 {
	return pricing.Subtotal(c.Lines())
}

// ItemCount sums the quantities.
func (c *Cart) ItemCount() int {
	return pricing.ItemCount(c.Lines())
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

// Lines converts the cart into pricing input.
func (c *Cart) Lines() []pricing.Line {
	if c == nil {
		return nil
	}
	lines := make([]pricing.Line, 0, len(c.Items))
	for _, item := range c.Items {
		lines = append(lines, pricing.Line{UnitPriceCents: item.UnitPriceCents, Quantity: item.Quantity})
	}
	return lines
}

// Find returns the line for productID.
func (c *Cart) Find(productID uuid.UUID) (Item, bool) {
	if idx := c.indexOf(productID); idx >= 0 {
		return c.Items[idx], true
	}
	return Item{}, false
}

func (c *Cart) indexOf(productID uuid.UUID) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) clone() *Cart {
	out := &Cart{OwnerKey: c.OwnerKey, UpdatedAt: c.UpdatedAt, Items: make([]Item, len(c.Items))}
	copy(out.Items, c.Items)
	return out
}

// OwnerKey derives the cart owner key for a signed-in user.
func OwnerKey(userID uuid.UUID) string {
	return "user:" + userID.String()
}
