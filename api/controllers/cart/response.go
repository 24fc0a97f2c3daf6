package cart

import (
	"time"

	cartsvc "github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/pkg/pricing"
)

type cartLine struct {
	cartsvc.Item
	LineTotalCents int64 `json:"line_total_cents"`
}

type cartView struct {
	Items     []cartLine        `json:"items"`
	Totals    pricing.Breakdown `json:"totals"`
	UpdatedAt *time.Time        `json:"updated_at,omitempty"`
}

func newCartView(c *cartsvc.Cart, totals pricing.Breakdown) cartView {
	view := cartView{Items: []cartLine{}, Totals: totals}
	if c == nil {
		return view
	}
	for _, item := range c.Items {
		view.Items = append(view.Items, cartLine{Item: item, LineTotalCents: item.LineTotalCents()})
	}
	if !c.UpdatedAt.IsZero() {
		updated := c.UpdatedAt
		view.UpdatedAt = &updated
	}
	return view
}
