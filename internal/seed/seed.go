package seed

import (
	"context"
	"fmt"
	"strconv"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pricing"
	"github.com/angelmondragon/storefront-backend/pkg/security"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Deps are the collaborators needed to load the demo data.
type Deps struct {
	DB       txRunner
	Password config.PasswordConfig
	Pricing  pricing.Policy
	Logger   *logger.Logger
}

// Result counts the rows inserted by one run.
type Result struct {
	Products int
	Users    int
	Orders   int
}

// Run inserts the demo catalog, roster and order history. Rows that already
// exist are left untouched, so running it twice is safe.
func Run(ctx context.Context, deps Deps) (Result, error) {
	if deps.DB == nil {
		return Result{}, fmt.Errorf("database required")
	}

	policy := deps.Pricing
	if policy.TaxRate.IsZero() && policy.FlatShippingCents == 0 && policy.FreeShippingThresholdCents == 0 {
		policy = pricing.DefaultPolicy()
	}

	hashes := make(map[string]string, len(demoUsers))
	for _, u := range demoUsers {
		hash, err := security.HashPassword(u.password, deps.Password)
		if err != nil {
			return Result{}, fmt.Errorf("hash password for %s: %w", u.email, err)
		}
		hashes[u.key] = hash
	}

	var result Result
	err := deps.DB.WithTx(ctx, func(tx *gorm.DB) error {
		prices := make(map[string]demoProduct, len(demoProducts))
		for _, p := range demoProducts {
			prices[p.key] = p
			row := &models.Product{
				ID:          demoID("product", p.key),
				Name:        p.name,
				Description: p.description,
				PriceCents:  p.priceCents,
				ImageURL:    p.imageURL,
				Category:    p.category,
				Stock:       p.stock,
				Status:      p.status,
				CreatedAt:   p.createdAt,
				UpdatedAt:   p.createdAt,
			}
			res := tx.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row)
			if res.Error != nil {
				return fmt.Errorf("seed product %s: %w", p.key, res.Error)
			}
			result.Products += int(res.RowsAffected)
		}

		for _, u := range demoUsers {
			phone, address := u.phone, u.address
			row := &models.User{
				ID:           demoID("user", u.key),
				Email:        u.email,
				PasswordHash: hashes[u.key],
				Name:         u.name,
				Role:         u.role,
				Phone:        &phone,
				Address:      &address,
			}
			res := tx.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row)
			if res.Error != nil {
				return fmt.Errorf("seed user %s: %w", u.email, res.Error)
			}
			result.Users += int(res.RowsAffected)
		}

		for _, o := range demoOrders {
			orderID := demoID("order", o.key)
			var count int64
			if err := tx.WithContext(ctx).Model(&models.Order{}).Where("id = ?", orderID).Count(&count).Error; err != nil {
				return fmt.Errorf("check order %s: %w", o.key, err)
			}
			if count > 0 {
				continue
			}

			var owner models.User
			if err := tx.WithContext(ctx).Where("email = ?", emailFor(o.userKey)).First(&owner).Error; err != nil {
				return fmt.Errorf("load owner of order %s: %w", o.key, err)
			}

			items := make([]models.OrderItem, 0, len(o.lines))
			lines := make([]pricing.Line, 0, len(o.lines))
			for i, l := range o.lines {
				p := prices[l.productKey]
				items = append(items, models.OrderItem{
					ID:             demoID("order-item", o.key+":"+strconv.Itoa(i)),
					OrderID:        orderID,
					Position:       i,
					ProductID:      demoID("product", p.key),
					Name:           p.name,
					Quantity:       l.quantity,
					UnitPriceCents: p.priceCents,
				})
				lines = append(lines, pricing.Line{UnitPriceCents: p.priceCents, Quantity: l.quantity})
			}
			quote := policy.Quote(lines)

			row := &models.Order{
				ID:              orderID,
				UserID:          owner.ID,
				Status:          o.status,
				SubtotalCents:   quote.SubtotalCents,
				ShippingCents:   quote.ShippingCents,
				TaxCents:        quote.TaxCents,
				TotalCents:      quote.TotalCents,
				ShippingAddress: addressFor(o.userKey),
				Items:           items,
				CreatedAt:       o.createdAt,
				UpdatedAt:       o.updatedAt,
			}
			if err := tx.WithContext(ctx).Create(row).Error; err != nil {
				return fmt.Errorf("seed order %s: %w", o.key, err)
			}
			result.Orders++
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	if deps.Logger != nil {
		deps.Logger.Info(deps.Logger.WithFields(ctx, map[string]any{
			"products": result.Products,
			"users":    result.Users,
			"orders":   result.Orders,
		}), "demo data seeded")
	}
	return result, nil
}

func emailFor(userKey string) string {
	for _, u := range demoUsers {
		if u.key == userKey {
			return u.email
		}
	}
	return ""
}

func addressFor(userKey string) string {
	for _, u := range demoUsers {
		if u.key == userKey {
			return u.address
		}
	}
	return ""
}
