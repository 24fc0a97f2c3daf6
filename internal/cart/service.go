package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	product "github.com/angelmondragon/storefront-backend/internal/products"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pricing"
	"github.com/google/uuid"
)

var (
	// ErrInvalidQuantity is returned for quantities below one or above stock.
	ErrInvalidQuantity = pkgerrors.New(pkgerrors.CodeValidation, "invalid quantity")
	// ErrItemNotFound is returned when a line is addressed that the cart does not hold.
	ErrItemNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	// ErrProductUnavailable is returned when adding a product that cannot be bought.
	ErrProductUnavailable = pkgerrors.New(pkgerrors.CodeConflict, "product is not available")
)

type catalog interface {
	Get(ctx context.Context, productID uuid.UUID) (*product.ProductDTO, error)
}

// Service exposes cart operations keyed by owner.
type Service interface {
	Get(ctx context.Context, owner string) (*Cart, error)
	AddItem(ctx context.Context, owner string, input AddItemInput) (*Cart, error)
	AddProduct(ctx context.Context, owner string, productID uuid.UUID, quantity int) (*Cart, error)
	SetQuantity(ctx context.Context, owner string, productID uuid.UUID, quantity int) (*Cart, error)
	Remove(ctx context.Context, owner string, productID uuid.UUID) (*Cart, error)
	Clear(ctx context.Context, owner string) error
	Total(ctx context.Context, owner string) (int64, error)
	ItemCount(ctx context.Context, owner string) (int, error)
	Quote(ctx context.Context, owner string) (*Cart, pricing.Breakdown, error)
}

// AddItemInput is a raw line with its price snapshot.
type AddItemInput struct {
	ProductID      uuid.UUID
	Name           string
	ImageURL       string
	Quantity       int
	UnitPriceCents int64
}

type service struct {
	store   Store
	catalog catalog
	policy  pricing.Policy
	now     func() time.Time
}

// NewService builds a cart service over the given store.
func NewService(store Store, catalog catalog, policy pricing.Policy) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("product catalog required")
	}
	return &service{
		store:   store,
		catalog: catalog,
		policy:  policy,
		now:     time.Now,
	}, nil
}

func (s *service) Get(ctx context.Context, owner string) (*Cart, error) {
	if err := validateOwner(owner); err != nil {
		return nil, err
	}
	c, err := s.store.Load(ctx, owner)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cart store: load")
	}
	return c, nil
}

func (s *service) AddItem(ctx context.Context, owner string, input AddItemInput) (*Cart, error) {
	if err := validateOwner(owner); err != nil {
		return nil, err
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	if input.UnitPriceCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}

	return s.mutate(ctx, owner, func(c *Cart) error {
		s.merge(c, input)
		return nil
	})
}

func (s *service) AddProduct(ctx context.Context, owner string, productID uuid.UUID, quantity int) (*Cart, error) {
	if err := validateOwner(owner); err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	p, err := s.catalog.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.Purchasable {
		return nil, ErrProductUnavailable
	}

	return s.mutate(ctx, owner, func(c *Cart) error {
		inCart := 0
		if existing, ok := c.Find(productID); ok {
			inCart = existing.Quantity
		}
		if inCart+quantity > p.Stock {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, ErrInvalidQuantity,
				fmt.Sprintf("only %d of %s in stock", p.Stock, p.Name))
		}
		s.merge(c, AddItemInput{
			ProductID:      p.ID,
			Name:           p.Name,
			ImageURL:       p.ImageURL,
			Quantity:       quantity,
			UnitPriceCents: p.PriceCents,
		})
		return nil
	})
}

func (s *service) SetQuantity(ctx context.Context, owner string, productID uuid.UUID, quantity int) (*Cart, error) {
	if err := validateOwner(owner); err != nil {
		return nil, err
	}
	stock := -1
	if quantity > 0 {
		p, err := s.catalog.Get(ctx, productID)
		switch {
		case err == nil:
			stock = p.Stock
		case !errors.Is(err, product.ErrNotFound):
			return nil, err
		}
		// Lines added without a catalog entry keep no stock bound.
		if stock >= 0 && quantity > stock {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, ErrInvalidQuantity,
				fmt.Sprintf("only %d of %s in stock", p.Stock, p.Name))
		}
	}
	return s.mutate(ctx, owner, func(c *Cart) error {
		idx := c.indexOf(productID)
		if idx < 0 {
			return ErrItemNotFound
		}
		if quantity <= 0 {
			c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
			return nil
		}
		c.Items[idx].Quantity = quantity
		return nil
	})
}

func (s *service) Remove(ctx context.Context, owner string, productID uuid.UUID) (*Cart, error) {
	if err := validateOwner(owner); err != nil {
		return nil, err
	}
	return s.mutate(ctx, owner, func(c *Cart) error {
		if idx := c.indexOf(productID); idx >= 0 {
			c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
		}
		return nil
	})
}

func (s *service) Clear(ctx context.Context, owner string) error {
	if err := validateOwner(owner); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, owner); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cart store: clear")
	}
	return nil
}

func (s *service) Total(ctx context.Context, owner string) (int64, error) {
	c, err := s.Get(ctx, owner)
	if err != nil {
		return 0, err
	}
	return c.TotalCents(), nil
}

func (s *service) ItemCount(ctx context.Context, owner string) (int, error) {
	c, err := s.Get(ctx, owner)
	if err != nil {
		return 0, err
	}
	return c.ItemCount(), nil
}

func (s *service) Quote(ctx context.Context, owner string) (*Cart, pricing.Breakdown, error) {
	c, err := s.Get(ctx, owner)
	if err != nil {
		return nil, pricing.Breakdown{}, err
	}
	return c, s.policy.Quote(c.Lines()), nil
}

func (s *service) merge(c *Cart, input AddItemInput) {
	if idx := c.indexOf(input.ProductID); idx >= 0 {
		c.Items[idx].Quantity += input.Quantity
		return
	}
	c.Items = append(c.Items, Item{
		ProductID:      input.ProductID,
		Name:           strings.TrimSpace(input.Name),
		ImageURL:       strings.TrimSpace(input.ImageURL),
		Quantity:       input.Quantity,
		UnitPriceCents: input.UnitPriceCents,
		AddedAt:        s.now().UTC(),
	})
}

func (s *service) mutate(ctx context.Context, owner string, fn MutateFunc) (*Cart, error) {
	c, err := s.store.Mutate(ctx, owner, func(c *Cart) error {
		if err := fn(c); err != nil {
			return err
		}
		c.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cart store: write")
	}
	return c, nil
}

func validateOwner(owner string) error {
	if strings.TrimSpace(owner) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart owner is required")
	}
	return nil
}
