package product

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (Service, *Repository) {
	t.Helper()
	repo := NewRepository(openTestDB(t))
	svc, err := NewService(repo)
	require.NoError(t, err)
	return svc, repo
}

func TestNewServiceRequiresRepo(t *testing.T) {
	if _, err := NewService(nil); err == nil {
		t.Fatal("expected error for nil repository")
	}
}

func TestCreateAssignsIDAndDefaultsStatus(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateProductInput{
		Name:       "  Premium Wireless Headphones ",
		PriceCents: 19999,
		Category:   "Electronics",
		Stock:      25,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, "Premium Wireless Headphones", created.Name)
	assert.Equal(t, enums.ProductStatusAvailable, created.Status)
	assert.True(t, created.Purchasable)
	assert.Equal(t, "$199.99", created.Price)
	assert.False(t, created.CreatedAt.IsZero())

	soldOut, err := svc.Create(ctx, CreateProductInput{Name: "Bag", PriceCents: 14999, Category: "Accessories"})
	require.NoError(t, err)
	assert.Equal(t, enums.ProductStatusOutOfStock, soldOut.Status)
	assert.False(t, soldOut.Purchasable)
}

func TestCreateValidates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	bad := enums.ProductStatus("sold")

	cases := []CreateProductInput{
		{Name: "", PriceCents: 1, Category: "x", Stock: 1},
		{Name: "a", PriceCents: -1, Category: "x", Stock: 1},
		{Name: "a", PriceCents: 1, Category: "", Stock: 1},
		{Name: "a", PriceCents: 1, Category: "x", Stock: -1},
		{Name: "a", PriceCents: 1, Category: "x", Stock: 1, Status: &bad},
	}
	for _, input := range cases {
		_, err := svc.Create(ctx, input)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "input %+v", input)
	}
}

func TestUpdateAppliesOnlyProvidedFields(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateProductInput{Name: "Watch", Description: "smart", PriceCents: 29999, Category: "Electronics", Stock: 15})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, UpdateProductInput{PriceCents: int64Ptr(24999), Stock: intPtr(0)})
	require.NoError(t, err)
	assert.Equal(t, int64(24999), updated.PriceCents)
	assert.Equal(t, 0, updated.Stock)
	assert.Equal(t, "Watch", updated.Name)
	assert.Equal(t, "smart", updated.Description)
	assert.Equal(t, enums.ProductStatusAvailable, updated.Status, "status is not synced to stock")
	assert.False(t, updated.Purchasable)

	_, err = svc.Update(ctx, created.ID, UpdateProductInput{Name: stringPtr("   ")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Update(ctx, created.ID, UpdateProductInput{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestMissingProductIsNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	missing := uuid.New()

	_, err := svc.Get(ctx, missing)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = svc.Update(ctx, missing, UpdateProductInput{Name: stringPtr("x")})
	assert.True(t, errors.Is(err, ErrNotFound))

	err = svc.Delete(ctx, missing)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestDeleteRemovesProduct(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateProductInput{Name: "Mug", PriceCents: 5999, Category: "Home & Kitchen", Stock: 30})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, created.ID))

	_, err = svc.Get(ctx, created.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestListPaginates(t *testing.T) {
	svc, repo := newTestService(t)
	seedCatalog(t, repo.db)

	page, err := svc.List(context.Background(), ListProductsInput{Page: 1, Limit: 2, Filters: ProductListFilters{Sort: SortPriceAsc}})
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	assert.True(t, page.HasMore)
	require.Len(t, page.Products, 2)
	assert.Equal(t, int64(2999), page.Products[0].PriceCents)

	last, err := svc.List(context.Background(), ListProductsInput{Page: 3, Limit: 2})
	require.NoError(t, err)
	assert.False(t, last.HasMore)
	assert.Len(t, last.Products, 1)

	bad := enums.ProductStatus("nope")
	_, err = svc.List(context.Background(), ListProductsInput{Filters: ProductListFilters{Status: &bad}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestFeaturedDefaultsToThreeAvailable(t *testing.T) {
	svc, repo := newTestService(t)
	seedCatalog(t, repo.db)

	featured, err := svc.Featured(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, featured, 3)
	for _, p := range featured {
		assert.Equal(t, enums.ProductStatusAvailable, p.Status)
	}
}

func TestGetManyReturnsExistingOnly(t *testing.T) {
	svc, repo := newTestService(t)
	p := mustCreateProduct(t, repo.db, "Lens", "Electronics", 44999, 8, enums.ProductStatusAvailable, time.Now())

	found, err := svc.GetMany(context.Background(), []uuid.UUID{p.ID, uuid.New()})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Lens", found[p.ID].Name)
}
