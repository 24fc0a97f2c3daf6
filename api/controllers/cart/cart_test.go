package cart

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	cartsvc "github.com/angelmondragon/storefront-backend/internal/cart"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pricing"
)

type stubCartService struct {
	cart      *cartsvc.Cart
	owner     string
	added     uuid.UUID
	addedQty  int
	setQty    int
	removed   uuid.UUID
	cleared   bool
	mutateErr error
}

func (s *stubCartService) Get(ctx context.Context, owner string) (*cartsvc.Cart, error) {
	return s.cart, nil
}

func (s *stubCartService) AddItem(ctx context.Context, owner string, input cartsvc.AddItemInput) (*cartsvc.Cart, error) {
	return s.cart, nil
}

func (s *stubCartService) AddProduct(ctx context.Context, owner string, productID uuid.UUID, quantity int) (*cartsvc.Cart, error) {
	s.owner = owner
	s.added = productID
	s.addedQty = quantity
	return s.cart, s.mutateErr
}

func (s *stubCartService) SetQuantity(ctx context.Context, owner string, productID uuid.UUID, quantity int) (*cartsvc.Cart, error) {
	s.owner = owner
	s.setQty = quantity
	return s.cart, s.mutateErr
}

func (s *stubCartService) Remove(ctx context.Context, owner string, productID uuid.UUID) (*cartsvc.Cart, error) {
	s.owner = owner
	s.removed = productID
	return s.cart, s.mutateErr
}

func (s *stubCartService) Clear(ctx context.Context, owner string) error {
	s.owner = owner
	s.cleared = true
	return s.mutateErr
}

func (s *stubCartService) Total(ctx context.Context, owner string) (int64, error) {
	return s.cart.TotalCents(), nil
}

func (s *stubCartService) ItemCount(ctx context.Context, owner string) (int, error) {
	return s.cart.ItemCount(), nil
}

func (s *stubCartService) Quote(ctx context.Context, owner string) (*cartsvc.Cart, pricing.Breakdown, error) {
	return s.cart, pricing.DefaultPolicy().Quote(s.cart.Lines()), nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

func newRequest(method, target, body string, userID uuid.UUID, params map[string]string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	ctx := req.Context()
	if userID != uuid.Nil {
		ctx = middleware.WithUserID(ctx, userID.String())
	}
	routeCtx := chi.NewRouteContext()
	for key, value := range params {
		routeCtx.URLParams.Add(key, value)
	}
	ctx = context.WithValue(ctx, chi.RouteCtxKey, routeCtx)
	return req.WithContext(ctx)
}

func sampleCart(productID uuid.UUID) *cartsvc.Cart {
	return &cartsvc.Cart{Items: []cartsvc.Item{{
		ProductID:      productID,
		Name:           "Wireless Headphones",
		Quantity:       2,
		UnitPriceCents: 1999,
	}}}
}

func TestCartFetchRequiresUser(t *testing.T) {
	rec := httptest.NewRecorder()
	CartFetch(&stubCartService{}, testLogger()).ServeHTTP(rec, newRequest(http.MethodGet, "/api/v1/cart", "", uuid.Nil, nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestCartFetchReturnsTotals(t *testing.T) {
	productID := uuid.New()
	rec := httptest.NewRecorder()
	CartFetch(&stubCartService{cart: sampleCart(productID)}, testLogger()).ServeHTTP(rec, newRequest(http.MethodGet, "/api/v1/cart", "", uuid.New(), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data cartView `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(envelope.Data.Items) != 1 || envelope.Data.Items[0].LineTotalCents != 3998 {
		t.Fatalf("unexpected items %+v", envelope.Data.Items)
	}
	// 3998 + 999 shipping + 320 tax
	if envelope.Data.Totals.TotalCents != 5317 {
		t.Fatalf("expected total 5317, got %d", envelope.Data.Totals.TotalCents)
	}
}

func TestCartAddItemUsesOwnerKey(t *testing.T) {
	userID := uuid.New()
	productID := uuid.New()
	stub := &stubCartService{cart: sampleCart(productID)}
	body := `{"product_id":"` + productID.String() + `","quantity":2}`

	rec := httptest.NewRecorder()
	CartAddItem(stub, testLogger()).ServeHTTP(rec, newRequest(http.MethodPost, "/api/v1/cart/items", body, userID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if stub.owner != cartsvc.OwnerKey(userID) {
		t.Fatalf("expected owner %q, got %q", cartsvc.OwnerKey(userID), stub.owner)
	}
	if stub.added != productID || stub.addedQty != 2 {
		t.Fatalf("unexpected add call %s x%d", stub.added, stub.addedQty)
	}
}

func TestCartAddItemRejectsZeroQuantity(t *testing.T) {
	stub := &stubCartService{cart: &cartsvc.Cart{}}
	body := `{"product_id":"` + uuid.NewString() + `","quantity":0}`

	rec := httptest.NewRecorder()
	CartAddItem(stub, testLogger()).ServeHTTP(rec, newRequest(http.MethodPost, "/api/v1/cart/items", body, uuid.New(), nil))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if stub.owner != "" {
		t.Fatal("service should not be called")
	}
}

func TestCartSetQuantityMissingLine(t *testing.T) {
	productID := uuid.New()
	stub := &stubCartService{cart: &cartsvc.Cart{}, mutateErr: cartsvc.ErrItemNotFound}

	rec := httptest.NewRecorder()
	req := newRequest(http.MethodPatch, "/api/v1/cart/items/"+productID.String(), `{"quantity":3}`, uuid.New(), map[string]string{"productId": productID.String()})
	CartSetQuantity(stub, testLogger()).ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if stub.setQty != 3 {
		t.Fatalf("expected quantity 3 forwarded, got %d", stub.setQty)
	}
}

type catalogStub map[uuid.UUID]*product.ProductDTO

func (c catalogStub) Get(_ context.Context, id uuid.UUID) (*product.ProductDTO, error) {
	if p, ok := c[id]; ok {
		return p, nil
	}
	return nil, product.ErrNotFound
}

func TestCartSetQuantityNegativeRemovesLine(t *testing.T) {
	item := &product.ProductDTO{ID: uuid.New(), Name: "Ceramic Coffee Mug Set", PriceCents: 2999, Stock: 10, Purchasable: true}
	svc, err := cartsvc.NewService(cartsvc.NewMemoryStore(), catalogStub{item.ID: item}, pricing.DefaultPolicy())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	userID := uuid.New()
	owner := cartsvc.OwnerKey(userID)
	if _, err := svc.AddProduct(context.Background(), owner, item.ID, 2); err != nil {
		t.Fatalf("seed cart: %v", err)
	}

	rec := httptest.NewRecorder()
	req := newRequest(http.MethodPatch, "/api/v1/cart/items/"+item.ID.String(), `{"quantity":-1}`, userID, map[string]string{"productId": item.ID.String()})
	CartSetQuantity(svc, testLogger()).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	count, err := svc.ItemCount(context.Background(), owner)
	if err != nil {
		t.Fatalf("item count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected line removed, %d units left", count)
	}
}

func TestCartSetQuantityRejectsOverMax(t *testing.T) {
	productID := uuid.New()
	stub := &stubCartService{cart: &cartsvc.Cart{}}

	rec := httptest.NewRecorder()
	req := newRequest(http.MethodPatch, "/api/v1/cart/items/"+productID.String(), `{"quantity":1000}`, uuid.New(), map[string]string{"productId": productID.String()})
	CartSetQuantity(stub, testLogger()).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if stub.owner != "" {
		t.Fatal("service should not be called")
	}
}

func TestCartRemoveItemInvalidID(t *testing.T) {
	rec := httptest.NewRecorder()
	req := newRequest(http.MethodDelete, "/api/v1/cart/items/nope", "", uuid.New(), map[string]string{"productId": "nope"})
	CartRemoveItem(&stubCartService{}, testLogger()).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestCartClear(t *testing.T) {
	stub := &stubCartService{}
	rec := httptest.NewRecorder()
	CartClear(stub, testLogger()).ServeHTTP(rec, newRequest(http.MethodDelete, "/api/v1/cart", "", uuid.New(), nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if !stub.cleared {
		t.Fatal("expected cart to be cleared")
	}
}
