package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	productsvc "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

type stubProductService struct {
	listInput   productsvc.ListProductsInput
	created     productsvc.CreateProductInput
	updated     productsvc.UpdateProductInput
	deleted     uuid.UUID
	featuredLim int
	err         error
}

func (s *stubProductService) Create(ctx context.Context, input productsvc.CreateProductInput) (*productsvc.ProductDTO, error) {
	s.created = input
	if s.err != nil {
		return nil, s.err
	}
	return &productsvc.ProductDTO{ID: uuid.New(), Name: input.Name}, nil
}

func (s *stubProductService) Update(ctx context.Context, productID uuid.UUID, input productsvc.UpdateProductInput) (*productsvc.ProductDTO, error) {
	s.updated = input
	if s.err != nil {
		return nil, s.err
	}
	return &productsvc.ProductDTO{ID: productID}, nil
}

func (s *stubProductService) Delete(ctx context.Context, productID uuid.UUID) error {
	s.deleted = productID
	return s.err
}

func (s *stubProductService) Get(ctx context.Context, productID uuid.UUID) (*productsvc.ProductDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &productsvc.ProductDTO{ID: productID}, nil
}

func (s *stubProductService) GetMany(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]productsvc.ProductDTO, error) {
	return nil, s.err
}

func (s *stubProductService) List(ctx context.Context, input productsvc.ListProductsInput) (*productsvc.ProductListResult, error) {
	s.listInput = input
	if s.err != nil {
		return nil, s.err
	}
	return &productsvc.ProductListResult{Products: []productsvc.ProductDTO{}, Page: input.Page, Limit: input.Limit}, nil
}

func (s *stubProductService) ListAll(ctx context.Context) ([]productsvc.ProductDTO, error) {
	return nil, s.err
}

func (s *stubProductService) Featured(ctx context.Context, limit int) ([]productsvc.ProductDTO, error) {
	s.featuredLim = limit
	return []productsvc.ProductDTO{}, s.err
}

func (s *stubProductService) Categories(ctx context.Context) ([]string, error) {
	return []string{"Electronics"}, s.err
}

func TestProductListParsesQuery(t *testing.T) {
	stub := &stubProductService{}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?q=lens&category=Electronics&status=available&sort=price_desc&page=2&limit=5", nil)

	rec := httptest.NewRecorder()
	ProductList(stub, testLogger()).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	got := stub.listInput
	if got.Page != 2 || got.Limit != 5 {
		t.Fatalf("unexpected paging %+v", got)
	}
	if got.Filters.Query != "lens" || got.Filters.Category != "Electronics" || got.Filters.Sort != productsvc.SortPriceDesc {
		t.Fatalf("unexpected filters %+v", got.Filters)
	}
	if got.Filters.Status == nil || *got.Filters.Status != enums.ProductStatusAvailable {
		t.Fatalf("expected available status filter")
	}
}

func TestProductListRejectsBadInput(t *testing.T) {
	for _, query := range []string{"?sort=random", "?status=gone", "?limit=500", "?page=zero"} {
		rec := httptest.NewRecorder()
		ProductList(&stubProductService{}, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products"+query, nil))
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("%s: expected 422, got %d", query, rec.Code)
		}
	}
}

func TestProductDetailInvalidID(t *testing.T) {
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/products/abc", nil), "id", "abc")

	rec := httptest.NewRecorder()
	ProductDetail(&stubProductService{}, testLogger()).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestAdminCreateProduct(t *testing.T) {
	stub := &stubProductService{}
	body := `{"name":" Desk Lamp ","description":"LED","price_cents":3999,"category":"Home","stock":4,"status":"available"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/products", strings.NewReader(body))

	rec := httptest.NewRecorder()
	AdminCreateProduct(stub, testLogger()).ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if stub.created.Name != "Desk Lamp" || stub.created.PriceCents != 3999 || stub.created.Stock != 4 {
		t.Fatalf("unexpected create input %+v", stub.created)
	}
	if stub.created.Status == nil || *stub.created.Status != enums.ProductStatusAvailable {
		t.Fatal("expected status to be forwarded")
	}
}

func TestAdminCreateProductValidation(t *testing.T) {
	cases := map[string]string{
		"missing name":   `{"price_cents":100,"category":"Home"}`,
		"negative price": `{"name":"Lamp","price_cents":-1,"category":"Home"}`,
		"bad status":     `{"name":"Lamp","price_cents":100,"category":"Home","status":"retired"}`,
	}
	for name, body := range cases {
		stub := &stubProductService{}
		rec := httptest.NewRecorder()
		AdminCreateProduct(stub, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/admin/products", strings.NewReader(body)))
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("%s: expected 422, got %d", name, rec.Code)
		}
		if stub.created.Name != "" {
			t.Fatalf("%s: service should not be called", name)
		}
	}
}

func TestAdminUpdateProductPartial(t *testing.T) {
	productID := uuid.New()
	stub := &stubProductService{}
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/admin/products/"+productID.String(), strings.NewReader(`{"stock":0,"status":"out_of_stock"}`))
	req = withURLParam(req, "id", productID.String())

	rec := httptest.NewRecorder()
	AdminUpdateProduct(stub, testLogger()).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if stub.updated.Stock == nil || *stub.updated.Stock != 0 {
		t.Fatal("expected stock 0 to be forwarded")
	}
	if stub.updated.Name != nil || stub.updated.PriceCents != nil {
		t.Fatalf("unexpected fields set %+v", stub.updated)
	}
}

func TestAdminDeleteProduct(t *testing.T) {
	productID := uuid.New()
	stub := &stubProductService{}
	req := withURLParam(httptest.NewRequest(http.MethodDelete, "/api/v1/admin/products/"+productID.String(), nil), "id", productID.String())

	rec := httptest.NewRecorder()
	AdminDeleteProduct(stub, testLogger()).ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if stub.deleted != productID {
		t.Fatalf("expected %s deleted, got %s", productID, stub.deleted)
	}
}
