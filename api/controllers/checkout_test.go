package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/internal/checkout"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type stubCheckoutService struct {
	userID uuid.UUID
	input  checkout.CheckoutInput
	err    error
}

func (s *stubCheckoutService) Checkout(ctx context.Context, userID uuid.UUID, input checkout.CheckoutInput) (*checkout.CheckoutResult, error) {
	s.userID = userID
	s.input = input
	if s.err != nil {
		return nil, s.err
	}
	return &checkout.CheckoutResult{}, nil
}

const checkoutBody = `{"shipping_address":{"street":"1 Main St","city":"Springfield","state":"IL","zip":"62701"},"payment_token":"tok_visa"}`

func TestCheckoutRequiresIdempotencyKey(t *testing.T) {
	stub := &stubCheckoutService{}
	req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(checkoutBody)), uuid.New())

	rec := httptest.NewRecorder()
	Checkout(stub, testLogger()).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if stub.userID != uuid.Nil {
		t.Fatal("service should not be called")
	}
}

func TestCheckoutForwardsInput(t *testing.T) {
	userID := uuid.New()
	stub := &stubCheckoutService{}
	req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(checkoutBody)), userID)
	req.Header.Set("Idempotency-Key", "key-1")

	rec := httptest.NewRecorder()
	Checkout(stub, testLogger()).ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if stub.userID != userID || stub.input.IdempotencyKey != "key-1" || stub.input.PaymentToken != "tok_visa" {
		t.Fatalf("unexpected checkout call %+v", stub.input)
	}
	if stub.input.ShippingAddress.Zip != "62701" {
		t.Fatalf("unexpected address %+v", stub.input.ShippingAddress)
	}
}

func TestCheckoutMissingAddressField(t *testing.T) {
	body := `{"shipping_address":{"street":"1 Main St","city":"Springfield","state":"IL"},"payment_token":"tok_visa"}`
	req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body)), uuid.New())
	req.Header.Set("Idempotency-Key", "key-2")

	rec := httptest.NewRecorder()
	Checkout(&stubCheckoutService{}, testLogger()).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestCheckoutPaymentDeclined(t *testing.T) {
	stub := &stubCheckoutService{err: pkgerrors.New(pkgerrors.CodePayment, "card declined")}
	req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(checkoutBody)), uuid.New())
	req.Header.Set("Idempotency-Key", "key-3")

	rec := httptest.NewRecorder()
	Checkout(stub, testLogger()).ServeHTTP(rec, req)
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "card declined") {
		t.Fatalf("expected decline reason in body: %s", rec.Body.String())
	}
}
