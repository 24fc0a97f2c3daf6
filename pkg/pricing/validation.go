package pricing

import (
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// LineCheck describes a line item to validate before pricing or ordering.
type LineCheck struct {
	ProductID      uuid.UUID
	ProductName    string
	Quantity       int
	UnitPriceCents int64
}

// LineViolation is returned to callers when a line fails validation.
type LineViolation struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name,omitempty"`
	Reason      string    `json:"reason"`
}

// ValidateLines rejects non-positive quantities and negative prices.
func ValidateLines(items []LineCheck) error {
	var violations []LineViolation
	for _, item := range items {
		switch {
		case item.ProductID == uuid.Nil:
			violations = append(violations, LineViolation{ProductName: item.ProductName, Reason: "product_id is required"})
		case item.Quantity < 1:
			violations = append(violations, LineViolation{ProductID: item.ProductID, ProductName: item.ProductName, Reason: "quantity must be at least 1"})
		case item.UnitPriceCents < 0:
			violations = append(violations, LineViolation{ProductID: item.ProductID, ProductName: item.ProductName, Reason: "unit price must not be negative"})
		}
	}
	if len(violations) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid line items: %d", len(violations))).WithDetails(map[string]any{
		"violations": violations,
	})
}
