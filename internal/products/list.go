package product

import (
	"fmt"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// SortOrder selects the ordering of the browse endpoint.
type SortOrder string

const (
	SortNewest    SortOrder = "newest"
	SortName      SortOrder = "name"
	SortPriceAsc  SortOrder = "price_asc"
	SortPriceDesc SortOrder = "price_desc"
)

// ParseSortOrder converts raw input into a SortOrder. Empty input means newest.
func ParseSortOrder(value string) (SortOrder, error) {
	switch SortOrder(value) {
	case "", SortNewest:
		return SortNewest, nil
	case SortName, SortPriceAsc, SortPriceDesc:
		return SortOrder(value), nil
	}
	return "", fmt.Errorf("invalid sort %q", value)
}

// ProductListFilters describe the supported filter knobs for the browse endpoint.
type ProductListFilters struct {
	Query    string               `json:"q,omitempty"`
	Category string               `json:"category,omitempty"`
	Status   *enums.ProductStatus `json:"status,omitempty"`
	Sort     SortOrder            `json:"sort,omitempty"`
}

// ListProductsInput captures the inputs needed to filter and page the catalog.
type ListProductsInput struct {
	Filters ProductListFilters
	Page    int
	Limit   int
}

// ProductListResult is one page of the catalog.
type ProductListResult struct {
	Products []ProductDTO `json:"products"`
	Page     int          `json:"page"`
	Limit    int          `json:"limit"`
	Total    int64        `json:"total"`
	HasMore  bool         `json:"has_more"`
}
