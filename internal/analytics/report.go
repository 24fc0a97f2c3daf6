package analytics

import (
	"sort"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/orders"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const topProductsLimit = 10

// ProductSales is the revenue rollup of one product.
type ProductSales struct {
	ProductID    uuid.UUID `json:"product_id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	RevenueCents int64     `json:"revenue_cents"`
	QuantitySold int       `json:"quantity_sold"`
	OrderCount   int       `json:"order_count"`
}

// CategorySales is the revenue rollup of one category.
type CategorySales struct {
	Category     string `json:"category"`
	RevenueCents int64  `json:"revenue_cents"`
}

// MonthlySales buckets orders by calendar month (UTC).
type MonthlySales struct {
	Month        string `json:"month"`
	RevenueCents int64  `json:"revenue_cents"`
	OrderCount   int    `json:"order_count"`
}

// SalesReport is the admin sales dashboard.
type SalesReport struct {
	Period                 enums.SalesPeriod `json:"period"`
	Since                  *time.Time        `json:"since,omitempty"`
	TotalRevenueCents      int64             `json:"total_revenue_cents"`
	OrderCount             int               `json:"order_count"`
	AverageOrderValueCents int64             `json:"average_order_value_cents"`
	TopProducts            []ProductSales    `json:"top_products"`
	Categories             []CategorySales   `json:"categories"`
	Monthly                []MonthlySales    `json:"monthly"`
	SkippedLines           int               `json:"skipped_lines"`
}

// BuildSalesReport aggregates orders against the current catalog. Lines whose
// product is no longer in the catalog are left out of the product and
// category rollups but still count toward order totals.
func BuildSalesReport(orderList []orders.OrderDTO, products []product.ProductDTO, period enums.SalesPeriod, now time.Time) SalesReport {
	if !period.IsValid() {
		period = enums.SalesPeriodAll
	}
	report := SalesReport{
		Period:      period,
		TopProducts: []ProductSales{},
		Categories:  []CategorySales{},
		Monthly:     []MonthlySales{},
	}
	since := period.Since(now)
	if !since.IsZero() {
		report.Since = &since
	}

	catalog := make(map[uuid.UUID]product.ProductDTO, len(products))
	for _, p := range products {
		catalog[p.ID] = p
	}

	byProduct := map[uuid.UUID]*ProductSales{}
	byCategory := map[string]int64{}
	byMonth := map[string]*MonthlySales{}

	for _, order := range orderList {
		if !since.IsZero() && order.CreatedAt.Before(since) {
			continue
		}
		report.OrderCount++
		report.TotalRevenueCents += order.TotalCents

		month := order.CreatedAt.UTC().Format("2006-01")
		bucket, ok := byMonth[month]
		if !ok {
			bucket = &MonthlySales{Month: month}
			byMonth[month] = bucket
		}
		bucket.OrderCount++
		bucket.RevenueCents += order.TotalCents

		seen := map[uuid.UUID]bool{}
		for _, item := range order.Items {
			p, ok := catalog[item.ProductID]
			if !ok {
				report.SkippedLines++
				continue
			}
			line := item.UnitPriceCents * int64(item.Quantity)
			rollup, ok := byProduct[p.ID]
			if !ok {
				rollup = &ProductSales{ProductID: p.ID, Name: p.Name, Category: p.Category}
				byProduct[p.ID] = rollup
			}
			rollup.RevenueCents += line
			rollup.QuantitySold += item.Quantity
			if !seen[p.ID] {
				rollup.OrderCount++
				seen[p.ID] = true
			}
			byCategory[p.Category] += line
		}
	}

	report.AverageOrderValueCents = averageCents(report.TotalRevenueCents, report.OrderCount)

	for _, rollup := range byProduct {
		report.TopProducts = append(report.TopProducts, *rollup)
	}
	sort.Slice(report.TopProducts, func(i, j int) bool {
		a, b := report.TopProducts[i], report.TopProducts[j]
		if a.RevenueCents != b.RevenueCents {
			return a.RevenueCents > b.RevenueCents
		}
		return a.ProductID.String() < b.ProductID.String()
	})
	if len(report.TopProducts) > topProductsLimit {
		report.TopProducts = report.TopProducts[:topProductsLimit]
	}

	for category, revenue := range byCategory {
		report.Categories = append(report.Categories, CategorySales{Category: category, RevenueCents: revenue})
	}
	sort.Slice(report.Categories, func(i, j int) bool {
		a, b := report.Categories[i], report.Categories[j]
		if a.RevenueCents != b.RevenueCents {
			return a.RevenueCents > b.RevenueCents
		}
		return a.Category < b.Category
	})

	for _, bucket := range byMonth {
		report.Monthly = append(report.Monthly, *bucket)
	}
	sort.Slice(report.Monthly, func(i, j int) bool {
		return report.Monthly[i].Month < report.Monthly[j].Month
	})

	return report
}

// CustomerStat is the purchase summary of one user.
type CustomerStat struct {
	OrderCount      int   `json:"order_count"`
	TotalSpentCents int64 `json:"total_spent_cents"`
}

// CustomerStats sums order count and spend per user.
func CustomerStats(orderList []orders.OrderDTO) map[uuid.UUID]CustomerStat {
	stats := map[uuid.UUID]CustomerStat{}
	for _, order := range orderList {
		stat := stats[order.UserID]
		stat.OrderCount++
		stat.TotalSpentCents += order.TotalCents
		stats[order.UserID] = stat
	}
	return stats
}

func averageCents(total int64, count int) int64 {
	if count == 0 {
		return 0
	}
	return decimal.NewFromInt(total).
		Div(decimal.NewFromInt(int64(count))).
		Round(0).
		IntPart()
}
