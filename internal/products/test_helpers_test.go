package product

import (
	"fmt"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:products_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.Product{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return conn
}

func mustCreateProduct(t *testing.T, conn *gorm.DB, name, category string, priceCents int64, stock int, status enums.ProductStatus, createdAt time.Time) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:       name,
		PriceCents: priceCents,
		Category:   category,
		Stock:      stock,
		Status:     status,
		CreatedAt:  createdAt,
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

func stringPtr(v string) *string { return &v }
func int64Ptr(v int64) *int64    { return &v }
func intPtr(v int) *int          { return &v }
