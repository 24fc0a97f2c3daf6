package orders

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:orders_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := conn.AutoMigrate(&models.User{}, &models.Order{}, &models.OrderItem{}, &models.OutboxEvent{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return conn
}

func mustCreateUser(t *testing.T, conn *gorm.DB, name, email string) *models.User {
	t.Helper()
	user := &models.User{Name: name, Email: email, PasswordHash: "x", Role: enums.UserRoleCustomer}
	if err := conn.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []OrderEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Events() []OrderEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]OrderEvent, len(p.events))
	copy(out, p.events)
	return out
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestService(t *testing.T, allowAny bool) (*service, *gorm.DB, *recordingPublisher, *testClock) {
	t.Helper()
	conn := openTestDB(t)
	publisher := &recordingPublisher{}
	svc, err := NewService(ServiceParams{
		Repo:               NewRepository(conn),
		Tx:                 db.NewFromConn(conn),
		Publisher:          publisher,
		AllowAnyTransition: allowAny,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	clock := &testClock{now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	impl := svc.(*service)
	impl.now = clock.Now
	return impl, conn, publisher, clock
}

func sampleInput(userID uuid.UUID) CreateOrderInput {
	return CreateOrderInput{
		UserID: userID,
		Items: []ItemInput{
			{ProductID: uuid.New(), Name: "Premium Wireless Headphones", Quantity: 1, UnitPriceCents: 19999},
			{ProductID: uuid.New(), Name: "Organic Cotton T-Shirt", Quantity: 2, UnitPriceCents: 2999},
		},
		SubtotalCents:   25997,
		ShippingCents:   0,
		TaxCents:        2080,
		TotalCents:      28077,
		ShippingAddress: "456 Customer Ave, City, State 67890",
	}
}
