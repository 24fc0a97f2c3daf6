package seed

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/google/uuid"
)

// namespace keys the deterministic ids of the demo rows.
var namespace = uuid.MustParse("0f6d8a4e-4f3b-5a51-9c38-2f0d5b0b7a11")

func demoID(kind, key string) uuid.UUID {
	return uuid.NewSHA1(namespace, []byte(kind+":"+key))
}

type demoProduct struct {
	key         string
	name        string
	description string
	priceCents  int64
	imageURL    string
	category    string
	stock       int
	status      enums.ProductStatus
	createdAt   time.Time
}

type demoUser struct {
	key      string
	email    string
	password string
	name     string
	role     enums.UserRole
	phone    string
	address  string
}

type demoLine struct {
	productKey string
	quantity   int
}

type demoOrder struct {
	key       string
	userKey   string
	lines     []demoLine
	status    enums.OrderStatus
	createdAt time.Time
	updatedAt time.Time
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

var demoProducts = []demoProduct{
	{
		key:         "headphones",
		name:        "Premium Wireless Headphones",
		description: "High-quality wireless headphones with noise cancellation, 30-hour battery life, and premium sound quality.",
		priceCents:  19999,
		imageURL:    "https://images.pexels.com/photos/3394659/pexels-photo-3394659.jpeg?auto=compress&cs=tinysrgb&w=500",
		category:    "Electronics",
		stock:       25,
		status:      enums.ProductStatusAvailable,
		createdAt:   day(2024, time.January, 1),
	},
	{
		key:         "fitness-watch",
		name:        "Smart Fitness Watch",
		description: "Advanced fitness tracking with heart rate monitoring, GPS, and 7-day battery life.",
		priceCents:  29999,
		imageURL:    "https://images.pexels.com/photos/437037/pexels-photo-437037.jpeg?auto=compress&cs=tinysrgb&w=500",
		category:    "Electronics",
		stock:       15,
		status:      enums.ProductStatusAvailable,
		createdAt:   day(2024, time.January, 2),
	},
	{
		key:         "cotton-tshirt",
		name:        "Organic Cotton T-Shirt",
		description: "Comfortable, sustainable organic cotton t-shirt in various colors and sizes.",
		priceCents:  2999,
		imageURL:    "https://images.pexels.com/photos/996329/pexels-photo-996329.jpeg?auto=compress&cs=tinysrgb&w=500",
		category:    "Clothing",
		stock:       50,
		status:      enums.ProductStatusAvailable,
		createdAt:   day(2024, time.January, 3),
	},
	{
		key:         "camera-lens",
		name:        "Professional Camera Lens",
		description: "50mm f/1.8 prime lens for professional photography with excellent bokeh.",
		priceCents:  44999,
		imageURL:    "https://images.pexels.com/photos/90946/pexels-photo-90946.jpeg?auto=compress&cs=tinysrgb&w=500",
		category:    "Electronics",
		stock:       8,
		status:      enums.ProductStatusAvailable,
		createdAt:   day(2024, time.January, 4),
	},
	{
		key:         "messenger-bag",
		name:        "Leather Messenger Bag",
		description: "Handcrafted leather messenger bag perfect for work and travel.",
		priceCents:  14999,
		imageURL:    "https://images.pexels.com/photos/1152077/pexels-photo-1152077.jpeg?auto=compress&cs=tinysrgb&w=500",
		category:    "Accessories",
		stock:       0,
		status:      enums.ProductStatusOutOfStock,
		createdAt:   day(2024, time.January, 5),
	},
	{
		key:         "mug-set",
		name:        "Ceramic Coffee Mug Set",
		description: "Set of 4 handmade ceramic coffee mugs with unique glazing patterns.",
		priceCents:  5999,
		imageURL:    "https://images.pexels.com/photos/302899/pexels-photo-302899.jpeg?auto=compress&cs=tinysrgb&w=500",
		category:    "Home & Kitchen",
		stock:       30,
		status:      enums.ProductStatusAvailable,
		createdAt:   day(2024, time.January, 6),
	},
}

var demoUsers = []demoUser{
	{
		key:      "admin",
		email:    "admin@ecommerce.com",
		password: "admin123",
		name:     "Admin User",
		role:     enums.UserRoleAdmin,
		phone:    "(555) 123-4567",
		address:  "123 Admin Street, City, State 12345",
	},
	{
		key:      "customer",
		email:    "customer@example.com",
		password: "customer123",
		name:     "John Doe",
		role:     enums.UserRoleCustomer,
		phone:    "(555) 987-6543",
		address:  "456 Customer Ave, City, State 67890",
	},
}

var demoOrders = []demoOrder{
	{
		key:     "delivered",
		userKey: "customer",
		lines: []demoLine{
			{productKey: "headphones", quantity: 1},
			{productKey: "cotton-tshirt", quantity: 2},
		},
		status:    enums.OrderStatusDelivered,
		createdAt: day(2024, time.January, 20),
		updatedAt: day(2024, time.January, 25),
	},
	{
		key:     "dispatched",
		userKey: "customer",
		lines: []demoLine{
			{productKey: "fitness-watch", quantity: 1},
		},
		status:    enums.OrderStatusDispatched,
		createdAt: day(2024, time.February, 1),
		updatedAt: day(2024, time.February, 2),
	},
}
