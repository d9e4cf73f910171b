package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
)

// Valid reports whether s belongs to the closed status set. Anything else
// is rendered as "Unknown" by the display layer but never written back.
func (s OrderStatus) Valid() bool {
	return s == OrderStatusProcessing || s == OrderStatusCompleted
}

type DeliveryMethod string

const (
	DeliveryPickup  DeliveryMethod = "pickup"
	DeliveryCourier DeliveryMethod = "delivery"
)

func (m DeliveryMethod) Valid() bool {
	return m == DeliveryPickup || m == DeliveryCourier
}

type User struct {
	ID         uuid.UUID
	TelegramID int64
	Username   string
	FirstName  string
	LastName   string
	Banned     bool
	CreatedAt  time.Time
}

// ProductModel is a product family (a device line) grouping variants.
// CostBasis is used for profit computation and never shown to buyers.
type ProductModel struct {
	ID          uuid.UUID
	Name        string
	Description string
	ImagePath   string
	CostBasis   decimal.Decimal
	Available   bool
	CreatedAt   time.Time
}

// Product is a purchasable variant of a ProductModel.
type Product struct {
	ID        uuid.UUID
	ModelID   uuid.UUID
	Flavor    string
	Price     decimal.Decimal
	Stock     int
	Available bool
	CreatedAt time.Time
}

// CartEntry is a pending (user, product, quantity) selection. At most one
// entry per (user, product) may persist; duplicates are a defect state that
// the cart ledger repairs.
type CartEntry struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	ProductID uuid.UUID
	Quantity  int
	CreatedAt time.Time
}

type Order struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Status         OrderStatus
	TotalPrice     decimal.Decimal
	DeliveryMethod DeliveryMethod
	DeliveryFee    decimal.Decimal
	ContactInfo    string
	Items          []OrderLineItem
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// OrderLineItem freezes the product price at the moment of purchase.
// PriceAtOrder is immutable once written; rows are unique per
// (product, price_at_order) and accumulate quantity instead.
type OrderLineItem struct {
	ID           uuid.UUID
	OrderID      uuid.UUID
	ProductID    uuid.UUID
	Quantity     int
	PriceAtOrder decimal.Decimal
}

type Setting struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// OrderPlaced is published to the notification queue when an order is
// created or amended.
type OrderPlaced struct {
	OrderID uuid.UUID `json:"order_id"`
	UserID  uuid.UUID `json:"user_id"`
	Amended bool      `json:"amended"`
}
