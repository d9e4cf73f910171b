// Package dto holds the wire types of the ops HTTP API.
package dto

import "time"

type StatsResponse struct {
	Orders      int                `json:"orders"`
	Users       int                `json:"users"`
	Revenue     string             `json:"revenue"`
	Cost        string             `json:"cost"`
	Profit      string             `json:"profit"`
	TopProducts []TopProductEntry  `json:"top_products"`
}

type TopProductEntry struct {
	ProductID string `json:"product_id"`
	Flavor    string `json:"flavor"`
	UnitsSold int    `json:"units_sold"`
}

type OrderResponse struct {
	ID             string              `json:"id"`
	UserID         string              `json:"user_id"`
	Status         string              `json:"status"`
	TotalPrice     string              `json:"total_price"`
	DeliveryMethod string              `json:"delivery_method"`
	DeliveryFee    string              `json:"delivery_fee"`
	ContactInfo    string              `json:"contact_info,omitempty"`
	Items          []OrderItemResponse `json:"items"`
	CreatedAt      time.Time           `json:"created_at"`
}

type OrderItemResponse struct {
	ProductID    string `json:"product_id"`
	Quantity     int    `json:"quantity"`
	PriceAtOrder string `json:"price_at_order"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
	Total  int             `json:"total"`
}

type BackupResponse struct {
	Path string `json:"path"`
}

type RepairResponse struct {
	OrdersRepaired int `json:"orders_repaired"`
}
