// Package model содержит доменные сущности интернет-магазина.
package model

import "time"

// User представляет зарегистрированного пользователя магазина.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}

// OrderStatus описывает статус заказа.
type OrderStatus string

const (
	// OrderStatusCart помечает заказ-корзину, ещё не оформленный пользователем.
	OrderStatusCart       OrderStatus = "Cart"
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

// Product описывает товар внешнего каталога.
type Product struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	ImageURL string  `json:"imageUrl,omitempty"`
}

// OrderItem представляет позицию заказа: ссылку на товар и снимок его
// названия, изображения и цены на момент добавления.
type OrderItem struct {
	ProductID string   `json:"product"`
	Name      string   `json:"name"`
	Image     string   `json:"image,omitempty"`
	Quantity  int      `json:"quantity"`
	Price     float64  `json:"price"`
	Product   *Product `json:"productInfo,omitempty"`
}

// ShippingInfo содержит данные доставки оформленного заказа.
type ShippingInfo struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
	City    string `json:"city"`
	Country string `json:"country"`
}

// Order представляет корзину или оформленный заказ пользователя.
type Order struct {
	ID           int64         `json:"id"`
	UserID       int64         `json:"user"`
	Items        []OrderItem   `json:"items"`
	ShippingInfo *ShippingInfo `json:"shippingInfo,omitempty"`
	TotalAmount  float64       `json:"totalAmount"`
	Status       OrderStatus   `json:"status"`
	CreatedAt    time.Time     `json:"createdAt"`
}
