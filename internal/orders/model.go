package orders

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/storefronthq/storefront-backend/internal/users"
	"github.com/storefronthq/storefront-backend/pkg/enums"
)

// LineItem is an immutable snapshot of a product at purchase time. Later
// catalog edits never change what the customer was charged.
type LineItem struct {
	ProductID      string `bson:"product_id" json:"product_id"`
	Name           string `bson:"name" json:"name"`
	UnitPriceCents int64  `bson:"unit_price_cents" json:"unit_price_cents"`
	Quantity       int64  `bson:"quantity" json:"quantity"`
	TotalCents     int64  `bson:"total_cents" json:"total_cents"`
}

// Order is the order document. Amounts are integer cents.
type Order struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID          string              `bson:"user_id" json:"user_id"`
	Lines           []LineItem          `bson:"lines" json:"lines"`
	SubtotalCents   int64               `bson:"subtotal_cents" json:"subtotal_cents"`
	DiscountCents   int64               `bson:"discount_cents" json:"discount_cents"`
	TotalCents      int64               `bson:"total_cents" json:"total_cents"`
	PromoCode       string              `bson:"promo_code,omitempty" json:"promo_code,omitempty"`
	ShippingAddress users.Address       `bson:"shipping_address" json:"shipping_address"`
	PaymentMethod   string              `bson:"payment_method" json:"payment_method"`
	Status          enums.OrderStatus   `bson:"status" json:"status"`
	PaymentStatus   enums.PaymentStatus `bson:"payment_status" json:"payment_status"`
	CreatedAt       time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time           `bson:"updated_at" json:"updated_at"`
}

// OrderLineInput is one requested line at checkout.
type OrderLineInput struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int64  `json:"quantity" validate:"required,gte=1"`
}

// CreateOrderInput is the checkout payload.
type CreateOrderInput struct {
	Lines           []OrderLineInput   `json:"lines" validate:"required,min=1,dive"`
	ShippingAddress users.AddressInput `json:"shipping_address" validate:"required"`
	PaymentMethod   string             `json:"payment_method" validate:"required,min=1,max=60"`
	PromoCode       string             `json:"promo_code" validate:"max=40"`
}

// ProductSales is one row of the top-products report.
type ProductSales struct {
	ProductID string `bson:"_id" json:"product_id"`
	Name      string `bson:"name" json:"name"`
	Quantity  int64  `bson:"quantity" json:"quantity"`
}

// SalesReport aggregates the orders collection for the admin dashboard.
// Revenue excludes cancelled orders.
type SalesReport struct {
	TotalOrders    int64            `json:"total_orders"`
	RevenueCents   int64            `json:"revenue_cents"`
	OrdersByStatus map[string]int64 `json:"orders_by_status"`
	TopProducts    []ProductSales   `json:"top_products"`
}
