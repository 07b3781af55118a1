package products

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Rating is derived state recomputed by the review module after every
// review mutation.
type Rating struct {
	Average float64 `bson:"average" json:"average"`
	Count   int64   `bson:"count" json:"count"`
}

// Product is the catalog document. Prices are integer cents.
type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Category    string             `bson:"category" json:"category"`
	PriceCents  int64              `bson:"price_cents" json:"price_cents"`
	Stock       int64              `bson:"stock" json:"stock"`
	Sizes       []string           `bson:"sizes,omitempty" json:"sizes,omitempty"`
	Colors      []string           `bson:"colors,omitempty" json:"colors,omitempty"`
	ImageURLs   []string           `bson:"image_urls,omitempty" json:"image_urls,omitempty"`
	Rating      Rating             `bson:"rating" json:"rating"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// CreateProductInput carries admin-supplied fields for a new product.
type CreateProductInput struct {
	Name        string   `json:"name" validate:"required,min=1,max=200"`
	Description string   `json:"description" validate:"max=5000"`
	Category    string   `json:"category" validate:"required,min=1,max=100"`
	PriceCents  int64    `json:"price_cents" validate:"gte=0"`
	Stock       int64    `json:"stock" validate:"gte=0"`
	Sizes       []string `json:"sizes" validate:"omitempty,dive,min=1,max=40"`
	Colors      []string `json:"colors" validate:"omitempty,dive,min=1,max=40"`
}

// UpdateProductInput carries partial updates; nil fields are untouched.
type UpdateProductInput struct {
	Name        *string   `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string   `json:"description" validate:"omitempty,max=5000"`
	Category    *string   `json:"category" validate:"omitempty,min=1,max=100"`
	PriceCents  *int64    `json:"price_cents" validate:"omitempty,gte=0"`
	Stock       *int64    `json:"stock" validate:"omitempty,gte=0"`
	Sizes       *[]string `json:"sizes"`
	Colors      *[]string `json:"colors"`
}

// SearchQuery filters the catalog. Zero values mean "no filter".
type SearchQuery struct {
	Name          string
	Category      string
	MinPriceCents int64
	MaxPriceCents int64
	Sizes         []string
	Colors        []string
	Page          int
	Limit         int
}
