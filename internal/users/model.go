package users

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/storefronthq/storefront-backend/pkg/enums"
)

// Address is a sub-document keyed by a stable uuid, so clients can update
// or delete a single entry without racing the rest of the list.
type Address struct {
	ID         string `bson:"id" json:"id"`
	Label      string `bson:"label,omitempty" json:"label,omitempty"`
	Line1      string `bson:"line1" json:"line1"`
	Line2      string `bson:"line2,omitempty" json:"line2,omitempty"`
	City       string `bson:"city" json:"city"`
	State      string `bson:"state,omitempty" json:"state,omitempty"`
	PostalCode string `bson:"postal_code" json:"postal_code"`
	Country    string `bson:"country" json:"country"`
	Phone      string `bson:"phone,omitempty" json:"phone,omitempty"`
}

// CartLine is one product entry in the embedded cart.
type CartLine struct {
	ProductID string `bson:"product_id" json:"product_id"`
	Quantity  int64  `bson:"quantity" json:"quantity"`
}

// User is the account document. Cart, wishlist and addresses are embedded;
// order refs point at the orders collection.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Role         enums.Role         `bson:"role" json:"role"`
	Permissions  []enums.Permission `bson:"permissions,omitempty" json:"permissions,omitempty"`
	Addresses    []Address          `bson:"addresses,omitempty" json:"addresses,omitempty"`
	Cart         []CartLine         `bson:"cart,omitempty" json:"cart,omitempty"`
	Wishlist     []string           `bson:"wishlist,omitempty" json:"wishlist,omitempty"`
	OrderIDs     []string           `bson:"order_ids,omitempty" json:"order_ids,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// Admin is a staff account. Admins live in their own collection and are
// seeded out-of-band; there is no self-service admin signup.
type Admin struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Role         enums.Role         `bson:"role" json:"role"`
	Permissions  []enums.Permission `bson:"permissions,omitempty" json:"permissions,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// PermissionSet folds the permission list into a checkable set.
func (a *Admin) PermissionSet() enums.PermissionSet {
	return enums.NewPermissionSet(a.Permissions...)
}

// UpdateProfileInput carries self-service profile changes.
type UpdateProfileInput struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=120"`
	Phone *string `json:"phone" validate:"omitempty,max=30"`
}

// AddressInput carries address fields for add/update.
type AddressInput struct {
	Label      string `json:"label" validate:"max=60"`
	Line1      string `json:"line1" validate:"required,min=1,max=200"`
	Line2      string `json:"line2" validate:"max=200"`
	City       string `json:"city" validate:"required,min=1,max=100"`
	State      string `json:"state" validate:"max=100"`
	PostalCode string `json:"postal_code" validate:"required,min=1,max=20"`
	Country    string `json:"country" validate:"required,min=2,max=60"`
	Phone      string `json:"phone" validate:"max=30"`
}

// CartItemView joins a cart line with its current product snapshot.
type CartItemView struct {
	ProductID      string `json:"product_id"`
	Name           string `json:"name"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       int64  `json:"quantity"`
	TotalCents     int64  `json:"total_cents"`
}

// CartView is the resolved cart returned to clients.
type CartView struct {
	Items         []CartItemView `json:"items"`
	SubtotalCents int64          `json:"subtotal_cents"`
}

// AdminUpdateUserInput carries staff-side account changes.
type AdminUpdateUserInput struct {
	Name  *string     `json:"name" validate:"omitempty,min=1,max=120"`
	Phone *string     `json:"phone" validate:"omitempty,max=30"`
	Role  *enums.Role `json:"role" validate:"omitempty"`
}
