package users

import (
	"context"

	"github.com/storefronthq/storefront-backend/internal/products"
)

// Store is the persistence surface for user accounts and their embedded
// cart, wishlist and address sub-documents.
type Store interface {
	Insert(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, page, limit int) ([]User, error)
	Delete(ctx context.Context, id string) error

	// UpdateFields applies a $set on top-level fields.
	UpdateFields(ctx context.Context, id string, set map[string]any) error

	AddAddress(ctx context.Context, userID string, address Address) error
	UpdateAddress(ctx context.Context, userID string, address Address) error
	RemoveAddress(ctx context.Context, userID, addressID string) error

	// UpsertCartLine replaces the quantity for an existing product line or
	// appends a new line.
	UpsertCartLine(ctx context.Context, userID string, line CartLine) error
	SetCartQuantity(ctx context.Context, userID, productID string, quantity int64) error
	RemoveCartLine(ctx context.Context, userID, productID string) error
	ClearCart(ctx context.Context, userID string) error

	// AddWishlistItem reports added=false when the product was already
	// wishlisted.
	AddWishlistItem(ctx context.Context, userID, productID string) (added bool, err error)
	RemoveWishlistItem(ctx context.Context, userID, productID string) error

	AppendOrderRef(ctx context.Context, userID, orderID string) error
}

// AdminStore is the staff-account lookup surface.
type AdminStore interface {
	FindByID(ctx context.Context, id string) (*Admin, error)
	FindByEmail(ctx context.Context, email string) (*Admin, error)
}

// ProductSource is the slice of the catalog the user service needs: cart
// and wishlist mutations verify the product exists, and the cart view
// snapshots names and prices.
type ProductSource interface {
	FindByID(ctx context.Context, id string) (*products.Product, error)
}
