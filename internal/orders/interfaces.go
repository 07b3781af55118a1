package orders

import (
	"context"

	"github.com/storefronthq/storefront-backend/internal/notifications"
	"github.com/storefronthq/storefront-backend/internal/products"
	"github.com/storefronthq/storefront-backend/internal/promotions"
	"github.com/storefronthq/storefront-backend/internal/users"
	"github.com/storefronthq/storefront-backend/pkg/enums"
)

// Store is the persistence surface for orders. Status transitions are
// compare-and-swap writes: the source status is part of the filter so two
// racing transitions cannot both win.
type Store interface {
	Insert(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userID string, page, limit int) ([]Order, error)
	List(ctx context.Context, page, limit int) ([]Order, error)
	// TransitionStatus moves id from exactly `from` to `to`; a miss means
	// the order was not in `from` anymore (or does not exist).
	TransitionStatus(ctx context.Context, id string, from, to enums.OrderStatus) (*Order, error)
	Delete(ctx context.Context, id string) error
	SalesReport(ctx context.Context) (*SalesReport, error)
}

// StockStore is the slice of the catalog the engine needs: price/name
// snapshots plus the atomic stock mutations.
type StockStore interface {
	FindByID(ctx context.Context, id string) (*products.Product, error)
	DecrementStock(ctx context.Context, id string, qty int64) (found, ok bool, err error)
	IncrementStock(ctx context.Context, id string, qty int64) error
}

// AccountStore is the slice of the user store the engine needs.
type AccountStore interface {
	FindByID(ctx context.Context, id string) (*users.User, error)
	AppendOrderRef(ctx context.Context, userID, orderID string) error
	ClearCart(ctx context.Context, userID string) error
}

// PromotionApplier consumes one use of a code, atomically. Release hands
// the use back when the order fails after the code was consumed.
type PromotionApplier interface {
	Apply(ctx context.Context, code string) (*promotions.AppliedPromotion, error)
	Release(ctx context.Context, code string) error
}

// ConfirmationSender delivers the order-confirmation email.
type ConfirmationSender interface {
	SendOrderConfirmation(ctx context.Context, data notifications.OrderConfirmation) error
}
