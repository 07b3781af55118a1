package users

import (
	"context"

	"github.com/storefronthq/storefront-backend/pkg/db"
	"github.com/storefronthq/storefront-backend/pkg/enums"
	pkgerrors "github.com/storefronthq/storefront-backend/pkg/errors"
)

// GetCart resolves the embedded cart against the current catalog. Lines
// whose product has since been deleted are skipped rather than failing the
// whole view.
func (s *service) GetCart(ctx context.Context, userID string) (*CartView, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := &CartView{Items: []CartItemView{}}
	for _, line := range user.Cart {
		product, err := s.products.FindByID(ctx, line.ProductID)
		if err != nil {
			if db.IsNotFound(err) {
				continue
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart product")
		}
		item := CartItemView{
			ProductID:      line.ProductID,
			Name:           product.Name,
			UnitPriceCents: product.PriceCents,
			Quantity:       line.Quantity,
			TotalCents:     product.PriceCents * line.Quantity,
		}
		view.Items = append(view.Items, item)
		view.SubtotalCents += item.TotalCents
	}
	return view, nil
}

func (s *service) AddCartItem(ctx context.Context, userID, productID string, quantity int64) error {
	if quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if err := s.ensureProduct(ctx, productID); err != nil {
		return err
	}

	if err := s.store.UpsertCartLine(ctx, userID, CartLine{ProductID: productID, Quantity: quantity}); err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart item")
	}
	s.record(ctx, userID, enums.ActivityAddToCart, "added product "+productID+" to cart")
	return nil
}

func (s *service) UpdateCartItem(ctx context.Context, userID, productID string, quantity int64) error {
	if quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	if err := s.store.SetCartQuantity(ctx, userID, productID, quantity); err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "cart item not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
	}
	return nil
}

func (s *service) RemoveCartItem(ctx context.Context, userID, productID string) error {
	if err := s.store.RemoveCartLine(ctx, userID, productID); err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "cart item not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	return nil
}

func (s *service) ClearCart(ctx context.Context, userID string) error {
	if err := s.store.ClearCart(ctx, userID); err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}
