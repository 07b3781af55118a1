package users

import (
	"context"

	"github.com/storefronthq/storefront-backend/pkg/db"
	"github.com/storefronthq/storefront-backend/pkg/enums"
	pkgerrors "github.com/storefronthq/storefront-backend/pkg/errors"
)

func (s *service) GetWishlist(ctx context.Context, userID string) ([]string, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Wishlist == nil {
		return []string{}, nil
	}
	return user.Wishlist, nil
}

func (s *service) AddWishlistItem(ctx context.Context, userID, productID string) error {
	if err := s.ensureProduct(ctx, productID); err != nil {
		return err
	}

	added, err := s.store.AddWishlistItem(ctx, userID, productID)
	if err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add wishlist item")
	}
	if !added {
		return pkgerrors.New(pkgerrors.CodeConflict, "product already wishlisted")
	}
	s.record(ctx, userID, enums.ActivityWishlist, "added product "+productID+" to wishlist")
	return nil
}

func (s *service) RemoveWishlistItem(ctx context.Context, userID, productID string) error {
	if err := s.store.RemoveWishlistItem(ctx, userID, productID); err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove wishlist item")
	}
	return nil
}
