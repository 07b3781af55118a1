package reviews

import (
	"context"
	"fmt"
	"strings"

	"github.com/storefronthq/storefront-backend/internal/activity"
	"github.com/storefronthq/storefront-backend/internal/products"
	"github.com/storefronthq/storefront-backend/pkg/db"
	"github.com/storefronthq/storefront-backend/pkg/enums"
	pkgerrors "github.com/storefronthq/storefront-backend/pkg/errors"
)

// Store is the persistence surface for reviews.
type Store interface {
	Insert(ctx context.Context, review *Review) error
	FindByID(ctx context.Context, id string) (*Review, error)
	ListByProduct(ctx context.Context, productID string) ([]Review, error)
	Update(ctx context.Context, id string, rating int, comment string) (*Review, error)
	Delete(ctx context.Context, id string) error
}

// CatalogStore is the slice of the product store the review module owns:
// existence checks plus the derived rating aggregate.
type CatalogStore interface {
	FindByID(ctx context.Context, id string) (*products.Product, error)
	SetRating(ctx context.Context, id string, rating products.Rating) error
}

// ServiceParams groups dependencies for the review service. Activity is
// optional; when nil, no activity entries are recorded.
type ServiceParams struct {
	Store    Store
	Catalog  CatalogStore
	Activity activity.Recorder
}

// Service exposes review CRUD. Every mutation recomputes the product's
// rating aggregate from the full review set.
type Service interface {
	Create(ctx context.Context, userID, userName, productID string, input ReviewInput) (*Review, error)
	ListByProduct(ctx context.Context, productID string) ([]Review, error)
	Update(ctx context.Context, reviewID, userID string, input ReviewInput) (*Review, error)
	Delete(ctx context.Context, reviewID, principalID string, isAdmin bool) error
}

type service struct {
	store    Store
	catalog  CatalogStore
	activity activity.Recorder
}

// NewService builds a review service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("review store is required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog store is required")
	}
	return &service{store: params.Store, catalog: params.Catalog, activity: params.Activity}, nil
}

// ComputeRating folds a review set into the aggregate stored on the
// product. It is a pure function of the current set, so recomputing after
// any mutation is idempotent.
func ComputeRating(reviews []Review) products.Rating {
	if len(reviews) == 0 {
		return products.Rating{}
	}
	var sum int64
	for _, review := range reviews {
		sum += int64(review.Rating)
	}
	return products.Rating{
		Average: float64(sum) / float64(len(reviews)),
		Count:   int64(len(reviews)),
	}
}

func (s *service) Create(ctx context.Context, userID, userName, productID string, input ReviewInput) (*Review, error) {
	if err := validateRating(input.Rating); err != nil {
		return nil, err
	}
	if _, err := s.catalog.FindByID(ctx, productID); err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	review := &Review{
		ProductID: productID,
		UserID:    userID,
		UserName:  userName,
		Rating:    input.Rating,
		Comment:   strings.TrimSpace(input.Comment),
	}
	if err := s.store.Insert(ctx, review); err != nil {
		if db.IsDup(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "product already reviewed")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert review")
	}

	if err := s.recomputeRating(ctx, productID); err != nil {
		return nil, err
	}
	if s.activity != nil {
		s.activity.Record(ctx, userID, enums.ActivityReview, "reviewed product "+productID)
	}
	return review, nil
}

func (s *service) ListByProduct(ctx context.Context, productID string) ([]Review, error) {
	if _, err := s.catalog.FindByID(ctx, productID); err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	reviews, err := s.store.ListByProduct(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	return reviews, nil
}

func (s *service) Update(ctx context.Context, reviewID, userID string, input ReviewInput) (*Review, error) {
	if err := validateRating(input.Rating); err != nil {
		return nil, err
	}

	existing, err := s.loadReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if existing.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "review belongs to another user")
	}

	review, err := s.store.Update(ctx, reviewID, input.Rating, strings.TrimSpace(input.Comment))
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "review not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update review")
	}

	if err := s.recomputeRating(ctx, review.ProductID); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *service) Delete(ctx context.Context, reviewID, principalID string, isAdmin bool) error {
	existing, err := s.loadReview(ctx, reviewID)
	if err != nil {
		return err
	}
	if !isAdmin && existing.UserID != principalID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "review belongs to another user")
	}

	if err := s.store.Delete(ctx, reviewID); err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "review not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete review")
	}
	return s.recomputeRating(ctx, existing.ProductID)
}

func (s *service) loadReview(ctx context.Context, reviewID string) (*Review, error) {
	review, err := s.store.FindByID(ctx, reviewID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "review not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load review")
	}
	return review, nil
}

func (s *service) recomputeRating(ctx context.Context, productID string) error {
	reviews, err := s.store.ListByProduct(ctx, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews for rating")
	}
	if err := s.catalog.SetRating(ctx, productID, ComputeRating(reviews)); err != nil {
		if db.IsNotFound(err) {
			// Product deleted concurrently; the aggregate has nowhere to go.
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store rating")
	}
	return nil
}

func validateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	return nil
}
