package reviews

import (
	"context"
	"math"
	"sync"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/storefronthq/storefront-backend/internal/products"
	pkgerrors "github.com/storefronthq/storefront-backend/pkg/errors"
)

type fakeReviewStore struct {
	mu      sync.Mutex
	reviews map[string]*Review
}

func newFakeReviewStore() *fakeReviewStore {
	return &fakeReviewStore{reviews: map[string]*Review{}}
}

func (f *fakeReviewStore) Insert(_ context.Context, review *Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.reviews {
		if existing.ProductID == review.ProductID && existing.UserID == review.UserID {
			return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
		}
	}
	review.ID = primitive.NewObjectID()
	clone := *review
	f.reviews[review.ID.Hex()] = &clone
	return nil
}

func (f *fakeReviewStore) FindByID(_ context.Context, id string) (*Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	review, ok := f.reviews[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	clone := *review
	return &clone, nil
}

func (f *fakeReviewStore) ListByProduct(_ context.Context, productID string) ([]Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []Review{}
	for _, review := range f.reviews {
		if review.ProductID == productID {
			out = append(out, *review)
		}
	}
	return out, nil
}

func (f *fakeReviewStore) Update(_ context.Context, id string, rating int, comment string) (*Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	review, ok := f.reviews[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	review.Rating = rating
	review.Comment = comment
	clone := *review
	return &clone, nil
}

func (f *fakeReviewStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.reviews[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(f.reviews, id)
	return nil
}

type fakeCatalog struct {
	mu       sync.Mutex
	products map[string]*products.Product
}

func (f *fakeCatalog) FindByID(_ context.Context, id string) (*products.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	product, ok := f.products[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return product, nil
}

func (f *fakeCatalog) SetRating(_ context.Context, id string, rating products.Rating) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	product, ok := f.products[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	product.Rating = rating
	return nil
}

func setupReviewService(t *testing.T) (Service, *fakeReviewStore, *fakeCatalog, string) {
	t.Helper()
	productID := primitive.NewObjectID()
	catalog := &fakeCatalog{products: map[string]*products.Product{
		productID.Hex(): {ID: productID, Name: "Shirt"},
	}}
	store := newFakeReviewStore()
	svc, err := NewService(ServiceParams{Store: store, Catalog: catalog})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, store, catalog, productID.Hex()
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRatingAggregateAcrossMutations(t *testing.T) {
	svc, _, catalog, productID := setupReviewService(t)
	ctx := context.Background()

	var deletable *Review
	for i, rating := range []int{4, 5, 3} {
		review, err := svc.Create(ctx, primitive.NewObjectID().Hex(), "User", productID, ReviewInput{Rating: rating})
		if err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
		if rating == 3 {
			deletable = review
		}
	}

	product := catalog.products[productID]
	if !almostEqual(product.Rating.Average, 4.0) || product.Rating.Count != 3 {
		t.Fatalf("expected avg 4.0 count 3, got %+v", product.Rating)
	}

	if err := svc.Delete(ctx, deletable.ID.Hex(), deletable.UserID, false); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !almostEqual(product.Rating.Average, 4.5) || product.Rating.Count != 2 {
		t.Fatalf("expected avg 4.5 count 2 after delete, got %+v", product.Rating)
	}
}

func TestOneReviewPerUserProduct(t *testing.T) {
	svc, _, _, productID := setupReviewService(t)
	ctx := context.Background()
	userID := primitive.NewObjectID().Hex()

	if _, err := svc.Create(ctx, userID, "Ada", productID, ReviewInput{Rating: 5}); err != nil {
		t.Fatalf("first review: %v", err)
	}
	_, err := svc.Create(ctx, userID, "Ada", productID, ReviewInput{Rating: 1})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestUpdateOwnershipAndBounds(t *testing.T) {
	svc, _, catalog, productID := setupReviewService(t)
	ctx := context.Background()
	owner := primitive.NewObjectID().Hex()

	review, err := svc.Create(ctx, owner, "Ada", productID, ReviewInput{Rating: 2})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Update(ctx, review.ID.Hex(), owner, ReviewInput{Rating: 6}); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for rating 6, got %v", err)
	}

	if _, err := svc.Update(ctx, review.ID.Hex(), primitive.NewObjectID().Hex(), ReviewInput{Rating: 4}); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for non-owner, got %v", err)
	}

	if _, err := svc.Update(ctx, review.ID.Hex(), owner, ReviewInput{Rating: 4}); err != nil {
		t.Fatalf("owner update: %v", err)
	}
	product := catalog.products[productID]
	if !almostEqual(product.Rating.Average, 4.0) || product.Rating.Count != 1 {
		t.Fatalf("expected avg 4.0 count 1 after update, got %+v", product.Rating)
	}
}

func TestAdminCanDeleteAnyReview(t *testing.T) {
	svc, _, _, productID := setupReviewService(t)
	ctx := context.Background()

	review, err := svc.Create(ctx, primitive.NewObjectID().Hex(), "Ada", productID, ReviewInput{Rating: 5})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Delete(ctx, review.ID.Hex(), "someone-else", false); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for stranger, got %v", err)
	}
	if err := svc.Delete(ctx, review.ID.Hex(), "admin-1", true); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
}

func TestComputeRatingEmptySet(t *testing.T) {
	rating := ComputeRating(nil)
	if rating.Average != 0 || rating.Count != 0 {
		t.Fatalf("expected zero aggregate, got %+v", rating)
	}
}
