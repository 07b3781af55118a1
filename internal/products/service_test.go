package products

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	pkgerrors "github.com/storefronthq/storefront-backend/pkg/errors"
)

type fakeStore struct {
	mu       sync.Mutex
	products map[string]*Product
}

func newFakeStore() *fakeStore {
	return &fakeStore{products: map[string]*Product{}}
}

func (f *fakeStore) Insert(_ context.Context, product *Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	product.ID = primitive.NewObjectID()
	clone := *product
	f.products[product.ID.Hex()] = &clone
	return nil
}

func (f *fakeStore) FindByID(_ context.Context, id string) (*Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	product, ok := f.products[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	clone := *product
	return &clone, nil
}

func (f *fakeStore) List(_ context.Context, _, _ int) ([]Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []Product{}
	for _, p := range f.products {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeStore) Search(_ context.Context, query SearchQuery) ([]Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []Product{}
	for _, p := range f.products {
		if query.Name != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(query.Name)) {
			continue
		}
		if query.Category != "" && p.Category != query.Category {
			continue
		}
		if query.MinPriceCents > 0 && p.PriceCents < query.MinPriceCents {
			continue
		}
		if query.MaxPriceCents > 0 && p.PriceCents > query.MaxPriceCents {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeStore) Update(_ context.Context, id string, set map[string]any) (*Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	product, ok := f.products[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	if v, ok := set["name"].(string); ok {
		product.Name = v
	}
	if v, ok := set["category"].(string); ok {
		product.Category = v
	}
	if v, ok := set["price_cents"].(int64); ok {
		product.PriceCents = v
	}
	if v, ok := set["stock"].(int64); ok {
		product.Stock = v
	}
	clone := *product
	return &clone, nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(f.products, id)
	return nil
}

func (f *fakeStore) AppendImageURL(_ context.Context, id, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	product, ok := f.products[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	product.ImageURLs = append(product.ImageURLs, url)
	return nil
}

func (f *fakeStore) DecrementStock(_ context.Context, id string, qty int64) (bool, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	product, ok := f.products[id]
	if !ok {
		return false, false, nil
	}
	if product.Stock < qty {
		return true, false, nil
	}
	product.Stock -= qty
	return true, true, nil
}

func (f *fakeStore) IncrementStock(_ context.Context, id string, qty int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	product, ok := f.products[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	product.Stock += qty
	return nil
}

func (f *fakeStore) SetRating(_ context.Context, id string, rating Rating) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	product, ok := f.products[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	product.Rating = rating
	return nil
}

type fakeMedia struct {
	saved []string
}

func (f *fakeMedia) Save(_ context.Context, originalName string, _ io.Reader) (string, error) {
	url := "/uploads/" + originalName
	f.saved = append(f.saved, url)
	return url, nil
}

func newTestService(t *testing.T, store *fakeStore, media MediaStore) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Store: store, Media: media})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestCreateRejectsNegativePrice(t *testing.T) {
	svc := newTestService(t, newFakeStore(), nil)

	_, err := svc.Create(context.Background(), CreateProductInput{Name: "Shirt", Category: "apparel", PriceCents: -1})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateAndGet(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store, nil)

	created, err := svc.Create(context.Background(), CreateProductInput{
		Name:       "  Shirt  ",
		Category:   "apparel",
		PriceCents: 1999,
		Stock:      10,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Name != "Shirt" {
		t.Fatalf("expected trimmed name, got %q", created.Name)
	}

	got, err := svc.Get(context.Background(), created.ID.Hex())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.PriceCents != 1999 || got.Stock != 10 {
		t.Fatalf("unexpected product %+v", got)
	}
}

func TestGetUnknownProduct(t *testing.T) {
	svc := newTestService(t, newFakeStore(), nil)

	_, err := svc.Get(context.Background(), primitive.NewObjectID().Hex())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSearchRejectsInvertedPriceRange(t *testing.T) {
	svc := newTestService(t, newFakeStore(), nil)

	_, err := svc.Search(context.Background(), SearchQuery{MinPriceCents: 500, MaxPriceCents: 100})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSearchFilters(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store, nil)
	ctx := context.Background()

	for _, input := range []CreateProductInput{
		{Name: "Red Shirt", Category: "apparel", PriceCents: 1500, Stock: 5},
		{Name: "Blue Shirt", Category: "apparel", PriceCents: 4500, Stock: 5},
		{Name: "Mug", Category: "kitchen", PriceCents: 900, Stock: 5},
	} {
		if _, err := svc.Create(ctx, input); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	found, err := svc.Search(ctx, SearchQuery{Name: "shirt", MaxPriceCents: 2000})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(found) != 1 || found[0].Name != "Red Shirt" {
		t.Fatalf("unexpected search result %+v", found)
	}
}

func TestUpdateRequiresFields(t *testing.T) {
	svc := newTestService(t, newFakeStore(), nil)

	_, err := svc.Update(context.Background(), primitive.NewObjectID().Hex(), UpdateProductInput{})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUploadImageChecksExtensionAndProduct(t *testing.T) {
	store := newFakeStore()
	media := &fakeMedia{}
	svc := newTestService(t, store, media)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateProductInput{Name: "Shirt", Category: "apparel", PriceCents: 100, Stock: 1})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.UploadImage(ctx, created.ID.Hex(), "malware.exe", strings.NewReader("x")); err == nil {
		t.Fatal("expected rejection of unsupported extension")
	}

	if _, err := svc.UploadImage(ctx, primitive.NewObjectID().Hex(), "a.png", strings.NewReader("x")); err == nil {
		t.Fatal("expected not found for unknown product")
	}

	url, err := svc.UploadImage(ctx, created.ID.Hex(), "a.png", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("UploadImage: %v", err)
	}
	got, err := svc.Get(ctx, created.ID.Hex())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.ImageURLs) != 1 || got.ImageURLs[0] != url {
		t.Fatalf("expected image url attached, got %+v", got.ImageURLs)
	}
}
