package promotions

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/storefronthq/storefront-backend/pkg/enums"
	pkgerrors "github.com/storefronthq/storefront-backend/pkg/errors"
)

type fakePromoStore struct {
	mu     sync.Mutex
	promos map[string]*Promotion
}

func newFakePromoStore() *fakePromoStore {
	return &fakePromoStore{promos: map[string]*Promotion{}}
}

func (f *fakePromoStore) Insert(_ context.Context, promo *Promotion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.promos {
		if existing.Code == promo.Code {
			return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
		}
	}
	promo.ID = primitive.NewObjectID()
	clone := *promo
	f.promos[promo.ID.Hex()] = &clone
	return nil
}

func (f *fakePromoStore) FindByID(_ context.Context, id string) (*Promotion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	promo, ok := f.promos[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	clone := *promo
	return &clone, nil
}

func (f *fakePromoStore) FindByCode(_ context.Context, code string) (*Promotion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, promo := range f.promos {
		if promo.Code == normalizeCode(code) {
			clone := *promo
			return &clone, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakePromoStore) List(_ context.Context, _, _ int) ([]Promotion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []Promotion{}
	for _, promo := range f.promos {
		out = append(out, *promo)
	}
	return out, nil
}

func (f *fakePromoStore) Update(_ context.Context, id string, set map[string]any) (*Promotion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	promo, ok := f.promos[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	if v, ok := set["description"].(string); ok {
		promo.Description = v
	}
	if v, ok := set["value"].(int64); ok {
		promo.Value = v
	}
	if v, ok := set["valid_from"].(time.Time); ok {
		promo.ValidFrom = v
	}
	if v, ok := set["valid_to"].(time.Time); ok {
		promo.ValidTo = v
	}
	if v, ok := set["usage_limit"].(int64); ok {
		promo.UsageLimit = v
	}
	clone := *promo
	return &clone, nil
}

func (f *fakePromoStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.promos[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(f.promos, id)
	return nil
}

// ApplyAtomically mirrors the production conditional write: the whole
// check-and-increment happens under one lock.
func (f *fakePromoStore) ApplyAtomically(_ context.Context, code string, now time.Time) (*Promotion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, promo := range f.promos {
		if promo.Code != normalizeCode(code) {
			continue
		}
		if now.Before(promo.ValidFrom) || now.After(promo.ValidTo) {
			return nil, mongo.ErrNoDocuments
		}
		if promo.UsageLimit > 0 && promo.UsageCount >= promo.UsageLimit {
			return nil, mongo.ErrNoDocuments
		}
		promo.UsageCount++
		clone := *promo
		return &clone, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakePromoStore) ReleaseUsage(_ context.Context, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, promo := range f.promos {
		if promo.Code == normalizeCode(code) && promo.UsageCount > 0 {
			promo.UsageCount--
		}
	}
	return nil
}

func newPromoService(t *testing.T, store Store, now func() time.Time) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Store: store, Now: now})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func fixedNow() time.Time {
	return time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
}

func validWindow() (time.Time, time.Time) {
	return fixedNow().Add(-24 * time.Hour), fixedNow().Add(24 * time.Hour)
}

func TestCreateValidations(t *testing.T) {
	svc := newPromoService(t, newFakePromoStore(), fixedNow)
	ctx := context.Background()
	from, to := validWindow()

	cases := []struct {
		name  string
		input CreatePromotionInput
	}{
		{"percentage above 100", CreatePromotionInput{Code: "SAVE", Type: "percentage", Value: 150, ValidFrom: from, ValidTo: to}},
		{"negative value", CreatePromotionInput{Code: "SAVE", Type: "fixed", Value: -5, ValidFrom: from, ValidTo: to}},
		{"inverted window", CreatePromotionInput{Code: "SAVE", Type: "fixed", Value: 100, ValidFrom: to, ValidTo: from}},
		{"unknown type", CreatePromotionInput{Code: "SAVE", Type: "bogus", Value: 10, ValidFrom: from, ValidTo: to}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.input)
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreateDuplicateCode(t *testing.T) {
	svc := newPromoService(t, newFakePromoStore(), fixedNow)
	ctx := context.Background()
	from, to := validWindow()

	input := CreatePromotionInput{Code: "save10", Type: "percentage", Value: 10, ValidFrom: from, ValidTo: to}
	created, err := svc.Create(ctx, input)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Code != "SAVE10" {
		t.Fatalf("expected normalized code, got %q", created.Code)
	}

	_, err = svc.Create(ctx, CreatePromotionInput{Code: "SAVE10", Type: "percentage", Value: 20, ValidFrom: from, ValidTo: to})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestApplyOutcomes(t *testing.T) {
	store := newFakePromoStore()
	svc := newPromoService(t, store, fixedNow)
	ctx := context.Background()
	from, to := validWindow()

	if _, err := svc.Create(ctx, CreatePromotionInput{Code: "ACTIVE", Type: "percentage", Value: 10, ValidFrom: from, ValidTo: to, UsageLimit: 1}); err != nil {
		t.Fatalf("create active: %v", err)
	}
	if _, err := svc.Create(ctx, CreatePromotionInput{Code: "EXPIRED", Type: "fixed", Value: 500, ValidFrom: from.Add(-72 * time.Hour), ValidTo: from.Add(-48 * time.Hour)}); err != nil {
		t.Fatalf("create expired: %v", err)
	}

	applied, err := svc.Apply(ctx, "active")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if applied.Code != "ACTIVE" || applied.Type != enums.DiscountTypePercentage || applied.Value != 10 {
		t.Fatalf("unexpected applied promotion %+v", applied)
	}

	// Limit of one is now exhausted.
	_, err = svc.Apply(ctx, "ACTIVE")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodePromoUsageLimit {
		t.Fatalf("expected usage limit error, got %v", err)
	}

	_, err = svc.Apply(ctx, "EXPIRED")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodePromoExpired {
		t.Fatalf("expected expired error, got %v", err)
	}

	_, err = svc.Apply(ctx, "MISSING")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestApplyExactlyOnceAtLimitBoundary(t *testing.T) {
	store := newFakePromoStore()
	svc := newPromoService(t, store, fixedNow)
	ctx := context.Background()
	from, to := validWindow()

	if _, err := svc.Create(ctx, CreatePromotionInput{Code: "LAST1", Type: "fixed", Value: 100, ValidFrom: from, ValidTo: to, UsageLimit: 1}); err != nil {
		t.Fatalf("create: %v", err)
	}

	const workers = 16
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Apply(ctx, "LAST1")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one successful apply, got %d", succeeded)
	}
}

func TestReleaseHandsBackOneUse(t *testing.T) {
	store := newFakePromoStore()
	svc := newPromoService(t, store, fixedNow)
	ctx := context.Background()
	from, to := validWindow()

	if _, err := svc.Create(ctx, CreatePromotionInput{Code: "ONCE", Type: "fixed", Value: 100, ValidFrom: from, ValidTo: to, UsageLimit: 1}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Apply(ctx, "ONCE"); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	// Limit reached; the code is exhausted until a release.
	if _, err := svc.Apply(ctx, "ONCE"); err == nil {
		t.Fatal("expected usage limit error")
	}
	if err := svc.Release(ctx, "once"); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, err := svc.Apply(ctx, "ONCE"); err != nil {
		t.Fatalf("Apply after release: %v", err)
	}
}

func TestDiscountCents(t *testing.T) {
	percentage := &Promotion{Type: enums.DiscountTypePercentage, Value: 25}
	if got := percentage.DiscountCents(10000); got != 2500 {
		t.Fatalf("expected 2500, got %d", got)
	}

	fixed := &Promotion{Type: enums.DiscountTypeFixed, Value: 700}
	if got := fixed.DiscountCents(10000); got != 700 {
		t.Fatalf("expected 700, got %d", got)
	}

	// Discount never pushes the total below zero.
	if got := fixed.DiscountCents(500); got != 500 {
		t.Fatalf("expected clamp to 500, got %d", got)
	}
}
