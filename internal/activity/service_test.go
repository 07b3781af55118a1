package activity

import (
	"context"
	"errors"
	"testing"

	"github.com/storefronthq/storefront-backend/pkg/enums"
	pkgerrors "github.com/storefronthq/storefront-backend/pkg/errors"
)

type fakeActivityStore struct {
	entries   []Entry
	insertErr error
}

func (f *fakeActivityStore) Insert(_ context.Context, entry *Entry) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeActivityStore) List(_ context.Context, query ListQuery) ([]Entry, error) {
	out := []Entry{}
	for _, entry := range f.entries {
		if query.UserID != "" && entry.UserID != query.UserID {
			continue
		}
		if query.Type != "" && entry.Type != query.Type {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

func TestRecordNeverFails(t *testing.T) {
	store := &fakeActivityStore{insertErr: errors.New("mongo down")}
	svc, err := NewService(ServiceParams{Store: store})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	// Must not panic or surface the store failure.
	svc.Record(context.Background(), "u-1", enums.ActivityLogin, "user logged in")
}

func TestRecordNormalizesUnknownType(t *testing.T) {
	store := &fakeActivityStore{}
	svc, err := NewService(ServiceParams{Store: store})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	svc.Record(context.Background(), "u-1", enums.ActivityType("bogus"), "something")

	if len(store.entries) != 1 || store.entries[0].Type != enums.ActivityOther {
		t.Fatalf("expected normalized entry, got %+v", store.entries)
	}
}

func TestListFilters(t *testing.T) {
	store := &fakeActivityStore{}
	svc, err := NewService(ServiceParams{Store: store})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	ctx := context.Background()

	svc.Record(ctx, "u-1", enums.ActivityLogin, "login")
	svc.Record(ctx, "u-2", enums.ActivityPurchase, "purchase")

	entries, err := svc.List(ctx, ListQuery{UserID: "u-2"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || entries[0].Type != enums.ActivityPurchase {
		t.Fatalf("unexpected entries %+v", entries)
	}

	if _, err := svc.List(ctx, ListQuery{Type: enums.ActivityType("bogus")}); pkgerrors.As(err) == nil {
		t.Fatalf("expected validation error, got %v", err)
	}
}
