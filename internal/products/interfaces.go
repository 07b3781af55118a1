package products

import (
	"context"
	"io"
)

// Store is the persistence surface the catalog service depends on. The
// stock mutation methods are atomic single-document conditional writes;
// they are also exercised by the order engine.
type Store interface {
	Insert(ctx context.Context, product *Product) error
	FindByID(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context, page, limit int) ([]Product, error)
	Search(ctx context.Context, query SearchQuery) ([]Product, error)
	Update(ctx context.Context, id string, set map[string]any) (*Product, error)
	Delete(ctx context.Context, id string) error
	AppendImageURL(ctx context.Context, id, url string) error

	// DecrementStock succeeds only when the product holds at least qty
	// units. It reports found=false for an unknown id and ok=false when
	// stock was insufficient.
	DecrementStock(ctx context.Context, id string, qty int64) (found, ok bool, err error)
	// IncrementStock adds qty back, used by order cancellation and
	// mid-order compensation.
	IncrementStock(ctx context.Context, id string, qty int64) error

	SetRating(ctx context.Context, id string, rating Rating) error
}

// MediaStore persists uploaded product images and returns a servable path.
type MediaStore interface {
	Save(ctx context.Context, originalName string, r io.Reader) (string, error)
}
