package products

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/storefronthq/storefront-backend/pkg/db"
	pkgerrors "github.com/storefronthq/storefront-backend/pkg/errors"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

var allowedImageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
}

// ServiceParams groups dependencies for the catalog service.
type ServiceParams struct {
	Store Store
	Media MediaStore
}

// Service exposes business rules for catalog management.
type Service interface {
	Create(ctx context.Context, input CreateProductInput) (*Product, error)
	Get(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context, page, limit int) ([]Product, error)
	Search(ctx context.Context, query SearchQuery) ([]Product, error)
	Update(ctx context.Context, id string, input UpdateProductInput) (*Product, error)
	Delete(ctx context.Context, id string) error
	UploadImage(ctx context.Context, id, filename string, file io.Reader) (string, error)
}

type service struct {
	store Store
	media MediaStore
}

// NewService builds a catalog service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("product store is required")
	}
	return &service{store: params.Store, media: params.Media}, nil
}

func (s *service) Create(ctx context.Context, input CreateProductInput) (*Product, error) {
	product := &Product{
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		Category:    strings.TrimSpace(input.Category),
		PriceCents:  input.PriceCents,
		Stock:       input.Stock,
		Sizes:       input.Sizes,
		Colors:      input.Colors,
	}
	if product.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if product.PriceCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	if product.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must not be negative")
	}

	if err := s.store.Insert(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert product")
	}
	return product, nil
}

func (s *service) Get(ctx context.Context, id string) (*Product, error) {
	product, err := s.store.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) List(ctx context.Context, page, limit int) ([]Product, error) {
	page, limit = normalizePaging(page, limit)
	items, err := s.store.List(ctx, page, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return items, nil
}

func (s *service) Search(ctx context.Context, query SearchQuery) ([]Product, error) {
	if query.MinPriceCents < 0 || query.MaxPriceCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price bounds must not be negative")
	}
	if query.MinPriceCents > 0 && query.MaxPriceCents > 0 && query.MinPriceCents > query.MaxPriceCents {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "min price exceeds max price")
	}
	query.Page, query.Limit = normalizePaging(query.Page, query.Limit)
	query.Name = strings.TrimSpace(query.Name)

	items, err := s.store.Search(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search products")
	}
	return items, nil
}

func (s *service) Update(ctx context.Context, id string, input UpdateProductInput) (*Product, error) {
	set := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name must not be empty")
		}
		set["name"] = name
	}
	if input.Description != nil {
		set["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Category != nil {
		category := strings.TrimSpace(*input.Category)
		if category == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "category must not be empty")
		}
		set["category"] = category
	}
	if input.PriceCents != nil {
		if *input.PriceCents < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
		}
		set["price_cents"] = *input.PriceCents
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must not be negative")
		}
		set["stock"] = *input.Stock
	}
	if input.Sizes != nil {
		set["sizes"] = *input.Sizes
	}
	if input.Colors != nil {
		set["colors"] = *input.Colors
	}
	if len(set) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	product, err := s.store.Update(ctx, id, set)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return product, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}

func (s *service) UploadImage(ctx context.Context, id, filename string, file io.Reader) (string, error) {
	if s.media == nil {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "media storage is not configured")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedImageExtensions[ext]; !ok {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "unsupported image type").
			WithDetails(map[string]any{"extension": ext})
	}

	// Confirm the product exists before persisting bytes.
	if _, err := s.Get(ctx, id); err != nil {
		return "", err
	}

	url, err := s.media.Save(ctx, filename, file)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store image")
	}

	if err := s.store.AppendImageURL(ctx, id, url); err != nil {
		if db.IsNotFound(err) {
			return "", pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach image")
	}
	return url, nil
}

func normalizePaging(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}
