package promotions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/storefronthq/storefront-backend/pkg/db"
	"github.com/storefronthq/storefront-backend/pkg/enums"
	pkgerrors "github.com/storefronthq/storefront-backend/pkg/errors"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Store is the persistence surface for promotion codes.
type Store interface {
	Insert(ctx context.Context, promo *Promotion) error
	FindByID(ctx context.Context, id string) (*Promotion, error)
	FindByCode(ctx context.Context, code string) (*Promotion, error)
	List(ctx context.Context, page, limit int) ([]Promotion, error)
	Update(ctx context.Context, id string, set map[string]any) (*Promotion, error)
	Delete(ctx context.Context, id string) error
	ApplyAtomically(ctx context.Context, code string, now time.Time) (*Promotion, error)
	ReleaseUsage(ctx context.Context, code string) error
}

// ServiceParams groups dependencies for the promotion service.
type ServiceParams struct {
	Store Store
	Now   func() time.Time
}

// Service exposes admin CRUD plus the apply operation used at checkout.
type Service interface {
	Create(ctx context.Context, input CreatePromotionInput) (*Promotion, error)
	Get(ctx context.Context, id string) (*Promotion, error)
	List(ctx context.Context, page, limit int) ([]Promotion, error)
	Update(ctx context.Context, id string, input UpdatePromotionInput) (*Promotion, error)
	Delete(ctx context.Context, id string) error
	Apply(ctx context.Context, code string) (*AppliedPromotion, error)
	Release(ctx context.Context, code string) error
}

type service struct {
	store Store
	now   func() time.Time
}

// NewService builds a promotion service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("promotion store is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{store: params.Store, now: now}, nil
}

func (s *service) Create(ctx context.Context, input CreatePromotionInput) (*Promotion, error) {
	discountType, err := enums.ParseDiscountType(input.Type)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount type")
	}
	if err := validateDiscount(discountType, input.Value); err != nil {
		return nil, err
	}
	if input.ValidTo.Before(input.ValidFrom) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "valid_to must not precede valid_from")
	}

	promo := &Promotion{
		Code:        input.Code,
		Description: strings.TrimSpace(input.Description),
		Type:        discountType,
		Value:       input.Value,
		ValidFrom:   input.ValidFrom.UTC(),
		ValidTo:     input.ValidTo.UTC(),
		UsageLimit:  input.UsageLimit,
	}
	if err := s.store.Insert(ctx, promo); err != nil {
		if db.IsDup(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "promotion code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert promotion")
	}
	return promo, nil
}

func (s *service) Get(ctx context.Context, id string) (*Promotion, error) {
	promo, err := s.store.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "promotion not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load promotion")
	}
	return promo, nil
}

func (s *service) List(ctx context.Context, page, limit int) ([]Promotion, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	promos, err := s.store.List(ctx, page, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list promotions")
	}
	return promos, nil
}

func (s *service) Update(ctx context.Context, id string, input UpdatePromotionInput) (*Promotion, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	set := map[string]any{}
	if input.Description != nil {
		set["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Value != nil {
		if err := validateDiscount(current.Type, *input.Value); err != nil {
			return nil, err
		}
		set["value"] = *input.Value
	}
	validFrom, validTo := current.ValidFrom, current.ValidTo
	if input.ValidFrom != nil {
		validFrom = input.ValidFrom.UTC()
		set["valid_from"] = validFrom
	}
	if input.ValidTo != nil {
		validTo = input.ValidTo.UTC()
		set["valid_to"] = validTo
	}
	if validTo.Before(validFrom) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "valid_to must not precede valid_from")
	}
	if input.UsageLimit != nil {
		if *input.UsageLimit < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "usage limit must not be negative")
		}
		set["usage_limit"] = *input.UsageLimit
	}
	if len(set) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	promo, err := s.store.Update(ctx, id, set)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "promotion not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update promotion")
	}
	return promo, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "promotion not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete promotion")
	}
	return nil
}

// Apply consumes one use of the code. The conditional write either
// succeeds atomically or matches nothing; only then is the code reloaded to
// name the precise rejection.
func (s *service) Apply(ctx context.Context, code string) (*AppliedPromotion, error) {
	if strings.TrimSpace(code) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promotion code is required")
	}

	now := s.now().UTC()
	promo, err := s.store.ApplyAtomically(ctx, code, now)
	if err == nil {
		return &AppliedPromotion{Code: promo.Code, Type: promo.Type, Value: promo.Value}, nil
	}
	if !db.IsNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply promotion")
	}

	existing, lookupErr := s.store.FindByCode(ctx, code)
	if lookupErr != nil {
		if db.IsNotFound(lookupErr) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, lookupErr, "promotion not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, lookupErr, "load promotion")
	}
	if now.Before(existing.ValidFrom) || now.After(existing.ValidTo) {
		return nil, pkgerrors.New(pkgerrors.CodePromoExpired, "promotion code is not valid at this time")
	}
	return nil, pkgerrors.New(pkgerrors.CodePromoUsageLimit, "promotion code usage limit reached")
}

// Release hands back one consumed use of the code. Checkout calls this
// when an order fails after Apply already succeeded.
func (s *service) Release(ctx context.Context, code string) error {
	if strings.TrimSpace(code) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "promotion code is required")
	}
	if err := s.store.ReleaseUsage(ctx, code); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release promotion usage")
	}
	return nil
}

func validateDiscount(discountType enums.DiscountType, value int64) error {
	if value < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount value must not be negative")
	}
	if discountType == enums.DiscountTypePercentage && value > 100 {
		return pkgerrors.New(pkgerrors.CodeValidation, "percentage discount must not exceed 100")
	}
	return nil
}
