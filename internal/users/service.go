package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/storefronthq/storefront-backend/internal/activity"
	"github.com/storefronthq/storefront-backend/pkg/db"
	"github.com/storefronthq/storefront-backend/pkg/enums"
	pkgerrors "github.com/storefronthq/storefront-backend/pkg/errors"
	"github.com/storefronthq/storefront-backend/pkg/security"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100

	minPasswordLength = 8
)

// ServiceParams groups dependencies for the user service. Activity is
// optional; when nil, no activity entries are recorded.
type ServiceParams struct {
	Store    Store
	Products ProductSource
	Activity activity.Recorder
}

// Service exposes account self-service, embedded cart/wishlist management,
// and the staff-side user administration operations.
type Service interface {
	GetProfile(ctx context.Context, userID string) (*User, error)
	UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*User, error)
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	ChangeEmail(ctx context.Context, userID, password, newEmail string) error
	ChangePhone(ctx context.Context, userID, phone string) error

	AddAddress(ctx context.Context, userID string, input AddressInput) (*Address, error)
	UpdateAddress(ctx context.Context, userID, addressID string, input AddressInput) (*Address, error)
	RemoveAddress(ctx context.Context, userID, addressID string) error

	GetCart(ctx context.Context, userID string) (*CartView, error)
	AddCartItem(ctx context.Context, userID, productID string, quantity int64) error
	UpdateCartItem(ctx context.Context, userID, productID string, quantity int64) error
	RemoveCartItem(ctx context.Context, userID, productID string) error
	ClearCart(ctx context.Context, userID string) error

	GetWishlist(ctx context.Context, userID string) ([]string, error)
	AddWishlistItem(ctx context.Context, userID, productID string) error
	RemoveWishlistItem(ctx context.Context, userID, productID string) error

	ListUsers(ctx context.Context, page, limit int) ([]User, error)
	GetUser(ctx context.Context, id string) (*User, error)
	AdminUpdateUser(ctx context.Context, id string, input AdminUpdateUserInput) (*User, error)
	SetPermissions(ctx context.Context, id string, permissions []enums.Permission) (*User, error)
	DeleteUser(ctx context.Context, id string) error
}

type service struct {
	store    Store
	products ProductSource
	activity activity.Recorder
}

func (s *service) record(ctx context.Context, userID string, activityType enums.ActivityType, description string) {
	if s.activity == nil {
		return
	}
	s.activity.Record(ctx, userID, activityType, description)
}

// NewService builds the user service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("user store is required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product source is required")
	}
	return &service{store: params.Store, products: params.Products, activity: params.Activity}, nil
}

func (s *service) GetProfile(ctx context.Context, userID string) (*User, error) {
	return s.loadUser(ctx, userID)
}

func (s *service) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*User, error) {
	set := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be empty")
		}
		set["name"] = name
	}
	if input.Phone != nil {
		set["phone"] = strings.TrimSpace(*input.Phone)
	}
	if len(set) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	if err := s.updateUserFields(ctx, userID, set); err != nil {
		return nil, err
	}
	s.record(ctx, userID, enums.ActivityUpdateProfile, "updated profile")
	return s.loadUser(ctx, userID)
}

func (s *service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := security.VerifyPassword(currentPassword, user.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "current password is incorrect")
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.updateUserFields(ctx, userID, map[string]any{"password_hash": hash}); err != nil {
		return err
	}
	s.record(ctx, userID, enums.ActivityChangePassword, "changed password")
	return nil
}

func (s *service) ChangeEmail(ctx context.Context, userID, password, newEmail string) error {
	email := normalizeEmail(newEmail)
	if email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "password is incorrect")
	}

	if err := s.store.UpdateFields(ctx, userID, map[string]any{"email": email}); err != nil {
		if db.IsDup(err) {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "email already in use")
		}
		if db.IsNotFound(err) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update email")
	}
	return nil
}

func (s *service) ChangePhone(ctx context.Context, userID, phone string) error {
	return s.updateUserFields(ctx, userID, map[string]any{"phone": strings.TrimSpace(phone)})
}

func (s *service) AddAddress(ctx context.Context, userID string, input AddressInput) (*Address, error) {
	address := addressFromInput(uuid.NewString(), input)

	if err := s.store.AddAddress(ctx, userID, address); err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add address")
	}
	return &address, nil
}

func (s *service) UpdateAddress(ctx context.Context, userID, addressID string, input AddressInput) (*Address, error) {
	if addressID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address id is required")
	}
	address := addressFromInput(addressID, input)

	if err := s.store.UpdateAddress(ctx, userID, address); err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update address")
	}
	return &address, nil
}

func (s *service) RemoveAddress(ctx context.Context, userID, addressID string) error {
	if addressID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "address id is required")
	}
	if err := s.store.RemoveAddress(ctx, userID, addressID); err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "address not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove address")
	}
	return nil
}

func (s *service) ListUsers(ctx context.Context, page, limit int) ([]User, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	items, err := s.store.List(ctx, page, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	return items, nil
}

func (s *service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.loadUser(ctx, id)
}

func (s *service) AdminUpdateUser(ctx context.Context, id string, input AdminUpdateUserInput) (*User, error) {
	set := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be empty")
		}
		set["name"] = name
	}
	if input.Phone != nil {
		set["phone"] = strings.TrimSpace(*input.Phone)
	}
	if input.Role != nil {
		if !input.Role.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
		}
		set["role"] = *input.Role
	}
	if len(set) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	if err := s.updateUserFields(ctx, id, set); err != nil {
		return nil, err
	}
	return s.loadUser(ctx, id)
}

func (s *service) SetPermissions(ctx context.Context, id string, permissions []enums.Permission) (*User, error) {
	for _, p := range permissions {
		if !p.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid permission").
				WithDetails(map[string]any{"permission": string(p)})
		}
	}

	if err := s.updateUserFields(ctx, id, map[string]any{"permissions": permissions}); err != nil {
		return nil, err
	}
	return s.loadUser(ctx, id)
}

func (s *service) DeleteUser(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete user")
	}
	return nil
}

func (s *service) loadUser(ctx context.Context, userID string) (*User, error) {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

func (s *service) updateUserFields(ctx context.Context, userID string, set map[string]any) error {
	if err := s.store.UpdateFields(ctx, userID, set); err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user")
	}
	return nil
}

func (s *service) ensureProduct(ctx context.Context, productID string) error {
	if strings.TrimSpace(productID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return nil
}

func addressFromInput(id string, input AddressInput) Address {
	return Address{
		ID:         id,
		Label:      strings.TrimSpace(input.Label),
		Line1:      strings.TrimSpace(input.Line1),
		Line2:      strings.TrimSpace(input.Line2),
		City:       strings.TrimSpace(input.City),
		State:      strings.TrimSpace(input.State),
		PostalCode: strings.TrimSpace(input.PostalCode),
		Country:    strings.TrimSpace(input.Country),
		Phone:      strings.TrimSpace(input.Phone),
	}
}
