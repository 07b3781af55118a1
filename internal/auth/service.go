package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/storefronthq/storefront-backend/internal/activity"
	"github.com/storefronthq/storefront-backend/internal/users"
	pkgAuth "github.com/storefronthq/storefront-backend/pkg/auth"
	"github.com/storefronthq/storefront-backend/pkg/config"
	"github.com/storefronthq/storefront-backend/pkg/db"
	"github.com/storefronthq/storefront-backend/pkg/enums"
	pkgerrors "github.com/storefronthq/storefront-backend/pkg/errors"
	"github.com/storefronthq/storefront-backend/pkg/security"
)

const minPasswordLength = 8

// SignupInput carries the self-service registration payload.
type SignupInput struct {
	Name     string `json:"name" validate:"required,min=1,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Phone    string `json:"phone" validate:"max=30"`
}

// LoginInput carries credentials for user and admin login.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserAuthResult is a minted token plus the account it belongs to.
type UserAuthResult struct {
	Token string      `json:"token"`
	User  *users.User `json:"user"`
}

// AdminAuthResult is the staff-side login result.
type AdminAuthResult struct {
	Token string       `json:"token"`
	Admin *users.Admin `json:"admin"`
}

// ServiceParams groups dependencies for the auth service.
type ServiceParams struct {
	Users    users.Store
	Admins   users.AdminStore
	JWT      config.JWTConfig
	Activity activity.Recorder
}

// Service mints credentials and resolves principals for the middleware.
type Service interface {
	Signup(ctx context.Context, input SignupInput) (*UserAuthResult, error)
	Login(ctx context.Context, input LoginInput) (*UserAuthResult, error)
	AdminLogin(ctx context.Context, input LoginInput) (*AdminAuthResult, error)
	Logout(ctx context.Context, principalID string)
	ResolvePrincipal(ctx context.Context, principalID string, role enums.Role) (enums.PermissionSet, error)
}

type service struct {
	users    users.Store
	admins   users.AdminStore
	jwt      config.JWTConfig
	activity activity.Recorder
}

// NewService builds the auth service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Users == nil {
		return nil, fmt.Errorf("user store is required")
	}
	if params.Admins == nil {
		return nil, fmt.Errorf("admin store is required")
	}
	if params.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	return &service{
		users:    params.Users,
		admins:   params.Admins,
		jwt:      params.JWT,
		activity: params.Activity,
	}, nil
}

func (s *service) Signup(ctx context.Context, input SignupInput) (*UserAuthResult, error) {
	if len(input.Password) < minPasswordLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	hash, err := security.HashPassword(input.Password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &users.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
		Phone:        input.Phone,
		Role:         enums.RoleUser,
	}
	if err := s.users.Insert(ctx, user); err != nil {
		if db.IsDup(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}

	token, err := s.mint(user.ID.Hex(), user.Role)
	if err != nil {
		return nil, err
	}

	if s.activity != nil {
		s.activity.Record(ctx, user.ID.Hex(), enums.ActivitySignup, "account created")
	}
	return &UserAuthResult{Token: token, User: user}, nil
}

func (s *service) Login(ctx context.Context, input LoginInput) (*UserAuthResult, error) {
	user, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, invalidCredentials()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, invalidCredentials()
	}

	token, err := s.mint(user.ID.Hex(), user.Role)
	if err != nil {
		return nil, err
	}

	if s.activity != nil {
		s.activity.Record(ctx, user.ID.Hex(), enums.ActivityLogin, "user logged in")
	}
	return &UserAuthResult{Token: token, User: user}, nil
}

func (s *service) AdminLogin(ctx context.Context, input LoginInput) (*AdminAuthResult, error) {
	admin, err := s.admins.FindByEmail(ctx, input.Email)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, invalidCredentials()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load admin")
	}

	ok, err := security.VerifyPassword(input.Password, admin.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, invalidCredentials()
	}

	role := admin.Role
	if !role.IsAdmin() {
		role = enums.RoleAdmin
	}
	token, err := s.mint(admin.ID.Hex(), role)
	if err != nil {
		return nil, err
	}

	if s.activity != nil {
		s.activity.Record(ctx, admin.ID.Hex(), enums.ActivityLogin, "admin logged in")
	}
	return &AdminAuthResult{Token: token, Admin: admin}, nil
}

// Logout records the event. Access tokens are stateless and simply expire;
// the client drops its copy.
func (s *service) Logout(ctx context.Context, principalID string) {
	if s.activity != nil {
		s.activity.Record(ctx, principalID, enums.ActivityLogout, "logged out")
	}
}

// ResolvePrincipal re-confirms the account on every authenticated request.
// A token for a deleted account is rejected here, not at parse time.
func (s *service) ResolvePrincipal(ctx context.Context, principalID string, role enums.Role) (enums.PermissionSet, error) {
	if role.IsAdmin() {
		admin, err := s.admins.FindByID(ctx, principalID)
		if err != nil {
			if db.IsNotFound(err) {
				return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "account no longer exists")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load admin")
		}
		return admin.PermissionSet(), nil
	}

	user, err := s.users.FindByID(ctx, principalID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "account no longer exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return enums.NewPermissionSet(user.Permissions...), nil
}

func (s *service) mint(principalID string, role enums.Role) (string, error) {
	token, err := pkgAuth.MintAccessToken(s.jwt, time.Now(), pkgAuth.AccessTokenPayload{
		PrincipalID: principalID,
		Role:        role,
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint token")
	}
	return token, nil
}

func invalidCredentials() error {
	// One message for unknown email and wrong password, so a caller cannot
	// probe which accounts exist.
	return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
}
