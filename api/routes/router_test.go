package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/storefronthq/storefront-backend/internal/activity"
	authsvc "github.com/storefronthq/storefront-backend/internal/auth"
	"github.com/storefronthq/storefront-backend/internal/orders"
	"github.com/storefronthq/storefront-backend/internal/products"
	"github.com/storefronthq/storefront-backend/internal/promotions"
	"github.com/storefronthq/storefront-backend/internal/reviews"
	"github.com/storefronthq/storefront-backend/internal/users"
	pkgauth "github.com/storefronthq/storefront-backend/pkg/auth"
	"github.com/storefronthq/storefront-backend/pkg/config"
	"github.com/storefronthq/storefront-backend/pkg/enums"
	"github.com/storefronthq/storefront-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubAuthService struct {
	role  enums.Role
	perms []enums.Permission
}

func (s stubAuthService) Signup(context.Context, authsvc.SignupInput) (*authsvc.UserAuthResult, error) {
	return &authsvc.UserAuthResult{Token: "t", User: &users.User{}}, nil
}

func (s stubAuthService) Login(context.Context, authsvc.LoginInput) (*authsvc.UserAuthResult, error) {
	return &authsvc.UserAuthResult{Token: "t", User: &users.User{}}, nil
}

func (s stubAuthService) AdminLogin(context.Context, authsvc.LoginInput) (*authsvc.AdminAuthResult, error) {
	return &authsvc.AdminAuthResult{Token: "t", Admin: &users.Admin{}}, nil
}

func (s stubAuthService) Logout(context.Context, string) {}

func (s stubAuthService) ResolvePrincipal(context.Context, string, enums.Role) (enums.PermissionSet, error) {
	return enums.NewPermissionSet(s.perms...), nil
}

type stubUserService struct {
	users.Service
}

func (stubUserService) GetProfile(context.Context, string) (*users.User, error) {
	return &users.User{Name: "Stub"}, nil
}

func (stubUserService) ListUsers(context.Context, int, int) ([]users.User, error) {
	return []users.User{}, nil
}

func (stubUserService) ChangeEmail(context.Context, string, string, string) error {
	return nil
}

func (stubUserService) ChangePhone(context.Context, string, string) error {
	return nil
}

type stubProductService struct {
	products.Service
}

func (stubProductService) List(context.Context, int, int) ([]products.Product, error) {
	return []products.Product{}, nil
}

type stubReviewService struct {
	reviews.Service
}

type stubOrderService struct {
	orders.Service
}

type stubPromotionService struct {
	promotions.Service
}

type stubActivityService struct {
	activity.Service
}

func (stubActivityService) List(context.Context, activity.ListQuery) ([]activity.Entry, error) {
	return []activity.Entry{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{
			Secret:            "test-secret-which-is-long-enough",
			Issuer:            "storefront-test",
			ExpirationMinutes: 10,
		},
	}
}

func newTestRouter(t *testing.T, auth stubAuthService) http.Handler {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "routes-test", Output: io.Discard})
	return NewRouter(
		testConfig(),
		logg,
		stubPinger{},
		nil,
		nil,
		nil,
		Services{
			Auth:       auth,
			Users:      stubUserService{},
			Products:   stubProductService{},
			Reviews:    stubReviewService{},
			Orders:     stubOrderService{},
			Promotions: stubPromotionService{},
			Activity:   stubActivityService{},
		},
		"",
	)
}

func mintToken(t *testing.T, role enums.Role) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(testConfig().JWT, time.Now(), pkgauth.AccessTokenPayload{
		PrincipalID: "p-1",
		Role:        role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(t, stubAuthService{role: enums.RoleUser})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestProductListIsPublic(t *testing.T) {
	router := newTestRouter(t, stubAuthService{role: enums.RoleUser})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestProtectedGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(t, stubAuthService{role: enums.RoleUser})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users/profile", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestProtectedGroupAcceptsValidJWT(t *testing.T) {
	router := newTestRouter(t, stubAuthService{role: enums.RoleUser})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/profile", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.RoleUser))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
}

func TestUserContactRoutesAreWired(t *testing.T) {
	router := newTestRouter(t, stubAuthService{role: enums.RoleUser})
	token := mintToken(t, enums.RoleUser)

	cases := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodPut, "/api/v1/users/email", `{"password":"hunter22","email":"new@example.com"}`},
		{http.MethodPut, "/api/v1/users/phone", `{"phone":"+15550100"}`},
		{http.MethodGet, "/api/v1/users/activities", ""},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			var body io.Reader
			if tc.body != "" {
				body = strings.NewReader(tc.body)
			}
			req := httptest.NewRequest(tc.method, tc.path, body)
			req.Header.Set("Authorization", "Bearer "+token)
			if tc.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestAdminGroupRejectsUserRole(t *testing.T) {
	router := newTestRouter(t, stubAuthService{role: enums.RoleUser})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/users", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.RoleUser))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestAdminGroupRejectsAdminWithoutPermission(t *testing.T) {
	router := newTestRouter(t, stubAuthService{role: enums.RoleAdmin})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/users", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.RoleAdmin))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestSuperadminPassesPermissionGates(t *testing.T) {
	router := newTestRouter(t, stubAuthService{role: enums.RoleSuperadmin})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/users", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.RoleSuperadmin))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
}
