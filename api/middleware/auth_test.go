package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pkgAuth "github.com/storefronthq/storefront-backend/pkg/auth"
	"github.com/storefronthq/storefront-backend/pkg/config"
	"github.com/storefronthq/storefront-backend/pkg/enums"
	pkgerrors "github.com/storefronthq/storefront-backend/pkg/errors"
	"github.com/storefronthq/storefront-backend/pkg/types"
)

type fakeResolver struct {
	perms enums.PermissionSet
	err   error
	calls int
}

func (f *fakeResolver) ResolvePrincipal(_ context.Context, _ string, _ enums.Role) (enums.PermissionSet, error) {
	f.calls++
	return f.perms, f.err
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret-which-is-long-enough", Issuer: "storefront", ExpirationMinutes: 60}
}

func mintToken(t *testing.T, role enums.Role) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(testJWTConfig(), time.Now(), pkgAuth.AccessTokenPayload{
		PrincipalID: "p-1",
		Role:        role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestAuthRejectsMissingHeader(t *testing.T) {
	handler := Auth(testJWTConfig(), &fakeResolver{}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 but got %d", w.Code)
	}
}

func TestAuthRejectsGarbageToken(t *testing.T) {
	handler := Auth(testJWTConfig(), &fakeResolver{}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	}))

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer not-a-jwt")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 but got %d", w.Code)
	}
}

func TestAuthSeedsPrincipalContext(t *testing.T) {
	resolver := &fakeResolver{perms: enums.NewPermissionSet(enums.PermissionManageOrders)}
	var gotID string
	var gotRole enums.Role
	var gotPerms enums.PermissionSet
	handler := Auth(testJWTConfig(), resolver, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = PrincipalIDFromContext(r.Context())
		gotRole = RoleFromContext(r.Context())
		gotPerms = PermissionsFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer "+mintToken(t, enums.RoleAdmin))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 but got %d", w.Code)
	}
	if gotID != "p-1" || gotRole != enums.RoleAdmin {
		t.Fatalf("unexpected principal %q role %q", gotID, gotRole)
	}
	if !gotPerms.HasAll(enums.PermissionManageOrders) {
		t.Fatalf("expected resolved permissions in context")
	}
	if resolver.calls != 1 {
		t.Fatalf("expected one account check, got %d", resolver.calls)
	}
}

func TestAuthRejectsDeletedAccount(t *testing.T) {
	resolver := &fakeResolver{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "account no longer exists")}
	handler := Auth(testJWTConfig(), resolver, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	}))

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer "+mintToken(t, enums.RoleUser))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 but got %d", w.Code)
	}

	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if body.Error.Code != string(pkgerrors.CodeUnauthorized) {
		t.Fatalf("unexpected code %s", body.Error.Code)
	}
}
