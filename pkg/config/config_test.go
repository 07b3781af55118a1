package config

import (
	"os"
	"testing"
	"time"
)

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv("STOREFRONT_APP_ENV", "production")
	t.Setenv("STOREFRONT_MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("STOREFRONT_JWT_SECRET", "secret")
}

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv("STOREFRONT_MONGO_DATABASE", "shopdb")
	t.Setenv("STOREFRONT_SMTP_HOST", "smtp.example.com")
	t.Setenv("STOREFRONT_SMTP_FROM", "orders@example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "production" {
		t.Fatalf("expected App.Env to be production, got %q", cfg.App.Env)
	}
	if !cfg.App.IsProd() {
		t.Fatal("expected IsProd for production env")
	}
	if cfg.Mongo.Database != "shopdb" {
		t.Fatalf("unexpected mongo database %q", cfg.Mongo.Database)
	}
	if cfg.Mongo.ConnectTimeout != 10*time.Second {
		t.Fatalf("unexpected connect timeout %v", cfg.Mongo.ConnectTimeout)
	}
	if cfg.JWT.ExpirationMinutes != 60 {
		t.Fatalf("expected default token expiry of 60 minutes, got %d", cfg.JWT.ExpirationMinutes)
	}
	if !cfg.SMTP.Enabled() {
		t.Fatal("expected SMTP to be enabled with host and from set")
	}
	if cfg.Redis.Enabled() {
		t.Fatal("expected Redis to be disabled without an endpoint")
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv("STOREFRONT_MONGO_URI"); err != nil {
		t.Fatalf("failed to unset mongo uri: %v", err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestAppConfigEnvHelpers(t *testing.T) {
	devConfig := AppConfig{Env: "DEV"}
	if !devConfig.IsDev() {
		t.Fatalf("expected IsDev true for %q", devConfig.Env)
	}
	if devConfig.IsProd() {
		t.Fatalf("expected IsProd false for %q", devConfig.Env)
	}
}
