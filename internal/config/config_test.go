package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"APP_ENV", "HTTP_ADDR", "JWT_EXPIRY", "MAX_FILE_SIZE",
		"RESTAURANT_TIMEZONE", "UPLOAD_DIR", "CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Env != "development" {
		t.Fatalf("Env = %q, want development", cfg.Env)
	}
	if cfg.HTTPAddr != ":3000" {
		t.Fatalf("HTTPAddr = %q, want :3000", cfg.HTTPAddr)
	}
	if cfg.JWTExpirySeconds != 28800 {
		t.Fatalf("JWTExpirySeconds = %d, want 28800", cfg.JWTExpirySeconds)
	}
	if cfg.MaxFileSizeBytes != 5*1024*1024 {
		t.Fatalf("MaxFileSizeBytes = %d, want 5MB", cfg.MaxFileSizeBytes)
	}
	if cfg.RestaurantTimezone != "Asia/Bangkok" {
		t.Fatalf("RestaurantTimezone = %q, want Asia/Bangkok", cfg.RestaurantTimezone)
	}
	if len(cfg.CorsAllowedOrigins) != 0 {
		t.Fatalf("CorsAllowedOrigins = %v, want empty", cfg.CorsAllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("HTTP_ADDR", ":8080")
	t.Setenv("JWT_EXPIRY", "3600")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com ,")

	cfg := Load()

	if cfg.Env != "production" {
		t.Fatalf("Env = %q, want production", cfg.Env)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.JWTExpirySeconds != 3600 {
		t.Fatalf("JWTExpirySeconds = %d, want 3600", cfg.JWTExpirySeconds)
	}
	want := []string{"https://a.example.com", "https://b.example.com"}
	if len(cfg.CorsAllowedOrigins) != len(want) {
		t.Fatalf("CorsAllowedOrigins = %v, want %v", cfg.CorsAllowedOrigins, want)
	}
	for i := range want {
		if cfg.CorsAllowedOrigins[i] != want[i] {
			t.Fatalf("CorsAllowedOrigins[%d] = %q, want %q", i, cfg.CorsAllowedOrigins[i], want[i])
		}
	}
}

func TestLoadClampsBadNumbers(t *testing.T) {
	t.Setenv("JWT_EXPIRY", "-1")
	t.Setenv("MAX_FILE_SIZE", "not-a-number")

	cfg := Load()

	if cfg.JWTExpirySeconds != 28800 {
		t.Fatalf("JWTExpirySeconds = %d, want fallback 28800", cfg.JWTExpirySeconds)
	}
	if cfg.MaxFileSizeBytes != 5*1024*1024 {
		t.Fatalf("MaxFileSizeBytes = %d, want fallback 5MB", cfg.MaxFileSizeBytes)
	}
}
