package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Content.ArticlesPerPage != 10 {
		t.Errorf("Expected 10 articles per page, got %d", cfg.Content.ArticlesPerPage)
	}
	if cfg.Content.AdminPerPage != 20 {
		t.Errorf("Expected 20 admin rows per page, got %d", cfg.Content.AdminPerPage)
	}
	if cfg.Content.WordsPerMinute != 238 {
		t.Errorf("Expected 238 words per minute, got %d", cfg.Content.WordsPerMinute)
	}
	if cfg.Security.MaxLoginAttempts != 5 {
		t.Errorf("Expected 5 login attempts, got %d", cfg.Security.MaxLoginAttempts)
	}
	if cfg.Security.LockoutDuration != 15*time.Minute {
		t.Errorf("Expected 15m lockout, got %s", cfg.Security.LockoutDuration)
	}
	if cfg.Media.MaxUploadBytes != 5*1024*1024 {
		t.Errorf("Expected 5MB upload limit, got %d", cfg.Media.MaxUploadBytes)
	}
	if len(cfg.Media.AllowedTypes) != 3 {
		t.Errorf("Expected 3 allowed image types, got %v", cfg.Media.AllowedTypes)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ARTICLES_PER_PAGE", "25")
	t.Setenv("LOCKOUT_DURATION", "30m")
	t.Setenv("APP_URL", "https://example.com/")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Content.ArticlesPerPage != 25 {
		t.Errorf("Expected 25 articles per page, got %d", cfg.Content.ArticlesPerPage)
	}
	if cfg.Security.LockoutDuration != 30*time.Minute {
		t.Errorf("Expected 30m lockout, got %s", cfg.Security.LockoutDuration)
	}
	if cfg.AppURL != "https://example.com" {
		t.Errorf("Expected trailing slash trimmed, got %s", cfg.AppURL)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[1] != "https://b.example" {
		t.Errorf("Unexpected CORS origins: %v", cfg.Security.CORSOrigins)
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{Host: "localhost", Name: "cms"},
		Content:  ContentConfig{ArticlesPerPage: 10, AdminPerPage: 20, WordsPerMinute: 238},
		Security: SecurityConfig{MaxLoginAttempts: 5},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Expected valid config, got %v", err)
	}

	cfg.Database.Host = ""
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for missing DB_HOST")
	}
}

func TestGetDSN(t *testing.T) {
	db := DatabaseConfig{Host: "h", Port: "5432", User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	want := "host=h port=5432 user=u password=p dbname=n sslmode=disable"
	if got := db.GetDSN(); got != want {
		t.Errorf("GetDSN() = %q, want %q", got, want)
	}
}
