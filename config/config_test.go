package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Run from an empty directory so no config.yaml or .env is picked up.
	dir := t.TempDir()
	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", dir)

	t.Run("Defaults", func(t *testing.T) {
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.Server.Port != "8080" {
			t.Errorf("Expected port 8080, got %q", cfg.Server.Port)
		}
		if cfg.Planner.DefaultMealBudget != 1000 {
			t.Errorf("Expected default meal budget 1000, got %v", cfg.Planner.DefaultMealBudget)
		}
		if cfg.Catalog.Backend != "postgres" {
			t.Errorf("Expected postgres backend, got %q", cfg.Catalog.Backend)
		}
		if cfg.ShutdownTimeout != 10*time.Second {
			t.Errorf("Expected 10s shutdown timeout, got %v", cfg.ShutdownTimeout)
		}
	})

	t.Run("EnvOverrides", func(t *testing.T) {
		t.Setenv("DB_HOST", "db.internal")
		t.Setenv("REDIS_ADDR", "redis:6379")
		t.Setenv("CATALOG_TIMEOUT", "3s")
		t.Setenv("PLANNER_SEED", "42")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.DB.Host != "db.internal" {
			t.Errorf("Expected DB host override, got %q", cfg.DB.Host)
		}
		if cfg.Redis.Addr != "redis:6379" {
			t.Errorf("Expected redis addr override, got %q", cfg.Redis.Addr)
		}
		if cfg.Catalog.Timeout != 3*time.Second {
			t.Errorf("Expected 3s catalog timeout, got %v", cfg.Catalog.Timeout)
		}
		if cfg.Planner.Seed != 42 {
			t.Errorf("Expected seed 42, got %d", cfg.Planner.Seed)
		}
	})

	t.Run("FileWithEnvExpansion", func(t *testing.T) {
		t.Setenv("TEST_TG_TOKEN", "secret-token")
		content := []byte("telegram:\n  token: ${TEST_TG_TOKEN}\nserver:\n  port: \"9090\"\n")
		if err := os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0644); err != nil {
			t.Fatalf("write config: %v", err)
		}
		defer os.Remove(filepath.Join(dir, "config.yaml"))

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.Telegram.Token != "secret-token" {
			t.Errorf("Expected expanded token, got %q", cfg.Telegram.Token)
		}
		if cfg.Server.Port != "9090" {
			t.Errorf("Expected port 9090, got %q", cfg.Server.Port)
		}
	})
}
