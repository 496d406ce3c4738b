package main

import "testing"

func TestLoadConfig_MemorySpellings(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	// Both spellings must route to the in-memory store (empty DBPath);
	// a literal ":memory:" handed to the sqlite pool would give every
	// pooled connection its own empty database.
	for _, v := range []string{"memory", ":memory:"} {
		t.Setenv("DB_PATH", v)
		cfg, err := loadConfig()
		if err != nil {
			t.Fatalf("loadConfig(DB_PATH=%q) error = %v", v, err)
		}
		if cfg.DBPath != "" {
			t.Errorf("DB_PATH=%q: DBPath = %q, want empty (in-memory store)", v, cfg.DBPath)
		}
	}

	// A real path passes through untouched.
	t.Setenv("DB_PATH", "data/custom.db")
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.DBPath != "data/custom.db" {
		t.Errorf("DBPath = %q, want data/custom.db", cfg.DBPath)
	}
}

func TestLoadConfig_RequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := loadConfig(); err == nil {
		t.Error("expected an error without JWT_SECRET")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "")
	t.Setenv("DB_PATH", "")
	t.Setenv("RATE_LIMIT_RPS", "")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.DBPath != "data/snipnest.db" {
		t.Errorf("DBPath = %q, want data/snipnest.db", cfg.DBPath)
	}
	if cfg.RateLimitRPS != 10 {
		t.Errorf("RateLimitRPS = %v, want 10", cfg.RateLimitRPS)
	}
}
