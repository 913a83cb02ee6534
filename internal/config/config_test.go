package config

import "testing"

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("DATABASE_URL", "postgres://localhost/wedge")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.HTTPPort)
	}
	if cfg.DBDriver != DriverPostgres {
		t.Fatalf("expected postgres driver, got %s", cfg.DBDriver)
	}
	if cfg.TokenTTLMinutes != 43200 {
		t.Fatalf("expected 30 day token ttl, got %d", cfg.TokenTTLMinutes)
	}
	if len(cfg.CORSAllowedOrigins) != 1 {
		t.Fatalf("expected one default origin, got %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadConfig_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DATABASE_URL", "postgres://localhost/wedge")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error without JWT_SECRET")
	}
}

func TestLoadConfig_RejectsWeakSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "short")
	t.Setenv("DATABASE_URL", "postgres://localhost/wedge")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for short JWT_SECRET")
	}
}

func TestLoadConfig_PostgresNeedsURL(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_DRIVER", "postgres")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error without DATABASE_URL")
	}
}

func TestLoadConfig_SQLiteDriver(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_DRIVER", " SQLite ")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test,http://b.test")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.DBDriver != DriverSQLite {
		t.Fatalf("expected normalized sqlite driver, got %q", cfg.DBDriver)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("expected two origins, got %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadConfig_UnknownDriver(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("DB_DRIVER", "mysql")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestLoadConfig_ZeroRateLimitAllowed(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("DATABASE_URL", "postgres://localhost/wedge")
	t.Setenv("LOGIN_RATE_LIMIT", "0")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.LoginRateLimit != 0 {
		t.Fatalf("expected disabled rate limit, got %d", cfg.LoginRateLimit)
	}
}
