package config

import "testing"

func TestValidate_InvalidPort(t *testing.T) {
	cfg := Config{
		HTTP: HTTPConfig{Port: 0},
		Database: DatabaseConfig{
			Addrs: []string{"localhost:6379"},
		},
	}
	cfg.ApplyDefaults()

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingDatabaseAddrs(t *testing.T) {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
		Database: DatabaseConfig{
			Addrs: []string{},
		},
	}
	cfg.ApplyDefaults()

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing database addrs")
	}
}

func TestValidate_APIKeys(t *testing.T) {
	base := func() Config {
		cfg := Config{
			HTTP:     HTTPConfig{Port: 8080},
			Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
		}
		cfg.ApplyDefaults()
		return cfg
	}

	t.Run("missing user_id", func(t *testing.T) {
		cfg := base()
		cfg.Auth.Keys = []APIKey{{Key: "k1"}}
		if err := cfg.Validate(); err == nil {
			t.Fatal("expected error for key without user_id")
		}
	})

	t.Run("duplicate key", func(t *testing.T) {
		cfg := base()
		cfg.Auth.Keys = []APIKey{
			{Key: "k1", UserID: "u1"},
			{Key: "k1", UserID: "u2"},
		}
		if err := cfg.Validate(); err == nil {
			t.Fatal("expected error for duplicate key")
		}
	})

	t.Run("valid keys", func(t *testing.T) {
		cfg := base()
		cfg.Auth.Keys = []APIKey{
			{Key: "k1", UserID: "u1"},
			{Key: "k2", UserID: "u2", Admin: true},
		}
		if err := cfg.Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestValidate_PageSizes(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
		Search:   SearchConfig{DefaultPageSize: 50, MaxPageSize: 20},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for max_page_size < default_page_size")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 10 {
		t.Errorf("expected WriteTimeoutSec=10, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Database.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Database.ReadinessTimeout)
	}
	if cfg.Search.DefaultPageSize != 20 {
		t.Errorf("expected DefaultPageSize=20, got %d", cfg.Search.DefaultPageSize)
	}
	if cfg.Search.MaxPageSize != 100 {
		t.Errorf("expected MaxPageSize=100, got %d", cfg.Search.MaxPageSize)
	}
	if cfg.Search.CandidateCacheSec != 30 {
		t.Errorf("expected CandidateCacheSec=30, got %d", cfg.Search.CandidateCacheSec)
	}
	if cfg.Sweep.ShareExpirySpec != "@every 1h" {
		t.Errorf("expected ShareExpirySpec=@every 1h, got %q", cfg.Sweep.ShareExpirySpec)
	}
	if cfg.Storage.KeyPrefix != "gravy:" {
		t.Errorf("expected KeyPrefix=gravy:, got %q", cfg.Storage.KeyPrefix)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("GRAVY_TEST_PASSWORD", "s3cret")

	in := []byte("password: ${GRAVY_TEST_PASSWORD}\nprefix: ${GRAVY_TEST_MISSING:-gravy:}")
	out := string(expandEnvVars(in))

	want := "password: s3cret\nprefix: gravy:"
	if out != want {
		t.Errorf("unexpected expansion:\ngot:  %q\nwant: %q", out, want)
	}
}
