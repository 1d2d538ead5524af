package goSession

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{"test config valid", func(c *Config) {}, true},
		{"leeway valid", func(c *Config) { c.JWT.Leeway = 45 * time.Second }, true},
		{"leeway too large", func(c *Config) { c.JWT.Leeway = 3 * time.Minute }, false},
		{"access ttl below 1s", func(c *Config) { c.JWT.AccessTTL = 500 * time.Millisecond }, false},
		{"refresh shorter than access", func(c *Config) { c.JWT.RefreshTTL = time.Minute }, false},
		{"signing method unknown", func(c *Config) { c.JWT.SigningMethod = "rs256" }, false},
		{"missing access secret", func(c *Config) { c.JWT.AccessSecret = nil }, false},
		{"missing refresh secret", func(c *Config) { c.JWT.RefreshSecret = nil }, false},
		{"shared secret", func(c *Config) { c.JWT.RefreshSecret = c.JWT.AccessSecret }, false},
		{"ed25519 without keys", func(c *Config) { c.JWT.SigningMethod = "ed25519" }, false},
		{"zero mirror timeout", func(c *Config) { c.Mirror.OperationTimeout = 0 }, false},
		{"negative redis db", func(c *Config) { c.Mirror.RedisDB = -1 }, false},
		{"histograms without metrics", func(c *Config) { c.Metrics.Enabled = false }, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantValid && err != nil {
				t.Fatalf("expected valid config, got %v", err)
			}
			if !tc.wantValid && err == nil {
				t.Fatal("expected invalid config, got nil")
			}
		})
	}
}

func TestBuildRejectsShortSecret(t *testing.T) {
	cfg := testConfig()
	cfg.JWT.AccessSecret = []byte("short")

	_, err := New().WithConfig(cfg).WithMirror(&plainMirror{data: map[string]string{}}).WithCredentialStore(newFakeStore()).Build()
	if err == nil {
		t.Fatal("expected Build to reject a secret under 32 bytes")
	}
}

func TestBuildRequiresCollaborators(t *testing.T) {
	if _, err := New().WithConfig(testConfig()).WithCredentialStore(newFakeStore()).Build(); err == nil {
		t.Fatal("expected error without a mirror")
	}
	if _, err := New().WithConfig(testConfig()).WithMirror(&plainMirror{data: map[string]string{}}).Build(); err == nil {
		t.Fatal("expected error without a credential store")
	}
}

func TestBuilderSingleUse(t *testing.T) {
	b := New().WithConfig(testConfig()).WithMirror(&plainMirror{data: map[string]string{}}).WithCredentialStore(newFakeStore())
	if _, err := b.Build(); err != nil {
		t.Fatalf("first Build: %v", err)
	}
	if _, err := b.Build(); err == nil {
		t.Fatal("expected second Build to fail")
	}
}

func TestWithConfigCopiesSecrets(t *testing.T) {
	cfg := testConfig()
	b := New().WithConfig(cfg)
	cfg.JWT.AccessSecret[0] ^= 0xff

	if b.config.JWT.AccessSecret[0] == cfg.JWT.AccessSecret[0] {
		t.Fatal("builder shares secret storage with caller")
	}
}

func envMap(m map[string]string) LookupFunc {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestConfigFromEnv(t *testing.T) {
	cfg, err := ConfigFromEnv(envMap(map[string]string{
		EnvAccessSecret:   "env-access-secret-0123456789abcdefgh",
		EnvRefreshSecret:  "env-refresh-secret-0123456789abcdefgh",
		EnvAccessTTL:      "5m",
		EnvRefreshTTL:     "24h",
		EnvRedisAddr:      "redis:6379",
		EnvRedisDB:        "3",
		EnvKeyPrefix:      "app",
		EnvArgonMemory:    "16384",
		EnvMetricsEnabled: "true",
	}))
	if err != nil {
		t.Fatalf("ConfigFromEnv: %v", err)
	}
	if cfg.JWT.AccessTTL != 5*time.Minute || cfg.JWT.RefreshTTL != 24*time.Hour {
		t.Fatalf("unexpected ttls %v %v", cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	}
	if cfg.Mirror.RedisAddr != "redis:6379" || cfg.Mirror.RedisDB != 3 || cfg.Mirror.KeyPrefix != "app" {
		t.Fatalf("unexpected mirror config %+v", cfg.Mirror)
	}
	if cfg.Password.Memory != 16384 {
		t.Fatalf("expected memory 16384, got %d", cfg.Password.Memory)
	}
	if cfg.Mirror.OperationTimeout != DefaultConfig().Mirror.OperationTimeout {
		t.Fatal("expected default mirror timeout")
	}
}

func TestConfigFromEnvMissingSecrets(t *testing.T) {
	_, err := ConfigFromEnv(envMap(map[string]string{}))
	if !errors.Is(err, ErrMissingEnv) {
		t.Fatalf("expected ErrMissingEnv, got %v", err)
	}
	if !strings.Contains(err.Error(), EnvAccessSecret) || !strings.Contains(err.Error(), EnvRefreshSecret) {
		t.Fatalf("expected both secrets named, got %v", err)
	}
}

func TestConfigFromEnvMalformedValue(t *testing.T) {
	_, err := ConfigFromEnv(envMap(map[string]string{
		EnvAccessSecret:  "env-access-secret-0123456789abcdefgh",
		EnvRefreshSecret: "env-refresh-secret-0123456789abcdefgh",
		EnvAccessTTL:     "fifteen minutes",
	}))
	if err == nil || !strings.Contains(err.Error(), EnvAccessTTL) {
		t.Fatalf("expected error naming %s, got %v", EnvAccessTTL, err)
	}
}
