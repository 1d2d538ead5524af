package goSession

import (
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/password"
)

// Config is the full engine configuration. Build it with DefaultConfig or
// ConfigFromEnv, adjust fields, then hand it to Builder.WithConfig.
type Config struct {
	JWT      JWTConfig
	Mirror   MirrorConfig
	Password PasswordConfig
	Metrics  MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig holds the two-secret signing scheme. Access and refresh tokens
// are signed with different key material and have independent lifetimes.
type JWTConfig struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SigningMethod string // "hs256" (default) or "ed25519"

	// HS256 secrets.
	AccessSecret  []byte
	RefreshSecret []byte

	// Ed25519 key pairs, raw or PEM.
	AccessPrivateKey  []byte
	AccessPublicKey   []byte
	RefreshPrivateKey []byte
	RefreshPublicKey  []byte

	Issuer   string
	Audience string
	Leeway   time.Duration
}

/*
====================================
MIRROR CONFIG
====================================
*/

// MirrorConfig configures the session mirror. Addr, Password and DB are only
// read by callers that let the engine's host dial Redis (see cmd/sessiond).
type MirrorConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string
	// OperationTimeout bounds every mirror call made by the engine.
	OperationTimeout time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds Argon2id cost parameters.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig toggles the in-process counters and latency histograms.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns a configuration with every field but the secrets
// filled in.
func DefaultConfig() Config {
	pw := password.DefaultConfig()
	return Config{
		JWT: JWTConfig{
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
			SigningMethod: string(jwt.MethodHS256),
		},
		Mirror: MirrorConfig{
			RedisAddr:        "127.0.0.1:6379",
			OperationTimeout: 2 * time.Second,
		},
		Password: PasswordConfig{
			Memory:      pw.Memory,
			Time:        pw.Time,
			Parallelism: pw.Parallelism,
			SaltLength:  pw.SaltLength,
			KeyLength:   pw.KeyLength,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.AccessSecret = cloneBytes(cfg.JWT.AccessSecret)
	out.JWT.RefreshSecret = cloneBytes(cfg.JWT.RefreshSecret)
	out.JWT.AccessPrivateKey = cloneBytes(cfg.JWT.AccessPrivateKey)
	out.JWT.AccessPublicKey = cloneBytes(cfg.JWT.AccessPublicKey)
	out.JWT.RefreshPrivateKey = cloneBytes(cfg.JWT.RefreshPrivateKey)
	out.JWT.RefreshPublicKey = cloneBytes(cfg.JWT.RefreshPublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first configuration problem found. Key material
// itself is checked again, in depth, when the engine builds its signers.
func (c *Config) Validate() error {
	if c.JWT.AccessTTL < time.Second {
		return errors.New("JWT.AccessTTL must be >= 1s")
	}
	if c.JWT.RefreshTTL < time.Second {
		return errors.New("JWT.RefreshTTL must be >= 1s")
	}
	if c.JWT.RefreshTTL < c.JWT.AccessTTL {
		return errors.New("JWT.RefreshTTL must be >= JWT.AccessTTL")
	}

	switch jwt.SigningMethod(c.JWT.SigningMethod) {
	case jwt.MethodHS256:
		if len(c.JWT.AccessSecret) == 0 {
			return errors.New("JWT.AccessSecret is required")
		}
		if len(c.JWT.RefreshSecret) == 0 {
			return errors.New("JWT.RefreshSecret is required")
		}
		if string(c.JWT.AccessSecret) == string(c.JWT.RefreshSecret) {
			return errors.New("JWT.AccessSecret and JWT.RefreshSecret must differ")
		}
	case jwt.MethodEd25519:
		if len(c.JWT.AccessPrivateKey) == 0 || len(c.JWT.RefreshPrivateKey) == 0 {
			return errors.New("ed25519 requires access and refresh private keys")
		}
	default:
		return fmt.Errorf("unsupported JWT.SigningMethod %q", c.JWT.SigningMethod)
	}

	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT.Leeway must be within [0, 2m]")
	}
	if c.Mirror.OperationTimeout <= 0 {
		return errors.New("Mirror.OperationTimeout must be > 0")
	}
	if c.Mirror.RedisDB < 0 {
		return errors.New("Mirror.RedisDB must be >= 0")
	}
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics.EnableLatencyHistograms requires Metrics.Enabled")
	}

	return nil
}

func (c *Config) passwordConfig() password.Config {
	return password.Config{
		Memory:      c.Password.Memory,
		Time:        c.Password.Time,
		Parallelism: c.Password.Parallelism,
		SaltLength:  c.Password.SaltLength,
		KeyLength:   c.Password.KeyLength,
	}
}

func (c *Config) jwtConfig(kind jwt.Kind) jwt.Config {
	out := jwt.Config{
		Kind:          kind,
		SigningMethod: jwt.SigningMethod(c.JWT.SigningMethod),
		Issuer:        c.JWT.Issuer,
		Audience:      c.JWT.Audience,
		Leeway:        c.JWT.Leeway,
	}
	switch kind {
	case jwt.KindAccess:
		out.TTL = c.JWT.AccessTTL
		out.Secret = cloneBytes(c.JWT.AccessSecret)
		out.PrivateKey = cloneBytes(c.JWT.AccessPrivateKey)
		out.PublicKey = cloneBytes(c.JWT.AccessPublicKey)
	case jwt.KindRefresh:
		out.TTL = c.JWT.RefreshTTL
		out.Secret = cloneBytes(c.JWT.RefreshSecret)
		out.PrivateKey = cloneBytes(c.JWT.RefreshPrivateKey)
		out.PublicKey = cloneBytes(c.JWT.RefreshPublicKey)
	}
	return out
}
