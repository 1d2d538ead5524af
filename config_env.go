package goSession

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvAccessSecret     = "GOSESSION_ACCESS_SECRET"
	EnvRefreshSecret    = "GOSESSION_REFRESH_SECRET"
	EnvAccessTTL        = "GOSESSION_ACCESS_TTL"
	EnvRefreshTTL       = "GOSESSION_REFRESH_TTL"
	EnvIssuer           = "GOSESSION_ISSUER"
	EnvAudience         = "GOSESSION_AUDIENCE"
	EnvLeeway           = "GOSESSION_LEEWAY"
	EnvRedisAddr        = "GOSESSION_REDIS_ADDR"
	EnvRedisPassword    = "GOSESSION_REDIS_PASSWORD"
	EnvRedisDB          = "GOSESSION_REDIS_DB"
	EnvKeyPrefix        = "GOSESSION_KEY_PREFIX"
	EnvMirrorTimeout    = "GOSESSION_MIRROR_TIMEOUT"
	EnvArgonMemory      = "GOSESSION_ARGON_MEMORY_KB"
	EnvArgonTime        = "GOSESSION_ARGON_TIME"
	EnvArgonParallelism = "GOSESSION_ARGON_PARALLELISM"
	EnvMetricsEnabled   = "GOSESSION_METRICS"
	EnvLatencyHistogram = "GOSESSION_LATENCY_HISTOGRAMS"
)

// ErrMissingEnv reports a required environment variable that is unset.
var ErrMissingEnv = errors.New("required environment variable not set")

// LookupFunc matches os.LookupEnv.
type LookupFunc func(string) (string, bool)

// ConfigFromEnv overlays GOSESSION_* variables on DefaultConfig. Both HS256
// secrets are required; a missing one is a startup error. Malformed values
// are errors too, rather than silently falling back to defaults.
func ConfigFromEnv(lookup LookupFunc) (Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	env := envReader{lookup: lookup}
	cfg := DefaultConfig()

	cfg.JWT.AccessSecret = []byte(env.required(EnvAccessSecret))
	cfg.JWT.RefreshSecret = []byte(env.required(EnvRefreshSecret))
	cfg.JWT.AccessTTL = env.duration(EnvAccessTTL, cfg.JWT.AccessTTL)
	cfg.JWT.RefreshTTL = env.duration(EnvRefreshTTL, cfg.JWT.RefreshTTL)
	cfg.JWT.Issuer = env.str(EnvIssuer, cfg.JWT.Issuer)
	cfg.JWT.Audience = env.str(EnvAudience, cfg.JWT.Audience)
	cfg.JWT.Leeway = env.duration(EnvLeeway, cfg.JWT.Leeway)

	cfg.Mirror.RedisAddr = env.str(EnvRedisAddr, cfg.Mirror.RedisAddr)
	cfg.Mirror.RedisPassword = env.str(EnvRedisPassword, cfg.Mirror.RedisPassword)
	cfg.Mirror.RedisDB = int(env.unsigned(EnvRedisDB, uint64(cfg.Mirror.RedisDB), 16))
	cfg.Mirror.KeyPrefix = env.str(EnvKeyPrefix, cfg.Mirror.KeyPrefix)
	cfg.Mirror.OperationTimeout = env.duration(EnvMirrorTimeout, cfg.Mirror.OperationTimeout)

	cfg.Password.Memory = uint32(env.unsigned(EnvArgonMemory, uint64(cfg.Password.Memory), 32))
	cfg.Password.Time = uint32(env.unsigned(EnvArgonTime, uint64(cfg.Password.Time), 32))
	cfg.Password.Parallelism = uint8(env.unsigned(EnvArgonParallelism, uint64(cfg.Password.Parallelism), 8))

	cfg.Metrics.Enabled = env.boolean(EnvMetricsEnabled, cfg.Metrics.Enabled)
	cfg.Metrics.EnableLatencyHistograms = env.boolean(EnvLatencyHistogram, cfg.Metrics.EnableLatencyHistograms)

	if err := errors.Join(env.errs...); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type envReader struct {
	lookup LookupFunc
	errs   []error
}

func (e *envReader) raw(key string) (string, bool) {
	v, ok := e.lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (e *envReader) required(key string) string {
	v, ok := e.raw(key)
	if !ok {
		e.errs = append(e.errs, fmt.Errorf("%w: %s", ErrMissingEnv, key))
	}
	return v
}

func (e *envReader) str(key, def string) string {
	if v, ok := e.raw(key); ok {
		return v
	}
	return def
}

func (e *envReader) duration(key string, def time.Duration) time.Duration {
	v, ok := e.raw(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid duration %q", key, v))
		return def
	}
	return d
}

func (e *envReader) unsigned(key string, def uint64, bits int) uint64 {
	v, ok := e.raw(key)
	if !ok {
		return def
	}
	n, err := strconv.ParseUint(v, 10, bits)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid unsigned integer %q", key, v))
		return def
	}
	return n
}

func (e *envReader) boolean(key string, def bool) bool {
	v, ok := e.raw(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid bool %q", key, v))
		return def
	}
	return b
}
