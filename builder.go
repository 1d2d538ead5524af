package goSession

import (
	"errors"
	"log/slog"

	"github.com/MrEthical07/goSession/internal/flows"
	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/password"
	"github.com/MrEthical07/goSession/session"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an Engine. A Builder is single use.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	mirror session.Mirror
	store  CredentialStore
	logger *slog.Logger

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the builder configuration with a copy of cfg.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis mirrors sessions into client using Config.Mirror.KeyPrefix.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithMirror installs a custom session mirror. It takes precedence over
// WithRedis. Mirrors that do not implement session.Rotator get a
// non-atomic refresh rotation.
func (b *Builder) WithMirror(m session.Mirror) *Builder {
	b.mirror = m
	return b
}

// WithCredentialStore sets the user and resource store.
func (b *Builder) WithCredentialStore(store CredentialStore) *Builder {
	b.store = store
	return b
}

// WithLogger sets the structured logger. The default discards everything.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the engine. It fails if the
// configuration is invalid, either collaborator is missing, or the signing
// keys are rejected.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	mirror := b.mirror
	if mirror == nil && b.redis != nil {
		mirror = session.NewRedisMirror(b.redis, cfg.Mirror.KeyPrefix)
	}
	if mirror == nil {
		return nil, errors.New("session mirror or redis client required")
	}
	if b.store == nil {
		return nil, errors.New("credential store required")
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	// -------- CREDENTIALS --------
	hasher, err := password.NewHasher(cfg.passwordConfig())
	if err != nil {
		return nil, err
	}
	verifier, err := newCredentialVerifier(b.store, hasher)
	if err != nil {
		return nil, err
	}

	// -------- SIGNERS --------
	access, err := jwt.NewManager(cfg.jwtConfig(jwt.KindAccess))
	if err != nil {
		return nil, err
	}
	refresh, err := jwt.NewManager(cfg.jwtConfig(jwt.KindRefresh))
	if err != nil {
		return nil, err
	}
	signer, err := jwt.NewPairSigner(access, refresh)
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:      cloneConfig(cfg),
		mirror:      mirror,
		signer:      signer,
		credentials: verifier,
		store:       b.store,
		metrics:     NewMetrics(cfg.Metrics),
		log:         logger,
	}
	engine.flow = flows.New(flows.Deps{
		Issue: flows.IssueDeps{
			Signer: signer,
			Mirror: mirror,
		},
		Refresh: flows.RefreshDeps{
			Signer:        signer,
			VerifyRefresh: refresh.Verify,
			Mirror:        mirror,
			Warn:          logger.Warn,
		},
		Verify: flows.VerifyDeps{
			DecodeSubject: jwt.DecodeSubjectUnverified,
			VerifyAccess:  access.Verify,
			Mirror:        mirror,
		},
		Logout: flows.LogoutDeps{
			Mirror: mirror,
		},
	})

	b.built = true

	return engine, nil
}
