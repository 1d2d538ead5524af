package goSession

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/MrEthical07/goSession/internal/flows"
	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/session"
)

// Engine is the session manager. It is safe for concurrent use once built;
// per-user consistency lives in the session mirror, not in process memory.
type Engine struct {
	config      Config
	mirror      session.Mirror
	signer      *jwt.PairSigner
	credentials *credentialVerifier
	store       CredentialStore
	flow        flows.Service
	metrics     *Metrics
	log         *slog.Logger
}

// MetricsSnapshot returns a copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:    map[MetricID]uint64{},
			Histograms:  map[MetricID][]uint64{},
			LatencySums: map[MetricID]time.Duration{},
		}
	}
	return e.metrics.Snapshot()
}

// Ping checks that the session mirror is reachable. Mirrors without a Ping
// method are assumed healthy.
func (e *Engine) Ping(ctx context.Context) (time.Duration, error) {
	if !e.ready() {
		return 0, ErrEngineNotReady
	}
	p, ok := e.mirror.(interface {
		Ping(context.Context) (time.Duration, error)
	})
	if !ok {
		return 0, nil
	}
	ctx, cancel := e.mirrorContext(ctx)
	defer cancel()
	return p.Ping(ctx)
}

func (e *Engine) ready() bool {
	return e != nil && e.flow.Initialized()
}

func (e *Engine) mirrorContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.config.Mirror.OperationTimeout)
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) metricObserve(id MetricID, start time.Time) {
	if e == nil || !e.metrics.LatencyEnabled() {
		return
	}
	e.metrics.Observe(id, time.Since(start))
}

// publicError strips err down to the sentinel callers are allowed to see.
func publicError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrInvalidCredentials):
		return ErrInvalidCredentials
	case errors.Is(err, ErrDuplicateCredential):
		return ErrDuplicateCredential
	case errors.Is(err, ErrEngineNotReady):
		return ErrEngineNotReady
	default:
		return ErrServer
	}
}

func toTokenPair(p jwt.Pair) TokenPair {
	return TokenPair{AccessToken: p.Access.Value, RefreshToken: p.Refresh.Value}
}
