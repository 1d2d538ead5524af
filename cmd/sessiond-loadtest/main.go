// sessiond-loadtest measures session mirror throughput: verify lookups,
// refresh rotations, and a contended phase that checks each refresh token is
// spent exactly once.
package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	mrand "math/rand"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/pflag"

	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type userState struct {
	id      string
	refresh string
	mu      sync.Mutex
}

func main() {
	var (
		users       int
		concurrency int
		ops         int
		racers      int
		redisAddr   string
		prefix      string
	)
	fs := pflag.NewFlagSet("sessiond-loadtest", pflag.ExitOnError)
	fs.IntVar(&users, "users", 10000, "number of sessions to seed")
	fs.IntVar(&concurrency, "concurrency", 256, "number of concurrent workers")
	fs.IntVar(&ops, "ops", 100000, "operations per phase")
	fs.IntVar(&racers, "racers", 16, "concurrent refreshes per token in the contended phase")
	fs.StringVar(&redisAddr, "redis-addr", "", "redis address; if empty, GOSESSION_REDIS_ADDR or miniredis is used")
	fs.StringVar(&prefix, "prefix", "loadtest", "mirror key prefix")
	_ = fs.Parse(os.Args[1:])

	if users <= 0 || concurrency <= 0 || ops <= 0 || racers <= 1 {
		fmt.Fprintln(os.Stderr, "users, concurrency and ops must be > 0; racers must be > 1")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := redisAddr
	if addr == "" {
		addr = os.Getenv("GOSESSION_REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", mr.Addr())
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	signer, err := newSigner()
	if err != nil {
		fmt.Fprintf(os.Stderr, "signer: %v\n", err)
		os.Exit(1)
	}
	mirror := session.NewRedisMirror(client, prefix)

	states := make([]*userState, users)
	fmt.Printf("seeding %d sessions...\n", users)
	startSeed := time.Now()
	for i := range states {
		id := strconv.Itoa(i + 1)
		pair, err := signer.Issue(ctx, id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "sign failed: %v\n", err)
			os.Exit(1)
		}
		access, refresh := entries(pair)
		if err := mirror.PutPair(ctx, id, access, refresh); err != nil {
			fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
			os.Exit(1)
		}
		states[i] = &userState{id: id, refresh: pair.Refresh.Value}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	verifyStats := runPhase(ops, concurrency, func(r *mrand.Rand, _ int) error {
		s := states[r.Intn(len(states))]
		_, err := mirror.Get(ctx, session.KindAccess, s.id)
		return err
	})

	refreshStats := runPhase(ops, concurrency, func(r *mrand.Rand, _ int) error {
		s := states[r.Intn(len(states))]
		s.mu.Lock()
		defer s.mu.Unlock()
		pair, err := signer.Issue(ctx, s.id)
		if err != nil {
			return err
		}
		access, refresh := entries(pair)
		if err := mirror.RotatePair(ctx, s.id, s.refresh, access, refresh); err != nil {
			return err
		}
		s.refresh = pair.Refresh.Value
		return nil
	})

	contended := min(users, max(1, ops/racers))
	winners, lost := runContended(ctx, signer, mirror, states[:contended], racers)

	fmt.Println("---- results ----")
	printStats("verify", verifyStats)
	printStats("refresh", refreshStats)
	fmt.Printf("contended: tokens=%d racers=%d winners=%d lost=%d\n", contended, racers, winners, lost)
	if winners != int64(contended) {
		fmt.Fprintf(os.Stderr, "FAIL: expected exactly one winner per token (%d), got %d\n", contended, winners)
		os.Exit(1)
	}
}

// runContended races racers rotations against each user's current refresh
// token and counts how many won.
func runContended(ctx context.Context, signer *jwt.PairSigner, mirror *session.RedisMirror, states []*userState, racers int) (winners, lost int64) {
	var wg sync.WaitGroup
	for _, s := range states {
		expected := s.refresh
		for i := 0; i < racers; i++ {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				pair, err := signer.Issue(ctx, id)
				if err != nil {
					return
				}
				access, refresh := entries(pair)
				err = mirror.RotatePair(ctx, id, expected, access, refresh)
				switch {
				case err == nil:
					atomic.AddInt64(&winners, 1)
				case errors.Is(err, session.ErrMismatch):
					atomic.AddInt64(&lost, 1)
				}
			}(s.id)
		}
	}
	wg.Wait()
	return winners, lost
}

func runPhase(ops, concurrency int, op func(r *mrand.Rand, i int) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := mrand.New(mrand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(r, i)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

func newSigner() (*jwt.PairSigner, error) {
	access, err := jwt.NewManager(jwt.Config{
		Kind:          jwt.KindAccess,
		TTL:           15 * time.Minute,
		SigningMethod: jwt.MethodHS256,
		Secret:        randomSecret(),
	})
	if err != nil {
		return nil, err
	}
	refresh, err := jwt.NewManager(jwt.Config{
		Kind:          jwt.KindRefresh,
		TTL:           24 * time.Hour,
		SigningMethod: jwt.MethodHS256,
		Secret:        randomSecret(),
	})
	if err != nil {
		return nil, err
	}
	return jwt.NewPairSigner(access, refresh)
}

func entries(p jwt.Pair) (session.Entry, session.Entry) {
	now := time.Now()
	return session.Entry{Token: p.Access.Value, TTL: p.Access.ExpiresAt.Sub(now)},
		session.Entry{Token: p.Refresh.Value, TTL: p.Refresh.ExpiresAt.Sub(now)}
}

func randomSecret() []byte {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return b
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	idx := (len(samples) - 1) * min(max(p, 0), 100) / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
