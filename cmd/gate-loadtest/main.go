package main

import (
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	mrand "math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	goGate "github.com/MrEthical07/goGate"
	"github.com/MrEthical07/goGate/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// dashboard is one client process: its persisted record and its store.
type dashboard struct {
	persist *session.Store
	store   *goGate.Store
	gate    *goGate.Gate
}

var locations = []string{"/", "/login", "/register", "/bars/1", "/bars/2/orders", "/catalog", "/admin", "/unknown"}

func main() {
	var (
		clients     = flag.Int("clients", 2000, "number of dashboard sessions to persist")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "gate decisions in the decide phase")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "gogate", "session key prefix")
		seal        = flag.Bool("seal", false, "encrypt records at rest")
	)
	flag.Parse()

	if *clients <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "clients, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
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
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	storeCfg := session.StoreConfig{}
	if *seal {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			fmt.Fprintf(os.Stderr, "seal key: %v\n", err)
			os.Exit(1)
		}
		sealer, err := session.NewSealer(key)
		if err != nil {
			fmt.Fprintf(os.Stderr, "sealer: %v\n", err)
			os.Exit(1)
		}
		storeCfg.Sealer = sealer
	}

	dashboards := make([]*dashboard, *clients)
	for i := range dashboards {
		backend := session.NewRedisBackend(client, *prefix, fmt.Sprintf("dashboard-%d", i), 0)
		dashboards[i] = &dashboard{persist: session.NewStore(backend, storeCfg)}
	}

	persistStats := runPhase(*clients, *concurrency, func(i int, _ *mrand.Rand) error {
		return dashboards[i].persist.Save(ctx, recordFor(i))
	})

	hydrateStats := runPhase(*clients, *concurrency, func(i int, _ *mrand.Rand) error {
		d := dashboards[i]
		d.store = goGate.NewStore(d.persist, goGate.StoreOptions{})
		if err := d.store.Hydrate(ctx); err != nil {
			return err
		}
		if !d.store.State().Authenticated() {
			return fmt.Errorf("dashboard %d restored without a session", i)
		}
		return nil
	})

	for i, d := range dashboards {
		gate, err := newGate(d.store)
		if err != nil {
			fmt.Fprintf(os.Stderr, "gate %d: %v\n", i, err)
			os.Exit(1)
		}
		d.gate = gate
	}

	decideStats := runPhase(*ops, *concurrency, func(_ int, r *mrand.Rand) error {
		d := dashboards[r.Intn(len(dashboards))]
		loc := locations[r.Intn(len(locations))]
		if got := d.gate.Decide(loc); got == goGate.DecisionSuspend {
			return fmt.Errorf("hydrated gate suspended on %s", loc)
		}
		return nil
	})

	for _, d := range dashboards {
		d.gate.Close()
		d.store.Close()
	}

	fmt.Println("---- results ----")
	printStats("persist", persistStats)
	printStats("hydrate", hydrateStats)
	printStats("decide", decideStats)
}

func newGate(store *goGate.Store) (*goGate.Gate, error) {
	cfg := goGate.DefaultConfig()
	table, err := goGate.NewRouteTable(cfg.Routes.Classes)
	if err != nil {
		return nil, err
	}
	nav := goGate.NavigatorFunc(func(string, goGate.NavigateOptions) {})
	return goGate.NewGate(store, nav, table, goGate.GateOptions{
		LoginLocation: cfg.Routes.Login,
		HomeLocation:  cfg.Routes.Home,
	})
}

// runPhase runs fn for indexes [0, ops) across concurrency workers.
func runPhase(ops, concurrency int, fn func(i int, r *mrand.Rand) error) phaseStats {
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
				err := fn(i, r)
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
	total := time.Since(start)
	return computeStats(total, latencies, failures)
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
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
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

func recordFor(i int) session.Record {
	return session.Record{
		Token: fmt.Sprintf("token-%d", i),
		User: &session.Identity{
			ID:    fmt.Sprintf("u-%d", i),
			Email: fmt.Sprintf("user%d@bar.test", i),
			Memberships: []session.Membership{
				{BarID: "1", BarName: "Corner", Role: session.RoleOwner, Active: true},
			},
		},
	}
}
