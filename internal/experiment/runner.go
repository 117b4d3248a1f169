package experiment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"runtime"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/san-kum/goclass/internal/config"
	"github.com/san-kum/goclass/internal/log"
	"github.com/san-kum/goclass/internal/metrics"
	"github.com/san-kum/goclass/internal/output"
)

const DefaultCacheSize = 128

// Result is the outcome of one run of an experiment. Outputs may be shared
// with other results through the cache and must not be modified.
type Result struct {
	ID       string
	Name     string
	Config   *config.Config
	Output   *output.Output
	Metrics  map[string]float64
	Err      error
	Cached   bool
	Duration time.Duration
}

type computed struct {
	out     *output.Output
	metrics map[string]float64
	err     error
}

// Runner executes the runs of an experiment concurrently. Identical
// configurations are integrated once.
type Runner struct {
	workers  int
	cache    *lru.Cache[string, computed]
	group    singleflight.Group
	log      *log.Logger
	opts     []Option
	progress func(done, total int, r Result)
}

// NewRunner runs at most workers engines at a time; zero means one per CPU.
func NewRunner(workers, cacheSize int, l *log.Logger, opts ...Option) (*Runner, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, computed](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Runner{
		workers: workers,
		cache:   cache,
		log:     l,
		opts:    append([]Option{WithLogger(l)}, opts...),
	}, nil
}

// OnProgress registers fn to be called after each finished run. Calls are
// serialized.
func (r *Runner) OnProgress(fn func(done, total int, r Result)) { r.progress = fn }

// Hash identifies the physics of cfg; name and description are ignored.
func Hash(cfg *config.Config) (string, error) {
	c := *cfg
	c.Name, c.Description = "", ""
	data, err := json.Marshal(&c)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Run executes the reference and all permutations of exp. A failing run is
// reported in its Result and does not stop the others. The returned error
// is only set when ctx was cancelled.
func (r *Runner) Run(ctx context.Context, exp *Experiment) ([]Result, error) {
	configs, err := exp.Configs()
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(configs))
	ids := make([]string, len(configs))
	ids[0] = exp.ID
	for i, p := range exp.Permutations {
		ids[i+1] = p.ID
	}

	r.log.Info("experiment started", slog.String("id", exp.ID), slog.Int("runs", len(configs)))

	var mu sync.Mutex
	done := 0

	var eg errgroup.Group
	eg.SetLimit(r.workers)
	for i, cfg := range configs {
		i, cfg := i, cfg
		eg.Go(func() error {
			res := r.runOne(ctx, ids[i], cfg)
			results[i] = res

			mu.Lock()
			done++
			if r.progress != nil {
				r.progress(done, len(configs), res)
			}
			mu.Unlock()
			return nil
		})
	}
	eg.Wait()

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}
	r.log.Info("experiment finished", slog.String("id", exp.ID), slog.Int("runs", len(results)), slog.Int("failed", failed))
	return results, ctx.Err()
}

func (r *Runner) runOne(ctx context.Context, id string, cfg *config.Config) Result {
	res := Result{ID: id, Name: cfg.Name, Config: cfg}
	start := time.Now()

	key, err := Hash(cfg)
	if err != nil {
		res.Err = err
		return res
	}

	if c, ok := r.cache.Get(key); ok {
		res.Output, res.Metrics, res.Err, res.Cached = c.out, c.metrics, c.err, true
		return res
	}

	v, _, shared := r.group.Do(key, func() (any, error) {
		c := r.integrate(ctx, cfg)
		if ctx.Err() == nil {
			r.cache.Add(key, c)
		}
		return c, nil
	})
	c := v.(computed)
	res.Output, res.Metrics, res.Err, res.Cached = c.out, c.metrics, c.err, shared
	res.Duration = time.Since(start)

	if res.Err != nil {
		r.log.Warn("run failed", slog.String("id", id), slog.String("name", cfg.Name), slog.Any("error", res.Err))
	} else {
		r.log.Debug("run finished", slog.String("id", id), slog.String("name", cfg.Name), slog.Duration("took", res.Duration))
	}
	return res
}

func (r *Runner) integrate(ctx context.Context, cfg *config.Config) computed {
	e, err := NewEngine(cfg, r.opts...)
	if err != nil {
		return computed{err: err}
	}

	ms := metrics.Default()
	e.Subscribe(func(s output.Snapshot) {
		for _, m := range ms {
			m.Observe(s)
		}
	})

	out, err := e.Run(ctx)
	return computed{out: out, metrics: metrics.Collect(ms), err: err}
}
