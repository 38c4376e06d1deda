package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CodeChecker answers batch existence queries against the store.
type CodeChecker interface {
	FindExistingCodes(ctx context.Context, codes []string) (map[string]struct{}, error)
}

// PoolConfig holds the pool watermarks and refill tuning.
type PoolConfig struct {
	MinSize        int
	MaxSize        int
	BatchSize      int
	DirectAttempts int
	RefillInterval time.Duration
}

// DefaultPoolConfig returns the stock watermarks (100/500, batches of 50).
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MinSize:        100,
		MaxSize:        500,
		BatchSize:      50,
		DirectAttempts: 10,
		RefillInterval: 30 * time.Second,
	}
}

// fruitless refill rounds tolerated before the code space is judged exhausted.
const maxFruitlessRounds = 5

const (
	replenishKey     = "replenish"
	replenishTimeout = 5 * time.Second
)

// CodePool buffers codes that were absent from the store when they were
// generated. Takers read from a channel and never wait on a refill; refills
// are coalesced so at most one runs at a time.
type CodePool struct {
	gen    *Generator
	store  CodeChecker
	logger *zap.Logger
	cfg    PoolConfig

	codes   chan string
	queued  sync.Map
	group   singleflight.Group
	trigger chan struct{}
}

// NewCodePool validates cfg and returns an empty pool. Call Start to run the
// background refill loop.
func NewCodePool(gen *Generator, store CodeChecker, cfg PoolConfig, logger *zap.Logger) (*CodePool, error) {
	switch {
	case gen == nil:
		return nil, fmt.Errorf("%w: pool needs a generator", ErrConfiguration)
	case cfg.MaxSize <= 0:
		return nil, fmt.Errorf("%w: pool max size must be positive", ErrConfiguration)
	case cfg.MinSize < 0 || cfg.MinSize > cfg.MaxSize:
		return nil, fmt.Errorf("%w: pool min size %d outside [0, %d]", ErrConfiguration, cfg.MinSize, cfg.MaxSize)
	case cfg.BatchSize <= 0:
		return nil, fmt.Errorf("%w: pool batch size must be positive", ErrConfiguration)
	}
	if cfg.DirectAttempts <= 0 {
		cfg.DirectAttempts = DefaultPoolConfig().DirectAttempts
	}

	return &CodePool{
		gen:     gen,
		store:   store,
		logger:  logger,
		cfg:     cfg,
		codes:   make(chan string, cfg.MaxSize),
		trigger: make(chan struct{}, 1),
	}, nil
}

// Size is the number of buffered codes.
func (p *CodePool) Size() int {
	return len(p.codes)
}

// Start runs the refill loop until ctx is done. The first fill starts
// immediately.
func (p *CodePool) Start(ctx context.Context) {
	p.Trigger()
	go p.run(ctx)
}

func (p *CodePool) run(ctx context.Context) {
	var tickC <-chan time.Time
	if p.cfg.RefillInterval > 0 {
		ticker := time.NewTicker(p.cfg.RefillInterval)
		defer ticker.Stop()
		tickC = ticker.C
	}

	refill := func() {
		fillCtx, cancel := context.WithTimeout(ctx, replenishTimeout)
		defer cancel()

		added, err := p.Replenish(fillCtx)
		if err != nil {
			p.logger.Error("code pool replenish failed", zap.Error(err), zap.Int("added", added), zap.Int("size", p.Size()))
			return
		}
		if added > 0 {
			p.logger.Debug("code pool replenished", zap.Int("added", added), zap.Int("size", p.Size()))
		}
	}

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("code pool stopped")
			return
		case <-p.trigger:
			refill()
		case <-tickC:
			if p.Size() < p.cfg.MinSize {
				refill()
			}
		}
	}
}

// Trigger asks the refill loop for a fill without waiting. Triggers that
// arrive while one is pending are dropped.
func (p *CodePool) Trigger() {
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

// TakeCode pops a buffered code or, when the buffer is empty, generates one
// and checks it against the store directly.
func (p *CodePool) TakeCode(ctx context.Context) (string, error) {
	select {
	case code := <-p.codes:
		p.queued.Delete(code)
		if p.Size() < p.cfg.MinSize {
			p.Trigger()
		}
		return code, nil
	default:
	}

	p.Trigger()
	return p.direct(ctx)
}

func (p *CodePool) direct(ctx context.Context) (string, error) {
	for i := 0; i < p.cfg.DirectAttempts; i++ {
		code := p.gen.Generate()
		if _, ok := p.queued.Load(code); ok {
			continue
		}

		existing, err := p.store.FindExistingCodes(ctx, []string{code})
		if err != nil {
			return "", storeError(err)
		}
		if _, taken := existing[code]; !taken {
			return code, nil
		}
	}
	return "", fmt.Errorf("%w: no free code after %d direct attempts", ErrCodeSpaceExhausted, p.cfg.DirectAttempts)
}

// Replenish fills the buffer up to MaxSize. Concurrent calls share a single
// run and its result.
func (p *CodePool) Replenish(ctx context.Context) (int, error) {
	v, err, _ := p.group.Do(replenishKey, func() (interface{}, error) {
		return p.fill(ctx)
	})
	added, _ := v.(int)
	return added, err
}

func (p *CodePool) fill(ctx context.Context) (int, error) {
	added, fruitless := 0, 0

	for p.Size() < p.cfg.MaxSize {
		if err := ctx.Err(); err != nil {
			return added, err
		}

		want := min(p.cfg.BatchSize, p.cfg.MaxSize-p.Size())
		batch := p.generateBatch(want)

		existing, err := p.store.FindExistingCodes(ctx, batch)
		if err != nil {
			return added, storeError(err)
		}

		round := 0
		for _, code := range batch {
			if _, taken := existing[code]; taken {
				continue
			}
			if _, loaded := p.queued.LoadOrStore(code, struct{}{}); loaded {
				continue
			}
			select {
			case p.codes <- code:
				round++
			default:
				p.queued.Delete(code)
				return added + round, nil
			}
		}
		added += round

		if round == 0 {
			fruitless++
			if fruitless >= maxFruitlessRounds {
				return added, fmt.Errorf("%w: %d refill rounds produced no free code", ErrCodeSpaceExhausted, fruitless)
			}
			continue
		}
		fruitless = 0
	}
	return added, nil
}

// generateBatch returns up to n distinct codes that are not already buffered.
func (p *CodePool) generateBatch(n int) []string {
	batch := make([]string, 0, n)
	inBatch := make(map[string]struct{}, n)

	for tries := 0; len(batch) < n && tries < n*4; tries++ {
		code := p.gen.Generate()
		if _, dup := inBatch[code]; dup {
			continue
		}
		if _, ok := p.queued.Load(code); ok {
			continue
		}
		inBatch[code] = struct{}{}
		batch = append(batch, code)
	}
	return batch
}
