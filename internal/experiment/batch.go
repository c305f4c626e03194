package experiment

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/san-kum/rs1sim/internal/config"
)

// BatchItem names one configuration of a batch.
type BatchItem struct {
	Name   string
	Config *config.Config
}

// Batch runs independent scenarios concurrently. Every scenario owns its
// session, so runs share nothing but the options.
type Batch struct {
	items   []BatchItem
	workers int
	opts    []Option
}

// NewBatch uses GOMAXPROCS workers when workers is not positive.
func NewBatch(items []BatchItem, workers int, opts ...Option) *Batch {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Batch{items: items, workers: workers, opts: opts}
}

// Run saves figures for every item and returns results in item order. The
// first failure is returned after all runs finish.
func (b *Batch) Run(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, len(b.items))
	errs := make([]error, len(b.items))
	sem := make(chan struct{}, b.workers)

	var wg sync.WaitGroup
	for i, item := range b.items {
		wg.Add(1)
		go func(idx int, item BatchItem) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				errs[idx] = ctx.Err()
				return
			}
			defer func() { <-sem }()

			opts := append([]Option{WithPreset(item.Name)}, b.opts...)
			results[idx], errs[idx] = New(itemConfig(idx, item), opts...).Run(ctx, false)
		}(i, item)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return results, fmt.Errorf("batch %s: %w", b.items[i].Name, err)
		}
	}
	return results, nil
}

// itemConfig gives an unstored item its own output directory so concurrent
// items never write the same figure files. Stored runs already get one per
// run ID.
func itemConfig(idx int, item BatchItem) *config.Config {
	if item.Config.Output.SaveRun {
		return item.Config
	}
	cfg := *item.Config
	cfg.Output.Dir = filepath.Join(cfg.Output.Dir, fmt.Sprintf("%02d-%s", idx+1, filepath.Base(item.Name)))
	return &cfg
}
