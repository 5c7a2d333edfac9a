package engine

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/bandradar/bandradar/internal/core"
	"github.com/bandradar/bandradar/internal/core/breaker"
	"github.com/bandradar/bandradar/internal/core/source"
)

// DefaultMaxConcurrent caps how many source calls run at once.
const DefaultMaxConcurrent = 3

// Coordinator fans one verification request out to the configured
// sources under a concurrency cap, with a circuit breaker per source.
// A slow or failing catalog degrades its own evidence and nothing else.
type Coordinator struct {
	Sources       []source.Adapter
	MaxConcurrent int
	Breaker       breaker.Settings
	Clock         func() time.Time

	mu       sync.Mutex
	breakers map[string]*breaker.Breaker
	sem      *semaphore.Weighted
}

// Gather queries every selected source and returns one evidence record
// per source, positionally aligned with the adapter order. Sources that
// fail, time out, or sit behind an open breaker contribute degraded
// evidence rather than an error.
func (c *Coordinator) Gather(ctx context.Context, name string, nameType core.NameType, only []string) []*core.PlatformEvidence {
	if ctx == nil {
		ctx = context.Background()
	}

	adapters := c.selected(only)
	evidence := make([]*core.PlatformEvidence, len(adapters))

	// One semaphore for the whole coordinator: the cap bounds outbound
	// calls across concurrent requests, not per request.
	sem := c.slots()

	var wg sync.WaitGroup
	for i, adapter := range adapters {
		wg.Add(1)
		go func(i int, adapter source.Adapter) {
			defer wg.Done()
			evidence[i] = c.gatherOne(ctx, sem, adapter, name, nameType)
		}(i, adapter)
	}
	wg.Wait()

	return evidence
}

func (c *Coordinator) gatherOne(ctx context.Context, sem *semaphore.Weighted, adapter source.Adapter, name string, nameType core.NameType) *core.PlatformEvidence {
	sourceID := adapter.ID()
	brk := c.breakerFor(sourceID)

	if !brk.Allow() {
		return &core.PlatformEvidence{
			SourceID:    sourceID,
			Reliability: adapter.Reliability(),
			Err:         core.NewVerifyError(core.ErrPlatformError, sourceID, "circuit breaker open"),
		}
	}

	if err := sem.Acquire(ctx, 1); err != nil {
		// Request context expired while waiting for a slot. Does not
		// count against the breaker: the source was never contacted.
		return &core.PlatformEvidence{
			SourceID:    sourceID,
			Reliability: adapter.Reliability(),
			Err:         core.TimeoutError(sourceID),
		}
	}
	defer sem.Release(1)

	evidence, err := adapter.Verify(ctx, name, nameType)
	if err != nil {
		evidence = &core.PlatformEvidence{
			SourceID:    sourceID,
			Reliability: adapter.Reliability(),
			Err:         core.NewVerifyError(core.ErrUnknown, sourceID, err.Error()),
		}
	}
	if evidence == nil {
		evidence = &core.PlatformEvidence{
			SourceID:    sourceID,
			Reliability: adapter.Reliability(),
			Err:         core.NewVerifyError(core.ErrUnknown, sourceID, "adapter returned no evidence"),
		}
	}

	if breakerFailure(evidence.Err) {
		brk.RecordFailure()
	} else if evidence.Err == nil {
		brk.RecordSuccess()
	}

	return evidence
}

// selected returns the adapters to query, filtered by the request's
// source list when present. Order follows the configured adapter order
// either way.
func (c *Coordinator) selected(only []string) []source.Adapter {
	if len(only) == 0 {
		return c.Sources
	}

	wanted := make(map[string]bool, len(only))
	for _, id := range only {
		wanted[id] = true
	}

	var adapters []source.Adapter
	for _, adapter := range c.Sources {
		if wanted[adapter.ID()] {
			adapters = append(adapters, adapter)
		}
	}
	return adapters
}

func (c *Coordinator) slots() *semaphore.Weighted {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sem == nil {
		maxConcurrent := c.MaxConcurrent
		if maxConcurrent <= 0 {
			maxConcurrent = DefaultMaxConcurrent
		}
		c.sem = semaphore.NewWeighted(int64(maxConcurrent))
	}
	return c.sem
}

func (c *Coordinator) breakerFor(sourceID string) *breaker.Breaker {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.breakers == nil {
		c.breakers = make(map[string]*breaker.Breaker)
	}
	brk, ok := c.breakers[sourceID]
	if !ok {
		if c.Clock != nil {
			brk = breaker.NewWithClock(c.Breaker, c.Clock)
		} else {
			brk = breaker.New(c.Breaker)
		}
		c.breakers[sourceID] = brk
	}
	return brk
}

// BreakerStates snapshots every breaker for health reporting.
func (c *Coordinator) BreakerStates() map[string]breaker.State {
	c.mu.Lock()
	defer c.mu.Unlock()

	states := make(map[string]breaker.State, len(c.breakers))
	for sourceID, brk := range c.breakers {
		states[sourceID] = brk.State()
	}
	return states
}

// breakerFailure reports whether the failure should count toward
// tripping the breaker. Rate limiting is the source protecting itself,
// not an outage, and invalid input is the caller's fault.
func breakerFailure(verr *core.VerifyError) bool {
	if verr == nil {
		return false
	}
	switch verr.Code {
	case core.ErrPlatformTimeout, core.ErrPlatformError, core.ErrUnknown:
		return true
	default:
		return false
	}
}
