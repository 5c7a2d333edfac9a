package cache

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
	"github.com/robfig/cron/v3"
	"github.com/zeebo/xxh3"
	"golang.org/x/sync/singleflight"

	"github.com/bandradar/bandradar/internal/core"
)

// DefaultDedupWindow is how long a completed result keeps absorbing
// identical requests after the in-flight collapse ends.
const DefaultDedupWindow = 5 * time.Second

type burstEntry struct {
	result    core.VerificationResult
	expiresAt time.Time
}

// Deduper collapses concurrent identical requests onto one execution
// and absorbs short bursts of repeats just after completion. Distinct
// names never block each other.
type Deduper struct {
	group   singleflight.Group
	burst   *xsync.Map[string, burstEntry]
	window  time.Duration
	clock   func() time.Time
	sweeper *cron.Cron
}

// NewDeduper creates a deduper with the given burst window.
func NewDeduper(window time.Duration) *Deduper {
	if window <= 0 {
		window = DefaultDedupWindow
	}
	return &Deduper{
		burst:  xsync.NewMap[string, burstEntry](),
		window: window,
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

// RequestKey derives the dedup key for a request: an xxh3-128 digest of
// the normalized name and type plus the canonicalized options.
// Equivalent spellings collapse, but callers asking for a different
// computation (skipped shortcuts, a source filter, no cache) never
// share another caller's result.
func RequestKey(req core.NameRequest) string {
	opts := req.Options

	sources := make([]string, len(opts.Sources))
	for i, id := range opts.Sources {
		sources[i] = strings.ToLower(strings.TrimSpace(id))
	}
	sort.Strings(sources)

	payload := fmt.Sprintf("%s|cache=%t|maxage=%s|eggs=%t|famous=%t|sources=%s",
		core.CacheKey(req.Name, req.Type),
		opts.CacheEnabled,
		opts.MaxCacheAge,
		opts.SkipEasterEggs,
		opts.SkipFamousArtists,
		strings.Join(sources, ","))

	digest := xxh3.Hash128([]byte(payload))
	return fmt.Sprintf("%016x%016x", digest.Hi, digest.Lo)
}

// Do runs fn once per key: concurrent callers with the same key share
// the single execution, and callers arriving within the burst window
// after completion get the finished result without running fn at all.
// The shared flag reports whether this caller reused another's work.
func (d *Deduper) Do(key string, fn func() (core.VerificationResult, error)) (core.VerificationResult, bool, error) {
	if entry, ok := d.burst.Load(key); ok {
		if d.clock().Before(entry.expiresAt) {
			return entry.result, true, nil
		}
		d.burst.Delete(key)
	}

	value, err, shared := d.group.Do(key, func() (interface{}, error) {
		result, err := fn()
		if err != nil {
			return core.VerificationResult{}, err
		}
		d.burst.Store(key, burstEntry{
			result:    result,
			expiresAt: d.clock().Add(d.window),
		})
		return result, nil
	})
	if err != nil {
		return core.VerificationResult{}, shared, err
	}
	return value.(core.VerificationResult), shared, nil
}

// Sweep drops expired burst entries. Called on a schedule; Do also
// drops lazily on access.
func (d *Deduper) Sweep() {
	now := d.clock()
	d.burst.Range(func(key string, entry burstEntry) bool {
		if !now.Before(entry.expiresAt) {
			d.burst.Delete(key)
		}
		return true
	})
}

// StartSweeper runs Sweep on the given interval until StopSweeper.
func (d *Deduper) StartSweeper(interval time.Duration) error {
	if d.sweeper != nil {
		return nil
	}
	if interval <= 0 {
		interval = time.Minute
	}

	c := cron.New()
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", interval), d.Sweep); err != nil {
		return err
	}
	c.Start()
	d.sweeper = c
	return nil
}

// StopSweeper stops the background sweep, waiting for a running sweep
// to finish.
func (d *Deduper) StopSweeper() {
	if d.sweeper == nil {
		return
	}
	ctx := d.sweeper.Stop()
	<-ctx.Done()
	d.sweeper = nil
}

// PendingBurst returns the number of live burst entries.
func (d *Deduper) PendingBurst() int {
	return d.burst.Size()
}
