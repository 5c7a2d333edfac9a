package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bandradar/bandradar/internal/core"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testResult(name string, status core.Status) core.VerificationResult {
	return core.VerificationResult{
		Name:   name,
		Type:   core.NameTypeBand,
		Status: status,
	}
}

func bandRequest(name string) core.NameRequest {
	return core.NameRequest{
		Name:    name,
		Type:    core.NameTypeBand,
		Options: core.DefaultRequestOptions(),
	}
}

func TestResultCacheRoundTrip(t *testing.T) {
	clock := newFakeClock()
	c, err := NewWithClock(100, clock.Now)
	require.NoError(t, err)
	defer c.Close()

	key := core.CacheKey("Velvet Fox", core.NameTypeBand)
	c.Set(key, testResult("Velvet Fox", core.StatusAvailable), core.Decision{Status: core.StatusAvailable}, time.Hour)

	entry, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, core.StatusAvailable, entry.Result.Status)
	assert.Equal(t, clock.Now(), entry.StoredAt)
}

func TestResultCacheExpires(t *testing.T) {
	clock := newFakeClock()
	c, err := NewWithClock(100, clock.Now)
	require.NoError(t, err)
	defer c.Close()

	key := core.CacheKey("Velvet Fox", core.NameTypeBand)
	c.Set(key, testResult("Velvet Fox", core.StatusUncertain), core.Decision{}, 2*time.Minute)

	clock.Advance(3 * time.Minute)

	_, ok := c.Get(key)
	assert.False(t, ok)
}

func TestResultCacheZeroTTLNotStored(t *testing.T) {
	c, err := New(100)
	require.NoError(t, err)
	defer c.Close()

	key := core.CacheKey("NameJam", core.NameTypeBand)
	c.Set(key, testResult("NameJam", core.StatusTaken), core.Decision{}, 0)

	_, ok := c.Get(key)
	assert.False(t, ok)
}

func TestResultCacheGetFresh(t *testing.T) {
	clock := newFakeClock()
	c, err := NewWithClock(100, clock.Now)
	require.NoError(t, err)
	defer c.Close()

	key := core.CacheKey("Velvet Fox", core.NameTypeBand)
	c.Set(key, testResult("Velvet Fox", core.StatusTaken), core.Decision{}, 24*time.Hour)

	clock.Advance(2 * time.Hour)

	_, ok := c.GetFresh(key, time.Hour)
	assert.False(t, ok, "entry older than max age must be treated as a miss")

	_, ok = c.GetFresh(key, 3*time.Hour)
	assert.True(t, ok)

	_, ok = c.GetFresh(key, 0)
	assert.True(t, ok, "zero max age disables the freshness check")
}

func TestRequestKeyNormalizes(t *testing.T) {
	assert.Equal(t,
		RequestKey(bandRequest("Velvet  Fox")),
		RequestKey(bandRequest("velvet fox")),
	)

	song := bandRequest("Velvet Fox")
	song.Type = core.NameTypeSong
	assert.NotEqual(t, RequestKey(bandRequest("Velvet Fox")), RequestKey(song))
}

func TestRequestKeyVariesByOptions(t *testing.T) {
	base := bandRequest("The Beatles")

	skipFamous := base
	skipFamous.Options.SkipFamousArtists = true
	assert.NotEqual(t, RequestKey(base), RequestKey(skipFamous),
		"a caller opting out of the famous shortcut asks for different work")

	noCache := base
	noCache.Options.CacheEnabled = false
	assert.NotEqual(t, RequestKey(base), RequestKey(noCache))

	filtered := base
	filtered.Options.Sources = []string{"itunes"}
	assert.NotEqual(t, RequestKey(base), RequestKey(filtered))

	// Source order and casing do not matter, only the set does.
	a := base
	a.Options.Sources = []string{"Spotify", "itunes"}
	b := base
	b.Options.Sources = []string{"itunes", "spotify"}
	assert.Equal(t, RequestKey(a), RequestKey(b))
}

func TestDeduperCollapsesConcurrentCalls(t *testing.T) {
	d := NewDeduper(5 * time.Second)

	var executions atomic.Int32
	release := make(chan struct{})
	key := RequestKey(bandRequest("Velvet Fox"))

	const callers = 8
	var wg sync.WaitGroup
	results := make([]core.VerificationResult, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, _, err := d.Do(key, func() (core.VerificationResult, error) {
				executions.Add(1)
				<-release
				return testResult("Velvet Fox", core.StatusAvailable), nil
			})
			require.NoError(t, err)
			results[i] = result
		}(i)
	}

	// Let the goroutines pile onto the key before releasing the work.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), executions.Load())
	for _, result := range results {
		assert.Equal(t, core.StatusAvailable, result.Status)
	}
}

func TestDeduperBurstWindow(t *testing.T) {
	clock := newFakeClock()
	d := NewDeduper(5 * time.Second)
	d.clock = clock.Now

	key := RequestKey(bandRequest("Velvet Fox"))
	calls := 0
	fn := func() (core.VerificationResult, error) {
		calls++
		return testResult("Velvet Fox", core.StatusAvailable), nil
	}

	_, shared, err := d.Do(key, fn)
	require.NoError(t, err)
	assert.False(t, shared)

	_, shared, err = d.Do(key, fn)
	require.NoError(t, err)
	assert.True(t, shared, "repeat inside the window reuses the finished result")
	assert.Equal(t, 1, calls)

	clock.Advance(6 * time.Second)

	_, _, err = d.Do(key, fn)
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "repeat after the window runs again")
}

func TestDeduperErrorsNotAbsorbed(t *testing.T) {
	d := NewDeduper(5 * time.Second)
	key := RequestKey(bandRequest("Velvet Fox"))

	calls := 0
	fn := func() (core.VerificationResult, error) {
		calls++
		return core.VerificationResult{}, errors.New("boom")
	}

	_, _, err := d.Do(key, fn)
	require.Error(t, err)

	_, _, err = d.Do(key, fn)
	require.Error(t, err)
	assert.Equal(t, 2, calls, "failures must not enter the burst cache")
}

func TestDeduperSweep(t *testing.T) {
	clock := newFakeClock()
	d := NewDeduper(5 * time.Second)
	d.clock = clock.Now

	key := RequestKey(bandRequest("Velvet Fox"))
	_, _, err := d.Do(key, func() (core.VerificationResult, error) {
		return testResult("Velvet Fox", core.StatusAvailable), nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, d.PendingBurst())

	clock.Advance(10 * time.Second)
	d.Sweep()

	assert.Zero(t, d.PendingBurst())
}
