package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/bandradar/bandradar/internal/config"
	"github.com/bandradar/bandradar/internal/core/breaker"
	"github.com/bandradar/bandradar/internal/core/cache"
	"github.com/bandradar/bandradar/internal/core/engine"
	"github.com/bandradar/bandradar/internal/core/ratelimit"
	"github.com/bandradar/bandradar/internal/core/source"
	"github.com/bandradar/bandradar/internal/core/store"
	"github.com/bandradar/bandradar/internal/core/verdict"
)

// buildVerifier assembles the verification engine from configuration.
// The returned cleanup releases the result cache and dedup sweeper; it
// is safe to call even when useCache is false.
func buildVerifier(cfg *config.Config, st *store.Store, useCache bool) (*engine.Verifier, func(), error) {
	var limiter *ratelimit.RateLimiter
	if st != nil {
		limiter = &ratelimit.RateLimiter{Store: st}
		limiter.ApplyOverrides(cfg.RateLimits)
		limiter.ApplySafetyMargin(cfg.RateLimitMargin)
	}

	famous, err := source.NewFamous()
	if err != nil {
		return nil, nil, fmt.Errorf("load famous artists: %w", err)
	}

	coordinator := &engine.Coordinator{
		Sources:       buildAdapters(cfg, limiter),
		MaxConcurrent: cfg.Verifier.MaxConcurrent,
		Breaker: breaker.Settings{
			FailureThreshold: cfg.Breaker.FailureThreshold,
			FailureWindow:    cfg.Breaker.FailureWindow,
			RecoveryTimeout:  cfg.Breaker.RecoveryTimeout,
			SuccessThreshold: cfg.Breaker.SuccessThreshold,
		},
	}

	verifier := &engine.Verifier{
		Coordinator: coordinator,
		Famous:      famous,
		Policy: verdict.Policy{
			FailOpen: cfg.Verifier.FailOpen,
			TTL: verdict.TTLPolicy{
				Available: cfg.Cache.AvailableTTL,
				Similar:   cfg.Cache.SimilarTTL,
				Taken:     cfg.Cache.TakenTTL,
				Uncertain: cfg.Cache.UncertainTTL,
			},
		},
		FamousTTL: cfg.Cache.FamousTTL,
		Timeout:   cfg.Verifier.RequestTimeout,
	}
	if st != nil {
		verifier.History = st
	}

	cleanup := func() {}
	if useCache {
		resultCache, err := cache.New(cfg.Cache.MaxEntries)
		if err != nil {
			return nil, nil, fmt.Errorf("build result cache: %w", err)
		}
		deduper := cache.NewDeduper(cfg.Dedup.Window)

		verifier.Cache = resultCache
		verifier.Dedup = deduper
		cleanup = func() {
			deduper.StopSweeper()
			resultCache.Close()
		}
	}

	return verifier, cleanup, nil
}

// buildAdapters creates one adapter per enabled source, in reliability
// order. The domain probe ships disabled; it is a weak signal and only
// worth the extra latency when explicitly requested.
func buildAdapters(cfg *config.Config, limiter *ratelimit.RateLimiter) []source.Adapter {
	adapters := make([]source.Adapter, 0, 4)

	if sc, ok := cfg.Sources["spotify"]; ok && sc.Enabled {
		adapters = append(adapters, &source.Spotify{
			Limiter: limiter,
			BaseURL: sc.BaseURL,
			Token:   resolveSpotifyToken(),
			Weight:  sc.Reliability,
			Timeout: sc.Timeout,
		})
	}
	if sc, ok := cfg.Sources["itunes"]; ok && sc.Enabled {
		adapters = append(adapters, &source.ITunes{
			Limiter: limiter,
			BaseURL: sc.BaseURL,
			Weight:  sc.Reliability,
			Timeout: sc.Timeout,
		})
	}
	if sc, ok := cfg.Sources["musicbrainz"]; ok && sc.Enabled {
		adapters = append(adapters, &source.MusicBrainz{
			Limiter:   limiter,
			BaseURL:   sc.BaseURL,
			UserAgent: "bandradar/" + versionInfo.Version,
			Weight:    sc.Reliability,
			Timeout:   sc.Timeout,
		})
	}
	if sc, ok := cfg.Sources["domain"]; ok && sc.Enabled {
		adapters = append(adapters, &source.Domain{
			Limiter: limiter,
			Server:  sc.BaseURL,
			Weight:  sc.Reliability,
			Timeout: sc.Timeout,
		})
	}

	return adapters
}

func resolveSpotifyToken() string {
	if token := strings.TrimSpace(os.Getenv("SPOTIFY_TOKEN")); token != "" {
		return token
	}
	return strings.TrimSpace(os.Getenv("BANDRADAR_SPOTIFY_TOKEN"))
}
