package pricing

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

const (
	resultHit      = "hit"
	resultNegative = "negative"
	resultMiss     = "miss"
)

// Service resolves reference prices through a per-source cache, spacing
// external calls by a fixed delay.
type Service struct {
	source  string
	client  Client
	cache   *Cache
	limiter *rate.Limiter
	metrics Metrics
	logger  *slog.Logger
}

func NewService(source string, client Client, cache *Cache, delay time.Duration, metrics Metrics, logger *slog.Logger) *Service {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	if cache == nil {
		cache = NewCache()
	}

	return &Service{
		source:  source,
		client:  client,
		cache:   cache,
		limiter: rate.NewLimiter(limit, 1),
		metrics: metrics,
		logger:  logger,
	}
}

// Quote returns the cached or freshly looked-up quote for name. A nil quote
// means no price is available. Only context cancellation is returned as an
// error; lookup failures are negative-cached.
func (s *Service) Quote(ctx context.Context, name string) (*Quote, error) {
	if quote, ok := s.cache.Lookup(name); ok {
		if quote == nil {
			s.record(resultNegative)
		} else {
			s.record(resultHit)
		}
		return quote, nil
	}
	s.record(resultMiss)

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	quote, err := s.client.LookupPrice(ctx, name)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("Price lookup failed, caching as unavailable",
			"source", s.source,
			"stage", "enrich",
			"item", name,
			"error", err)
		quote = nil
	}
	if quote != nil && quote.RecentTrade == nil && quote.CurrentFloor == nil {
		quote = nil
	}

	s.cache.Store(name, quote)
	return quote, nil
}

func (s *Service) record(result string) {
	if s.metrics != nil {
		s.metrics.CacheResult(s.source, result)
	}
}
