package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pkg/errors"
)

const (
	resultOK        = "ok"
	resultFailed    = "failed"
	resultSkipped   = "skipped"
	resultDisabled  = "disabled"
	resultCancelled = "cancelled"
)

type options struct {
	journal Journal
	metrics Metrics
	now     func() time.Time
}

type Option func(*options)

// WithJournal records items dropped after a failed publish.
func WithJournal(j Journal) Option {
	return func(o *options) {
		o.journal = j
	}
}

func WithMetrics(m Metrics) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// Task runs fetch, filter, transform and publish for one marketplace.
type Task[R any] struct {
	source    Source[R]
	publisher Publisher
	cfg       Config
	journal   Journal
	metrics   Metrics
	now       func() time.Time
	logger    *slog.Logger
}

func NewTask[R any](source Source[R], publisher Publisher, cfg Config, logger *slog.Logger, opts ...Option) *Task[R] {
	o := options{
		metrics: noopMetrics{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Task[R]{
		source:    source,
		publisher: publisher,
		cfg:       cfg,
		journal:   o.journal,
		metrics:   o.metrics,
		now:       o.now,
		logger:    logger.With("source", source.Name()),
	}
}

func (t *Task[R]) Name() string {
	return t.source.Name()
}

func (t *Task[R]) CheckInterval() time.Duration {
	return t.cfg.CheckInterval
}

// Run performs passes until ctx is done, sleeping CheckInterval between
// them. It only returns on cancellation or on a *Failure.
func (t *Task[R]) Run(ctx context.Context, hb Heartbeat) error {
	t.logger.Info("Pipeline loop started",
		"min_discount", t.cfg.MinDiscount,
		"check_interval", t.cfg.CheckInterval,
		"categories", t.source.Categories(),
		"routing_key", t.cfg.RoutingKey)

	for iteration := 1; ; iteration++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if hb != nil {
			hb.Beat()
		}

		stats, err := t.RunPass(ctx)
		if err != nil {
			return err
		}

		t.logger.Info("Pass completed",
			"iteration", iteration,
			"fetched", stats.Fetched,
			"matched", stats.Matched,
			"published", stats.Published,
			"dropped", stats.Dropped,
			"skipped", stats.Skipped,
			"fetch_failed", stats.FetchFailed,
			"duration", stats.Duration)

		timer := time.NewTimer(t.cfg.CheckInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// RunPass runs every configured category once. Fetch, record and publish
// failures are absorbed; only cancellation or a *Failure is returned.
func (t *Task[R]) RunPass(ctx context.Context) (stats PassStats, err error) {
	start := t.now()
	defer func() {
		stats.Duration = t.now().Sub(start)
		t.metrics.PassDuration(t.source.Name(), stats.Duration)
	}()

	for _, category := range t.source.Categories() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Categories++

		if err = t.runCategory(ctx, category, &stats); err != nil {
			return stats, err
		}
	}

	return stats, nil
}

func (t *Task[R]) runCategory(ctx context.Context, category string, stats *PassStats) error {
	logger := t.logger.With("category", category)
	source := t.source.Name()

	page, err := t.source.Fetch(ctx, category)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !errors.Is(err, ErrTransientFetch) {
			return &Failure{Source: source, Stage: StageFetch, Err: err}
		}
		stats.FetchFailed++
		t.metrics.FetchResult(source, category, resultFailed)
		logger.Warn("Fetch failed, skipping category for this pass",
			"stage", StageFetch,
			"error", err)
		return nil
	}
	t.metrics.FetchResult(source, category, resultOK)

	if page == nil {
		return nil
	}
	stats.Fetched += len(page.Records)

	matched := Filter(page.Records, t.source.Discount, t.cfg.MinDiscount)
	stats.Matched += len(matched)
	t.metrics.Matched(source, len(matched))

	logger.Info("Records fetched",
		"total", page.Total,
		"received", len(page.Records),
		"matched", len(matched))

	for _, rec := range matched {
		if err := t.publishRecord(ctx, logger, rec, stats); err != nil {
			return err
		}
	}

	return nil
}

func (t *Task[R]) publishRecord(ctx context.Context, logger *slog.Logger, rec R, stats *PassStats) error {
	source := t.source.Name()

	item, err := t.source.Transform(ctx, rec)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			return ctx.Err()
		case errors.Is(err, ErrInvalidRecord):
			stats.Skipped++
			t.metrics.PublishResult(source, resultSkipped)
			logger.Warn("Record skipped",
				"stage", StageTransform,
				"error", err)
			return nil
		default:
			return &Failure{Source: source, Stage: StageTransform, Err: err}
		}
	}

	body := item.Marshal()
	err = t.publisher.Publish(ctx, t.cfg.RoutingKey, body)
	if err == nil {
		stats.Published++
		t.metrics.PublishResult(source, resultOK)
		logger.Info("Item published",
			"item", item.Name,
			"id", item.ExternalID,
			"price", item.Price,
			"currency", item.Currency)
		return nil
	}

	dropped := DroppedItem{
		Source:     source,
		RoutingKey: t.cfg.RoutingKey,
		ExternalID: item.ExternalID,
		Name:       item.Name,
		Payload:    body,
		Reason:     err.Error(),
		DroppedAt:  t.now().UTC(),
	}
	stats.Dropped++

	// Items lost to shutdown are journaled too; the write outlives ctx.
	if ctx.Err() != nil {
		t.metrics.PublishResult(source, resultCancelled)
		logger.Warn("Item dropped, publish cancelled",
			"stage", StagePublish,
			"item", item.Name,
			"id", item.ExternalID,
			"error", err)
		dropped.Reason = fmt.Sprintf("%s: %v", resultCancelled, err)
		t.recordDropped(context.WithoutCancel(ctx), logger, dropped)
		return ctx.Err()
	}

	t.metrics.PublishResult(source, resultFailed)
	logger.Error("Item dropped after publish retry",
		"stage", StagePublish,
		"item", item.Name,
		"id", item.ExternalID,
		"error", err)

	t.recordDropped(ctx, logger, dropped)
	return nil
}

func (t *Task[R]) recordDropped(ctx context.Context, logger *slog.Logger, item DroppedItem) {
	if t.journal == nil {
		t.metrics.JournalWrite(item.Source, resultDisabled)
		return
	}

	if err := t.journal.RecordDropped(ctx, item); err != nil {
		t.metrics.JournalWrite(item.Source, resultFailed)
		logger.Error("Failed to journal dropped item",
			"stage", StagePublish,
			"id", item.ExternalID,
			"error", fmt.Errorf("record dropped: %w", err))
		return
	}
	t.metrics.JournalWrite(item.Source, resultOK)
}

type noopMetrics struct{}

func (noopMetrics) FetchResult(string, string, string) {}
func (noopMetrics) Matched(string, int)                {}
func (noopMetrics) PublishResult(string, string)       {}
func (noopMetrics) JournalWrite(string, string)        {}
func (noopMetrics) PassDuration(string, time.Duration) {}
