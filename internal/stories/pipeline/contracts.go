package pipeline

import (
	"context"
	"time"

	"skin-monitor/internal/stories/items"
)

type (
	// Source is a marketplace adapter. Fetch must honor its own request
	// timeout and report expected HTTP failures as ErrTransientFetch.
	Source[R any] interface {
		Name() string
		Categories() []string
		Fetch(ctx context.Context, category string) (*Page[R], error)
		Discount(rec R) float64
		Transform(ctx context.Context, rec R) (*items.Item, error)
	}

	Publisher interface {
		Publish(ctx context.Context, routingKey string, body []byte) error
	}

	Journal interface {
		RecordDropped(ctx context.Context, item DroppedItem) error
	}

	// Heartbeat is beaten at the start of every pass.
	Heartbeat interface {
		Beat()
	}

	Metrics interface {
		FetchResult(source, category, result string)
		Matched(source string, n int)
		PublishResult(source, result string)
		JournalWrite(source, result string)
		PassDuration(source string, d time.Duration)
	}
)
