package pricing

import "context"

type (
	// Client performs the external price lookup. A nil quote with a nil
	// error means the service has no price for the name.
	Client interface {
		LookupPrice(ctx context.Context, name string) (*Quote, error)
	}

	Metrics interface {
		CacheResult(source, result string)
	}
)
