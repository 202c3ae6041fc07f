package pipeline

import "time"

// Page is one marketplace response.
type Page[R any] struct {
	Records []R
	Total   int
}

type Config struct {
	RoutingKey    string
	MinDiscount   float64
	CheckInterval time.Duration
}

// PassStats summarizes one pass over every category.
type PassStats struct {
	Categories  int
	FetchFailed int
	Fetched     int
	Matched     int
	Skipped     int
	Published   int
	Dropped     int
	Duration    time.Duration
}

// DroppedItem is an item the broker did not accept after the retry.
type DroppedItem struct {
	Source     string
	RoutingKey string
	ExternalID string
	Name       string
	Payload    []byte
	Reason     string
	DroppedAt  time.Time
}
