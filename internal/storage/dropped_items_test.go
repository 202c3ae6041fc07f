package storage

import (
	"context"
	"testing"
	"time"

	"skin-monitor/internal/infra/sqlite3"
	"skin-monitor/internal/stories/pipeline"
)

func newTestStorage(t *testing.T) *storageImpl {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite3.New(ctx)
	if err != nil {
		t.Fatalf("sqlite3.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(ctx, Schema...); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	// Migrations must be safe to rerun.
	if err := db.Migrate(ctx, Schema...); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	return New(db.DB)
}

func TestRecordAndListDropped(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	entries := []pipeline.DroppedItem{
		{Source: "bitskins", RoutingKey: "skin.market.bitskins", ExternalID: "1", Name: "AK-47 | Redline", Payload: []byte(`{"id":"1"}`), Reason: "rabbitmq publish failed", DroppedAt: base},
		{Source: "dashskins", RoutingKey: "skin.market.dashskins", ExternalID: "2", Name: "Karambit | Fade", Payload: []byte(`{"id":"2"}`), Reason: "timeout", DroppedAt: base.Add(time.Minute)},
		{Source: "bitskins", RoutingKey: "skin.market.bitskins", ExternalID: "3", Name: "M4A4 | Howl", Payload: []byte(`{"id":"3"}`), Reason: "closed", DroppedAt: base.Add(2 * time.Minute)},
	}
	for _, e := range entries {
		if err := s.RecordDropped(ctx, e); err != nil {
			t.Fatalf("RecordDropped: %v", err)
		}
	}

	tests := []struct {
		name     string
		criteria ListDroppedCriteria
		wantIDs  []string
	}{
		{name: "all newest first", criteria: ListDroppedCriteria{}, wantIDs: []string{"3", "2", "1"}},
		{name: "limit", criteria: ListDroppedCriteria{Limit: 2}, wantIDs: []string{"3", "2"}},
		{name: "by source", criteria: ListDroppedCriteria{Source: "bitskins"}, wantIDs: []string{"3", "1"}},
		{name: "unknown source", criteria: ListDroppedCriteria{Source: "steam"}, wantIDs: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListDropped(ctx, tt.criteria)
			if err != nil {
				t.Fatalf("ListDropped: %v", err)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("got %d entries, want %d", len(got), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if got[i].ExternalID != id {
					t.Errorf("entry %d id = %q, want %q", i, got[i].ExternalID, id)
				}
			}
		})
	}

	got, err := s.ListDropped(ctx, ListDroppedCriteria{Limit: 1})
	if err != nil {
		t.Fatalf("ListDropped: %v", err)
	}
	e := got[0]
	if string(e.Payload) != `{"id":"3"}` || e.Reason != "closed" || e.RoutingKey != "skin.market.bitskins" || !e.DroppedAt.Equal(base.Add(2*time.Minute)) {
		t.Errorf("entry = %+v", e)
	}

	n, err := s.CountDropped(ctx)
	if err != nil || n != 3 {
		t.Fatalf("CountDropped = %d, %v", n, err)
	}
}

func TestRecordDroppedDefaultsTimestamp(t *testing.T) {
	s := newTestStorage(t)
	fixed := time.Date(2026, 5, 5, 5, 5, 5, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	if err := s.RecordDropped(context.Background(), pipeline.DroppedItem{Source: "bitskins", ExternalID: "x", Payload: []byte("{}")}); err != nil {
		t.Fatalf("RecordDropped: %v", err)
	}

	got, err := s.ListDropped(context.Background(), ListDroppedCriteria{})
	if err != nil {
		t.Fatalf("ListDropped: %v", err)
	}
	if len(got) != 1 || !got[0].DroppedAt.Equal(fixed) {
		t.Fatalf("got %+v", got)
	}
}
