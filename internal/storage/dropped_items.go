package storage

import (
	"context"
	"fmt"
	"time"

	"skin-monitor/internal/stories/pipeline"
)

const droppedItemsTable = "dropped_items"

var droppedItemRowFields = fields(droppedItemRow{})

type droppedItemRow struct {
	ID         int64     `db:"id"`
	Source     string    `db:"source"`
	RoutingKey string    `db:"routing_key"`
	ExternalID string    `db:"external_id"`
	Name       string    `db:"name"`
	Payload    []byte    `db:"payload"`
	Reason     string    `db:"reason"`
	DroppedAt  time.Time `db:"dropped_at"`
}

func (r droppedItemRow) ToModel() pipeline.DroppedItem {
	return pipeline.DroppedItem{
		Source:     r.Source,
		RoutingKey: r.RoutingKey,
		ExternalID: r.ExternalID,
		Name:       r.Name,
		Payload:    r.Payload,
		Reason:     r.Reason,
		DroppedAt:  r.DroppedAt.UTC(),
	}
}

func (s *storageImpl) RecordDropped(ctx context.Context, item pipeline.DroppedItem) error {
	droppedAt := item.DroppedAt
	if droppedAt.IsZero() {
		droppedAt = s.now()
	}

	params := map[string]interface{}{
		"source":      item.Source,
		"routing_key": item.RoutingKey,
		"external_id": item.ExternalID,
		"name":        item.Name,
		"payload":     item.Payload,
		"reason":      item.Reason,
		"dropped_at":  droppedAt.UTC(),
	}

	q, args, err := s.stmpBuilder().
		Insert(droppedItemsTable).
		SetMap(params).
		ToSql()
	if err != nil {
		return fmt.Errorf("build sql query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("db.ExecContext: %w", err)
	}
	return nil
}

type ListDroppedCriteria struct {
	Source string
	Limit  int
}

// ListDropped returns journal entries newest first.
func (s *storageImpl) ListDropped(ctx context.Context, criteria ListDroppedCriteria) ([]pipeline.DroppedItem, error) {
	query := s.stmpBuilder().
		Select(droppedItemRowFields).
		From(droppedItemsTable).
		OrderBy("dropped_at DESC", "id DESC")

	if criteria.Source != "" {
		query = query.Where("source = ?", criteria.Source)
	}
	if criteria.Limit > 0 {
		query = query.Limit(uint64(criteria.Limit))
	}

	q, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	var rows []droppedItemRow
	if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("db.SelectContext: %w", err)
	}

	items := make([]pipeline.DroppedItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.ToModel())
	}
	return items, nil
}

func (s *storageImpl) CountDropped(ctx context.Context) (int, error) {
	q, args, err := s.stmpBuilder().
		Select("COUNT(*)").
		From(droppedItemsTable).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build sql query: %w", err)
	}

	var n int
	if err := s.db.GetContext(ctx, &n, q, args...); err != nil {
		return 0, fmt.Errorf("db.GetContext: %w", err)
	}
	return n, nil
}
