package storage

import (
	"reflect"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

// Schema lists the idempotent statements the journal needs.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS dropped_items (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		source      TEXT NOT NULL,
		routing_key TEXT NOT NULL,
		external_id TEXT NOT NULL,
		name        TEXT NOT NULL,
		payload     BLOB NOT NULL,
		reason      TEXT NOT NULL,
		dropped_at  DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_dropped_items_dropped_at ON dropped_items (dropped_at)`,
}

type storageImpl struct {
	db  *sqlx.DB
	now func() time.Time
}

func New(db *sqlx.DB) *storageImpl {
	return &storageImpl{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (s *storageImpl) stmpBuilder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}

// fields returns the db-tagged columns of a row struct.
func fields(data any) string {
	var cols []string
	r := reflect.TypeOf(data)
	for i := 0; i < r.NumField(); i++ {
		if tag := r.Field(i).Tag.Get("db"); tag != "" {
			cols = append(cols, tag)
		}
	}
	return strings.Join(cols, ",")
}
