package bitskins

import (
	"github.com/go-faster/jx"
)

// Query is the search request body.
type Query struct {
	Offset int
	Limit  int

	TypeIDs    []int
	ExteriorID []int
	TypesubIDs []int
	PriceFrom  *int64
	PriceTo    *int64
}

// BuildQuery returns the first-page search for a category, sorted by
// discount descending.
func BuildQuery(cfg Config, category string) Query {
	q := Query{Offset: 0, Limit: cfg.PageLimit}

	switch category {
	case CategoryKnives:
		q.TypeIDs = knifeTypeIDs
	default:
		from, to := cfg.PriceFrom, cfg.PriceTo
		q.ExteriorID = weaponExteriors
		q.TypesubIDs = weaponSubtypeIDs
		q.PriceFrom = &from
		q.PriceTo = &to
	}
	return q
}

func (q Query) Marshal() []byte {
	var e jx.Encoder
	q.Encode(&e)
	return e.Bytes()
}

func (q Query) Encode(e *jx.Encoder) {
	e.ObjStart()

	e.FieldStart("order")
	e.ArrStart()
	e.ObjStart()
	e.FieldStart("field")
	e.Str("discount")
	e.FieldStart("order")
	e.Str("DESC")
	e.ObjEnd()
	e.ArrEnd()

	e.FieldStart("offset")
	e.Int(q.Offset)
	e.FieldStart("limit")
	e.Int(q.Limit)

	e.FieldStart("where")
	e.ObjStart()
	intArray(e, "type_id", q.TypeIDs)
	intArray(e, "exterior_id", q.ExteriorID)
	intArray(e, "typesub_id", q.TypesubIDs)
	if q.PriceFrom != nil {
		e.FieldStart("price_from")
		e.Int64(*q.PriceFrom)
	}
	if q.PriceTo != nil {
		e.FieldStart("price_to")
		e.Int64(*q.PriceTo)
	}
	e.ObjEnd()

	e.ObjEnd()
}

func intArray(e *jx.Encoder, name string, values []int) {
	if len(values) == 0 {
		return
	}
	e.FieldStart(name)
	e.ArrStart()
	for _, v := range values {
		e.Int(v)
	}
	e.ArrEnd()
}
