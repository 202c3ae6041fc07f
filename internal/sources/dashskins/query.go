package dashskins

import (
	"net/url"
	"strconv"
	"time"
)

// emptyFilters are sent blank on every listing request.
var emptyFilters = []string{
	"search", "rarity", "itemset", "exterior", "weapon",
	"has_sticker", "has_charm", "has_stattrak", "is_souvenir", "is_instant",
	"price_min", "price_max",
}

// BuildQuery returns the listing parameters for one item type, sorted by
// discount descending. now only feeds the cache-busting t parameter.
func BuildQuery(cfg Config, category string, now time.Time) url.Values {
	q := url.Values{}
	for _, key := range emptyFilters {
		q.Set(key, "")
	}
	q.Set("item_type", category)
	q.Set("sort_by", "discount")
	q.Set("sort_dir", "desc")
	q.Set("page", "1")
	q.Set("limit", strconv.Itoa(cfg.PageLimit))
	q.Set("t", strconv.FormatInt(now.UnixMilli(), 10))
	return q
}
