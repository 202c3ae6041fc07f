package pipeline

import "github.com/samber/lo"

// Filter keeps records whose discount is at least min, in input order.
func Filter[R any](records []R, discount func(R) float64, min float64) []R {
	return lo.Filter(records, func(rec R, _ int) bool {
		return discount(rec) >= min
	})
}
