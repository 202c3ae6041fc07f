package pipeline

import (
	"reflect"
	"testing"
)

type discounted struct {
	id       string
	discount float64
}

func discountOf(d discounted) float64 { return d.discount }

func TestFilter(t *testing.T) {
	records := []discounted{{"a", 20}, {"b", 55}, {"c", 70}, {"d", 50}, {"e", 49.9}}

	tests := []struct {
		name      string
		records   []discounted
		threshold float64
		want      []string
	}{
		{name: "keeps at or above threshold in order", records: records, threshold: 50, want: []string{"b", "c", "d"}},
		{name: "threshold is inclusive", records: records, threshold: 70, want: []string{"c"}},
		{name: "nothing qualifies", records: records, threshold: 90, want: []string{}},
		{name: "zero threshold keeps all", records: records, threshold: 0, want: []string{"a", "b", "c", "d", "e"}},
		{name: "empty input", records: nil, threshold: 10, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(tt.records, discountOf, tt.threshold)

			ids := make([]string, 0, len(got))
			for _, rec := range got {
				ids = append(ids, rec.id)
			}
			if !reflect.DeepEqual(ids, tt.want) {
				t.Errorf("Filter(%v) = %v, want %v", tt.threshold, ids, tt.want)
			}
		})
	}
}
