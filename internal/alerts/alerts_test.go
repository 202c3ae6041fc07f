package alerts

import (
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	s, err := NewService()
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	params := map[string]interface{}{
		"name":         "bitskins",
		"restarts":     10,
		"max_restarts": 10,
		"error":        "boom",
		"time":         "2026-01-01 12:00:00",
	}

	tests := []struct {
		name string
		lang string
		key  string
		want []string
	}{
		{name: "english", lang: "en", key: KeyWorkerStopped, want: []string{"Worker stopped", "`bitskins`", "`10/10`", "`boom`"}},
		{name: "portuguese", lang: "pt", key: KeyWorkerStopped, want: []string{"Worker parado", "`bitskins`"}},
		{name: "unknown language falls back", lang: "de", key: KeyWorkerStopped, want: []string{"Worker stopped"}},
		{name: "unknown key", lang: "en", key: "worker.missing", want: []string{"worker.missing"}},
		{name: "key through a leaf", lang: "en", key: "worker.stopped.deeper", want: []string{"worker.stopped.deeper"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Get(tt.lang, tt.key, params)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("Get(%q, %q) = %q, missing %q", tt.lang, tt.key, got, w)
				}
			}
			if strings.Contains(got, "{{") {
				t.Errorf("unreplaced placeholder in %q", got)
			}
		})
	}
}

func TestEveryLanguageHasEveryKey(t *testing.T) {
	s, err := NewService()
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	for _, lang := range Languages {
		for _, key := range []string{KeyWorkerUnhealthy, KeyWorkerRecovered, KeyWorkerStopped} {
			if got := s.Get(lang, key, nil); got == key {
				t.Errorf("%s: missing template %s", lang, key)
			}
		}
	}
	if !s.Supports("pt") || s.Supports("ru") {
		t.Errorf("Supports mismatch")
	}
}
