package webapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"skin-monitor/internal/stories/pipeline"
)

func TestDoJSON(t *testing.T) {
	tests := []struct {
		name      string
		handler   http.HandlerFunc
		timeout   time.Duration
		wantErr   bool
		wantValue string
	}{
		{
			name: "ok",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"value":"x"}`)
			},
			wantValue: "x",
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			wantErr: true,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `<html>`)
			},
			wantErr: true,
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(time.Second):
				}
			},
			timeout: 20 * time.Millisecond,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := New(tt.timeout, WithHeader("User-Agent", "test-agent"))
			req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
			if err != nil {
				t.Fatalf("NewRequest: %v", err)
			}

			var out struct {
				Value string `json:"value"`
			}
			err = c.DoJSON(context.Background(), req, &out)

			if tt.wantErr {
				if !errors.Is(err, pipeline.ErrTransientFetch) {
					t.Fatalf("err = %v, want ErrTransientFetch", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DoJSON: %v", err)
			}
			if out.Value != tt.wantValue {
				t.Errorf("value = %q", out.Value)
			}
		})
	}
}

func TestDoJSONSendsHeaders(t *testing.T) {
	var agent, accept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent, accept = r.Header.Get("User-Agent"), r.Header.Get("Accept")
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	c := New(0, WithHeader("User-Agent", "Mozilla/5.0"))
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	var out map[string]any
	if err := c.DoJSON(context.Background(), req, &out); err != nil {
		t.Fatalf("DoJSON: %v", err)
	}
	if agent != "Mozilla/5.0" || accept != "application/json" {
		t.Errorf("headers = %q / %q", agent, accept)
	}
}

func TestFlexValues(t *testing.T) {
	var rec struct {
		A FlexString `json:"a"`
		B FlexString `json:"b"`
		C FlexString `json:"c"`
		D FlexInt    `json:"d"`
		E FlexInt    `json:"e"`
		F FlexInt    `json:"f"`
		G FlexInt    `json:"g"`
	}
	data := `{"a":"abc","b":123456789012,"c":null,"d":42,"e":"17","f":null}`
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if rec.A != "abc" || rec.B != "123456789012" || rec.C != "" || rec.C.Ptr() != nil {
		t.Errorf("strings = %q %q %q", rec.A, rec.B, rec.C)
	}
	if !rec.D.Set || rec.D.Value != 42 || !rec.E.Set || rec.E.Value != 17 {
		t.Errorf("ints = %+v %+v", rec.D, rec.E)
	}
	if rec.F.Set || rec.F.Ptr() != nil || rec.G.Set {
		t.Errorf("absent ints should be unset: %+v %+v", rec.F, rec.G)
	}

	var bad struct {
		X FlexInt `json:"x"`
	}
	if err := json.Unmarshal([]byte(`{"x":"n/a"}`), &bad); err == nil {
		t.Errorf("expected error for non numeric string")
	}
}
