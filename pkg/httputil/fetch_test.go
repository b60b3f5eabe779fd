package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/mapstyle/pkg/cache"
)

func TestFetcherCaches(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if ua := r.Header.Get("User-Agent"); ua == "" {
			t.Error("missing User-Agent")
		}
		_, _ = w.Write([]byte(`name = "demo"`))
	}))
	defer srv.Close()

	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	f := NewFetcher(c)

	for i := 0; i < 2; i++ {
		body, err := f.Get(context.Background(), "scene:test", srv.URL)
		if err != nil {
			t.Fatalf("Get() error: %v", err)
		}
		if string(body) != `name = "demo"` {
			t.Errorf("Get() = %q", body)
		}
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("server hit %d times, want 1", n)
	}
}

func TestFetcherStatus(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantCalls int32
		wantErr   error
	}{
		{"not found", http.StatusNotFound, 1, ErrNotFound},
		{"server error retried", http.StatusBadGateway, 2, ErrNetwork},
		{"rate limited retried", http.StatusTooManyRequests, 2, ErrNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			f := NewFetcher(nil, WithRetry(2, time.Millisecond))
			_, err := f.Get(context.Background(), "k", srv.URL)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if got := calls.Load(); got != tt.wantCalls {
				t.Errorf("calls = %d, want %d", got, tt.wantCalls)
			}
		})
	}
}
