package daraja

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
)

func TestTokenCache_CachesUntilExpiry(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_ = json.NewEncoder(w).Encode(authTokenResponse{AccessToken: "tok-1", ExpiresIn: "3599"})
	}))
	defer server.Close()

	tc := newTokenCache(server.Client())

	for i := 0; i < 5; i++ {
		token, err := tc.get(context.Background(), server.URL, "key", "secret")
		if err != nil {
			t.Fatalf("get() error = %v", err)
		}
		if token != "tok-1" {
			t.Errorf("get() = %q, want tok-1", token)
		}
	}

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected exactly 1 upstream call, got %d", got)
	}
}

func TestTokenCache_CoalescesConcurrentFetches(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_ = json.NewEncoder(w).Encode(authTokenResponse{AccessToken: "tok-1", ExpiresIn: "3599"})
	}))
	defer server.Close()

	tc := newTokenCache(server.Client())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := tc.get(context.Background(), server.URL, "key", "secret"); err != nil {
				t.Errorf("get() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected concurrent fetches to coalesce into 1 upstream call, got %d", got)
	}
}
