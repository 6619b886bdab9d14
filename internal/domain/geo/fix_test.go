package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestIPFallbackAcquire(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"latitude": 30.25, "longitude": -97.75}`))
	}))
	defer ts.Close()

	acquirer := NewIPFallbackAcquirer(ts.URL, 2*time.Second)
	fix, err := acquirer.Acquire(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !fix.HasCoordinates() {
		t.Fatal("expected coordinates on fix")
	}
	if *fix.Lat != 30.25 || *fix.Lng != -97.75 {
		t.Fatalf("unexpected coordinates: %v, %v", *fix.Lat, *fix.Lng)
	}
	if fix.Source == nil || *fix.Source != SourceIPFallback {
		t.Fatal("expected ip_fallback source")
	}
}

func TestIPFallbackAcquireTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer ts.Close()

	acquirer := NewIPFallbackAcquirer(ts.URL, 50*time.Millisecond)
	fix, err := acquirer.Acquire(context.Background())
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if fix.HasCoordinates() {
		t.Fatal("expected no coordinates on timed-out fix")
	}
	if fix.Err == nil {
		t.Fatal("expected error recorded on fix")
	}
}

func TestIPFallbackAcquireBadStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	acquirer := NewIPFallbackAcquirer(ts.URL, time.Second)
	if _, err := acquirer.Acquire(context.Background()); err == nil {
		t.Fatal("expected error for non-200 lookup response")
	}
}
