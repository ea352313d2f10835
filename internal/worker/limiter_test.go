package worker

import (
	"context"
	"testing"
	"time"
)

func TestNewLimiter_Burst(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{5, 5},
		{0, 5},
		{-1, 5},
		{1, 1},
	}
	for _, tt := range tests {
		if got := NewLimiter(10, tt.in).burst; got != tt.want {
			t.Errorf("NewLimiter(10, %d).burst = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestLimiter_PerHostBuckets(t *testing.T) {
	limiter := NewLimiter(1, 1)
	annotator := "http://annotator.local/annotate"

	if err := limiter.Wait(context.Background(), annotator); err != nil {
		t.Fatalf("first wait failed: %v", err)
	}
	if limiter.Allow(annotator) {
		t.Error("expected the annotator bucket to be empty")
	}
	if limiter.Allow("HTTP://ANNOTATOR.LOCAL/other") {
		t.Error("expected host matching to ignore case")
	}
	if !limiter.Allow("http://morph.local/parse") {
		t.Error("expected the morph host to have its own bucket")
	}
	if limiter.Delayed() != 0 {
		t.Errorf("expected no delayed calls, got %d", limiter.Delayed())
	}
}

func TestLimiter_WaitDelays(t *testing.T) {
	limiter := NewLimiter(50, 1)
	endpoint := "http://annotator.local/annotate"
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := limiter.Wait(ctx, endpoint); err != nil {
			t.Fatalf("wait %d failed: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("expected throttling, finished in %s", elapsed)
	}
	if limiter.Delayed() != 2 {
		t.Errorf("expected 2 delayed calls, got %d", limiter.Delayed())
	}
}

func TestLimiter_WaitHonoursContext(t *testing.T) {
	limiter := NewLimiter(0.01, 1)
	endpoint := "http://annotator.local/annotate"
	if !limiter.Allow(endpoint) {
		t.Fatal("first request should pass")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := limiter.Wait(ctx, endpoint); err == nil {
		t.Error("expected Wait to fail once the context expires")
	}
}

func TestLimiter_Unlimited(t *testing.T) {
	limiter := NewLimiter(0, 1)
	for i := 0; i < 100; i++ {
		if !limiter.Allow("http://annotator.local") {
			t.Fatalf("request %d rejected by unlimited limiter", i)
		}
	}
}

func TestLimiter_Nil(t *testing.T) {
	var limiter *Limiter
	if err := limiter.Wait(context.Background(), "::bad"); err != nil {
		t.Errorf("nil limiter should not fail: %v", err)
	}
	if !limiter.Allow("http://annotator.local") || limiter.Delayed() != 0 {
		t.Error("nil limiter should allow everything")
	}
}

func TestEndpointHost(t *testing.T) {
	tests := []struct {
		endpoint string
		want     string
		wantErr  bool
	}{
		{"http://localhost:8080/annotate", "localhost:8080", false},
		{"https://Morph.Example.org/parse", "morph.example.org", false},
		{"::invalid", "", true},
		{"/relative/path", "", true},
	}
	for _, tt := range tests {
		got, err := endpointHost(tt.endpoint)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("endpointHost(%q) = %q, %v", tt.endpoint, got, err)
		}
	}
}
