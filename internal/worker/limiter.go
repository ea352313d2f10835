package worker

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Limiter throttles calls to annotation and morphology services.
// Every host gets its own token bucket; a nil *Limiter never throttles.
type Limiter struct {
	limit   rate.Limit
	burst   int
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	delayed atomic.Int64
}

// NewLimiter creates a limiter. A non-positive rate disables throttling.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}
	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}
	return &Limiter{
		limit:   limit,
		burst:   burst,
		buckets: make(map[string]*rate.Limiter),
	}
}

// Wait blocks until a call to endpoint is allowed or ctx is done
func (l *Limiter) Wait(ctx context.Context, endpoint string) error {
	if l == nil {
		return nil
	}
	host, err := endpointHost(endpoint)
	if err != nil {
		return err
	}

	r := l.bucket(host).Reserve()
	delay := r.Delay()
	if delay == 0 {
		return nil
	}
	l.delayed.Add(1)

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	}
}

// Allow reports whether a call to endpoint may proceed now, consuming a token if so
func (l *Limiter) Allow(endpoint string) bool {
	if l == nil {
		return true
	}
	host, err := endpointHost(endpoint)
	if err != nil {
		return false
	}
	return l.bucket(host).Allow()
}

// Delayed returns how many calls had to wait for a token
func (l *Limiter) Delayed() int64 {
	if l == nil {
		return 0
	}
	return l.delayed.Load()
}

func (l *Limiter) bucket(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[host]
	if !ok {
		b = rate.NewLimiter(l.limit, l.burst)
		l.buckets[host] = b
	}
	return b
}

// endpointHost returns the lower-cased host[:port] of a service URL
func endpointHost(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("endpoint %q has no host", endpoint)
	}
	return strings.ToLower(u.Host), nil
}
