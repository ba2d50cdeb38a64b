package handlers

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestLoginLimiterBlocksAfterMax(t *testing.T) {
	limiter := NewLoginLimiter(2, time.Minute)
	defer limiter.Stop()
	ip := "203.0.113.10"

	for i := 0; i < 2; i++ {
		if !limiter.Allow(ip) {
			t.Fatalf("attempt %d blocked too early", i+1)
		}
	}
	if limiter.Allow(ip) {
		t.Fatal("expected third attempt to be blocked")
	}
	if !limiter.Allow("203.0.113.11") {
		t.Fatal("limit must be per IP")
	}
	limiter.Reset(ip)
	if !limiter.Allow(ip) {
		t.Fatal("expected reset to clear attempts")
	}
}

func TestLoginLimiterResetsAfterWindow(t *testing.T) {
	limiter := NewLoginLimiter(1, 100*time.Millisecond)
	defer limiter.Stop()
	ip := "203.0.113.20"

	if !limiter.Allow(ip) {
		t.Fatal("first attempt blocked")
	}
	if limiter.Allow(ip) {
		t.Fatal("expected attempt to be blocked")
	}
	time.Sleep(150 * time.Millisecond)
	if !limiter.Allow(ip) {
		t.Fatal("expected attempt after window to be allowed")
	}
}

func TestLoginLimiterConcurrentAttemptsStayWithinMax(t *testing.T) {
	const limit = 5
	limiter := NewLoginLimiter(limit, time.Minute)
	defer limiter.Stop()
	ip := "203.0.113.30"

	var allowed atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if limiter.Allow(ip) {
				allowed.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if got := allowed.Load(); got != limit {
		t.Errorf("allowed %d concurrent attempts, want %d", got, limit)
	}
}
