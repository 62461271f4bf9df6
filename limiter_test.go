package jobscope

import (
	"testing"
	"time"
)

func newTestLimiter(t *testing.T, max int, window time.Duration) *LoginLimiter {
	t.Helper()
	l := NewLoginLimiter(max, window)
	t.Cleanup(l.Stop)
	return l
}

func TestLoginLimiterBlocksAfterMax(t *testing.T) {
	limiter := newTestLimiter(t, 2, 200*time.Millisecond)
	ip := "203.0.113.10"

	if !limiter.Allow(ip) {
		t.Fatalf("expected first attempt to be allowed")
	}
	if !limiter.Allow(ip) {
		t.Fatalf("expected second attempt to be allowed")
	}
	if limiter.Allow(ip) {
		t.Fatalf("expected third attempt to be blocked")
	}
}

func TestLoginLimiterResetsAfterWindow(t *testing.T) {
	limiter := newTestLimiter(t, 1, 150*time.Millisecond)
	ip := "203.0.113.20"

	if !limiter.Allow(ip) {
		t.Fatalf("expected first attempt to be allowed")
	}
	if limiter.Allow(ip) {
		t.Fatalf("expected second attempt to be blocked")
	}

	time.Sleep(200 * time.Millisecond)
	if !limiter.Allow(ip) {
		t.Fatalf("expected attempt after window to be allowed")
	}
}

func TestLoginLimiterIsPerIP(t *testing.T) {
	limiter := newTestLimiter(t, 1, 200*time.Millisecond)

	if !limiter.Allow("203.0.113.30") {
		t.Fatalf("expected first ip to be allowed")
	}
	if !limiter.Allow("203.0.113.31") {
		t.Fatalf("expected second ip to be allowed independently")
	}
	if limiter.Allow("203.0.113.30") {
		t.Fatalf("expected first ip to be blocked after max")
	}
}

func TestLoginLimiterCheckRecordReset(t *testing.T) {
	limiter := newTestLimiter(t, 2, time.Minute)
	ip := "203.0.113.40"

	for i := 0; i < 2; i++ {
		if !limiter.Check(ip) {
			t.Fatalf("Check before attempt %d = false, want true", i+1)
		}
		limiter.Record(ip)
	}
	if limiter.Check(ip) {
		t.Fatalf("Check after 2 failures = true, want false")
	}
	limiter.Reset(ip)
	if !limiter.Check(ip) {
		t.Fatalf("Check after Reset = false, want true")
	}
}

func TestLoginLimiterStopIsIdempotent(t *testing.T) {
	limiter := NewLoginLimiter(1, time.Millisecond)
	limiter.Stop()
	limiter.Stop()
}
