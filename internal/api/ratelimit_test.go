package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/technova/supportbot/internal/log"
)

func TestRateLimiter_Burst(t *testing.T) {
	rl := newRateLimiter(0, 3) // no refill, 3 tokens

	for i := range 3 {
		if !rl.allow("10.0.0.1") {
			t.Fatalf("request %d denied within burst", i+1)
		}
	}
	if rl.allow("10.0.0.1") {
		t.Error("request allowed after burst exhausted")
	}
}

func TestRateLimiter_PerIP(t *testing.T) {
	rl := newRateLimiter(0, 1)

	if !rl.allow("10.0.0.1") {
		t.Fatal("first request from 10.0.0.1 denied")
	}
	if rl.allow("10.0.0.1") {
		t.Error("second request from 10.0.0.1 allowed")
	}
	// A different IP has its own bucket.
	if !rl.allow("10.0.0.2") {
		t.Error("first request from 10.0.0.2 denied")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := newRateLimiter(0, 1)
	handler := rateLimitMiddleware(rl, false, log.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/ask", nil)
	r.RemoteAddr = "10.0.0.1:34567"
	handler.ServeHTTP(first, r)
	if first.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want %d", first.Code, http.StatusOK)
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, r)
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want %d", second.Code, http.StatusTooManyRequests)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Error("429 response missing Retry-After header")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		realIP     string
		forwarded  string
		trustProxy bool
		want       string
	}{
		{
			name:       "remote addr only",
			remoteAddr: "192.0.2.10:54321",
			want:       "192.0.2.10",
		},
		{
			name:       "proxy headers ignored without trust",
			remoteAddr: "192.0.2.10:54321",
			realIP:     "203.0.113.5",
			want:       "192.0.2.10",
		},
		{
			name:       "x-real-ip preferred",
			remoteAddr: "192.0.2.10:54321",
			realIP:     "203.0.113.5",
			forwarded:  "198.51.100.7",
			trustProxy: true,
			want:       "203.0.113.5",
		},
		{
			name:       "x-forwarded-for first hop",
			remoteAddr: "192.0.2.10:54321",
			forwarded:  "198.51.100.7, 203.0.113.5",
			trustProxy: true,
			want:       "198.51.100.7",
		},
		{
			name:       "invalid header falls back to remote addr",
			remoteAddr: "192.0.2.10:54321",
			realIP:     "not-an-ip",
			trustProxy: true,
			want:       "192.0.2.10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tt.forwarded)
			}

			if got := clientIP(r, tt.trustProxy); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
