// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterAllowsUnderLimit(t *testing.T) {
	rl := NewRateLimiter("test", 5, time.Minute)
	defer rl.Stop()

	for i := 0; i < 5; i++ {
		ok, _ := rl.allow("1.2.3.4")
		if !ok {
			t.Fatalf("request %d denied, want allowed", i+1)
		}
	}
}

func TestRateLimiterDeniesOverLimit(t *testing.T) {
	rl := NewRateLimiter("test", 3, time.Minute)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		rl.allow("1.2.3.4")
	}

	ok, retryAfter := rl.allow("1.2.3.4")
	if ok {
		t.Fatal("expected denial after limit reached")
	}
	if retryAfter < 1 || retryAfter > 61 {
		t.Errorf("retryAfter: got %d, want within the window", retryAfter)
	}
}

func TestRateLimiterPerClientIsolation(t *testing.T) {
	rl := NewRateLimiter("test", 1, time.Minute)
	defer rl.Stop()

	rl.allow("1.1.1.1")
	if ok, _ := rl.allow("2.2.2.2"); !ok {
		t.Error("second client denied by first client's usage")
	}
}

func TestRateLimiterWindowExpiry(t *testing.T) {
	rl := NewRateLimiter("test", 1, 30*time.Millisecond)
	defer rl.Stop()

	rl.allow("1.2.3.4")
	if ok, _ := rl.allow("1.2.3.4"); ok {
		t.Fatal("expected denial inside window")
	}

	time.Sleep(40 * time.Millisecond)

	if ok, _ := rl.allow("1.2.3.4"); !ok {
		t.Error("expected allowance after window expiry")
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl := NewRateLimiter("test", 1, time.Minute)
	defer rl.Stop()

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "9.9.9.9:1234"

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("first request: got %d, want 200", w.Code)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: got %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header on 429")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		xri        string
		want       string
	}{
		{"remote addr with port", "10.0.0.1:5000", "", "", "10.0.0.1"},
		{"x-forwarded-for single", "10.0.0.1:5000", "203.0.113.7", "", "203.0.113.7"},
		{"x-forwarded-for chain", "10.0.0.1:5000", "203.0.113.7, 10.0.0.2", "", "203.0.113.7"},
		{"x-real-ip", "10.0.0.1:5000", "", "198.51.100.3", "198.51.100.3"},
		{"xff beats xri", "10.0.0.1:5000", "203.0.113.7", "198.51.100.3", "203.0.113.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}

			if got := clientIP(r); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
