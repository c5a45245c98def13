package api

import (
	"bytes"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRateLimiterAllow(t *testing.T) {
	limiter := NewRateLimiter(1, 2)

	// Burst of 2 for one client, then rejection.
	if !limiter.Allow("client-a") {
		t.Error("Expected first request to be allowed")
	}
	if !limiter.Allow("client-a") {
		t.Error("Expected second request to be allowed within burst")
	}
	if limiter.Allow("client-a") {
		t.Error("Expected third request to be rejected")
	}

	// A different client has its own budget.
	if !limiter.Allow("client-b") {
		t.Error("Expected different client to be allowed")
	}
}

func TestRateLimiterUnlimited(t *testing.T) {
	limiter := NewRateLimiter(0, 0)

	for i := 0; i < 50; i++ {
		if !limiter.Allow("client") {
			t.Fatalf("Expected request %d to be allowed with limiting disabled", i)
		}
	}
}

func TestRateLimiterDefaultBurst(t *testing.T) {
	limiter := NewRateLimiter(1, -1)

	if limiter.defaultBurst != 5 {
		t.Errorf("Expected default burst 5, got %d", limiter.defaultBurst)
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)

	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	logged := buf.String()
	if !strings.Contains(logged, "GET") {
		t.Errorf("Expected method in log line, got: %s", logged)
	}
	if !strings.Contains(logged, "/api/documents") {
		t.Errorf("Expected path in log line, got: %s", logged)
	}
	if !strings.Contains(logged, "418") {
		t.Errorf("Expected status code in log line, got: %s", logged)
	}
}

func TestClientAddr(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		expected   string
	}{
		{
			name:       "host and port",
			remoteAddr: "192.0.2.1:1234",
			expected:   "192.0.2.1",
		},
		{
			name:       "bare host",
			remoteAddr: "192.0.2.1",
			expected:   "192.0.2.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if got := clientAddr(req); got != tt.expected {
				t.Errorf("Expected client %s, got %s", tt.expected, got)
			}
		})
	}
}
