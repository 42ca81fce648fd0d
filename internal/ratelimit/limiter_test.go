package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestAllowWithinBurst(t *testing.T) {
	l := New(&Config{PerMinute: 1, Burst: 3})

	for i := 0; i < 3; i++ {
		if !l.Allow("10.1.2.3") {
			t.Fatalf("request %d should be allowed within burst", i+1)
		}
	}
	if l.Allow("10.1.2.3") {
		t.Error("request beyond burst should be denied")
	}
}

func TestAllowIsPerKey(t *testing.T) {
	l := New(&Config{PerMinute: 1, Burst: 1})

	if !l.Allow("10.0.0.1") {
		t.Fatal("first client should be allowed")
	}
	if l.Allow("10.0.0.1") {
		t.Error("first client should be exhausted")
	}
	if !l.Allow("10.0.0.2") {
		t.Error("second client should have its own bucket")
	}
}

func TestBucketRefills(t *testing.T) {
	// 6000 per minute = 100 tokens per second
	l := New(&Config{PerMinute: 6000, Burst: 1})

	if !l.Allow("k") {
		t.Fatal("first request should be allowed")
	}
	if l.Allow("k") {
		t.Fatal("bucket should be empty")
	}
	time.Sleep(50 * time.Millisecond)
	if !l.Allow("k") {
		t.Error("bucket should have refilled")
	}
}

func TestIdleClientsDropped(t *testing.T) {
	l := New(&Config{PerMinute: 60, Burst: 1, IdleTTL: time.Nanosecond})
	l.Allow("stale")

	time.Sleep(time.Millisecond)
	l.lastGC = time.Time{}
	l.Allow("fresh")

	l.mu.Lock()
	_, staleKept := l.clients["stale"]
	l.mu.Unlock()
	if staleKept {
		t.Error("idle client should have been dropped")
	}
}

func TestGetClientIPDirect(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.7:54321"
	r.Header.Set("X-Forwarded-For", "198.51.100.9")

	if got := GetClientIP(r, false); got != "203.0.113.7" {
		t.Errorf("untrusted proxy should use RemoteAddr, got %q", got)
	}
}

func TestGetClientIPTrustedProxy(t *testing.T) {
	tests := []struct {
		name string
		xff  string
		want string
	}{
		{"single public", "198.51.100.9", "198.51.100.9"},
		{"rightmost public wins", "1.2.3.4, 198.51.100.9", "198.51.100.9"},
		{"skips private", "198.51.100.9, 10.0.0.5", "198.51.100.9"},
		{"all private uses last", "10.0.0.1, 192.168.1.2", "192.168.1.2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = "127.0.0.1:1234"
			r.Header.Set("X-Forwarded-For", tt.xff)
			if got := GetClientIP(r, true); got != tt.want {
				t.Errorf("GetClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSanitizeIdentifier(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"coach@rinkside.io", "co***@rinkside.io"},
		{"ab@x.io", "***@x.io"},
		{"2125551234", "***1234"},
		{"abc", "***"},
	}
	for _, tt := range tests {
		if got := SanitizeIdentifier(tt.in); got != tt.want {
			t.Errorf("SanitizeIdentifier(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
