package middleware

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientIPGeneric_DirectRemote(t *testing.T) {
	req := httptest.NewRequest("GET", "http://example.local/", nil)
	req.RemoteAddr = "203.0.113.5:54321"
	ip := clientIPGeneric(req, nil)
	if ip != "203.0.113.5" {
		t.Fatalf("expected direct remote IP, got %s", ip)
	}
}

func TestClientIPGeneric_TrustedProxyXFF(t *testing.T) {
	req := httptest.NewRequest("GET", "http://example.local/", nil)
	req.RemoteAddr = "198.51.100.10:443"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 198.51.100.10")
	// trusted list contains the remote IP
	ip := clientIPGeneric(req, []string{"198.51.100.10"})
	if ip != "203.0.113.7" {
		t.Fatalf("expected X-Forwarded-For first value, got %s", ip)
	}
}

func TestClientIPGeneric_UntrustedProxyIgnoresXFF(t *testing.T) {
	req := httptest.NewRequest("GET", "http://example.local/", nil)
	req.RemoteAddr = "198.51.100.11:443"
	req.Header.Set("X-Forwarded-For", "203.0.113.8, 198.51.100.11")
	ip := clientIPGeneric(req, []string{"198.51.100.10"})
	if ip != "198.51.100.11" {
		t.Fatalf("expected remote IP when proxy untrusted, got %s", ip)
	}
}

func TestClientIPGeneric_TrustedCIDR(t *testing.T) {
	req := httptest.NewRequest("GET", "http://example.local/", nil)
	req.RemoteAddr = "10.0.3.44:8080"
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	ip := clientIPGeneric(req, []string{"10.0.0.0/8"})
	if ip != "203.0.113.9" {
		t.Fatalf("expected X-Forwarded-For value for CIDR-trusted proxy, got %s", ip)
	}
}

func TestWindowBlocksAfterLimit(t *testing.T) {
	w := newWindow(2, time.Minute)
	if !w.allow("k") || !w.allow("k") {
		t.Fatal("first two calls should be admitted")
	}
	if w.allow("k") {
		t.Fatal("third call inside window should be blocked")
	}
	if !w.allow("other") {
		t.Fatal("separate keys must not share a window")
	}
}
