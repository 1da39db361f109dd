package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sapcc/go-bits/assert"

	"github.com/yaroslaff/sashimidb/internal/auth"
)

func TestClientIPFromHeader(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

	ip, err := auth.ClientIP(r, "X-Forwarded-For")
	if err != nil {
		t.Fatalf("ClientIP: %v", err)
	}
	assert.DeepEqual(t, "first forwarded IP", ip, "203.0.113.9")
}

func TestClientIPFromSocketPeer(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "198.51.100.7:54321"

	ip, err := auth.ClientIP(r, "")
	if err != nil {
		t.Fatalf("ClientIP: %v", err)
	}
	assert.DeepEqual(t, "socket peer IP", ip, "198.51.100.7")
}

func TestCheckTrustedIPEmptyListPasses(t *testing.T) {
	if err := auth.CheckTrustedIP(nil, "1.2.3.4"); err != nil {
		t.Fatalf("expected no restriction, got %v", err)
	}
}

func TestCheckTrustedIPMatches(t *testing.T) {
	if err := auth.CheckTrustedIP([]string{"10.0.0.0/8"}, "10.1.2.3"); err != nil {
		t.Fatalf("expected match, got %v", err)
	}
}

func TestCheckTrustedIPRejectsOutsideBlock(t *testing.T) {
	if err := auth.CheckTrustedIP([]string{"10.0.0.0/8"}, "192.168.1.1"); err == nil {
		t.Fatal("expected rejection for IP outside trusted CIDRs")
	}
}

func TestCheckTokenAcceptsKnown(t *testing.T) {
	if err := auth.CheckToken([]string{"master-token", "dataset-token"}, "dataset-token"); err != nil {
		t.Fatalf("expected acceptance, got %v", err)
	}
}

func TestCheckTokenRejectsUnknown(t *testing.T) {
	if err := auth.CheckToken([]string{"master-token"}, "someone-elses-token"); err == nil {
		t.Fatal("expected rejection for unrecognized token")
	}
}

func TestBearerTokenExtractsScheme(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer abc123")
	assert.DeepEqual(t, "bearer token", auth.BearerToken(r), "abc123")
}

func TestBearerTokenAcceptsBareToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "abc123")
	assert.DeepEqual(t, "bare token", auth.BearerToken(r), "abc123")
}
