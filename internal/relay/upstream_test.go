package relay

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestBuildUpstreamHeadersDefaults(t *testing.T) {
	headers := buildUpstreamHeaders(DefaultHeaderPolicy(), "unknown.example.com", "")
	if !strings.HasPrefix(headers["User-Agent"], "Mozilla/5.0") {
		t.Fatalf("unexpected User-Agent: %s", headers["User-Agent"])
	}
	if headers["Accept"] != "*/*" {
		t.Fatalf("unexpected Accept: %s", headers["Accept"])
	}
	if _, ok := headers["Range"]; ok {
		t.Fatal("expected no Range header")
	}
	if _, ok := headers["Origin"]; ok {
		t.Fatal("expected no Origin for unknown host")
	}
}

func TestBuildUpstreamHeadersPolicyAndRange(t *testing.T) {
	headers := buildUpstreamHeaders(DefaultHeaderPolicy(), "hls.krussdomi.com", "bytes=0-1023")
	if headers["Origin"] != "https://hls.krussdomi.com" {
		t.Fatalf("unexpected Origin: %s", headers["Origin"])
	}
	if headers["Range"] != "bytes=0-1023" {
		t.Fatalf("unexpected Range: %s", headers["Range"])
	}
}

func TestFetchAppliesHeaders(t *testing.T) {
	var seen http.Header
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	policy := &HeaderPolicy{Rules: []HeaderRule{
		{Pattern: "127.0.0.1", Origin: "https://media.example.org", Referer: "https://media.example.org/"},
	}}
	client := NewUpstreamClient(policy, time.Second)

	target, err := url.Parse(upstream.URL + "/seg1.ts")
	if err != nil {
		t.Fatalf("parse target: %v", err)
	}
	resp, err := client.Fetch(context.Background(), http.MethodGet, target, "bytes=0-99")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	resp.Body.Close()

	if !strings.HasPrefix(seen.Get("User-Agent"), "Mozilla/5.0") {
		t.Fatalf("caller User-Agent not replaced: %s", seen.Get("User-Agent"))
	}
	if seen.Get("Origin") != "https://media.example.org" {
		t.Fatalf("policy Origin missing: %s", seen.Get("Origin"))
	}
	if seen.Get("Range") != "bytes=0-99" {
		t.Fatalf("Range not forwarded: %s", seen.Get("Range"))
	}
}
