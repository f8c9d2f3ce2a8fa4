package main

import (
	"testing"
)

func TestParseHeaders(t *testing.T) {
	headers, err := parseHeaders([]string{"X-Custom: value", "Referer:https://example.com/a?b=c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if headers["X-Custom"] != "value" {
		t.Errorf("X-Custom = %q", headers["X-Custom"])
	}
	// Only the first colon splits, so URLs survive as values.
	if headers["Referer"] != "https://example.com/a?b=c" {
		t.Errorf("Referer = %q", headers["Referer"])
	}
}

func TestParseHeaders_Invalid(t *testing.T) {
	for _, bad := range []string{"no-colon", ":empty-key"} {
		if _, err := parseHeaders([]string{bad}); err == nil {
			t.Errorf("header %q should be rejected", bad)
		}
	}
}

func TestParseHeaders_Empty(t *testing.T) {
	headers, err := parseHeaders(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if headers != nil {
		t.Errorf("expected nil map, got %v", headers)
	}
}

func TestParseCookies(t *testing.T) {
	cookies, err := parseCookies([]string{"session=abc", "pref=a=b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cookies) != 2 {
		t.Fatalf("expected 2 cookies, got %d", len(cookies))
	}
	if cookies[0].Name != "session" || cookies[0].Value != "abc" {
		t.Errorf("cookie[0] = %+v", cookies[0])
	}
	// Only the first "=" splits, values may contain "=".
	if cookies[1].Name != "pref" || cookies[1].Value != "a=b" {
		t.Errorf("cookie[1] = %+v", cookies[1])
	}
}

func TestParseCookies_Invalid(t *testing.T) {
	for _, bad := range []string{"novalue", "=orphan"} {
		if _, err := parseCookies([]string{bad}); err == nil {
			t.Errorf("cookie %q should be rejected", bad)
		}
	}
}

func TestShouldTryHTTP(t *testing.T) {
	tests := []struct {
		name         string
		engine       string
		waitSelector string
		want         bool
	}{
		{"http engine", "http", "", true},
		// The explicit http engine runs even though it cannot honor the
		// selector; it only warns.
		{"http engine with selector", "http", "#app", true},
		{"auto without selector", "auto", "", true},
		// A wait selector needs a live DOM, so auto must not settle for
		// an HTTP result that never waited for it.
		{"auto with selector goes to browser", "auto", "#app", false},
		{"browser engine", "browser", "", false},
		{"browser engine with selector", "browser", "#app", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldTryHTTP(tt.engine, tt.waitSelector); got != tt.want {
				t.Errorf("shouldTryHTTP(%q, %q) = %v, want %v",
					tt.engine, tt.waitSelector, got, tt.want)
			}
		})
	}
}

func TestBuildRequest_RejectsBadURLs(t *testing.T) {
	for _, bad := range []string{"ftp://example.com", "example.com", "not a url"} {
		if _, err := buildRequest(bad); err == nil {
			t.Errorf("URL %q should be rejected", bad)
		}
	}
}

func TestBuildRequest_Valid(t *testing.T) {
	req, err := buildRequest("https://example.com/page")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.URL != "https://example.com/page" {
		t.Errorf("URL = %q", req.URL)
	}
}
