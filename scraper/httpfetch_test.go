package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/use-agent/webparse/config"
	"github.com/use-agent/webparse/models"
)

// richBody is enough visible text to not look like an SPA shell.
var richBody = "<p>" + strings.Repeat("Plenty of server-rendered words here. ", 20) + "</p>"

func newFetcher(t *testing.T) *HTTPFetcher {
	t.Helper()
	f, err := NewHTTPFetcher(config.FetchConfig{MaxBody: 1 << 20}, false)
	if err != nil {
		t.Fatalf("NewHTTPFetcher: %v", err)
	}
	return f
}

func TestHTTPFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><title>Test Page</title></head><body>` + richBody + `</body></html>`))
	}))
	defer srv.Close()

	result, err := newFetcher(t).Fetch(context.Background(), &Request{URL: srv.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Title != "Test Page" {
		t.Errorf("title = %q, want %q", result.Title, "Test Page")
	}
	if result.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", result.StatusCode)
	}
	if result.FinalURL != srv.URL {
		t.Errorf("final URL = %q, want %q", result.FinalURL, srv.URL)
	}
	if result.Engine != "http" {
		t.Errorf("engine = %q, want %q", result.Engine, "http")
	}
	if !strings.Contains(result.HTML, "Plenty of server-rendered") {
		t.Error("body content missing from HTML")
	}
}

func TestHTTPFetcher_ErrorPageIsStillAResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`<html><head><title>Not Found</title></head><body>nope</body></html>`))
	}))
	defer srv.Close()

	result, err := newFetcher(t).Fetch(context.Background(), &Request{URL: srv.URL})
	if err != nil {
		t.Fatalf("HTML error page should not be a fetch error: %v", err)
	}
	if result.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", result.StatusCode)
	}
}

func TestHTTPFetcher_RejectsNonHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4"))
	}))
	defer srv.Close()

	if _, err := newFetcher(t).Fetch(context.Background(), &Request{URL: srv.URL}); err == nil {
		t.Error("expected error for non-HTML content type")
	}
}

func TestHTTPFetcher_SendsHeadersAndCookies(t *testing.T) {
	var gotHeader, gotCookie string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Custom")
		if c, err := r.Cookie("session"); err == nil {
			gotCookie = c.Value
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body>` + richBody + `</body></html>`))
	}))
	defer srv.Close()

	req := &Request{
		URL:     srv.URL,
		Headers: map[string]string{"X-Custom": "value"},
		Cookies: []RequestCookie{{Name: "session", Value: "abc123"}},
	}
	if _, err := newFetcher(t).Fetch(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotHeader != "value" {
		t.Errorf("X-Custom header = %q, want %q", gotHeader, "value")
	}
	if gotCookie != "abc123" {
		t.Errorf("session cookie = %q, want %q", gotCookie, "abc123")
	}
}

func TestHTTPFetcher_FollowsRedirects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			http.Redirect(w, r, "/final", http.StatusFound)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body>` + richBody + `</body></html>`))
	}))
	defer srv.Close()

	result, err := newFetcher(t).Fetch(context.Background(), &Request{URL: srv.URL + "/"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.FinalURL != srv.URL+"/final" {
		t.Errorf("final URL = %q, want %q", result.FinalURL, srv.URL+"/final")
	}
}

func TestNewHTTPFetcher_ProxyValidation(t *testing.T) {
	tests := []struct {
		name    string
		proxy   string
		wantErr bool
	}{
		{"no proxy", "", false},
		{"http proxy", "http://127.0.0.1:8080", false},
		{"https proxy", "https://127.0.0.1:8443", false},
		{"socks5 proxy", "socks5://127.0.0.1:1080", false},
		{"socks5h proxy", "socks5h://127.0.0.1:1080", false},
		{"unsupported scheme", "ftp://127.0.0.1:21", true},
		{"missing scheme", "127.0.0.1:1080", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewHTTPFetcher(config.FetchConfig{Proxy: tt.proxy}, false)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && models.CodeOf(err) != models.ErrCodeInvalidInput {
				t.Errorf("error code = %q, want %q", models.CodeOf(err), models.ErrCodeInvalidInput)
			}
		})
	}
}

func TestHTTPFetcher_SocksProxyIsNotBypassed(t *testing.T) {
	var reachedDirectly bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reachedDirectly = true
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body>` + richBody + `</body></html>`))
	}))
	defer srv.Close()

	// Port 1 refuses connections, so the fetch must fail through the proxy
	// instead of silently falling back to a direct connection.
	f, err := NewHTTPFetcher(config.FetchConfig{Proxy: "socks5://127.0.0.1:1"}, false)
	if err != nil {
		t.Fatalf("NewHTTPFetcher: %v", err)
	}
	if _, err := f.Fetch(context.Background(), &Request{URL: srv.URL}); err == nil {
		t.Fatal("fetch should fail when the socks5 proxy is unreachable")
	}
	if reachedDirectly {
		t.Error("request reached the server directly, bypassing the proxy")
	}
}

func TestNeedsBrowser(t *testing.T) {
	tests := []struct {
		name string
		html string
		want bool
	}{
		{
			"server rendered",
			`<html><body>` + richBody + `</body></html>`,
			false,
		},
		{
			"tiny body",
			`<html><body><div>hi</div></body></html>`,
			true,
		},
		{
			"empty spa root",
			`<html><body><div id="root"></div>` + richBody + `</body></html>`,
			true,
		},
		{
			"noscript warning",
			`<html><body><noscript>Please enable JavaScript to continue</noscript>` + richBody + `</body></html>`,
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NeedsBrowser(tt.html); got != tt.want {
				t.Errorf("NeedsBrowser() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsHTMLContentType(t *testing.T) {
	tests := []struct {
		ct   string
		want bool
	}{
		{"text/html", true},
		{"text/html; charset=utf-8", true},
		{"application/xhtml+xml", true},
		{"application/json", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := isHTMLContentType(tt.ct); got != tt.want {
			t.Errorf("isHTMLContentType(%q) = %v, want %v", tt.ct, got, tt.want)
		}
	}
}
