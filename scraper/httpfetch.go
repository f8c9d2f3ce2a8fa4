package scraper

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	tls "github.com/refraction-networking/utls"
	"github.com/use-agent/webparse/config"
	"github.com/use-agent/webparse/extract"
	"github.com/use-agent/webparse/models"
	xproxy "golang.org/x/net/proxy"
)

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// chromeH1Spec is a Chrome-like TLS ClientHello with ALPN forced to http/1.1
// only. Computed once at init time and reused for every connection.
var chromeH1Spec tls.ClientHelloSpec

func init() {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		// Fallback: if spec generation fails, the dialer falls back to
		// HelloChrome_Auto as-is. Should never happen with a valid utls.
		return
	}
	// Replace h2 with http/1.1 only in the ALPN extension so the server
	// never negotiates HTTP/2 (which Go's http.Transport cannot handle
	// over a utls connection).
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	chromeH1Spec = spec
}

// HTTPFetcher retrieves pages with a single plain HTTP GET carrying a Chrome
// TLS fingerprint. It is the fast path for static pages that don't need
// JavaScript rendering; there is no retrying and no fallback inside it.
type HTTPFetcher struct {
	client    *http.Client
	cfg       config.FetchConfig
	tolerant  bool
	userAgent string
}

// NewHTTPFetcher creates an HTTPFetcher. The tolerant flag controls TLS
// certificate verification (mirrors --ignore-https-errors).
//
// http/https proxies go through the transport's CONNECT handling; socks5
// proxies replace the dialer so both plain and TLS connections tunnel
// through the proxy. Any other proxy URL is an INVALID_INPUT error rather
// than a silent direct connection.
func NewHTTPFetcher(cfg config.FetchConfig, tolerant bool) (*HTTPFetcher, error) {
	dial := directDial
	transport := &http.Transport{ForceAttemptHTTP2: false}

	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, models.NewParseError(
				models.ErrCodeInvalidInput,
				fmt.Sprintf("invalid --proxy URL %q", cfg.Proxy),
				err,
			)
		}
		switch proxyURL.Scheme {
		case "http", "https":
			transport.Proxy = http.ProxyURL(proxyURL)
		case "socks5", "socks5h":
			socksDialer, err := xproxy.FromURL(proxyURL, &net.Dialer{Timeout: 10 * time.Second})
			if err != nil {
				return nil, models.NewParseError(
					models.ErrCodeInvalidInput, "socks5 proxy setup failed", err)
			}
			dial = socksDial(socksDialer)
		default:
			return nil, models.NewParseError(
				models.ErrCodeInvalidInput,
				fmt.Sprintf("unsupported --proxy scheme %q (want http, https or socks5)", proxyURL.Scheme),
				nil,
			)
		}
	}

	transport.DialContext = dial
	transport.DialTLSContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		return dialTLSChrome(ctx, network, addr, tolerant, dial)
	}

	ua := cfg.UserAgent
	if ua == "" {
		ua = chromeUA
	}

	return &HTTPFetcher{
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		cfg:       cfg,
		tolerant:  tolerant,
		userAgent: ua,
	}, nil
}

// dialFunc establishes the raw TCP connection, directly or through a proxy.
type dialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

func directDial(ctx context.Context, network, addr string) (net.Conn, error) {
	d := &net.Dialer{Timeout: 10 * time.Second}
	return d.DialContext(ctx, network, addr)
}

// socksDial adapts an x/net proxy dialer. The SOCKS5 dialer implements
// ContextDialer; the Dial fallback covers any that do not.
func socksDial(d xproxy.Dialer) dialFunc {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		if cd, ok := d.(xproxy.ContextDialer); ok {
			return cd.DialContext(ctx, network, addr)
		}
		return d.Dial(network, addr)
	}
}

// Fetch performs the GET and returns the body as a FetchResult. Non-HTML
// responses are errors; an HTML error page (4xx/5xx) is still a result, its
// status code is simply reported.
func (f *HTTPFetcher) Fetch(ctx context.Context, req *Request) (*FetchResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, models.NewParseError(models.ErrCodeInvalidInput, "build request", err)
	}

	httpReq.Header.Set("User-Agent", f.userAgent)
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	httpReq.Header.Set("Accept-Language", "en-US,en;q=0.9")
	httpReq.Header.Set("Accept-Encoding", "identity")

	// Custom headers override the defaults.
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	for _, c := range req.Cookies {
		httpReq.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, models.NewParseError(models.ErrCodeFetch, "http request failed", err)
	}
	defer resp.Body.Close()

	maxBody := f.cfg.MaxBody
	if maxBody <= 0 {
		maxBody = 10 << 20
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, models.NewParseError(models.ErrCodeFetch, "read body", err)
	}

	if ct := resp.Header.Get("Content-Type"); !isHTMLContentType(ct) {
		return nil, models.NewParseError(
			models.ErrCodeFetch,
			fmt.Sprintf("non-HTML content type %q", ct),
			nil,
		)
	}

	html := string(body)
	return &FetchResult{
		HTML:       html,
		Title:      extract.Title(html),
		StatusCode: resp.StatusCode,
		FinalURL:   resp.Request.URL.String(),
		Cookies:    []models.Cookie{},
		Engine:     "http",
	}, nil
}

// dialTLSChrome establishes a TLS connection using a Chrome ClientHello on
// top of whatever raw connection dial produces (direct or socks5-tunneled).
func dialTLSChrome(ctx context.Context, network, addr string, tolerant bool, dial dialFunc) (net.Conn, error) {
	conn, err := dial(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	host, _, _ := net.SplitHostPort(addr)
	cfg := &tls.Config{ServerName: host, InsecureSkipVerify: tolerant}

	var tlsConn *tls.UConn
	if len(chromeH1Spec.Extensions) > 0 {
		tlsConn = tls.UClient(conn, cfg, tls.HelloCustom)
		if err := tlsConn.ApplyPreset(&chromeH1Spec); err != nil {
			conn.Close()
			return nil, fmt.Errorf("apply tls spec: %w", err)
		}
	} else {
		tlsConn = tls.UClient(conn, cfg, tls.HelloChrome_Auto)
	}

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return tlsConn, nil
}

// isHTMLContentType returns true if the content-type header looks like HTML.
func isHTMLContentType(ct string) bool {
	ct = strings.ToLower(ct)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml+xml")
}

var reNoscript = regexp.MustCompile(`<noscript[^>]*>[^<]*(enable|activate|turn on|requires?)\s+javascript`)

// emptySPARoots are container markers that indicate a client-side rendered
// shell when they appear with no content inside.
var emptySPARoots = []string{
	`<div id="root"></div>`,
	`<div id="app"></div>`,
	`<div id="__next"></div>`,
}

// NeedsBrowser uses heuristics to decide if HTTP-fetched HTML likely needs
// JS rendering (SPA shell, heavy JS dependency, noscript warnings). The auto
// engine escalates to the browser exactly once when this returns true.
func NeedsBrowser(html string) bool {
	bodyText := extract.VisibleText(html)

	// 1. Very little visible text in <body> → likely SPA shell.
	if len(bodyText) < 200 {
		return true
	}

	lower := strings.ToLower(html)

	// 2. Empty SPA root containers.
	for _, marker := range emptySPARoots {
		if strings.Contains(lower, marker) {
			return true
		}
	}

	// 3. <noscript> with JS-required warnings.
	if reNoscript.MatchString(lower) {
		return true
	}

	// 4. Many <script> tags + little body text → JS-heavy page.
	if strings.Count(lower, "<script") > 10 && len(bodyText) < 500 {
		return true
	}

	return false
}
