package scraper

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/webparse/models"
	"github.com/ysmood/gson"
)

// Fetch loads the page in the browser and captures its rendered state.
//
// Lifecycle:
//
//  1. Create page              – one fresh tab per invocation
//  2. DEFER: close page        – the tab never outlives the run
//  3. Stealth injection        – mask navigator.webdriver etc. (before navigation!)
//  4. UA / headers / cookies   – must also be installed before navigation
//  5. Hijack mount             – optional resource blocking (before navigation!)
//  6. Context binding          – propagate the deadline to all Rod operations
//  7. Navigate                 – bounded by the navigation timeout
//  8. Wait                     – load event, DOM stable, optional selector, settle time
//  9. Extract                  – status code, HTML, text, title, URL, viewport, cookies
//
// Steps 3-5 must happen before step 7: stealth JS, header overrides and
// resource blocking only take effect for navigations that start after they
// are installed.
func (s *Scraper) Fetch(ctx context.Context, req *Request) (*FetchResult, error) {
	// ── 1. Create page ────────────────────────────────────────────────
	page, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, models.NewParseError(
			models.ErrCodeBrowserCrash,
			"failed to create page",
			err,
		)
	}

	// ── 2. Close the tab using the original page reference, so cleanup
	// succeeds even if the request context has expired.
	defer func() {
		if closeErr := page.Close(); closeErr != nil {
			slog.Warn("failed to close page", "error", closeErr)
		}
	}()

	// ── 3. Stealth injection ──────────────────────────────────────────
	if s.browserCfg.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth",
				"error", evalErr,
			)
		}
	}

	// ── 4. User agent, extra headers, cookies ────────────────────────
	if s.fetchCfg.UserAgent != "" {
		if uaErr := (proto.NetworkSetUserAgentOverride{
			UserAgent: s.fetchCfg.UserAgent,
		}).Call(page); uaErr != nil {
			slog.Warn("failed to override user agent", "error", uaErr)
		}
	}

	if len(req.Headers) > 0 {
		if hdrErr := (proto.NetworkSetExtraHTTPHeaders{
			Headers: toHeadersMap(req.Headers),
		}).Call(page); hdrErr != nil {
			slog.Warn("failed to set extra headers", "error", hdrErr)
		}
	}

	for _, cookie := range req.Cookies {
		domain := ""
		if u, parseErr := url.Parse(req.URL); parseErr == nil {
			domain = u.Hostname()
		}
		_, _ = proto.NetworkSetCookie{
			Name:   cookie.Name,
			Value:  cookie.Value,
			Domain: domain,
			Path:   "/",
		}.Call(page)
	}

	// ── 5. Mount hijack router (optional resource blocking) ──────────
	router := setupHijack(page, s.browserCfg.BlockedResourceTypes)
	if router != nil {
		defer func() { _ = router.Stop() }()
	}

	// ── 6. Bind the request context to the page ──────────────────────
	p := page.Context(ctx)

	// ── 7. Navigate (bounded by the navigation timeout) ──────────────
	slog.Info("navigating", "url", req.URL)
	nav := p.Timeout(s.fetchCfg.NavigationTimeout)
	if navErr := nav.Navigate(req.URL); navErr != nil {
		return nil, categorizeError(navErr, "navigation to target URL failed")
	}

	// ── 8. Wait strategy ──────────────────────────────────────────────
	// Load event first, then wait for the DOM to stop mutating. Both are
	// best-effort: a page that never fires load still gets extracted.
	if loadErr := p.WaitLoad(); loadErr != nil {
		slog.Debug("load event not observed, proceeding", "error", loadErr)
	}
	if stableErr := p.WaitDOMStable(300*time.Millisecond, 0.1); stableErr != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM",
			"error", stableErr,
		)
	}

	if req.WaitSelector != "" {
		slog.Info("waiting for selector", "selector", req.WaitSelector)
		if selErr := p.WaitElementsMoreThan(req.WaitSelector, 0); selErr != nil {
			return nil, models.NewParseError(
				models.ErrCodeSelectorTimeout,
				"element matching --wait-selector did not appear",
				selErr,
			)
		}
	}

	// Extra settle time for late dynamic content.
	if s.fetchCfg.WaitTime > 0 {
		select {
		case <-time.After(s.fetchCfg.WaitTime):
		case <-ctx.Done():
			return nil, categorizeError(ctx.Err(), "settle wait interrupted")
		}
	}
	slog.Info("page loaded", "url", req.URL)

	// ── 9. Extract ────────────────────────────────────────────────────
	// Status code via the Performance API; no CDP event listeners needed
	// and it works regardless of when we attached to the page.
	statusCode := 0
	if res, evalErr := p.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch(e) {}
		return 0;
	}`); evalErr == nil {
		statusCode = res.Value.Int()
	}

	rawHTML, htmlErr := p.HTML()
	if htmlErr != nil {
		return nil, categorizeError(htmlErr, "failed to extract page HTML")
	}

	title := evalStringOrEmpty(p, `() => document.title`)
	text := evalStringOrEmpty(p, `() => document.body ? document.body.innerText : ""`)
	finalURL := evalStringOrEmpty(p, `() => window.location.href`)
	if finalURL == "" {
		finalURL = req.URL
	}

	result := &FetchResult{
		HTML:       rawHTML,
		Text:       text,
		Title:      title,
		StatusCode: statusCode,
		FinalURL:   finalURL,
		Viewport:   getViewport(p),
		Cookies:    getCookies(p),
		Engine:     "browser",
	}
	return result, nil
}

// getViewport reads the viewport size from the page. Best-effort.
func getViewport(p *rod.Page) *models.Viewport {
	res, err := p.Eval(`() => ({width: window.innerWidth, height: window.innerHeight})`)
	if err != nil {
		return nil
	}
	return &models.Viewport{
		Width:  res.Value.Get("width").Int(),
		Height: res.Value.Get("height").Int(),
	}
}

// getCookies returns the cookies visible to the page. Best-effort.
func getCookies(p *rod.Page) []models.Cookie {
	cookies := []models.Cookie{}
	raw, err := p.Cookies(nil)
	if err != nil {
		slog.Warn("failed to read cookies", "error", err)
		return cookies
	}
	for _, c := range raw {
		cookies = append(cookies, models.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  float64(c.Expires),
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
		})
	}
	return cookies
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors (useful for optional metadata extraction).
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// categorizeError wraps raw errors into typed ParseErrors so the CLI layer
// can map them to log codes and exit behavior.
func categorizeError(err error, msg string) *models.ParseError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewParseError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewParseError(models.ErrCodeTimeout, "fetch canceled", err)
	default:
		return models.NewParseError(models.ErrCodeNavigation, msg, err)
	}
}
