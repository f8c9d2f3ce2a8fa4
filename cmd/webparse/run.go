package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/use-agent/webparse/extract"
	"github.com/use-agent/webparse/models"
	"github.com/use-agent/webparse/scraper"
)

// run executes one parse and returns the process exit code.
//
// Orchestration flow:
//
//  1. Validate input (URL, selectors, headers, cookies), failing fast.
//  2. Fetch the page with the selected engine.
//  3. Extract links, images, forms and metadata from the HTML.
//  4. Serialize the result to stdout or --output.
func run(targetURL string) int {
	if err := initLogger(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitError
	}

	start := time.Now()

	// ── 1. Validate input ───────────────────────────────────────────
	req, err := buildRequest(targetURL)
	if err != nil {
		slog.Error("invalid input", "code", models.CodeOf(err), "error", err)
		return exitError
	}
	applyFlags()

	slog.Info("webparse starting",
		"url", targetURL,
		"engine", cfg.Fetch.Engine,
		"timeout", cfg.Fetch.Timeout,
	)

	// SIGINT/SIGTERM cancel the fetch; the run then exits 130.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fetchCtx, cancel := context.WithTimeout(ctx, cfg.Fetch.Timeout)
	defer cancel()

	// ── 2. Fetch ────────────────────────────────────────────────────
	result, err := fetch(fetchCtx, req)
	if err != nil {
		if ctx.Err() != nil {
			slog.Warn("interrupted")
			return exitInterrupt
		}
		slog.Error("fetch failed", "code", models.CodeOf(err), "url", targetURL, "error", err)
		return exitError
	}

	// ── 3. Extract ──────────────────────────────────────────────────
	page := assemble(result, start)

	// ── 4. Serialize ────────────────────────────────────────────────
	if err := writeResult(page); err != nil {
		slog.Error("write failed", "code", models.CodeOf(err), "error", err)
		return exitError
	}

	slog.Info("webparse finished",
		"url", page.URL,
		"status", page.StatusCode,
		"links", len(page.Links),
		"images", len(page.Images),
		"forms", len(page.Forms),
		"elapsed", time.Since(start),
	)
	return exitOK
}

// buildRequest validates the CLI input and assembles the fetch request.
func buildRequest(targetURL string) (*scraper.Request, error) {
	u, err := url.Parse(targetURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, models.NewParseError(
			models.ErrCodeInvalidInput,
			fmt.Sprintf("URL must be absolute http(s), got %q", targetURL),
			err,
		)
	}

	if flagWaitSelector != "" {
		if err := extract.ValidateSelector(flagWaitSelector); err != nil {
			return nil, models.NewParseError(
				models.ErrCodeInvalidInput, "invalid --wait-selector", err)
		}
	}
	if flagCSSSelector != "" {
		if err := extract.ValidateSelector(flagCSSSelector); err != nil {
			return nil, models.NewParseError(
				models.ErrCodeInvalidInput, "invalid --css-selector", err)
		}
	}

	headers, err := parseHeaders(flagHeaders)
	if err != nil {
		return nil, err
	}
	cookies, err := parseCookies(flagCookies)
	if err != nil {
		return nil, err
	}

	return &scraper.Request{
		URL:          targetURL,
		WaitSelector: flagWaitSelector,
		Headers:      headers,
		Cookies:      cookies,
	}, nil
}

// applyFlags merges the command-line flags over the env-derived config.
func applyFlags() {
	cfg.Fetch.Engine = flagEngine
	cfg.Fetch.Timeout = time.Duration(flagTimeout) * time.Second
	cfg.Fetch.WaitTime = time.Duration(flagWaitTime) * time.Second
	cfg.Fetch.Proxy = flagProxy
	cfg.Fetch.UserAgent = flagUserAgent
	cfg.Browser.Headless = !flagVisible
	cfg.Browser.IgnoreHTTPSErrors = flagIgnoreHTTPSErrors
	cfg.Browser.Stealth = flagStealth
	cfg.Browser.BlockedResourceTypes = flagBlock
}

// fetch runs the selected engine. The auto engine tries a plain HTTP GET
// first and escalates to the browser exactly once, when the HTTP fetch
// fails or the body looks JS-dependent.
//
// A wait selector needs a live DOM, so auto mode skips the HTTP attempt
// entirely when one is set; forcing the http engine keeps the selector
// unenforced and only warns.
func fetch(ctx context.Context, req *scraper.Request) (*scraper.FetchResult, error) {
	engine := cfg.Fetch.Engine

	if req.WaitSelector != "" {
		switch engine {
		case "http":
			slog.Warn("--wait-selector has no effect with the http engine")
		case "auto":
			slog.Info("--wait-selector set, skipping http attempt")
		}
	}

	if shouldTryHTTP(engine, req.WaitSelector) {
		f, err := scraper.NewHTTPFetcher(cfg.Fetch, cfg.Browser.IgnoreHTTPSErrors)
		if err != nil {
			return nil, err
		}
		result, err := f.Fetch(ctx, req)

		if engine == "http" {
			return result, err
		}
		if err == nil && !scraper.NeedsBrowser(result.HTML) {
			return result, nil
		}
		if err != nil {
			slog.Info("http fetch failed, using browser", "error", err)
		} else {
			slog.Info("page looks JS-dependent, using browser")
		}
	}

	sc, err := scraper.NewScraper(cfg.Browser, cfg.Fetch)
	if err != nil {
		return nil, err
	}
	defer sc.Close()

	return sc.Fetch(ctx, req)
}

// shouldTryHTTP reports whether the HTTP engine handles (or first attempts)
// the fetch. Only the browser can wait for a selector, so auto mode routes
// straight to it when one is set; the explicit http engine still runs, it
// just cannot honor the selector.
func shouldTryHTTP(engine, waitSelector string) bool {
	switch engine {
	case "http":
		return true
	case "auto":
		return waitSelector == ""
	default:
		return false
	}
}

// assemble builds the final PageResult from a fetch result.
//
// Extraction is soft: a failure in any single extractor logs a warning and
// leaves that list empty, matching the original tool which still exited 0
// when link or form extraction broke.
func assemble(result *scraper.FetchResult, start time.Time) *models.PageResult {
	html := result.HTML
	if flagCSSSelector != "" {
		filtered, matched, err := extract.ApplyCSSSelector(html, flagCSSSelector)
		switch {
		case err != nil:
			slog.Warn("css selector filter failed, using full HTML", "error", err)
		case matched == 0:
			slog.Warn("css selector matched nothing, keeping full HTML",
				"selector", flagCSSSelector)
		default:
			slog.Debug("css selector applied",
				"selector", flagCSSSelector, "matches", matched)
			html = filtered
		}
	}

	text := result.Text
	if text == "" {
		text = extract.VisibleText(html)
	}

	title := result.Title
	if title == "" {
		title = extract.Title(result.HTML)
	}

	meta := extract.Metadata(result.HTML, result.FinalURL)
	meta.Viewport = result.Viewport
	meta.Cookies = result.Cookies
	if meta.Cookies == nil {
		meta.Cookies = []models.Cookie{}
	}
	meta.Engine = result.Engine
	meta.FetchedAt = start.UTC()
	meta.ElapsedMs = time.Since(start).Milliseconds()

	page := &models.PageResult{
		URL:        result.FinalURL,
		Title:      title,
		StatusCode: result.StatusCode,
		HTML:       html,
		Text:       text,
		Links:      extract.Links(html, result.FinalURL),
		Images:     extract.Images(html, result.FinalURL),
		Forms:      extract.Forms(html, result.FinalURL),
		Metadata:   meta,
	}

	if flagMarkdown {
		md, err := extract.Markdown(result.HTML, result.FinalURL)
		if err != nil {
			slog.Warn("markdown rendering failed", "error", err)
		} else {
			page.Markdown = md
		}
	}

	return page
}

// writeResult serializes the page to --output or stdout. HTML escaping is
// disabled so URLs and markup stay readable, and non-ASCII text is emitted
// as-is (the original tool wrote UTF-8 without escapes).
func writeResult(page *models.PageResult) error {
	out := os.Stdout
	if flagOutput != "" {
		file, err := os.Create(flagOutput)
		if err != nil {
			return models.NewParseError(models.ErrCodeOutput, "create output file", err)
		}
		defer file.Close()
		out = file
	}

	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	if !flagCompact {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(page); err != nil {
		return models.NewParseError(models.ErrCodeOutput, "encode result", err)
	}

	if flagOutput != "" {
		slog.Info("result saved", "path", flagOutput)
	}
	return nil
}

// parseHeaders converts repeated "Key:Value" flags into a header map.
func parseHeaders(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		key, value, found := strings.Cut(h, ":")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			return nil, models.NewParseError(
				models.ErrCodeInvalidInput,
				fmt.Sprintf("header %q must be Key:Value", h),
				nil,
			)
		}
		headers[key] = strings.TrimSpace(value)
	}
	return headers, nil
}

// parseCookies converts repeated "name=value" flags into request cookies.
func parseCookies(raw []string) ([]scraper.RequestCookie, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	cookies := make([]scraper.RequestCookie, 0, len(raw))
	for _, c := range raw {
		name, value, found := strings.Cut(c, "=")
		name = strings.TrimSpace(name)
		if !found || name == "" {
			return nil, models.NewParseError(
				models.ErrCodeInvalidInput,
				fmt.Sprintf("cookie %q must be name=value", c),
				nil,
			)
		}
		cookies = append(cookies, scraper.RequestCookie{Name: name, Value: value})
	}
	return cookies, nil
}
