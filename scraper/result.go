package scraper

import "github.com/use-agent/webparse/models"

// Request describes one page fetch.
type Request struct {
	// URL is the target page. Required.
	URL string

	// WaitSelector, when set, makes the browser engine wait until at
	// least one element matching the CSS selector exists.
	WaitSelector string

	// Headers are extra request headers.
	Headers map[string]string

	// Cookies are set before navigation.
	Cookies []RequestCookie
}

// RequestCookie is a cookie supplied by the caller.
type RequestCookie struct {
	Name  string
	Value string
}

// FetchResult is the unified return type of both fetch engines.
type FetchResult struct {
	// HTML is the page HTML (rendered for the browser engine, raw body
	// for the http engine).
	HTML string

	// Text is the visible body text. Empty for the http engine; the
	// caller derives it from HTML instead.
	Text string

	// Title is the document title.
	Title string

	// StatusCode is the HTTP status of the navigation response.
	StatusCode int

	// FinalURL is the URL after following all redirects.
	FinalURL string

	// Viewport is the browser viewport size. Nil for the http engine.
	Viewport *models.Viewport

	// Cookies are the cookies visible to the page after load.
	Cookies []models.Cookie

	// Engine records which engine produced the result: "browser" or "http".
	Engine string
}
