package models

import "time"

// PageResult is the JSON document webparse emits for a parsed page.
type PageResult struct {
	// URL is the page's final location after following redirects.
	URL string `json:"url"`

	// Title is the document title.
	Title string `json:"title"`

	// StatusCode is the HTTP status of the navigation response.
	// 0 when the page exposes no navigation entry (e.g. about:blank).
	StatusCode int `json:"status_code"`

	// HTML is the rendered page HTML. When a CSS selector filter is set,
	// it is the concatenated outer HTML of the matched elements.
	HTML string `json:"html"`

	// Text is the visible body text.
	Text string `json:"text"`

	// Markdown is the page's main content rendered as Markdown.
	// Populated only when Markdown output was requested.
	Markdown string `json:"markdown,omitempty"`

	// Links are the hyperlinks extracted from the page, resolved to
	// absolute URLs and deduplicated.
	Links []Link `json:"links"`

	// Images are the image elements extracted from the page.
	Images []Image `json:"images"`

	// Forms describe the forms found on the page.
	Forms []Form `json:"forms"`

	// Metadata holds page-level and run-level information.
	Metadata Metadata `json:"metadata"`
}

// Link is a hyperlink extracted from the page.
type Link struct {
	Href string `json:"href"`
	Text string `json:"text,omitempty"`

	// Internal is true when the link host matches the page host.
	Internal bool `json:"internal"`
}

// Image is an image element extracted from the page.
type Image struct {
	Src string `json:"src"`
	Alt string `json:"alt,omitempty"`
}

// Form describes a form element and its named fields.
type Form struct {
	Action string      `json:"action"`
	Method string      `json:"method"`
	Fields []FormField `json:"fields"`
}

// FormField is a single named control inside a form.
type FormField struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Tag  string `json:"tag"`
}

// Metadata holds page metadata plus details about the run itself.
type Metadata struct {
	Description string `json:"description,omitempty"`
	Author      string `json:"author,omitempty"`
	SiteName    string `json:"site_name,omitempty"`
	Language    string `json:"language,omitempty"`

	// OG contains Open Graph meta tags.
	OG OGMetadata `json:"og"`

	// Viewport is the browser viewport size. Nil in http engine mode.
	Viewport *Viewport `json:"viewport,omitempty"`

	// Cookies are the cookies visible to the page after load.
	// Empty in http engine mode.
	Cookies []Cookie `json:"cookies"`

	// Engine records which fetch engine produced the result
	// ("browser" or "http").
	Engine string `json:"engine"`

	// FetchedAt is the wall-clock time the fetch started.
	FetchedAt time.Time `json:"fetched_at"`

	// ElapsedMs is the end-to-end duration in milliseconds.
	ElapsedMs int64 `json:"elapsed_ms"`
}

// OGMetadata contains Open Graph protocol meta tags.
type OGMetadata struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	Type        string `json:"type,omitempty"`
}

// Viewport is the browser viewport size in CSS pixels.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Cookie is a cookie visible to the page after load.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"http_only"`
	Secure   bool    `json:"secure"`
}
