package extract

import (
	"log/slog"
	nurl "net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/use-agent/webparse/models"
)

// Metadata extracts page-level metadata from the raw HTML: description,
// author, site name and language via the Readability algorithm, with plain
// <meta> tags and the <html lang> attribute as fallbacks, plus Open Graph
// tags.
//
// Extraction is best-effort: any failure returns whatever was gathered so
// far. The caller fills in run-level fields (engine, timing, cookies).
func Metadata(rawHTML string, sourceURL string) models.Metadata {
	meta := models.Metadata{
		OG: OGMetadata(rawHTML),
	}

	if parsedURL, err := nurl.Parse(sourceURL); err == nil {
		article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
		if err != nil {
			slog.Warn("readability metadata extraction failed",
				"url", sourceURL, "error", err,
			)
		} else {
			meta.Description = article.Excerpt
			meta.Author = article.Byline
			meta.SiteName = article.SiteName
			meta.Language = article.Language
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return meta
	}

	if meta.Description == "" {
		meta.Description, _ = doc.Find(`meta[name="description"]`).Attr("content")
	}
	if meta.Author == "" {
		meta.Author, _ = doc.Find(`meta[name="author"]`).Attr("content")
	}
	if meta.Language == "" {
		meta.Language, _ = doc.Find("html").Attr("lang")
	}

	return meta
}

// OGMetadata parses Open Graph meta tags from the raw HTML.
func OGMetadata(rawHTML string) models.OGMetadata {
	og := models.OGMetadata{}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return og
	}

	doc.Find("meta[property]").Each(func(_ int, s *goquery.Selection) {
		prop, _ := s.Attr("property")
		content, _ := s.Attr("content")
		if content == "" {
			return
		}
		switch prop {
		case "og:title":
			og.Title = content
		case "og:description":
			og.Description = content
		case "og:image":
			og.Image = content
		case "og:type":
			og.Type = content
		}
	})

	return og
}

// Title returns the <title> text from the raw HTML, trimmed. Used as a
// fallback when the fetch engine could not evaluate document.title.
func Title(rawHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
