package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/webparse/models"
)

// Links parses the raw HTML and returns hyperlinks resolved against the
// source URL. Only http(s) links are kept, deduplicated by absolute URL.
// Links whose host matches the source host are marked Internal.
func Links(rawHTML string, sourceURL string) []models.Link {
	links := []models.Link{}

	base, err := url.Parse(sourceURL)
	if err != nil {
		return links
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return links
	}

	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists || href == "" {
			return
		}

		// Resolve relative URLs against the base.
		resolved, err := base.Parse(href)
		if err != nil {
			return
		}

		// Skip fragments, javascript:, mailto:, tel: etc.
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}

		absURL := resolved.String()
		if _, ok := seen[absURL]; ok {
			return
		}
		seen[absURL] = struct{}{}

		links = append(links, models.Link{
			Href:     absURL,
			Text:     strings.TrimSpace(s.Text()),
			Internal: strings.EqualFold(resolved.Host, base.Host),
		})
	})

	return links
}

// Images parses the raw HTML and returns image elements with absolute URLs.
// Data URIs are skipped; duplicates are dropped.
func Images(rawHTML string, sourceURL string) []models.Image {
	images := []models.Image{}

	base, err := url.Parse(sourceURL)
	if err != nil {
		return images
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return images
	}

	seen := make(map[string]struct{})
	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		src, exists := s.Attr("src")
		if !exists || src == "" {
			return
		}

		resolved, err := base.Parse(src)
		if err != nil {
			return
		}
		if resolved.Scheme == "data" {
			return
		}

		absURL := resolved.String()
		if _, ok := seen[absURL]; ok {
			return
		}
		seen[absURL] = struct{}{}

		alt, _ := s.Attr("alt")
		images = append(images, models.Image{
			Src: absURL,
			Alt: strings.TrimSpace(alt),
		})
	})

	return images
}

// Forms parses the raw HTML and returns form descriptions. The action is
// resolved against the source URL (an empty action resolves to the page
// itself, matching browser behavior). The method defaults to "get".
func Forms(rawHTML string, sourceURL string) []models.Form {
	forms := []models.Form{}

	base, err := url.Parse(sourceURL)
	if err != nil {
		return forms
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return forms
	}

	doc.Find("form").Each(func(_ int, f *goquery.Selection) {
		action, _ := f.Attr("action")
		resolvedAction := sourceURL
		if resolved, err := base.Parse(action); err == nil {
			resolvedAction = resolved.String()
		}

		method, _ := f.Attr("method")
		method = strings.ToLower(strings.TrimSpace(method))
		if method == "" {
			method = "get"
		}

		fields := []models.FormField{}
		f.Find("input, select, textarea, button").Each(func(_ int, el *goquery.Selection) {
			name, _ := el.Attr("name")
			if name == "" {
				return
			}
			tag := goquery.NodeName(el)
			typ, hasType := el.Attr("type")
			if !hasType || typ == "" {
				// Browsers report "text" for untyped inputs and the tag
				// name for the other controls.
				if tag == "input" {
					typ = "text"
				} else {
					typ = tag
				}
			}
			fields = append(fields, models.FormField{
				Name: name,
				Type: strings.ToLower(typ),
				Tag:  tag,
			})
		})

		forms = append(forms, models.Form{
			Action: resolvedAction,
			Method: method,
			Fields: fields,
		})
	})

	return forms
}
